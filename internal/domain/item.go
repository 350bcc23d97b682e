package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Kind distinguishes the two content classes moving through the pipeline.
type Kind string

const (
	KindArticle Kind = "article"
	KindTrack   Kind = "track"
)

// Status enumerates item lifecycle states. Transitions only ever move
// forward through the pipeline or terminate in StatusRejected; there is no
// way out of StatusPublished or StatusRejected.
type Status string

const (
	StatusPendingReview      Status = "pending_review"
	StatusPendingTranslation Status = "pending_translation"
	StatusTranslated         Status = "translated"
	StatusPublished          Status = "published"
	StatusRejected           Status = "rejected"
)

// Item is the central persisted entity. ID, Title, Link, Source and Kind are
// immutable after insertion; the remaining fields are filled in by later
// pipeline stages.
type Item struct {
	ID                  string    `db:"id"`
	Kind                Kind      `db:"kind"`
	Title               string    `db:"title"`
	Link                string    `db:"link"`
	Source              string    `db:"source"`
	Secondary           string    `db:"secondary"` // article body or track artist
	MediaURL            string    `db:"media_url"`
	ImageURL            string    `db:"image_url"`
	TranslatedTitle     string    `db:"translated_title"`
	TranslatedSecondary string    `db:"translated_secondary"`
	Status              Status    `db:"status"`
	CreatedAt           time.Time `db:"created_at"`
	UpdatedAt           time.Time `db:"updated_at"`
}

// DetailMissing reports whether the detail fetch still has to run for the
// item. Articles need a body, tracks need a playable media URL.
func (i Item) DetailMissing() bool {
	if i.Kind == KindTrack {
		return i.MediaURL == ""
	}
	return i.Secondary == ""
}

// Candidate is a raw listing entry produced by a content source before it is
// persisted as an Item.
type Candidate struct {
	Kind           Kind
	Title          string
	Link           string
	Source         string
	Artist         string
	ReviewRequired bool
}

// ReviewCandidate is the minimal projection sent to the review collaborator.
// The body is withheld on purpose to bound request size.
type ReviewCandidate struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Detail carries the fields resolved by a detail fetch.
type Detail struct {
	Secondary string
	MediaURL  string
	ImageURL  string
}

// Translation holds the translated fields returned by the translate
// collaborator.
type Translation struct {
	Title     string
	Secondary string
}

// Delivery reports which publisher strategy finally succeeded.
type Delivery struct {
	Strategy string
}

// Fingerprint derives the content-addressed identity of an item from its
// immutable fields. The same (title, link) pair always maps to the same id,
// which makes re-ingesting a known item a no-op.
func Fingerprint(title, link string) string {
	sum := sha256.Sum256([]byte(title + "\n" + link))
	return hex.EncodeToString(sum[:])
}
