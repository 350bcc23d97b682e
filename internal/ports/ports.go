package ports

import (
	"context"
	"time"

	"NewsRelay/internal/domain"
)

// ContentSource pulls candidate items from upstream sites and resolves item
// detail pages.
type ContentSource interface {
	SourceNames() []string
	ListCandidates(ctx context.Context, sourceName string) ([]domain.Candidate, error)
	FetchDetail(ctx context.Context, item domain.Item) (domain.Detail, error)
}

// ItemRepository persists items and their lifecycle status.
type ItemRepository interface {
	Insert(ctx context.Context, item domain.Item) (string, error)
	GetByID(ctx context.Context, id string) (*domain.Item, error)
	ListByStatus(ctx context.Context, status domain.Status, limit int) ([]domain.Item, error)
	ListByStatusWithin(ctx context.Context, status domain.Status, window time.Duration, limit int) ([]domain.Item, error)
	SetStatus(ctx context.Context, id string, status domain.Status) error
	SetDetail(ctx context.Context, id string, secondary, mediaURL, imageURL string) error
	SetTranslation(ctx context.Context, id string, title, secondary string) error
	CleanupOldRecords(ctx context.Context, keep int) (int64, error)
}

// Reviewer classifies a batch of candidates, optionally primed with recently
// published items as positive examples, and returns the accepted ids.
type Reviewer interface {
	Review(ctx context.Context, candidates, examples []domain.ReviewCandidate) ([]string, error)
}

// Translator translates a single item's title and secondary field.
type Translator interface {
	Translate(ctx context.Context, item domain.Item) (domain.Translation, error)
}

// Publisher delivers a fully translated item to the downstream channel.
type Publisher interface {
	Publish(ctx context.Context, item domain.Item) (domain.Delivery, error)
}

// Scheduler controls when pipeline cycles execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
