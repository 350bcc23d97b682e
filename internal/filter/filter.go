// Package filter implements the keyword block-list applied before and after
// translation. Matching is case-sensitive substring search over the raw
// text, so keywords must be written in the script of the content they guard.
package filter

import (
	"github.com/cloudflare/ahocorasick"
)

// Keywords is an immutable block-list matcher. The zero value and an empty
// list never match anything.
type Keywords struct {
	matcher *ahocorasick.Matcher
}

// New compiles the block-list into an Aho-Corasick automaton. Blank entries
// are discarded so a sloppy config cannot reject everything.
func New(words []string) *Keywords {
	cleaned := make([]string, 0, len(words))
	for _, w := range words {
		if w != "" {
			cleaned = append(cleaned, w)
		}
	}
	if len(cleaned) == 0 {
		return &Keywords{}
	}
	return &Keywords{matcher: ahocorasick.NewStringMatcher(cleaned)}
}

// Blocked reports whether any keyword occurs as a substring of any of the
// given texts.
func (k *Keywords) Blocked(texts ...string) bool {
	if k == nil || k.matcher == nil {
		return false
	}
	for _, text := range texts {
		if text == "" {
			continue
		}
		if len(k.matcher.Match([]byte(text))) > 0 {
			return true
		}
	}
	return false
}
