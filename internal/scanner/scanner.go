package scanner

import (
	"context"
	"fmt"

	"NewsRelay/internal/domain"
)

// Request carries all parameters required to execute a scan of one site.
type Request struct {
	SiteName string
	Kind     domain.Kind
	URL      string
	Options  map[string]string
}

// Option reads a per-site option with a strategy-provided default.
func (r Request) Option(key, fallback string) string {
	if v, ok := r.Options[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Scanner captures a single scraping strategy (headline listings, music
// charts, etc.).
type Scanner interface {
	Name() string
	List(ctx context.Context, req Request) ([]domain.Candidate, error)
	Detail(ctx context.Context, link string, req Request) (domain.Detail, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}
