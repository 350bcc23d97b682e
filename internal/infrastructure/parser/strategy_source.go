package parser

import (
	"context"
	"fmt"
	"log/slog"

	"NewsRelay/internal/config"
	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
	"NewsRelay/internal/scanner"
)

// StrategySource implements ports.ContentSource via registered scanner
// strategies resolved from per-site configuration.
type StrategySource struct {
	registry *scanner.Registry
	sites    []config.SiteConfig
	logger   *slog.Logger
}

var _ ports.ContentSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry with config-defined sites.
func NewStrategySource(reg *scanner.Registry, sites []config.SiteConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		sites:    sites,
		logger:   log,
	}
}

// SourceNames lists the configured site names in config order.
func (s *StrategySource) SourceNames() []string {
	names := make([]string, 0, len(s.sites))
	for _, site := range s.sites {
		names = append(names, site.Name)
	}
	return names
}

// ListCandidates runs the scanner strategy of a single configured site.
func (s *StrategySource) ListCandidates(ctx context.Context, sourceName string) ([]domain.Candidate, error) {
	site, err := s.site(sourceName)
	if err != nil {
		return nil, err
	}

	strategy, err := s.registry.Resolve(site.Scanner)
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", site.Name, err)
	}

	results, err := strategy.List(ctx, s.request(site))
	if err != nil {
		return nil, fmt.Errorf("scan site %s: %w", site.Name, err)
	}

	for i := range results {
		if results[i].Source == "" {
			results[i].Source = site.Name
		}
		results[i].ReviewRequired = site.Review
	}

	s.debug("site produced candidates", "site", site.Name, "count", len(results))
	return results, nil
}

// FetchDetail resolves the detail page of an item through the scanner that
// owns the item's source site.
func (s *StrategySource) FetchDetail(ctx context.Context, item domain.Item) (domain.Detail, error) {
	site, err := s.site(item.Source)
	if err != nil {
		return domain.Detail{}, err
	}

	strategy, err := s.registry.Resolve(site.Scanner)
	if err != nil {
		return domain.Detail{}, fmt.Errorf("site %s: %w", site.Name, err)
	}

	detail, err := strategy.Detail(ctx, item.Link, s.request(site))
	if err != nil {
		return domain.Detail{}, fmt.Errorf("detail for %s: %w", item.ID, err)
	}
	return detail, nil
}

func (s *StrategySource) site(name string) (config.SiteConfig, error) {
	for _, site := range s.sites {
		if site.Name == name {
			return site, nil
		}
	}
	return config.SiteConfig{}, fmt.Errorf("site %s is not configured", name)
}

func (s *StrategySource) request(site config.SiteConfig) scanner.Request {
	return scanner.Request{
		SiteName: site.Name,
		Kind:     site.ItemKind(),
		URL:      site.URL,
		Options:  site.Options,
	}
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
