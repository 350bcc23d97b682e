package parser

import (
	"context"
	"errors"
	"testing"

	"NewsRelay/internal/config"
	"NewsRelay/internal/domain"
	"NewsRelay/internal/scanner"
)

type stubScanner struct {
	name       string
	candidates []domain.Candidate
	detail     domain.Detail
	err        error
	lastReq    scanner.Request
}

func (s *stubScanner) Name() string { return s.name }

func (s *stubScanner) List(_ context.Context, req scanner.Request) ([]domain.Candidate, error) {
	s.lastReq = req
	return s.candidates, s.err
}

func (s *stubScanner) Detail(_ context.Context, _ string, req scanner.Request) (domain.Detail, error) {
	s.lastReq = req
	return s.detail, s.err
}

func TestStrategySourceStampsCandidates(t *testing.T) {
	t.Parallel()

	stub := &stubScanner{
		name:       "stub",
		candidates: []domain.Candidate{{Kind: domain.KindArticle, Title: "T", Link: "http://x/1"}},
	}
	reg := scanner.NewRegistry()
	reg.Register(stub)

	sites := []config.SiteConfig{{Name: "site-a", Scanner: "stub", Kind: "article", Review: true, URL: "http://x"}}
	source := NewStrategySource(reg, sites, nil)

	candidates, err := source.ListCandidates(context.Background(), "site-a")
	if err != nil {
		t.Fatalf("ListCandidates: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].Source != "site-a" {
		t.Fatalf("source not stamped: %q", candidates[0].Source)
	}
	if !candidates[0].ReviewRequired {
		t.Fatal("review flag not carried from site config")
	}
}

func TestStrategySourceUnknownSite(t *testing.T) {
	t.Parallel()

	source := NewStrategySource(scanner.NewRegistry(), nil, nil)
	if _, err := source.ListCandidates(context.Background(), "ghost"); err == nil {
		t.Fatal("expected error for unconfigured site")
	}
}

func TestStrategySourceFetchDetailRoutesBySource(t *testing.T) {
	t.Parallel()

	stub := &stubScanner{name: "stub", detail: domain.Detail{Secondary: "body"}}
	reg := scanner.NewRegistry()
	reg.Register(stub)

	sites := []config.SiteConfig{{Name: "site-a", Scanner: "stub", URL: "http://x", Options: map[string]string{"body": "div.text"}}}
	source := NewStrategySource(reg, sites, nil)

	detail, err := source.FetchDetail(context.Background(), domain.Item{ID: "i1", Source: "site-a", Link: "http://x/1"})
	if err != nil {
		t.Fatalf("FetchDetail: %v", err)
	}
	if detail.Secondary != "body" {
		t.Fatalf("unexpected detail: %+v", detail)
	}
	if stub.lastReq.Option("body", "") != "div.text" {
		t.Fatal("site options not passed through")
	}
}

func TestStrategySourcePropagatesScannerError(t *testing.T) {
	t.Parallel()

	stub := &stubScanner{name: "stub", err: errors.New("nav timeout")}
	reg := scanner.NewRegistry()
	reg.Register(stub)

	sites := []config.SiteConfig{{Name: "site-a", Scanner: "stub", URL: "http://x"}}
	source := NewStrategySource(reg, sites, nil)

	if _, err := source.ListCandidates(context.Background(), "site-a"); err == nil {
		t.Fatal("expected scanner error to propagate")
	}
}

func TestSourceNamesOrder(t *testing.T) {
	t.Parallel()

	sites := []config.SiteConfig{{Name: "b"}, {Name: "a"}}
	source := NewStrategySource(scanner.NewRegistry(), sites, nil)

	names := source.SourceNames()
	if len(names) != 2 || names[0] != "b" || names[1] != "a" {
		t.Fatalf("unexpected names: %v", names)
	}
}
