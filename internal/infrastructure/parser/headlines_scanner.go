package parser

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/scanner"
)

// HeadlinesScanner extracts article candidates from a news listing page and
// resolves article bodies from detail pages. Selectors are configurable per
// site through scan options.
type HeadlinesScanner struct {
	client *http.Client
}

// NewHeadlinesScanner wires an HTTP client; a nil client gets a sane default.
func NewHeadlinesScanner(client *http.Client) *HeadlinesScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &HeadlinesScanner{client: client}
}

// Name identifies the strategy inside the registry.
func (h *HeadlinesScanner) Name() string {
	return "headlines"
}

// List walks the configured listing page and returns article candidates.
func (h *HeadlinesScanner) List(ctx context.Context, req scanner.Request) ([]domain.Candidate, error) {
	if req.URL == "" {
		return nil, fmt.Errorf("no listing url configured for site %s", req.SiteName)
	}

	doc, err := fetchDocument(ctx, h.client, req.URL)
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", req.SiteName, err)
	}

	entrySel := req.Option("list", "article h3 a, .headline a")

	var candidates []domain.Candidate
	seen := map[string]struct{}{}
	doc.Find(entrySel).Each(func(_ int, a *goquery.Selection) {
		title := strings.TrimSpace(a.Text())
		href, _ := a.Attr("href")
		link := absoluteURL(req.URL, strings.TrimSpace(href))
		if title == "" || link == "" {
			return
		}
		if _, ok := seen[link]; ok {
			return
		}
		seen[link] = struct{}{}
		candidates = append(candidates, domain.Candidate{
			Kind:   domain.KindArticle,
			Title:  title,
			Link:   link,
			Source: req.SiteName,
		})
	})

	return candidates, nil
}

// Detail fetches the article page and extracts body text and lead image.
func (h *HeadlinesScanner) Detail(ctx context.Context, link string, req scanner.Request) (domain.Detail, error) {
	doc, err := fetchDocument(ctx, h.client, link)
	if err != nil {
		return domain.Detail{}, fmt.Errorf("article %s: %w", link, err)
	}

	bodySel := req.Option("body", "article p")

	var paragraphs []string
	doc.Find(bodySel).Each(func(_ int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	if len(paragraphs) == 0 {
		return domain.Detail{}, fmt.Errorf("article %s: empty body for selector %q", link, bodySel)
	}

	image, _ := doc.Find(`meta[property="og:image"]`).First().Attr("content")
	if image == "" {
		image, _ = doc.Find(req.Option("image", "article img")).First().Attr("src")
	}

	return domain.Detail{
		Secondary: strings.Join(paragraphs, "\n\n"),
		ImageURL:  absoluteURL(link, image),
	}, nil
}
