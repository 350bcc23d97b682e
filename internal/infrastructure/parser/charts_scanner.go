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

// ChartsScanner extracts track candidates from a music chart page and
// resolves audio and cover art from track pages.
type ChartsScanner struct {
	client *http.Client
}

// NewChartsScanner wires an HTTP client; a nil client gets a sane default.
func NewChartsScanner(client *http.Client) *ChartsScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &ChartsScanner{client: client}
}

// Name identifies the strategy inside the registry.
func (c *ChartsScanner) Name() string {
	return "charts"
}

// List walks the chart page and returns track candidates with their artist.
func (c *ChartsScanner) List(ctx context.Context, req scanner.Request) ([]domain.Candidate, error) {
	if req.URL == "" {
		return nil, fmt.Errorf("no chart url configured for site %s", req.SiteName)
	}

	doc, err := fetchDocument(ctx, c.client, req.URL)
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", req.SiteName, err)
	}

	entrySel := req.Option("list", ".chart-item")
	titleSel := req.Option("title", ".track-title a")
	artistSel := req.Option("artist", ".track-artist")

	var candidates []domain.Candidate
	seen := map[string]struct{}{}
	doc.Find(entrySel).Each(func(_ int, entry *goquery.Selection) {
		titleLink := entry.Find(titleSel).First()
		title := strings.TrimSpace(titleLink.Text())
		href, _ := titleLink.Attr("href")
		link := absoluteURL(req.URL, strings.TrimSpace(href))
		artist := strings.TrimSpace(entry.Find(artistSel).First().Text())
		if title == "" || link == "" {
			return
		}
		if _, ok := seen[link]; ok {
			return
		}
		seen[link] = struct{}{}
		candidates = append(candidates, domain.Candidate{
			Kind:   domain.KindTrack,
			Title:  title,
			Link:   link,
			Source: req.SiteName,
			Artist: artist,
		})
	})

	return candidates, nil
}

// Detail fetches the track page and extracts the audio URL and cover image.
func (c *ChartsScanner) Detail(ctx context.Context, link string, req scanner.Request) (domain.Detail, error) {
	doc, err := fetchDocument(ctx, c.client, link)
	if err != nil {
		return domain.Detail{}, fmt.Errorf("track %s: %w", link, err)
	}

	audio, _ := doc.Find(req.Option("audio", "audio source, audio")).First().Attr("src")
	if audio == "" {
		audio, _ = doc.Find(`meta[property="og:audio"]`).First().Attr("content")
	}
	if audio == "" {
		return domain.Detail{}, fmt.Errorf("track %s: no audio url found", link)
	}

	image, _ := doc.Find(`meta[property="og:image"]`).First().Attr("content")

	return domain.Detail{
		MediaURL: absoluteURL(link, audio),
		ImageURL: absoluteURL(link, image),
	}, nil
}
