package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/scanner"
)

func TestChartsList(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`
		<ol>
		  <li class="chart-item">
		    <span class="track-title"><a href="/track/1">Song One</a></span>
		    <span class="track-artist">Artist One</span>
		  </li>
		  <li class="chart-item">
		    <span class="track-title"><a href="/track/2">Song Two</a></span>
		    <span class="track-artist">Artist Two</span>
		  </li>
		</ol>`))
	}))
	defer server.Close()

	sc := NewChartsScanner(server.Client())

	candidates, err := sc.List(context.Background(), scanner.Request{
		SiteName: "example-charts",
		Kind:     domain.KindTrack,
		URL:      server.URL + "/top",
	})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}

	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].Title != "Song One" || candidates[0].Artist != "Artist One" {
		t.Fatalf("unexpected candidate: %+v", candidates[0])
	}
	if candidates[0].Kind != domain.KindTrack {
		t.Fatalf("unexpected kind: %s", candidates[0].Kind)
	}
	if candidates[1].Link != server.URL+"/track/2" {
		t.Fatalf("relative link not resolved: %s", candidates[1].Link)
	}
}

func TestChartsDetail(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`
		<head><meta property="og:image" content="/covers/1.jpg"></head>
		<audio><source src="/audio/1.mp3"></audio>`))
	}))
	defer server.Close()

	sc := NewChartsScanner(server.Client())

	detail, err := sc.Detail(context.Background(), server.URL+"/track/1", scanner.Request{SiteName: "example-charts"})
	if err != nil {
		t.Fatalf("Detail error: %v", err)
	}

	if detail.MediaURL != server.URL+"/audio/1.mp3" {
		t.Fatalf("audio url not resolved: %s", detail.MediaURL)
	}
	if detail.ImageURL != server.URL+"/covers/1.jpg" {
		t.Fatalf("cover not resolved: %s", detail.ImageURL)
	}
}

func TestChartsDetailWithoutAudioFails(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<p>nothing to play here</p>`))
	}))
	defer server.Close()

	sc := NewChartsScanner(server.Client())

	if _, err := sc.Detail(context.Background(), server.URL, scanner.Request{}); err == nil {
		t.Fatal("expected error when no audio url is present")
	}
}
