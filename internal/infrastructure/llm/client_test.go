package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"NewsRelay/internal/config"
	"NewsRelay/internal/domain"
)

func chatServer(t *testing.T, handler func(r *http.Request) string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content := handler(r)
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": content}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func testClient(cfg config.LLMConfig) *Client {
	cfg.Model = "test-model"
	cfg.APIKey = "test-key"
	return NewClient(cfg)
}

func TestReviewParsesAcceptedIDs(t *testing.T) {
	t.Parallel()

	server := chatServer(t, func(r *http.Request) string {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		// The projection sent to the model must carry ids and titles only.
		if len(req.Messages) != 2 {
			t.Errorf("expected system+user messages, got %d", len(req.Messages))
		}
		return "```json\n[{\"id\": \"a\"}, {\"id\": \"c\"}]\n```"
	})

	client := testClient(config.LLMConfig{Endpoint: server.URL})

	accepted, err := client.Review(context.Background(),
		[]domain.ReviewCandidate{{ID: "a", Title: "t1"}, {ID: "b", Title: "t2"}, {ID: "c", Title: "t3"}},
		[]domain.ReviewCandidate{{ID: "p", Title: "published"}})
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if len(accepted) != 2 || accepted[0] != "a" || accepted[1] != "c" {
		t.Fatalf("unexpected accepted ids: %v", accepted)
	}
}

func TestReviewAcceptsBareIDArray(t *testing.T) {
	t.Parallel()

	server := chatServer(t, func(*http.Request) string { return `["a"]` })
	client := testClient(config.LLMConfig{Endpoint: server.URL})

	accepted, err := client.Review(context.Background(),
		[]domain.ReviewCandidate{{ID: "a", Title: "t"}}, nil)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if len(accepted) != 1 || accepted[0] != "a" {
		t.Fatalf("unexpected accepted ids: %v", accepted)
	}
}

func TestReviewEmptyBatchSkipsCall(t *testing.T) {
	t.Parallel()

	client := testClient(config.LLMConfig{Endpoint: "http://127.0.0.1:1"})
	accepted, err := client.Review(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("review of empty batch must not call out: %v", err)
	}
	if len(accepted) != 0 {
		t.Fatalf("unexpected ids: %v", accepted)
	}
}

func TestReviewFailsOnUnparseableOutput(t *testing.T) {
	t.Parallel()

	server := chatServer(t, func(*http.Request) string { return "no structured data here" })
	client := testClient(config.LLMConfig{Endpoint: server.URL})

	_, err := client.Review(context.Background(),
		[]domain.ReviewCandidate{{ID: "a", Title: "t"}}, nil)
	if !errors.Is(err, ErrCoercion) {
		t.Fatalf("expected ErrCoercion, got %v", err)
	}
}

func TestTranslate(t *testing.T) {
	t.Parallel()

	server := chatServer(t, func(*http.Request) string {
		return `{"title": "Переведённый заголовок", "secondary": "Переведённый текст"}`
	})
	client := testClient(config.LLMConfig{Endpoint: server.URL})

	tr, err := client.Translate(context.Background(), domain.Item{
		ID:        "abc",
		Kind:      domain.KindArticle,
		Title:     "Original",
		Secondary: "Body",
	})
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if tr.Title != "Переведённый заголовок" || tr.Secondary != "Переведённый текст" {
		t.Fatalf("unexpected translation: %+v", tr)
	}
}

func TestTranslateRejectsEmptyTitle(t *testing.T) {
	t.Parallel()

	server := chatServer(t, func(*http.Request) string { return `{"title": "", "secondary": "x"}` })
	client := testClient(config.LLMConfig{Endpoint: server.URL})

	_, err := client.Translate(context.Background(), domain.Item{ID: "abc", Title: "t"})
	if !errors.Is(err, ErrCoercion) {
		t.Fatalf("expected ErrCoercion, got %v", err)
	}
}

func TestCompleteRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": `["a"]`}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := testClient(config.LLMConfig{Endpoint: server.URL})

	accepted, err := client.Review(context.Background(),
		[]domain.ReviewCandidate{{ID: "a", Title: "t"}}, nil)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected one retry, saw %d calls", calls)
	}
	if len(accepted) != 1 {
		t.Fatalf("unexpected ids: %v", accepted)
	}
}

func TestCompleteDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := testClient(config.LLMConfig{Endpoint: server.URL})

	_, err := client.Review(context.Background(),
		[]domain.ReviewCandidate{{ID: "a", Title: "t"}}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("4xx must not be retried, saw %d calls", calls)
	}
}
