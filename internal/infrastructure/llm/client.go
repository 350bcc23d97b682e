// Package llm implements the review/translate collaborator on top of an
// OpenAI-compatible chat-completions API.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"NewsRelay/internal/config"
	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

// Client talks to a chat-completions endpoint for reviewing and translating
// items. Responses must coerce into strict JSON or the call is failed.
type Client struct {
	endpoint        string
	model           string
	apiKey          string
	reviewPrompt    string
	translatePrompt string
	httpClient      *http.Client
	maxRetries      uint64
}

var _ ports.Reviewer = (*Client)(nil)
var _ ports.Translator = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.LLMConfig) *Client {
	return &Client{
		endpoint:        cfg.Endpoint,
		model:           cfg.Model,
		apiKey:          cfg.APIKey,
		reviewPrompt:    cfg.ReviewPrompt,
		translatePrompt: cfg.TranslatePrompt,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: 2,
	}
}

// Review sends the candidate batch (id and title only) plus recently
// published examples and returns the ids the model accepted.
func (c *Client) Review(ctx context.Context, candidates, examples []domain.ReviewCandidate) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(map[string]any{
		"candidates": candidates,
		"published":  examples,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal review payload: %w", err)
	}

	content, err := c.complete(ctx, c.reviewPrompt, string(payload))
	if err != nil {
		return nil, fmt.Errorf("review call: %w", err)
	}

	coerced, err := coerceStructured(content)
	if err != nil {
		return nil, fmt.Errorf("review response: %w", err)
	}

	var objects []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(coerced), &objects); err == nil {
		ids := make([]string, 0, len(objects))
		for _, obj := range objects {
			if obj.ID != "" {
				ids = append(ids, obj.ID)
			}
		}
		return ids, nil
	}

	// Some models answer with a bare array of id strings.
	var ids []string
	if err := json.Unmarshal([]byte(coerced), &ids); err != nil {
		return nil, fmt.Errorf("review response: %w: %v", ErrCoercion, err)
	}
	return ids, nil
}

// Translate asks the model for the translated title and secondary field of
// a single item.
func (c *Client) Translate(ctx context.Context, item domain.Item) (domain.Translation, error) {
	payload, err := json.Marshal(map[string]any{
		"kind":      item.Kind,
		"title":     item.Title,
		"secondary": item.Secondary,
	})
	if err != nil {
		return domain.Translation{}, fmt.Errorf("marshal translate payload: %w", err)
	}

	content, err := c.complete(ctx, c.translatePrompt, string(payload))
	if err != nil {
		return domain.Translation{}, fmt.Errorf("translate call for %s: %w", item.ID, err)
	}

	coerced, err := coerceStructured(content)
	if err != nil {
		return domain.Translation{}, fmt.Errorf("translate response for %s: %w", item.ID, err)
	}

	var result struct {
		Title     string `json:"title"`
		Secondary string `json:"secondary"`
	}
	if err := json.Unmarshal([]byte(coerced), &result); err != nil {
		return domain.Translation{}, fmt.Errorf("translate response for %s: %w: %v", item.ID, ErrCoercion, err)
	}
	if result.Title == "" {
		return domain.Translation{}, fmt.Errorf("translate response for %s: %w: empty title", item.ID, ErrCoercion)
	}

	return domain.Translation{Title: result.Title, Secondary: result.Secondary}, nil
}

// complete posts one chat request and returns the first choice's content.
// Transient failures (network errors, 429, 5xx) are retried with capped
// exponential backoff; other HTTP errors fail immediately.
func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("llm client misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	operation := func() (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return "", backoff.Permanent(fmt.Errorf("new request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return "", fmt.Errorf("send chat request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return "", fmt.Errorf("llm returned %s", resp.Status)
		}
		if resp.StatusCode >= http.StatusBadRequest {
			detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return "", backoff.Permanent(fmt.Errorf("llm error %s: %s", resp.Status, strings.TrimSpace(string(detail))))
		}

		var parsed struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return "", backoff.Permanent(fmt.Errorf("decode chat response: %w", err))
		}
		if len(parsed.Choices) == 0 {
			return "", backoff.Permanent(fmt.Errorf("chat response has no choices"))
		}
		return parsed.Choices[0].Message.Content, nil
	}

	return backoff.RetryWithData(operation,
		backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx))
}
