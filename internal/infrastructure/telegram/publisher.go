package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"NewsRelay/internal/config"
	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

const (
	defaultAPIBase = "https://api.telegram.org"
	captionLimit   = 1024
	messageLimit   = 4096
)

// Publisher delivers translated items to a Telegram chat via the bot API.
// Delivery walks a fixed strategy chain: media with the full caption, media
// with a minimal caption, then a plain text message. The controller only
// sees the final success or failure plus the strategy that landed.
type Publisher struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
}

var _ ports.Publisher = (*Publisher)(nil)

// NewPublisher registers bot token and chat identifier.
func NewPublisher(cfg config.TelegramConfig) *Publisher {
	return &Publisher{
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		apiBase:  defaultAPIBase,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type attempt struct {
	strategy string
	method   string
	form     url.Values
}

// Publish tries each delivery strategy in order and reports the first one
// that succeeds.
func (p *Publisher) Publish(ctx context.Context, item domain.Item) (domain.Delivery, error) {
	if p.botToken == "" || p.chatID == "" {
		return domain.Delivery{}, fmt.Errorf("telegram publisher misconfigured")
	}

	var lastErr error
	for _, a := range p.attempts(item) {
		if err := p.send(ctx, a.method, a.form); err != nil {
			lastErr = fmt.Errorf("%s: %w", a.strategy, err)
			continue
		}
		return domain.Delivery{Strategy: a.strategy}, nil
	}

	return domain.Delivery{}, fmt.Errorf("publish item %s: %w", item.ID, lastErr)
}

func (p *Publisher) attempts(item domain.Item) []attempt {
	caption := truncate(itemCaption(item), captionLimit)
	short := truncate(item.TranslatedTitle, captionLimit)

	var attempts []attempt
	switch {
	case item.Kind == domain.KindTrack && item.MediaURL != "":
		attempts = append(attempts,
			attempt{"audio", "sendAudio", p.form("audio", item.MediaURL, "caption", caption)},
			attempt{"audio-short", "sendAudio", p.form("audio", item.MediaURL, "caption", short)},
		)
	case item.ImageURL != "":
		attempts = append(attempts,
			attempt{"photo", "sendPhoto", p.form("photo", item.ImageURL, "caption", caption)},
			attempt{"photo-short", "sendPhoto", p.form("photo", item.ImageURL, "caption", short)},
		)
	}

	text := truncate(itemCaption(item)+"\n\n"+item.Link, messageLimit)
	attempts = append(attempts, attempt{"text", "sendMessage", p.form("text", text)})
	return attempts
}

func (p *Publisher) form(pairs ...string) url.Values {
	form := url.Values{}
	form.Set("chat_id", p.chatID)
	for i := 0; i+1 < len(pairs); i += 2 {
		form.Set(pairs[i], pairs[i+1])
	}
	return form
}

func (p *Publisher) send(ctx context.Context, method string, form url.Values) error {
	endpoint := fmt.Sprintf("%s/bot%s/%s", p.apiBase, p.botToken, method)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}

func itemCaption(item domain.Item) string {
	title := item.TranslatedTitle
	if title == "" {
		title = item.Title
	}
	secondary := item.TranslatedSecondary
	if secondary == "" {
		return title
	}
	return title + "\n\n" + secondary
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
