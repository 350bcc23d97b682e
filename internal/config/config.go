package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"NewsRelay/internal/domain"
)

const (
	defaultTimezone  = "UTC"
	configPathEnv    = "NEWSRELAY_CONFIG"
	databasePathEnv  = "NEWSRELAY_DB_PATH"
	llmAPIKeyEnv     = "LLM_API_KEY"
	llmModelEnv      = "LLM_MODEL"
	telegramTokenEnv = "TELEGRAM_BOT_TOKEN"
	telegramChatEnv  = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Filter    FilterConfig    `yaml:"filter"`
	Retention RetentionConfig `yaml:"retention"`
	Review    ReviewConfig    `yaml:"review"`
	Publisher PublisherConfig `yaml:"publisher"`
	LLM       LLMConfig       `yaml:"llm"`
	Sites     []SiteConfig    `yaml:"sites"`
}

// DatabaseConfig describes the local sqlite datastore.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig controls the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SchedulerConfig defines when the full pipeline cycle should run.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// FilterConfig carries the keyword block-list applied before and after
// translation.
type FilterConfig struct {
	BlockedKeywords []string `yaml:"blockedKeywords"`
}

// RetentionConfig bounds store growth.
type RetentionConfig struct {
	MaxRecords int `yaml:"maxRecords"`
}

// ReviewConfig tunes the review stage batch and its published-item context.
type ReviewConfig struct {
	BatchLimit         int `yaml:"batchLimit"`
	ContextLimit       int `yaml:"contextLimit"`
	ContextWindowHours int `yaml:"contextWindowHours"`
}

// ContextWindow returns the trailing window for published-item context.
func (r ReviewConfig) ContextWindow() time.Duration {
	return time.Duration(r.ContextWindowHours) * time.Hour
}

// PublisherConfig wires the Telegram channel and the inter-item delay that
// respects its rate limits.
type PublisherConfig struct {
	Telegram     TelegramConfig `yaml:"telegram"`
	DelaySeconds int            `yaml:"delaySeconds"`
}

// Delay returns the pause enforced after each publish attempt.
func (p PublisherConfig) Delay() time.Duration {
	return time.Duration(p.DelaySeconds) * time.Second
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// LLMConfig defines how to contact the chat-completions API.
type LLMConfig struct {
	Endpoint        string `yaml:"endpoint"`
	Model           string `yaml:"model"`
	APIKey          string `yaml:"apiKey"`
	ReviewPrompt    string `yaml:"reviewPrompt"`
	TranslatePrompt string `yaml:"translatePrompt"`
}

// SiteConfig describes a single site with its scanner strategy. Sites with
// Review set to false skip the review stage and ingest straight into the
// translation queue.
type SiteConfig struct {
	Name    string            `yaml:"name"`
	Scanner string            `yaml:"scanner"`
	Kind    string            `yaml:"kind"`
	Review  bool              `yaml:"review"`
	URL     string            `yaml:"url"`
	Options map[string]string `yaml:"options"`
}

// ItemKind maps the configured kind string onto the domain enum, defaulting
// to articles.
func (s SiteConfig) ItemKind() domain.Kind {
	if s.Kind == string(domain.KindTrack) {
		return domain.KindTrack
	}
	return domain.KindArticle
}

// Load reads YAML configuration (if present) and applies environment
// overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Publisher.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatEnv); v != "" {
		c.Publisher.Telegram.ChatID = v
	}

	if v := os.Getenv(llmAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}

	if v := os.Getenv(llmModelEnv); v != "" {
		c.LLM.Model = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Database.Path != "" {
		base.Database = override.Database
	}

	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if len(override.Filter.BlockedKeywords) > 0 {
		base.Filter = override.Filter
	}

	if override.Retention.MaxRecords > 0 {
		base.Retention = override.Retention
	}

	if override.Review.BatchLimit > 0 {
		base.Review.BatchLimit = override.Review.BatchLimit
	}
	if override.Review.ContextLimit > 0 {
		base.Review.ContextLimit = override.Review.ContextLimit
	}
	if override.Review.ContextWindowHours > 0 {
		base.Review.ContextWindowHours = override.Review.ContextWindowHours
	}

	if override.Publisher.Telegram.BotToken != "" {
		base.Publisher.Telegram.BotToken = override.Publisher.Telegram.BotToken
	}
	if override.Publisher.Telegram.ChatID != "" {
		base.Publisher.Telegram.ChatID = override.Publisher.Telegram.ChatID
	}
	if override.Publisher.DelaySeconds > 0 {
		base.Publisher.DelaySeconds = override.Publisher.DelaySeconds
	}

	if override.LLM.Endpoint != "" {
		base.LLM.Endpoint = override.LLM.Endpoint
	}
	if override.LLM.Model != "" {
		base.LLM.Model = override.LLM.Model
	}
	if override.LLM.APIKey != "" {
		base.LLM.APIKey = override.LLM.APIKey
	}
	if override.LLM.ReviewPrompt != "" {
		base.LLM.ReviewPrompt = override.LLM.ReviewPrompt
	}
	if override.LLM.TranslatePrompt != "" {
		base.LLM.TranslatePrompt = override.LLM.TranslatePrompt
	}

	if len(override.Sites) > 0 {
		base.Sites = override.Sites
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Database:  DatabaseConfig{Path: "newsrelay.db"},
		Logging:   LoggingConfig{Level: "info"},
		Scheduler: SchedulerConfig{CronExpression: "0 */2 * * *", Timezone: defaultTimezone, location: tz},
		Filter:    FilterConfig{},
		Retention: RetentionConfig{MaxRecords: 10000},
		Review:    ReviewConfig{BatchLimit: 50, ContextLimit: 20, ContextWindowHours: 72},
		Publisher: PublisherConfig{DelaySeconds: 3},
		LLM: LLMConfig{
			Endpoint:        "https://api.openai.com/v1/chat/completions",
			Model:           "gpt-4o-mini",
			ReviewPrompt:    "You select which scraped items fit the channel. Reply with a JSON array of accepted ids.",
			TranslatePrompt: "You translate item fields. Reply with a JSON object {\"title\": ..., \"secondary\": ...}.",
		},
		Sites: []SiteConfig{
			{
				Name:    "example-news",
				Scanner: "headlines",
				Kind:    string(domain.KindArticle),
				Review:  true,
				URL:     "https://news.example.org/latest",
			},
		},
	}
}
