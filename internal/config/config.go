package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AIConfig struct {
	OpenAIKey        string `yaml:"openai_key"`
	GeminiKey        string `yaml:"gemini_key"`
	GeminiURL        string `yaml:"gemini_url"`
	DefaultModel     string `yaml:"default_model"`
	BatchModel       string `yaml:"batch_model"`
	CompletionWindow string `yaml:"completion_window"`
}

type NotionConfig struct {
	Token      string `yaml:"token"`
	DatabaseID string `yaml:"database_id"`
	PageLimit  int    `yaml:"page_limit"`
	// OwnerUserID owns quizzes generated from the Notion database.
	OwnerUserID string `yaml:"owner_user_id"`
}

type NotifyConfig struct {
	SlackWebhookURL string `yaml:"slack_webhook_url"`
	TelegramToken   string `yaml:"telegram_token"`
	TelegramChatID  int64  `yaml:"telegram_chat_id"`
}

type WebConfig struct {
	Port          int           `yaml:"port"`
	JWTSecret     string        `yaml:"jwt_secret"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	RateLimit     int           `yaml:"rate_limit"`      // requests per window, 0 disables
	RateWindowSec int           `yaml:"rate_window_sec"` // window length in seconds
}

type BatchConfig struct {
	Cron            string `yaml:"cron"`              // cron expression for daemon mode
	MinContentChars int    `yaml:"min_content_chars"` // below this an item is skipped
	MaxContentChars int    `yaml:"max_content_chars"` // content is truncated to this
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	AI       AIConfig       `yaml:"ai"`
	Notion   NotionConfig   `yaml:"notion"`
	Notify   NotifyConfig   `yaml:"notify"`
	Web      WebConfig      `yaml:"web"`
	Batch    BatchConfig    `yaml:"batch"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.AI.DefaultModel == "" {
		cfg.AI.DefaultModel = "gpt-4o-mini"
	}
	if cfg.AI.BatchModel == "" {
		cfg.AI.BatchModel = cfg.AI.DefaultModel
	}
	if cfg.AI.CompletionWindow == "" {
		cfg.AI.CompletionWindow = "24h"
	}
	if cfg.Notion.PageLimit <= 0 {
		cfg.Notion.PageLimit = 10
	}
	if cfg.Batch.MinContentChars <= 0 {
		cfg.Batch.MinContentChars = 50
	}
	if cfg.Batch.MaxContentChars <= 0 {
		cfg.Batch.MaxContentChars = 20000
	}
	if cfg.Web.Port == 0 {
		cfg.Web.Port = 8080
	}
	if cfg.Web.SessionTTL <= 0 {
		cfg.Web.SessionTTL = 30 * time.Minute
	}
	if cfg.Web.RateWindowSec <= 0 {
		cfg.Web.RateWindowSec = 60
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	// Minimal validation. These are configuration errors: the process aborts
	// rather than limping along.
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.AI.OpenAIKey == "" && cfg.AI.GeminiKey == "" {
		return nil, errors.New("ai.openai_key or ai.gemini_key is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
