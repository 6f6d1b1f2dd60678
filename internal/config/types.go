package config

import (
	"errors"
	"strings"
)

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Feed     FeedConfig     `json:"feed"`
	Watch    WatchConfig    `json:"watch"`
	Logging  LoggingConfig  `json:"logging"`
	Storage  StorageConfig  `json:"storage"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// AdminChatID is the administrator recipient. It is always a member
	// of the subscriber registry and cannot be removed.
	AdminChatID int64 `json:"admin_chat_id"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout,omitempty"`
}

type FeedConfig struct {
	URL string `json:"url"`
	// Cookie is the session credential pasted in by the operator.
	// Editing it in the config file takes effect without a restart.
	Cookie    string `json:"cookie"`
	UserAgent string `json:"user_agent,omitempty"`
	// Timeout is a Go duration string for the fetch HTTP client.
	Timeout string `json:"timeout,omitempty"`
}

// WatchConfig controls the change-detection engine.
//
// All durations are Go duration strings (e.g. "5s", "5m").
//
// Defaults (when fields are omitted/zero):
//   - check_every: "5m"
//   - drain_every: "5s"
//   - max_stored: 50
//   - recent_count: 5
//   - rate_per_sec: 3
type WatchConfig struct {
	CheckEvery  string `json:"check_every,omitempty"`
	DrainEvery  string `json:"drain_every,omitempty"`
	MaxStored   int    `json:"max_stored,omitempty"`
	RecentCount int    `json:"recent_count,omitempty"`

	// SeedOnStart makes the first-ever reconcile (empty store) populate
	// the store without broadcasting. With the default false, the first
	// scheduled cycle reports every valid record currently live on the
	// portal as new. That cold-start burst is the documented behavior,
	// not a bug; set this when it would spam operators.
	SeedOnStart bool `json:"seed_on_start,omitempty"`

	// RatePerSec limits outbound Telegram sends during fan-out.
	RatePerSec int `json:"rate_per_sec,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StorageConfig selects the persistence backend.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./eventwatch_store" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// Validate enforces the fatal startup requirements: without the bot
// credential, the administrator id and the session cookie the process
// must refuse to run rather than limp along half-configured.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return errors.New("telegram.token is required (or BOT_TOKEN)")
	}
	if c.Telegram.AdminChatID == 0 {
		return errors.New("telegram.admin_chat_id is required (or ADMIN_CHAT_ID)")
	}
	if strings.TrimSpace(c.Feed.URL) == "" {
		return errors.New("feed.url is required (or EVENTS_URL)")
	}
	if strings.TrimSpace(c.Feed.Cookie) == "" {
		return errors.New("feed.cookie is required (or COOKIE)")
	}
	return nil
}
