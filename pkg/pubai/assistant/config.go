// Package assistant – config.go defines all configuration structures
// for the Pub-AI assistant.
package assistant

import (
	"github.com/suckunalol-jpg/Pub-AI/pkg/pubai/channels/discord"
)

// Config holds all assistant configuration.
type Config struct {
	// Name is the assistant name shown in responses.
	Name string `yaml:"name"`

	// Trigger is the command prefix that activates the bot (e.g. "!ai").
	Trigger string `yaml:"trigger"`

	// Model is the hosted model identifier (e.g. "suckunalol/PubAJ").
	Model string `yaml:"model"`

	// API configures the hosted-model endpoint.
	API APIConfig `yaml:"api"`

	// Access configures role-based permissions.
	Access AccessConfig `yaml:"access"`

	// Quota configures the rolling-window request quota.
	Quota QuotaConfig `yaml:"quota"`

	// Filter configures the content-topic filter.
	Filter FilterConfig `yaml:"filter"`

	// Storage configures state persistence.
	Storage StorageConfig `yaml:"storage"`

	// Channels configures communication channels.
	Channels ChannelsConfig `yaml:"channels"`

	// Logging configures log output.
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig configures the hosted-model service.
type APIConfig struct {
	// BaseURL is the API endpoint (e.g. "https://api.ollama.com").
	BaseURL string `yaml:"base_url"`

	// APIKey is the bearer token. Prefer ${PUBAI_API_KEY} or the OS keyring.
	APIKey string `yaml:"api_key"`

	// MaxTokens bounds generation length per answer.
	MaxTokens int `yaml:"max_tokens"`

	// Temperature is the fixed sampling temperature.
	Temperature float64 `yaml:"temperature"`
}

// AccessConfig configures role-based permissions.
type AccessConfig struct {
	// AdminRoleID is the platform role granting admin commands.
	AdminRoleID string `yaml:"admin_role_id"`

	// BuyerRoleID is the platform role granting assistant access.
	BuyerRoleID string `yaml:"buyer_role_id"`

	// UnlockWord grants permanent unlimited quota when included in a
	// question. Matched silently, never echoed.
	UnlockWord string `yaml:"unlock_word"`
}

// QuotaConfig configures the rolling-window quota.
type QuotaConfig struct {
	// Limit is the max requests per window per identity.
	Limit int `yaml:"limit"`

	// WindowMinutes is the trailing time span timestamps count toward,
	// in minutes.
	WindowMinutes int `yaml:"window_minutes"`
}

// FilterConfig configures the content-topic filter.
type FilterConfig struct {
	// BlockedTopics are literal substrings that restrict a question.
	// Empty means use the built-in list.
	BlockedTopics []string `yaml:"blocked_topics"`

	// Refusals are the responses rotated for restricted questions.
	// Empty means use the built-in set.
	Refusals []string `yaml:"refusals"`
}

// StorageConfig configures state persistence.
type StorageConfig struct {
	// Path is the JSON state document path.
	Path string `yaml:"path"`
}

// ChannelsConfig holds configuration for all channels.
type ChannelsConfig struct {
	// Discord is the Discord channel config.
	Discord discord.Config `yaml:"discord"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	// Level is the log level ("debug", "info", "warn", "error").
	Level string `yaml:"level"`

	// Format is the log format ("json", "text").
	Format string `yaml:"format"`
}

// DefaultConfig returns the default assistant configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "Pub++ AI",
		Trigger: "!ai",
		Model:   "suckunalol/PubAJ",
		API: APIConfig{
			BaseURL:     "https://api.ollama.com",
			MaxTokens:   800,
			Temperature: 0.7,
		},
		Quota: QuotaConfig{
			Limit:         3,
			WindowMinutes: 180,
		},
		Storage: StorageConfig{
			Path: "./data/pubai.json",
		},
		Channels: ChannelsConfig{
			Discord: discord.DefaultConfig(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
