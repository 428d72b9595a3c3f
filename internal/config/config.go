package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Provider selector values.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Record source kinds.
const (
	SourceGoogleSheets = "gsheets"
	SourceNotion       = "notion"
)

// Reference corpus ordering policies.
const (
	ReferenceOrderSource = "source" // first-N in source order
	ReferenceOrderRecent = "recent" // last-N, newest first
)

// Defaults applied when a value is unset.
const (
	DefaultMaxBatchSize      = 50
	DefaultMaxReferenceCount = 3000
	DefaultOpenAIModel       = "gpt-4o-mini"
	DefaultGeminiModel       = "gemini-2.5-flash"
	DefaultOpenAIBaseURL     = "https://api.openai.com/v1/chat/completions"
)

// Config is the full configuration for one categorization run. It is a
// plain value threaded explicitly through the pipeline; nothing reads it
// from package-level state.
type Config struct {
	Provider string `mapstructure:"provider"` // "openai" or "gemini"

	OpenAI ProviderConfig `mapstructure:"openai"`
	Gemini ProviderConfig `mapstructure:"gemini"`

	MaxBatchSize       int    `mapstructure:"max_batch_size"`
	MaxReferenceCount  int    `mapstructure:"max_reference_count"`
	UpdateDescriptions bool   `mapstructure:"update_descriptions"`
	ReferenceOrder     string `mapstructure:"reference_order"`

	Source SourceConfig `mapstructure:"source"`
}

// ProviderConfig holds one provider's credential and model selection.
type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"` // OpenAI-compatible endpoint; ignored by Gemini
}

// SourceConfig selects and parameterizes the record source adapter.
type SourceConfig struct {
	Kind string `mapstructure:"kind"` // "gsheets" or "notion"

	// Google Sheets
	SpreadsheetID    string `mapstructure:"spreadsheet_id"`
	TransactionSheet string `mapstructure:"transaction_sheet"`
	CategorySheet    string `mapstructure:"category_sheet"`
	CredentialsFile  string `mapstructure:"credentials_file"`

	// Notion
	NotionToken          string `mapstructure:"notion_token"`
	NotionTransactionsDB string `mapstructure:"notion_transactions_db"`
	NotionCategoriesDB   string `mapstructure:"notion_categories_db"`
}

// InvalidConfigError reports a configuration value that fails validation.
// Fatal for the run, surfaced before anything is read from the source.
type InvalidConfigError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Load reads configuration from an optional TOML file plus the environment.
// Environment variables win over file values; credentials are normally only
// ever set through the environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("provider", ProviderOpenAI)
	v.SetDefault("max_batch_size", DefaultMaxBatchSize)
	v.SetDefault("max_reference_count", DefaultMaxReferenceCount)
	v.SetDefault("update_descriptions", false)
	v.SetDefault("reference_order", ReferenceOrderSource)
	v.SetDefault("openai.model", DefaultOpenAIModel)
	v.SetDefault("openai.base_url", DefaultOpenAIBaseURL)
	v.SetDefault("gemini.model", DefaultGeminiModel)
	v.SetDefault("source.kind", SourceGoogleSheets)
	v.SetDefault("source.transaction_sheet", "Transactions")
	v.SetDefault("source.category_sheet", "Categories")

	// Credentials come from the conventional variables, not TXCAT_*.
	_ = v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("gemini.api_key", "GEMINI_API_KEY")
	_ = v.BindEnv("source.notion_token", "NOTION_TOKEN")
	_ = v.BindEnv("provider", "TXCAT_PROVIDER")
	_ = v.BindEnv("source.spreadsheet_id", "TXCAT_SPREADSHEET_ID")
	_ = v.BindEnv("source.credentials_file", "GOOGLE_APPLICATION_CREDENTIALS")

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks everything that can be checked before touching the source
// or the provider. Missing credentials are deliberately not checked here:
// the provider client reports those itself so the diagnostics recorder can
// capture the attempt.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return &InvalidConfigError{Field: "provider", Reason: fmt.Sprintf("must be %q or %q, got %q", ProviderOpenAI, ProviderGemini, c.Provider)}
	}

	if c.MaxBatchSize < 1 {
		return &InvalidConfigError{Field: "max_batch_size", Reason: "must be at least 1"}
	}
	if c.MaxReferenceCount < 1 {
		return &InvalidConfigError{Field: "max_reference_count", Reason: "must be at least 1"}
	}

	switch c.ReferenceOrder {
	case ReferenceOrderSource, ReferenceOrderRecent:
	default:
		return &InvalidConfigError{Field: "reference_order", Reason: fmt.Sprintf("must be %q or %q, got %q", ReferenceOrderSource, ReferenceOrderRecent, c.ReferenceOrder)}
	}

	switch c.Source.Kind {
	case SourceGoogleSheets:
		if c.Source.SpreadsheetID == "" {
			return &InvalidConfigError{Field: "source.spreadsheet_id", Reason: "required for the gsheets source"}
		}
	case SourceNotion:
		if c.Source.NotionTransactionsDB == "" || c.Source.NotionCategoriesDB == "" {
			return &InvalidConfigError{Field: "source", Reason: "notion_transactions_db and notion_categories_db are required for the notion source"}
		}
	default:
		return &InvalidConfigError{Field: "source.kind", Reason: fmt.Sprintf("must be %q or %q, got %q", SourceGoogleSheets, SourceNotion, c.Source.Kind)}
	}

	return nil
}

// ProviderSettings returns the settings block for the selected provider.
func (c *Config) ProviderSettings() ProviderConfig {
	if c.Provider == ProviderGemini {
		return c.Gemini
	}
	return c.OpenAI
}
