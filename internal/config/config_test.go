package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TXCAT_SPREADSHEET_ID", "sheet-123")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, DefaultMaxBatchSize, cfg.MaxBatchSize)
	assert.Equal(t, DefaultMaxReferenceCount, cfg.MaxReferenceCount)
	assert.Equal(t, ReferenceOrderSource, cfg.ReferenceOrder)
	assert.False(t, cfg.UpdateDescriptions)
	assert.Equal(t, DefaultOpenAIModel, cfg.OpenAI.Model)
	assert.Equal(t, DefaultOpenAIBaseURL, cfg.OpenAI.BaseURL)
	assert.Equal(t, SourceGoogleSheets, cfg.Source.Kind)
	assert.Equal(t, "Transactions", cfg.Source.TransactionSheet)
	assert.Equal(t, "Categories", cfg.Source.CategorySheet)
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
provider = "gemini"
max_batch_size = 25
update_descriptions = true
reference_order = "recent"

[gemini]
model = "gemini-2.0-pro"

[source]
kind = "notion"
notion_transactions_db = "db-tx"
notion_categories_db = "db-cat"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, 25, cfg.MaxBatchSize)
	assert.True(t, cfg.UpdateDescriptions)
	assert.Equal(t, ReferenceOrderRecent, cfg.ReferenceOrder)
	assert.Equal(t, "gemini-2.0-pro", cfg.Gemini.Model)
	assert.Equal(t, SourceNotion, cfg.Source.Kind)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
provider = "openai"

[source]
spreadsheet_id = "from-file"
`)
	t.Setenv("TXCAT_PROVIDER", "gemini")
	t.Setenv("TXCAT_SPREADSHEET_ID", "from-env")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, "from-env", cfg.Source.SpreadsheetID)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Provider:          ProviderOpenAI,
			MaxBatchSize:      50,
			MaxReferenceCount: 1000,
			ReferenceOrder:    ReferenceOrderSource,
			Source:            SourceConfig{Kind: SourceGoogleSheets, SpreadsheetID: "sheet"},
		}
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:      "unknown provider",
			mutate:    func(c *Config) { c.Provider = "anthropic" },
			wantField: "provider",
		},
		{
			name:      "zero batch size",
			mutate:    func(c *Config) { c.MaxBatchSize = 0 },
			wantField: "max_batch_size",
		},
		{
			name:      "zero reference count",
			mutate:    func(c *Config) { c.MaxReferenceCount = 0 },
			wantField: "max_reference_count",
		},
		{
			name:      "unknown reference order",
			mutate:    func(c *Config) { c.ReferenceOrder = "random" },
			wantField: "reference_order",
		},
		{
			name:      "gsheets without spreadsheet",
			mutate:    func(c *Config) { c.Source.SpreadsheetID = "" },
			wantField: "source.spreadsheet_id",
		},
		{
			name: "notion without databases",
			mutate: func(c *Config) {
				c.Source = SourceConfig{Kind: SourceNotion}
			},
			wantField: "source",
		},
		{
			name:      "unknown source kind",
			mutate:    func(c *Config) { c.Source.Kind = "airtable" },
			wantField: "source.kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var invalid *InvalidConfigError
			require.True(t, errors.As(err, &invalid), "error = %v", err)
			assert.Equal(t, tt.wantField, invalid.Field)
		})
	}
}

func TestValidate_MissingCredentialAllowed(t *testing.T) {
	// Credentials are deliberately not validated here; the provider client
	// reports them so the attempt lands in diagnostics.
	cfg := &Config{
		Provider:          ProviderOpenAI,
		MaxBatchSize:      50,
		MaxReferenceCount: 1000,
		ReferenceOrder:    ReferenceOrderSource,
		Source:            SourceConfig{Kind: SourceGoogleSheets, SpreadsheetID: "sheet"},
	}
	assert.NoError(t, cfg.Validate())
}

func TestProviderSettings(t *testing.T) {
	cfg := &Config{
		Provider: ProviderGemini,
		OpenAI:   ProviderConfig{Model: "gpt-4o-mini"},
		Gemini:   ProviderConfig{Model: "gemini-2.5-flash"},
	}
	assert.Equal(t, "gemini-2.5-flash", cfg.ProviderSettings().Model)

	cfg.Provider = ProviderOpenAI
	assert.Equal(t, "gpt-4o-mini", cfg.ProviderSettings().Model)
}
