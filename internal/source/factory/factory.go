// Package factory constructs the record source selected by configuration.
package factory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvloznov/tx-categorizer/internal/config"
	"github.com/dvloznov/tx-categorizer/internal/source"
	"github.com/dvloznov/tx-categorizer/internal/source/gsheets"
	"github.com/dvloznov/tx-categorizer/internal/source/notion"
)

// New builds the record source named by cfg.Source.Kind.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (source.RecordSource, error) {
	switch cfg.Source.Kind {
	case config.SourceGoogleSheets:
		return gsheets.New(ctx, gsheets.Config{
			SpreadsheetID:    cfg.Source.SpreadsheetID,
			TransactionSheet: cfg.Source.TransactionSheet,
			CategorySheet:    cfg.Source.CategorySheet,
			CredentialsFile:  cfg.Source.CredentialsFile,
		}, log)
	case config.SourceNotion:
		return notion.New(notion.Config{
			Token:                cfg.Source.NotionToken,
			TransactionsDatabase: cfg.Source.NotionTransactionsDB,
			CategoriesDatabase:   cfg.Source.NotionCategoriesDB,
		}, log)
	default:
		return nil, &config.InvalidConfigError{
			Field:  "source.kind",
			Reason: fmt.Sprintf("unknown record source %q", cfg.Source.Kind),
		}
	}
}
