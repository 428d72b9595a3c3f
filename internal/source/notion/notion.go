package notion

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"

	"github.com/dvloznov/tx-categorizer/internal/source"
)

// Config identifies the two Notion databases the pipeline reads.
type Config struct {
	Token                string
	TransactionsDatabase string
	CategoriesDatabase   string
}

// Source adapts a pair of Notion databases to the RecordSource interface:
// pages are rows, properties are columns, page IDs are row keys.
//
// Notion's API does not expose per-view filters, so unlike the Sheets
// adapter this one sees every page in the database.
type Source struct {
	client *notionapi.Client
	cfg    Config
	log    zerolog.Logger

	// property name -> Notion property type, from the database schema.
	// Filled by TransactionRows, needed by Apply to build typed updates.
	propTypes map[string]notionapi.PropertyConfigType
}

// New creates a Notion-backed record source.
func New(cfg Config, log zerolog.Logger) (*Source, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("notion.New: API token is required")
	}
	if cfg.TransactionsDatabase == "" || cfg.CategoriesDatabase == "" {
		return nil, fmt.Errorf("notion.New: transactions and categories database IDs are required")
	}
	return &Source{
		client: notionapi.NewClient(notionapi.Token(cfg.Token)),
		cfg:    cfg,
		log:    log,
	}, nil
}

// TransactionRows pages through the transactions database in Notion's
// default order and flattens each page's properties into string cells.
func (s *Source) TransactionRows(ctx context.Context) (source.Table, error) {
	db, err := s.client.Database.Get(ctx, notionapi.DatabaseID(s.cfg.TransactionsDatabase))
	if err != nil {
		return source.Table{}, fmt.Errorf("TransactionRows: reading database schema: %w", err)
	}

	propTypes := make(map[string]notionapi.PropertyConfigType, len(db.Properties))
	columns := make([]string, 0, len(db.Properties))
	for name, cfg := range db.Properties {
		propTypes[name] = cfg.GetType()
		columns = append(columns, name)
	}
	for _, required := range source.RequiredColumns {
		if _, ok := propTypes[required]; !ok {
			return source.Table{}, &source.MissingColumnError{Table: "transactions database", Column: required}
		}
	}
	s.propTypes = propTypes

	table := source.Table{Columns: columns}
	var cursor notionapi.Cursor
	for {
		resp, err := s.client.Database.Query(ctx, notionapi.DatabaseID(s.cfg.TransactionsDatabase), &notionapi.DatabaseQueryRequest{
			StartCursor: cursor,
			PageSize:    100,
		})
		if err != nil {
			return source.Table{}, fmt.Errorf("TransactionRows: querying database: %w", err)
		}

		for _, page := range resp.Results {
			cells := make(map[string]string, len(page.Properties))
			for name, prop := range page.Properties {
				cells[name] = propertyText(prop)
			}
			table.Rows = append(table.Rows, source.Row{
				Key:   string(page.ID),
				Cells: cells,
			})
		}

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	s.log.Debug().Int("rows", len(table.Rows)).Msg("Loaded transaction pages")
	return table, nil
}

// CategoryLabels returns the title of every page in the categories database.
func (s *Source) CategoryLabels(ctx context.Context) ([]string, error) {
	var labels []string
	var cursor notionapi.Cursor
	for {
		resp, err := s.client.Database.Query(ctx, notionapi.DatabaseID(s.cfg.CategoriesDatabase), &notionapi.DatabaseQueryRequest{
			StartCursor: cursor,
			PageSize:    100,
		})
		if err != nil {
			return nil, fmt.Errorf("CategoryLabels: querying database: %w", err)
		}

		for _, page := range resp.Results {
			for _, prop := range page.Properties {
				if title, ok := prop.(*notionapi.TitleProperty); ok {
					if label := richTextString(title.Title); label != "" {
						labels = append(labels, label)
					}
					break
				}
			}
		}

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	if len(labels) == 0 {
		return nil, &source.MissingTableError{Table: "categories database"}
	}
	return labels, nil
}

// Apply groups updates per page and issues one property-scoped page update
// for each, leaving every other property untouched.
func (s *Source) Apply(ctx context.Context, updates []source.CellUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}
	if s.propTypes == nil {
		return 0, fmt.Errorf("Apply: transactions database not loaded")
	}

	byPage := make(map[string]notionapi.Properties)
	order := make([]string, 0, len(updates))
	for _, u := range updates {
		props, ok := byPage[u.RowKey]
		if !ok {
			props = notionapi.Properties{}
			byPage[u.RowKey] = props
			order = append(order, u.RowKey)
		}
		prop, err := s.buildProperty(u.Column, u.Value)
		if err != nil {
			return 0, fmt.Errorf("Apply: %w", err)
		}
		props[u.Column] = prop
	}

	updated := 0
	for _, pageID := range order {
		_, err := s.client.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{
			Properties: byPage[pageID],
		})
		if err != nil {
			return updated, fmt.Errorf("Apply: updating page %s: %w", pageID, err)
		}
		updated++
	}

	s.log.Info().Int("rows", updated).Msg("Applied page updates")
	return updated, nil
}

// EncodeTimestamp renders a stamp in the format Notion date properties expect.
func (s *Source) EncodeTimestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}

// buildProperty constructs a typed Notion property for one cell write,
// following the column's schema type.
func (s *Source) buildProperty(column, value string) (notionapi.Property, error) {
	switch s.propTypes[column] {
	case notionapi.PropertyConfigTypeSelect:
		return notionapi.SelectProperty{
			Select: notionapi.Option{Name: value},
		}, nil
	case notionapi.PropertyConfigTypeRichText:
		return notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{Content: value},
				},
			},
		}, nil
	case notionapi.PropertyConfigTypeDate:
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return nil, fmt.Errorf("column %q: invalid timestamp %q: %w", column, value, err)
		}
		d := notionapi.Date(t)
		return notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &d},
		}, nil
	default:
		return nil, fmt.Errorf("column %q has unsupported property type %q for write-back", column, s.propTypes[column])
	}
}

// propertyText flattens a Notion property value to the string cell form the
// pipeline works with.
func propertyText(prop notionapi.Property) string {
	switch p := prop.(type) {
	case *notionapi.TitleProperty:
		return richTextString(p.Title)
	case *notionapi.RichTextProperty:
		return richTextString(p.RichText)
	case *notionapi.SelectProperty:
		return p.Select.Name
	case *notionapi.NumberProperty:
		return strconv.FormatFloat(p.Number, 'f', -1, 64)
	case *notionapi.DateProperty:
		if p.Date == nil || p.Date.Start == nil {
			return ""
		}
		return time.Time(*p.Date.Start).Format("2006-01-02")
	default:
		return ""
	}
}

func richTextString(parts []notionapi.RichText) string {
	text := ""
	for _, part := range parts {
		text += part.PlainText
	}
	return text
}

var _ source.RecordSource = (*Source)(nil)
