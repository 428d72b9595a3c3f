package gsheets

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/dvloznov/tx-categorizer/internal/source"
)

// Config identifies the spreadsheet and the two tabs the pipeline reads.
type Config struct {
	SpreadsheetID    string
	TransactionSheet string // tab holding the transaction table
	CategorySheet    string // tab holding the single-column category registry
	CredentialsFile  string // optional service-account key; ADC when empty
}

// Source adapts a Google spreadsheet to the RecordSource interface.
// One Source serves one run: TransactionRows caches the header layout that
// Apply later needs for column-scoped writes.
type Source struct {
	svc    *sheets.Service
	cfg    Config
	log    zerolog.Logger
	header map[string]int // column name -> zero-based column index
}

// New creates a Sheets-backed record source.
func New(ctx context.Context, cfg Config, log zerolog.Logger) (*Source, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("gsheets.New: spreadsheet ID is required")
	}

	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gsheets.New: creating sheets service: %w", err)
	}

	return &Source{svc: svc, cfg: cfg, log: log}, nil
}

// TransactionRows reads the whole transaction tab in one call, honoring the
// sheet-side visibility state: rows hidden by a filter or by the user are
// excluded, matching what an operator sees on screen.
func (s *Source) TransactionRows(ctx context.Context) (source.Table, error) {
	resp, err := s.svc.Spreadsheets.Get(s.cfg.SpreadsheetID).
		Ranges(s.cfg.TransactionSheet).
		IncludeGridData(true).
		Fields("sheets(data(rowData(values(formattedValue)),rowMetadata(hiddenByFilter,hiddenByUser)))").
		Context(ctx).
		Do()
	if err != nil {
		return source.Table{}, fmt.Errorf("TransactionRows: reading sheet %q: %w", s.cfg.TransactionSheet, err)
	}

	grid := firstGrid(resp)
	if grid == nil || len(grid.RowData) == 0 {
		return source.Table{}, &source.MissingTableError{Table: s.cfg.TransactionSheet}
	}

	columns := headerRow(grid.RowData[0])
	header := make(map[string]int, len(columns))
	for i, name := range columns {
		if name == "" {
			continue
		}
		if _, dup := header[name]; !dup {
			header[name] = i
		}
	}
	for _, required := range source.RequiredColumns {
		if _, ok := header[required]; !ok {
			return source.Table{}, &source.MissingColumnError{Table: s.cfg.TransactionSheet, Column: required}
		}
	}
	s.header = header

	table := source.Table{Columns: columns}
	for i := 1; i < len(grid.RowData); i++ {
		if rowHidden(grid.RowMetadata, i) {
			continue
		}
		cells := cellsByColumn(grid.RowData[i], header)
		if len(cells) == 0 {
			continue
		}
		if date, ok := cells[source.ColumnDate]; ok {
			cells[source.ColumnDate] = normalizeDate(date)
		}
		table.Rows = append(table.Rows, source.Row{
			// Spreadsheet row numbers are 1-based and the header is row 1.
			Key:   strconv.Itoa(i + 1),
			Cells: cells,
		})
	}

	s.log.Debug().
		Str("sheet", s.cfg.TransactionSheet).
		Int("rows", len(table.Rows)).
		Msg("Loaded transaction rows")

	return table, nil
}

// CategoryLabels reads the registry tab. The first row is the column header;
// everything below it is a label. Empty cells are dropped, order is kept.
func (s *Source) CategoryLabels(ctx context.Context) ([]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.cfg.SpreadsheetID, s.cfg.CategorySheet).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("CategoryLabels: reading sheet %q: %w", s.cfg.CategorySheet, err)
	}
	if len(resp.Values) == 0 {
		return nil, &source.MissingTableError{Table: s.cfg.CategorySheet}
	}

	var labels []string
	for _, row := range resp.Values[1:] {
		if len(row) == 0 {
			continue
		}
		label, _ := row[0].(string)
		if label == "" {
			continue
		}
		labels = append(labels, label)
	}
	return labels, nil
}

// Apply writes each update as its own single-cell range in one batched
// values call, so no unrelated cell can be touched.
func (s *Source) Apply(ctx context.Context, updates []source.CellUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}
	if s.header == nil {
		return 0, fmt.Errorf("Apply: transaction table not loaded")
	}

	data := make([]*sheets.ValueRange, 0, len(updates))
	rows := make(map[string]struct{}, len(updates))
	for _, u := range updates {
		col, ok := s.header[u.Column]
		if !ok {
			return 0, fmt.Errorf("Apply: unknown column %q", u.Column)
		}
		data = append(data, &sheets.ValueRange{
			Range:  fmt.Sprintf("%s!%s%s", s.cfg.TransactionSheet, columnLetter(col), u.RowKey),
			Values: [][]interface{}{{u.Value}},
		})
		rows[u.RowKey] = struct{}{}
	}

	req := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data:             data,
	}
	if _, err := s.svc.Spreadsheets.Values.BatchUpdate(s.cfg.SpreadsheetID, req).Context(ctx).Do(); err != nil {
		return 0, fmt.Errorf("Apply: batch update: %w", err)
	}

	s.log.Info().
		Int("cells", len(data)).
		Int("rows", len(rows)).
		Msg("Applied cell updates")

	return len(rows), nil
}

// EncodeTimestamp renders a stamp the way sheet users expect to read it.
func (s *Source) EncodeTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

func firstGrid(resp *sheets.Spreadsheet) *sheets.GridData {
	if resp == nil || len(resp.Sheets) == 0 || len(resp.Sheets[0].Data) == 0 {
		return nil
	}
	return resp.Sheets[0].Data[0]
}

func headerRow(row *sheets.RowData) []string {
	if row == nil {
		return nil
	}
	columns := make([]string, len(row.Values))
	for i, cell := range row.Values {
		if cell != nil {
			columns[i] = cell.FormattedValue
		}
	}
	return columns
}

func rowHidden(meta []*sheets.DimensionProperties, index int) bool {
	if index >= len(meta) || meta[index] == nil {
		return false
	}
	return meta[index].HiddenByFilter || meta[index].HiddenByUser
}

func cellsByColumn(row *sheets.RowData, header map[string]int) map[string]string {
	if row == nil {
		return nil
	}
	cells := make(map[string]string, len(header))
	empty := true
	for name, idx := range header {
		var value string
		if idx < len(row.Values) && row.Values[idx] != nil {
			value = row.Values[idx].FormattedValue
		}
		cells[name] = value
		if value != "" {
			empty = false
		}
	}
	if empty {
		return nil
	}
	return cells
}

// normalizeDate converts the common sheet date renderings to ISO so every
// provider sees the same format. Unparseable values pass through untouched.
func normalizeDate(raw string) string {
	layouts := []string{"2006-01-02", "1/2/2006", "01/02/2006", "2 Jan 2006", "Jan 2, 2006"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return civil.DateOf(t).String()
		}
	}
	return raw
}

// columnLetter converts a zero-based column index to its A1 letter form.
func columnLetter(index int) string {
	letters := ""
	for index >= 0 {
		letters = string(rune('A'+index%26)) + letters
		index = index/26 - 1
	}
	return letters
}

var _ source.RecordSource = (*Source)(nil)
