package source

import (
	"context"
	"fmt"
	"time"
)

// Column names required on the transaction table.
const (
	ColumnTransactionID   = "Transaction ID"
	ColumnFullDescription = "Full Description"
	ColumnDescription     = "Description"
	ColumnCategory        = "Category"
	ColumnDate            = "Date"
	ColumnAmount          = "Amount"
)

// Optional columns.
const (
	ColumnInstitution = "Institution"
	ColumnAITouched   = "AI Touched"
)

// RequiredColumns lists every column the transaction table must have.
// A missing required column fails the whole run, not individual rows.
var RequiredColumns = []string{
	ColumnTransactionID,
	ColumnFullDescription,
	ColumnDescription,
	ColumnCategory,
	ColumnDate,
	ColumnAmount,
}

// Row is one transaction-table row with cells indexed by column name.
// Cells hold the source's string rendering; absent optional columns read
// as the empty string.
type Row struct {
	// Key is the adapter's stable handle for this row (sheet row number,
	// Notion page ID). It scopes write-back and is never sent to the model.
	Key   string
	Cells map[string]string
}

// Cell returns the value of the named column, or "" when absent.
func (r Row) Cell(column string) string {
	return r.Cells[column]
}

// Table is the batched read of all visible transaction rows, in source
// order, along with the set of columns the source actually has.
type Table struct {
	Columns []string
	Rows    []Row
}

// HasColumn reports whether the source table carries the named column.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// CellUpdate is one column-scoped mutation of one row.
type CellUpdate struct {
	RowKey string
	Column string
	Value  string
}

// RecordSource is the narrow interface the pipeline consumes. Adapters wrap
// a concrete tabular backend (Google Sheets, Notion) behind it.
type RecordSource interface {
	// TransactionRows returns all rows of the transaction table in source
	// order. Rows hidden by a source-side filter are excluded. Fails with a
	// *MissingColumnError when a required column is absent.
	TransactionRows(ctx context.Context) (Table, error)

	// CategoryLabels returns the registry table's single column, top to
	// bottom, with empty entries removed and order preserved.
	CategoryLabels(ctx context.Context) ([]string, error)

	// Apply writes each update scoped to its row and column, touching
	// nothing else. Returns the number of distinct rows written.
	Apply(ctx context.Context, updates []CellUpdate) (int, error)

	// EncodeTimestamp renders an audit timestamp in the cell format this
	// source expects.
	EncodeTimestamp(t time.Time) string
}

// MissingColumnError reports a required column absent from a source table.
// It is a configuration error: fatal for the run, surfaced immediately.
type MissingColumnError struct {
	Table  string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("source table %q is missing required column %q", e.Table, e.Column)
}

// MissingTableError reports an absent or empty source table.
type MissingTableError struct {
	Table string
}

func (e *MissingTableError) Error() string {
	return fmt.Sprintf("source table %q not found or empty", e.Table)
}
