package gsheets

import (
	"context"
	"testing"

	"google.golang.org/api/sheets/v4"

	"github.com/dvloznov/tx-categorizer/internal/source"
)

func TestColumnLetter(t *testing.T) {
	tests := []struct {
		index int
		want  string
	}{
		{0, "A"},
		{1, "B"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
		{51, "AZ"},
		{52, "BA"},
		{701, "ZZ"},
		{702, "AAA"},
	}

	for _, tt := range tests {
		if got := columnLetter(tt.index); got != tt.want {
			t.Errorf("columnLetter(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2026-08-30", "2026-08-30"},
		{"8/30/2026", "2026-08-30"},
		{"08/30/2026", "2026-08-30"},
		{"30 Aug 2026", "2026-08-30"},
		{"Aug 30, 2026", "2026-08-30"},
		{"not a date", "not a date"}, // passes through untouched
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := normalizeDate(tt.input); got != tt.want {
				t.Errorf("normalizeDate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func gridRow(values ...string) *sheets.RowData {
	row := &sheets.RowData{}
	for _, v := range values {
		row.Values = append(row.Values, &sheets.CellData{FormattedValue: v})
	}
	return row
}

func TestHeaderRow(t *testing.T) {
	columns := headerRow(gridRow("Transaction ID", "Full Description", "", "Category"))

	want := []string{"Transaction ID", "Full Description", "", "Category"}
	if len(columns) != len(want) {
		t.Fatalf("columns = %v", columns)
	}
	for i := range want {
		if columns[i] != want[i] {
			t.Errorf("columns[%d] = %q, want %q", i, columns[i], want[i])
		}
	}

	if headerRow(nil) != nil {
		t.Error("headerRow(nil) should be nil")
	}
}

func TestCellsByColumn(t *testing.T) {
	header := map[string]int{
		source.ColumnTransactionID:   0,
		source.ColumnFullDescription: 1,
		source.ColumnCategory:        3,
	}

	t.Run("ragged row", func(t *testing.T) {
		// The row is shorter than the header: missing cells read as empty.
		cells := cellsByColumn(gridRow("tx-1", "WHOLEFDS"), header)
		if cells[source.ColumnTransactionID] != "tx-1" {
			t.Errorf("Transaction ID = %q", cells[source.ColumnTransactionID])
		}
		if cells[source.ColumnCategory] != "" {
			t.Errorf("Category = %q, want empty", cells[source.ColumnCategory])
		}
	})

	t.Run("fully empty row is dropped", func(t *testing.T) {
		if cells := cellsByColumn(gridRow("", "", "", ""), header); cells != nil {
			t.Errorf("cells = %v, want nil", cells)
		}
	})
}

func TestRowHidden(t *testing.T) {
	meta := []*sheets.DimensionProperties{
		nil,
		{HiddenByFilter: true},
		{HiddenByUser: true},
		{},
	}

	tests := []struct {
		index int
		want  bool
	}{
		{0, false},
		{1, true},
		{2, true},
		{3, false},
		{10, false}, // beyond the metadata
	}

	for _, tt := range tests {
		if got := rowHidden(meta, tt.index); got != tt.want {
			t.Errorf("rowHidden(meta, %d) = %v, want %v", tt.index, got, tt.want)
		}
	}
}

func TestApply_RequiresLoadedTable(t *testing.T) {
	s := &Source{}
	if _, err := s.Apply(context.Background(), []source.CellUpdate{{RowKey: "2", Column: source.ColumnCategory, Value: "x"}}); err == nil {
		t.Error("Apply without a loaded table should fail")
	}
}

func TestApply_EmptyUpdates(t *testing.T) {
	s := &Source{}
	n, err := s.Apply(context.Background(), nil)
	if err != nil || n != 0 {
		t.Errorf("Apply(nil) = %d, %v, want 0, nil", n, err)
	}
}
