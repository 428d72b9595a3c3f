package categorize

import (
	"context"
	"testing"
	"time"

	"github.com/dvloznov/tx-categorizer/internal/domain"
	"github.com/dvloznov/tx-categorizer/internal/source"
)

func pendingIndex(t *testing.T, ids ...string) *BatchIndex {
	t.Helper()
	var rows []source.Row
	for i, id := range ids {
		rows = append(rows, source.Row{
			Key: string(rune('2' + i)),
			Cells: map[string]string{
				source.ColumnTransactionID:   id,
				source.ColumnFullDescription: "PENDING " + id,
			},
		})
	}
	_, index, err := SelectBatch(source.Table{Rows: rows}, 50)
	if err != nil {
		t.Fatalf("SelectBatch failed: %v", err)
	}
	return index
}

func TestReconcile(t *testing.T) {
	index := pendingIndex(t, "tx-1", "tx-2")
	registry := NewRegistry([]string{"Groceries", "Gas"})
	fixed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	opts := ReconcileOptions{Now: func() time.Time { return fixed }}

	suggestions := []domain.SuggestedTransaction{
		{TransactionID: "tx-1", UpdatedDescription: "Whole Foods", Category: "groceries"},
		{TransactionID: "tx-2", UpdatedDescription: "Shell", Category: "Gas"},
	}

	decisions := Reconcile(context.Background(), suggestions, index, registry, opts)

	if len(decisions) != 2 {
		t.Fatalf("decisions = %d, want 2", len(decisions))
	}
	// Resolution returns the registry's own spelling.
	if decisions[0].Category != "Groceries" {
		t.Errorf("Category = %q, want Groceries", decisions[0].Category)
	}
	if !decisions[0].TouchedAt.Equal(fixed) {
		t.Errorf("TouchedAt = %v, want %v", decisions[0].TouchedAt, fixed)
	}
	// Descriptions are not written unless enabled.
	if decisions[0].Description != nil {
		t.Errorf("Description = %q, want nil", *decisions[0].Description)
	}
}

func TestReconcile_DropsUnknownIdentity(t *testing.T) {
	index := pendingIndex(t, "tx-1")
	registry := NewRegistry([]string{"Groceries"})

	suggestions := []domain.SuggestedTransaction{
		{TransactionID: "tx-99", Category: "Groceries"}, // hallucinated
		{TransactionID: "", Category: "Groceries"},
		{TransactionID: "tx-1", Category: "Groceries"},
	}

	decisions := Reconcile(context.Background(), suggestions, index, registry, ReconcileOptions{})

	if len(decisions) != 1 {
		t.Fatalf("decisions = %d, want 1", len(decisions))
	}
	if decisions[0].Identity != "tx-1" {
		t.Errorf("Identity = %q, want tx-1", decisions[0].Identity)
	}
}

func TestReconcile_DropsDuplicates(t *testing.T) {
	index := pendingIndex(t, "tx-1")
	registry := NewRegistry([]string{"Groceries", "Gas"})

	suggestions := []domain.SuggestedTransaction{
		{TransactionID: "tx-1", Category: "Groceries"},
		{TransactionID: "tx-1", Category: "Gas"},
	}

	decisions := Reconcile(context.Background(), suggestions, index, registry, ReconcileOptions{})

	if len(decisions) != 1 {
		t.Fatalf("decisions = %d, want 1", len(decisions))
	}
	// First suggestion wins.
	if decisions[0].Category != "Groceries" {
		t.Errorf("Category = %q, want Groceries", decisions[0].Category)
	}
}

func TestReconcile_FallbackForUnknownCategory(t *testing.T) {
	index := pendingIndex(t, "tx-1")
	registry := NewRegistry([]string{"Groceries"})

	suggestions := []domain.SuggestedTransaction{
		{TransactionID: "tx-1", Category: "Cryptocurrency"},
	}

	decisions := Reconcile(context.Background(), suggestions, index, registry, ReconcileOptions{})

	if len(decisions) != 1 {
		t.Fatalf("decisions = %d, want 1", len(decisions))
	}
	if decisions[0].Category != domain.FallbackCategory {
		t.Errorf("Category = %q, want %q", decisions[0].Category, domain.FallbackCategory)
	}
}

func TestReconcile_DescriptionUpdates(t *testing.T) {
	index := pendingIndex(t, "tx-1", "tx-2")
	registry := NewRegistry([]string{"Groceries"})
	opts := ReconcileOptions{UpdateDescriptions: true}

	suggestions := []domain.SuggestedTransaction{
		{TransactionID: "tx-1", UpdatedDescription: "  Whole Foods  ", Category: "Groceries"},
		{TransactionID: "tx-2", UpdatedDescription: "   ", Category: "Groceries"},
	}

	decisions := Reconcile(context.Background(), suggestions, index, registry, opts)

	if decisions[0].Description == nil || *decisions[0].Description != "Whole Foods" {
		t.Errorf("Description = %v, want Whole Foods", decisions[0].Description)
	}
	// A blank cleaned description never overwrites the cell.
	if decisions[1].Description != nil {
		t.Errorf("blank Description = %q, want nil", *decisions[1].Description)
	}
}

func TestReconcile_EmptySuggestions(t *testing.T) {
	index := pendingIndex(t, "tx-1")
	registry := NewRegistry([]string{"Groceries"})

	decisions := Reconcile(context.Background(), nil, index, registry, ReconcileOptions{})
	if len(decisions) != 0 {
		t.Errorf("decisions = %d, want 0", len(decisions))
	}
}
