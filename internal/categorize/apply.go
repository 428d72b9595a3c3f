package categorize

import (
	"context"
	"fmt"

	"github.com/dvloznov/tx-categorizer/internal/domain"
	"github.com/dvloznov/tx-categorizer/internal/source"
)

// ApplyDecisions turns the reconciled decisions into column-scoped cell
// updates and writes them through the record source. Only the category
// cell, optionally the description cell, and (when the source has one) the
// audit-timestamp cell are touched, each scoped to its row. Returns the
// number of rows updated; zero decisions is success with a zero count.
func ApplyDecisions(ctx context.Context, src source.RecordSource, table source.Table, index *BatchIndex, decisions []domain.RowUpdateDecision) (int, error) {
	if len(decisions) == 0 {
		return 0, nil
	}

	stampTouched := table.HasColumn(source.ColumnAITouched)

	updates := make([]source.CellUpdate, 0, len(decisions)*3)
	for _, d := range decisions {
		rowKey, ok := index.RowKey(d.Identity)
		if !ok {
			// The reconciler only emits pending identities; this guards the
			// applier against being handed decisions from another batch.
			return 0, fmt.Errorf("ApplyDecisions: decision for unknown identity %q", d.Identity)
		}

		updates = append(updates, source.CellUpdate{
			RowKey: rowKey,
			Column: source.ColumnCategory,
			Value:  d.Category,
		})
		if d.Description != nil {
			updates = append(updates, source.CellUpdate{
				RowKey: rowKey,
				Column: source.ColumnDescription,
				Value:  *d.Description,
			})
		}
		if stampTouched {
			updates = append(updates, source.CellUpdate{
				RowKey: rowKey,
				Column: source.ColumnAITouched,
				Value:  src.EncodeTimestamp(d.TouchedAt),
			})
		}
	}

	updated, err := src.Apply(ctx, updates)
	if err != nil {
		return updated, fmt.Errorf("ApplyDecisions: %w", err)
	}
	return updated, nil
}
