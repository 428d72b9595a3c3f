package categorize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dvloznov/tx-categorizer/internal/domain"
	"github.com/dvloznov/tx-categorizer/internal/source"
)

// BatchIndex maps the pending batch's identities back to their source rows.
// The reconciler consults it to drop suggestions for unknown identities; the
// applier consults it to scope write-back to the right rows.
type BatchIndex struct {
	rowKeys map[string]string // identity -> source row key
}

// RowKey returns the source row key for a pending identity.
func (ix *BatchIndex) RowKey(identity string) (string, bool) {
	key, ok := ix.rowKeys[identity]
	return key, ok
}

// Contains reports whether the identity belongs to the pending batch.
func (ix *BatchIndex) Contains(identity string) bool {
	_, ok := ix.rowKeys[identity]
	return ok
}

// Size returns the number of pending identities.
func (ix *BatchIndex) Size() int {
	return len(ix.rowKeys)
}

// SelectBatch extracts up to maxBatch rows still needing categorization, in
// encounter order: rows with an empty Category cell and a non-empty Full
// Description. Pure read; the table is not modified.
//
// Rows without a Transaction ID get a surrogate identity derived from their
// position, valid only for this run. A duplicated ID cell is disambiguated
// the same way so identities stay unique within the run.
func SelectBatch(table source.Table, maxBatch int) ([]domain.UncategorizedTransaction, *BatchIndex, error) {
	if maxBatch < 1 {
		return nil, nil, fmt.Errorf("SelectBatch: max batch size must be at least 1, got %d", maxBatch)
	}

	index := &BatchIndex{rowKeys: make(map[string]string)}
	var batch []domain.UncategorizedTransaction

	for _, row := range table.Rows {
		if len(batch) == maxBatch {
			break
		}

		description := strings.TrimSpace(row.Cell(source.ColumnFullDescription))
		category := strings.TrimSpace(row.Cell(source.ColumnCategory))
		if description == "" || category != "" {
			continue
		}

		identity := strings.TrimSpace(row.Cell(source.ColumnTransactionID))
		if identity == "" {
			identity = "row:" + row.Key
		}
		if index.Contains(identity) {
			identity = identity + "#" + row.Key
		}
		index.rowKeys[identity] = row.Key

		batch = append(batch, domain.UncategorizedTransaction{
			ID:                  identity,
			OriginalDescription: description,
			Amount:              parseAmount(row.Cell(source.ColumnAmount)),
			Date:                strings.TrimSpace(row.Cell(source.ColumnDate)),
			Institution:         strings.TrimSpace(row.Cell(source.ColumnInstitution)),
		})
	}

	return batch, index, nil
}

// parseAmount reads a numeric cell, tolerating thousands separators and a
// currency prefix. Unparseable cells become nil rather than failing the row.
func parseAmount(cell string) *float64 {
	s := strings.TrimSpace(cell)
	s = strings.TrimLeft(s, "$£€")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return nil
	}
	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &value
}
