package categorize

import (
	"strings"

	"github.com/dvloznov/tx-categorizer/internal/config"
	"github.com/dvloznov/tx-categorizer/internal/domain"
	"github.com/dvloznov/tx-categorizer/internal/source"
)

// BuildReferenceCorpus extracts already-categorized rows as matching
// exemplars: every row with both a description and a category, truncated to
// maxRefs. Truncation bounds the request against provider context-window
// limits; under the "source" policy the first maxRefs rows in source order
// are kept, under "recent" the last maxRefs, newest first.
func BuildReferenceCorpus(table source.Table, maxRefs int, order string) []domain.ReferenceTransaction {
	var refs []domain.ReferenceTransaction

	for _, row := range table.Rows {
		description := strings.TrimSpace(row.Cell(source.ColumnFullDescription))
		category := strings.TrimSpace(row.Cell(source.ColumnCategory))
		if description == "" || category == "" {
			continue
		}

		updated := strings.TrimSpace(row.Cell(source.ColumnDescription))
		if updated == "" {
			updated = description
		}

		identity := strings.TrimSpace(row.Cell(source.ColumnTransactionID))
		if identity == "" {
			identity = "row:" + row.Key
		}

		refs = append(refs, domain.ReferenceTransaction{
			ID:                  identity,
			OriginalDescription: description,
			UpdatedDescription:  updated,
			Category:            category,
			Amount:              parseAmount(row.Cell(source.ColumnAmount)),
			Institution:         strings.TrimSpace(row.Cell(source.ColumnInstitution)),
		})
	}

	if maxRefs > 0 && len(refs) > maxRefs {
		if order == config.ReferenceOrderRecent {
			tail := refs[len(refs)-maxRefs:]
			reversed := make([]domain.ReferenceTransaction, 0, maxRefs)
			for i := len(tail) - 1; i >= 0; i-- {
				reversed = append(reversed, tail[i])
			}
			return reversed
		}
		refs = refs[:maxRefs]
	}

	return refs
}
