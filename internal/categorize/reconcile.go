package categorize

import (
	"context"
	"strings"
	"time"

	"github.com/dvloznov/tx-categorizer/internal/domain"
	"github.com/dvloznov/tx-categorizer/internal/logger"
)

// ReconcileOptions control how suggestions are turned into decisions.
type ReconcileOptions struct {
	// UpdateDescriptions enables writing the model's cleaned description.
	UpdateDescriptions bool

	// Now supplies the touched timestamp; defaults to time.Now.
	Now func() time.Time
}

// Reconcile validates the model's untrusted suggestions against the pending
// batch and the registry, and computes the set of row updates.
//
// A suggestion whose transaction_id is not a pending identity is dropped,
// as is any second suggestion for the same identity, so hallucinated or
// duplicated IDs can never produce a write. Categories outside the registry
// are replaced with the fallback label. A malformed individual suggestion
// never fails the run; it is skipped and reconciliation continues.
func Reconcile(ctx context.Context, suggestions []domain.SuggestedTransaction, index *BatchIndex, registry Registry, opts ReconcileOptions) []domain.RowUpdateDecision {
	log := logger.FromContext(ctx)

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	seen := make(map[string]bool, len(suggestions))
	decisions := make([]domain.RowUpdateDecision, 0, len(suggestions))

	for _, s := range suggestions {
		identity := strings.TrimSpace(s.TransactionID)
		if identity == "" || !index.Contains(identity) {
			log.Warn().Str("transaction_id", s.TransactionID).Msg("Dropping suggestion for unknown transaction")
			continue
		}
		if seen[identity] {
			log.Warn().Str("transaction_id", identity).Msg("Dropping duplicate suggestion")
			continue
		}
		seen[identity] = true

		category, ok := registry.Resolve(s.Category)
		if !ok {
			log.Debug().
				Str("transaction_id", identity).
				Str("category", s.Category).
				Msg("Suggested category not in registry, using fallback")
			category = domain.FallbackCategory
		}

		decision := domain.RowUpdateDecision{
			Identity:  identity,
			Category:  category,
			TouchedAt: now(),
		}
		if opts.UpdateDescriptions {
			if desc := strings.TrimSpace(s.UpdatedDescription); desc != "" {
				decision.Description = &desc
			}
		}

		decisions = append(decisions, decision)
	}

	return decisions
}
