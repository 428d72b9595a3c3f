package domain

import "time"

// FallbackCategory is the label written whenever the model is uncertain or
// suggests a category outside the registry.
const FallbackCategory = "To Be Categorized"

// UncategorizedTransaction is one row still waiting for a category, as sent
// to the model. The ID is an opaque correlation key: either the row's
// Transaction ID cell or a run-scoped surrogate derived from its position.
type UncategorizedTransaction struct {
	ID                  string   `json:"transaction_id"`
	OriginalDescription string   `json:"original_description"`
	Amount              *float64 `json:"amount,omitempty"`
	Date                string   `json:"date,omitempty"`
	Institution         string   `json:"institution,omitempty"`
}

// ReferenceTransaction is an already-categorized row supplied to the model
// as a matching exemplar. Read-only context, never written back.
type ReferenceTransaction struct {
	ID                  string   `json:"transaction_id"`
	OriginalDescription string   `json:"original_description"`
	UpdatedDescription  string   `json:"updated_description"`
	Category            string   `json:"category"`
	Amount              *float64 `json:"amount,omitempty"`
	Institution         string   `json:"institution,omitempty"`
}

// CategorizationRequest is the provider-agnostic payload for one model call.
type CategorizationRequest struct {
	Transactions          []UncategorizedTransaction `json:"transactions"`
	ReferenceTransactions []ReferenceTransaction     `json:"reference_transactions"`
}

// SuggestedTransaction is one entry of the model's response. Untrusted:
// TransactionID must correlate to a pending row and Category must be checked
// against the registry before anything is written.
type SuggestedTransaction struct {
	TransactionID        string `json:"transaction_id"`
	UpdatedDescription   string `json:"updated_description"`
	Category             string `json:"category"`
	MatchedTransactionID string `json:"matched_transaction_id,omitempty"`
}

// RowUpdateDecision is the reconciled outcome for one row: the category to
// write, the cleaned description when the update policy is on, and the
// audit timestamp. Consumed immediately by the write-back applier.
type RowUpdateDecision struct {
	Identity    string
	Category    string
	Description *string // nil when description updates are disabled
	TouchedAt   time.Time
}
