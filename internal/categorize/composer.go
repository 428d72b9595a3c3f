package categorize

import (
	"strings"

	"github.com/dvloznov/tx-categorizer/internal/domain"
)

// BuildRequest merges the pending batch and the reference corpus into the
// provider-agnostic payload for one model call.
func BuildRequest(batch []domain.UncategorizedTransaction, refs []domain.ReferenceTransaction) domain.CategorizationRequest {
	return domain.CategorizationRequest{
		Transactions:          batch,
		ReferenceTransactions: refs,
	}
}

// BuildInstruction renders the single instruction text sent to the model.
// It fixes the response contract and the matching policy. The text is
// generated identically regardless of provider, so behavior differences
// between providers are attributable only to model quality.
func BuildInstruction(registry Registry) string {
	var b strings.Builder

	b.WriteString("You are a financial transaction categorizer.\n\n")
	b.WriteString("You receive a JSON object with two arrays:\n")
	b.WriteString("- \"transactions\": uncategorized transactions to process\n")
	b.WriteString("- \"reference_transactions\": already-categorized transactions to use as examples\n\n")

	b.WriteString("Output STRICT JSON only (no comments, no Markdown, no extra text).\n")
	b.WriteString("Output a single JSON object of the form:\n")
	b.WriteString("{\"suggested_transactions\": [{\"transaction_id\": string, \"updated_description\": string, \"category\": string, \"matched_transaction_id\": string or null}]}\n")
	b.WriteString("Produce EXACTLY one suggestion per input transaction, carrying its \"transaction_id\" through unchanged.\n\n")

	b.WriteString("MATCHING RULES:\n")
	b.WriteString("1. Prefer matching each transaction against reference_transactions by semantic similarity of the description.\n")
	b.WriteString("2. When the description is generic (e.g. \"Payment\", \"Transfer\") or mentions a payment rail (\"Zelle\", \"PayPal\", \"Check\"), match by the counterparty named in the description instead, and secondarily by institution.\n")
	b.WriteString("3. Ignore cosmetic differences when matching: runs of whitespace, trailing masked account numbers, and similar noise.\n")
	b.WriteString("4. When you find a match, reuse its category, produce a similar cleaned description, and set \"matched_transaction_id\" to the matched reference's transaction_id.\n")
	b.WriteString("5. When no confident match exists, set \"matched_transaction_id\" to null, derive a cleaned description yourself, and pick the best category from the list below.\n\n")

	b.WriteString("DESCRIPTION CLEANUP RULES:\n")
	b.WriteString("- Use the merchant name when it is recognizable.\n")
	b.WriteString("- Strip punctuation, trailing numeric or account fragments, legal-entity suffixes (LLC, Inc, Ltd), and location tokens.\n\n")

	b.WriteString("Use ONLY the following categories:\n")
	for _, label := range registry.Labels() {
		b.WriteString("- " + label + "\n")
	}
	b.WriteString("\nCATEGORY ASSIGNMENT RULES:\n")
	b.WriteString("1. \"category\" must be EXACTLY one of the categories listed above.\n")
	b.WriteString("2. If you are not confident, use \"" + domain.FallbackCategory + "\". Never invent a category outside the list.\n\n")

	b.WriteString("Return ONLY valid raw JSON.\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")
	b.WriteString("Output must begin with \"{\" and end with \"}\".\n")

	return b.String()
}
