package categorize

import (
	"strings"

	"github.com/dvloznov/tx-categorizer/internal/domain"
)

// Registry is the closed set of permitted category labels. Lookup is
// case-insensitive and whitespace-tolerant, but Resolve always returns the
// registry's own spelling so nothing outside it is ever written.
type Registry struct {
	labels []string
	lookup map[string]string // normalized -> canonical label
}

// NewRegistry builds a registry from the source labels, dropping empties
// and preserving order. Duplicate labels stay in the list (no destructive
// dedup); the first occurrence wins for lookup.
func NewRegistry(labels []string) Registry {
	reg := Registry{lookup: make(map[string]string, len(labels))}
	for _, label := range labels {
		trimmed := strings.TrimSpace(label)
		if trimmed == "" {
			continue
		}
		reg.labels = append(reg.labels, trimmed)
		norm := normalizeLabel(trimmed)
		if _, exists := reg.lookup[norm]; !exists {
			reg.lookup[norm] = trimmed
		}
	}
	return reg
}

// Labels returns the registry labels in source order.
func (r Registry) Labels() []string {
	return r.labels
}

// Len returns the number of labels.
func (r Registry) Len() int {
	return len(r.labels)
}

// Resolve maps a model-supplied category to its canonical registry label.
// The second return is false when the category is not in the registry.
func (r Registry) Resolve(category string) (string, bool) {
	canonical, ok := r.lookup[normalizeLabel(category)]
	return canonical, ok
}

// ResolveOrFallback maps a category to its canonical label, substituting
// the fallback label for anything outside the registry.
func (r Registry) ResolveOrFallback(category string) string {
	if canonical, ok := r.Resolve(category); ok {
		return canonical
	}
	return domain.FallbackCategory
}

// normalizeLabel normalizes a label for comparison: uppercase, trimmed.
func normalizeLabel(label string) string {
	return strings.ToUpper(strings.TrimSpace(label))
}
