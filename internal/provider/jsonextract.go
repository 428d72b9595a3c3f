package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dvloznov/tx-categorizer/internal/domain"
)

// ExtractObject isolates the outermost JSON object in free-form model text.
// Models sometimes wrap output in Markdown fences or surround it with
// commentary despite instructions; this strips fences first, then keeps the
// span from the first '{' to the last '}'.
func ExtractObject(raw string) (string, error) {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON object found in response text")
	}
	return s[start : end+1], nil
}

// ParseSuggestions parses a suggestion envelope from model text. The text
// must be a JSON object with a "suggested_transactions" array; anything
// else is a malformed response.
func ParseSuggestions(providerName, text string) ([]domain.SuggestedTransaction, error) {
	var env struct {
		SuggestedTransactions *[]domain.SuggestedTransaction `json:"suggested_transactions"`
	}
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		return nil, &MalformedResponseError{Provider: providerName, RawText: text, Err: err}
	}
	if env.SuggestedTransactions == nil {
		return nil, &MalformedResponseError{
			Provider: providerName,
			RawText:  text,
			Err:      fmt.Errorf("missing %q array", "suggested_transactions"),
		}
	}
	return *env.SuggestedTransactions, nil
}
