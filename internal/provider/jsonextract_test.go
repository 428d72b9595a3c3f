package provider

import (
	"errors"
	"testing"
)

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "plain object",
			input: `{"suggested_transactions": []}`,
			want:  `{"suggested_transactions": []}`,
		},
		{
			name:  "json code fence",
			input: "```json\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
		{
			name:  "bare code fence",
			input: "```\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
		{
			name:  "surrounding prose",
			input: "Here is the result:\n{\"a\": 1}\nHope that helps!",
			want:  `{"a": 1}`,
		},
		{
			name:  "leading and trailing whitespace",
			input: "\n\n  {\"a\": 1}  \n",
			want:  `{"a": 1}`,
		},
		{
			name:    "no object at all",
			input:   "I could not categorize these transactions.",
			wantErr: true,
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractObject(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractObject() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExtractObject() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseSuggestions(t *testing.T) {
	text := `{"suggested_transactions": [{"transaction_id": "tx-1", "updated_description": "Whole Foods", "category": "Groceries", "matched_transaction_id": "tx-0"}]}`

	suggestions, err := ParseSuggestions("openai", text)
	if err != nil {
		t.Fatalf("ParseSuggestions failed: %v", err)
	}
	if len(suggestions) != 1 {
		t.Fatalf("suggestions = %d, want 1", len(suggestions))
	}
	s := suggestions[0]
	if s.TransactionID != "tx-1" || s.Category != "Groceries" || s.MatchedTransactionID != "tx-0" {
		t.Errorf("suggestion = %+v", s)
	}
}

func TestParseSuggestions_EmptyArray(t *testing.T) {
	suggestions, err := ParseSuggestions("openai", `{"suggested_transactions": []}`)
	if err != nil {
		t.Fatalf("ParseSuggestions failed: %v", err)
	}
	if len(suggestions) != 0 {
		t.Errorf("suggestions = %d, want 0", len(suggestions))
	}
}

func TestParseSuggestions_Malformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"not json", "definitely not json"},
		{"missing envelope key", `{"transactions": []}`},
		{"array instead of object", `[{"transaction_id": "tx-1"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSuggestions("openai", tt.text)
			var malformed *MalformedResponseError
			if !errors.As(err, &malformed) {
				t.Fatalf("error = %v, want MalformedResponseError", err)
			}
			if malformed.Provider != "openai" {
				t.Errorf("Provider = %q, want openai", malformed.Provider)
			}
		})
	}
}
