package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dvloznov/tx-categorizer/internal/config"
	"github.com/dvloznov/tx-categorizer/internal/domain"
)

// Categorizer is the capability contract both provider variants implement:
// send one composed request, return the model's suggestions. Shared logic
// (instruction generation, reconciliation, fallback policy) lives outside
// this interface; implementations only shape the call and extract the text.
type Categorizer interface {
	// Name returns the provider selector value ("openai" or "gemini").
	Name() string

	// Categorize sends the instruction and payload, records the attempt in
	// the diagnostics recorder, and returns the parsed suggestions.
	Categorize(ctx context.Context, instruction string, req domain.CategorizationRequest) ([]domain.SuggestedTransaction, error)
}

// New is the factory constructing a provider handle from the configuration
// value. The handle is owned by the single in-flight run; a new run builds
// a new handle, so configuration changes never leak into a running call.
func New(cfg *config.Config) (Categorizer, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAI(cfg.OpenAI), nil
	case config.ProviderGemini:
		return NewGemini(cfg.Gemini), nil
	default:
		return nil, fmt.Errorf("provider.New: unknown provider %q", cfg.Provider)
	}
}

// marshalPayload renders the request payload exactly as sent to the model,
// so the diagnostics recorder keeps a replayable copy.
func marshalPayload(req domain.CategorizationRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshalPayload: %w", err)
	}
	return string(payload), nil
}
