package provider

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/dvloznov/tx-categorizer/internal/config"
	"github.com/dvloznov/tx-categorizer/internal/domain"
)

// GeminiClient calls the Gemini content-generation API.
type GeminiClient struct {
	apiKey string
	model  string
}

// NewGemini creates the generate-content variant from provider settings.
func NewGemini(settings config.ProviderConfig) *GeminiClient {
	model := settings.Model
	if model == "" {
		model = config.DefaultGeminiModel
	}
	return &GeminiClient{
		apiKey: settings.APIKey,
		model:  model,
	}
}

// Name implements Categorizer.
func (c *GeminiClient) Name() string {
	return config.ProviderGemini
}

// Categorize sends the instruction as the system instruction and the JSON
// payload as the user content. Gemini sometimes emits commentary around the
// object even with a JSON response type requested, so the outermost {...}
// span is extracted before parsing.
func (c *GeminiClient) Categorize(ctx context.Context, instruction string, req domain.CategorizationRequest) ([]domain.SuggestedTransaction, error) {
	payload, err := marshalPayload(req)
	if err != nil {
		return nil, err
	}

	if c.apiKey == "" {
		credErr := &MissingCredentialError{Provider: c.Name()}
		RecordInteraction(Interaction{Provider: c.Name(), Request: payload, Err: credErr.Error()})
		return nil, credErr
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      c.apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		provErr := &ProviderError{Provider: c.Name(), Err: fmt.Errorf("create genai client: %w", err)}
		RecordInteraction(Interaction{Provider: c.Name(), Request: payload, Err: provErr.Error()})
		return nil, provErr
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: payload}},
		},
	}
	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: instruction}},
		},
		ResponseMIMEType: "application/json",
	}

	resp, err := client.Models.GenerateContent(ctx, c.model, contents, genCfg)
	if err != nil {
		provErr := &ProviderError{Provider: c.Name(), Err: err}
		RecordInteraction(Interaction{Provider: c.Name(), Request: payload, Err: provErr.Error()})
		return nil, provErr
	}

	rawText := resp.Text()
	if rawText == "" {
		malErr := &MalformedResponseError{Provider: c.Name(), RawText: rawText, Err: fmt.Errorf("empty response from model")}
		RecordInteraction(Interaction{Provider: c.Name(), Request: payload, Err: malErr.Error()})
		return nil, malErr
	}

	RecordInteraction(Interaction{Provider: c.Name(), Request: payload, Response: rawText})

	span, err := ExtractObject(rawText)
	if err != nil {
		return nil, &MalformedResponseError{Provider: c.Name(), RawText: rawText, Err: err}
	}

	return ParseSuggestions(c.Name(), span)
}

var _ Categorizer = (*GeminiClient)(nil)
