package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dvloznov/tx-categorizer/internal/config"
	"github.com/dvloznov/tx-categorizer/internal/domain"
)

// OpenAIClient calls an OpenAI-compatible chat completion endpoint.
type OpenAIClient struct {
	apiKey  string
	model   string
	baseURL string

	// HTTPClient may be replaced in tests.
	HTTPClient *http.Client
}

// NewOpenAI creates the chat-completion variant from provider settings.
func NewOpenAI(settings config.ProviderConfig) *OpenAIClient {
	baseURL := settings.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultOpenAIBaseURL
	}
	model := settings.Model
	if model == "" {
		model = config.DefaultOpenAIModel
	}
	return &OpenAIClient{
		apiKey:  settings.APIKey,
		model:   model,
		baseURL: baseURL,
	}
}

type chatRequest struct {
	Model          string             `json:"model"`
	Messages       []chatMessage      `json:"messages"`
	ResponseFormat chatResponseFormat `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Name implements Categorizer.
func (c *OpenAIClient) Name() string {
	return config.ProviderOpenAI
}

// Categorize sends a system instruction plus the JSON payload as the user
// message, requests a JSON-typed response, and extracts
// choices[0].message.content.
func (c *OpenAIClient) Categorize(ctx context.Context, instruction string, req domain.CategorizationRequest) ([]domain.SuggestedTransaction, error) {
	payload, err := marshalPayload(req)
	if err != nil {
		return nil, err
	}

	if c.apiKey == "" {
		credErr := &MissingCredentialError{Provider: c.Name()}
		RecordInteraction(Interaction{Provider: c.Name(), Request: payload, Err: credErr.Error()})
		return nil, credErr
	}

	reqBody, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: instruction},
			{Role: "user", Content: payload},
		},
		ResponseFormat: chatResponseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("Categorize: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("Categorize: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		provErr := &ProviderError{Provider: c.Name(), Err: err}
		RecordInteraction(Interaction{Provider: c.Name(), Request: payload, Err: provErr.Error()})
		return nil, provErr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		provErr := &ProviderError{Provider: c.Name(), Err: err}
		RecordInteraction(Interaction{Provider: c.Name(), Request: payload, Err: provErr.Error()})
		return nil, provErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		provErr := &ProviderError{Provider: c.Name(), StatusCode: resp.StatusCode, RawBody: string(body)}
		RecordInteraction(Interaction{Provider: c.Name(), Request: payload, Err: provErr.Error()})
		return nil, provErr
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		malErr := &MalformedResponseError{Provider: c.Name(), RawText: string(body), Err: err}
		RecordInteraction(Interaction{Provider: c.Name(), Request: payload, Response: string(body), Err: malErr.Error()})
		return nil, malErr
	}
	if parsed.Error != nil {
		provErr := &ProviderError{Provider: c.Name(), StatusCode: resp.StatusCode, RawBody: parsed.Error.Message}
		RecordInteraction(Interaction{Provider: c.Name(), Request: payload, Err: provErr.Error()})
		return nil, provErr
	}
	if len(parsed.Choices) == 0 {
		malErr := &MalformedResponseError{Provider: c.Name(), RawText: string(body), Err: fmt.Errorf("empty choices")}
		RecordInteraction(Interaction{Provider: c.Name(), Request: payload, Response: string(body), Err: malErr.Error()})
		return nil, malErr
	}

	content := parsed.Choices[0].Message.Content
	RecordInteraction(Interaction{Provider: c.Name(), Request: payload, Response: content})

	return ParseSuggestions(c.Name(), content)
}

func (c *OpenAIClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 120 * time.Second}
}

var _ Categorizer = (*OpenAIClient)(nil)
