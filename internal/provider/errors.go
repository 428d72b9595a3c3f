package provider

import "fmt"

// MissingCredentialError means the selected provider's API key is unset.
// Configuration error: fatal for the run, no retry.
type MissingCredentialError struct {
	Provider string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("provider %s: API key is not set", e.Provider)
}

// ProviderError means the remote call was rejected or failed in transit.
// RawBody carries the provider's error payload when one was returned.
type ProviderError struct {
	Provider   string
	StatusCode int
	RawBody    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider %s: request failed with status %d: %s", e.Provider, e.StatusCode, e.RawBody)
	}
	return fmt.Sprintf("provider %s: request failed: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// MalformedResponseError means the model's output could not be parsed into
// the expected suggestion envelope. RawText preserves the model text so the
// operator can see what came back.
type MalformedResponseError struct {
	Provider string
	RawText  string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("provider %s: malformed model response: %v", e.Provider, e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
