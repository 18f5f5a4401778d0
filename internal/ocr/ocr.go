// Package ocr abstracts the three transcription providers behind a single
// Backend contract and orchestrates region extraction, backend dispatch and
// ledger recording.
package ocr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// requestTimeout bounds every backend call.
const requestTimeout = 60 * time.Second

// defaultPrompt is used when the caller supplies no prompt.
const defaultPrompt = "Please transcribe all text visible in this image. Return only the transcribed text without any additional commentary."

// Request carries the caller-controlled knobs for one transcription call.
type Request struct {
	Prompt              string
	Model               string
	ExpectedMetadata    []string
	UseStructuredOutput bool
	MetadataSchema      map[string]any
}

// Result is the normalized outcome shared by all backends.
type Result struct {
	Text        string
	Metadata    map[string]any
	Confidence  *float64
	RawResponse json.RawMessage
}

// Backend is the closed set of transcription providers. Implementations
// are OpenAIBackend, VertexBackend and HTTPBackend.
type Backend interface {
	// Name identifies the backend in transcription records
	Name() string

	// Transcribe sends the image to the provider and normalizes the reply
	Transcribe(ctx context.Context, imageData []byte, req Request) (*Result, error)
}

// ConfigurationError reports missing credentials, detected before any
// network call is made.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("backend configuration error: %s", e.Message)
}

// BackendError reports a failed provider call: a non-2xx response carries
// the status and body, a timeout or transport failure carries the wrapped
// error with Status 0.
type BackendError struct {
	Backend string
	Status  int
	Body    string
	Err     error
}

func (e *BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s backend error: %v", e.Backend, e.Err)
	}
	return fmt.Sprintf("%s backend error: status %d: %s", e.Backend, e.Status, e.Body)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}

// parseStructuredText attempts to read a {"text": ..., "metadata": ...}
// object out of a model reply. On any parse failure the whole reply is
// treated as plain text instead of failing the request.
func parseStructuredText(content string) (string, map[string]any) {
	var parsed struct {
		Text     string         `json:"text"`
		Metadata map[string]any `json:"metadata"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return content, map[string]any{}
	}
	if parsed.Metadata == nil {
		parsed.Metadata = map[string]any{}
	}
	return parsed.Text, parsed.Metadata
}

// wrapTransport classifies a transport-level failure, keeping timeouts
// distinguishable through errors.Is(err, context.DeadlineExceeded).
func wrapTransport(backend string, err error) *BackendError {
	return &BackendError{Backend: backend, Err: err}
}

// IsTimeout reports whether a backend error was caused by the request
// timeout rather than a provider-side rejection.
func IsTimeout(err error) bool {
	var be *BackendError
	if !errors.As(err, &be) || be.Err == nil {
		return false
	}
	if errors.Is(be.Err, context.DeadlineExceeded) {
		return true
	}
	var timeout interface{ Timeout() bool }
	return errors.As(be.Err, &timeout) && timeout.Timeout()
}
