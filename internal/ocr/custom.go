package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// HTTPBackend posts the image as multipart form data to an arbitrary OCR
// endpoint. The response shape is not fixed, so extraction walks an
// ordered rule list rather than guessing by reflection.
type HTTPBackend struct {
	Endpoint   string
	AuthHeader string
	Model      string
}

// Name identifies the backend in transcription records
func (b *HTTPBackend) Name() string { return "custom" }

// Transcribe posts the image and normalizes whatever shape comes back
func (b *HTTPBackend) Transcribe(ctx context.Context, imageData []byte, req Request) (*Result, error) {
	if b.Endpoint == "" {
		return nil, &ConfigurationError{Message: "endpoint URL is required"}
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", "region.png")
	if err != nil {
		return nil, fmt.Errorf("while building multipart body: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("while writing image part: %w", err)
	}
	model := req.Model
	if model == "" {
		model = b.Model
	}
	if model != "" {
		if err := writer.WriteField("model", model); err != nil {
			return nil, fmt.Errorf("while writing model field: %w", err)
		}
	}
	if req.Prompt != "" {
		if err := writer.WriteField("prompt", req.Prompt); err != nil {
			return nil, fmt.Errorf("while writing prompt field: %w", err)
		}
	}
	if len(req.ExpectedMetadata) > 0 {
		encoded, err := json.Marshal(req.ExpectedMetadata)
		if err != nil {
			return nil, fmt.Errorf("while encoding expected metadata: %w", err)
		}
		if err := writer.WriteField("expected_metadata", string(encoded)); err != nil {
			return nil, fmt.Errorf("while writing expected_metadata field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("while finishing multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.Endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("while building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	if b.AuthHeader != "" {
		httpReq.Header.Set("Authorization", b.AuthHeader)
	}

	resp, err := newHTTPClient().Do(httpReq)
	if err != nil {
		return nil, wrapTransport(b.Name(), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapTransport(b.Name(), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &BackendError{Backend: b.Name(), Status: resp.StatusCode, Body: string(respBody)}
	}

	return extractCustomResult(respBody, len(req.ExpectedMetadata) > 0)
}

// extractCustomResult applies the response-shape rules in priority order:
// {text, metadata} first, then the text/transcription/content field
// fallbacks, then a bare string. When metadata was requested and the
// extracted text itself looks like a JSON object, a secondary parse tries
// to recover {text, metadata} out of it.
func extractCustomResult(respBody []byte, expectMetadata bool) (*Result, error) {
	result := &Result{
		Metadata:    map[string]any{},
		RawResponse: respBody,
	}

	var asMap map[string]any
	if err := json.Unmarshal(respBody, &asMap); err == nil {
		text, hasText := asMap["text"].(string)
		metadata, hasMetadata := asMap["metadata"].(map[string]any)

		switch {
		case hasText && hasMetadata:
			result.Text = text
			result.Metadata = metadata
		case hasText:
			result.Text = text
		default:
			if transcription, ok := asMap["transcription"].(string); ok {
				result.Text = transcription
			} else if content, ok := asMap["content"].(string); ok {
				result.Text = content
			} else if fallback, ok := asMap["result"].(string); ok {
				result.Text = fallback
			}
		}

		if !hasMetadata && expectMetadata && strings.HasPrefix(strings.TrimSpace(result.Text), "{") {
			if text, metadata, ok := reparseStructured(result.Text); ok {
				result.Text = text
				result.Metadata = metadata
			}
		}

		result.Confidence = extractConfidence(asMap)
		return result, nil
	}

	// Bare string responses.
	var asString string
	if err := json.Unmarshal(respBody, &asString); err == nil {
		result.Text = asString
		return result, nil
	}

	// Any other valid JSON (a number, an array) is kept verbatim rather
	// than rejected; only an undecodable body is an error.
	var anyValue any
	if err := json.Unmarshal(respBody, &anyValue); err != nil {
		return nil, fmt.Errorf("unrecognized response shape: %s", string(respBody))
	}
	result.Text = strings.TrimSpace(string(respBody))
	return result, nil
}

// reparseStructured succeeds only when the embedded object carries both
// text and metadata; otherwise the original text is kept.
func reparseStructured(content string) (string, map[string]any, bool) {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return "", nil, false
	}
	text, hasText := parsed["text"].(string)
	metadata, hasMetadata := parsed["metadata"].(map[string]any)
	if !hasText || !hasMetadata {
		return "", nil, false
	}
	return text, metadata, true
}

func extractConfidence(m map[string]any) *float64 {
	if v, ok := m["confidence"].(float64); ok {
		return &v
	}
	if v, ok := m["score"].(float64); ok {
		return &v
	}
	return nil
}

// Verify that HTTPBackend implements Backend
var _ Backend = (*HTTPBackend)(nil)
