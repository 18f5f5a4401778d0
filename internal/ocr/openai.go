package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIBackend talks to a key-authenticated multimodal chat API: the image
// travels base64-embedded in a chat message next to the prompt.
type OpenAIBackend struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Name identifies the backend in transcription records
func (b *OpenAIBackend) Name() string { return "openai" }

// Transcribe sends the image to the chat completions endpoint and
// normalizes the reply
func (b *OpenAIBackend) Transcribe(ctx context.Context, imageData []byte, req Request) (*Result, error) {
	if b.APIKey == "" {
		return nil, &ConfigurationError{Message: "OpenAI API key is required"}
	}

	baseURL := b.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	model := req.Model
	if model == "" {
		model = b.Model
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	prompt := req.Prompt
	if prompt == "" {
		prompt = defaultPrompt
	}

	encoded := base64.StdEncoding.EncodeToString(imageData)
	payload := map[string]any{
		"model": model,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": prompt},
					{"type": "image_url", "image_url": map[string]any{
						"url": "data:image/png;base64," + encoded,
					}},
				},
			},
		},
		"max_tokens": 1000,
	}
	if req.UseStructuredOutput && req.MetadataSchema != nil {
		payload["response_format"] = map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "transcription_with_metadata",
				"schema": req.MetadataSchema,
			},
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("while encoding request payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("while building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+b.APIKey)

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

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("while decoding response: %w", err)
	}

	result := &Result{
		Metadata:    map[string]any{},
		RawResponse: respBody,
	}
	if len(parsed.Choices) > 0 {
		content := parsed.Choices[0].Message.Content
		if req.UseStructuredOutput && req.MetadataSchema != nil {
			result.Text, result.Metadata = parseStructuredText(content)
		} else {
			result.Text = content
		}
	}
	// Confidence stays nil: the chat API does not report one.
	return result, nil
}

// Verify that OpenAIBackend implements Backend
var _ Backend = (*OpenAIBackend)(nil)
