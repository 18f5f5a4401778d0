package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// VertexBackend talks to a token-authenticated cloud vision API. Model
// names may arrive vendor-prefixed ("google/gemini-2.0-flash") and the
// request path differs between generate-content and predict style models.
type VertexBackend struct {
	AccessToken string
	ProjectID   string
	Location    string
	Model       string
}

// Name identifies the backend in transcription records
func (b *VertexBackend) Name() string { return "vertex" }

// normalizeModel strips a vendor prefix from the model name.
func normalizeModel(model string) string {
	if idx := strings.LastIndex(model, "/"); idx >= 0 {
		return model[idx+1:]
	}
	return model
}

// usesGenerateContent picks the endpoint shape by model name pattern.
func usesGenerateContent(model string) bool {
	return strings.Contains(strings.ToLower(model), "gemini")
}

// Transcribe sends the image to the cloud endpoint and normalizes the
// reply
func (b *VertexBackend) Transcribe(ctx context.Context, imageData []byte, req Request) (*Result, error) {
	switch {
	case b.AccessToken == "":
		return nil, &ConfigurationError{Message: "access token is required"}
	case b.ProjectID == "":
		return nil, &ConfigurationError{Message: "project id is required"}
	case b.Location == "":
		return nil, &ConfigurationError{Message: "location is required"}
	}

	model := req.Model
	if model == "" {
		model = b.Model
	}
	if model == "" {
		return nil, &ConfigurationError{Message: "model is required"}
	}
	model = normalizeModel(model)

	prompt := req.Prompt
	if prompt == "" {
		prompt = defaultPrompt
	}
	encoded := base64.StdEncoding.EncodeToString(imageData)

	var (
		endpoint string
		payload  map[string]any
	)
	base := fmt.Sprintf("https://%s-aiplatform.googleapis.com/v1/projects/%s/locations/%s/publishers/google/models/%s",
		b.Location, b.ProjectID, b.Location, model)
	if usesGenerateContent(model) {
		endpoint = base + ":generateContent"
		payload = map[string]any{
			"contents": []map[string]any{
				{
					"role": "user",
					"parts": []map[string]any{
						{"text": prompt},
						{"inlineData": map[string]any{
							"mimeType": "image/png",
							"data":     encoded,
						}},
					},
				},
			},
		}
	} else {
		endpoint = base + ":predict"
		payload = map[string]any{
			"instances": []map[string]any{
				{
					"prompt": prompt,
					"image":  map[string]any{"bytesBase64Encoded": encoded},
				},
			},
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("while encoding request payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("while building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+b.AccessToken)

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

	content, err := extractVertexText(respBody, usesGenerateContent(model))
	if err != nil {
		return nil, err
	}

	result := &Result{
		Metadata:    map[string]any{},
		RawResponse: respBody,
	}
	if req.UseStructuredOutput && req.MetadataSchema != nil {
		result.Text, result.Metadata = parseStructuredText(content)
	} else {
		result.Text = content
	}
	return result, nil
}

func extractVertexText(respBody []byte, generateContent bool) (string, error) {
	if generateContent {
		var parsed struct {
			Candidates []struct {
				Content struct {
					Parts []struct {
						Text string `json:"text"`
					} `json:"parts"`
				} `json:"content"`
			} `json:"candidates"`
		}
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return "", fmt.Errorf("while decoding response: %w", err)
		}
		var sb strings.Builder
		if len(parsed.Candidates) > 0 {
			for _, part := range parsed.Candidates[0].Content.Parts {
				sb.WriteString(part.Text)
			}
		}
		return sb.String(), nil
	}

	var parsed struct {
		Predictions []json.RawMessage `json:"predictions"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("while decoding response: %w", err)
	}
	if len(parsed.Predictions) == 0 {
		return "", nil
	}
	// Predictions come back either as a bare string or as an object with a
	// content field.
	var asString string
	if err := json.Unmarshal(parsed.Predictions[0], &asString); err == nil {
		return asString, nil
	}
	var asObject struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(parsed.Predictions[0], &asObject); err == nil {
		return asObject.Content, nil
	}
	return string(parsed.Predictions[0]), nil
}

// Verify that VertexBackend implements Backend
var _ Backend = (*VertexBackend)(nil)
