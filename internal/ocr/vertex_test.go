package ocr

import (
	"context"
	"errors"
	"testing"
)

func TestNormalizeModel(t *testing.T) {
	cases := map[string]string{
		"google/gemini-2.0-flash": "gemini-2.0-flash",
		"gemini-1.5-pro":          "gemini-1.5-pro",
		"a/b/imagetext":           "imagetext",
	}
	for input, want := range cases {
		if got := normalizeModel(input); got != want {
			t.Errorf("normalizeModel(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestUsesGenerateContent(t *testing.T) {
	if !usesGenerateContent("gemini-2.0-flash") {
		t.Error("gemini models should use generateContent")
	}
	if !usesGenerateContent("Gemini-1.5-Pro") {
		t.Error("match should be case-insensitive")
	}
	if usesGenerateContent("imagetext") {
		t.Error("non-gemini models should use predict")
	}
}

func TestExtractVertexText(t *testing.T) {
	t.Run("joins generateContent parts", func(t *testing.T) {
		body := []byte(`{"candidates":[{"content":{"parts":[{"text":"first "},{"text":"second"}]}}]}`)
		got, err := extractVertexText(body, true)
		if err != nil {
			t.Fatalf("extractVertexText() error = %v", err)
		}
		if got != "first second" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("empty candidates yield empty text", func(t *testing.T) {
		got, err := extractVertexText([]byte(`{"candidates":[]}`), true)
		if err != nil {
			t.Fatalf("extractVertexText() error = %v", err)
		}
		if got != "" {
			t.Errorf("got %q, want empty", got)
		}
	})

	t.Run("reads bare string predictions", func(t *testing.T) {
		got, err := extractVertexText([]byte(`{"predictions":["hello there"]}`), false)
		if err != nil {
			t.Fatalf("extractVertexText() error = %v", err)
		}
		if got != "hello there" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("reads object predictions with content field", func(t *testing.T) {
		got, err := extractVertexText([]byte(`{"predictions":[{"content":"from object"}]}`), false)
		if err != nil {
			t.Fatalf("extractVertexText() error = %v", err)
		}
		if got != "from object" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("rejects undecodable bodies", func(t *testing.T) {
		if _, err := extractVertexText([]byte("not json"), true); err == nil {
			t.Error("Expected decode error")
		}
	})
}

func TestVertexBackend_Configuration(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name    string
		backend VertexBackend
	}{
		{"missing token", VertexBackend{ProjectID: "p", Location: "us-central1", Model: "gemini-2.0-flash"}},
		{"missing project", VertexBackend{AccessToken: "t", Location: "us-central1", Model: "gemini-2.0-flash"}},
		{"missing location", VertexBackend{AccessToken: "t", ProjectID: "p", Model: "gemini-2.0-flash"}},
		{"missing model", VertexBackend{AccessToken: "t", ProjectID: "p", Location: "us-central1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.backend.Transcribe(ctx, []byte("img"), Request{})
			var configErr *ConfigurationError
			if !errors.As(err, &configErr) {
				t.Errorf("error = %v, want ConfigurationError", err)
			}
		})
	}
}
