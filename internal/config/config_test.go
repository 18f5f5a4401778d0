package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lewtec/transcritor/internal/ocr"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transcritor.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Run("fills defaults", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, ""))
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Database.Path != "transcritor.db" {
			t.Errorf("Database.Path = %q", cfg.Database.Path)
		}
		if cfg.Storage.Root != "media" {
			t.Errorf("Storage.Root = %q", cfg.Storage.Root)
		}
		if cfg.User != "local" {
			t.Errorf("User = %q", cfg.User)
		}
	})

	t.Run("parses backends", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, `
user: alice
default_backend: main
backends:
  main:
    type: openai
    api_key: sk-test
    model: gpt-4o-mini
  remote:
    type: custom
    endpoint: https://ocr.test/transcribe
`))
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.User != "alice" || cfg.DefaultBackend != "main" {
			t.Errorf("cfg = %+v", cfg)
		}
		if cfg.Backends["main"].APIKey != "sk-test" {
			t.Errorf("main backend = %+v", cfg.Backends["main"])
		}
	})

	t.Run("rejects unknown backend type", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
backends:
  bad:
    type: carrier-pigeon
`))
		if err == nil {
			t.Error("Expected error for unknown backend type")
		}
	})

	t.Run("rejects unconfigured default backend", func(t *testing.T) {
		_, err := Load(writeConfig(t, "default_backend: ghost\n"))
		if err == nil {
			t.Error("Expected error for missing default backend")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load("/no/such/file.yaml"); err == nil {
			t.Error("Expected error for missing file")
		}
	})
}

func TestConfig_Backend(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
default_backend: main
backends:
  main:
    type: openai
    api_key: sk-test
  cloud:
    type: vertex
    access_token: tok
    project_id: proj
    location: us-central1
    model: gemini-2.0-flash
  remote:
    type: custom
    endpoint: https://ocr.test/transcribe
    auth_header: Bearer tok
`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	t.Run("empty name picks the default", func(t *testing.T) {
		backend, err := cfg.Backend("")
		if err != nil {
			t.Fatalf("Backend() error = %v", err)
		}
		if _, ok := backend.(*ocr.OpenAIBackend); !ok {
			t.Errorf("backend = %T, want OpenAIBackend", backend)
		}
	})

	t.Run("builds each backend type", func(t *testing.T) {
		if b, err := cfg.Backend("cloud"); err != nil {
			t.Errorf("Backend(cloud) error = %v", err)
		} else if vertex, ok := b.(*ocr.VertexBackend); !ok || vertex.ProjectID != "proj" {
			t.Errorf("cloud backend = %#v", b)
		}
		if b, err := cfg.Backend("remote"); err != nil {
			t.Errorf("Backend(remote) error = %v", err)
		} else if custom, ok := b.(*ocr.HTTPBackend); !ok || custom.Endpoint != "https://ocr.test/transcribe" {
			t.Errorf("remote backend = %#v", b)
		}
	})

	t.Run("unknown name fails", func(t *testing.T) {
		if _, err := cfg.Backend("ghost"); err == nil {
			t.Error("Expected error for unknown backend name")
		}
	})
}
