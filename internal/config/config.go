// Package config loads the yaml configuration file and builds OCR
// backends out of it.
package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lewtec/transcritor/internal/ocr"
)

// Config is the top-level configuration file shape.
type Config struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Storage struct {
		Root string `yaml:"root"`
	} `yaml:"storage"`
	User           string                    `yaml:"user"`
	DefaultBackend string                    `yaml:"default_backend"`
	Backends       map[string]*BackendConfig `yaml:"backends"`
}

// BackendConfig configures one OCR backend. Type selects the provider;
// the remaining fields apply per type.
type BackendConfig struct {
	Type        string `yaml:"type"`
	APIKey      string `yaml:"api_key"`
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	AccessToken string `yaml:"access_token"`
	ProjectID   string `yaml:"project_id"`
	Location    string `yaml:"location"`
	Endpoint    string `yaml:"endpoint"`
	AuthHeader  string `yaml:"auth_header"`
}

// Load reads and validates a configuration file, filling in defaults for
// the database path, storage root and acting user.
func Load(filename string) (*Config, error) {
	var ret Config
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	err = yaml.Unmarshal(data, &ret)
	if err != nil {
		return nil, err
	}
	if ret.Database.Path == "" {
		ret.Database.Path = "transcritor.db"
	}
	if ret.Storage.Root == "" {
		ret.Storage.Root = "media"
	}
	if ret.User == "" {
		ret.User = "local"
	}
	for name, backend := range ret.Backends {
		switch backend.Type {
		case "openai", "vertex", "custom":
		case "":
			return nil, fmt.Errorf("backend %s has no type", name)
		default:
			return nil, fmt.Errorf("backend %s has unknown type %q", name, backend.Type)
		}
	}
	if ret.DefaultBackend != "" {
		if _, ok := ret.Backends[ret.DefaultBackend]; !ok {
			return nil, fmt.Errorf("default backend %s is not configured", ret.DefaultBackend)
		}
	}
	return &ret, nil
}

// Backend builds the named OCR backend. An empty name picks the
// configured default.
func (c *Config) Backend(name string) (ocr.Backend, error) {
	if name == "" {
		name = c.DefaultBackend
	}
	if name == "" {
		return nil, fmt.Errorf("no backend named and no default configured")
	}
	backend, ok := c.Backends[name]
	if !ok {
		return nil, fmt.Errorf("backend %s is not configured", name)
	}
	switch backend.Type {
	case "openai":
		return &ocr.OpenAIBackend{
			APIKey:  backend.APIKey,
			BaseURL: backend.BaseURL,
			Model:   backend.Model,
		}, nil
	case "vertex":
		return &ocr.VertexBackend{
			AccessToken: backend.AccessToken,
			ProjectID:   backend.ProjectID,
			Location:    backend.Location,
			Model:       backend.Model,
		}, nil
	case "custom":
		return &ocr.HTTPBackend{
			Endpoint:   backend.Endpoint,
			AuthHeader: backend.AuthHeader,
			Model:      backend.Model,
		}, nil
	default:
		return nil, fmt.Errorf("backend %s has unknown type %q", name, backend.Type)
	}
}
