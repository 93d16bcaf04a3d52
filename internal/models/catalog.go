package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultModelID is the model selected when the chat UI starts.
const DefaultModelID = "gpt-4"

// ModelOption is an entry of the model selector.
// The selection is display-only: the proxy always substitutes its fixed model.
type ModelOption struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// catalogFile is the on-disk layout of a model catalog.
type catalogFile struct {
	Models []ModelOption `yaml:"models"`
}

// DefaultModels returns the built-in model selector entries.
func DefaultModels() []ModelOption {
	return []ModelOption{
		{ID: "gpt-4", Name: "GPT-4"},
		{ID: "claude-3", Name: "Claude 3"},
		{ID: "llama-2", Name: "Llama 2"},
		{ID: "palm", Name: "PaLM"},
	}
}

// LoadCatalog reads model options from a YAML file.
// An empty path returns the built-in catalog.
func LoadCatalog(path string) ([]ModelOption, error) {
	if path == "" {
		return DefaultModels(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog parses a YAML model catalog.
// Entries without an ID are rejected; a missing name defaults to the ID.
func ParseCatalog(data []byte) ([]ModelOption, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(file.Models) == 0 {
		return nil, fmt.Errorf("parse catalog: no models defined")
	}

	seen := make(map[string]bool, len(file.Models))
	for i := range file.Models {
		m := &file.Models[i]
		if m.ID == "" {
			return nil, fmt.Errorf("parse catalog: model %d has no id", i)
		}
		if seen[m.ID] {
			return nil, fmt.Errorf("parse catalog: duplicate model id %q", m.ID)
		}
		seen[m.ID] = true
		if m.Name == "" {
			m.Name = m.ID
		}
	}
	return file.Models, nil
}

// FindModel returns the option with the given ID.
func FindModel(options []ModelOption, id string) (ModelOption, bool) {
	for _, m := range options {
		if m.ID == id {
			return m, true
		}
	}
	return ModelOption{}, false
}
