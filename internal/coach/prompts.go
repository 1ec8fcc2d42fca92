package coach

import (
	"bytes"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var promptsYAML []byte

// prompts holds the coach's prompt templates and fallback strings, loaded
// from the embedded prompts.yaml manifest.
type prompts struct {
	Plan struct {
		System        string `yaml:"system"`
		Fallback      string `yaml:"fallback"`
		EmptyFallback string `yaml:"empty_fallback"`
	} `yaml:"plan"`
	General struct {
		System   string `yaml:"system"`
		Fallback string `yaml:"fallback"`
	} `yaml:"general"`
}

// loadPrompts parses the embedded manifest with strict validation.
// Unknown YAML fields are rejected (via KnownFields) to catch typos.
func loadPrompts() (*prompts, error) {
	var p prompts
	decoder := yaml.NewDecoder(bytes.NewReader(promptsYAML))
	decoder.KnownFields(true)

	if err := decoder.Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to parse prompts manifest: %w", err)
	}

	if p.Plan.System == "" || p.General.System == "" {
		return nil, fmt.Errorf("prompts manifest missing required system prompts")
	}
	if p.Plan.Fallback == "" || p.General.Fallback == "" {
		return nil, fmt.Errorf("prompts manifest missing required fallback strings")
	}

	return &p, nil
}
