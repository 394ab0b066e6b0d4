// Package config loads and validates the TaskConfig every pipeline run
// is bound to: the pack directory, case identity, output location, and
// the optional template/client identifiers downstream renderers need.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// TaskConfig carries everything the runtime needs to start a run.
type TaskConfig struct {
	PackDir    string `yaml:"packDir" validate:"required"`
	CaseID     string `yaml:"caseId" validate:"required"`
	OutputDir  string `yaml:"outputDir" validate:"required"`
	TemplateID string `yaml:"templateId"`
	ClientID   string `yaml:"clientId"`
}

var validate = validator.New()

// Load builds a TaskConfig from environment variables, optionally
// overlaid with a YAML file at configPath (ignored if configPath is
// empty), then validates the result. Environment variables take
// precedence over the YAML file.
func Load(configPath string) (TaskConfig, error) {
	var cfg TaskConfig

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return TaskConfig{}, fmt.Errorf("config: failed to read %s: %w", configPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return TaskConfig{}, fmt.Errorf("config: failed to parse %s: %w", configPath, err)
		}
	}

	overlayEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return TaskConfig{}, err
	}
	return cfg, nil
}

func overlayEnv(cfg *TaskConfig) {
	if v := os.Getenv("PSURGEN_PACK_DIR"); v != "" {
		cfg.PackDir = v
	}
	if v := os.Getenv("PSURGEN_CASE_ID"); v != "" {
		cfg.CaseID = v
	}
	if v := os.Getenv("PSURGEN_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("PSURGEN_TEMPLATE_ID"); v != "" {
		cfg.TemplateID = v
	}
	if v := os.Getenv("PSURGEN_CLIENT_ID"); v != "" {
		cfg.ClientID = v
	}
}

// Validate checks struct-level constraints via go-playground/validator
// tags, then applies the one cross-field rule tags cannot express: the
// output directory must not equal the pack directory.
func (c TaskConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: invalid TaskConfig: %w", err)
	}
	if c.OutputDir == c.PackDir {
		return fmt.Errorf("config: outputDir must differ from packDir, both are %q", c.OutputDir)
	}
	return nil
}
