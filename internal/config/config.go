// Package config loads and validates the on-disk YAML configuration and
// builds the configured component variants.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"tribunal/internal/agent/ports"
	"tribunal/internal/llm"
	"tribunal/internal/logging"
	"tribunal/internal/observability"
	"tribunal/internal/parser"
	"tribunal/internal/retry"
	"tribunal/internal/review"
	"tribunal/internal/tournament"
)

// Config is the top-level YAML configuration.
type Config struct {
	Model   llm.Config    `yaml:"model"`
	Parser  parser.Config `yaml:"parser"`
	Sampler SamplerConfig `yaml:"sampler"`
	Judge   JudgeConfig   `yaml:"judge"`
	Retry   retry.Config  `yaml:"retry"`
}

// SamplerConfig selects one action sampler variant. The set is closed:
// "tournament" (default) or "colleagues".
type SamplerConfig struct {
	Type       string                      `yaml:"type"`
	Tournament tournament.Config           `yaml:"tournament"`
	Colleagues tournament.ColleaguesConfig `yaml:"colleagues"`
}

func (c SamplerConfig) Validate() error {
	switch c.Type {
	case "", "tournament":
		return c.Tournament.Validate()
	case "colleagues":
		return c.Colleagues.Validate()
	default:
		return fmt.Errorf("unknown sampler type %q", c.Type)
	}
}

// Build constructs the configured sampler.
func (c SamplerConfig) Build(model ports.LLMClient, actionParser ports.ActionParser, logger logging.Logger, metrics *observability.SelectionMetrics) (tournament.Sampler, error) {
	switch c.Type {
	case "", "tournament":
		return tournament.New(c.Tournament, model, actionParser, logger, metrics)
	case "colleagues":
		return tournament.NewColleagues(c.Colleagues, model, actionParser, logger)
	default:
		return nil, fmt.Errorf("unknown sampler type %q", c.Type)
	}
}

// JudgeConfig selects one reviewer variant. The set is closed: "reviewer"
// (default, scores one submission) or "binary" (compares two submissions).
type JudgeConfig struct {
	Type     string                      `yaml:"type"`
	Reviewer review.ReviewerConfig       `yaml:"reviewer"`
	Binary   review.BinaryReviewerConfig `yaml:"binary"`
}

func (c JudgeConfig) Validate() error {
	switch c.Type {
	case "", "reviewer":
		return c.Reviewer.Validate()
	case "binary":
		return nil
	default:
		return fmt.Errorf("unknown judge type %q", c.Type)
	}
}

// BuildReviewer constructs the submission reviewer. It is an error to call
// it when the binary variant is configured.
func (c JudgeConfig) BuildReviewer(model ports.LLMClient, logger logging.Logger, metrics *observability.SelectionMetrics) (*review.Reviewer, error) {
	switch c.Type {
	case "", "reviewer":
		return review.NewReviewer(c.Reviewer, model, logger, metrics)
	default:
		return nil, fmt.Errorf("judge type %q does not score single submissions", c.Type)
	}
}

// BuildBinaryReviewer constructs the pairwise comparator.
func (c JudgeConfig) BuildBinaryReviewer(model ports.LLMClient, logger logging.Logger, metrics *observability.SelectionMetrics) (*review.BinaryReviewer, error) {
	if c.Type != "binary" {
		return nil, fmt.Errorf("judge type %q does not compare submissions", c.Type)
	}
	return review.NewBinaryReviewer(c.Binary, model, logger, metrics)
}

func (c Config) Validate() error {
	if err := c.Model.Validate(); err != nil {
		return fmt.Errorf("model: %w", err)
	}
	if _, err := parser.FromConfig(c.Parser); err != nil {
		return fmt.Errorf("parser: %w", err)
	}
	if err := c.Sampler.Validate(); err != nil {
		return fmt.Errorf("sampler: %w", err)
	}
	if err := c.Judge.Validate(); err != nil {
		return fmt.Errorf("judge: %w", err)
	}
	if err := c.Retry.Validate(); err != nil {
		return fmt.Errorf("retry: %w", err)
	}
	return nil
}

// Load reads and validates a YAML config file. Unknown keys are rejected so
// typos surface at startup instead of silently disabling features.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var config Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}
