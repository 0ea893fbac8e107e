package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"tribunal/internal/agent/ports"
	"tribunal/internal/llm"
	"tribunal/internal/tournament"
)

type stubParser struct{}

func (stubParser) ParseAction(completion ports.Completion) (string, string, error) {
	return "", completion.Content, nil
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
model:
  model: gpt-4o-mini
  temperature: 0.4
  cost_limit: 3.0
parser:
  type: code_block
sampler:
  type: tournament
  tournament:
    n_samples: 4
judge:
  type: reviewer
  reviewer:
    output_type: float
    system_template: "You are a judge."
    instance_template: "{{.traj}}"
    n_sample: 3
retry:
  cost_limit: 5.0
  max_n_consec_exit_cost: 3
  temperature_override: [0.0, 0.3]
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "gpt-4o-mini", cfg.Model.Model)
	require.Equal(t, 4, cfg.Sampler.Tournament.NSamples)
	require.Equal(t, 3, cfg.Judge.Reviewer.NSample)
	require.Equal(t, []float64{0.0, 0.3}, cfg.Retry.TemperatureOverride)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
model:
  model: mock
  temperture: 0.4
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsUnknownSamplerType(t *testing.T) {
	path := writeConfig(t, `
model:
  model: mock
sampler:
  type: dice_roll
`)
	_, err := Load(path)
	require.ErrorContains(t, err, "dice_roll")
}

func TestLoadRejectsMutuallyExclusiveReviewerPolicies(t *testing.T) {
	path := writeConfig(t, `
model:
  model: mock
judge:
  reviewer:
    failure_score_penalty: 0.5
`)
	_, err := Load(path)
	require.ErrorContains(t, err, "reject_exit_status")
}

func TestSamplerBuildDispatch(t *testing.T) {
	model := llm.NewMockClient()
	p := stubParser{}

	sampler, err := SamplerConfig{}.Build(model, p, nil, nil)
	require.NoError(t, err)
	require.IsType(t, &tournament.Tournament{}, sampler)

	sampler, err = SamplerConfig{Type: "colleagues"}.Build(model, p, nil, nil)
	require.NoError(t, err)
	require.IsType(t, &tournament.Colleagues{}, sampler)

	_, err = SamplerConfig{Type: "nope"}.Build(model, p, nil, nil)
	require.Error(t, err)
}

func TestJudgeBuildDispatch(t *testing.T) {
	model := llm.NewMockClient()
	cfg := JudgeConfig{}
	cfg.Reviewer.InstanceTemplate = "{{.traj}}"

	_, err := cfg.BuildReviewer(model, nil, nil)
	require.NoError(t, err)

	_, err = cfg.BuildBinaryReviewer(model, nil, nil)
	require.Error(t, err)

	binary := JudgeConfig{Type: "binary"}
	binary.Binary.InstanceTemplate = "{{.traj1}}{{.traj2}}"
	_, err = binary.BuildBinaryReviewer(model, nil, nil)
	require.NoError(t, err)
}
