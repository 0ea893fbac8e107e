package review

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tribunal/internal/agent/ports"
)

func step(action, observation string) ports.Step {
	return ports.Step{Action: action, Observation: observation, Response: "ran " + action}
}

func TestFormatterDefaultTemplate(t *testing.T) {
	f, err := NewTrajectoryFormatter(FormatterConfig{})
	require.NoError(t, err)

	text, err := f.Format(ports.Trajectory{step("ls", "main.go")}, 1)
	require.NoError(t, err)
	require.Equal(t, "Model: ran ls\n\nObservation: main.go", text)
}

func TestFormatterFiltersSteps(t *testing.T) {
	f, err := NewTrajectoryFormatter(FormatterConfig{
		Filter:       []string{"scroll"},
		ItemTemplate: "{{.i_step}}: {{.action}} -> {{.observation}}",
	})
	require.NoError(t, err)

	text, err := f.Format(ports.Trajectory{
		step("ls", "a"),
		step("scroll_down", "b"),
		step("  scroll_up", "c"),
		step("cat x", "d"),
	}, 1)
	require.NoError(t, err)
	// Filtered steps disappear and the remaining ones are renumbered.
	require.Equal(t, "0: ls -> a\n\n1: cat x -> d", text)
}

func TestFormatterOutputFilter(t *testing.T) {
	f, err := NewTrajectoryFormatter(FormatterConfig{
		OutputFilter: []string{"cat"},
		ItemTemplate: "{{.action}}: {{.observation}}",
	})
	require.NoError(t, err)

	text, err := f.Format(ports.Trajectory{
		step("cat big_file", "thousands of lines"),
		step("ls", "short"),
	}, 1)
	require.NoError(t, err)
	require.Equal(t, "cat big_file: "+OmittedOutputPlaceholder+"\n\nls: short", text)
}

func TestFormatterOnlyShowLastNOutput(t *testing.T) {
	f, err := NewTrajectoryFormatter(FormatterConfig{
		OnlyShowLastNOutput: 1,
		ItemTemplate:        "{{.observation}}",
	})
	require.NoError(t, err)

	text, err := f.Format(ports.Trajectory{
		step("a", "one"),
		step("b", "two"),
		step("c", "three"),
	}, 1)
	require.NoError(t, err)
	require.Equal(t, OmittedOutputPlaceholder+"\n\n"+OmittedOutputPlaceholder+"\n\nthree", text)
}

func TestFormatterLastNWindowCountsFilteredSteps(t *testing.T) {
	f, err := NewTrajectoryFormatter(FormatterConfig{
		Filter:              []string{"noise"},
		OnlyShowLastNOutput: 2,
		ItemTemplate:        "{{.observation}}",
	})
	require.NoError(t, err)

	// The last-N window applies after filtering, so both kept steps show.
	text, err := f.Format(ports.Trajectory{
		step("noise", "x"),
		step("a", "one"),
		step("noise", "y"),
		step("b", "two"),
	}, 1)
	require.NoError(t, err)
	require.Equal(t, "one\n\ntwo", text)
}

func TestFormatterTrajectoryIndex(t *testing.T) {
	f, err := NewTrajectoryFormatter(FormatterConfig{
		ItemTemplate: "t{{.i_traj}}s{{.i_step}}",
	})
	require.NoError(t, err)

	text, err := f.Format(ports.Trajectory{step("a", ""), step("b", "")}, 2)
	require.NoError(t, err)
	require.Equal(t, "t2s0\n\nt2s1", text)
}

func TestFormatterRejectsBadTemplate(t *testing.T) {
	_, err := NewTrajectoryFormatter(FormatterConfig{ItemTemplate: "{{.action"})
	require.Error(t, err)
}

func TestFormatterEmptyTrajectory(t *testing.T) {
	f, err := NewTrajectoryFormatter(FormatterConfig{})
	require.NoError(t, err)

	text, err := f.Format(nil, 1)
	require.NoError(t, err)
	require.Equal(t, "", text)
}
