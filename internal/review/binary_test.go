package review

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"tribunal/internal/agent/ports"
)

func binarySubmission(action, status string) Submission {
	return Submission{
		Trajectory: ports.Trajectory{{Action: action, Observation: "ok"}},
		Info:       map[string]any{"exit_status": status},
	}
}

func TestBinaryReviewerPicksSecond(t *testing.T) {
	client := &scriptedClient{responses: []string{"the second run is cleaner\nsecond 80"}}
	r, err := NewBinaryReviewer(BinaryReviewerConfig{
		SystemTemplate:   "You compare two attempts.",
		InstanceTemplate: "Task: {{.problem_statement}}\n\nA:\n{{.traj1}}\n\nB:\n{{.traj2}}",
	}, client, nil, nil)
	require.NoError(t, err)

	res, err := r.Compare(context.Background(), testStatement(),
		binarySubmission("edit a.go", ExitStatusSubmitted),
		binarySubmission("edit b.go", ExitStatusSubmitted))
	require.NoError(t, err)
	require.Equal(t, 1, res.Choice)
	require.InDelta(t, 0.8, res.Confidence, 1e-9)
	require.Contains(t, res.Output, "second")
}

func TestBinaryReviewerDefaultsToFirstOnAmbiguity(t *testing.T) {
	client := &scriptedClient{responses: []string{"both look equally fine"}}
	r, err := NewBinaryReviewer(BinaryReviewerConfig{
		InstanceTemplate: "{{.traj1}}\n{{.traj2}}",
	}, client, nil, nil)
	require.NoError(t, err)

	res, err := r.Compare(context.Background(), testStatement(),
		binarySubmission("a", ExitStatusSubmitted),
		binarySubmission("b", ExitStatusSubmitted))
	require.NoError(t, err)
	require.Equal(t, 0, res.Choice)
	require.Zero(t, res.Confidence)
}

func TestBinaryReviewerRendersBothSides(t *testing.T) {
	client := &scriptedClient{responses: []string{"first"}}
	r, err := NewBinaryReviewer(BinaryReviewerConfig{
		InstanceTemplate: "s1={{.exit_status_1}} s2={{.exit_status_2}}\n{{.traj1}}\n---\n{{.traj2}}",
	}, client, nil, nil)
	require.NoError(t, err)

	res, err := r.Compare(context.Background(), testStatement(),
		binarySubmission("edit a.go", ExitStatusSubmitted),
		binarySubmission("edit b.go", "exit_cost"))
	require.NoError(t, err)
	user := res.Messages[1].Content
	require.Contains(t, user, "s1=submitted s2=exit_cost")
	require.Contains(t, user, "edit a.go")
	require.Contains(t, user, "edit b.go")
}

func TestBinaryReviewerPropagatesQueryError(t *testing.T) {
	client := &scriptedClient{err: context.DeadlineExceeded}
	r, err := NewBinaryReviewer(BinaryReviewerConfig{
		InstanceTemplate: "{{.traj1}}{{.traj2}}",
	}, client, nil, nil)
	require.NoError(t, err)

	_, err = r.Compare(context.Background(), testStatement(),
		binarySubmission("a", ExitStatusSubmitted),
		binarySubmission("b", ExitStatusSubmitted))
	require.Error(t, err)
}
