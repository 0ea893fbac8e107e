package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestSelectionMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSelectionMetricsWithRegisterer(reg)

	m.Comparison()
	m.Comparison()
	m.JudgeSample()
	m.JudgeParseFailure()
	m.DeskRejection()
	m.Attempt(0.25, 0.9)

	require.Equal(t, 2.0, testutil.ToFloat64(m.comparisons))
	require.Equal(t, 1.0, testutil.ToFloat64(m.judgeSamples))
	require.Equal(t, 1.0, testutil.ToFloat64(m.judgeParseFailure))
	require.Equal(t, 1.0, testutil.ToFloat64(m.deskRejections))
	require.Equal(t, 1.0, testutil.ToFloat64(m.attempts))
}

func TestSelectionMetricsNilSafe(t *testing.T) {
	var m *SelectionMetrics
	m.Comparison()
	m.JudgeSample()
	m.JudgeParseFailure()
	m.DeskRejection()
	m.Attempt(1, 1)
}
