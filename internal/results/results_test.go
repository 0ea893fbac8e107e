package results

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeResults(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "results.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadResults(t *testing.T) {
	path := writeResults(t, t.TempDir(), `{
		"submitted_ids": ["a", "b", "c"],
		"resolved_ids": ["a"]
	}`)

	r, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, r.SubmittedIDs)
	require.True(t, r.Resolved("a"))
	require.False(t, r.Resolved("b"))
}

func TestLoadResultsLegacyResolvedKey(t *testing.T) {
	path := writeResults(t, t.TempDir(), `{
		"submitted_ids": ["a"],
		"resolved": ["a"]
	}`)

	r, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, r.ResolvedIDs)
}

func TestLoadResultsFromDirectory(t *testing.T) {
	dir := t.TempDir()
	writeResults(t, dir, `{"submitted_ids": [], "resolved_ids": []}`)

	_, err := Load(dir)
	require.NoError(t, err)
}

func TestCompare(t *testing.T) {
	newRun := Results{
		SubmittedIDs: []string{"improved", "regressed", "same_good", "same_bad", "fresh"},
		ResolvedIDs:  []string{"improved", "same_good"},
	}
	oldRun := Results{
		SubmittedIDs: []string{"improved", "regressed", "same_good", "same_bad"},
		ResolvedIDs:  []string{"regressed", "same_good"},
	}

	diffs := Compare(newRun, oldRun)
	outcomes := map[string]Outcome{}
	for _, d := range diffs {
		outcomes[d.InstanceID] = d.Outcome
	}
	require.Equal(t, OutcomeImproved, outcomes["improved"])
	require.Equal(t, OutcomeRegressed, outcomes["regressed"])
	require.Equal(t, OutcomeStillResolved, outcomes["same_good"])
	require.Equal(t, OutcomeStillUnresolved, outcomes["same_bad"])
	require.Equal(t, OutcomeNotInOld, outcomes["fresh"])

	// Deterministic ordering by instance ID.
	require.Equal(t, "fresh", diffs[0].InstanceID)
}
