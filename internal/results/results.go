// Package results reads and compares results.json files produced by
// evaluation runs.
package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Results is the per-run summary: which instances were submitted and which
// of those were resolved.
type Results struct {
	SubmittedIDs []string `json:"submitted_ids"`
	ResolvedIDs  []string `json:"resolved_ids"`
}

// Load reads a results.json file. A directory path is resolved to the
// results.json inside it. Older runs wrote the resolved list under
// "resolved"; both spellings are accepted.
func Load(path string) (Results, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, "results.json")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Results{}, fmt.Errorf("read results: %w", err)
	}
	var raw struct {
		SubmittedIDs []string `json:"submitted_ids"`
		ResolvedIDs  []string `json:"resolved_ids"`
		Resolved     []string `json:"resolved"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Results{}, fmt.Errorf("parse results %s: %w", path, err)
	}
	resolved := raw.ResolvedIDs
	if resolved == nil {
		resolved = raw.Resolved
	}
	return Results{SubmittedIDs: raw.SubmittedIDs, ResolvedIDs: resolved}, nil
}

// Resolved reports whether the instance was resolved in this run.
func (r Results) Resolved(id string) bool {
	for _, resolved := range r.ResolvedIDs {
		if resolved == id {
			return true
		}
	}
	return false
}

// Submitted reports whether the instance was evaluated in this run.
func (r Results) Submitted(id string) bool {
	for _, submitted := range r.SubmittedIDs {
		if submitted == id {
			return true
		}
	}
	return false
}

// Outcome classifies one instance across two runs.
type Outcome int

const (
	// OutcomeNotInOld means the instance was not evaluated in the old run.
	OutcomeNotInOld Outcome = iota
	// OutcomeImproved means newly resolved in the new run.
	OutcomeImproved
	// OutcomeStillResolved means resolved in both runs.
	OutcomeStillResolved
	// OutcomeRegressed means resolved in the old run only.
	OutcomeRegressed
	// OutcomeStillUnresolved means resolved in neither run.
	OutcomeStillUnresolved
)

// Diff is the comparison of one instance between two runs.
type Diff struct {
	InstanceID string
	Outcome    Outcome
}

// Compare classifies every instance submitted in the new run against the
// old run, sorted by instance ID.
func Compare(newRun, oldRun Results) []Diff {
	diffs := make([]Diff, 0, len(newRun.SubmittedIDs))
	for _, id := range newRun.SubmittedIDs {
		diffs = append(diffs, Diff{InstanceID: id, Outcome: classify(id, newRun, oldRun)})
	}
	sort.Slice(diffs, func(i, j int) bool { return diffs[i].InstanceID < diffs[j].InstanceID })
	return diffs
}

func classify(id string, newRun, oldRun Results) Outcome {
	resolvedNow := newRun.Resolved(id)
	resolvedBefore := oldRun.Resolved(id)
	switch {
	case !oldRun.Submitted(id):
		return OutcomeNotInOld
	case resolvedNow && !resolvedBefore:
		return OutcomeImproved
	case resolvedNow && resolvedBefore:
		return OutcomeStillResolved
	case !resolvedNow && resolvedBefore:
		return OutcomeRegressed
	default:
		return OutcomeStillUnresolved
	}
}
