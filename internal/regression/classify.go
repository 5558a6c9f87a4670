// Package regression diffs the current run's observations against the
// baseline store and labels each one. A failure that was green before, or was
// never seen, fails the gate regardless of severity; a failure that is both
// known and explicitly deferred is reported without blocking.
package regression

import (
	"fmt"
	"sort"
	"time"

	"github.com/complygate/complygate/internal/baseline"
	"github.com/complygate/complygate/internal/types"
)

// Classified is one observation with its label relative to the baseline.
type Classified struct {
	TestID      string       `json:"test_id"`
	Status      types.Status `json:"status"`
	Class       types.Class  `json:"class"`
	TrackingRef string       `json:"tracking_ref,omitempty"` // set for known failures
}

// Result is the classified view of one run.
type Result struct {
	Observations []Classified `json:"observations"`
	Warnings     []string     `json:"warnings,omitempty"`
}

// GateFailed reports whether classification fails the gate: any new failure
// or regression, including persistent failures nobody bothered to defer.
func (r *Result) GateFailed() bool {
	for _, o := range r.Observations {
		if o.Class.FailsGate() {
			return true
		}
	}
	return false
}

// Counts returns how many observations carry each label.
func (r *Result) Counts() map[types.Class]int {
	out := map[types.Class]int{}
	for _, o := range r.Observations {
		out[o.Class]++
	}
	return out
}

// Classify labels every observation against the store and updates the
// store's in-memory entries for the run. The caller flushes the store
// afterwards so the whole run's update lands atomically, or not at all.
func Classify(obs []types.Observation, store *baseline.Store, defers []DeferEntry, runRef string) *Result {
	deferByID := make(map[string]DeferEntry, len(defers))
	for _, d := range defers {
		deferByID[d.ID] = d
	}

	res := &Result{}
	now := time.Now().UTC()
	seen := map[string]bool{}

	sorted := make([]types.Observation, len(obs))
	copy(sorted, obs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TestID < sorted[j].TestID })

	for _, o := range sorted {
		seen[o.TestID] = true
		prev, existed := store.Get(o.TestID)
		c := Classified{TestID: o.TestID, Status: o.Status}

		switch {
		case o.Status == types.StatusPass && existed && prev.Status == types.StatusFail:
			c.Class = types.ClassFixed
		case o.Status == types.StatusPass:
			c.Class = types.ClassPass
		case !existed:
			c.Class = types.ClassNewFailure
		case prev.Status == types.StatusPass:
			c.Class = types.ClassRegression
		default: // failed before, failing still
			if d, ok := deferByID[o.TestID]; ok {
				c.Class = types.ClassKnownFailure
				c.TrackingRef = d.TrackingRef
			} else {
				// Deferral must be explicit. An undeferred persistent failure
				// gates exactly like a new one.
				c.Class = types.ClassNewFailure
				res.Warnings = append(res.Warnings, fmt.Sprintf("persistent failure %s has no defer entry", o.TestID))
			}
		}

		res.Observations = append(res.Observations, c)
		store.Put(o.TestID, baseline.Entry{Status: o.Status, UpdatedAt: now, RunRef: runRef})
	}

	for _, d := range defers {
		if !seen[d.ID] {
			res.Warnings = append(res.Warnings, fmt.Sprintf("defer entry %s matches no known test id", d.ID))
		}
	}
	sort.Strings(res.Warnings)
	return res
}
