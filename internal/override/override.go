// Package override applies explicit, justified suppressions to scan
// violations. An override never mutates the rule set; it moves one rule's
// violations out of the gate-fail computation for exactly one run, and every
// application is recorded for the audit trail.
package override

import (
	"fmt"
	"time"

	"github.com/complygate/complygate/internal/types"
)

// Override is a request to suppress one rule's violations for this run.
type Override struct {
	RuleID        string `yaml:"rule_id" json:"rule_id"`
	RequestedBy   string `yaml:"requested_by" json:"requested_by"`
	Justification string `yaml:"justification" json:"justification"`
}

// Applied is the audit record of an override that actually took effect.
type Applied struct {
	RuleID        string    `json:"rule_id"`
	RequestedBy   string    `json:"requested_by"`
	Justification string    `json:"justification"`
	Timestamp     time.Time `json:"timestamp"`
	Suppressed    int       `json:"suppressed"`
}

// Resolve splits violations into suppressed and remaining. An override is
// accepted only if it names a rule id with active violations and carries a
// non-empty justification; anything else is a no-op surfaced as a warning so
// stale overrides cannot silently mask unrelated violations.
func Resolve(violations []types.Violation, overrides []Override) (suppressed, remaining []types.Violation, applied []Applied, warnings []string) {
	active := make(map[string]int, len(violations))
	for _, v := range violations {
		active[v.RuleID]++
	}

	accepted := make(map[string]bool, len(overrides))
	for _, o := range overrides {
		switch {
		case o.Justification == "":
			warnings = append(warnings, fmt.Sprintf("unused override for %s: missing justification", o.RuleID))
		case active[o.RuleID] == 0:
			warnings = append(warnings, fmt.Sprintf("unused override for %s: no active violations", o.RuleID))
		case accepted[o.RuleID]:
			warnings = append(warnings, fmt.Sprintf("unused override for %s: duplicate", o.RuleID))
		default:
			accepted[o.RuleID] = true
			applied = append(applied, Applied{
				RuleID:        o.RuleID,
				RequestedBy:   o.RequestedBy,
				Justification: o.Justification,
				Timestamp:     time.Now().UTC(),
				Suppressed:    active[o.RuleID],
			})
		}
	}

	for _, v := range violations {
		if accepted[v.RuleID] {
			suppressed = append(suppressed, v)
		} else {
			remaining = append(remaining, v)
		}
	}
	return suppressed, remaining, applied, warnings
}
