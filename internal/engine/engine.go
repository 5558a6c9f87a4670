// Package engine walks a source tree and evaluates a compliance rule set
// against it. Matching is read-only and stateless per file, so files are
// processed by a bounded worker pool; aggregation happens only after every
// worker has finished, and the final ordering is deterministic.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/complygate/complygate/internal/ignore"
	"github.com/complygate/complygate/internal/override"
	"github.com/complygate/complygate/internal/rules"
	"github.com/complygate/complygate/internal/types"
	"golang.org/x/sync/errgroup"
)

// IgnoreFileName is the per-tree ignore file consulted during the walk.
const IgnoreFileName = ".complygateignore"

// Config controls one scan invocation.
type Config struct {
	Root            string
	Threads         int   // worker pool size; 0 = GOMAXPROCS
	MaxBytes        int64 // skip files larger than this; 0 = no limit
	DefaultExcludes bool  // skip node_modules, vendor, binaries, etc.
}

// Result is the aggregated outcome of one scan.
type Result struct {
	Violations   []types.Violation   `json:"violations"`
	Suppressed   []types.Violation   `json:"suppressed,omitempty"`
	Applied      []override.Applied  `json:"applied_overrides,omitempty"`
	Warnings     []string            `json:"warnings,omitempty"`
	PassedRules  []string            `json:"passed_rules"`
	Observations []types.Observation `json:"observations"`
	FilesScanned int                 `json:"files_scanned"`
	Duration     time.Duration       `json:"-"`

	scoped map[string]int // rule id -> scoped file count
}

// GateFailed reports whether the scan alone fails the gate: at least one
// non-suppressed non-negotiable violation. Soft violations are reported but
// never block here; regression classification applies its own gating on top.
func (r *Result) GateFailed() bool {
	for _, v := range r.Violations {
		if v.Severity.Blocks() {
			return true
		}
	}
	return false
}

// fileEval is one worker's output for a single file.
type fileEval struct {
	path        string
	skipped     bool // binary content, excluded from every rule's scope
	readErr     error
	violations  []types.Violation
	requiredHit map[string][]bool // rule id -> per-required-pattern existence
	scoped      []string          // rule ids whose scope matched this file
}

// Scan evaluates the rule set against the tree at cfg.Root and applies the
// given overrides to the raw violations.
func Scan(ctx context.Context, cfg Config, ruleSet *rules.RuleSet, overrides []override.Override) (*Result, error) {
	started := time.Now()
	if cfg.Threads <= 0 {
		cfg.Threads = runtime.GOMAXPROCS(0)
	}

	ign, _ := ignore.Load(filepath.Join(cfg.Root, IgnoreFileName))
	files, err := collectFiles(cfg, ign)
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", cfg.Root, err)
	}

	evals := make([]fileEval, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Threads)
	for i, rel := range files {
		i, rel := i, rel
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			evals[i] = evalFile(cfg, ruleSet, rel)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := aggregate(ruleSet, evals)
	res.Suppressed, res.Violations, res.Applied, res.Warnings = resolveOverrides(res, overrides)
	res.Observations = observe(ruleSet, res)
	res.Duration = time.Since(started)
	return res, nil
}

var readFile = os.ReadFile // swapped in tests to simulate unreadable files

// evalFile reads one file and evaluates every in-scope rule against it.
func evalFile(cfg Config, ruleSet *rules.RuleSet, rel string) fileEval {
	ev := fileEval{path: rel, requiredHit: map[string][]bool{}}

	var inScope []rules.Rule
	for _, r := range ruleSet.Rules {
		if r.InScope(rel) {
			inScope = append(inScope, r)
		}
	}
	if len(inScope) == 0 {
		ev.skipped = true
		return ev
	}

	data, err := readFile(filepath.Join(cfg.Root, filepath.FromSlash(rel)))
	if err != nil {
		ev.readErr = err
		return ev
	}
	if looksBinary(data) {
		ev.skipped = true
		return ev
	}

	for _, r := range inScope {
		ev.scoped = append(ev.scoped, r.ID)
		for _, p := range r.Forbidden {
			for _, m := range p.FindAll(data) {
				ev.violations = append(ev.violations, types.Violation{
					RuleID:   r.ID,
					Severity: r.Severity,
					Path:     rel,
					Line:     m.Line,
					Message:  p.Message,
					Kind:     types.KindForbiddenPresent,
				})
			}
		}
		if len(r.Required) > 0 {
			hits := make([]bool, len(r.Required))
			for i, p := range r.Required {
				hits[i] = p.Exists(data)
			}
			ev.requiredHit[r.ID] = hits
			if r.RequiredMode == rules.RequiredEachFile {
				for i, hit := range hits {
					if !hit {
						ev.violations = append(ev.violations, types.Violation{
							RuleID:   r.ID,
							Severity: r.Severity,
							Path:     rel,
							Line:     0,
							Message:  r.Required[i].Message,
							Kind:     types.KindRequiredMissing,
						})
					}
				}
			}
		}
	}
	return ev
}

// aggregate joins per-file results into a single ordered Result. Set-level
// required-pattern misses are computed here, after the barrier, because they
// depend on the scoped file set as a whole.
func aggregate(ruleSet *rules.RuleSet, evals []fileEval) *Result {
	res := &Result{}
	scopedCount := map[string]int{}
	requiredAny := map[string][]bool{}

	for _, ev := range evals {
		if ev.readErr != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("unreadable file %s: %v", ev.path, ev.readErr))
			continue
		}
		if ev.skipped {
			continue
		}
		res.FilesScanned++
		res.Violations = append(res.Violations, ev.violations...)
		for _, id := range ev.scoped {
			scopedCount[id]++
		}
		for id, hits := range ev.requiredHit {
			acc := requiredAny[id]
			if acc == nil {
				acc = make([]bool, len(hits))
			}
			for i, h := range hits {
				if h {
					acc[i] = true
				}
			}
			requiredAny[id] = acc
		}
	}

	for _, r := range ruleSet.Rules {
		if scopedCount[r.ID] == 0 {
			// Never fired: not a violation, but for required-pattern rules the
			// scope may be stale, which deserves visibility.
			res.Warnings = append(res.Warnings, fmt.Sprintf("rule %s: scope %q matched no files", r.ID, r.Scope))
			continue
		}
		if r.RequiredMode != rules.RequiredAnywhere {
			continue
		}
		hits := requiredAny[r.ID]
		for i, p := range r.Required {
			if i < len(hits) && hits[i] {
				continue
			}
			// Exactly one violation per missing required pattern, regardless
			// of how many files are in scope.
			res.Violations = append(res.Violations, types.Violation{
				RuleID:   r.ID,
				Severity: r.Severity,
				Line:     0,
				Message:  p.Message,
				Kind:     types.KindRequiredMissing,
			})
		}
	}

	orderViolations(res.Violations)
	sort.Strings(res.Warnings)

	failed := map[string]bool{}
	for _, v := range res.Violations {
		failed[v.RuleID] = true
	}
	for _, r := range ruleSet.Rules {
		if scopedCount[r.ID] > 0 && !failed[r.ID] {
			res.PassedRules = append(res.PassedRules, r.ID)
		}
	}
	sort.Strings(res.PassedRules)
	res.scoped = scopedCount
	return res
}

func resolveOverrides(res *Result, overrides []override.Override) (sup, rem []types.Violation, applied []override.Applied, warnings []string) {
	sup, rem, applied, warns := override.Resolve(res.Violations, overrides)
	warnings = append(res.Warnings, warns...)
	sort.Strings(warnings)
	return sup, rem, applied, warnings
}

// observe derives the per-rule pass/fail observations fed to the regression
// classifier. Suppressed-only rules are excluded entirely.
func observe(ruleSet *rules.RuleSet, res *Result) []types.Observation {
	failing := map[string]bool{}
	for _, v := range res.Violations {
		failing[v.RuleID] = true
	}
	suppressedOnly := map[string]bool{}
	for _, v := range res.Suppressed {
		if !failing[v.RuleID] {
			suppressedOnly[v.RuleID] = true
		}
	}

	var out []types.Observation
	for _, r := range ruleSet.Rules {
		switch {
		case failing[r.ID]:
			out = append(out, types.Observation{TestID: r.ID, Status: types.StatusFail})
		case suppressedOnly[r.ID]:
			// overridden this run; no status recorded
		case res.scoped[r.ID] > 0:
			out = append(out, types.Observation{TestID: r.ID, Status: types.StatusPass})
		}
	}
	return out
}

// orderViolations sorts by (rule id, path, line, message) so identical inputs
// always produce byte-identical output.
func orderViolations(vs []types.Violation) {
	sort.Slice(vs, func(i, j int) bool {
		a, b := vs[i], vs[j]
		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Message < b.Message
	})
}
