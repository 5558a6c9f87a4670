// Package rules defines the compliance rule model and its YAML loader.
// Loading is a pure parse/validate step: duplicate ids, unknown severities,
// empty pattern lists and malformed regexes are all rejected before any file
// in the target tree is opened.
package rules

import (
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/complygate/complygate/internal/types"
	"gopkg.in/yaml.v3"
)

// RequiredMode controls how required patterns are enforced against a rule's
// scoped file set.
type RequiredMode string

const (
	// RequiredAnywhere passes if the pattern appears in at least one scoped
	// file. This is the default.
	RequiredAnywhere RequiredMode = "anywhere"
	// RequiredEachFile demands the pattern in every scoped file.
	RequiredEachFile RequiredMode = "each_file"
)

// Rule is one named, severity-tagged constraint over scoped source files.
type Rule struct {
	ID           string
	Severity     types.Severity
	Scope        string // doublestar glob over slash-separated relative paths
	Forbidden    []Pattern
	Required     []Pattern
	RequiredMode RequiredMode
}

// RuleSet is a validated collection of rules with unique ids, kept in id
// order so downstream output is deterministic.
type RuleSet struct {
	Rules []Rule
}

// ByID returns the rule with the given id, if present.
func (rs *RuleSet) ByID(id string) (Rule, bool) {
	for _, r := range rs.Rules {
		if r.ID == id {
			return r, true
		}
	}
	return Rule{}, false
}

// ValidationError reports a malformed rule set. It aborts the run before any
// scanning and maps to the configuration-error exit code.
type ValidationError struct {
	RuleID string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.RuleID == "" {
		return "invalid rule set: " + e.Reason
	}
	return fmt.Sprintf("invalid rule %s: %s", e.RuleID, e.Reason)
}

// On-disk YAML shapes.
type patternSpec struct {
	Pattern string `yaml:"pattern"`
	Message string `yaml:"message"`
}

type ruleSpec struct {
	ID           string        `yaml:"id"`
	Severity     string        `yaml:"severity"`
	Scope        string        `yaml:"scope"`
	Forbidden    []patternSpec `yaml:"forbidden_patterns"`
	Required     []patternSpec `yaml:"required_patterns"`
	RequiredMode string        `yaml:"required_mode"`
}

type ruleFile struct {
	Rules []ruleSpec `yaml:"rules"`
}

// LoadFile reads and validates a YAML rule set from disk.
func LoadFile(path string) (*RuleSet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("read %s: %v", path, err)}
	}
	return Load(b)
}

// Load parses and validates YAML rule definitions. All patterns are compiled
// eagerly so a malformed regex fails here, not mid-scan.
func Load(data []byte) (*RuleSet, error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("parse yaml: %v", err)}
	}
	if len(f.Rules) == 0 {
		return nil, &ValidationError{Reason: "no rules defined"}
	}

	seen := make(map[string]bool, len(f.Rules))
	out := make([]Rule, 0, len(f.Rules))
	for _, spec := range f.Rules {
		r, err := buildRule(spec)
		if err != nil {
			return nil, err
		}
		if seen[r.ID] {
			return nil, &ValidationError{RuleID: r.ID, Reason: "duplicate rule id"}
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return &RuleSet{Rules: out}, nil
}

func buildRule(spec ruleSpec) (Rule, error) {
	if spec.ID == "" {
		return Rule{}, &ValidationError{Reason: "rule with empty id"}
	}
	sev := types.Severity(spec.Severity)
	if !sev.Valid() {
		return Rule{}, &ValidationError{RuleID: spec.ID, Reason: fmt.Sprintf("unknown severity %q", spec.Severity)}
	}
	if len(spec.Forbidden)+len(spec.Required) == 0 {
		return Rule{}, &ValidationError{RuleID: spec.ID, Reason: "rule has no patterns"}
	}
	if spec.Scope == "" {
		return Rule{}, &ValidationError{RuleID: spec.ID, Reason: "rule has no scope"}
	}
	if !doublestar.ValidatePattern(spec.Scope) {
		return Rule{}, &ValidationError{RuleID: spec.ID, Reason: fmt.Sprintf("invalid scope glob %q", spec.Scope)}
	}
	mode := RequiredMode(spec.RequiredMode)
	switch mode {
	case "":
		mode = RequiredAnywhere
	case RequiredAnywhere, RequiredEachFile:
	default:
		return Rule{}, &ValidationError{RuleID: spec.ID, Reason: fmt.Sprintf("unknown required_mode %q", spec.RequiredMode)}
	}

	r := Rule{ID: spec.ID, Severity: sev, Scope: spec.Scope, RequiredMode: mode}
	for _, ps := range spec.Forbidden {
		p, err := compilePattern(ps.Pattern, ps.Message)
		if err != nil {
			return Rule{}, &ValidationError{RuleID: spec.ID, Reason: fmt.Sprintf("forbidden pattern %q: %v", ps.Pattern, err)}
		}
		r.Forbidden = append(r.Forbidden, p)
	}
	for _, ps := range spec.Required {
		p, err := compilePattern(ps.Pattern, ps.Message)
		if err != nil {
			return Rule{}, &ValidationError{RuleID: spec.ID, Reason: fmt.Sprintf("required pattern %q: %v", ps.Pattern, err)}
		}
		r.Required = append(r.Required, p)
	}
	return r, nil
}

// InScope reports whether the slash-separated relative path falls under the
// rule's scope glob.
func (r Rule) InScope(relPath string) bool {
	ok, err := doublestar.Match(r.Scope, relPath)
	return err == nil && ok
}
