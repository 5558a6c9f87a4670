package types

// Severity is the gating tier of a rule. The set is closed: non-negotiable
// violations block the gate, soft violations are advisory.
type Severity string

const (
	SevNonNegotiable Severity = "non_negotiable"
	SevSoft          Severity = "soft"
)

// Valid reports whether s is one of the recognized tiers.
func (s Severity) Valid() bool {
	return s == SevNonNegotiable || s == SevSoft
}

// Blocks reports whether a violation at this tier fails the gate on its own.
func (s Severity) Blocks() bool { return s == SevNonNegotiable }

// ViolationKind distinguishes a forbidden pattern that matched from a
// required pattern that never did.
type ViolationKind string

const (
	KindForbiddenPresent ViolationKind = "forbidden_present"
	KindRequiredMissing  ViolationKind = "required_missing"
)

// Violation is one rule failure at a location. Line is 1-based; it is 0 when
// the violation is file- or set-scoped rather than tied to a line. Path is
// empty for set-level required-pattern misses.
type Violation struct {
	RuleID   string        `json:"rule_id"`
	Severity Severity      `json:"severity"`
	Path     string        `json:"path,omitempty"`
	Line     int           `json:"line"`
	Message  string        `json:"message"`
	Kind     ViolationKind `json:"kind"`
}

// Status is the observed outcome of a rule in one run.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
)

// Observation pairs a test/rule id with its observed status for one run.
// Rules whose violations were all suppressed by an override produce no
// observation: they neither passed nor failed.
type Observation struct {
	TestID string `json:"test_id"`
	Status Status `json:"status"`
}

// Class labels an observation relative to the baseline.
type Class string

const (
	ClassPass         Class = "pass"
	ClassNewFailure   Class = "new_failure"
	ClassRegression   Class = "regression"
	ClassKnownFailure Class = "known_failure"
	ClassFixed        Class = "fixed"
)

// FailsGate reports whether this classification alone fails the run,
// independent of severity tier.
func (c Class) FailsGate() bool {
	return c == ClassNewFailure || c == ClassRegression
}

// Exit codes for the CLI: 0 clean gate, 1 gate failure, 2 configuration or
// store error. Callers can tell "the gate caught something" from "the gate
// itself is broken".
const (
	ExitPass        = 0
	ExitGateFailure = 1
	ExitConfigError = 2
)
