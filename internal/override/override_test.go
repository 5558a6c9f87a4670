package override

import (
	"strings"
	"testing"

	"github.com/complygate/complygate/internal/types"
)

func vio(rule, path string, line int) types.Violation {
	return types.Violation{
		RuleID:   rule,
		Severity: types.SevNonNegotiable,
		Path:     path,
		Line:     line,
		Kind:     types.KindForbiddenPresent,
	}
}

func TestResolve_AppliedMovesAllRuleViolations(t *testing.T) {
	vs := []types.Violation{
		vio("AUTH-001", "a.go", 3),
		vio("AUTH-001", "b.go", 9),
		vio("SEC-002", "a.go", 1),
	}
	sup, rem, applied, warns := Resolve(vs, []Override{
		{RuleID: "AUTH-001", RequestedBy: "lead", Justification: "migration window, tracked in COMP-17"},
	})
	if len(sup) != 2 || len(rem) != 1 {
		t.Fatalf("suppressed=%d remaining=%d", len(sup), len(rem))
	}
	if rem[0].RuleID != "SEC-002" {
		t.Fatalf("unexpected remaining rule %s", rem[0].RuleID)
	}
	if len(applied) != 1 || applied[0].Suppressed != 2 || applied[0].RequestedBy != "lead" {
		t.Fatalf("unexpected applied record: %+v", applied)
	}
	if len(warns) != 0 {
		t.Fatalf("unexpected warnings: %v", warns)
	}
}

func TestResolve_UnusedOverrideWarns(t *testing.T) {
	vs := []types.Violation{vio("SEC-002", "a.go", 1)}
	sup, rem, applied, warns := Resolve(vs, []Override{
		{RuleID: "AUTH-001", RequestedBy: "lead", Justification: "stale"},
	})
	if len(sup) != 0 || len(rem) != 1 || len(applied) != 0 {
		t.Fatalf("no-op expected: sup=%d rem=%d applied=%d", len(sup), len(rem), len(applied))
	}
	if len(warns) != 1 || !strings.Contains(warns[0], "unused override") {
		t.Fatalf("expected unused override warning, got %v", warns)
	}
}

func TestResolve_EmptyJustificationRejected(t *testing.T) {
	vs := []types.Violation{vio("AUTH-001", "a.go", 1)}
	_, rem, applied, warns := Resolve(vs, []Override{{RuleID: "AUTH-001", RequestedBy: "dev"}})
	if len(applied) != 0 || len(rem) != 1 {
		t.Fatalf("override without justification must not apply")
	}
	if len(warns) != 1 || !strings.Contains(warns[0], "justification") {
		t.Fatalf("expected justification warning, got %v", warns)
	}
}

func TestResolve_DuplicateOverrideWarns(t *testing.T) {
	vs := []types.Violation{vio("AUTH-001", "a.go", 1)}
	_, _, applied, warns := Resolve(vs, []Override{
		{RuleID: "AUTH-001", RequestedBy: "a", Justification: "first"},
		{RuleID: "AUTH-001", RequestedBy: "b", Justification: "second"},
	})
	if len(applied) != 1 {
		t.Fatalf("expected one applied record, got %d", len(applied))
	}
	if len(warns) != 1 || !strings.Contains(warns[0], "duplicate") {
		t.Fatalf("expected duplicate warning, got %v", warns)
	}
}
