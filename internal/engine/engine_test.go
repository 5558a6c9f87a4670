package engine

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/complygate/complygate/internal/override"
	"github.com/complygate/complygate/internal/rules"
	"github.com/complygate/complygate/internal/types"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, body := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func mustLoad(t *testing.T, y string) *rules.RuleSet {
	t.Helper()
	rs, err := rules.Load([]byte(y))
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	return rs
}

const gateRules = `
rules:
  - id: AUTH-001
    severity: non_negotiable
    scope: "src/**/*.go"
    forbidden_patterns:
      - pattern: 'password\s*=\s*"'
        message: hardcoded password
  - id: LOG-002
    severity: soft
    scope: "src/**/*.go"
    required_patterns:
      - pattern: 'audit\.Log'
        message: audit logging required
`

func TestScan_ForbiddenReportsEveryOccurrence(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/a.go": `password = "x"` + "\nok\n" + `password = "y"` + "\naudit.Log(ev)\n",
		"src/b.go": "clean\naudit.Log(ev)\n",
	})
	res, err := Scan(context.Background(), Config{Root: root}, mustLoad(t, gateRules), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Violations) != 2 {
		t.Fatalf("expected 2 violations, got %d: %+v", len(res.Violations), res.Violations)
	}
	for _, v := range res.Violations {
		if v.RuleID != "AUTH-001" || v.Kind != types.KindForbiddenPresent {
			t.Fatalf("unexpected violation %+v", v)
		}
	}
	if res.Violations[0].Line != 1 || res.Violations[1].Line != 3 {
		t.Fatalf("unexpected lines %d, %d", res.Violations[0].Line, res.Violations[1].Line)
	}
	if !res.GateFailed() {
		t.Fatal("non-negotiable violation must fail the gate")
	}
	// LOG-002 satisfied somewhere in scope
	if len(res.PassedRules) != 1 || res.PassedRules[0] != "LOG-002" {
		t.Fatalf("unexpected passed rules %v", res.PassedRules)
	}
}

func TestScan_RequiredSetLevelSingleViolation(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/a.go": "nothing here\n",
		"src/b.go": "still nothing\n",
		"src/c.go": "more nothing\n",
	})
	res, err := Scan(context.Background(), Config{Root: root}, mustLoad(t, gateRules), nil)
	if err != nil {
		t.Fatal(err)
	}
	var required []types.Violation
	for _, v := range res.Violations {
		if v.Kind == types.KindRequiredMissing {
			required = append(required, v)
		}
	}
	if len(required) != 1 {
		t.Fatalf("expected exactly 1 required-missing violation, got %d", len(required))
	}
	if required[0].Path != "" || required[0].Line != 0 {
		t.Fatalf("set-level miss should have no location: %+v", required[0])
	}
	if res.GateFailed() {
		t.Fatal("soft violation must not fail the scan-level gate")
	}
}

func TestScan_RequiredEachFile(t *testing.T) {
	y := `
rules:
  - id: HDR-001
    severity: soft
    scope: "**/*.go"
    required_mode: each_file
    required_patterns:
      - pattern: 'Copyright'
        message: missing header
`
	root := writeTree(t, map[string]string{
		"a.go": "// Copyright\npackage a\n",
		"b.go": "package b\n",
		"c.go": "package c\n",
	})
	res, err := Scan(context.Background(), Config{Root: root}, mustLoad(t, y), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Violations) != 2 {
		t.Fatalf("expected per-file misses for b.go and c.go, got %+v", res.Violations)
	}
	if res.Violations[0].Path != "b.go" || res.Violations[1].Path != "c.go" {
		t.Fatalf("unexpected paths: %+v", res.Violations)
	}
}

func TestScan_EmptyScopeWarnsNotViolates(t *testing.T) {
	y := `
rules:
  - id: PY-001
    severity: non_negotiable
    scope: "**/*.py"
    required_patterns:
      - pattern: 'import logging'
        message: logging required
`
	root := writeTree(t, map[string]string{"main.go": "package main\n"})
	res, err := Scan(context.Background(), Config{Root: root}, mustLoad(t, y), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Violations) != 0 {
		t.Fatalf("zero scoped files must not violate: %+v", res.Violations)
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "PY-001") && strings.Contains(w, "matched no files") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected stale-scope warning, got %v", res.Warnings)
	}
	// not fired is different from fired-and-passed
	if len(res.PassedRules) != 0 {
		t.Fatalf("rule that never fired must not be in passed rules: %v", res.PassedRules)
	}
	if len(res.Observations) != 0 {
		t.Fatalf("rule that never fired must produce no observation: %v", res.Observations)
	}
}

func TestScan_Deterministic(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/z.go": `password = "1"` + "\n",
		"src/a.go": `password = "2"` + "\n" + `password = "3"` + "\n",
		"src/m.go": "audit.Log\n",
	})
	rs := mustLoad(t, gateRules)
	first, err := Scan(context.Background(), Config{Root: root, Threads: 8}, rs, nil)
	if err != nil {
		t.Fatal(err)
	}
	a, _ := json.Marshal(first)
	for i := 0; i < 5; i++ {
		res, err := Scan(context.Background(), Config{Root: root, Threads: 8}, rs, nil)
		if err != nil {
			t.Fatal(err)
		}
		b, _ := json.Marshal(res)
		if string(a) != string(b) {
			t.Fatalf("run %d differs:\n%s\n%s", i, a, b)
		}
	}
}

func TestScan_OverrideSuppressesButAudits(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/a.go": `password = "x"` + "\naudit.Log\n",
	})
	res, err := Scan(context.Background(), Config{Root: root}, mustLoad(t, gateRules), []override.Override{
		{RuleID: "AUTH-001", RequestedBy: "lead", Justification: "legacy fixture, tracked COMP-9"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Violations) != 0 || len(res.Suppressed) != 1 {
		t.Fatalf("violations=%d suppressed=%d", len(res.Violations), len(res.Suppressed))
	}
	if res.GateFailed() {
		t.Fatal("suppressed violation must not fail the gate")
	}
	if len(res.Applied) != 1 || res.Applied[0].RuleID != "AUTH-001" {
		t.Fatalf("expected audit record, got %+v", res.Applied)
	}
	// overridden rule still isn't a pass
	for _, id := range res.PassedRules {
		if id == "AUTH-001" {
			t.Fatal("overridden rule must not count as passed")
		}
	}
	for _, o := range res.Observations {
		if o.TestID == "AUTH-001" {
			t.Fatalf("suppressed rule must not be observed, got %+v", o)
		}
	}
}

func TestScan_UnreadableFileWarnsAndContinues(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/a.go": `password = "x"` + "\naudit.Log\n",
		"src/b.go": "audit.Log\n",
	})
	orig := readFile
	readFile = func(p string) ([]byte, error) {
		if strings.HasSuffix(p, "b.go") {
			return nil, errors.New("permission denied")
		}
		return orig(p)
	}
	defer func() { readFile = orig }()

	res, err := Scan(context.Background(), Config{Root: root}, mustLoad(t, gateRules), nil)
	if err != nil {
		t.Fatalf("per-file read errors must not abort the scan: %v", err)
	}
	if len(res.Violations) != 1 {
		t.Fatalf("expected violation from the readable file, got %+v", res.Violations)
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "unreadable file") && strings.Contains(w, "b.go") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected unreadable-file warning, got %v", res.Warnings)
	}
}

func TestScan_ObservationsPassAndFail(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/a.go": `password = "x"` + "\naudit.Log\n",
	})
	res, err := Scan(context.Background(), Config{Root: root}, mustLoad(t, gateRules), nil)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]types.Status{"AUTH-001": types.StatusFail, "LOG-002": types.StatusPass}
	if len(res.Observations) != len(want) {
		t.Fatalf("observations: %+v", res.Observations)
	}
	for _, o := range res.Observations {
		if want[o.TestID] != o.Status {
			t.Fatalf("observation %s=%s, want %s", o.TestID, o.Status, want[o.TestID])
		}
	}
}
