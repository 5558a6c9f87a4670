package complygate

import (
	"fmt"
	"os"
	"strings"

	"github.com/complygate/complygate/internal/override"
	"gopkg.in/yaml.v3"
)

// pickString resolves CLI > local config > global config precedence.
func pickString(flag string, local, global *string) string {
	if flag != "" {
		return flag
	}
	if local != nil {
		return *local
	}
	if global != nil {
		return *global
	}
	return ""
}

func pickInt(flag int, local, global *int) int {
	if flag != 0 {
		return flag
	}
	if local != nil {
		return *local
	}
	if global != nil {
		return *global
	}
	return 0
}

func pickInt64(flag int64, local, global *int64) int64 {
	if flag != 0 {
		return flag
	}
	if local != nil {
		return *local
	}
	if global != nil {
		return *global
	}
	return 0
}

func pickBool(flag bool, local, global *bool) bool {
	if flag {
		return true
	}
	if local != nil {
		return *local
	}
	if global != nil {
		return *global
	}
	return false
}

// parseOverrideFlag parses "RULE=WHO:WHY" into an Override.
func parseOverrideFlag(s string) (override.Override, error) {
	rule, rest, ok := strings.Cut(s, "=")
	if !ok || rule == "" {
		return override.Override{}, fmt.Errorf("invalid override %q: want RULE=WHO:WHY", s)
	}
	who, why, ok := strings.Cut(rest, ":")
	if !ok || who == "" || why == "" {
		return override.Override{}, fmt.Errorf("invalid override %q: want RULE=WHO:WHY", s)
	}
	return override.Override{RuleID: rule, RequestedBy: who, Justification: why}, nil
}

type overridesFile struct {
	Overrides []override.Override `yaml:"overrides"`
}

// loadOverridesFile reads a YAML list of overrides from disk.
func loadOverridesFile(path string) ([]override.Override, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read overrides file %s: %w", path, err)
	}
	var f overridesFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse overrides file %s: %w", path, err)
	}
	return f.Overrides, nil
}
