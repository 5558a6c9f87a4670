// Package report renders scan and classification results for console
// consumption. The structured objects themselves are the contract; these
// renderers are conveniences layered on top.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/complygate/complygate/internal/engine"
	"github.com/complygate/complygate/internal/regression"
	"github.com/complygate/complygate/internal/types"
	"github.com/olekukonko/tablewriter"
)

// PrintOptions controls console rendering.
type PrintOptions struct {
	NoColor      bool
	Duration     time.Duration
	FilesScanned int
}

// WriteJSON emits the combined result object, indented.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintText writes a plain columnar rendering of violations, classification
// and warnings.
func PrintText(w io.Writer, scan *engine.Result, cls *regression.Result, opts PrintOptions) {
	if len(scan.Violations) == 0 {
		fmt.Fprintln(w, "No violations.")
	}
	for _, v := range scan.Violations {
		fmt.Fprintf(w, "%-15s %-7s %s  %s\n", v.RuleID, severityLabel(v.Severity, opts.NoColor), location(v), v.Message)
	}
	for _, v := range scan.Suppressed {
		fmt.Fprintf(w, "%-15s %-7s %s  %s (suppressed)\n", v.RuleID, severityLabel(v.Severity, opts.NoColor), location(v), v.Message)
	}
	if cls != nil {
		for _, o := range cls.Observations {
			if o.Class == types.ClassPass {
				continue
			}
			line := fmt.Sprintf("%-15s %s", o.TestID, o.Class)
			if o.TrackingRef != "" {
				line += "  (" + o.TrackingRef + ")"
			}
			fmt.Fprintln(w, line)
		}
	}
	printWarnings(w, scan, cls)
	printSummary(w, scan, cls, opts)
}

// PrintTable writes a bordered table of violations followed by the
// classification summary.
func PrintTable(w io.Writer, scan *engine.Result, cls *regression.Result, opts PrintOptions) {
	if len(scan.Violations)+len(scan.Suppressed) > 0 {
		tbl := tablewriter.NewWriter(w)
		tbl.Header("Rule", "Severity", "Location", "Kind", "Message")
		for _, v := range scan.Violations {
			_ = tbl.Append(v.RuleID, string(v.Severity), location(v), string(v.Kind), v.Message)
		}
		for _, v := range scan.Suppressed {
			_ = tbl.Append(v.RuleID, string(v.Severity), location(v), string(v.Kind), v.Message+" [suppressed]")
		}
		_ = tbl.Render()
	} else {
		fmt.Fprintln(w, "No violations.")
	}

	if cls != nil && len(cls.Observations) > 0 {
		tbl := tablewriter.NewWriter(w)
		tbl.Header("Test", "Status", "Class", "Tracking")
		for _, o := range cls.Observations {
			_ = tbl.Append(o.TestID, string(o.Status), string(o.Class), o.TrackingRef)
		}
		_ = tbl.Render()
	}

	printWarnings(w, scan, cls)
	printSummary(w, scan, cls, opts)
}

func printWarnings(w io.Writer, scan *engine.Result, cls *regression.Result) {
	for _, warn := range scan.Warnings {
		fmt.Fprintln(w, "warning:", warn)
	}
	if cls != nil {
		for _, warn := range cls.Warnings {
			fmt.Fprintln(w, "warning:", warn)
		}
	}
}

func printSummary(w io.Writer, scan *engine.Result, cls *regression.Result, opts PrintOptions) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Violations: %d (suppressed: %d)  Passed rules: %d\n", len(scan.Violations), len(scan.Suppressed), len(scan.PassedRules))
	if cls != nil {
		c := cls.Counts()
		fmt.Fprintf(w, "Classification: %d new, %d regressed, %d known, %d fixed\n",
			c[types.ClassNewFailure], c[types.ClassRegression], c[types.ClassKnownFailure], c[types.ClassFixed])
	}
	if opts.FilesScanned > 0 {
		fmt.Fprintf(w, "Files scanned: %d\n", opts.FilesScanned)
	}
	if opts.Duration > 0 {
		fmt.Fprintf(w, "Duration: %.2fs\n", opts.Duration.Seconds())
	}
}

func location(v types.Violation) string {
	switch {
	case v.Path == "":
		return "(scope)"
	case v.Line == 0:
		return v.Path
	default:
		return fmt.Sprintf("%s:%d", v.Path, v.Line)
	}
}

func severityLabel(s types.Severity, noColor bool) string {
	label := "soft"
	if s == types.SevNonNegotiable {
		label = "block"
	}
	if noColor {
		return label
	}
	if s == types.SevNonNegotiable {
		return "\x1b[31m" + label + "\x1b[0m" // red
	}
	return "\x1b[33m" + label + "\x1b[0m" // yellow
}
