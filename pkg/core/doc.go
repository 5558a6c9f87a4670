// Package core provides a small, stable facade over Complygate's internal
// packages for external integrations. It runs the whole gate pipeline
// (rule load, scan, override resolution, regression classification, baseline
// update) behind one call, so CI plugins and other tools can depend on a
// stable import path without reaching into internals.
//
// Example:
//
//	rep, err := core.Check(ctx, core.Config{Root: ".", RulesPath: "compliance.yml"})
//	if err != nil { /* configuration or store problem */ }
//	if rep.GateFailed { /* red */ }
package core
