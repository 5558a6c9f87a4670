// Package complygate provides the command-line interface for the
// complygate tool. It configures subcommands (check, rules, baseline,
// etc.), parses flags, and executes the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/complygate/complygate/cmd/complygate"
//	func main() { complygate.Execute() }
package complygate
