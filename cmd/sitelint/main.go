// Package main provides the entry point for the sitelint CLI.
//
// sitelint reconciles the metadata of a statically generated site: it walks
// the built HTML, checks structured data, heading hierarchy and canonical
// links against a per-page configuration, and optionally fixes what can be
// fixed mechanically.
//
// Usage:
//
//	sitelint scan --dir public
//	sitelint scan --fix --strict
//
// See --help for all available options.
package main

// main is the entry point for sitelint.
func main() {
	Execute()
}
