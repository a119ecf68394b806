// Package main is the entry point for the voxguard CLI.
//
// Usage:
//
//	voxguard [flags] <command> [args]
//
// Commands:
//
//	serve    - Run the audio monitoring server
//	enroll   - Enroll a speaker from a PCM file
//	verify   - Verify a PCM file against an enrolled speaker
//	analyze  - Print a risk report for a PCM file
//	version  - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/voxguard/voxguard/cmd/voxguard/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
