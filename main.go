// ./main.go
package main

import (
	"github.com/donmccasland/gdc-gemini-munich-demo/cmd"
)

// main is the entry point for the reportdeck application.
func main() {
	// Execute the root command defined in the cmd package.
	// This handles all command-line parsing, configuration, and execution.
	cmd.Execute()
}
