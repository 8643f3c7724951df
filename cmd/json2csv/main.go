package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/oleg578/jsoncsv"
)

var version = "dev"

func main() {
	rootCmd := newRootCommand(os.Stdin, os.Stdout, os.Stderr)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(mapErrorToExitCode(err))
	}
}

// mapErrorToExitCode returns 2 for rejected conversion parameters and 1 for everything else.
func mapErrorToExitCode(err error) int {
	if err == nil {
		return 0
	}

	var verr *jsoncsv.ValidationError
	if errors.As(err, &verr) {
		return 2
	}
	return 1
}
