package main

import (
	"errors"
	"fmt"
	"os"

	"untangle/internal/uerrors"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)

		var uerr *uerrors.UntangleError
		if errors.As(err, &uerr) {
			for _, fix := range uerr.SuggestedFixes {
				fmt.Fprintln(os.Stderr, "  suggested fix:", fix.Description)
			}
		}
		os.Exit(1)
	}
	os.Exit(exitCode)
}
