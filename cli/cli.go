// Package cli implements small helpers shared by command-line entrypoints.
package cli

import (
	"fmt"
	"io"
	"strings"
)

// Process exit statuses.
const (
	ExitOK      = 0
	ExitFailure = 1
)

// Fail writes a diagnostic line to w and returns ExitFailure, so callers can
// `return cli.Fail(...)` from their run function.
func Fail(w io.Writer, format string, args ...any) int {
	msg := fmt.Sprintf(format, args...)
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	fmt.Fprint(w, "✗ "+msg)
	return ExitFailure
}
