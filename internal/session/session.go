package session

import (
	"context"
	"strings"
)

// Session runs commands on a connected router
type Session interface {
	// Run executes command and returns its output lines
	Run(ctx context.Context, command string) ([]string, error)
	// Close closes the session
	Close() error
}

// Connector opens sessions to routers
type Connector interface {
	// Connect opens a session to address. Failures are *types.ConnectionError.
	Connect(ctx context.Context, address string) (Session, error)
}

// SplitLines splits command output into lines, dropping carriage returns
// and blank lines.
func SplitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
