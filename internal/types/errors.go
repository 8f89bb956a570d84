package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoData marks an empty result. It is not a failure.
	ErrNoData = errors.New("no data")
	// ErrNoRows is returned when a run produced no report rows
	ErrNoRows = errors.New("no subnet usage rows")
)

// ConnectionError reports that a router session could not be established
// or was lost (authentication, unreachable host, timeout).
type ConnectionError struct {
	Address string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to %s failed: %v", e.Address, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// MalformedResponseError reports router output missing an expected
// delimiter or field.
type MalformedResponseError struct {
	Command string
	Output  string
	Reason  string
}

func (e *MalformedResponseError) Error() string {
	var b strings.Builder
	b.WriteString("malformed response")
	if e.Command != "" {
		fmt.Fprintf(&b, " to %q", e.Command)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Output != "" {
		fmt.Fprintf(&b, " (output %q)", truncate(e.Output, 120))
	}
	return b.String()
}

// Malformed creates a MalformedResponseError
func Malformed(output, format string, args ...any) error {
	return &MalformedResponseError{
		Output: output,
		Reason: fmt.Sprintf(format, args...),
	}
}

// WithCommand returns err with command attached to the MalformedResponseError
// it carries. err itself is not modified. Other errors, and malformed errors
// that already name a command, are returned unchanged.
func WithCommand(err error, command string) error {
	var me *MalformedResponseError
	if !errors.As(err, &me) || me.Command != "" {
		return err
	}
	if err == error(me) {
		cp := *me
		cp.Command = command
		return &cp
	}
	return &commandError{command: command, err: err}
}

// commandError names the command of a malformed response wrapped deeper in err
type commandError struct {
	command string
	err     error
}

func (e *commandError) Error() string {
	return fmt.Sprintf("%v (in response to %q)", e.err, e.command)
}

func (e *commandError) Unwrap() error {
	return e.err
}

// As exposes the wrapped MalformedResponseError with the command filled in
func (e *commandError) As(target any) bool {
	t, ok := target.(**MalformedResponseError)
	if !ok {
		return false
	}
	var me *MalformedResponseError
	if !errors.As(e.err, &me) {
		return false
	}
	cp := *me
	cp.Command = e.command
	*t = &cp
	return true
}

// IsConnectionFailure checks if err is a ConnectionError
func IsConnectionFailure(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// IsMalformed checks if err is a MalformedResponseError
func IsMalformed(err error) bool {
	var me *MalformedResponseError
	return errors.As(err, &me)
}

// IsNoData checks if err is the empty-result sentinel
func IsNoData(err error) bool {
	return errors.Is(err, ErrNoData)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
