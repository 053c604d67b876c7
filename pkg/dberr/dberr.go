// Package dberr defines the structured error types shared by the
// ingestion and table mutation paths.
package dberr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAlterContext is raised when a structural table change (drop/rename
// column, rename table, dedup toggle, column type change) is attempted in a
// context that only permits non-structural alterations. Callers match it
// with errors.Is to retry the command through the full writer path.
var ErrAlterContext = errors.New("alter table change is not allowed in the current context")

// TableError is a structured error raised by table mutation and schema
// inference code. It carries enough context for the caller to point a user
// at the offending SQL token and to decide whether the failure is safe to
// retry.
type TableError struct {
	// Message describes what went wrong.
	Message string

	// Table is the name of the table the operation targeted, if known.
	Table string

	// Position is the character position in the originating SQL text that
	// the error should be attributed to. Negative when unknown.
	Position int

	// Critical marks errors that indicate a table or process level
	// integrity risk. Critical errors must not be silently retried.
	Critical bool

	// Cause is the underlying error, if any.
	Cause error
}

// New creates a recoverable TableError with no position attribution.
func New(format string, args ...any) *TableError {
	return &TableError{Message: fmt.Sprintf(format, args...), Position: -1}
}

// Critical creates a TableError flagged as an integrity risk.
func Critical(format string, args ...any) *TableError {
	return &TableError{Message: fmt.Sprintf(format, args...), Position: -1, Critical: true}
}

// Wrap annotates an existing error as a TableError. If err is already a
// TableError it is returned unchanged so position and criticality survive.
func Wrap(err error, table string) *TableError {
	if err == nil {
		return nil
	}
	var te *TableError
	if errors.As(err, &te) {
		if te.Table == "" {
			te.Table = table
		}
		return te
	}
	return &TableError{Message: err.Error(), Table: table, Position: -1, Cause: err}
}

// WithPosition sets the source position, returning the receiver for
// chaining. A position already set is not overwritten; the innermost
// attribution is the most precise one.
func (e *TableError) WithPosition(pos int) *TableError {
	if e.Position < 0 {
		e.Position = pos
	}
	return e
}

// WithTable sets the table name, returning the receiver for chaining.
func (e *TableError) WithTable(table string) *TableError {
	e.Table = table
	return e
}

// Error implements the standard Go error interface.
func (e *TableError) Error() string {
	var b strings.Builder
	if e.Critical {
		b.WriteString("critical: ")
	}
	b.WriteString(e.Message)
	if e.Table != "" {
		fmt.Fprintf(&b, " [table=%s]", e.Table)
	}
	if e.Position >= 0 {
		fmt.Fprintf(&b, " [position=%d]", e.Position)
	}
	return b.String()
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As
// traversal through wrapped errors.
func (e *TableError) Unwrap() error {
	return e.Cause
}

// IsCritical reports whether err carries a critical TableError anywhere in
// its chain.
func IsCritical(err error) bool {
	var te *TableError
	return errors.As(err, &te) && te.Critical
}

// PositionOf extracts the source position from err, or -1 when err carries
// no TableError.
func PositionOf(err error) int {
	var te *TableError
	if errors.As(err, &te) {
		return te.Position
	}
	return -1
}
