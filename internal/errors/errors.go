// internal/errors/errors.go
package errors

import (
	"fmt"
	"strings"
)

// Kind classifies a Saurus runtime or loader error, matching the
// error taxonomy of the error handling design exactly.
type Kind string

const (
	LoaderError   Kind = "LoaderError"
	TypeError     Kind = "TypeError"
	ArityError    Kind = "ArityError"
	LookupError   Kind = "LookupError"
	ResourceError Kind = "ResourceError"
	UserError     Kind = "UserError"
)

// SourceLocation represents a location in source code.
type SourceLocation struct {
	File string
	Line int
}

// SaurusError is the single error type raised by the interpreter, the
// loader, and native built-ins. Raising one is panic(*SaurusError);
// the checkpoint installed by seterror recovers it and restores the
// operand-stack top it recorded — the Go-native rendering of the
// embedding API's long-jump error protocol.
type SaurusError struct {
	Kind      Kind
	Message   string
	Location  SourceLocation
	CallStack []StackFrame
}

// StackFrame represents a single frame in the call stack.
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface.
func (e *SaurusError) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s: %s\n", e.Kind, e.Message))

	if e.Location.File != "" {
		sb.WriteString(fmt.Sprintf("  at %s:%d\n", e.Location.File, e.Location.Line))
	}

	if len(e.CallStack) > 0 {
		sb.WriteString("\ncall stack:\n")
		for _, frame := range e.CallStack {
			if frame.Function != "" {
				sb.WriteString(fmt.Sprintf("  at %s (%s:%d)\n", frame.Function, frame.File, frame.Line))
			} else {
				sb.WriteString(fmt.Sprintf("  at %s:%d\n", frame.File, frame.Line))
			}
		}
	}

	return sb.String()
}

// New constructs an error of the given kind.
func New(kind Kind, format string, args ...interface{}) *SaurusError {
	return &SaurusError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithLocation attaches a source location.
func (e *SaurusError) WithLocation(file string, line int) *SaurusError {
	e.Location = SourceLocation{File: file, Line: line}
	return e
}

// WithStack sets the call stack.
func (e *SaurusError) WithStack(stack []StackFrame) *SaurusError {
	e.CallStack = stack
	return e
}

// AddFrame appends a single stack frame.
func (e *SaurusError) AddFrame(function, file string, line int) *SaurusError {
	e.CallStack = append(e.CallStack, StackFrame{Function: function, File: file, Line: line})
	return e
}
