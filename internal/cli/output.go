package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes of the uniqperm binary.
const (
	ExitSuccess = 0
	ExitUsage   = 1 // argument count, flags, config or input rejected
	ExitRuntime = 2 // shard or merge failure, interruption
)

// ExitError carries the process exit code of a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches an exit code to err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps err to a process exit code. Errors cobra raises on its
// own (unknown flags, missing required flags) are usage errors.
func GetExitCode(err error) int {
	var exitErr *ExitError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &exitErr):
		return exitErr.Code
	default:
		return ExitUsage
	}
}

// Response is the envelope written with --format json.
type Response struct {
	Status string         `json:"status"` // "ok" | "error"
	Data   interface{}    `json:"data,omitempty"`
	Error  *ResponseError `json:"error,omitempty"`
	RunID  string         `json:"run_id,omitempty"`
}

// ResponseError describes a failure inside a Response.
type ResponseError struct {
	Code    string      `json:"code"` // USAGE, SHARD_IO, MERGE_IO, CANCELED, ...
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// OutputFormatter writes command results as text or JSON.
//
// In JSON mode stdout carries exactly one envelope per command: text-only
// lines are dropped and verbose diagnostics go to ErrWriter.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // falls back to Writer when nil
	Verbose   bool
	RunID     string // stamped on every envelope when set
}

func (f *OutputFormatter) isJSON() bool {
	return f.Format == "json"
}

// Textf writes one line of text output. No-op in JSON mode.
func (f *OutputFormatter) Textf(format string, args ...interface{}) {
	if f.isJSON() {
		return
	}
	fmt.Fprintf(f.Writer, format+"\n", args...)
}

// Success reports a successful result. Text mode prints the given lines,
// or data itself when there are none.
func (f *OutputFormatter) Success(data interface{}, lines ...string) error {
	if f.isJSON() {
		return f.encode(Response{Status: "ok", Data: data})
	}
	if len(lines) == 0 {
		_, err := fmt.Fprintln(f.Writer, data)
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(f.Writer, line); err != nil {
			return err
		}
	}
	return nil
}

// Error reports a failure. Text mode shows details only with --verbose.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.isJSON() {
		return f.encode(Response{
			Status: "error",
			Error:  &ResponseError{Code: code, Message: message, Details: details},
		})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog writes a diagnostic line when verbose output is on.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

func (f *OutputFormatter) encode(resp Response) error {
	resp.RunID = f.RunID
	return json.NewEncoder(f.Writer).Encode(resp)
}
