package run

import (
	"errors"
	"fmt"
)

// RunError represents a fatal failure of a run.
//
// Run errors include:
//   - Invalid input: the input cannot be stored one arrangement per line
//   - Shard I/O: a shard could not be opened, read or written during generation
//   - Merge I/O: a shard could not be read or the artifact written during merge
//   - Canceled: the run context was canceled before the merge completed
//
// No failure is retried. Shards written so far stay on disk.
type RunError struct {
	// Code identifies the error category.
	Code RunErrorCode

	// Message is a human-readable description.
	Message string

	// Path is the file involved, when known.
	Path string

	// Err is the underlying error.
	Err error
}

// RunErrorCode categorizes run errors.
type RunErrorCode string

const (
	// ErrCodeInvalidInput indicates the input string was rejected before any file was touched.
	ErrCodeInvalidInput RunErrorCode = "INVALID_INPUT"

	// ErrCodeShardIO indicates a shard failure during generation.
	ErrCodeShardIO RunErrorCode = "SHARD_IO"

	// ErrCodeMergeIO indicates a failure while merging shards into the artifact.
	ErrCodeMergeIO RunErrorCode = "MERGE_IO"

	// ErrCodeCanceled indicates the run was interrupted.
	ErrCodeCanceled RunErrorCode = "CANCELED"
)

// Error implements the error interface.
func (e *RunError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// ErrorCode returns the code of the RunError wrapped by err, or "".
func ErrorCode(err error) RunErrorCode {
	var re *RunError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsInvalidInput returns true if err is an input validation error.
func IsInvalidInput(err error) bool {
	return ErrorCode(err) == ErrCodeInvalidInput
}

// IsShardIOError returns true if err is a shard failure during generation.
func IsShardIOError(err error) bool {
	return ErrorCode(err) == ErrCodeShardIO
}

// IsMergeIOError returns true if err is a failure during merge.
func IsMergeIOError(err error) bool {
	return ErrorCode(err) == ErrCodeMergeIO
}
