package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes returned by Execute.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // scenario failed, document missing or corrupt
	ExitCommandError = 2 // bad flags or paths, unreadable config or database
)

// Error codes carried in JSON error responses.
const (
	CodeFailed     = "E_FAILED"
	CodeCommand    = "E_COMMAND"
	CodeTestFailed = "E_TEST_FAILED"
)

// ExitError carries the exit code a command failed with.
type ExitError struct {
	Code    int
	Message string
	Err     error
	// Silent marks a failure the command already reported on stdout.
	Silent bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps err with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// exitCode maps a command error to an exit code. Errors that are not
// ExitErrors come from cobra (unknown commands, bad flags, wrong argument
// counts) and count as command errors.
func exitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// Response is the envelope written to stdout with --format json.
type Response struct {
	Status string         `json:"status"` // "ok" or "error"
	Data   any            `json:"data,omitempty"`
	Error  *ResponseError `json:"error,omitempty"`
}

// ResponseError describes a failed command in a Response.
type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OutputFormatter writes command results as text or JSON.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // verbose output; defaults to Writer
	Verbose   bool
}

// Success writes a command result.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(Response{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Report writes err and returns the exit code it maps to. Silent errors
// are not written again.
func (f *OutputFormatter) Report(err error) int {
	code := exitCode(err)
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Silent {
		return code
	}

	errCode := CodeCommand
	if code == ExitFailure {
		errCode = CodeFailed
	}
	if f.Format == "json" {
		_ = json.NewEncoder(f.Writer).Encode(Response{
			Status: "error",
			Error:  &ResponseError{Code: errCode, Message: err.Error()},
		})
		return code
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", errCode, err.Error())
	return code
}

// VerboseLog writes a line to ErrWriter when verbose.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}
