package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/recline-db/recline/internal/doc"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation failure (record not found, validation failed, etc.)
	ExitCommandError = 2 // Command error (invalid paths, database not found, bad flags)
)

// ExitError carries an exit code alongside the error message, so commands
// can distinguish operation failures from misuse.
type ExitError struct {
	Code    int
	Message string
	Err     error // underlying cause (optional)
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

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter renders command results.
//
// In text mode records print as one JSON document per line, ready for
// line-oriented tools. In JSON mode every command emits a single Response
// envelope.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // verbose/diagnostic output; defaults to Writer
	Verbose   bool
}

// Response is the JSON envelope. The success payload is one of Record (a
// single document), Records (a list), or Summary (a command-specific
// report); a failed command sets Error instead.
type Response struct {
	Status  string       `json:"status"` // "ok" or "error"
	Record  doc.Record   `json:"record,omitempty"`
	Records []doc.Record `json:"records,omitempty"`
	Summary any          `json:"summary,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail describes a failed command in a Response.
type ErrorDetail struct {
	Code    string `json:"code"` // "E001", "E002", etc.
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Record prints a single record.
func (f *OutputFormatter) Record(record doc.Record) error {
	if f.Format == "json" {
		return f.encode(Response{Status: "ok", Record: record})
	}
	return writeRecordLine(f.Writer, record)
}

// Records prints a list of records: one JSON document per line in text
// mode, a single envelope in JSON mode.
func (f *OutputFormatter) Records(records []doc.Record) error {
	if f.Format == "json" {
		return f.encode(Response{Status: "ok", Records: records})
	}
	for _, record := range records {
		if err := writeRecordLine(f.Writer, record); err != nil {
			return err
		}
	}
	return nil
}

// Summary prints a command-specific payload, such as load totals or
// validation results.
func (f *OutputFormatter) Summary(data any) error {
	if f.Format == "json" {
		return f.encode(Response{Status: "ok", Summary: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error reports a failed command in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return f.encode(Response{Status: "error", Error: &ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		}})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, so JSON output on Writer is never corrupted.
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

func (f *OutputFormatter) encode(resp Response) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func writeRecordLine(w io.Writer, record doc.Record) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(raw))
	return err
}
