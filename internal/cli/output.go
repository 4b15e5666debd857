package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Michael-F-Bryan/protodef/internal/diag"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Compilation produced Error diagnostics
	ExitCommandError = 2 // Command error (bad paths, unreadable input, etc.)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
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

// NewExitError creates a new ExitError with the given code and message.
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

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for diagnostics (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status      string            `json:"status"` // "ok" or "error"
	Data        any               `json:"data,omitempty"`
	Diagnostics []diag.Diagnostic `json:"diagnostics,omitempty"`
	Error       *CLIError         `json:"error,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success outputs a successful result plus any diagnostics in the
// configured format.
func (f *OutputFormatter) Success(data any, ds []diag.Diagnostic) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{
			Status:      "ok",
			Data:        data,
			Diagnostics: ds,
		})
	}

	f.printDiagnostics(ds)
	if data != nil {
		fmt.Fprintln(f.Writer, data)
	}
	return nil
}

// Error outputs a command-level error in the configured format.
func (f *OutputFormatter) Error(code, message string) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message},
		})
	}

	fmt.Fprintf(f.GetErrWriter(), "Error [%s]: %s\n", code, message)
	return nil
}

// Failed outputs diagnostics for a compilation that produced errors.
func (f *OutputFormatter) Failed(ds []diag.Diagnostic, errorCount int) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{
			Status:      "error",
			Diagnostics: ds,
			Error: &CLIError{
				Code:    ErrCodeCompileFailed,
				Message: fmt.Sprintf("compilation failed with %d error(s)", errorCount),
			},
		})
	}

	f.printDiagnostics(ds)
	fmt.Fprintf(f.GetErrWriter(), "✗ compilation failed with %d error(s)\n", errorCount)
	return nil
}

// printDiagnostics writes diagnostics one per line to the error writer, so
// stdout stays reserved for the compiled output.
func (f *OutputFormatter) printDiagnostics(ds []diag.Diagnostic) {
	for _, d := range ds {
		fmt.Fprintln(f.GetErrWriter(), d.String())
	}
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeNotFound      = "E002" // Input path not found
	ErrCodeParseFailed   = "E003" // Spec document could not be parsed
	ErrCodeProfileFailed = "E004" // Profile file invalid
	ErrCodeWriteFailed   = "E005" // Output file write error
	ErrCodeCompileFailed = "E006" // Compilation produced Error diagnostics
)
