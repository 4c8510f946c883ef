package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// Exit codes for scripted callers.
const (
	ExitOK         = 0
	ExitInternal   = 1
	ExitUsage      = 2
	ExitNotFound   = 3
	ExitPermission = 4
	ExitNetwork    = 5
)

// CLIError is a structured error with a category for scripted callers.
type CLIError struct {
	Code    int    `json:"exit_code"`
	Type    string `json:"error"`
	Message string `json:"message"`
	Recover bool   `json:"recoverable"`
}

func (e *CLIError) Error() string {
	return e.Message
}

// Unwrap returns nil: CLIError is a leaf error.
func (e *CLIError) Unwrap() error { return nil }

// NewUsageError creates an error for invalid arguments.
func NewUsageError(msg string) *CLIError {
	return &CLIError{Code: ExitUsage, Type: "invalid_args", Message: msg}
}

// NewNotFoundError creates an error for missing resources.
func NewNotFoundError(msg string) *CLIError {
	return &CLIError{Code: ExitNotFound, Type: "not_found", Message: msg}
}

// NewPermissionError creates an error for access denied.
func NewPermissionError(msg string) *CLIError {
	return &CLIError{Code: ExitPermission, Type: "permission", Message: msg}
}

// NewNetworkError creates a recoverable network error.
func NewNetworkError(msg string) *CLIError {
	return &CLIError{Code: ExitNetwork, Type: "network", Message: msg, Recover: true}
}

// NewInternalError creates an error for unexpected failures.
func NewInternalError(msg string) *CLIError {
	return &CLIError{Code: ExitInternal, Type: "internal", Message: msg}
}

// Classify maps err onto a CLIError category. Errors that are already
// CLIErrors pass through; anything unrecognized is internal.
func Classify(err error) *CLIError {
	if err == nil {
		return nil
	}
	var ce *CLIError
	if errors.As(err, &ce) {
		return ce
	}

	msg := err.Error()
	var netErr net.Error
	switch {
	case errors.Is(err, fs.ErrNotExist), apierrors.IsNotFound(err):
		return NewNotFoundError(msg)
	case errors.Is(err, fs.ErrPermission), apierrors.IsForbidden(err), apierrors.IsUnauthorized(err):
		return NewPermissionError(msg)
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr), apierrors.IsTimeout(err), apierrors.IsServerTimeout(err):
		return NewNetworkError(msg)
	default:
		return NewInternalError(msg)
	}
}

// ExitCode returns the process exit code for err: ExitOK for nil, the
// classified category otherwise.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	return Classify(err).Code
}

// FormatError writes the error to w. In JSON mode, it writes structured JSON.
// In text mode, it writes "error: <message>".
func FormatError(w io.Writer, err error, jsonMode bool) {
	if err == nil {
		return
	}

	if jsonMode {
		data, _ := json.Marshal(Classify(err))
		_, _ = fmt.Fprintln(w, string(data))
		return
	}

	_, _ = fmt.Fprintf(w, "error: %v\n", err)
}
