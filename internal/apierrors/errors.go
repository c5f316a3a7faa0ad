package apierrors

// Package apierrors defines the error taxonomy shared by the auth API
// adapters and the state machine: transport failures, typed HTTP errors,
// and the status-keyed user-facing messages.

import (
	"errors"
	"fmt"
	"net/http"
)

// Shared sentinel errors for the API client.
var (
	// ErrSessionInvalid wraps any 401 from an authenticated endpoint.
	// Callers treat it uniformly as "session invalid" and tear down
	// local session state.
	ErrSessionInvalid = errors.New("session invalid")

	// ErrNetwork wraps transport-level failures where no response was
	// received. Timeouts are not distinguished from other transport
	// failures.
	ErrNetwork = errors.New("network error")
)

// NetworkErrorMessage is shown for any transport failure.
const NetworkErrorMessage = "Network error. Please check your connection."

// APIError is a non-2xx response from the authentication service.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP error %d", e.Status)
}

// Is lets errors.Is(err, ErrSessionInvalid) match any 401 APIError.
func (e *APIError) Is(target error) bool {
	return target == ErrSessionInvalid && e.Status == http.StatusUnauthorized
}

// UserMessage returns the message to surface to the user: the server's
// own message when present, else a status-code-keyed default.
func (e *APIError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return statusMessage(e.Status)
}

// statusMessage maps status codes to generic user-facing messages.
func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Invalid request. Please check your input."
	case http.StatusUnauthorized:
		return "Invalid email or password."
	case http.StatusForbidden:
		return "Access denied."
	case http.StatusNotFound:
		return "User not found."
	case http.StatusConflict:
		return "An account with this email already exists."
	case http.StatusUnprocessableEntity:
		return "Validation error. Please check your input."
	case http.StatusTooManyRequests:
		return "Too many attempts. Please try again later."
	case http.StatusInternalServerError:
		return "Server error. Please try again later."
	default:
		return "An unexpected error occurred. Please try again."
	}
}

// FormatError renders any auth operation failure as a user-facing message.
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	if errors.Is(err, ErrNetwork) {
		return NetworkErrorMessage
	}
	return err.Error()
}
