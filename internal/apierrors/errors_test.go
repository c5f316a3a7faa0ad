package apierrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIError_Error(t *testing.T) {
	err := &APIError{Status: http.StatusConflict, Message: "email taken"}
	assert.Equal(t, "email taken", err.Error())

	err = &APIError{Status: http.StatusBadGateway}
	assert.Equal(t, "HTTP error 502", err.Error())
}

func TestAPIError_IsSessionInvalid(t *testing.T) {
	unauthorized := &APIError{Status: http.StatusUnauthorized, Code: "token_expired"}
	assert.True(t, errors.Is(unauthorized, ErrSessionInvalid))

	// Wrapped 401s still match.
	wrapped := fmt.Errorf("refresh token: %w", unauthorized)
	assert.True(t, errors.Is(wrapped, ErrSessionInvalid))

	forbidden := &APIError{Status: http.StatusForbidden}
	assert.False(t, errors.Is(forbidden, ErrSessionInvalid))
}

func TestAPIError_UserMessage(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusBadRequest, "Invalid request. Please check your input."},
		{http.StatusUnauthorized, "Invalid email or password."},
		{http.StatusForbidden, "Access denied."},
		{http.StatusNotFound, "User not found."},
		{http.StatusConflict, "An account with this email already exists."},
		{http.StatusUnprocessableEntity, "Validation error. Please check your input."},
		{http.StatusTooManyRequests, "Too many attempts. Please try again later."},
		{http.StatusInternalServerError, "Server error. Please try again later."},
		{http.StatusTeapot, "An unexpected error occurred. Please try again."},
	}
	for _, tt := range tests {
		err := &APIError{Status: tt.status}
		assert.Equal(t, tt.want, err.UserMessage(), "status %d", tt.status)
	}
}

func TestAPIError_UserMessagePrefersServerMessage(t *testing.T) {
	err := &APIError{Status: http.StatusUnauthorized, Message: "Account locked."}
	assert.Equal(t, "Account locked.", err.UserMessage())
}

func TestFormatError(t *testing.T) {
	assert.Empty(t, FormatError(nil))

	assert.Equal(t, "Access denied.",
		FormatError(&APIError{Status: http.StatusForbidden}))

	assert.Equal(t, NetworkErrorMessage,
		FormatError(fmt.Errorf("do request: %w", ErrNetwork)))

	assert.Equal(t, "boom", FormatError(errors.New("boom")))
}
