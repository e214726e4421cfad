package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_MatchesKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
		msg  string
	}{
		{"conflict", Conflict(MsgUserExists), ErrConflict, "User with this email already exists"},
		{"unauthorized", Unauthorized(MsgInvalidCredentials), ErrUnauthorized, "Invalid credentials"},
		{"forbidden with args", Forbidden("Insufficient permissions. Required roles: %s", "admin"), ErrForbidden, "Insufficient permissions. Required roles: admin"},
		{"not found", NotFound(MsgUserNotFound), ErrNotFound, "User not found"},
		{"bad request", BadRequest(MsgInvalidResetToken), ErrBadRequest, "Invalid or expired reset token"},
		{"validation", Validation("email must be a valid address"), ErrValidation, "email must be a valid address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.kind)
			assert.Equal(t, tt.msg, tt.err.Error())
		})
	}
}

func TestAppError_WrappedStillMatches(t *testing.T) {
	err := fmt.Errorf("login: %w", Unauthorized(MsgAccountDeactivated))

	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, errors.Is(err, ErrForbidden))
	assert.Equal(t, MsgAccountDeactivated, Message(err, "fallback"))
}

func TestMessage_Fallback(t *testing.T) {
	assert.Equal(t, "Internal server error", Message(errors.New("db down"), "Internal server error"))
}

func TestAppError_PercentWithoutArgsIsLiteral(t *testing.T) {
	err := BadRequest("100% wrong")
	assert.Equal(t, "100% wrong", err.Error())
}
