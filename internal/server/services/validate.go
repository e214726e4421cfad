package services

import (
	"net/mail"
	"strings"

	"github.com/dmitrijs2005/gestcard/internal/common"
	"github.com/dmitrijs2005/gestcard/internal/server/models"
)

const (
	MinPasswordLength = 6
	// MaxPasswordBytes is the longest input bcrypt will accept.
	MaxPasswordBytes = 72
)

// NormalizeEmail trims and lowercases an address. Stored emails are always
// in this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail expects an already normalized address.
func ValidateEmail(email string) error {
	if email == "" {
		return common.Validation("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return common.Validation("email must be a valid email address")
	}
	return nil
}

func ValidatePassword(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return common.Validation("password must be at least %d characters long", MinPasswordLength)
	}
	if len(password) > MaxPasswordBytes {
		return common.Validation("password must be at most %d bytes long", MaxPasswordBytes)
	}
	return nil
}

// ValidateRole accepts the empty role, meaning the default.
func ValidateRole(role models.Role) error {
	if role != "" && !role.Valid() {
		return common.Validation("role must be one of: %s, %s", models.RoleUser, models.RoleAdmin)
	}
	return nil
}
