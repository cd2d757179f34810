package validation

import (
	"errors"
)

var (
	ErrWeakPassword = errors.New("password must be at least 8 characters")
)

const minPasswordLength = 8

func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return ErrWeakPassword
	}
	return nil
}
