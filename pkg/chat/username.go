package chat

import (
	"errors"
	"strings"
	"unicode"
)

// MaxUsernameLen is the maximum accepted username length in bytes.
const MaxUsernameLen = 32

var (
	ErrUsernameEmpty        = errors.New("chat: username is empty")
	ErrUsernameTooLong      = errors.New("chat: username too long")
	ErrUsernameInvalidChars = errors.New("chat: username has invalid characters")
)

// ValidateUsername checks that a username is 1-32 ASCII letters, digits,
// underscores, or hyphens.
func ValidateUsername(name string) error {
	if name == "" {
		return ErrUsernameEmpty
	}
	if len(name) > MaxUsernameLen {
		return ErrUsernameTooLong
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-':
		default:
			return ErrUsernameInvalidChars
		}
	}
	return nil
}

// sanitizeText strips control characters from user-supplied text to prevent
// terminal escape injection and null bytes in relayed messages.
func sanitizeText(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
