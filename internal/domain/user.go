// Package domain contains entity without logic, just meta-data
package domain

import "errors"

const (
	MaxUserIDLen   = 36
	MaxUsernameLen = 36
)

var (
	ErrUserIDEmpty     = errors.New("user id empty")
	ErrUserIDTooLong   = errors.New("user id too long")
	ErrUsernameTooLong = errors.New("display name too long")
)

type (
	UserID string
	ConnID string
)

// User is the signaling identity a connection registers as.
// Identities are client-supplied; the relay does not authenticate them.
type User struct {
	ID          UserID `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(id UserID, displayName string) (*User, error) {
	if len(id) == 0 {
		return nil, ErrUserIDEmpty
	}
	if len(id) > MaxUserIDLen {
		return nil, ErrUserIDTooLong
	}
	if len(displayName) > MaxUsernameLen {
		return nil, ErrUsernameTooLong
	}
	return &User{ID: id, DisplayName: displayName}, nil
}
