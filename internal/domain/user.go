// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MaxUsernameLen = 36
)

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameEmpty   = errors.New("username empty")
)

type UserID string

type User struct {
	ID            UserID    `json:"_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	WalletAddress string    `json:"walletAddress,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// UserSummary is the populated form of a user reference.
type UserSummary struct {
	ID    UserID `json:"_id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(name, email, passwordHash, wallet string) (*User, error) {
	name = strings.TrimSpace(name)
	if len(name) == 0 {
		return nil, ErrUsernameEmpty
	}
	if len(name) > MaxUsernameLen {
		return nil, ErrUsernameTooLong
	}
	return &User{
		ID:            UserID(uuid.NewString()),
		Name:          name,
		Email:         NormalizeEmail(email),
		PasswordHash:  passwordHash,
		WalletAddress: wallet,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
