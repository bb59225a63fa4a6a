package auth

import (
	"errors"
	"time"
)

// ErrInvalidCredentials is returned for any failed sign-in.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// ErrUserNotFound is returned when no admin matches a lookup.
var ErrUserNotFound = errors.New("auth: user not found")

// AdminUser is a dashboard account.
type AdminUser struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
}
