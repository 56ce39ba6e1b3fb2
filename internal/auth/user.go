package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrInactiveUser       = errors.New("inactive user")
	ErrInvalidToken       = errors.New("invalid token")
	ErrValidation         = errors.New("invalid registration")
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name,omitempty"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	IsSuperuser  bool      `json:"is_superuser"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Registration struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

func (r Registration) Validate() error {
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return fmt.Errorf("%w: email is invalid", ErrValidation)
	}
	if len(strings.TrimSpace(r.Username)) < 3 {
		return fmt.Errorf("%w: username must have at least 3 characters", ErrValidation)
	}
	if len(r.Password) < 8 {
		return fmt.Errorf("%w: password must have at least 8 characters", ErrValidation)
	}
	return nil
}

// UserStore persists accounts. Create reports ErrDuplicateEmail or
// ErrDuplicateUsername on conflicts.
type UserStore interface {
	Create(ctx context.Context, u User) (User, error)
	Get(ctx context.Context, id int64) (User, error)
	// FindByLogin matches either username or email.
	FindByLogin(ctx context.Context, login string) (User, error)
	SetRefreshToken(ctx context.Context, id int64, token string) error
}
