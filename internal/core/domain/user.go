package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	// bcrypt only looks at the first 72 bytes of its input.
	maxPasswordBytes = 72
	maxNameLength    = 80
	passwordCost     = 12
)

var (
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrEmailAlreadyExists = fmt.Errorf("email already exists: %w", ErrValidation)
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", ErrForbidden)
	ErrInvalidEmail       = fmt.Errorf("invalid email format: %w", ErrValidation)
	ErrNameTooLong        = fmt.Errorf("name must be at most %d characters: %w", maxNameLength, ErrValidation)
	ErrPasswordTooShort   = fmt.Errorf("password must be at least %d characters long: %w", minPasswordLength, ErrValidation)
	ErrPasswordTooLong    = fmt.Errorf("password must be at most %d bytes long: %w", maxPasswordBytes, ErrValidation)
)

// User is the account that owns goals, tasks and activity.
type User struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// NewUser normalizes the email to lower case. A blank name falls back to the
// local part of the address.
func NewUser(id, name, email string) (*User, error) {
	addr, err := parseEmail(email)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name, _, _ = strings.Cut(addr, "@")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return nil, ErrNameTooLong
	}

	now := time.Now().UTC()
	return &User{
		ID:        id,
		Name:      name,
		Email:     addr,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (u *User) SetPassword(plain string) error {
	if utf8.RuneCountInString(plain) < minPasswordLength {
		return ErrPasswordTooShort
	}
	if len(plain) > maxPasswordBytes {
		return ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), passwordCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	u.PasswordHash = string(hash)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// CheckPassword reports ErrInvalidCredentials for any mismatch, including an
// account without a stored hash.
func (u *User) CheckPassword(plain string) error {
	if u.PasswordHash == "" {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// parseEmail rejects display-name forms such as "Ada <ada@kanso.app>".
func parseEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}
