package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("user not found")

	// duplicate key errors, returned by stores when a unique column is already taken
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already taken")

	// stores refuse to persist a user without a password hash
	ErrEmptyPasswordHash = errors.New("password hash is empty")
)

type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // never expose hash in JSON
	LastSeen     *time.Time `json:"lastSeen,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// IsDuplicate reports whether err is one of the duplicate key errors.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrUsernameTaken) || errors.Is(err, ErrEmailTaken)
}
