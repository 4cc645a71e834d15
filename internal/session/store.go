package session

import (
	"context"
	"errors"
	"time"
)

// ErrNoSession is returned by a Store when the id is unknown or expired.
var ErrNoSession = errors.New("session not found")

// Record is the server-side state behind a session cookie.
// UserID is empty for anonymous records that only carry flashes.
type Record struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	Remember  bool      `json:"remember,omitempty"`
	Flashes   []string  `json:"flashes,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (r Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

type Store interface {
	Save(ctx context.Context, rec Record) error
	Load(ctx context.Context, id string) (Record, error)
	// Delete is a no-op for unknown ids.
	Delete(ctx context.Context, id string) error
}
