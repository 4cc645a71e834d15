package db

import (
	"context"
	"errors"

	"github.com/geocoder89/microblog/internal/domain/post"
	"github.com/geocoder89/microblog/internal/domain/user"
)

const DemoUsername = "demo"

type DemoUserStore interface {
	GetByUsername(ctx context.Context, username string) (user.User, error)
	Create(ctx context.Context, username, email, passwordHash string) (user.User, error)
}

type DemoPostStore interface {
	Create(ctx context.Context, authorID, body string) (post.Post, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
}

var demoPosts = []string{
	"Hello from the demo account!",
	"Sessions survive restarts when the session store is redis.",
	"Tick remember me to stay signed in.",
}

// EnsureDemoUser creates the demo user and a few posts unless the user already exists.
func EnsureDemoUser(ctx context.Context, users DemoUserStore, posts DemoPostStore, hasher PasswordHasher, password string) (bool, error) {
	_, err := users.GetByUsername(ctx, DemoUsername)

	if err == nil {
		return false, nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return false, err
	}

	hash, err := hasher.Hash(password)

	if err != nil {
		return false, err
	}

	u, err := users.Create(ctx, DemoUsername, "demo@example.com", hash)

	if err != nil {
		return false, err
	}

	for _, body := range demoPosts {
		_, err = posts.Create(ctx, u.ID, body)

		if err != nil {
			return false, err
		}
	}

	return true, nil
}
