package db_test

import (
	"context"
	"testing"

	"github.com/geocoder89/microblog/internal/db"
	"github.com/geocoder89/microblog/internal/repo/memory"
	"github.com/geocoder89/microblog/internal/security"
	"golang.org/x/crypto/bcrypt"
)

func TestEnsureDemoUser_Idempotent(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUsersRepo()
	posts := memory.NewPostsRepo(users)
	hasher := security.Hasher{Cost: bcrypt.MinCost}

	created, err := db.EnsureDemoUser(ctx, users, posts, hasher, "password1")
	if err != nil || !created {
		t.Fatalf("first seed: created=%v err=%v", created, err)
	}

	created, err = db.EnsureDemoUser(ctx, users, posts, hasher, "password1")
	if err != nil || created {
		t.Fatalf("second seed should be a no-op: created=%v err=%v", created, err)
	}

	u, err := users.GetByUsername(ctx, db.DemoUsername)
	if err != nil {
		t.Fatalf("demo user missing: %v", err)
	}

	if err := hasher.Check(u.PasswordHash, "password1"); err != nil {
		t.Fatalf("demo password does not verify: %v", err)
	}

	list, _ := posts.ByAuthor(ctx, u.ID)
	if len(list) != 3 {
		t.Fatalf("got %d demo posts, want 3", len(list))
	}
}
