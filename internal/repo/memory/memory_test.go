package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/microblog/internal/domain/post"
	"github.com/geocoder89/microblog/internal/domain/user"
)

func TestUsersRepo_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	r := NewUsersRepo()

	u, err := r.Create(ctx, "alice", "alice@x.com", "hash")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if u.ID == "" || u.LastSeen != nil {
		t.Fatalf("unexpected new user: %+v", u)
	}

	for name, get := range map[string]func() (user.User, error){
		"id":       func() (user.User, error) { return r.GetByID(ctx, u.ID) },
		"username": func() (user.User, error) { return r.GetByUsername(ctx, "alice") },
		"email":    func() (user.User, error) { return r.GetByEmail(ctx, "alice@x.com") },
	} {
		got, err := get()
		if err != nil || got.ID != u.ID {
			t.Fatalf("lookup by %s: got %+v, %v", name, got, err)
		}
	}

	if _, err := r.GetByUsername(ctx, "bob"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestUsersRepo_RejectsEmptyPasswordHash(t *testing.T) {
	ctx := context.Background()
	r := NewUsersRepo()

	if _, err := r.Create(ctx, "alice", "alice@x.com", ""); !errors.Is(err, user.ErrEmptyPasswordHash) {
		t.Fatalf("got %v, want ErrEmptyPasswordHash", err)
	}

	if _, err := r.GetByUsername(ctx, "alice"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("rejected create must not leave a record, got %v", err)
	}

	// the username is still free afterwards
	if _, err := r.Create(ctx, "alice", "alice@x.com", "hash"); err != nil {
		t.Fatalf("create: %v", err)
	}
}

func TestUsersRepo_DuplicateKeys(t *testing.T) {
	ctx := context.Background()
	r := NewUsersRepo()

	if _, err := r.Create(ctx, "alice", "alice@x.com", "hash"); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := r.Create(ctx, "alice", "other@x.com", "hash"); !errors.Is(err, user.ErrUsernameTaken) {
		t.Fatalf("got %v, want ErrUsernameTaken", err)
	}

	if _, err := r.Create(ctx, "alice2", "alice@x.com", "hash"); !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("got %v, want ErrEmailTaken", err)
	}

	if _, err := r.GetByUsername(ctx, "alice2"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("failed create must not leave a record, got %v", err)
	}
}

func TestUsersRepo_TouchLastSeen(t *testing.T) {
	ctx := context.Background()
	r := NewUsersRepo()

	u, _ := r.Create(ctx, "alice", "alice@x.com", "hash")
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	if err := r.TouchLastSeen(ctx, u.ID, at); err != nil {
		t.Fatalf("touch: %v", err)
	}

	got, _ := r.GetByID(ctx, u.ID)
	if got.LastSeen == nil || !got.LastSeen.Equal(at) {
		t.Fatalf("got last seen %v, want %v", got.LastSeen, at)
	}

	// mutating the returned copy must not leak into the store
	*got.LastSeen = at.Add(time.Hour)
	again, _ := r.GetByID(ctx, u.ID)
	if !again.LastSeen.Equal(at) {
		t.Fatalf("store was mutated through a returned user")
	}

	if err := r.TouchLastSeen(ctx, "missing", at); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestPostsRepo_Ordering(t *testing.T) {
	ctx := context.Background()
	users := NewUsersRepo()
	posts := NewPostsRepo(users)

	alice, _ := users.Create(ctx, "alice", "alice@x.com", "hash")
	bob, _ := users.Create(ctx, "bob", "bob@x.com", "hash")

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	i := 0
	posts.now = func() time.Time {
		i++
		return base.Add(time.Duration(i) * time.Minute)
	}

	for n := 0; n < 4; n++ {
		if _, err := posts.Create(ctx, alice.ID, "alice post"); err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := posts.Create(ctx, bob.ID, "bob post"); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	latest, err := posts.Latest(ctx, post.FeedSize)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}

	if len(latest) != post.FeedSize {
		t.Fatalf("got %d posts, want %d", len(latest), post.FeedSize)
	}

	for k := 1; k < len(latest); k++ {
		if latest[k].Timestamp.After(latest[k-1].Timestamp) {
			t.Fatalf("feed not ordered newest first at %d", k)
		}
	}

	mine, _ := posts.ByAuthor(ctx, alice.ID)
	if len(mine) != 4 {
		t.Fatalf("got %d alice posts, want 4", len(mine))
	}

	for _, p := range mine {
		if p.AuthorUsername != "alice" {
			t.Fatalf("foreign post in profile feed: %+v", p)
		}
	}
}

func TestPostsRepo_UnknownAuthor(t *testing.T) {
	posts := NewPostsRepo(NewUsersRepo())

	if _, err := posts.Create(context.Background(), "ghost", "boo"); !errors.Is(err, post.ErrAuthorNotFound) {
		t.Fatalf("got %v, want ErrAuthorNotFound", err)
	}
}
