package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/microblog/internal/domain/post"
	"github.com/geocoder89/microblog/internal/domain/user"
	"github.com/google/uuid"
)

type PostsRepo struct {
	mu    sync.RWMutex
	items []post.Post
	users *UsersRepo
	now   func() time.Time
}

func NewPostsRepo(users *UsersRepo) *PostsRepo {
	return &PostsRepo{
		users: users,
		now:   time.Now,
	}
}

func (r *PostsRepo) Create(ctx context.Context, authorID, body string) (post.Post, error) {
	author, err := r.users.GetByID(ctx, authorID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return post.Post{}, post.ErrAuthorNotFound
		}
		return post.Post{}, err
	}

	p := post.Post{
		ID:             uuid.NewString(),
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		Body:           body,
		Timestamp:      r.now().UTC(),
	}

	r.mu.Lock()
	r.items = append(r.items, p)
	r.mu.Unlock()

	return p, nil
}

// Latest returns up to limit posts, newest first.
func (r *PostsRepo) Latest(ctx context.Context, limit int) ([]post.Post, error) {
	return r.filter(limit, func(post.Post) bool { return true }), nil
}

// ByAuthor returns every post of the author, newest first.
func (r *PostsRepo) ByAuthor(ctx context.Context, authorID string) ([]post.Post, error) {
	return r.filter(0, func(p post.Post) bool { return p.AuthorID == authorID }), nil
}

func (r *PostsRepo) filter(limit int, keep func(post.Post) bool) []post.Post {
	r.mu.RLock()
	out := make([]post.Post, 0, len(r.items))
	// walk backwards so equal timestamps keep the later insert first
	for i := len(r.items) - 1; i >= 0; i-- {
		if keep(r.items[i]) {
			out = append(out, r.items[i])
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out
}
