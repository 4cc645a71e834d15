package postgres

import (
	"context"
	"time"

	"github.com/geocoder89/microblog/internal/domain/post"
	"github.com/geocoder89/microblog/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postSelect = `SELECT p.id, p.author_id, u.username, p.body, p.created_at
	FROM posts p
	JOIN users u ON u.id = p.author_id`

type PostsRepo struct {
	pool    *pgxpool.Pool
	metrics *observability.Prom
}

func NewPostsRepo(pool *pgxpool.Pool, metrics *observability.Prom) *PostsRepo {
	return &PostsRepo{pool: pool, metrics: metrics}
}

func (r *PostsRepo) Create(ctx context.Context, authorID, body string) (post.Post, error) {
	p := post.Post{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Body:      body,
		Timestamp: time.Now().UTC(),
	}

	// the author username comes back from the same statement
	err := r.metrics.ObserveDB("posts.create", func() error {
		return r.pool.QueryRow(ctx,
			`WITH inserted AS (
				INSERT INTO posts (id, author_id, body, created_at)
				VALUES ($1,$2,$3,$4)
				RETURNING author_id
			)
			SELECT u.username FROM inserted i JOIN users u ON u.id = i.author_id`,
			p.ID, p.AuthorID, p.Body, p.Timestamp,
		).Scan(&p.AuthorUsername)
	})

	if err != nil {
		if isForeignKeyViolation(err) {
			return post.Post{}, post.ErrAuthorNotFound
		}
		return post.Post{}, err
	}

	return p, nil
}

func (r *PostsRepo) Latest(ctx context.Context, limit int) ([]post.Post, error) {
	return r.list(ctx, "posts.latest", postSelect+` ORDER BY p.created_at DESC LIMIT $1`, limit)
}

func (r *PostsRepo) ByAuthor(ctx context.Context, authorID string) ([]post.Post, error) {
	return r.list(ctx, "posts.by_author", postSelect+` WHERE p.author_id = $1 ORDER BY p.created_at DESC`, authorID)
}

func (r *PostsRepo) list(ctx context.Context, op, query string, args ...any) ([]post.Post, error) {
	var out []post.Post

	err := r.metrics.ObserveDB(op, func() error {
		rows, err := r.pool.Query(ctx, query, args...)

		if err != nil {
			return err
		}

		out, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (post.Post, error) {
			var p post.Post
			err := row.Scan(&p.ID, &p.AuthorID, &p.AuthorUsername, &p.Body, &p.Timestamp)
			return p, err
		})

		return err
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}
