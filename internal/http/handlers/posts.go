package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/geocoder89/microblog/internal/domain/post"
	"github.com/geocoder89/microblog/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type PostReader interface {
	Latest(ctx context.Context, limit int) ([]post.Post, error)
	ByAuthor(ctx context.Context, authorID string) ([]post.Post, error)
}

type UserReader interface {
	GetByUsername(ctx context.Context, username string) (user.User, error)
}

type PostsHandler struct {
	views *Views
	posts PostReader
	users UserReader
}

func NewPostsHandler(views *Views, posts PostReader, users UserReader) *PostsHandler {
	return &PostsHandler{views: views, posts: posts, users: users}
}

// Home renders the latest posts across all authors.
func (h *PostsHandler) Home(ctx *gin.Context) {
	latest, err := h.posts.Latest(ctx.Request.Context(), post.FeedSize)

	if err != nil {
		h.views.RespondInternal(ctx, fmt.Errorf("latest posts: %w", err))
		return
	}

	h.views.Page(ctx, http.StatusOK, ViewHome, gin.H{
		"posts": latest,
	})
}

func (h *PostsHandler) Profile(ctx *gin.Context) {
	u, err := h.users.GetByUsername(ctx.Request.Context(), ctx.Param("username"))

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			h.views.RespondNotFound(ctx)
			return
		}

		h.views.RespondInternal(ctx, fmt.Errorf("profile user: %w", err))
		return
	}

	list, err := h.posts.ByAuthor(ctx.Request.Context(), u.ID)

	if err != nil {
		h.views.RespondInternal(ctx, fmt.Errorf("profile posts: %w", err))
		return
	}

	h.views.Page(ctx, http.StatusOK, ViewProfile, gin.H{
		"user":  u,
		"posts": list,
	})
}
