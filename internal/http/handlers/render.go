package handlers

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/geocoder89/microblog/internal/domain/user"
	"github.com/geocoder89/microblog/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
)

const (
	ViewHome        = "home"
	ViewLogin       = "login"
	ViewRegister    = "register"
	ViewProfile     = "profile"
	ViewNotFound    = "404"
	ViewServerError = "500"
)

var allViews = []string{ViewHome, ViewLogin, ViewRegister, ViewProfile, ViewNotFound, ViewServerError}

// Renderer turns a view name and its view-model into a response body.
type Renderer interface {
	Render(ctx *gin.Context, status int, view string, data gin.H)
}

//go:embed templates/*.html
var templateFS embed.FS

// TemplateRenderer renders the embedded html/template views, each wrapped in base.html.
type TemplateRenderer struct {
	pages map[string]*template.Template
}

func NewTemplateRenderer() (*TemplateRenderer, error) {
	pages := make(map[string]*template.Template, len(allViews))

	for _, view := range allViews {
		t, err := template.ParseFS(templateFS, "templates/base.html", "templates/"+view+".html")

		if err != nil {
			return nil, fmt.Errorf("parse view %s: %w", view, err)
		}

		pages[view] = t
	}

	return &TemplateRenderer{pages: pages}, nil
}

func (r *TemplateRenderer) Render(ctx *gin.Context, status int, view string, data gin.H) {
	t, ok := r.pages[view]

	if !ok {
		ctx.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}

	ctx.Render(status, render.HTML{Template: t, Name: "base", Data: data})
}

type FlashSource interface {
	Flashes(ctx context.Context, r *http.Request) ([]string, error)
}

// Views decorates every page with the current user and pending flashes.
type Views struct {
	renderer Renderer
	flashes  FlashSource
	log      *slog.Logger
}

func NewViews(renderer Renderer, flashes FlashSource, log *slog.Logger) *Views {
	return &Views{renderer: renderer, flashes: flashes, log: log}
}

func (v *Views) Page(ctx *gin.Context, status int, view string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}

	flashes, err := v.flashes.Flashes(ctx.Request.Context(), ctx.Request)

	// a lost notice is not worth failing the page for
	if err != nil {
		v.log.WarnContext(ctx.Request.Context(), "could not read flashes", "err", err, "request_id", requestIDFrom(ctx))
	}

	data["flashes"] = flashes
	data["current_user"] = currentUser(ctx)

	v.renderer.Render(ctx, status, view, data)
}

func currentUser(ctx *gin.Context) *user.User {
	return session.PrincipalFrom(ctx.Request.Context()).User
}
