package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/geocoder89/microblog/internal/config"
	"github.com/geocoder89/microblog/internal/http/handlers"
	"github.com/geocoder89/microblog/internal/http/middlewares"
	"github.com/geocoder89/microblog/internal/observability"
	"github.com/geocoder89/microblog/internal/security"
	"github.com/geocoder89/microblog/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// UserStore is everything the web layer needs from the credential store.
type UserStore interface {
	handlers.UserRegistrar
	session.UserStore
}

type Deps struct {
	Log      *slog.Logger
	Config   config.Config
	Users    UserStore
	Posts    handlers.PostReader
	Sessions *session.Manager
	Hasher   handlers.PasswordHasher
	Renderer handlers.Renderer

	// optional
	Metrics  *observability.Prom
	Gatherer prometheus.Gatherer
	Checks   []handlers.Check
}

// Route is one row of the route table. AuthRequired routes get RequireAuth in front.
type Route struct {
	Method       string
	Path         string
	Handler      gin.HandlerFunc
	AuthRequired bool
}

func Routes(auth *handlers.AuthHandler, posts *handlers.PostsHandler) []Route {
	return []Route{
		{Method: http.MethodGet, Path: "/", Handler: posts.Home, AuthRequired: true},
		{Method: http.MethodGet, Path: "/login", Handler: auth.LoginPage},
		{Method: http.MethodPost, Path: "/login", Handler: auth.Login},
		{Method: http.MethodGet, Path: "/register", Handler: auth.RegisterPage},
		{Method: http.MethodPost, Path: "/register", Handler: auth.Register},
		{Method: http.MethodGet, Path: "/logout", Handler: auth.Logout},
		{Method: http.MethodGet, Path: "/profile/:username", Handler: posts.Profile, AuthRequired: true},
	}
}

func NewRouter(d Deps) *gin.Engine {
	if d.Config.Env != "dev" && d.Config.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}

	if d.Hasher == nil {
		d.Hasher = security.Hasher{Cost: d.Config.BcryptCost}
	}

	views := handlers.NewViews(d.Renderer, d.Sessions, d.Log)

	r := gin.New()

	// interceptors, in order, before every handler

	r.Use(gin.CustomRecovery(func(ctx *gin.Context, recovered any) {
		views.RespondInternal(ctx, fmt.Errorf("panic: %v", recovered))
	}))
	r.Use(middlewares.RequestID())

	if d.Config.OTelEnabled {
		r.Use(otelgin.Middleware(observability.ServiceName))
	}

	r.Use(d.Metrics.GinHandleMiddleware())
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.MaxBodyBytes(d.Config.MaxBodyBytes))

	// infrastructure endpoints sit outside the session machinery
	h := handlers.NewHealthHandler(d.Checks...)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	authHandler := handlers.NewAuthHandler(views, d.Sessions, d.Users, d.Hasher, d.Metrics)
	postsHandler := handlers.NewPostsHandler(views, d.Posts, d.Users)

	pages := r.Group("/")
	pages.Use(middlewares.NoStore())
	pages.Use(middlewares.LoadPrincipal(d.Sessions, views.RespondInternal))

	for _, rt := range Routes(authHandler, postsHandler) {
		chain := []gin.HandlerFunc{rt.Handler}

		if rt.AuthRequired {
			chain = append([]gin.HandlerFunc{middlewares.RequireAuth()}, chain...)
		}

		pages.Handle(rt.Method, rt.Path, chain...)
	}

	r.NoRoute(middlewares.LoadPrincipal(d.Sessions, views.RespondInternal), views.RespondNotFound)

	return r
}
