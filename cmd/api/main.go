package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/microblog/internal/config"
	"github.com/geocoder89/microblog/internal/db"
	httpx "github.com/geocoder89/microblog/internal/http"
	"github.com/geocoder89/microblog/internal/http/handlers"
	"github.com/geocoder89/microblog/internal/observability"
	"github.com/geocoder89/microblog/internal/redisclient"
	"github.com/geocoder89/microblog/internal/repo/memory"
	"github.com/geocoder89/microblog/internal/repo/postgres"
	"github.com/geocoder89/microblog/internal/security"
	"github.com/geocoder89/microblog/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if cfg.OTelEnabled {
		ctx, cancel := config.WithTimeout(5 * time.Second)
		shutdownTracer, err := observability.InitTracer(ctx, observability.TracerOptionsFromConfig(cfg))
		cancel()

		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}

		defer func() {
			ctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdownTracer(ctx)
		}()
	}

	var (
		metrics  *observability.Prom
		gatherer prometheus.Gatherer
	)

	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		metrics = observability.NewProm(reg)
		gatherer = reg
	}

	hasher := security.Hasher{Cost: cfg.BcryptCost}

	var (
		users  httpx.UserStore
		posts  handlers.PostReader
		checks []handlers.Check
	)

	switch cfg.Store {
	case config.StorePostgres:
		ctx, cancel := config.WithTimeout(10 * time.Second)
		pool, err := db.NewPool(ctx, db.PoolOptionsFromConfig(cfg))

		if err != nil {
			cancel()
			log.Error("db connect failed", "err", err)
			os.Exit(1)
		}

		err = db.EnsureSchema(ctx, pool)
		cancel()

		if err != nil {
			log.Error("db schema failed", "err", err)
			os.Exit(1)
		}

		defer pool.Close()

		users = postgres.NewUsersRepo(pool, metrics)
		posts = postgres.NewPostsRepo(pool, metrics)
		checks = append(checks, handlers.Check{Name: "db", Ping: pool.Ping})

	case config.StoreMemory:
		memUsers := memory.NewUsersRepo()
		memPosts := memory.NewPostsRepo(memUsers)

		if cfg.SeedDemo {
			seeded, err := db.EnsureDemoUser(context.Background(), memUsers, memPosts, hasher, cfg.DemoPassword)

			if err != nil {
				log.Error("demo seed failed", "err", err)
				os.Exit(1)
			}

			if seeded {
				log.Info("demo user created", "username", db.DemoUsername)
			}
		}

		users, posts = memUsers, memPosts

	default:
		log.Error("unknown store", "store", cfg.Store)
		os.Exit(1)
	}

	var store session.Store

	switch cfg.SessionStore {
	case config.StoreRedis:
		client := redisclient.New(redisclient.OptionsFromConfig(cfg))
		defer client.Close()

		store = session.NewRedisStore(client.Redis())
		checks = append(checks, handlers.Check{Name: "sessions", Ping: client.Ping})

	case config.StoreMemory:
		store = session.NewMemoryStore()

	default:
		log.Error("unknown session store", "session_store", cfg.SessionStore)
		os.Exit(1)
	}

	sessions := session.NewManager(users, store, hasher, session.Options{
		Secure:      cfg.IsProd(),
		SessionTTL:  cfg.SessionTTL,
		RememberTTL: cfg.RememberTTL,
	})

	renderer, err := handlers.NewTemplateRenderer()

	if err != nil {
		log.Error("templates failed", "err", err)
		os.Exit(1)
	}

	// set up routers with the log
	router := httpx.NewRouter(httpx.Deps{
		Log:      log,
		Config:   cfg,
		Users:    users,
		Posts:    posts,
		Sessions: sessions,
		Hasher:   hasher,
		Renderer: renderer,
		Metrics:  metrics,
		Gatherer: gatherer,
		Checks:   checks,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.Store, "session_store", cfg.SessionStore)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		err := srv.Shutdown(ctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)
			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
