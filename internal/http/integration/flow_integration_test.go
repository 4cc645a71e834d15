package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/microblog/internal/config"
	apphttp "github.com/geocoder89/microblog/internal/http"
	"github.com/geocoder89/microblog/internal/http/handlers"
	"github.com/geocoder89/microblog/internal/observability"
	"github.com/geocoder89/microblog/internal/repo/memory"
	"github.com/geocoder89/microblog/internal/security"
	"github.com/geocoder89/microblog/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type app struct {
	srv   *httptest.Server
	users *memory.UsersRepo
	posts *memory.PostsRepo
}

func testConfig() config.Config {
	return config.Config{
		Env:            "test",
		Store:          config.StoreMemory,
		SessionStore:   config.StoreMemory,
		SessionTTL:     time.Hour,
		RememberTTL:    24 * time.Hour,
		BcryptCost:     bcrypt.MinCost,
		MaxBodyBytes:   64 << 10,
		MetricsEnabled: true,
	}
}

func setupApp(t *testing.T) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	users := memory.NewUsersRepo()
	posts := memory.NewPostsRepo(users)
	store := session.NewMemoryStore()
	hasher := security.Hasher{Cost: cfg.BcryptCost}

	renderer, err := handlers.NewTemplateRenderer()
	require.NoError(t, err)

	reg := prometheus.NewRegistry()

	router := apphttp.NewRouter(apphttp.Deps{
		Log:      logger,
		Config:   cfg,
		Users:    users,
		Posts:    posts,
		Sessions: session.NewManager(users, store, hasher, session.Options{SessionTTL: cfg.SessionTTL, RememberTTL: cfg.RememberTTL}),
		Hasher:   hasher,
		Renderer: renderer,
		Metrics:  observability.NewProm(reg),
		Gatherer: reg,
		Checks:   []handlers.Check{{Name: "db", Ping: users.Ping}},
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &app{srv: srv, users: users, posts: posts}
}

// newBrowser returns a client that keeps cookies and does not follow redirects.
func newBrowser(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

type page struct {
	status   int
	location string
	body     string
	header   http.Header
}

func get(t *testing.T, c *http.Client, a *app, path string) page {
	t.Helper()

	res, err := c.Get(a.srv.URL + path)
	require.NoError(t, err)

	return read(t, res)
}

func post(t *testing.T, c *http.Client, a *app, path string, form url.Values) page {
	t.Helper()

	res, err := c.PostForm(a.srv.URL+path, form)
	require.NoError(t, err)

	return read(t, res)
}

func read(t *testing.T, res *http.Response) page {
	t.Helper()
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	return page{
		status:   res.StatusCode,
		location: res.Header.Get("Location"),
		body:     string(b),
		header:   res.Header,
	}
}

func registration(username, email, password string) url.Values {
	return url.Values{
		"username":  {username},
		"email":     {email},
		"password":  {password},
		"password2": {password},
	}
}

func credentials(username, password string) url.Values {
	return url.Values{"username": {username}, "password": {password}}
}

func TestFlow_RegisterLoginBrowse(t *testing.T) {
	a := setupApp(t)
	browser := newBrowser(t)

	// anonymous visitors are sent to login with the page they wanted
	p := get(t, browser, a, "/")
	assert.Equal(t, http.StatusFound, p.status)
	assert.Equal(t, "/login?next=/", p.location)

	p = post(t, browser, a, "/register", registration("alice", "alice@x.com", "password1"))
	require.Equal(t, http.StatusFound, p.status, p.body)
	assert.Equal(t, "/login", p.location)

	alice, err := a.users.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.NotEqual(t, "password1", alice.PasswordHash)

	// registration notice shows once
	p = get(t, browser, a, "/login")
	assert.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, handlers.MsgRegistered)

	p = get(t, browser, a, "/login")
	assert.NotContains(t, p.body, handlers.MsgRegistered)

	p = post(t, browser, a, "/login", credentials("alice", "password1"))
	require.Equal(t, http.StatusFound, p.status, p.body)
	assert.Equal(t, "/", p.location)

	p = get(t, browser, a, "/")
	assert.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, "Hi, alice!")
	assert.Equal(t, "no-store", p.header.Get("Cache-Control"))

	p = get(t, browser, a, "/profile/alice")
	assert.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, "User: alice")
	assert.Contains(t, p.body, "Last seen on")

	p = get(t, browser, a, "/profile/bob")
	assert.Equal(t, http.StatusNotFound, p.status)
	assert.Contains(t, p.body, "File Not Found")

	// every authenticated request refreshes last-seen
	alice, err = a.users.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, alice.LastSeen)
	assert.WithinDuration(t, time.Now(), *alice.LastSeen, time.Minute)

	// already signed in
	p = get(t, browser, a, "/login")
	assert.Equal(t, http.StatusFound, p.status)
	assert.Equal(t, "/", p.location)

	p = get(t, browser, a, "/logout")
	assert.Equal(t, http.StatusFound, p.status)
	assert.Equal(t, "/", p.location)

	p = get(t, browser, a, "/logout")
	assert.Equal(t, http.StatusFound, p.status)

	p = get(t, browser, a, "/")
	assert.Equal(t, "/login?next=/", p.location)
}

func TestFlow_HomeShowsFiveLatestPosts(t *testing.T) {
	a := setupApp(t)
	browser := newBrowser(t)

	post(t, browser, a, "/register", registration("alice", "alice@x.com", "password1"))

	alice, err := a.users.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)

	for _, body := range []string{"first", "second", "third", "fourth", "fifth", "sixth"} {
		_, err := a.posts.Create(context.Background(), alice.ID, "post "+body)
		require.NoError(t, err)
	}

	post(t, browser, a, "/login", credentials("alice", "password1"))

	p := get(t, browser, a, "/")
	require.Equal(t, http.StatusOK, p.status)

	assert.Equal(t, 5, strings.Count(p.body, `class="post"`))
	assert.Contains(t, p.body, "post sixth")
	assert.NotContains(t, p.body, "post first")
	assert.Less(t, strings.Index(p.body, "post sixth"), strings.Index(p.body, "post second"))

	// the profile lists every post by the author
	p = get(t, browser, a, "/profile/alice")
	assert.Equal(t, 6, strings.Count(p.body, `class="post"`))
}

func TestFlow_LoginFailuresAndNext(t *testing.T) {
	a := setupApp(t)
	setup := newBrowser(t)
	post(t, setup, a, "/register", registration("alice", "alice@x.com", "password1"))

	t.Run("wrong_password_keeps_next", func(t *testing.T) {
		browser := newBrowser(t)

		p := post(t, browser, a, "/login?next=/profile/alice", credentials("alice", "wrong-pass"))
		assert.Equal(t, http.StatusFound, p.status)
		assert.Equal(t, "/login?next=/profile/alice", p.location)

		p = get(t, browser, a, p.location)
		assert.Contains(t, p.body, handlers.MsgInvalidCredentials)

		p = get(t, browser, a, "/")
		assert.Equal(t, http.StatusFound, p.status)
	})

	t.Run("unknown_user_looks_the_same", func(t *testing.T) {
		browser := newBrowser(t)

		p := post(t, browser, a, "/login", credentials("nobody", "password1"))
		assert.Equal(t, http.StatusFound, p.status)
		assert.Equal(t, "/login", p.location)

		p = get(t, browser, a, p.location)
		assert.Contains(t, p.body, handlers.MsgInvalidCredentials)
	})

	t.Run("local_next_is_followed", func(t *testing.T) {
		browser := newBrowser(t)

		p := post(t, browser, a, "/login?next=/profile/alice", credentials("alice", "password1"))
		assert.Equal(t, "/profile/alice", p.location)
	})

	t.Run("offsite_next_is_ignored", func(t *testing.T) {
		for _, next := range []string{
			"http://evil.example/",
			"//evil.example/",
			"/\\evil.example",
			"\\\\evil.example/x",
			"\\/evil.example/x",
		} {
			browser := newBrowser(t)

			p := post(t, browser, a, "/login?next="+url.QueryEscape(next), credentials("alice", "password1"))
			assert.Equal(t, "/", p.location, next)
		}
	})

	t.Run("empty_fields_rerender", func(t *testing.T) {
		browser := newBrowser(t)

		p := post(t, browser, a, "/login", credentials("", ""))
		assert.Equal(t, http.StatusOK, p.status)
		assert.Contains(t, p.body, "This field is required.")
	})
}

func TestFlow_RememberMe(t *testing.T) {
	a := setupApp(t)
	browser := newBrowser(t)
	post(t, browser, a, "/register", registration("alice", "alice@x.com", "password1"))

	form := credentials("alice", "password1")
	form.Set("remember_me", "y")

	res, err := browser.PostForm(a.srv.URL+"/login", form)
	require.NoError(t, err)
	res.Body.Close()

	var found *http.Cookie
	for _, c := range res.Cookies() {
		if c.Name == session.DefaultCookieName {
			found = c
		}
	}

	require.NotNil(t, found)
	assert.Equal(t, int((24 * time.Hour).Seconds()), found.MaxAge)
	assert.True(t, found.HttpOnly)
}

func TestFlow_RegistrationErrors(t *testing.T) {
	a := setupApp(t)
	browser := newBrowser(t)
	post(t, browser, a, "/register", registration("alice", "alice@x.com", "password1"))

	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{name: "username_taken", form: registration("alice", "other@x.com", "password1"), want: "Please use a different username."},
		{name: "email_taken", form: registration("bob", "alice@x.com", "password1"), want: "Please use a different email address."},
		{name: "short_username", form: registration("al", "al@x.com", "password1"), want: "Username must be between 3 and 15 characters long."},
		{name: "bad_email", form: registration("bob", "not-an-email", "password1"), want: "Invalid email address."},
		{
			name: "mismatch",
			form: url.Values{"username": {"bob"}, "email": {"bob@x.com"}, "password": {"password1"}, "password2": {"password2"}},
			want: "Password mismatch",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			p := post(t, newBrowser(t), a, "/register", tt.form)

			assert.Equal(t, http.StatusOK, p.status)
			assert.Contains(t, p.body, tt.want)
			assert.NotContains(t, p.body, "password1")
		})
	}

	_, err := a.users.GetByUsername(context.Background(), "bob")
	assert.Error(t, err)
}

func TestFlow_InfrastructureEndpoints(t *testing.T) {
	a := setupApp(t)
	browser := newBrowser(t)

	p := get(t, browser, a, "/healthz")
	assert.Equal(t, http.StatusOK, p.status)

	p = get(t, browser, a, "/readyz")
	assert.Equal(t, http.StatusOK, p.status)

	post(t, browser, a, "/login", credentials("nobody", "password1"))

	p = get(t, browser, a, "/metrics")
	assert.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, `microblog_auth_login_attempts_total{result="invalid"} 1`)

	// unknown paths get the html not-found page
	p = get(t, browser, a, "/no/such/page")
	assert.Equal(t, http.StatusNotFound, p.status)
	assert.Contains(t, p.body, "File Not Found")
}
