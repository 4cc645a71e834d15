// Package session tracks the authenticated principal across requests.
//
// A request is either anonymous or bound to exactly one user through a
// server-side Record referenced by the session cookie. Login moves the
// browser to the authenticated state with a fresh record id, Logout drops
// the record and the cookie. Neither state is terminal.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/geocoder89/microblog/internal/domain/user"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrInvalidCredentials covers both an unknown username and a wrong password.
var ErrInvalidCredentials = errors.New("invalid username or password")

const DefaultCookieName = "session"

var tracer = otel.Tracer("github.com/geocoder89/microblog/internal/session")

// UserStore is the part of the credential store the session manager needs.
type UserStore interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByUsername(ctx context.Context, username string) (user.User, error)
	TouchLastSeen(ctx context.Context, id string, at time.Time) error
}

type PasswordVerifier interface {
	Check(hash, plain string) error
}

type Options struct {
	CookieName string
	// Secure marks the cookie https-only.
	Secure bool
	// SessionTTL is the server-side lifetime of a session without remember-me.
	SessionTTL time.Duration
	// RememberTTL is the lifetime of both the record and the persisted cookie with remember-me.
	RememberTTL time.Duration
}

type Manager struct {
	users    UserStore
	store    Store
	verifier PasswordVerifier
	opts     Options
	now      func() time.Time
}

func NewManager(users UserStore, store Store, verifier PasswordVerifier, opts Options) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}

	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 12 * time.Hour
	}

	if opts.RememberTTL <= 0 {
		opts.RememberTTL = 365 * 24 * time.Hour
	}

	return &Manager{
		users:    users,
		store:    store,
		verifier: verifier,
		opts:     opts,
		now:      time.Now,
	}
}

// Resolve returns the principal bound to the request's session cookie.
// A missing cookie, an expired record or a deleted user all resolve to
// Anonymous; only store failures are returned as errors.
func (m *Manager) Resolve(ctx context.Context, r *http.Request) (Principal, error) {
	rec, err := m.current(ctx, r)

	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return Anonymous, nil
		}
		return Anonymous, err
	}

	if rec.UserID == "" {
		return Anonymous, nil
	}

	u, err := m.users.GetByID(ctx, rec.UserID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Anonymous, nil
		}
		return Anonymous, fmt.Errorf("load session user: %w", err)
	}

	return Principal{User: &u}, nil
}

// Touch records that u was just seen. Concurrent requests race and the last write wins.
func (m *Manager) Touch(ctx context.Context, u *user.User) error {
	now := m.now().UTC()

	if err := m.users.TouchLastSeen(ctx, u.ID, now); err != nil {
		return fmt.Errorf("touch last seen: %w", err)
	}

	u.LastSeen = &now

	return nil
}

// Login verifies the credentials and binds a new session to the user.
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, r *http.Request, username, password string, remember bool) (user.User, error) {
	ctx, span := tracer.Start(ctx, "session.Login")
	defer span.End()

	u, err := m.users.GetByUsername(ctx, username)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			span.SetAttributes(attribute.String("login.result", "invalid"))
			return user.User{}, ErrInvalidCredentials
		}

		span.SetStatus(codes.Error, "user lookup failed")
		return user.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := m.verifier.Check(u.PasswordHash, password); err != nil {
		span.SetAttributes(attribute.String("login.result", "invalid"))
		return user.User{}, ErrInvalidCredentials
	}

	// never reuse an id issued before authentication
	if err := m.dropCurrent(ctx, r); err != nil {
		return user.User{}, err
	}

	ttl := m.opts.SessionTTL
	if remember {
		ttl = m.opts.RememberTTL
	}

	rec := Record{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Remember:  remember,
		ExpiresAt: m.now().Add(ttl),
	}

	if err := m.store.Save(ctx, rec); err != nil {
		return user.User{}, fmt.Errorf("save session: %w", err)
	}

	m.setCookie(w, rec)

	span.SetAttributes(attribute.String("login.result", "ok"), attribute.Bool("login.remember", remember))

	return u, nil
}

// Logout forgets the session. Calling it without a session is not an error.
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := m.dropCurrent(ctx, r); err != nil {
		return err
	}

	m.clearCookie(w)

	return nil
}

// AddFlash queues a one-time notice for the next rendered page. Anonymous
// visitors without a session get a short-lived record holding only flashes.
func (m *Manager) AddFlash(ctx context.Context, w http.ResponseWriter, r *http.Request, msg string) error {
	rec, err := m.current(ctx, r)

	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			return err
		}

		rec = Record{
			ID:        uuid.NewString(),
			ExpiresAt: m.now().Add(m.opts.SessionTTL),
		}
		m.setCookie(w, rec)
	}

	rec.Flashes = append(rec.Flashes, msg)

	if err := m.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("save flash: %w", err)
	}

	return nil
}

// Flashes returns and clears the queued notices.
func (m *Manager) Flashes(ctx context.Context, r *http.Request) ([]string, error) {
	rec, err := m.current(ctx, r)

	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil, nil
		}
		return nil, err
	}

	if len(rec.Flashes) == 0 {
		return nil, nil
	}

	flashes := rec.Flashes
	rec.Flashes = nil

	if err := m.store.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("clear flashes: %w", err)
	}

	return flashes, nil
}

func (m *Manager) current(ctx context.Context, r *http.Request) (Record, error) {
	c, err := r.Cookie(m.opts.CookieName)

	if err != nil || c.Value == "" {
		return Record{}, ErrNoSession
	}

	return m.store.Load(ctx, c.Value)
}

func (m *Manager) dropCurrent(ctx context.Context, r *http.Request) error {
	c, err := r.Cookie(m.opts.CookieName)

	if err != nil || c.Value == "" {
		return nil
	}

	if err := m.store.Delete(ctx, c.Value); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

func (m *Manager) setCookie(w http.ResponseWriter, rec Record) {
	c := &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    rec.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	// without remember-me the cookie dies with the browser
	if rec.Remember {
		c.MaxAge = int(m.opts.RememberTTL.Seconds())
		c.Expires = rec.ExpiresAt.UTC()
	}

	http.SetCookie(w, c)
}

func (m *Manager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
