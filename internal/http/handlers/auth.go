package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/geocoder89/microblog/internal/domain/user"
	"github.com/geocoder89/microblog/internal/forms"
	"github.com/geocoder89/microblog/internal/observability"
	"github.com/geocoder89/microblog/internal/session"
	"github.com/gin-gonic/gin"
)

const (
	MsgInvalidCredentials = "Invalid username or password"
	MsgRegistered         = "Congrats! you are now registered"
)

type Authenticator interface {
	Login(ctx context.Context, w http.ResponseWriter, r *http.Request, username, password string, remember bool) (user.User, error)
	Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error
	AddFlash(ctx context.Context, w http.ResponseWriter, r *http.Request, msg string) error
}

type UserRegistrar interface {
	forms.UserLookup
	Create(ctx context.Context, username, email, passwordHash string) (user.User, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
}

type AuthHandler struct {
	views    *Views
	sessions Authenticator
	users    UserRegistrar
	hasher   PasswordHasher
	metrics  *observability.Prom
}

func NewAuthHandler(views *Views, sessions Authenticator, users UserRegistrar, hasher PasswordHasher, metrics *observability.Prom) *AuthHandler {
	return &AuthHandler{
		views:    views,
		sessions: sessions,
		users:    users,
		hasher:   hasher,
		metrics:  metrics,
	}
}

func (h *AuthHandler) LoginPage(ctx *gin.Context) {
	if currentUser(ctx) != nil {
		redirect(ctx, session.HomePath)
		return
	}

	h.renderLogin(ctx, forms.LoginForm{}, forms.Errors{})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	if currentUser(ctx) != nil {
		redirect(ctx, session.HomePath)
		return
	}

	if err := ctx.Request.ParseForm(); err != nil {
		h.renderLogin(ctx, forms.LoginForm{}, forms.Errors{"form": {"Could not read the submitted form."}})
		return
	}

	form := forms.ParseLogin(ctx.Request.PostForm)

	if errs := form.Validate(); !errs.Valid() {
		h.renderLogin(ctx, form, errs)
		return
	}

	// short timeout for the store round trips
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	next := ctx.Query("next")

	_, err := h.sessions.Login(cctx, ctx.Writer, ctx.Request, form.Username, form.Password, form.RememberMe)

	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			h.metrics.ObserveLogin("invalid")

			if err := h.sessions.AddFlash(cctx, ctx.Writer, ctx.Request, MsgInvalidCredentials); err != nil {
				h.views.RespondInternal(ctx, err)
				return
			}

			redirect(ctx, session.LoginURL(next))
			return
		}

		h.metrics.ObserveLogin("error")
		h.views.RespondInternal(ctx, err)
		return
	}

	h.metrics.ObserveLogin("ok")

	redirect(ctx, session.SafeNext(next))
}

func (h *AuthHandler) RegisterPage(ctx *gin.Context) {
	if currentUser(ctx) != nil {
		redirect(ctx, session.HomePath)
		return
	}

	h.renderRegister(ctx, forms.RegistrationForm{}, forms.Errors{})
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	if currentUser(ctx) != nil {
		redirect(ctx, session.HomePath)
		return
	}

	if err := ctx.Request.ParseForm(); err != nil {
		h.renderRegister(ctx, forms.RegistrationForm{}, forms.Errors{"form": {"Could not read the submitted form."}})
		return
	}

	form := forms.ParseRegistration(ctx.Request.PostForm)

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	errs, err := form.Validate(cctx, h.users)

	if err != nil {
		h.views.RespondInternal(ctx, fmt.Errorf("validate registration: %w", err))
		return
	}

	if !errs.Valid() {
		h.renderRegister(ctx, form, errs)
		return
	}

	hash, err := h.hasher.Hash(form.Password)

	if err != nil {
		h.views.RespondInternal(ctx, fmt.Errorf("hash password: %w", err))
		return
	}

	_, err = h.users.Create(cctx, form.Username, form.Email, hash)

	if err != nil {
		// lost a race with another registration since validation
		switch {
		case errors.Is(err, user.ErrUsernameTaken):
			errs.Add("username", forms.MsgUsernameTaken)
			h.renderRegister(ctx, form, errs)
		case errors.Is(err, user.ErrEmailTaken):
			errs.Add("email", forms.MsgEmailTaken)
			h.renderRegister(ctx, form, errs)
		default:
			h.views.RespondInternal(ctx, fmt.Errorf("create user: %w", err))
		}
		return
	}

	h.metrics.ObserveRegistration()

	if err := h.sessions.AddFlash(cctx, ctx.Writer, ctx.Request, MsgRegistered); err != nil {
		h.views.log.WarnContext(cctx, "could not queue registration notice", "err", err, "request_id", requestIDFrom(ctx))
	}

	redirect(ctx, session.LoginPath)
}

func (h *AuthHandler) Logout(ctx *gin.Context) {
	if err := h.sessions.Logout(ctx.Request.Context(), ctx.Writer, ctx.Request); err != nil {
		h.views.RespondInternal(ctx, fmt.Errorf("logout: %w", err))
		return
	}

	redirect(ctx, session.HomePath)
}

// passwords are never echoed back into the page
func (h *AuthHandler) renderLogin(ctx *gin.Context, form forms.LoginForm, errs forms.Errors) {
	form.Password = ""

	h.views.Page(ctx, http.StatusOK, ViewLogin, gin.H{
		"form":   form,
		"errors": errs,
		"next":   ctx.Query("next"),
	})
}

func (h *AuthHandler) renderRegister(ctx *gin.Context, form forms.RegistrationForm, errs forms.Errors) {
	form.Password, form.Password2 = "", ""

	h.views.Page(ctx, http.StatusOK, ViewRegister, gin.H{
		"form":   form,
		"errors": errs,
	})
}
