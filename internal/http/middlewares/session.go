package middlewares

import (
	"context"
	"net/http"

	"github.com/geocoder89/microblog/internal/domain/user"
	"github.com/geocoder89/microblog/internal/session"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type PrincipalResolver interface {
	Resolve(ctx context.Context, r *http.Request) (session.Principal, error)
	Touch(ctx context.Context, u *user.User) error
}

// FailFunc renders an unrecoverable error and aborts the chain.
type FailFunc func(ctx *gin.Context, err error)

// LoadPrincipal resolves the session once per request and stores the principal
// on the request context. For an authenticated user last-seen is updated here,
// before any route handler runs.
func LoadPrincipal(resolver PrincipalResolver, fail FailFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqCtx := c.Request.Context()

		p, err := resolver.Resolve(reqCtx, c.Request)

		if err != nil {
			fail(c, err)
			return
		}

		if p.Authenticated() {
			err = resolver.Touch(reqCtx, p.User)

			if err != nil {
				fail(c, err)
				return
			}
		}

		c.Request = c.Request.WithContext(session.WithPrincipal(reqCtx, p))

		c.Next()
	}
}

// RequireAuth sends anonymous callers to the login page with the requested
// URI as the next target.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if session.PrincipalFrom(c.Request.Context()).Authenticated() {
			c.Next()
			return
		}

		c.Redirect(http.StatusFound, session.LoginURL(c.Request.URL.RequestURI()))
		c.Abort()
	}
}
