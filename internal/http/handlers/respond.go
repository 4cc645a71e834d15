package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get("request_id")

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

// RespondNotFound renders the not-found page with status 404.
func (v *Views) RespondNotFound(ctx *gin.Context) {
	v.renderer.Render(ctx, http.StatusNotFound, ViewNotFound, gin.H{
		"current_user": currentUser(ctx),
	})
	ctx.Abort()
}

// RespondInternal logs err and renders the generic error page with status 500.
// Nothing about err reaches the client.
func (v *Views) RespondInternal(ctx *gin.Context, err error) {
	v.log.ErrorContext(ctx.Request.Context(), "request failed",
		"err", err,
		"method", ctx.Request.Method,
		"path", ctx.Request.URL.Path,
		"request_id", requestIDFrom(ctx),
	)

	v.renderer.Render(ctx, http.StatusInternalServerError, ViewServerError, gin.H{
		"request_id":   requestIDFrom(ctx),
		"current_user": currentUser(ctx),
	})
	ctx.Abort()
}

func redirect(ctx *gin.Context, location string) {
	ctx.Redirect(http.StatusFound, location)
	ctx.Abort()
}
