// Package session issues the anonymous cookie that keys a visitor's cart.
package session

import (
	"context"
	"net/http"

	"github.com/example/restaurant/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ctxKey struct{}

func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IDFromContext returns "" when the request passed through no session middleware.
func IDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Middleware reuses a well-formed session cookie or issues a new one, then
// stores the id on the request context.
func Middleware(cfg *config.SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(cfg.CookieName)
		if err != nil || uuid.Validate(id) != nil {
			id = uuid.NewString()
		}
		// refresh on every request so MaxAge slides with activity
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     cfg.CookieName,
			Value:    id,
			Path:     "/",
			MaxAge:   int(cfg.MaxAge.Seconds()),
			Secure:   cfg.Secure,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		c.Request = c.Request.WithContext(WithID(c.Request.Context(), id))
		c.Next()
	}
}
