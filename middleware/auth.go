package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"razorkart/internal/auth"
	"razorkart/pkg/ctxmanage"
	"razorkart/pkg/logkey"
)

// Authentication requires a valid bearer token and stores the verified
// claims on the request context under auth.ClaimsKey.
func (m *Mid) Authentication() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := ctxmanage.GetTraceIdOfRequest(c)

		claims, ok := m.parseBearer(c)
		if !ok {
			slog.Error("authentication failed", slog.String(logkey.TraceID, traceId))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		ctx := context.WithValue(c.Request.Context(), auth.ClaimsKey, claims)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// OptionalAuthentication attaches claims when a valid bearer token is
// present and continues anonymously otherwise. Listing endpoints use it so
// the visibility filter can scope results per identity.
func (m *Mid) OptionalAuthentication() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := m.parseBearer(c); ok {
			ctx := context.WithValue(c.Request.Context(), auth.ClaimsKey, claims)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// Authorize wraps a handler, permitting only the listed roles.
func (m *Mid) Authorize(next gin.HandlerFunc, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := ctxmanage.GetTraceIdOfRequest(c)

		claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
		if !ok {
			slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		for _, role := range roles {
			if claims.Role == role {
				next(c)
				return
			}
		}

		slog.Error("role not permitted", slog.String(logkey.TraceID, traceId),
			slog.String("Role", claims.Role))
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	}
}

func (m *Mid) parseBearer(c *gin.Context) (auth.Claims, bool) {
	header := c.Request.Header.Get("Authorization")
	if header == "" {
		return auth.Claims{}, false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return auth.Claims{}, false
	}

	claims, err := m.keys.ValidateToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return auth.Claims{}, false
	}
	return claims, true
}
