package auth

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var middlewareTracer = otel.Tracer("auth-middleware")

// SessionIDKey is the gin context key the middleware stores the session ID
// under.
const SessionIDKey = "session_id"

// RequireSession is a Gin middleware that validates session tokens. The
// token comes from the Authorization header, or from the `token` query
// parameter for WebSocket upgrades where headers are awkward to set.
func RequireSession(jwtManager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := middlewareTracer.Start(c.Request.Context(), "auth.require_session")
		defer span.End()

		token := extractToken(c)
		if token == "" {
			span.SetAttributes(attribute.Bool("auth.token_present", false))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing authorization header"})
			c.Abort()
			return
		}
		span.SetAttributes(attribute.Bool("auth.token_present", true))

		claims, err := jwtManager.ValidateToken(ctx, token)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.Bool("auth.token_valid", false))
			log.Printf(`{"level":"warn","message":"Invalid token","error":"%v"}`, err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		span.SetAttributes(
			attribute.Bool("auth.token_valid", true),
			attribute.String("session.id", claims.SessionID),
		)

		c.Set(SessionIDKey, claims.SessionID)
		c.Set("claims", claims)

		log.Printf(`{"level":"info","message":"Session authenticated","session_id":"%s","path":"%s","method":"%s"}`,
			claims.SessionID, c.Request.URL.Path, c.Request.Method)

		c.Next()
	}
}

// SessionID returns the authenticated session ID set by RequireSession.
func SessionID(c *gin.Context) string {
	return c.GetString(SessionIDKey)
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		const prefix = "Bearer "
		if len(header) >= len(prefix) && strings.HasPrefix(header, prefix) {
			return strings.TrimSpace(header[len(prefix):])
		}
		return ""
	}
	return c.Query("token")
}
