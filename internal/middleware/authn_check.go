package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenVerifier checks a Firebase ID token. *auth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// SessionStore caches token to uid lookups.
type SessionStore interface {
	Lookup(ctx context.Context, token string) (string, bool, error)
	Remember(ctx context.Context, token, uid string, expiresAt time.Time) error
}

const bearerPrefix = "Bearer "

// Authenticator resolves the uid behind a bearer token, trying the session
// cache before Firebase.
type Authenticator struct {
	verifier TokenVerifier
	sessions SessionStore
	logger   *zap.SugaredLogger
}

func NewAuthenticator(verifier TokenVerifier, sessions SessionStore, logger *zap.SugaredLogger) *Authenticator {
	return &Authenticator{verifier: verifier, sessions: sessions, logger: logger}
}

func (a *Authenticator) resolve(ctx context.Context, token string) (string, bool) {
	if uid, ok, err := a.sessions.Lookup(ctx, token); err != nil {
		a.logger.Warnw("session cache lookup failed", "error", err)
	} else if ok {
		return uid, true
	}

	idToken, err := a.verifier.VerifyIDToken(ctx, token)
	if err != nil {
		return "", false
	}

	if err := a.sessions.Remember(ctx, token, idToken.UID, time.Unix(idToken.Expires, 0)); err != nil {
		a.logger.Warnw("session cache write failed", "error", err, "user_uid", idToken.UID)
	}
	return idToken.UID, true
}

// AuthMiddleware requires a valid bearer token and sets user context
func AuthMiddleware(a *Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, bearerPrefix) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must start with 'Bearer '"})
			c.Abort()
			return
		}

		token := strings.TrimPrefix(authHeader, bearerPrefix)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is required"})
			c.Abort()
			return
		}

		uid, ok := a.resolve(c.Request.Context(), token)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		// Set user UID in context for use in handlers
		c.Set("uid", uid)
		c.Next()
	}
}

// OptionalAuthMiddleware sets user context when a valid bearer token is
// present and lets every other request through anonymously.
func OptionalAuthMiddleware(a *Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, found := strings.CutPrefix(c.GetHeader("Authorization"), bearerPrefix)
		if found && token != "" {
			if uid, ok := a.resolve(c.Request.Context(), token); ok {
				c.Set("uid", uid)
			}
		}
		c.Next()
	}
}
