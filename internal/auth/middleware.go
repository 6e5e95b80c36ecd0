package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nishant946/masset/internal/logger"
)

const contextSessionKey = "auth_session"

func wantsHTML(c *gin.Context) bool {
	return c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEHTML
}

// RequireSession rejects anonymous requests: browsers are redirected to
// /login, API clients get 401.
func RequireSession(r *Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := r.Resolve(c)
		if s == nil {
			if wantsHTML(c) {
				c.Redirect(http.StatusFound, "/login")
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			}
			c.Abort()
			return
		}
		SetSession(c, s)
		c.Next()
	}
}

func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, _ := GetSession(c)
		decision := Authorize(s, requiredRole)
		if !decision.Allowed() {
			status := http.StatusForbidden
			if s == nil {
				status = http.StatusUnauthorized
			}
			c.JSON(status, gin.H{"success": false, "message": decision.Reason})
			c.Abort()
			return
		}
		c.Next()
	}
}

// ErrUnknownUser is returned by a RoleLookup when the account no longer exists.
var ErrUnknownUser = errors.New("unknown user")

// RoleLookup returns the role currently stored for userID.
type RoleLookup func(ctx context.Context, userID string) (string, error)

// ConfirmRole re-checks the session's role against lookup. Cookie sessions and
// access tokens carry the role they were issued with, so a demoted account
// would otherwise keep its old rights until expiry. Chain it after
// RequireRole to keep rejected claims away from the database.
func ConfirmRole(requiredRole string, lookup RoleLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, _ := GetSession(c)
		if s == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authentication required"})
			c.Abort()
			return
		}

		role, err := lookup(c.Request.Context(), s.UserID)
		if errors.Is(err, ErrUnknownUser) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authentication required"})
			c.Abort()
			return
		}
		if err != nil {
			logger.Error("Failed to confirm role", "user_id", s.UserID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to verify permissions"})
			c.Abort()
			return
		}

		current := *s
		current.Role = role
		if decision := Authorize(&current, requiredRole); !decision.Allowed() {
			logger.Warn("Stale role rejected", "user_id", s.UserID, "claimed", s.Role, "current", role)
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": decision.Reason})
			c.Abort()
			return
		}
		SetSession(c, &current)
		c.Next()
	}
}

// GetSession returns the session stored by RequireSession.
func GetSession(c *gin.Context) (*Session, bool) {
	v, exists := c.Get(contextSessionKey)
	if !exists {
		return nil, false
	}
	s, ok := v.(*Session)
	return s, ok
}

// SetSession attaches s to the request context for downstream handlers.
func SetSession(c *gin.Context, s *Session) {
	c.Set(contextSessionKey, s)
}
