package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	SessionCookieName = "masset_session"

	keyUserID = "user_id"
	keyEmail  = "email"
	keyName   = "name"
	keyRole   = "role"
)

// Session is the authenticated identity of a request. Handlers resolve it once
// at entry and pass it to services explicitly.
type Session struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role"`
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

// SessionStore installs the signed-cookie session middleware.
func SessionStore(secret string, secure bool) gin.HandlerFunc {
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(RefreshTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sessions.Sessions(SessionCookieName, store)
}

// Resolver turns request state (session cookie or bearer token) into a *Session.
type Resolver struct {
	jwtSecret string
}

func NewResolver(jwtSecret string) *Resolver {
	return &Resolver{jwtSecret: jwtSecret}
}

// Resolve returns nil when the request carries no valid identity.
func (r *Resolver) Resolve(c *gin.Context) *Session {
	if s := fromCookie(c); s != nil {
		return s
	}
	return r.fromBearer(c)
}

func fromCookie(c *gin.Context) *Session {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return nil
	}
	store := sessions.Default(c)
	userID, _ := store.Get(keyUserID).(string)
	if userID == "" {
		return nil
	}
	email, _ := store.Get(keyEmail).(string)
	name, _ := store.Get(keyName).(string)
	role, _ := store.Get(keyRole).(string)
	return &Session{UserID: userID, Email: email, Name: name, Role: role}
}

func (r *Resolver) fromBearer(c *gin.Context) *Session {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.TrimSpace(parts[0]) != "Bearer" {
		return nil
	}

	claims, err := ValidateToken(strings.TrimSpace(parts[1]), r.jwtSecret)
	if err != nil || claims.TokenType != "access" {
		return nil
	}
	return &Session{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}
}

var errNoSessionStore = errors.New("session middleware not installed")

func StartSession(c *gin.Context, s Session) error {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return errNoSessionStore
	}
	store := sessions.Default(c)
	store.Set(keyUserID, s.UserID)
	store.Set(keyEmail, s.Email)
	store.Set(keyName, s.Name)
	store.Set(keyRole, s.Role)
	return store.Save()
}

func EndSession(c *gin.Context) error {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return errNoSessionStore
	}
	store := sessions.Default(c)
	store.Clear()
	store.Options(sessions.Options{Path: "/", MaxAge: -1})
	return store.Save()
}
