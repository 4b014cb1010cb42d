package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/awatson1978/personal-health-record-sub000/internal/config"
	"github.com/awatson1978/personal-health-record-sub000/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUserID   = "auth_user_id"
	ContextKeyUsername = "auth_username"
	ContextKeyAuthType = "auth_type"
)

// AuthType indicates how the user was authenticated
type AuthType string

const (
	AuthTypeNone   AuthType = "none"
	AuthTypeBearer AuthType = "bearer"
)

// TokenLookup finds the account owning an API token.
type TokenLookup interface {
	GetUserByToken(ctx context.Context, token string) (*entities.User, error)
}

// Middleware handles authentication for HTTP requests.
type Middleware struct {
	users         TokenLookup
	mode          config.AuthMode
	defaultUserID uint
	publicPaths   map[string]bool
}

// NewMiddleware creates a new authentication middleware. defaultUserID is
// the account every request uses in "none" mode.
func NewMiddleware(users TokenLookup, mode config.AuthMode, defaultUserID uint) *Middleware {
	return &Middleware{
		users:         users,
		mode:          mode,
		defaultUserID: defaultUserID,
		publicPaths: map[string]bool{
			"/health": true,
			"/ping":   true,
		},
	}
}

// Handler returns a Gin middleware handler that authenticates requests.
func (m *Middleware) Handler() gin.HandlerFunc {
	if m.mode != config.AuthModeToken {
		return m.noAuthHandler()
	}
	return m.tokenHandler()
}

func (m *Middleware) noAuthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyUserID, m.defaultUserID)
		c.Set(ContextKeyAuthType, AuthTypeNone)
		c.Next()
	}
}

func (m *Middleware) tokenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.publicPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		user := m.tryBearerAuth(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		c.Set(ContextKeyUserID, user.ID)
		c.Set(ContextKeyUsername, user.Username)
		c.Set(ContextKeyAuthType, AuthTypeBearer)
		c.Next()
	}
}

// tryBearerAuth attempts to authenticate using Bearer token.
func (m *Middleware) tryBearerAuth(c *gin.Context) *entities.User {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return nil
	}

	user, err := m.users.GetUserByToken(c.Request.Context(), token)
	if err != nil {
		return nil
	}
	return user
}

// GetUserID retrieves the authenticated user's ID from the context.
// Returns 0 when no account was resolved.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return 0
}

// GetUsername retrieves the authenticated user's username from the context.
func GetUsername(c *gin.Context) string {
	if name, exists := c.Get(ContextKeyUsername); exists {
		if username, ok := name.(string); ok {
			return username
		}
	}
	return ""
}

// GetAuthType retrieves the authentication method used.
func GetAuthType(c *gin.Context) AuthType {
	if t, exists := c.Get(ContextKeyAuthType); exists {
		if authType, ok := t.(AuthType); ok {
			return authType
		}
	}
	return AuthTypeNone
}
