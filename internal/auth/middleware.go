package auth

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aadrigaar/portal-productos/internal/domain"
	"github.com/aadrigaar/portal-productos/pkg/response"
)

const (
	UserIDKey     = "user_id"
	UsernameKey   = "username"
	EmailKey      = "email"
	RoleKey       = "role"
	IdentityKey   = "identity"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// Middleware guards HTTP routes with bearer-credential verification.
type Middleware struct {
	verifier *Verifier
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(verifier *Verifier) *Middleware {
	return &Middleware{verifier: verifier}
}

// RequireAuth verifies the bearer credential and binds the identity to
// the request context.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := m.verify(c)
		if err != nil {
			response.Unauthorized(c, authErrorMessage(err))
			c.Abort()
			return
		}

		bind(c, identity)
		c.Next()
	}
}

// RequireAdmin verifies the credential and additionally demands the
// admin role.
func (m *Middleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := m.verify(c)
		if err != nil {
			response.Unauthorized(c, authErrorMessage(err))
			c.Abort()
			return
		}

		if !identity.IsAdmin() {
			response.Forbidden(c, "admin privileges required")
			c.Abort()
			return
		}

		bind(c, identity)
		c.Next()
	}
}

// OptionalAuth binds an identity when a valid credential is present but
// lets the request through either way. Used by the GraphQL endpoint,
// where individual resolvers enforce their own auth rules.
func (m *Middleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if identity, err := m.verify(c); err == nil {
			bind(c, identity)
		}
		c.Next()
	}
}

func (m *Middleware) verify(c *gin.Context) (*domain.Identity, error) {
	authHeader := c.GetHeader(AuthHeaderKey)
	if authHeader == "" {
		return nil, ErrMissingCredential
	}
	if !strings.HasPrefix(authHeader, BearerPrefix) {
		return nil, ErrInvalidCredential
	}

	token := strings.TrimPrefix(authHeader, BearerPrefix)
	return m.verifier.Verify(c.Request.Context(), token)
}

func bind(c *gin.Context, identity *domain.Identity) {
	c.Set(UserIDKey, identity.ID)
	c.Set(UsernameKey, identity.Username)
	c.Set(EmailKey, identity.Email)
	c.Set(RoleKey, identity.Role)
	c.Set(IdentityKey, *identity)
}

func authErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingCredential):
		return "access token required"
	case errors.Is(err, ErrIdentityNotFound):
		return "user not found"
	default:
		return "invalid or expired token"
	}
}

// GetIdentity extracts the bound identity from the Gin context.
func GetIdentity(c *gin.Context) (domain.Identity, bool) {
	if v, exists := c.Get(IdentityKey); exists {
		if id, ok := v.(domain.Identity); ok {
			return id, true
		}
	}
	return domain.Identity{}, false
}

// GetUserID extracts the user ID from the Gin context.
func GetUserID(c *gin.Context) string {
	if id, exists := c.Get(UserIDKey); exists {
		return id.(string)
	}
	return ""
}

// GetUsername extracts the username from the Gin context.
func GetUsername(c *gin.Context) string {
	if username, exists := c.Get(UsernameKey); exists {
		return username.(string)
	}
	return ""
}

// GetRole extracts the role from the Gin context.
func GetRole(c *gin.Context) string {
	if role, exists := c.Get(RoleKey); exists {
		return role.(string)
	}
	return ""
}
