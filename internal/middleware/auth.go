package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/conflearn/backend/internal/auth"
	"github.com/conflearn/backend/internal/models"
	"github.com/conflearn/backend/pkg/response"
)

const (
	// ContextUser is the gin context key for the resolved user.
	ContextUser = "auth_user"
	// ContextAdmin is the gin context key for the resolved admin.
	ContextAdmin = "auth_admin"
)

// UserResolver resolves a user principal from a token subject ID.
type UserResolver interface {
	ResolveUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// AdminResolver resolves an admin principal from a token subject ID.
type AdminResolver interface {
	ResolveAdmin(ctx context.Context, id uuid.UUID) (*models.Admin, error)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// RequireUser validates a user JWT and resolves the user into the context.
func RequireUser(jwtService *auth.JWTService, users UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.Unauthorized(c, "missing or malformed authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(token)
		if err != nil || claims.Kind != auth.KindUser {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		user, err := users.ResolveUser(c.Request.Context(), claims.SubjectID)
		if err != nil {
			response.Unauthorized(c, "user not found")
			c.Abort()
			return
		}
		c.Set(ContextUser, user)
		c.Next()
	}
}

// OptionalUser resolves the user when a valid token is present and passes
// anonymous requests through untouched. Used by public listing endpoints
// whose responses vary by enrollment state.
func OptionalUser(jwtService *auth.JWTService, users UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}
		claims, err := jwtService.Validate(token)
		if err != nil || claims.Kind != auth.KindUser {
			c.Next()
			return
		}
		if user, err := users.ResolveUser(c.Request.Context(), claims.SubjectID); err == nil {
			c.Set(ContextUser, user)
		}
		c.Next()
	}
}

// RequireAdmin validates an admin JWT and resolves the admin into the
// context. A valid token whose subject is not an admin row gets 403.
func RequireAdmin(jwtService *auth.JWTService, admins AdminResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.Unauthorized(c, "missing or malformed authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		if claims.Kind != auth.KindAdmin {
			response.Forbidden(c, "admin access required")
			c.Abort()
			return
		}
		admin, err := admins.ResolveAdmin(c.Request.Context(), claims.SubjectID)
		if err != nil {
			response.Forbidden(c, "admin access required")
			c.Abort()
			return
		}
		c.Set(ContextAdmin, admin)
		c.Next()
	}
}

// UserFrom returns the resolved user, if any.
func UserFrom(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok
}

// AdminFrom returns the resolved admin, if any.
func AdminFrom(c *gin.Context) (*models.Admin, bool) {
	v, ok := c.Get(ContextAdmin)
	if !ok {
		return nil, false
	}
	a, ok := v.(*models.Admin)
	return a, ok
}
