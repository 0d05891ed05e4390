package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"stakdcards.com/app/internal/auth"
)

const (
	ctxKeyUser     = "user"
	ctxKeyAdminKey = "admin_key_auth"

	ActorAdminKey = "admin-key"

	HeaderAdminKey  = "X-Admin-Key"
	HeaderCronToken = "X-Cron-Secret"
)

// ContextUser is the authenticated caller stored in request context.
type ContextUser struct {
	ID    string
	Email string
	Name  string
	Role  string
}

func (u ContextUser) IsAdmin() bool { return u.Role == auth.RoleAdmin }

// Authenticate reads an optional bearer token. A missing or invalid token
// leaves the request anonymous; guards decide what that means.
func Authenticate(v *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := BearerToken(c)
		if tok == "" || !v.Configured() {
			c.Next()
			return
		}
		claims, err := v.Parse(tok)
		if err != nil {
			c.Next()
			return
		}
		c.Set(ctxKeyUser, ContextUser{
			ID:    claims.Subject,
			Email: claims.Email,
			Name:  claims.DisplayName(),
			Role:  strings.ToLower(claims.AppMetadata.Role),
		})
		c.Next()
	}
}

// CurrentUser returns the authenticated user, if any.
func CurrentUser(c *gin.Context) (ContextUser, bool) {
	v, ok := c.Get(ctxKeyUser)
	if !ok {
		return ContextUser{}, false
	}
	u, ok := v.(ContextUser)
	return u, ok && u.ID != ""
}

func BearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
