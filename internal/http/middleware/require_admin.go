package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"stakdcards.com/app/internal/shared/apperr"
)

// RequireAdmin accepts either the shared admin key (X-Admin-Key header or
// admin_key query) or a bearer token carrying the admin role.
//   - no credentials: 401
//   - signed in without the admin role: 403
func RequireAdmin(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey != "" {
			provided := strings.TrimSpace(c.GetHeader(HeaderAdminKey))
			if provided == "" {
				provided = strings.TrimSpace(c.Query("admin_key"))
			}
			if provided != "" && secretEqual(provided, adminKey) {
				c.Set(ctxKeyAdminKey, true)
				c.Next()
				return
			}
		}

		u, ok := CurrentUser(c)
		if !ok {
			Fail(c, apperr.UnauthorizedErr("Admin authentication required."))
			return
		}
		if !u.IsAdmin() {
			Fail(c, apperr.ForbiddenErr("Admin access required."))
			return
		}
		c.Next()
	}
}

// RequireCronSecret guards scheduler-triggered endpoints. The secret is read
// from a bearer token or the X-Cron-Secret header. An unset secret rejects
// every call.
func RequireCronSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			Fail(c, apperr.ConfigErr("Cron secret is not configured."))
			return
		}
		provided := BearerToken(c)
		if provided == "" {
			provided = strings.TrimSpace(c.GetHeader(HeaderCronToken))
		}
		if provided == "" || !secretEqual(provided, secret) {
			Fail(c, apperr.UnauthorizedErr("Unauthorized."))
			return
		}
		c.Next()
	}
}

// Actor names who is performing an admin action, for audit rows.
func Actor(c *gin.Context) string {
	if u, ok := CurrentUser(c); ok {
		if u.Email != "" {
			return u.Email
		}
		return "user:" + u.ID
	}
	if c.GetBool(ctxKeyAdminKey) {
		return ActorAdminKey
	}
	return ""
}

func secretEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
