package middleware

import (
	"net/http"

	"go-healthcare-portal/internal/delivery/http/response"
	"go-healthcare-portal/internal/domain"
	"go-healthcare-portal/pkg/security"

	"github.com/gin-gonic/gin"
)

// RequireRoles admits onboarded viewers holding one of roles. It must run
// after AuthMiddleware.
func RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		viewer := ViewerFrom(c)
		if viewer == nil {
			response.Error(c, http.StatusUnauthorized, "Authentication required")
			c.Abort()
			return
		}
		if viewer.Profile == nil || !viewer.Profile.IsOnboarded {
			response.Error(c, http.StatusForbidden, "Complete onboarding first")
			c.Abort()
			return
		}

		role := viewer.Profile.Role
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		security.DefaultLogger().LogUserEvent(c.Request.Context(), security.EventUnauthorizedAccess, viewer.User.ID,
			map[string]interface{}{"path": c.FullPath(), "role": string(role)})
		response.Error(c, http.StatusForbidden, "You do not have access to this resource")
		c.Abort()
	}
}
