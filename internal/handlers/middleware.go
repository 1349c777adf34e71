package handlers

import (
	"net/http"
	"strings"

	"cpu_boost/internal/service"

	"github.com/gin-gonic/gin"
)

const identityCtxKey = "identity"

func (h *Handler) identityMiddleware(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing Authorization header",
		})
		return
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid Authorization header format",
		})
		return
	}

	id, err := h.services.ParseToken(parts[1])
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid or expired token",
		})
		return
	}

	c.Set(identityCtxKey, id)
	c.Next()
}

// requireRole rejects callers whose token does not carry role. It must run
// after identityMiddleware.
func (h *Handler) requireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identityFrom(c)
		if !ok || id.Role != role {
			if h.log != nil {
				h.log.Infow("access_denied", "user_id", id.UserID, "role", id.Role, "required_role", role, "path", c.FullPath())
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "insufficient role",
			})
			return
		}
		c.Next()
	}
}

func identityFrom(c *gin.Context) (service.Identity, bool) {
	v, ok := c.Get(identityCtxKey)
	if !ok {
		return service.Identity{}, false
	}
	id, ok := v.(service.Identity)
	return id, ok
}
