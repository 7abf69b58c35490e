package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
)

// rolesFrom reads a top-level "roles" claim and Keycloak's realm_access.roles.
func rolesFrom(claims map[string]interface{}) []string {
	var out []string
	collect := func(v interface{}) {
		list, _ := v.([]interface{})
		for _, r := range list {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
	}
	collect(claims["roles"])
	if ra, ok := claims["realm_access"].(map[string]interface{}); ok {
		collect(ra["roles"])
	}
	return out
}

// RequireRole rejects requests whose claims lack role. Must run after AuthMiddleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, _ := c.Get(ClaimsKey)
		claims, _ := v.(map[string]interface{})
		if !slices.Contains(rolesFrom(claims), role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "requires role " + role})
			return
		}
		c.Next()
	}
}
