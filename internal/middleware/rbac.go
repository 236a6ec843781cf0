package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/nextstep-api/internal/models"
	"github.com/noah-isme/nextstep-api/internal/service"
	appErrors "github.com/noah-isme/nextstep-api/pkg/errors"
	"github.com/noah-isme/nextstep-api/pkg/response"
)

// SelfRule admits a caller whose id equals the :id path parameter.
const SelfRule = "SELF"

func callerOf(c *gin.Context) (service.Caller, bool) {
	value, _ := c.Get(ContextUserKey)
	claims, ok := value.(*models.JWTClaims)
	if !ok || claims == nil || claims.UserID == "" {
		return service.Caller{}, false
	}
	return service.CallerFromClaims(claims), true
}

// RBAC admits the caller when any rule holds. A rule is a role name or
// SelfRule. Decisions go through the service authorization gate so routes
// and services reject with the same errors.
func RBAC(rules ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := callerOf(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		err := error(appErrors.ErrForbidden)
		for _, rule := range rules {
			if rule == SelfRule {
				err = service.Self(caller, c.Param("id"))
			} else {
				err = service.RoleEquals(caller, models.UserRole(rule))
			}
			if err == nil {
				c.Next()
				return
			}
		}

		response.Error(c, err)
		c.Abort()
	}
}

// RequireRoles admits callers holding any of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	rules := make([]string, len(roles))
	for i, r := range roles {
		rules[i] = string(r)
	}
	return RBAC(rules...)
}
