package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/todopanel/todo-panel/database/model"
	"github.com/todopanel/todo-panel/util/common"
)

// RequireRole lets the request through only when the authenticated user
// has one of roles. It must run after AuthRequired.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			AbortWithError(c, common.NewAuthError("Authentication required"))
			return
		}
		if !allowed[user.Role] {
			AbortWithError(c, common.NewForbiddenError("Access denied. Admin role required"))
			return
		}
		c.Next()
	}
}
