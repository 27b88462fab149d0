package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/todopanel/todo-panel/database/model"
	"github.com/todopanel/todo-panel/util/common"
	"github.com/todopanel/todo-panel/web/service"
)

const userKey = "todo_panel_user"

// AuthRequired resolves the bearer token to a user and stores it in the
// context. Requests without a valid token are answered with 401.
func AuthRequired(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Vary", "Authorization")
		header := c.GetHeader("Authorization")
		if strings.TrimSpace(header) == "" {
			AbortWithError(c, common.NewAuthError("Authentication required"))
			return
		}
		token, ok := bearerToken(header)
		if !ok {
			AbortWithError(c, common.NewAuthError("Invalid token"))
			return
		}
		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// CurrentUser returns the user stored by AuthRequired, or nil.
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}
