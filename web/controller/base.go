// Package controller provides the HTTP handlers of the todo panel API.
// Controllers bind and decode requests, call services and render their
// results or errors as JSON.
package controller

import (
	"github.com/gin-gonic/gin"

	"github.com/todopanel/todo-panel/database/model"
	"github.com/todopanel/todo-panel/util/common"
	"github.com/todopanel/todo-panel/web/middleware"
)

// BaseController provides helpers shared by the authenticated controllers.
type BaseController struct{}

// principal returns the authenticated user. Routes using it are always
// behind middleware.AuthRequired, so a nil user is a wiring bug.
func (a *BaseController) principal(c *gin.Context) (*model.User, bool) {
	user := middleware.CurrentUser(c)
	if user == nil {
		middleware.AbortWithError(c, common.NewAuthError("Authentication required"))
		return nil, false
	}
	return user, true
}
