package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/todopanel/todo-panel/logger"
	"github.com/todopanel/todo-panel/util/common"
	"github.com/todopanel/todo-panel/web/entity"
)

// AbortWithError writes err in the API error format and stops the chain.
// Validation errors list their fields; internal errors are logged and
// reported without detail.
func AbortWithError(c *gin.Context, err error) {
	var appErr *common.Error
	if !errors.As(err, &appErr) || appErr.Kind == common.KindInternal {
		logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		_ = c.Error(err)
		c.AbortWithStatusJSON(common.KindInternal.Status(), entity.ErrorResponse{Message: "Internal server error"})
		return
	}

	resp := entity.ErrorResponse{Message: appErr.Message}
	if appErr.Kind == common.KindValidation && len(appErr.Fields) > 0 {
		resp = entity.ErrorResponse{Errors: appErr.Fields}
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(appErr.Kind.Status(), resp)
}
