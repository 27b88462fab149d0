package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/todopanel/todo-panel/util/common"
	"github.com/todopanel/todo-panel/web/entity"
	"github.com/todopanel/todo-panel/web/middleware"
)

// bindJSON decodes the request body into obj. Decoding failures are
// answered with a ValidationError and false is returned.
func bindJSON(c *gin.Context, obj any) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}
	var appErr *common.Error
	if errors.As(err, &appErr) {
		middleware.AbortWithError(c, appErr)
		return false
	}
	middleware.AbortWithError(c, common.NewValidationError(common.FieldError{
		Field:   "body",
		Message: "Request body must be valid JSON",
	}))
	return false
}

// pathID parses the :id parameter. Anything that is not a positive integer
// cannot name a record, so it is reported with notFound.
func pathID(c *gin.Context, notFound string) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		middleware.AbortWithError(c, common.NewNotFoundError(notFound))
		return 0, false
	}
	return id, true
}

// jsonObj renders obj, or err in the API error format.
func jsonObj(c *gin.Context, status int, obj any, err error) {
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(status, obj)
}

// jsonMsg renders a plain acknowledgement.
func jsonMsg(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, entity.MessageResponse{Message: msg})
}
