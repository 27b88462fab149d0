package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/todopanel/todo-panel/web/entity"
	"github.com/todopanel/todo-panel/web/service"
)

// UserAdminController serves the admin-only user and todo listings and the
// role change endpoint. The caller mounts it behind the admin gate.
type UserAdminController struct {
	BaseController
	adminService *service.UserAdminService
	todoService  *service.TodoService
}

func NewUserAdminController(g *gin.RouterGroup, adminService *service.UserAdminService, todoService *service.TodoService) *UserAdminController {
	a := &UserAdminController{adminService: adminService, todoService: todoService}
	a.initRouter(g)
	return a
}

func (a *UserAdminController) initRouter(g *gin.RouterGroup) {
	g.GET("/users", a.listUsers)
	g.GET("/todos", a.listTodos)
	g.PATCH("/users/:id/role", a.updateRole)
}

func (a *UserAdminController) listUsers(c *gin.Context) {
	users, err := a.adminService.ListUsers(c.Request.Context())
	jsonObj(c, http.StatusOK, users, err)
}

func (a *UserAdminController) listTodos(c *gin.Context) {
	todos, err := a.todoService.ListAll(c.Request.Context())
	jsonObj(c, http.StatusOK, entity.NewTodoResponses(todos), err)
}

func (a *UserAdminController) updateRole(c *gin.Context) {
	user, ok := a.principal(c)
	if !ok {
		return
	}
	var req entity.RoleRequest
	if !bindJSON(c, &req) {
		return
	}
	// Validate before resolving the id so a bad role wins over a bad id.
	if err := req.Validate(); err != nil {
		jsonObj(c, http.StatusOK, nil, err)
		return
	}
	id, ok := pathID(c, "User not found")
	if !ok {
		return
	}
	profile, err := a.adminService.ChangeRole(c.Request.Context(), user, id, req)
	jsonObj(c, http.StatusOK, profile, err)
}
