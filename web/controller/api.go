package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/todopanel/todo-panel/config"
	"github.com/todopanel/todo-panel/database/model"
	"github.com/todopanel/todo-panel/web/entity"
	"github.com/todopanel/todo-panel/web/middleware"
	"github.com/todopanel/todo-panel/web/service"
)

// Services bundles what the API controllers need.
type Services struct {
	Auth  *service.AuthService
	Todos *service.TodoService
	Admin *service.UserAdminService
	Audit *service.AuditLogService
}

// APIController mounts every /api route.
type APIController struct {
	authController      *AuthController
	todoController      *TodoController
	userAdminController *UserAdminController
	auditController     *AuditController
}

// NewAPIController registers the API on g. loginLimit guards the
// credential endpoints and may be nil.
func NewAPIController(g *gin.RouterGroup, s Services, loginLimit gin.HandlerFunc) *APIController {
	a := &APIController{}
	a.initRouter(g, s, loginLimit)
	return a
}

func (a *APIController) initRouter(g *gin.RouterGroup, s Services, loginLimit gin.HandlerFunc) {
	api := g.Group("/api")
	api.GET("/health", a.health)

	a.authController = NewAuthController(api, s.Auth, loginLimit)

	todos := api.Group("/todos")
	todos.Use(middleware.AuthRequired(s.Auth))
	a.todoController = NewTodoController(todos, s.Todos)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(s.Auth), middleware.RequireRole(model.RoleAdmin))
	a.userAdminController = NewUserAdminController(admin, s.Admin, s.Todos)
	a.auditController = NewAuditController(admin, s.Audit)
}

func (a *APIController) health(c *gin.Context) {
	c.JSON(http.StatusOK, entity.HealthResponse{Status: "ok", Version: config.GetVersion()})
}
