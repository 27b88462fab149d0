package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/todopanel/todo-panel/web/entity"
	"github.com/todopanel/todo-panel/web/middleware"
	"github.com/todopanel/todo-panel/web/service"
)

// AuthController handles registration, login and the current profile.
type AuthController struct {
	BaseController
	authService *service.AuthService
}

// NewAuthController registers the /auth routes on g. limit guards the
// credential endpoints and may be nil.
func NewAuthController(g *gin.RouterGroup, authService *service.AuthService, limit gin.HandlerFunc) *AuthController {
	a := &AuthController{authService: authService}
	a.initRouter(g, limit)
	return a
}

func (a *AuthController) initRouter(g *gin.RouterGroup, limit gin.HandlerFunc) {
	g = g.Group("/auth")

	credentials := g.Group("")
	if limit != nil {
		credentials.Use(limit)
	}
	credentials.POST("/register", a.register)
	credentials.POST("/login", a.login)

	g.GET("/me", middleware.AuthRequired(a.authService), a.me)
}

func (a *AuthController) register(c *gin.Context) {
	var req entity.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := a.authService.Register(c.Request.Context(), req)
	jsonObj(c, http.StatusCreated, resp, err)
}

func (a *AuthController) login(c *gin.Context) {
	var req entity.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := a.authService.Login(c.Request.Context(), req)
	jsonObj(c, http.StatusOK, resp, err)
}

func (a *AuthController) me(c *gin.Context) {
	user, ok := a.principal(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, entity.NewProfile(user))
}
