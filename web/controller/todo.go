package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/todopanel/todo-panel/database/model"
	"github.com/todopanel/todo-panel/web/entity"
	"github.com/todopanel/todo-panel/web/service"
)

const todoNotFound = "Todo not found"

// TodoController serves the todo CRUD routes. Ownership checks live in
// service.TodoService.
type TodoController struct {
	BaseController
	todoService *service.TodoService
}

func NewTodoController(g *gin.RouterGroup, todoService *service.TodoService) *TodoController {
	a := &TodoController{todoService: todoService}
	a.initRouter(g)
	return a
}

func (a *TodoController) initRouter(g *gin.RouterGroup) {
	g.GET("", a.list)
	g.POST("", a.create)
	g.GET("/:id", a.get)
	g.PUT("/:id", a.update)
	g.DELETE("/:id", a.delete)
}

func (a *TodoController) list(c *gin.Context) {
	user, ok := a.principal(c)
	if !ok {
		return
	}
	showAll, _ := strconv.ParseBool(c.Query("showAll"))
	todos, err := a.todoService.List(c.Request.Context(), user, showAll)
	jsonObj(c, http.StatusOK, entity.NewTodoResponses(todos), err)
}

func (a *TodoController) create(c *gin.Context) {
	user, ok := a.principal(c)
	if !ok {
		return
	}
	var req entity.TodoCreateRequest
	if !bindJSON(c, &req) {
		return
	}
	todo, err := a.todoService.Create(c.Request.Context(), user, req)
	jsonObj(c, http.StatusCreated, todoView(todo), err)
}

func (a *TodoController) get(c *gin.Context) {
	user, ok := a.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, todoNotFound)
	if !ok {
		return
	}
	todo, err := a.todoService.Get(c.Request.Context(), user, id)
	jsonObj(c, http.StatusOK, todoView(todo), err)
}

func (a *TodoController) update(c *gin.Context) {
	user, ok := a.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, todoNotFound)
	if !ok {
		return
	}
	var req entity.TodoUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	todo, err := a.todoService.Update(c.Request.Context(), user, id, req)
	jsonObj(c, http.StatusOK, todoView(todo), err)
}

func (a *TodoController) delete(c *gin.Context) {
	user, ok := a.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, todoNotFound)
	if !ok {
		return
	}
	if err := a.todoService.Delete(c.Request.Context(), user, id); err != nil {
		jsonObj(c, http.StatusOK, nil, err)
		return
	}
	jsonMsg(c, "Todo removed")
}

func todoView(todo *model.Todo) any {
	if todo == nil {
		return nil
	}
	return entity.NewTodoResponse(todo)
}
