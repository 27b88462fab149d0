package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/todopanel/todo-panel/logger"
	"github.com/todopanel/todo-panel/util/common"
	"github.com/todopanel/todo-panel/web/entity"
	"github.com/todopanel/todo-panel/web/middleware"
	"github.com/todopanel/todo-panel/web/service"
)

const (
	defaultLogCount = 100
	maxLogCount     = 10000
)

// AuditController exposes the audit trail and the buffered application log
// to administrators.
type AuditController struct {
	auditService *service.AuditLogService
}

func NewAuditController(g *gin.RouterGroup, auditService *service.AuditLogService) *AuditController {
	a := &AuditController{auditService: auditService}
	a.initRouter(g)
	return a
}

func (a *AuditController) initRouter(g *gin.RouterGroup) {
	g.GET("/audit", a.getAuditLogs)
	g.GET("/logs", a.getLogs)
}

func (a *AuditController) getAuditLogs(c *gin.Context) {
	var q entity.AuditQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.AbortWithError(c, common.NewValidationError(common.FieldError{
			Field:   "query",
			Message: "Invalid audit query",
		}))
		return
	}
	logs, total, err := a.auditService.GetAuditLogs(c.Request.Context(), q)
	jsonObj(c, http.StatusOK, gin.H{
		"logs":  logs,
		"total": total,
	}, err)
}

func (a *AuditController) getLogs(c *gin.Context) {
	count := defaultLogCount
	if s := c.Query("count"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			middleware.AbortWithError(c, common.NewValidationError(common.FieldError{
				Field:   "count",
				Message: "Count must be a positive integer",
			}))
			return
		}
		count = min(n, maxLogCount)
	}
	level := c.DefaultQuery("level", "info")
	c.JSON(http.StatusOK, logger.GetLogs(count, level))
}
