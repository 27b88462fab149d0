package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/todopanel/todo-panel/logger"
	"github.com/todopanel/todo-panel/util/common"
	"github.com/todopanel/todo-panel/web/service"
)

const RequestIDHeader = "X-Request-ID"

// RequestContext tags each request with an id and records the client
// details services need for audit entries.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)

		ctx := service.WithRequestInfo(c.Request.Context(), service.RequestInfo{
			IP:        c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
			RequestID: id,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequestLogger logs every request after it completes.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		info := service.RequestInfoFrom(c.Request.Context())
		status := c.Writer.Status()
		format := "%s %s %d %s ip=%s id=%s"
		args := []any{c.Request.Method, c.Request.URL.Path, status, time.Since(start), info.IP, info.RequestID}
		switch {
		case status >= 500:
			logger.Warningf(format, args...)
		case status >= 400:
			logger.Infof(format, args...)
		default:
			logger.Debugf(format, args...)
		}
	}
}

// Recovery turns a panic in a handler into a 500 response.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if p := recover(); p != nil {
				logger.Errorf("%s %s panic: %v", c.Request.Method, c.Request.URL.Path, p)
				if !c.Writer.Written() {
					AbortWithError(c, common.NewInternalError(common.NewErrorf("panic: %v", p)))
				} else {
					c.Abort()
				}
			}
		}()
		c.Next()
	}
}
