package middleware

import (
	"log/slog"
	"net/http"

	"practice-hub/internal/handler/httperr"

	"github.com/gin-gonic/gin"
)

// ErrorHandler writes the last public error for handlers that aborted without a body.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		if e := c.Errors.ByType(gin.ErrorTypePublic).Last(); e != nil {
			if resp, ok := e.Meta.(httperr.Response); ok {
				c.JSON(resp.Status, resp)
				return
			}
		}
		resp := httperr.Response{Status: http.StatusInternalServerError, Error: "Internal server error"}
		c.JSON(resp.Status, resp)
	}
}

// Recovery turns a panic into the standard 500 body.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("recovered from panic", "panic", r, "path", c.Request.URL.Path, "request_id", GetRequestID(c))
				resp := httperr.Response{Status: http.StatusInternalServerError, Error: "Internal server error"}
				c.AbortWithStatusJSON(resp.Status, resp)
			}
		}()
		c.Next()
	}
}
