package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lewa-backend/internal/http/response"
	"github.com/yungbote/lewa-backend/internal/platform/logger"
)

// Recover turns a handler panic into a 500 envelope. A panic after the
// response was committed only aborts the connection.
func Recover(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			if log != nil {
				log.Error("panic recovered",
					"path", c.Request.URL.Path,
					"panic", fmt.Sprint(rec),
					"stack", string(debug.Stack()),
				)
			}
			if c.Writer.Written() {
				c.Abort()
				return
			}
			response.RespondError(c, http.StatusInternalServerError, "internal_error", errors.New("internal server error"))
		}()
		c.Next()
	}
}

// LimitBody caps request bodies at n bytes. Reads past the cap fail, which
// handlers report as a malformed request.
func LimitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}
