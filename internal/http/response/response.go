package response

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lewa-backend/internal/gateway/gwerr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondGatewayError writes a classified tutor error. Errors that are not
// already classified are treated as upstream failures.
func RespondGatewayError(c *gin.Context, err error) {
	ge := gwerr.Classify(err)
	if ge == nil {
		ge = gwerr.Upstream(nil)
	}
	if ge.Kind == gwerr.KindRateLimited {
		c.Header("Retry-After", strconv.Itoa(ge.RetryAfter()))
	}
	RespondError(c, ge.Status(), ge.Code(), ge)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
