package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lewa-backend/internal/gateway/dispatch"
	"github.com/yungbote/lewa-backend/internal/http/response"
)

// TutorRequest is the body of the per-subject endpoints. The subject comes
// from the path.
type TutorRequest struct {
	Question string `json:"question"`
	Level    string `json:"level"`
}

type TutorHandler struct {
	dispatcher *dispatch.Dispatcher
}

func NewTutorHandler(d *dispatch.Dispatcher) *TutorHandler {
	return &TutorHandler{dispatcher: d}
}

// POST /api/:subject
func (h *TutorHandler) Ask(c *gin.Context) {
	var req TutorRequest
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.dispatcher.Ask(c.Request.Context(), c.Param("subject"), req.Level, req.Question)
	if err != nil {
		response.RespondGatewayError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// POST /api/:subject/stream
func (h *TutorHandler) Stream(c *gin.Context) {
	var req TutorRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	s, err := h.dispatcher.Stream(ctx, c.Param("subject"), req.Level, req.Question)
	if err != nil {
		response.RespondGatewayError(c, err)
		return
	}
	defer s.Close()

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	for frag := range s.Fragments() {
		if ctx.Err() != nil {
			return
		}
		if _, err := c.Writer.WriteString(frag.Text); err != nil {
			return
		}
		c.Writer.Flush()
		if frag.Err != nil {
			_ = c.Error(frag.Err)
		}
	}
}

// GET /api/:subject/health
func (h *TutorHandler) Health(c *gin.Context) {
	out, err := h.dispatcher.Health(c.Param("subject"))
	if err != nil {
		response.RespondGatewayError(c, err)
		return
	}
	response.RespondOK(c, out)
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		status, code := http.StatusBadRequest, "invalid_request"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status, code = http.StatusRequestEntityTooLarge, "request_too_large"
		}
		response.RespondError(c, status, code, errors.New("invalid request body: "+strings.TrimSpace(err.Error())))
		return false
	}
	return true
}
