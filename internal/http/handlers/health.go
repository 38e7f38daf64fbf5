package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/lewa-backend/internal/domain/tutor"
	"github.com/yungbote/lewa-backend/internal/gateway/dispatch"
	"github.com/yungbote/lewa-backend/internal/http/response"
)

const serviceName = "LEWA Backend"

type HealthHandler struct {
	dispatcher *dispatch.Dispatcher
}

func NewHealthHandler(d *dispatch.Dispatcher) *HealthHandler {
	return &HealthHandler{dispatcher: d}
}

type subjectLink struct {
	Name     string `json:"name"`
	Ask      string `json:"ask"`
	Stream   string `json:"stream"`
	HealthAt string `json:"health"`
}

// GET /
func (h *HealthHandler) Root(c *gin.Context) {
	subjects := h.dispatcher.Subjects()
	links := make([]subjectLink, 0, len(subjects))
	for _, s := range subjects {
		base := "/api/" + s.ID
		links = append(links, subjectLink{
			Name:     s.Name,
			Ask:      base,
			Stream:   base + "/stream",
			HealthAt: base + "/health",
		})
	}
	response.RespondOK(c, gin.H{
		"message":  "Welcome to LEWA - AI Tutor API",
		"health":   "/health",
		"subjects": links,
		"endpoints": gin.H{
			"research":  "/api/research",
			"messenger": "/api/messenger",
		},
	})
}

// GET /health
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	subjects := h.dispatcher.Subjects()
	names := make([]string, 0, len(subjects))
	for _, s := range subjects {
		names = append(names, s.Name)
	}
	response.RespondOK(c, gin.H{
		"status":          "ok",
		"service":         serviceName,
		"backend":         h.dispatcher.Backend(),
		"subjects":        names,
		"supportedLevels": tutor.Levels(),
		"message":         "LEWA tutor gateway is ready",
	})
}
