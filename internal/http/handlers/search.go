package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lewa-backend/internal/gateway/search"
	"github.com/yungbote/lewa-backend/internal/http/response"
	"github.com/yungbote/lewa-backend/internal/observability"
)

type SearchHandler struct {
	searcher   search.Searcher
	messenger  *search.Messenger
	defaultNum int
	metrics    *observability.Metrics
}

func NewSearchHandler(s search.Searcher, m *search.Messenger, defaultNum int, metrics *observability.Metrics) *SearchHandler {
	return &SearchHandler{searcher: s, messenger: m, defaultNum: defaultNum, metrics: metrics}
}

// POST /api/research
func (h *SearchHandler) Research(c *gin.Context) {
	var q search.Query
	if !bindJSON(c, &q) {
		return
	}
	q, err := q.Normalize(h.defaultNum)
	if err != nil {
		h.fail(c, "research", err)
		return
	}
	results, err := h.searcher.Search(c.Request.Context(), q)
	if err != nil {
		h.fail(c, "research", err)
		return
	}
	h.metrics.ObserveSearch("research", "ok")
	if results == nil {
		results = []search.Result{}
	}
	response.RespondOK(c, gin.H{"query": q.Query, "results": results})
}

type announcementBody struct {
	Subject          string `json:"subject"`
	IncludeExamDates *bool  `json:"includeExamDates"`
	IncludeResources *bool  `json:"includeResources"`
}

// POST /api/messenger/announcements
func (h *SearchHandler) Announcements(c *gin.Context) {
	var body announcementBody
	if !bindJSON(c, &body) {
		return
	}
	out, err := h.messenger.Announcements(c.Request.Context(), search.AnnouncementRequest{
		Subject:          body.Subject,
		IncludeExamDates: boolOr(body.IncludeExamDates, true),
		IncludeResources: boolOr(body.IncludeResources, true),
	})
	if err != nil {
		h.fail(c, "announcements", err)
		return
	}
	h.metrics.ObserveSearch("announcements", "ok")
	response.RespondOK(c, out)
}

type examNoticeBody struct {
	Query           string `json:"query"`
	NumResults      int    `json:"numResults"`
	IncludeCameroon *bool  `json:"includeCameroon"`
}

// POST /api/messenger/exam-notices
func (h *SearchHandler) ExamNotices(c *gin.Context) {
	var body examNoticeBody
	if !bindJSON(c, &body) {
		return
	}
	num := body.NumResults
	if num <= 0 {
		num = h.defaultNum
	}
	out, err := h.messenger.ExamNotices(c.Request.Context(), body.Query, num, boolOr(body.IncludeCameroon, true))
	if err != nil {
		h.fail(c, "exam_notices", err)
		return
	}
	h.metrics.ObserveSearch("exam_notices", "ok")
	response.RespondOK(c, out)
}

type notificationBody struct {
	Keywords []string `json:"keywords"`
	Subjects []string `json:"subjects"`
}

// POST /api/messenger/notifications
func (h *SearchHandler) Notifications(c *gin.Context) {
	var body notificationBody
	if !bindJSON(c, &body) {
		return
	}
	out, err := h.messenger.Notifications(body.Keywords, body.Subjects)
	if err != nil {
		h.fail(c, "notifications", err)
		return
	}
	h.metrics.ObserveSearch("notifications", "ok")
	response.RespondOK(c, out)
}

// GET /api/messenger/health
func (h *SearchHandler) MessengerHealth(c *gin.Context) {
	response.RespondOK(c, gin.H{
		"status":    "ok",
		"service":   "LEWA Messenger",
		"timestamp": time.Now().UTC(),
		"features": []string{
			"GCE Board Announcements",
			"Exam Date Notifications",
			"Smart Keyword Alerts",
			"Official Resource Links",
		},
	})
}

func (h *SearchHandler) fail(c *gin.Context, kind string, err error) {
	status, code := http.StatusBadGateway, "search_failed"
	switch {
	case errors.Is(err, search.ErrEmptyQuery), errors.Is(err, search.ErrNoKeywords):
		status, code = http.StatusBadRequest, "invalid_request"
	case errors.Is(err, search.ErrNotConfigured):
		status, code = http.StatusInternalServerError, "search_not_configured"
	}
	h.metrics.ObserveSearch(kind, code)
	response.RespondError(c, status, code, err)
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
