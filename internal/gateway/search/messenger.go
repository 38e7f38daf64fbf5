package search

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const announcementsQuery = "GCE Cameroon announcements"

// ErrNoKeywords is returned when a notification request has no keywords.
var ErrNoKeywords = errors.New("at least one keyword is required")

type ExamDate struct {
	Level  string `json:"level"`
	Period string `json:"period"`
	Status string `json:"status"`
}

type Resource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Type  string `json:"type"`
}

type AnnouncementRequest struct {
	Subject          string `json:"subject,omitempty"`
	IncludeExamDates bool   `json:"includeExamDates"`
	IncludeResources bool   `json:"includeResources"`
}

type Announcements struct {
	Timestamp     time.Time  `json:"timestamp"`
	Announcements []Result   `json:"announcements"`
	ExamDates     []ExamDate `json:"examDates,omitempty"`
	Resources     []Resource `json:"resources,omitempty"`
}

type ExamNotices struct {
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`
	Notices   []Result  `json:"notices"`
	Source    string    `json:"source"`
}

type Notification struct {
	Keyword   string    `json:"keyword"`
	Icon      string    `json:"icon"`
	Priority  string    `json:"priority"`
	Message   string    `json:"message"`
	Subjects  []string  `json:"subjects,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type Notifications struct {
	Timestamp     time.Time      `json:"timestamp"`
	Keywords      []string       `json:"keywords"`
	Notifications []Notification `json:"notifications"`
	AlertLevel    string         `json:"alertLevel"`
}

type notificationTemplate struct {
	match    string
	icon     string
	priority string
	message  string
}

// Checked in order; one keyword may match several templates.
var notificationTemplates = []notificationTemplate{
	{match: "exam date", icon: "📅", priority: "high", message: "New exam date announcement detected. Check your subject schedule."},
	{match: "results", icon: "📊", priority: "high", message: "Result notification found. Your exam results may be available."},
	{match: "registration", icon: "📝", priority: "high", message: "Registration deadline detected. Complete your registration immediately."},
	{match: "postponed", icon: "⏸️", priority: "high", message: "Exam postponement notice detected. Check the details carefully."},
	{match: "update", icon: "🔔", priority: "medium", message: "GCE Board update available. Review the latest information."},
	{match: "deadline", icon: "⚠️", priority: "high", message: "Important deadline approaching. Take action now."},
}

var examDates = []ExamDate{
	{Level: "Foundational", Period: "June 2025", Status: "Completed"},
	{Level: "Advanced", Period: "June 2025", Status: "Completed"},
	{Level: "Foundational", Period: "June 2026", Status: "Upcoming"},
	{Level: "Advanced", Period: "June 2026", Status: "Upcoming"},
}

var resources = []Resource{
	{Title: "GCE Board Official Website", URL: "https://www.gceboard.cm", Type: "Official"},
	{Title: "Ministry of Secondary Education", URL: "https://www.minesec.gov.cm", Type: "Government"},
}

// Messenger serves GCE Board announcements, exam notices and keyword alerts.
type Messenger struct {
	searcher Searcher
	now      func() time.Time
}

func NewMessenger(s Searcher) *Messenger {
	return &Messenger{searcher: s, now: time.Now}
}

// Announcements searches news for GCE announcements. With a subject, the
// general and subject-specific searches run concurrently and are merged.
func (m *Messenger) Announcements(ctx context.Context, req AnnouncementRequest) (Announcements, error) {
	queries := []string{announcementsQuery}
	if s := strings.TrimSpace(req.Subject); s != "" {
		queries = append(queries, announcementsQuery+" "+s)
	}

	batches := make([][]Result, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			res, err := m.searcher.Search(gctx, Query{Query: q, NumResults: 10, News: true})
			if err != nil {
				return err
			}
			batches[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Announcements{}, err
	}

	// Subject-specific results first.
	var merged []Result
	for i := len(batches) - 1; i >= 0; i-- {
		merged = append(merged, batches[i]...)
	}

	out := Announcements{
		Timestamp:     m.now(),
		Announcements: dedupe(merged),
	}
	if req.IncludeExamDates {
		out.ExamDates = append([]ExamDate(nil), examDates...)
	}
	if req.IncludeResources {
		out.Resources = append([]Resource(nil), resources...)
	}
	return out, nil
}

// ExamNotices searches news for query, optionally scoped to Cameroon GCE.
func (m *Messenger) ExamNotices(ctx context.Context, query string, numResults int, includeCameroon bool) (ExamNotices, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return ExamNotices{}, ErrEmptyQuery
	}
	term := query
	if includeCameroon {
		term += " Cameroon GCE"
	}
	if numResults <= 0 {
		numResults = 10
	}
	res, err := m.searcher.Search(ctx, Query{Query: term, NumResults: numResults, News: true})
	if err != nil {
		return ExamNotices{}, err
	}
	return ExamNotices{
		Query:     query,
		Timestamp: m.now(),
		Notices:   res,
		Source:    "GCE Board & News",
	}, nil
}

// Notifications matches keywords against the alert templates. The alert
// level is high for three or more high-priority matches, medium for one or
// two, low otherwise.
func (m *Messenger) Notifications(keywords, subjects []string) (Notifications, error) {
	var kws []string
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			kws = append(kws, k)
		}
	}
	if len(kws) == 0 {
		return Notifications{}, ErrNoKeywords
	}

	now := m.now()
	var notes []Notification
	high := 0
	for _, kw := range kws {
		lower := strings.ToLower(kw)
		for _, t := range notificationTemplates {
			if !strings.Contains(lower, t.match) {
				continue
			}
			if t.priority == "high" {
				high++
			}
			notes = append(notes, Notification{
				Keyword:   kw,
				Icon:      t.icon,
				Priority:  t.priority,
				Message:   t.message,
				Subjects:  subjects,
				Timestamp: now,
			})
		}
	}

	level := "low"
	switch {
	case high >= 3:
		level = "high"
	case high >= 1:
		level = "medium"
	}
	return Notifications{
		Timestamp:     now,
		Keywords:      kws,
		Notifications: notes,
		AlertLevel:    level,
	}, nil
}
