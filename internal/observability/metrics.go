package observability

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Metrics holds the gateway's Prometheus series. All methods are safe on a
// nil receiver, which is what callers get when metrics are disabled.
type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	tutorRequests  *CounterVec
	tutorLatency   *HistogramVec
	tutorFragments *CounterVec

	searchRequests *CounterVec
}

// Enabled reports whether METRICS_ENABLED is set.
func Enabled() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("METRICS_ENABLED"))) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

func NewMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("lewa_api_requests_total", "API requests by method, route and status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"lewa_api_request_duration_seconds",
			"API request latency in seconds by method and route.",
			[]string{"method", "route"},
			[]float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		),
		apiInflight: NewGauge("lewa_api_inflight_requests", "In-flight API requests."),

		tutorRequests: NewCounterVec("lewa_tutor_requests_total", "Tutor requests by subject, level, mode and outcome code.", []string{"subject", "level", "mode", "outcome"}),
		tutorLatency: NewHistogramVec(
			"lewa_tutor_generation_seconds",
			"Backend generation time in seconds by mode and outcome code.",
			[]string{"mode", "outcome"},
			nil,
		),
		tutorFragments: NewCounterVec("lewa_tutor_stream_fragments_total", "Fragments delivered on streamed answers by subject.", []string{"subject"}),

		searchRequests: NewCounterVec("lewa_search_requests_total", "Search collaborator requests by kind and outcome.", []string{"kind", "outcome"}),
	}
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

func (m *Metrics) APIInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) APIInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// ObserveTutor records one finished tutor request. outcome is "ok" or an
// error code such as "rate_limited".
func (m *Metrics) ObserveTutor(subject, level, mode, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.tutorRequests.Inc(subject, level, mode, outcome)
	m.tutorLatency.Observe(dur.Seconds(), mode, outcome)
}

func (m *Metrics) AddFragments(subject string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.tutorFragments.Add(float64(n), subject)
}

func (m *Metrics) ObserveSearch(kind, outcome string) {
	if m == nil {
		return
	}
	m.searchRequests.Inc(kind, outcome)
}

// TutorCount returns one tutor request series, for tests and diagnostics.
func (m *Metrics) TutorCount(subject, level, mode, outcome string) float64 {
	if m == nil {
		return 0
	}
	return m.tutorRequests.Value(subject, level, mode, outcome)
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, _ *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	type writer interface{ WritePrometheus(io.Writer) error }
	for _, s := range []writer{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.tutorRequests, m.tutorLatency, m.tutorFragments,
		m.searchRequests,
	} {
		if err := s.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}
