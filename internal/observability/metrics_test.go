package observability

import (
	"strings"
	"testing"
	"time"
)

func TestMetricsNilIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/health", "200", time.Millisecond)
	m.ObserveTutor("Biology", "Foundational", "ask", "ok", time.Second)
	m.AddFragments("Biology", 3)
	m.ObserveSearch("research", "ok")
	m.APIInflightInc()
	m.APIInflightDec()
	if got := m.TutorCount("Biology", "Foundational", "ask", "ok"); got != 0 {
		t.Fatalf("nil metrics count=%v", got)
	}
}

func TestMetricsWritePrometheus(t *testing.T) {
	m := NewMetrics()
	m.ObserveTutor("Biology", "Foundational", "ask", "ok", 300*time.Millisecond)
	m.ObserveTutor("Biology", "Foundational", "ask", "ok", 2*time.Second)
	m.ObserveTutor("Physics", "Advanced", "stream", "rate_limited", 10*time.Millisecond)
	m.AddFragments("Biology", 4)
	m.ObserveAPI("POST", "/api/:subject", "200", 50*time.Millisecond)

	if got := m.TutorCount("Biology", "Foundational", "ask", "ok"); got != 2 {
		t.Fatalf("tutor count=%v want=2", got)
	}

	var b strings.Builder
	if err := m.WritePrometheus(&b); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := b.String()
	for _, want := range []string{
		"# TYPE lewa_tutor_requests_total counter",
		`lewa_tutor_requests_total{subject="Biology",level="Foundational",mode="ask",outcome="ok"} 2`,
		`lewa_tutor_requests_total{subject="Physics",level="Advanced",mode="stream",outcome="rate_limited"} 1`,
		`lewa_tutor_generation_seconds_bucket{mode="ask",outcome="ok",le="0.5"} 1`,
		`lewa_tutor_generation_seconds_bucket{mode="ask",outcome="ok",le="+Inf"} 2`,
		`lewa_tutor_generation_seconds_count{mode="ask",outcome="ok"} 2`,
		`lewa_tutor_stream_fragments_total{subject="Biology"} 4`,
		`lewa_api_requests_total{method="POST",route="/api/:subject",status="200"} 1`,
		"lewa_api_inflight_requests 0",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestLabelEscaping(t *testing.T) {
	got := labelString([]string{"q"}, []string{"a\"b\\c\nd"})
	if want := `{q="a\"b\\c\nd"}`; got != want {
		t.Fatalf("labelString=%s want=%s", got, want)
	}
	if got := labelString([]string{"a", "b"}, []string{"x"}); got != `{a="x",b="unknown"}` {
		t.Fatalf("missing value label=%s", got)
	}
}
