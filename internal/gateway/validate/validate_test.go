package validate

import (
	"testing"

	"github.com/yungbote/lewa-backend/internal/domain/tutor"
	"github.com/yungbote/lewa-backend/internal/gateway/gwerr"
)

func TestRequest(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		question string
		want     gwerr.Kind
		ok       bool
	}{
		{name: "foundational", level: "Foundational", question: "What is photosynthesis?", ok: true},
		{name: "advanced", level: "Advanced", question: "x", ok: true},
		{name: "intermediate", level: "Intermediate", question: "Explain osmosis", want: gwerr.KindInvalidLevel},
		{name: "lowercase level", level: "advanced", question: "Explain osmosis", want: gwerr.KindInvalidLevel},
		{name: "empty level", level: "", question: "Explain osmosis", want: gwerr.KindInvalidLevel},
		{name: "whitespace question", level: "Foundational", question: "   \n\t", want: gwerr.KindEmptyQuestion},
		{name: "empty question", level: "Advanced", question: "", want: gwerr.KindEmptyQuestion},
		{name: "level checked first", level: "Expert", question: "  ", want: gwerr.KindInvalidLevel},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q, err := Request(" Biology ", tc.level, tc.question)
			if tc.ok {
				if err != nil {
					t.Fatalf("Request: %v", err)
				}
				if q.Subject != "Biology" || string(q.Level) != tc.level || q.Text != tc.question {
					t.Fatalf("question=%+v", q)
				}
				return
			}
			ge, ok := gwerr.As(err)
			if !ok {
				t.Fatalf("err=%v, want gateway error", err)
			}
			if ge.Kind != tc.want {
				t.Fatalf("kind=%s want=%s", ge.Kind, tc.want)
			}
			if q != (tutor.Question{}) {
				t.Fatalf("question should be zero on error, got %+v", q)
			}
		})
	}
}

func TestRequestKeepsQuestionVerbatim(t *testing.T) {
	in := "  What is   photosynthesis?\n"
	q, err := Request("Biology", "Foundational", in)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if q.Text != in {
		t.Fatalf("text=%q", q.Text)
	}
}
