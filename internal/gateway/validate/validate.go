package validate

import (
	"strings"

	"github.com/yungbote/lewa-backend/internal/domain/tutor"
	"github.com/yungbote/lewa-backend/internal/gateway/gwerr"
)

// Request checks a raw (subject, level, question) triple. The level is checked
// before the question; the question text itself is passed through untouched.
func Request(subject, level, question string) (tutor.Question, error) {
	lvl, ok := tutor.ParseLevel(level)
	if !ok {
		return tutor.Question{}, gwerr.InvalidLevel(level)
	}
	if strings.TrimSpace(question) == "" {
		return tutor.Question{}, gwerr.EmptyQuestion()
	}
	return tutor.Question{
		Subject: strings.TrimSpace(subject),
		Level:   lvl,
		Text:    question,
	}, nil
}
