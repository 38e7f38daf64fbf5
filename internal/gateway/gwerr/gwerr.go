// Package gwerr is the gateway error taxonomy. Every failure a client can
// observe is one of the Kinds below, with a fixed status code and wire code.
package gwerr

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/yungbote/lewa-backend/internal/pkg/httpx"
)

type Kind int

const (
	KindUpstream Kind = iota
	KindInvalidLevel
	KindEmptyQuestion
	KindUnknownSubject
	KindConfiguration
	KindRateLimited
)

// RetryAfterSeconds is the hint sent with RateLimited responses when the
// upstream gave none. Upstream hints are capped at MaxRetryAfter.
const (
	RetryAfterSeconds = 5
	MaxRetryAfter     = time.Minute
)

const QuotaMessage = "Quota exceeded. Please try again in a moment."

func (k Kind) String() string {
	switch k {
	case KindInvalidLevel:
		return "InvalidLevel"
	case KindEmptyQuestion:
		return "EmptyQuestion"
	case KindUnknownSubject:
		return "UnknownSubject"
	case KindConfiguration:
		return "ConfigurationError"
	case KindRateLimited:
		return "RateLimited"
	default:
		return "UpstreamError"
	}
}

// Code is the stable machine-readable identifier used in error envelopes.
func (k Kind) Code() string {
	switch k {
	case KindInvalidLevel:
		return "invalid_level"
	case KindEmptyQuestion:
		return "empty_question"
	case KindUnknownSubject:
		return "unknown_subject"
	case KindConfiguration:
		return "configuration_error"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "upstream_error"
	}
}

func (k Kind) Status() int {
	switch k {
	case KindInvalidLevel, KindEmptyQuestion:
		return http.StatusBadRequest
	case KindUnknownSubject:
		return http.StatusNotFound
	case KindConfiguration:
		return http.StatusInternalServerError
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}

// Error is a classified gateway failure. Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Status() int { return e.Kind.Status() }

func (e *Error) Code() string { return e.Kind.Code() }

// Is matches any *Error of the same Kind, so errors.Is(err, gwerr.RateLimited(nil)) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || t == nil {
		return false
	}
	return t.Kind == e.Kind
}

// RetryAfter is the client backoff hint for a RateLimited error, in whole seconds.
func (e *Error) RetryAfter() int {
	d, ok := httpx.RetryAfterOf(e.Err)
	if !ok {
		return RetryAfterSeconds
	}
	d = min(d, MaxRetryAfter)
	return int((d + time.Second - 1) / time.Second)
}

// StreamText is the in-band rendering used once a streamed response is committed.
func (e *Error) StreamText() string {
	return "Error: " + e.Error()
}

func New(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func InvalidLevel(level string) *Error {
	return New(KindInvalidLevel, fmt.Sprintf("Invalid level %q. Must be 'Foundational' or 'Advanced'", level), nil)
}

func EmptyQuestion() *Error {
	return New(KindEmptyQuestion, "Question cannot be empty", nil)
}

func UnknownSubject(subject string) *Error {
	return New(KindUnknownSubject, fmt.Sprintf("Unknown subject %q", subject), nil)
}

func Configuration(err error) *Error {
	msg := "Generation backend is not configured"
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	return New(KindConfiguration, msg, err)
}

func RateLimited(err error) *Error {
	return New(KindRateLimited, QuotaMessage, err)
}

func Upstream(err error) *Error {
	msg := "upstream generation failed"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return New(KindUpstream, msg, err)
}

// As returns err as a *Error when it is one.
func As(err error) (*Error, bool) {
	var ge *Error
	if errors.As(err, &ge) && ge != nil {
		return ge, true
	}
	return nil, false
}
