package gwerr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/lewa-backend/internal/gateway/engine"
)

type statusErr struct {
	code int
	msg  string
}

func (e statusErr) Error() string       { return e.msg }
func (e statusErr) HTTPStatusCode() int { return e.code }

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   Kind
		status int
		msg    string
	}{
		{
			name:   "missing credentials sentinel",
			err:    fmt.Errorf("gemini: %w", engine.ErrMissingCredentials),
			kind:   KindConfiguration,
			status: http.StatusInternalServerError,
		},
		{
			name: "missing api key message",
			err:  errors.New("GEMINI_API_KEY is missing"),
			kind: KindConfiguration,
		},
		{
			name:   "status 429",
			err:    statusErr{code: 429, msg: "slow down"},
			kind:   KindRateLimited,
			status: http.StatusTooManyRequests,
			msg:    QuotaMessage,
		},
		{
			name: "quota in message",
			err:  errors.New("You exceeded your current quota, please check your plan"),
			kind: KindRateLimited,
			msg:  QuotaMessage,
		},
		{
			name: "resource exhausted",
			err:  errors.New("rpc error: RESOURCE_EXHAUSTED"),
			kind: KindRateLimited,
		},
		{
			name: "429 in message",
			err:  errors.New("Error 429, Message: Too Many Requests"),
			kind: KindRateLimited,
		},
		{
			name:   "other status preserved as upstream",
			err:    statusErr{code: 500, msg: "model overloaded"},
			kind:   KindUpstream,
			status: http.StatusBadGateway,
			msg:    "model overloaded",
		},
		{
			name: "cancelled context",
			err:  context.Canceled,
			kind: KindUpstream,
			msg:  "context canceled",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.err)
			require.NotNil(t, got)
			assert.Equal(t, tc.kind, got.Kind)
			if tc.status != 0 {
				assert.Equal(t, tc.status, got.Status())
			}
			if tc.msg != "" {
				assert.Equal(t, tc.msg, got.Message)
			}
			assert.ErrorIs(t, got, tc.err)
		})
	}
}

func TestClassifyCredentialsWinOverQuota(t *testing.T) {
	err := fmt.Errorf("quota check skipped: %w", engine.ErrMissingCredentials)
	assert.Equal(t, KindConfiguration, Classify(err).Kind)
}

func TestClassifyPassesThroughGatewayErrors(t *testing.T) {
	in := InvalidLevel("Intermediate")
	assert.Same(t, in, Classify(fmt.Errorf("wrapped: %w", in)))
	assert.Nil(t, Classify(nil))
}

func TestErrorRendering(t *testing.T) {
	e := RateLimited(errors.New("429"))
	assert.Equal(t, "rate_limited", e.Code())
	assert.Equal(t, "Error: "+QuotaMessage, e.StreamText())
	assert.ErrorIs(t, e, RateLimited(nil))
	assert.NotErrorIs(t, e, Upstream(nil))

	assert.Equal(t, "unknown_subject", UnknownSubject("astrology").Code())
	assert.Equal(t, http.StatusNotFound, UnknownSubject("astrology").Status())
	assert.Equal(t, http.StatusBadRequest, EmptyQuestion().Status())
}

type hintErr struct {
	statusErr
	after time.Duration
}

func (e hintErr) RetryAfterHint() time.Duration { return e.after }

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "no upstream hint", err: errors.New("quota exceeded"), want: RetryAfterSeconds},
		{name: "upstream hint", err: hintErr{statusErr: statusErr{code: 429, msg: "slow down"}, after: 20 * time.Second}, want: 20},
		{name: "sub-second hint rounds up", err: hintErr{statusErr: statusErr{code: 429, msg: "slow down"}, after: 1500 * time.Millisecond}, want: 2},
		{name: "hint capped", err: hintErr{statusErr: statusErr{code: 429, msg: "slow down"}, after: time.Hour}, want: 60},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ge := Classify(fmt.Errorf("upstream: %w", tc.err))
			require.Equal(t, KindRateLimited, ge.Kind)
			assert.Equal(t, tc.want, ge.RetryAfter())
		})
	}
}
