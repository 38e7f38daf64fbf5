package httpx

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// HTTPStatusCoder is implemented by errors that carry an upstream HTTP status.
type HTTPStatusCoder interface {
	HTTPStatusCode() int
}

// StatusOf returns the first HTTP status found in err's chain.
func StatusOf(err error) (int, bool) {
	if err == nil {
		return 0, false
	}
	var sc HTTPStatusCoder
	if errors.As(err, &sc) {
		if code := sc.HTTPStatusCode(); code > 0 {
			return code, true
		}
	}
	return 0, false
}

// RetryAfterHinter is implemented by errors that carry an upstream Retry-After hint.
type RetryAfterHinter interface {
	RetryAfterHint() time.Duration
}

// RetryAfterOf returns the first positive Retry-After hint in err's chain.
func RetryAfterOf(err error) (time.Duration, bool) {
	if err == nil {
		return 0, false
	}
	var h RetryAfterHinter
	if errors.As(err, &h) {
		if d := h.RetryAfterHint(); d > 0 {
			return d, true
		}
	}
	return 0, false
}

func IsRateLimitStatus(code int) bool {
	return code == http.StatusTooManyRequests
}

// RetryAfterDuration reads a delta-seconds Retry-After header, falling back when absent.
func RetryAfterDuration(h http.Header, fallback, max time.Duration) time.Duration {
	sleepFor := fallback
	if h != nil {
		if ra := strings.TrimSpace(h.Get("Retry-After")); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
				sleepFor = time.Duration(secs) * time.Second
			}
		}
	}
	if max > 0 && sleepFor > max {
		sleepFor = max
	}
	return sleepFor
}
