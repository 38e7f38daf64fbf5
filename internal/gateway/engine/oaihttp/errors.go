package oaihttp

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type HTTPError struct {
	StatusCode int
	Body       string
	// RetryAfter is the upstream Retry-After header, zero when absent.
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "upstream http error"
	}
	if msg := upstreamMessage(e.Body); msg != "" {
		return fmt.Sprintf("upstream http error: status=%d message=%s", e.StatusCode, msg)
	}
	if e.Body == "" {
		return fmt.Sprintf("upstream http error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("upstream http error: status=%d body=%s", e.StatusCode, e.Body)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (e *HTTPError) RetryAfterHint() time.Duration {
	if e == nil {
		return 0
	}
	return e.RetryAfter
}

// upstreamMessage extracts error.message from an OpenAI-style error body.
func upstreamMessage(body string) string {
	body = strings.TrimSpace(body)
	if body == "" || body[0] != '{' {
		return ""
	}
	var env struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return ""
	}
	return strings.TrimSpace(env.Error.Message)
}
