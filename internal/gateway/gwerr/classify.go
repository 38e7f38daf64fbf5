package gwerr

import (
	"errors"
	"strings"

	"github.com/yungbote/lewa-backend/internal/gateway/engine"
	"github.com/yungbote/lewa-backend/internal/pkg/httpx"
)

var rateLimitMarkers = []string{
	"429",
	"too many requests",
	"quota",
	"rate limit",
	"resource_exhausted",
}

var credentialMarkers = []string{
	"api key",
	"api_key",
	"apikey",
	"credential",
}

// Classify maps a backend failure to the gateway taxonomy. Rules apply in
// order: missing credentials, rate/quota exhaustion, everything else.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	if ge, ok := As(err); ok {
		return ge
	}

	msg := strings.ToLower(err.Error())

	if errors.Is(err, engine.ErrMissingCredentials) || isMissingCredential(msg) {
		return Configuration(err)
	}

	if code, ok := httpx.StatusOf(err); ok && httpx.IsRateLimitStatus(code) {
		return RateLimited(err)
	}
	for _, m := range rateLimitMarkers {
		if strings.Contains(msg, m) {
			return RateLimited(err)
		}
	}

	return Upstream(err)
}

func isMissingCredential(msg string) bool {
	if !strings.Contains(msg, "missing") && !strings.Contains(msg, "not set") && !strings.Contains(msg, "not configured") {
		return false
	}
	for _, m := range credentialMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
