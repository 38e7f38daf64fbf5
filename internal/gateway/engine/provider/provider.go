// Package provider selects the generation backend named by configuration.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/lewa-backend/internal/gateway/config"
	"github.com/yungbote/lewa-backend/internal/gateway/engine"
	"github.com/yungbote/lewa-backend/internal/gateway/engine/gemini"
	"github.com/yungbote/lewa-backend/internal/gateway/engine/mock"
	"github.com/yungbote/lewa-backend/internal/gateway/engine/oaihttp"
	"github.com/yungbote/lewa-backend/internal/platform/logger"
)

// New returns the backend for cfg.Type. A gemini provider without a key is
// replaced by engine.MissingCredentials so the process still starts.
func New(ctx context.Context, cfg config.ProviderConfig, log *logger.Logger) (engine.Backend, error) {
	typ := strings.ToLower(strings.TrimSpace(cfg.Type))
	log = log.With("service", "provider", "provider", typ, "model", cfg.Model)

	switch typ {
	case config.ProviderMock:
		log.Info("using mock generation backend")
		return mock.New(), nil

	case config.ProviderOAIHTTP, "openai_http":
		b, err := oaihttp.New(cfg)
		if err != nil {
			return nil, err
		}
		log.Info("using oai_http generation backend", "base_url", cfg.BaseURL)
		return b, nil

	case config.ProviderGemini, "":
		b, err := gemini.New(ctx, cfg)
		if errors.Is(err, engine.ErrMissingCredentials) {
			log.Warn("GEMINI_API_KEY not set; tutor requests will fail with configuration_error")
			return engine.MissingCredentials(config.ProviderGemini), nil
		}
		if err != nil {
			return nil, err
		}
		log.Info("using gemini generation backend")
		return b, nil

	default:
		return nil, fmt.Errorf("unsupported provider type %q", cfg.Type)
	}
}
