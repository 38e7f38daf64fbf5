// Package gemini is the Google Gemini generation backend.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/yungbote/lewa-backend/internal/gateway/config"
	"github.com/yungbote/lewa-backend/internal/gateway/engine"
)

// models is the subset of *genai.Models the backend calls.
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

type Backend struct {
	models        models
	model         string
	opts          engine.Options
	timeout       time.Duration
	streamTimeout time.Duration
}

// New builds a Gemini backend. A missing API key is reported as
// engine.ErrMissingCredentials so callers can substitute a failing stand-in.
func New(ctx context.Context, cfg config.ProviderConfig) (*Backend, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, fmt.Errorf("gemini: %w", engine.ErrMissingCredentials)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return newWithModels(client.Models, cfg), nil
}

func newWithModels(m models, cfg config.ProviderConfig) *Backend {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = config.DefaultModel
	}
	return &Backend{
		models: m,
		model:  model,
		opts: engine.Options{
			Temperature:     cfg.Temperature,
			MaxOutputTokens: cfg.MaxOutputTokens,
		},
		timeout:       cfg.Timeout.Duration,
		streamTimeout: cfg.StreamTimeout.Duration,
	}
}

func (b *Backend) Name() string { return "gemini" }

func (b *Backend) Generate(ctx context.Context, p engine.Prompt) (string, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	resp, err := b.models.GenerateContent(ctx, b.model, userContents(p), b.generateConfig(p))
	if err != nil {
		return "", wrapErr(err)
	}
	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return "", errors.New("gemini: empty completion")
	}
	return text, nil
}

// GenerateStream defers the upstream call until the first fragment is
// pulled, so request failures arrive as the first and only stream element.
// The stream timeout, when set, bounds the whole stream and is released with it.
func (b *Backend) GenerateStream(ctx context.Context, p engine.Prompt) (*engine.Stream, error) {
	ctx2, cancel := ctx, context.CancelFunc(func() {})
	if b.streamTimeout > 0 {
		ctx2, cancel = context.WithTimeout(ctx, b.streamTimeout)
	}
	upstream := b.models.GenerateContentStream(ctx2, b.model, userContents(p), b.generateConfig(p))
	return engine.NewStreamWithRelease(func(yield func(string, error) bool) {
		for resp, err := range upstream {
			if err != nil {
				if cerr := ctx2.Err(); cerr != nil && !errors.Is(err, cerr) {
					err = fmt.Errorf("%w: %w", cerr, err)
				}
				yield("", wrapErr(err))
				return
			}
			text := responseText(resp)
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}, cancel), nil
}

func (b *Backend) generateConfig(p engine.Prompt) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:     b.opts.Temperature,
		MaxOutputTokens: b.opts.MaxOutputTokens,
	}
	if s := strings.TrimSpace(p.System); s != "" {
		cfg.SystemInstruction = genai.NewContentFromText(s, genai.RoleUser)
	}
	return cfg
}

func userContents(p engine.Prompt) []*genai.Content {
	return []*genai.Content{genai.NewContentFromText(p.User, genai.RoleUser)}
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	return resp.Text()
}

// APIError is a Gemini API failure with its HTTP status preserved.
type APIError struct {
	Code    int
	Status  string
	Message string
	err     error
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("gemini: %d %s: %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("gemini: %d: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error { return e.err }

func (e *APIError) HTTPStatusCode() int { return e.Code }

func wrapErr(err error) error {
	var v genai.APIError
	if errors.As(err, &v) {
		return &APIError{Code: v.Code, Status: v.Status, Message: v.Message, err: err}
	}
	var p *genai.APIError
	if errors.As(err, &p) && p != nil {
		return &APIError{Code: p.Code, Status: p.Status, Message: p.Message, err: err}
	}
	return fmt.Errorf("gemini: %w", err)
}
