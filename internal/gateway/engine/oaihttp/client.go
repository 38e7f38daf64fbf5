package oaihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/lewa-backend/internal/gateway/config"
	"github.com/yungbote/lewa-backend/internal/gateway/engine"
	"github.com/yungbote/lewa-backend/internal/pkg/httpx"
)

// Backend talks to any OpenAI-compatible chat completions server.
type Backend struct {
	baseURL string
	apiKey  string
	model   string

	chatCompletionsPath string

	timeout       time.Duration
	streamTimeout time.Duration
	opts          engine.Options

	httpClient *http.Client
}

func New(cfg config.ProviderConfig) (*Backend, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("oai_http: base_url required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, errors.New("oai_http: model required")
	}

	chatPath := strings.TrimSpace(cfg.ChatCompletionsPath)
	if chatPath == "" {
		chatPath = "/v1/chat/completions"
	}

	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	timeout := cfg.Timeout.Duration
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Backend{
		baseURL:             baseURL,
		apiKey:              strings.TrimSpace(cfg.APIKey),
		model:               model,
		chatCompletionsPath: chatPath,
		timeout:             timeout,
		streamTimeout:       cfg.StreamTimeout.Duration,
		opts: engine.Options{
			Temperature:     cfg.Temperature,
			MaxOutputTokens: cfg.MaxOutputTokens,
		},
		httpClient: &http.Client{Transport: tr},
	}, nil
}

// NewWithHTTPClient is intended for tests; it avoids network access by using a custom RoundTripper.
func NewWithHTTPClient(cfg config.ProviderConfig, httpClient *http.Client) (*Backend, error) {
	b, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if httpClient != nil {
		b.httpClient = httpClient
	}
	return b, nil
}

func (b *Backend) Name() string { return "oai_http" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
	MaxTokens   int32         `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content,omitempty"`
		} `json:"message,omitempty"`
		Text string `json:"text,omitempty"`
	} `json:"choices"`
}

type chatCompletionStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content,omitempty"`
		} `json:"delta,omitempty"`
		Text string `json:"text,omitempty"`
	} `json:"choices"`
	Error any `json:"error,omitempty"`
}

func (b *Backend) Generate(ctx context.Context, p engine.Prompt) (string, error) {
	reqBody, err := b.buildChatRequest(p, false)
	if err != nil {
		return "", err
	}

	ctx2, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	resp, err := b.post(ctx2, reqBody, "application/json")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("oai_http: decode completion: %w", err)
	}
	text := extractChatText(out)
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty upstream completion")
	}
	return text, nil
}

// GenerateStream opens the upstream SSE stream. A non-2xx status fails here;
// the body is read only as fragments are pulled and is closed when the
// consumer stops.
func (b *Backend) GenerateStream(ctx context.Context, p engine.Prompt) (*engine.Stream, error) {
	reqBody, err := b.buildChatRequest(p, true)
	if err != nil {
		return nil, err
	}

	ctx2, cancel := ctx, context.CancelFunc(func() {})
	if b.streamTimeout > 0 {
		ctx2, cancel = context.WithTimeout(ctx, b.streamTimeout)
	}

	resp, err := b.post(ctx2, reqBody, "text/event-stream")
	if err != nil {
		cancel()
		return nil, err
	}

	release := func() {
		_ = resp.Body.Close()
		cancel()
	}

	seq := func(yield func(string, error) bool) {
		for data, err := range sseData(resp.Body) {
			if err != nil {
				if cerr := ctx2.Err(); cerr != nil {
					err = cerr
				}
				yield("", err)
				return
			}
			data = strings.TrimSpace(data)
			if data == "" {
				continue
			}
			if data == "[DONE]" {
				return
			}

			var chunk chatCompletionStreamChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				yield("", fmt.Errorf("oai_http: decode stream chunk: %w", err))
				return
			}
			if chunk.Error != nil {
				raw, _ := json.Marshal(chunk.Error)
				yield("", fmt.Errorf("upstream stream error: %s", string(raw)))
				return
			}

			for _, c := range chunk.Choices {
				delta := c.Delta.Content
				if delta == "" {
					delta = c.Text
				}
				if delta == "" {
					continue
				}
				if !yield(delta, nil) {
					return
				}
			}
		}
		if err := ctx2.Err(); err != nil {
			yield("", err)
		}
	}
	return engine.NewStreamWithRelease(seq, release), nil
}

func (b *Backend) buildChatRequest(p engine.Prompt, stream bool) (chatCompletionRequest, error) {
	msgs := toChatMessages(p.Messages())
	if len(msgs) == 0 || msgs[len(msgs)-1].Role != engine.RoleUser {
		return chatCompletionRequest{}, errors.New("no user message")
	}
	return chatCompletionRequest{
		Model:       b.model,
		Messages:    msgs,
		Temperature: b.opts.Temperature,
		MaxTokens:   b.opts.MaxOutputTokens,
		Stream:      stream,
	}, nil
}

func toChatMessages(messages []engine.Message) []chatMessage {
	out := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		role := strings.TrimSpace(m.Role)
		if role == "" || strings.TrimSpace(m.Content) == "" {
			continue
		}
		out = append(out, chatMessage{Role: role, Content: m.Content})
	}
	return out
}

func extractChatText(resp chatCompletionResponse) string {
	for _, c := range resp.Choices {
		if strings.TrimSpace(c.Message.Content) != "" {
			return c.Message.Content
		}
		if strings.TrimSpace(c.Text) != "" {
			return c.Text
		}
	}
	return ""
}

func (b *Backend) setHeaders(req *http.Request, accept string) {
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(accept) != "" {
		req.Header.Set("Accept", accept)
	}
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}
}

// post sends body and returns the response only for 2xx statuses.
func (b *Backend) post(ctx context.Context, body chatCompletionRequest, accept string) (*http.Response, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+b.chatCompletionsPath, &buf)
	if err != nil {
		return nil, err
	}
	b.setHeaders(req, accept)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       string(raw),
			RetryAfter: httpx.RetryAfterDuration(resp.Header, 0, 0),
		}
	}
	return resp, nil
}
