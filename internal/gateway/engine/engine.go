package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/lewa-backend/internal/domain/tutor"
)

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

type Message struct {
	Role    string
	Content string
}

// Prompt is one framed generation request: persona text as the system
// segment and the student's question as the user segment.
type Prompt struct {
	System string
	User   string
}

// Frame builds the prompt every backend submits for (persona, question).
func Frame(p tutor.Persona, q tutor.Question) Prompt {
	return Prompt{
		System: p.SystemPrompt(),
		User:   q.Text,
	}
}

func (p Prompt) Messages() []Message {
	return []Message{
		{Role: RoleSystem, Content: p.System},
		{Role: RoleUser, Content: p.User},
	}
}

// Options are the sampling settings fixed per deployment.
type Options struct {
	Temperature     *float32
	MaxOutputTokens int32
}

// Backend is a text generation provider. Implementations hold no per-request
// state and are safe for concurrent use.
type Backend interface {
	Name() string
	Generate(ctx context.Context, p Prompt) (string, error)
	// GenerateStream may fail before any fragment is produced; later failures
	// surface as the final element of the stream.
	GenerateStream(ctx context.Context, p Prompt) (*Stream, error)
}

var ErrMissingCredentials = errors.New("provider api key is missing")

type missingCredentials struct {
	provider string
}

// MissingCredentials returns a Backend that fails every call with
// ErrMissingCredentials. It stands in for a provider with no configured key.
func MissingCredentials(provider string) Backend {
	return missingCredentials{provider: provider}
}

func (m missingCredentials) Name() string { return m.provider }

func (m missingCredentials) Generate(context.Context, Prompt) (string, error) {
	return "", fmt.Errorf("%s: %w", m.provider, ErrMissingCredentials)
}

func (m missingCredentials) GenerateStream(context.Context, Prompt) (*Stream, error) {
	return nil, fmt.Errorf("%s: %w", m.provider, ErrMissingCredentials)
}
