package mock

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/yungbote/lewa-backend/internal/gateway/engine"
)

const chunkSize = 16

// Backend is a deterministic in-process provider. Without Text it echoes the
// question; fragments are fixed-size chunks of the full answer.
type Backend struct {
	// Text, when set, is returned for every prompt.
	Text string
	// Err fails the call before anything is produced.
	Err error
	// StreamErr is yielded after FailAfter fragments.
	StreamErr error
	FailAfter int

	calls    atomic.Int64
	produced atomic.Int64
	last     atomic.Pointer[engine.Prompt]
}

func New() *Backend {
	return &Backend{}
}

func (b *Backend) Name() string { return "mock" }

func (b *Backend) Generate(ctx context.Context, p engine.Prompt) (string, error) {
	b.record(p)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if b.Err != nil {
		return "", b.Err
	}
	if b.StreamErr != nil && b.FailAfter == 0 {
		return "", b.StreamErr
	}
	return b.answer(p), nil
}

func (b *Backend) GenerateStream(ctx context.Context, p engine.Prompt) (*engine.Stream, error) {
	b.record(p)
	if b.Err != nil {
		return nil, b.Err
	}
	chunks := engine.Chunk(b.answer(p), chunkSize)
	return engine.NewStream(func(yield func(string, error) bool) {
		for i, c := range chunks {
			if b.StreamErr != nil && i == b.FailAfter {
				yield("", b.StreamErr)
				return
			}
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}
			b.produced.Add(1)
			if !yield(c, nil) {
				return
			}
		}
		if b.StreamErr != nil && b.FailAfter >= len(chunks) {
			yield("", b.StreamErr)
		}
	}), nil
}

// Calls reports how many times the backend was invoked in either mode.
func (b *Backend) Calls() int { return int(b.calls.Load()) }

// Produced reports how many stream fragments were generated.
func (b *Backend) Produced() int { return int(b.produced.Load()) }

// LastPrompt returns the most recent prompt, if any.
func (b *Backend) LastPrompt() (engine.Prompt, bool) {
	p := b.last.Load()
	if p == nil {
		return engine.Prompt{}, false
	}
	return *p, true
}

func (b *Backend) record(p engine.Prompt) {
	b.calls.Add(1)
	b.last.Store(&p)
}

func (b *Backend) answer(p engine.Prompt) string {
	if b.Text != "" {
		return b.Text
	}
	user := strings.TrimSpace(p.User)
	if user == "" {
		return "mock: ok"
	}
	return fmt.Sprintf("mock: %s", user)
}
