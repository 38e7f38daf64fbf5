package mock

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yungbote/lewa-backend/internal/gateway/engine"
)

func TestGenerateEchoesQuestion(t *testing.T) {
	b := New()
	out, err := b.Generate(context.Background(), engine.Prompt{System: "sys", User: " What is osmosis? "})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "mock: What is osmosis?" {
		t.Fatalf("out=%q", out)
	}
	if b.Calls() != 1 {
		t.Fatalf("calls=%d", b.Calls())
	}
	last, ok := b.LastPrompt()
	if !ok || last.System != "sys" {
		t.Fatalf("last=%+v ok=%v", last, ok)
	}
}

func TestStreamMatchesGenerate(t *testing.T) {
	b := &Backend{Text: strings.Repeat("photosynthesis ", 5)}
	p := engine.Prompt{User: "q"}

	full, err := b.Generate(context.Background(), p)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	s, err := b.GenerateStream(context.Background(), p)
	if err != nil {
		t.Fatalf("GenerateStream: %v", err)
	}
	got, err := s.Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if got != full {
		t.Fatalf("stream=%q full=%q", got, full)
	}
	if want := len(engine.Chunk(full, chunkSize)); b.Produced() != want {
		t.Fatalf("produced=%d want=%d", b.Produced(), want)
	}
}

func TestStreamFailsAfterFragments(t *testing.T) {
	boom := errors.New("boom")
	b := &Backend{Text: strings.Repeat("x", 64), StreamErr: boom, FailAfter: 2}

	s, err := b.GenerateStream(context.Background(), engine.Prompt{User: "q"})
	if err != nil {
		t.Fatalf("GenerateStream: %v", err)
	}
	var frags int
	var last error
	for _, err := range s.Fragments() {
		if err != nil {
			last = err
			continue
		}
		frags++
	}
	if frags != 2 || !errors.Is(last, boom) {
		t.Fatalf("frags=%d last=%v", frags, last)
	}
}

func TestErrFailsBeforeStream(t *testing.T) {
	boom := errors.New("429 Too Many Requests")
	b := &Backend{Err: boom}
	if _, err := b.GenerateStream(context.Background(), engine.Prompt{User: "q"}); !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
	if b.Calls() != 1 || b.Produced() != 0 {
		t.Fatalf("calls=%d produced=%d", b.Calls(), b.Produced())
	}
}
