package dispatch

import (
	"errors"
	"iter"
	"sync"

	"github.com/yungbote/lewa-backend/internal/domain/tutor"
	"github.com/yungbote/lewa-backend/internal/gateway/engine"
	"github.com/yungbote/lewa-backend/internal/gateway/gwerr"
)

var errEmptyStream = errors.New("upstream returned an empty answer")

// Fragment is one piece of a streamed answer. A non-nil Err marks the final
// fragment, whose Text is the in-band error rendering.
type Fragment struct {
	Text string
	Err  *gwerr.Error
}

// StreamResponse is a live, single-use answer stream. Callers must either
// range Fragments or call Close.
type StreamResponse struct {
	Subject string
	Level   tutor.Level

	next  func() (string, error, bool)
	stop  func()
	first string

	once   sync.Once
	used   bool
	mu     sync.Mutex
	onDone func(fragments int, ge *gwerr.Error, completed bool)
}

func newStreamResponse(key tutor.SubjectKey, s *engine.Stream) *StreamResponse {
	next, stop := iter.Pull2(s.Fragments())
	return &StreamResponse{
		Subject: key.Subject,
		Level:   key.Level,
		next:    next,
		stop: func() {
			stop()
			s.Close()
		},
	}
}

// prime pulls the first fragment. An error here, or an empty stream, ends
// the stream before anything is committed.
func (s *StreamResponse) prime() *gwerr.Error {
	for {
		frag, err, ok := s.next()
		if !ok {
			s.stop()
			return gwerr.Upstream(errEmptyStream)
		}
		if err != nil {
			s.stop()
			return gwerr.Classify(err)
		}
		if frag == "" {
			continue
		}
		s.first = frag
		return nil
	}
}

// Fragments yields the answer in backend order. Only the first call yields
// anything. Breaking out of the loop stops the backend.
func (s *StreamResponse) Fragments() iter.Seq[Fragment] {
	return func(yield func(Fragment) bool) {
		s.mu.Lock()
		if s.used {
			s.mu.Unlock()
			return
		}
		s.used = true
		s.mu.Unlock()

		count := 0
		completed := false
		var failure *gwerr.Error
		defer func() { s.finish(count, failure, completed) }()

		count++
		if !yield(Fragment{Text: s.first}) {
			return
		}
		for {
			frag, err, ok := s.next()
			if !ok {
				completed = true
				return
			}
			if err != nil {
				completed = true
				failure = gwerr.Classify(err)
				yield(Fragment{Text: failure.StreamText(), Err: failure})
				return
			}
			if frag == "" {
				continue
			}
			count++
			if !yield(Fragment{Text: frag}) {
				return
			}
		}
	}
}

// Close stops the stream without consuming it. It is safe to call after Fragments.
func (s *StreamResponse) Close() {
	s.mu.Lock()
	s.used = true
	s.mu.Unlock()
	s.finish(0, nil, false)
}

// finish runs once. completed is false when the consumer stopped before the
// backend ended the stream.
func (s *StreamResponse) finish(fragments int, ge *gwerr.Error, completed bool) {
	s.once.Do(func() {
		s.stop()
		if s.onDone != nil {
			s.onDone(fragments, ge, completed)
		}
	})
}
