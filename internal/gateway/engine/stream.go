package engine

import (
	"iter"
	"strings"
	"sync/atomic"
)

// Stream is a lazy, ordered, single-use sequence of text fragments. Each
// fragment is produced only when the consumer pulls it; breaking out of the
// range loop releases the upstream resources.
type Stream struct {
	seq     iter.Seq2[string, error]
	release func()
	used    atomic.Bool
}

// NewStream wraps seq. seq must yield ("", err) at most once, as its last element.
func NewStream(seq iter.Seq2[string, error]) *Stream {
	return &Stream{seq: seq}
}

// NewStreamWithRelease is NewStream plus a release func that runs exactly once:
// after the first range finishes, or on Close if the stream was never ranged.
func NewStreamWithRelease(seq iter.Seq2[string, error], release func()) *Stream {
	return &Stream{seq: seq, release: release}
}

// Fragments returns the sequence. Only the first range over any value it
// returns sees fragments; later ranges yield nothing.
func (s *Stream) Fragments() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if s == nil || s.seq == nil || !s.used.CompareAndSwap(false, true) {
			return
		}
		if s.release != nil {
			defer s.release()
		}
		s.seq(yield)
	}
}

// Close releases a stream that will not be ranged. It is a no-op once ranging started.
func (s *Stream) Close() {
	if s == nil || !s.used.CompareAndSwap(false, true) {
		return
	}
	if s.release != nil {
		s.release()
	}
}

// Collect drains the stream into a single string.
func (s *Stream) Collect() (string, error) {
	var b strings.Builder
	for frag, err := range s.Fragments() {
		if err != nil {
			return b.String(), err
		}
		b.WriteString(frag)
	}
	return b.String(), nil
}

// Chunk splits text into pieces of at most size runes, preserving order.
func Chunk(text string, size int) []string {
	if text == "" {
		return nil
	}
	if size <= 0 {
		return []string{text}
	}
	var out []string
	runes := []rune(text)
	for i := 0; i < len(runes); i += size {
		end := min(i+size, len(runes))
		out = append(out, string(runes[i:end]))
	}
	return out
}
