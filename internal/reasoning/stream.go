package reasoning

import (
	"context"
	"errors"
	"sync"

	"github.com/dotcommander/modelkit/internal/proto"
	"github.com/dotcommander/modelkit/internal/stream"
)

var _ stream.SpanStream = &Stream{}

// Stream wraps a raw chunk stream and yields reasoning and content spans.
//
// Next pulls at most one raw chunk per call that needs more input. Close may be
// called from another goroutine; after it returns no further spans are
// emitted and the raw stream is not pulled again.
type Stream struct {
	ctx context.Context
	raw stream.Stream

	mu      sync.Mutex
	ex      *Extractor
	pending []proto.Span
	cur     proto.Span
	err     error
	done    bool
	closed  bool
}

// Wrap returns a span stream over raw using a fresh extractor for tag.
func Wrap(ctx context.Context, raw stream.Stream, tag string, opts ...Option) *Stream {
	return &Stream{
		ctx: ctx,
		raw: raw,
		ex:  NewExtractor(tag, opts...),
	}
}

// Next implements stream.SpanStream.
func (s *Stream) Next() bool {
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return false
		}
		if err := s.ctx.Err(); err != nil {
			s.cancelLocked(err)
			s.mu.Unlock()
			_ = s.raw.Close()
			return false
		}
		if len(s.pending) > 0 {
			s.cur = s.pending[0]
			s.pending = s.pending[1:]
			s.mu.Unlock()
			return true
		}
		if s.done {
			s.mu.Unlock()
			return false
		}
		s.mu.Unlock()

		more := s.raw.Next()

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return false
		}
		if !more {
			err := s.raw.Err()
			if ctxErr := s.ctx.Err(); ctxErr != nil {
				s.cancelLocked(ctxErr)
				s.mu.Unlock()
				_ = s.raw.Close()
				return false
			}
			s.finishLocked(err)
			s.mu.Unlock()
			continue
		}
		chunk, err := s.raw.Current()
		switch {
		case errors.Is(err, stream.ErrNoContent):
		case err != nil:
			s.finishLocked(err)
			s.mu.Unlock()
			_ = s.raw.Close()
			continue
		case chunk.Reasoning:
			// A tag cannot span a provider reasoning part: held back text
			// is flushed first so spans keep the order of their bytes.
			if chunk.Content != "" {
				s.pending = append(s.pending, s.ex.Flush()...)
				s.pending = append(s.pending, proto.ReasoningSpan(chunk.Content))
			}
		default:
			s.pending = append(s.pending, s.ex.Feed(chunk.Content)...)
		}
		s.mu.Unlock()
	}
}

// finishLocked handles the end of the raw stream: held back text is flushed
// and a transport failure is reported after it.
func (s *Stream) finishLocked(err error) {
	s.done = true
	s.pending = append(s.pending, s.ex.Flush()...)
	if err != nil {
		s.err = stream.Interrupted(err)
	}
}

// cancelLocked abandons the stream without flushing.
func (s *Stream) cancelLocked(err error) {
	s.closed = true
	s.done = true
	s.pending = nil
	s.ex.Release()
	if err != nil && s.err == nil {
		s.err = err
	}
}

// Current implements stream.SpanStream.
func (s *Stream) Current() proto.Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Err implements stream.SpanStream.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// DrainWarnings implements stream.WarningSource.
func (s *Stream) DrainWarnings() []string { return stream.Warnings(s.raw) }

// Close implements stream.SpanStream. Held back text is discarded.
func (s *Stream) Close() error {
	s.mu.Lock()
	s.cancelLocked(nil)
	s.mu.Unlock()
	return s.raw.Close() //nolint:wrapcheck
}
