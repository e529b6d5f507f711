// Package stream defines the raw chunk stream produced by provider clients and
// the typed span stream handed to callers.
package stream

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dotcommander/modelkit/internal/errs"
	"github.com/dotcommander/modelkit/internal/proto"
)

// ErrNoContent is returned by Stream.Current when the current provider event
// carries no output text.
var ErrNoContent = errors.New("no content")

// Client starts raw streams.
type Client interface {
	Request(ctx context.Context, request proto.Request) Stream
}

// Stream is a pull-driven raw chunk stream.
//
// Next blocks until the next provider event is available and reports false at
// the end of the stream; Err then tells a clean end from a failure.
type Stream interface {
	Next() bool
	Current() (proto.Chunk, error)
	Err() error
	Close() error
}

// SpanStream is a pull-driven stream of typed spans.
type SpanStream interface {
	Next() bool
	Current() proto.Span
	Err() error
	Close() error
}

// WarningSource is implemented by streams that collect provider warnings.
type WarningSource interface {
	DrainWarnings() []string
}

// Warnings drains the provider warnings of s, if it collects any.
func Warnings(s any) []string {
	if ws, ok := s.(WarningSource); ok {
		return ws.DrainWarnings()
	}
	return nil
}

// Interrupted marks cause as an abnormal end of a provider stream. A stream
// that never started is reported as is.
func Interrupted(cause error) error {
	if errors.Is(cause, errs.ErrStreamNotStarted) {
		return cause
	}
	return errs.Wrap(errs.Kind(errs.ErrStreamInterrupted, cause), "The model stream ended before completing.")
}

// NotStarted marks cause as a failure to start a provider stream.
func NotStarted(cause error) error {
	return errs.Wrap(errs.Kind(errs.ErrStreamNotStarted, cause), "The model stream could not be started.")
}

// Plain adapts a raw stream of a model that never emits delimiter tags. Text
// chunks become content spans, provider-labelled reasoning becomes reasoning
// spans.
func Plain(ctx context.Context, raw Stream) SpanStream {
	return &plain{ctx: ctx, raw: raw}
}

type plain struct {
	ctx    context.Context
	raw    Stream
	cur    proto.Span
	err    error
	mu     sync.Mutex
	closed atomic.Bool
}

func (p *plain) Next() bool {
	for {
		if p.closed.Load() {
			return false
		}
		if err := p.ctx.Err(); err != nil {
			p.setErr(err)
			_ = p.raw.Close()
			return false
		}
		if !p.raw.Next() {
			if ctxErr := p.ctx.Err(); ctxErr != nil {
				p.setErr(ctxErr)
				_ = p.raw.Close()
			} else if err := p.raw.Err(); err != nil && !p.closed.Load() {
				p.setErr(Interrupted(err))
			}
			return false
		}
		chunk, err := p.raw.Current()
		if errors.Is(err, ErrNoContent) {
			continue
		}
		if err != nil {
			p.setErr(Interrupted(err))
			_ = p.raw.Close()
			return false
		}
		if chunk.Content == "" {
			continue
		}
		p.cur = proto.ContentSpan(chunk.Content)
		if chunk.Reasoning {
			p.cur = proto.ReasoningSpan(chunk.Content)
		}
		return true
	}
}

func (p *plain) setErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *plain) Current() proto.Span { return p.cur }

func (p *plain) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// DrainWarnings implements WarningSource.
func (p *plain) DrainWarnings() []string { return Warnings(p.raw) }

func (p *plain) Close() error {
	p.closed.Store(true)
	return p.raw.Close()
}

// Collect drains s and closes it. Spans read before a failure are returned
// together with the error.
func Collect(s SpanStream) ([]proto.Span, error) {
	defer s.Close() //nolint:errcheck

	var spans []proto.Span
	for s.Next() {
		spans = append(spans, s.Current())
	}
	return spans, s.Err()
}

// Coalesce merges adjacent spans of the same channel. Two streams that split
// the same raw output at different chunk boundaries coalesce to the same
// sequence.
func Coalesce(spans []proto.Span) []proto.Span {
	out := make([]proto.Span, 0, len(spans))
	for _, s := range spans {
		if s.Text == "" {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Channel == s.Channel {
			out[n-1].Text += s.Text
			continue
		}
		out = append(out, s)
	}
	return out
}

// Text concatenates the text of the spans on channel.
func Text(spans []proto.Span, channel proto.Channel) string {
	var b strings.Builder
	for _, s := range spans {
		if s.Channel == channel {
			b.WriteString(s.Text)
		}
	}
	return b.String()
}
