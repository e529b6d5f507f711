package stream

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/dotcommander/modelkit/internal/errs"
	"github.com/dotcommander/modelkit/internal/proto"
	"github.com/stretchr/testify/require"
)

func TestPlain(t *testing.T) {
	t.Run("text and provider reasoning", func(t *testing.T) {
		raw := &sliceStream{chunks: []proto.Chunk{
			{Content: "thinking", Reasoning: true},
			{Content: ""},
			{Content: "<think>kept</think>"},
		}}
		spans, err := Collect(Plain(context.Background(), raw))
		require.NoError(t, err)
		require.Equal(t, []proto.Span{
			proto.ReasoningSpan("thinking"),
			proto.ContentSpan("<think>kept</think>"),
		}, spans)
		require.True(t, raw.closed)
	})

	t.Run("transport error", func(t *testing.T) {
		raw := &sliceStream{chunks: []proto.Chunk{{Content: "a"}}, err: io.ErrUnexpectedEOF}
		spans, err := Collect(Plain(context.Background(), raw))
		require.Equal(t, []proto.Span{proto.ContentSpan("a")}, spans)
		require.ErrorIs(t, err, errs.ErrStreamInterrupted)
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("cancelled context stops pulling", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		raw := &sliceStream{chunks: []proto.Chunk{{Content: "a"}}}
		s := Plain(ctx, raw)
		require.False(t, s.Next())
		require.True(t, errors.Is(s.Err(), context.Canceled))
		require.Zero(t, raw.pulls)
	})

	t.Run("cancel during pull closes raw", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		raw := &sliceStream{onPull: cancel}
		s := Plain(ctx, raw)
		require.False(t, s.Next())
		require.ErrorIs(t, s.Err(), context.Canceled)
		require.True(t, raw.closed)
		require.Equal(t, 1, raw.pulls)
	})

	t.Run("close stops pulling", func(t *testing.T) {
		raw := &sliceStream{chunks: []proto.Chunk{{Content: "a"}, {Content: "b"}}}
		s := Plain(context.Background(), raw)
		require.True(t, s.Next())
		require.NoError(t, s.Close())
		require.False(t, s.Next())
		require.Equal(t, 1, raw.pulls)
		require.NoError(t, s.Err())
	})
}

func TestCoalesce(t *testing.T) {
	in := []proto.Span{
		proto.ContentSpan("a"),
		proto.ContentSpan(""),
		proto.ContentSpan("b"),
		proto.ReasoningSpan("c"),
		proto.ReasoningSpan("d"),
		proto.ContentSpan("e"),
	}
	require.Equal(t, []proto.Span{
		proto.ContentSpan("ab"),
		proto.ReasoningSpan("cd"),
		proto.ContentSpan("e"),
	}, Coalesce(in))
	require.Empty(t, Coalesce(nil))
}

func TestText(t *testing.T) {
	spans := []proto.Span{proto.ContentSpan("a"), proto.ReasoningSpan("b"), proto.ContentSpan("c")}
	require.Equal(t, "ac", Text(spans, proto.ChannelContent))
	require.Equal(t, "b", Text(spans, proto.ChannelReasoning))
}

type sliceStream struct {
	chunks []proto.Chunk
	err    error
	// onPull runs inside Next, while the caller is blocked on it.
	onPull func()
	pos    int
	pulls  int
	closed bool
}

func (s *sliceStream) Next() bool {
	if s.closed {
		return false
	}
	s.pulls++
	s.pos++
	if s.onPull != nil {
		s.onPull()
	}
	return s.pos <= len(s.chunks)
}

func (s *sliceStream) Current() (proto.Chunk, error) { return s.chunks[s.pos-1], nil }

func (s *sliceStream) Err() error {
	if s.pos > len(s.chunks) {
		return s.err
	}
	return nil
}

func (s *sliceStream) Close() error {
	s.closed = true
	return nil
}
