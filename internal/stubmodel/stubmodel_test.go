package stubmodel

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/dotcommander/modelkit/internal/proto"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	require.Equal(t, []string{"abc", "def", "g"}, Split("abcdefg", 3))
	require.Equal(t, []string{"abc"}, Split("abc", 0))
	require.Empty(t, Split("", 3))
}

func TestModelReplaysChunks(t *testing.T) {
	m := ReasoningModel("think")
	s := m.Request(context.Background(), proto.Request{})

	var b strings.Builder
	for s.Next() {
		c, err := s.Current()
		require.NoError(t, err)
		b.WriteString(c.Content)
	}
	require.NoError(t, s.Err())
	require.Equal(t, "<think>"+ReasoningThoughts+"</think>"+ReasoningAnswer, b.String())
}

func TestModelHandlerAndError(t *testing.T) {
	m := &Model{
		Handler: func(r proto.Request) []string { return []string{r.Model} },
		Err:     io.ErrUnexpectedEOF,
	}
	s := m.Request(context.Background(), proto.Request{Model: "echo"})
	require.True(t, s.Next())
	c, err := s.Current()
	require.NoError(t, err)
	require.Equal(t, "echo", c.Content)
	require.False(t, s.Next())
	require.True(t, errors.Is(s.Err(), io.ErrUnexpectedEOF))
}

func TestStreamStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewStream(ctx, "a", "b")
	require.True(t, s.Next())
	cancel()
	require.False(t, s.Next())
	require.ErrorIs(t, s.Err(), context.Canceled)
	require.Equal(t, 1, s.Pulls())
}

func TestImageModel(t *testing.T) {
	a, err := ImageModel().Generate(context.Background(), "small-model", "a cat", proto.ImageOptions{})
	require.NoError(t, err)
	require.Equal(t, "image/png", a.MediaType)
	require.True(t, strings.HasPrefix(string(a.Data), "\x89PNG"))
	require.NotEmpty(t, a.ID)
}
