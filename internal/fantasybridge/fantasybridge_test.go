package fantasybridge

import (
	"context"
	"errors"
	"testing"

	"charm.land/fantasy"
	"charm.land/fantasy/providers/google"
	fopenai "charm.land/fantasy/providers/openai"
	fopenaicompat "charm.land/fantasy/providers/openaicompat"
	"github.com/dotcommander/modelkit/internal/errs"
	"github.com/dotcommander/modelkit/internal/proto"
	"github.com/dotcommander/modelkit/internal/stream"
	"github.com/stretchr/testify/require"
)

func TestBuildCallGoogleThinkingBudget(t *testing.T) {
	s := &Stream{
		api:    "google",
		config: Config{ThinkingBudget: 256},
	}

	call := s.buildCall()

	v, ok := call.ProviderOptions[google.Name]
	require.True(t, ok)
	opts, ok := v.(*google.ProviderOptions)
	require.True(t, ok)
	require.NotNil(t, opts.ThinkingConfig)
	require.NotNil(t, opts.ThinkingConfig.ThinkingBudget)
	require.EqualValues(t, 256, *opts.ThinkingConfig.ThinkingBudget)
}

func TestBuildCallNonGoogleNoThinkingBudgetOption(t *testing.T) {
	s := &Stream{
		api:    "openai",
		config: Config{ThinkingBudget: 512},
	}

	call := s.buildCall()
	require.Empty(t, call.ProviderOptions)
}

func TestBuildCallPrompt(t *testing.T) {
	s := &Stream{
		api: "openai",
		request: proto.Options{System: []string{"be brief"}}.Request("gpt-4o", "hello"),
	}

	call := s.buildCall()
	require.Len(t, call.Prompt, 2)
	require.Equal(t, fantasy.MessageRoleSystem, call.Prompt[0].Role)
	require.Equal(t, fantasy.MessageRoleUser, call.Prompt[1].Role)
}

func TestNewAzureADProviderAlias(t *testing.T) {
	client, err := New(Config{
		API:     "azure-ad",
		APIKey:  "token",
		BaseURL: "https://example.openai.azure.com",
	})
	require.NoError(t, err)
	require.NotNil(t, client)
	require.Equal(t, "azure-ad", client.API())
}

func TestNewOpenAICompatibleFallback(t *testing.T) {
	client, err := New(Config{
		API:     "newapi",
		APIKey:  "sk-test",
		BaseURL: "https://api.openai.com/v1",
	})
	require.NoError(t, err)
	require.NotNil(t, client)
}

func TestBuildCallUserProviderOptions(t *testing.T) {
	userOf := func(t *testing.T, call fantasy.Call, name string) string {
		t.Helper()
		v, ok := call.ProviderOptions[name]
		require.True(t, ok)
		switch opts := v.(type) {
		case *fopenai.ProviderOptions:
			require.NotNil(t, opts.User)
			return *opts.User
		case *fopenaicompat.ProviderOptions:
			require.NotNil(t, opts.User)
			return *opts.User
		}
		t.Fatalf("unexpected provider options %T", v)
		return ""
	}

	t.Run("openai", func(t *testing.T) {
		s := &Stream{api: "openai", request: proto.Request{User: "alice"}}
		require.Equal(t, "alice", userOf(t, s.buildCall(), fopenai.Name))
	})

	t.Run("azure", func(t *testing.T) {
		s := &Stream{api: "azure", request: proto.Request{User: "dana"}}
		require.Equal(t, "dana", userOf(t, s.buildCall(), fopenai.Name))
	})

	t.Run("openai-compatible", func(t *testing.T) {
		s := &Stream{api: "deepseek", request: proto.Request{User: "bob"}}
		require.Equal(t, "bob", userOf(t, s.buildCall(), fopenaicompat.Name))
	})

	t.Run("google has none", func(t *testing.T) {
		s := &Stream{api: "google", request: proto.Request{User: "carol"}}
		call := s.buildCall()
		require.NotContains(t, call.ProviderOptions, fopenai.Name)
		require.NotContains(t, call.ProviderOptions, fopenaicompat.Name)
	})
}

func TestBuildCallMaxCompletionTokensProviderOptions(t *testing.T) {
	tokens := int64(321)

	t.Run("openai", func(t *testing.T) {
		s := &Stream{api: "openai", request: proto.Request{MaxCompletionTokens: &tokens}}
		call := s.buildCall()
		v, ok := call.ProviderOptions[fopenai.Name]
		require.True(t, ok)
		opts, ok := v.(*fopenai.ProviderOptions)
		require.True(t, ok)
		require.NotNil(t, opts.MaxCompletionTokens)
		require.EqualValues(t, 321, *opts.MaxCompletionTokens)
	})

	t.Run("openai-compatible ignores it", func(t *testing.T) {
		s := &Stream{api: "deepseek", request: proto.Request{MaxCompletionTokens: &tokens}}
		call := s.buildCall()
		require.NotContains(t, call.ProviderOptions, fopenaicompat.Name)
	})
}

func TestDrainWarningsDeduplicates(t *testing.T) {
	s := &Stream{warningSeen: map[string]struct{}{}}

	s.consumePart(fantasy.StreamPart{
		Type: fantasy.StreamPartTypeWarnings,
		Warnings: []fantasy.CallWarning{
			{Type: fantasy.CallWarningTypeUnsupportedSetting, Setting: "top_k", Message: "unsupported setting: top_k"},
			{Type: fantasy.CallWarningTypeUnsupportedSetting, Setting: "top_k", Message: "unsupported setting: top_k"},
			{Type: fantasy.CallWarningTypeUnsupportedSetting, Setting: "top_p"},
		},
	})

	require.Equal(t, []string{"unsupported setting: top_k", "unsupported setting: top_p"}, s.DrainWarnings())
	require.Empty(t, s.DrainWarnings())
}

func newTestStream(parts ...fantasy.StreamPart) *Stream {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan fantasy.StreamPart, len(parts))
	for _, p := range parts {
		ch <- p
	}
	close(ch)
	return &Stream{ctx: ctx, cancel: cancel, partCh: ch, warningSeen: map[string]struct{}{}}
}

func TestStreamChunks(t *testing.T) {
	s := newTestStream(
		fantasy.StreamPart{Type: fantasy.StreamPartTypeReasoningStart},
		fantasy.StreamPart{Type: fantasy.StreamPartTypeReasoningDelta, Delta: "hmm"},
		fantasy.StreamPart{Type: fantasy.StreamPartTypeTextDelta, Delta: "<think>"},
		fantasy.StreamPart{Type: fantasy.StreamPartTypeTextDelta, Delta: "hi"},
		fantasy.StreamPart{Type: fantasy.StreamPartTypeFinish},
	)

	var chunks []proto.Chunk
	for s.Next() {
		c, err := s.Current()
		if errors.Is(err, stream.ErrNoContent) {
			continue
		}
		require.NoError(t, err)
		chunks = append(chunks, c)
	}
	require.NoError(t, s.Err())
	require.Equal(t, []proto.Chunk{
		{Content: "hmm", Reasoning: true},
		{Content: "<think>"},
		{Content: "hi"},
	}, chunks)
}

func TestStreamErrorPart(t *testing.T) {
	boom := errors.New("boom")
	s := newTestStream(
		fantasy.StreamPart{Type: fantasy.StreamPartTypeTextDelta, Delta: "a"},
		fantasy.StreamPart{Type: fantasy.StreamPartTypeError, Error: boom},
		fantasy.StreamPart{Type: fantasy.StreamPartTypeTextDelta, Delta: "b"},
	)

	require.True(t, s.Next())
	require.True(t, s.Next())
	_, err := s.Current()
	require.ErrorIs(t, err, boom)
	require.False(t, s.Next())
	require.ErrorIs(t, s.Err(), boom)
}

func TestStreamClose(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan fantasy.StreamPart)
	s := &Stream{ctx: ctx, cancel: cancel, partCh: ch}
	go func() {
		<-ctx.Done()
		close(ch)
	}()

	require.NoError(t, s.Close())
	require.False(t, s.Next())
	require.ErrorIs(t, s.Err(), context.Canceled)
}

func TestOpenModelLookupFailure(t *testing.T) {
	unknown := errors.New("unknown model")
	s := open(context.Background(), proto.Request{Model: "nope"}, Config{API: "openai"},
		func(context.Context, string) (fantasy.LanguageModel, error) {
			return nil, unknown
		})

	require.False(t, s.Next())
	require.ErrorIs(t, s.Err(), errs.ErrStreamNotStarted)
	require.ErrorIs(t, s.Err(), unknown)
	require.ErrorIs(t, s.ctx.Err(), context.Canceled)

	spans, err := stream.Collect(stream.Plain(context.Background(), s))
	require.Empty(t, spans)
	require.ErrorIs(t, err, errs.ErrStreamNotStarted)
	require.NotErrorIs(t, err, errs.ErrStreamInterrupted)
}

func TestWarningsReachSpanStream(t *testing.T) {
	s := newTestStream(
		fantasy.StreamPart{Type: fantasy.StreamPartTypeWarnings, Warnings: []fantasy.CallWarning{
			{Type: fantasy.CallWarningTypeUnsupportedSetting, Setting: "top_k"},
		}},
		fantasy.StreamPart{Type: fantasy.StreamPartTypeTextDelta, Delta: "hi"},
	)
	spans := stream.Plain(context.Background(), s)
	_, err := stream.Collect(spans)
	require.NoError(t, err)
	require.Equal(t, []string{"unsupported setting: top_k"}, stream.Warnings(spans))
}
