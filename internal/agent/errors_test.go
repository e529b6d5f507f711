package agent

import (
	"fmt"
	"net/http"
	"testing"

	"charm.land/fantasy"
	"github.com/dotcommander/modelkit/internal/config"
	"github.com/dotcommander/modelkit/internal/registry"
	"github.com/stretchr/testify/require"
)

var cutPromptTests = map[string]struct {
	msg      string
	prompt   string
	expected string
}{
	"bad error": {
		msg:      "nope",
		prompt:   "the prompt",
		expected: "the prompt",
	},
	"crazy error": {
		msg:      tokenErrMsg(10, 93),
		prompt:   "the prompt",
		expected: "the prompt",
	},
	"cut prompt": {
		msg:      tokenErrMsg(10, 3),
		prompt:   "this is a long prompt I have no idea if its really 10 tokens",
		expected: "this is a long prompt ",
	},
	"missmatch of token estimation vs api result": {
		msg:      tokenErrMsg(30000, 100),
		prompt:   "tell me a joke",
		expected: "tell me a joke",
	},
}

func tokenErrMsg(l, ml int) string {
	return fmt.Sprintf(
		`This model's maximum context length is %d tokens. However, your messages resulted in %d tokens`,
		ml,
		l,
	)
}

func TestCutPrompt(t *testing.T) {
	for name, tc := range cutPromptTests {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.expected, cutPrompt(tc.msg, tc.prompt))
		})
	}
}

func TestActionForStreamError(t *testing.T) {
	cfg := config.Default()
	svc := New(&cfg, nil, nil)
	b := &registry.Binding{Key: registry.ChatModelReasoning, API: "newapi", Model: "qwen", Fallback: registry.ChatModel}

	t.Run("not found falls back", func(t *testing.T) {
		a := svc.ActionForStreamError(&fantasy.ProviderError{StatusCode: http.StatusNotFound}, b, "p")
		require.True(t, a.Retry)
		require.Equal(t, registry.ChatModel, a.KeyOverride)
	})

	t.Run("not found without fallback", func(t *testing.T) {
		nb := *b
		nb.Fallback = ""
		a := svc.ActionForStreamError(&fantasy.ProviderError{StatusCode: http.StatusNotFound}, &nb, "p")
		require.False(t, a.Retry)
		require.Equal(t, "Missing model 'qwen' for API 'newapi'.", a.Err.Reason)
	})

	t.Run("context length cuts the prompt", func(t *testing.T) {
		a := svc.ActionForStreamError(&fantasy.ProviderError{
			StatusCode:   http.StatusBadRequest,
			Message:      tokenErrMsg(10, 3),
			ResponseBody: []byte(`{"error":{"code":"context_length_exceeded"}}`),
		}, b, "this is a long prompt I have no idea if its really 10 tokens")
		require.True(t, a.Retry)
		require.Equal(t, "Maximum prompt size exceeded.", a.Err.Reason)
		require.Less(t, len(a.Prompt), 60)
	})

	t.Run("context length with no-limit", func(t *testing.T) {
		cfg := config.Default()
		cfg.NoLimit = true
		svc := New(&cfg, nil, nil)
		a := svc.ActionForStreamError(&fantasy.ProviderError{
			StatusCode: http.StatusBadRequest,
			Message:    "context_length_exceeded",
		}, b, "p")
		require.False(t, a.Retry)
	})

	t.Run("rate limit retries", func(t *testing.T) {
		a := svc.ActionForStreamError(rateLimited(), b, "p")
		require.True(t, a.Retry)
		require.Equal(t, "p", a.Prompt)
		require.Empty(t, a.KeyOverride)
	})

	t.Run("other errors", func(t *testing.T) {
		a := svc.ActionForStreamError(fmt.Errorf("dial tcp: refused"), b, "p")
		require.False(t, a.Retry)
		require.Equal(t, "There was a problem with the newapi API request.", a.Err.Reason)
	})
}
