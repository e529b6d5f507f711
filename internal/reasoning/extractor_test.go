package reasoning

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/dotcommander/modelkit/internal/proto"
	"github.com/dotcommander/modelkit/internal/stream"
	"github.com/stretchr/testify/require"
)

var extractTests = map[string]struct {
	in       string
	expected []proto.Span
}{
	"empty": {
		in: "",
	},
	"no tag passthrough": {
		in:       "just some text < with > brackets",
		expected: []proto.Span{proto.ContentSpan("just some text < with > brackets")},
	},
	"reasoning then content": {
		in: "<think>plan it</think>the answer",
		expected: []proto.Span{
			proto.ReasoningSpan("plan it"),
			proto.ContentSpan("the answer"),
		},
	},
	"unterminated tag at end": {
		in: "A<think>B",
		expected: []proto.Span{
			proto.ContentSpan("A"),
			proto.ReasoningSpan("B"),
		},
	},
	"nested looking mismatch": {
		in: "<thi><think>X</think>",
		expected: []proto.Span{
			proto.ContentSpan("<thi>"),
			proto.ReasoningSpan("X"),
		},
	},
	"nested opening tag is literal": {
		in: "<think>a<think>b</think>c",
		expected: []proto.Span{
			proto.ReasoningSpan("a<think>b"),
			proto.ContentSpan("c"),
		},
	},
	"closing tag outside is literal": {
		in:       "x</think>y",
		expected: []proto.Span{proto.ContentSpan("x</think>y")},
	},
	"several sections": {
		in: "a<think>b</think>c<think>d</think>e",
		expected: []proto.Span{
			proto.ContentSpan("a"),
			proto.ReasoningSpan("b"),
			proto.ContentSpan("c"),
			proto.ReasoningSpan("d"),
			proto.ContentSpan("e"),
		},
	},
	"double angle bracket": {
		in: "<<think>>x</think></think>",
		expected: []proto.Span{
			proto.ContentSpan("<"),
			proto.ReasoningSpan(">x"),
			proto.ContentSpan("</think>"),
		},
	},
	"partial open tag at end": {
		in:       "tail<th",
		expected: []proto.Span{proto.ContentSpan("tail<th")},
	},
	"partial close tag at end": {
		in: "<think>x</thi",
		expected: []proto.Span{
			proto.ReasoningSpan("x</thi"),
		},
	},
	"empty reasoning section": {
		in:       "a<think></think>b",
		expected: []proto.Span{proto.ContentSpan("ab")},
	},
	"case sensitive": {
		in:       "<THINK>x</THINK>",
		expected: []proto.Span{proto.ContentSpan("<THINK>x</THINK>")},
	},
	"multibyte text": {
		in: "héllo<think>ünïcode ✓</think>done",
		expected: []proto.Span{
			proto.ContentSpan("héllo"),
			proto.ReasoningSpan("ünïcode ✓"),
			proto.ContentSpan("done"),
		},
	},
}

func TestExtractorSingleChunk(t *testing.T) {
	for name, tc := range extractTests {
		t.Run(name, func(t *testing.T) {
			got := stream.Coalesce(extractChunks(DefaultTag, []string{tc.in}))
			require.Equal(t, tc.expected, nilIfEmpty(got))
		})
	}
}

func TestExtractorMatchesReference(t *testing.T) {
	for name, tc := range extractTests {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, nilIfEmpty(reference(tc.in, DefaultTag)), tc.expected)
		})
	}
}

func TestExtractorChunkBoundaryInvariance(t *testing.T) {
	for name, tc := range extractTests {
		t.Run(name, func(t *testing.T) {
			if len(tc.in) > 14 {
				for i := range 500 {
					chunks := randomSplit(rand.New(rand.NewSource(int64(i))), tc.in) //nolint:gosec
					got := stream.Coalesce(extractChunks(DefaultTag, chunks))
					require.Equal(t, tc.expected, nilIfEmpty(got), "chunks: %q", chunks)
				}
				return
			}
			for _, chunks := range allSplits(tc.in) {
				got := stream.Coalesce(extractChunks(DefaultTag, chunks))
				require.Equal(t, tc.expected, nilIfEmpty(got), "chunks: %q", chunks)
			}
		})
	}
}

func TestExtractorRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(42)) //nolint:gosec
	alphabet := []string{"a", "b", " ", "<", ">", "/", "t", "<think>", "</think>", "<thi", "</th", "é"}
	for range 300 {
		var b strings.Builder
		for range rnd.Intn(24) {
			b.WriteString(alphabet[rnd.Intn(len(alphabet))])
		}
		in := b.String()
		chunks := randomSplit(rnd, in)
		got := extractChunks(DefaultTag, chunks)
		want := reference(in, DefaultTag)

		require.Equal(t, nilIfEmpty(want), nilIfEmpty(stream.Coalesce(got)), "input %q chunks %q", in, chunks)
		require.Equal(t, stream.Text(want, proto.ChannelContent), stream.Text(got, proto.ChannelContent))
		require.Equal(t, stream.Text(want, proto.ChannelReasoning), stream.Text(got, proto.ChannelReasoning))
		for _, span := range got {
			require.NotEmpty(t, span.Text)
		}
	}
}

func TestExtractorBufferIsBounded(t *testing.T) {
	e := NewExtractor(DefaultTag)
	require.Equal(t, []proto.Span{proto.ContentSpan("abc")}, e.Feed("abc<thin"))
	require.Equal(t, len("<thin"), e.Buffered())

	require.Empty(t, e.Feed("k>"))
	require.Zero(t, e.Buffered())

	spans := e.Feed(strings.Repeat("x", 4096) + "</thi")
	require.Len(t, spans, 1)
	require.Equal(t, proto.ChannelReasoning, spans[0].Channel)
	require.LessOrEqual(t, e.Buffered(), len("</think>"))
}

func TestExtractorFlushesImmediately(t *testing.T) {
	e := NewExtractor(DefaultTag)
	require.Equal(t, []proto.Span{proto.ContentSpan("hello")}, e.Feed("hello"))
	require.Equal(t, []proto.Span{proto.ContentSpan("<x")}, e.Feed("<x"))
	require.Empty(t, e.Flush())
}

func TestExtractorCustomTag(t *testing.T) {
	got := stream.Coalesce(extractChunks("reasoning", []string{"<think>a</think>", "<reason", "ing>b</reasoning>c"}))
	require.Equal(t, []proto.Span{
		proto.ContentSpan("<think>a</think>"),
		proto.ReasoningSpan("b"),
		proto.ContentSpan("c"),
	}, got)
}

func TestExtractorStartInReasoning(t *testing.T) {
	e := NewExtractor(DefaultTag, WithStartInReasoning())
	var got []proto.Span
	got = append(got, e.Feed("step one</th")...)
	got = append(got, e.Feed("ink>answer")...)
	got = append(got, e.Flush()...)
	require.Equal(t, []proto.Span{
		proto.ReasoningSpan("step one"),
		proto.ContentSpan("answer"),
	}, stream.Coalesce(got))
}

func TestExtractorRelease(t *testing.T) {
	e := NewExtractor(DefaultTag)
	require.Equal(t, []proto.Span{proto.ContentSpan("a")}, e.Feed("a<thi"))
	e.Release()
	require.Zero(t, e.Buffered())
	require.Empty(t, e.Flush())
}

func TestValidateTag(t *testing.T) {
	require.NoError(t, ValidateTag("think"))
	require.NoError(t, ValidateTag("reasoning_trace"))
	for _, tag := range []string{"", "a b", "<think>", "th/ink", "x\n"} {
		require.Error(t, ValidateTag(tag), tag)
	}
}

func TestNewExtractorInvalidTagFallsBack(t *testing.T) {
	got := stream.Coalesce(extractChunks("<bad>", []string{"<think>x</think>y"}))
	require.Equal(t, []proto.Span{proto.ReasoningSpan("x"), proto.ContentSpan("y")}, got)
}

func extractChunks(tag string, chunks []string) []proto.Span {
	e := NewExtractor(tag)
	var out []proto.Span
	for _, c := range chunks {
		out = append(out, e.Feed(c)...)
	}
	return append(out, e.Flush()...)
}

// reference splits in with plain substring search.
func reference(in, tag string) []proto.Span {
	open, closing := "<"+tag+">", "</"+tag+">"
	var out []proto.Span
	for in != "" {
		i := strings.Index(in, open)
		if i < 0 {
			out = append(out, proto.ContentSpan(in))
			break
		}
		out = append(out, proto.ContentSpan(in[:i]))
		in = in[i+len(open):]

		j := strings.Index(in, closing)
		if j < 0 {
			out = append(out, proto.ReasoningSpan(in))
			break
		}
		out = append(out, proto.ReasoningSpan(in[:j]))
		in = in[j+len(closing):]
	}
	return stream.Coalesce(out)
}

// allSplits returns every way of cutting s into consecutive chunks.
func allSplits(s string) [][]string {
	if len(s) < 2 {
		return [][]string{{s}}
	}
	n := len(s) - 1
	out := make([][]string, 0, 1<<n)
	for mask := 0; mask < 1<<n; mask++ {
		var chunks []string
		last := 0
		for i := range n {
			if mask&(1<<i) != 0 {
				chunks = append(chunks, s[last:i+1])
				last = i + 1
			}
		}
		out = append(out, append(chunks, s[last:]))
	}
	return out
}

func randomSplit(rnd *rand.Rand, s string) []string {
	var chunks []string
	for len(s) > 0 {
		n := 1 + rnd.Intn(min(len(s), 9))
		chunks = append(chunks, s[:n])
		s = s[n:]
	}
	return chunks
}

func nilIfEmpty(spans []proto.Span) []proto.Span {
	if len(spans) == 0 {
		return nil
	}
	return spans
}
