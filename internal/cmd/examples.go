package cmd

import (
	"math/rand/v2"
	"regexp"
	"slices"

	"github.com/dotcommander/modelkit/internal/present"
	"github.com/dotcommander/modelkit/internal/registry"
)

var examples = map[string]string{
	"Review a diff with a reasoning model": `git diff | modelkit -m chat-model-reasoning "review this change"`,
	"Keep only the answer":                 `cat notes.md | modelkit -m chat-model-reasoning --hide-reasoning "summarize these notes" | glow`,
	"Name a branch for your work":          `git log -5 --format=%s | modelkit title`,
	"Sketch a logo":                        `modelkit image -o logo.png "a minimal fox logo, flat colors"`,
	"Show a stored image again":            `modelkit image --show 3f2a9c1e -o logo.png`,
}

func randomExample() string {
	keys := make([]string, 0, len(examples))
	for k := range examples {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys[rand.IntN(len(keys))] //nolint:gosec
}

var (
	quotedRe = regexp.MustCompile(`"([^"\\]|\\.)*"`)
	tokenRe  = regexp.MustCompile(`"([^"\\]|\\.)*"|\||--?[a-z][a-z-]*|[a-z][a-z-]+`)
)

// cheapHighlighting colors an example command line by token kind.
func cheapHighlighting(s present.Styles, code string) string {
	keys := []string{
		string(registry.ChatModel), string(registry.ChatModelReasoning),
		string(registry.TitleModel), string(registry.ArtifactModel), string(registry.SmallModel),
	}
	return tokenRe.ReplaceAllStringFunc(code, func(x string) string {
		switch {
		case quotedRe.MatchString(x):
			return s.Quote.Render(x)
		case x == "|":
			return s.Pipe.Render(x)
		case x[0] == '-':
			return s.Flag.Render(x)
		case slices.Contains(keys, x):
			return s.Key.Render(x)
		}
		return x
	})
}
