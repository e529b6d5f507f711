package present

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/glamour"
)

const markdownTabWidth = 4

// RenderAnswer renders the content channel of an answer as markdown for the
// terminal, wrapped at wordWrap. Tabs become spaces and the result ends in
// exactly one newline. A blank answer renders as nothing.
func RenderAnswer(content string, wordWrap int) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithEnvironmentConfig(),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		return "", fmt.Errorf("new markdown renderer: %w", err)
	}

	out, err := r.Render(content)
	if err != nil {
		return "", fmt.Errorf("render answer: %w", err)
	}
	out = strings.TrimRightFunc(out, unicode.IsSpace)
	out = strings.ReplaceAll(out, "\t", strings.Repeat(" ", markdownTabWidth))
	return out + "\n", nil
}
