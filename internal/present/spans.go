package present

import (
	"fmt"
	"io"
	"strings"

	"github.com/dotcommander/modelkit/internal/proto"
)

// SpanPrinter writes a span stream to the terminal. Reasoning goes to errOut
// one styled line at a time, content goes to out.
type SpanPrinter struct {
	out    io.Writer
	errOut io.Writer
	styles Styles

	// HideReasoning drops reasoning spans.
	HideReasoning bool
	// Markdown buffers content and renders it once on Finish.
	Markdown bool
	WordWrap int

	content   strings.Builder
	line      strings.Builder
	reasoning bool
}

// NewSpanPrinter returns a printer writing content to out and reasoning to
// errOut with styles.
func NewSpanPrinter(out, errOut io.Writer, styles Styles) *SpanPrinter {
	return &SpanPrinter{out: out, errOut: errOut, styles: styles}
}

// Handle prints a single span.
func (p *SpanPrinter) Handle(span proto.Span) error {
	if span.Channel == proto.ChannelReasoning {
		if p.HideReasoning {
			return nil
		}
		p.reasoning = true
		return p.reason(span.Text)
	}

	if err := p.endReasoning(); err != nil {
		return err
	}
	p.content.WriteString(span.Text)
	if p.Markdown {
		return nil
	}
	if _, err := io.WriteString(p.out, span.Text); err != nil {
		return fmt.Errorf("write content: %w", err)
	}
	return nil
}

func (p *SpanPrinter) reason(text string) error {
	for {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			p.line.WriteString(text)
			return nil
		}
		p.line.WriteString(text[:i])
		text = text[i+1:]
		if err := p.flushLine(); err != nil {
			return err
		}
	}
}

func (p *SpanPrinter) flushLine() error {
	line := p.line.String()
	p.line.Reset()
	if _, err := fmt.Fprintln(p.errOut, p.styles.Reasoning.Render(line)); err != nil {
		return fmt.Errorf("write reasoning: %w", err)
	}
	return nil
}

func (p *SpanPrinter) endReasoning() error {
	if !p.reasoning {
		return nil
	}
	p.reasoning = false
	if p.line.Len() == 0 {
		return nil
	}
	return p.flushLine()
}

// Finish flushes whatever is still buffered and terminates the output with a
// newline.
func (p *SpanPrinter) Finish() error {
	if err := p.endReasoning(); err != nil {
		return err
	}
	content := p.content.String()
	if content == "" {
		return nil
	}
	if p.Markdown {
		out, err := RenderAnswer(content, p.WordWrap)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(p.out, out); err != nil {
			return fmt.Errorf("write content: %w", err)
		}
		return nil
	}
	if !strings.HasSuffix(content, "\n") {
		if _, err := io.WriteString(p.out, "\n"); err != nil {
			return fmt.Errorf("write content: %w", err)
		}
	}
	return nil
}

// Content returns the content printed so far.
func (p *SpanPrinter) Content() string {
	return p.content.String()
}
