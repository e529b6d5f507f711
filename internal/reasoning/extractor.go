package reasoning

import (
	"fmt"
	"strings"

	"github.com/dotcommander/modelkit/internal/proto"
)

// DefaultTag is the delimiter tag name used when none is configured.
const DefaultTag = "think"

type state uint8

const (
	outside state = iota
	matchingOpen
	inside
	matchingClose
)

func (s state) String() string {
	switch s {
	case matchingOpen:
		return "matching-open"
	case inside:
		return "inside"
	case matchingClose:
		return "matching-close"
	default:
		return "outside"
	}
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithStartInReasoning makes the extractor start inside the reasoning section,
// for models that omit the opening tag and only close it.
func WithStartInReasoning() Option {
	return func(e *Extractor) {
		e.state = inside
	}
}

// ValidateTag reports whether tag can be used as a delimiter tag name.
func ValidateTag(tag string) error {
	if tag == "" {
		return fmt.Errorf("reasoning tag is empty")
	}
	if i := strings.IndexAny(tag, "<>/ \t\r\n"); i >= 0 {
		return fmt.Errorf("reasoning tag %q contains %q", tag, tag[i])
	}
	return nil
}

// Extractor is the per-invocation tag matching state machine.
//
// It is not safe for concurrent use and must not be shared between
// invocations.
type Extractor struct {
	open  string
	close string

	state state
	// matched is the length of the tag prefix currently held back.
	matched int
	out     []proto.Span
	pending strings.Builder
}

// NewExtractor returns an extractor for <tag>...</tag>. An invalid tag name
// falls back to DefaultTag; callers validate configuration with ValidateTag.
func NewExtractor(tag string, opts ...Option) *Extractor {
	if ValidateTag(tag) != nil {
		tag = DefaultTag
	}
	e := &Extractor{
		open:  "<" + tag + ">",
		close: "</" + tag + ">",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Feed consumes the next fragment of raw output and returns the spans that can
// be emitted so far. Text that may still turn out to be a tag is held back.
func (e *Extractor) Feed(text string) []proto.Span {
	for i := 0; i < len(text); i++ {
		e.step(text[i])
	}
	e.emitPending()
	return e.take()
}

// Flush ends the stream: a partially matched tag is emitted as plain text on
// the channel that was active before the match started.
func (e *Extractor) Flush() []proto.Span {
	if e.matched > 0 {
		e.pending.WriteString(e.target()[:e.matched])
		e.matched = 0
	}
	e.emitPending()
	switch e.state {
	case matchingOpen:
		e.state = outside
	case matchingClose:
		e.state = inside
	}
	return e.take()
}

// Release drops any held back text without emitting it.
func (e *Extractor) Release() {
	e.matched = 0
	e.out = nil
	e.pending.Reset()
	switch e.state {
	case matchingOpen:
		e.state = outside
	case matchingClose:
		e.state = inside
	}
}

// Buffered returns the number of bytes currently held back.
func (e *Extractor) Buffered() int {
	return e.matched
}

func (e *Extractor) step(b byte) {
	target := e.target()
	if target[e.matched] == b {
		e.matched++
		switch {
		case e.matched == len(target):
			e.complete()
		case e.matched == 1:
			e.state++
		}
		return
	}

	if e.matched > 0 {
		// The tag name cannot contain '<', so no suffix of the held back text
		// can start a new match: flush it and look at b again from scratch.
		e.pending.WriteString(target[:e.matched])
		e.matched = 0
		e.state--
		if target[0] == b {
			e.matched = 1
			e.state++
			return
		}
	}
	e.pending.WriteByte(b)
}

func (e *Extractor) complete() {
	e.emitPending()
	e.matched = 0
	if e.state == matchingOpen {
		e.state = inside
		return
	}
	e.state = outside
}

func (e *Extractor) target() string {
	if e.state == inside || e.state == matchingClose {
		return e.close
	}
	return e.open
}

func (e *Extractor) channel() proto.Channel {
	if e.state == inside || e.state == matchingClose {
		return proto.ChannelReasoning
	}
	return proto.ChannelContent
}

func (e *Extractor) emitPending() {
	if e.pending.Len() == 0 {
		return
	}
	e.out = append(e.out, proto.Span{Channel: e.channel(), Text: e.pending.String()})
	e.pending.Reset()
}

func (e *Extractor) take() []proto.Span {
	out := e.out
	e.out = nil
	return out
}
