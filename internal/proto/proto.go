// Package proto holds the provider-independent types exchanged between the
// registry, the bindings and their callers.
package proto

import (
	"strings"
	"time"
)

// Roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single prompt message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is what a chat binding hands to its provider client.
type Request struct {
	Messages            []Message
	Model               string
	User                string
	Temperature         *float64
	TopP                *float64
	TopK                *int64
	MaxTokens           *int64
	MaxCompletionTokens *int64
}

// Options tune a single chat invocation.
type Options struct {
	// System messages, sent before the prompt in order.
	System              []string
	User                string
	Temperature         *float64
	TopP                *float64
	TopK                *int64
	MaxTokens           *int64
	MaxCompletionTokens *int64
}

// Request builds the provider request for prompt.
func (o Options) Request(model, prompt string) Request {
	messages := make([]Message, 0, len(o.System)+1)
	for _, s := range o.System {
		if strings.TrimSpace(s) == "" {
			continue
		}
		messages = append(messages, Message{Role: RoleSystem, Content: s})
	}
	messages = append(messages, Message{Role: RoleUser, Content: prompt})
	return Request{
		Messages:            messages,
		Model:               model,
		User:                o.User,
		Temperature:         o.Temperature,
		TopP:                o.TopP,
		TopK:                o.TopK,
		MaxTokens:           o.MaxTokens,
		MaxCompletionTokens: o.MaxCompletionTokens,
	}
}

// Chunk is one unit of raw provider output, in emission order.
//
// Reasoning is set when the provider itself labelled the delta as reasoning;
// such chunks are never scanned for delimiter tags.
type Chunk struct {
	Content   string
	Reasoning bool
}

// Channel tags a span.
type Channel int

// Channels.
const (
	ChannelContent Channel = iota
	ChannelReasoning
)

func (c Channel) String() string {
	if c == ChannelReasoning {
		return "reasoning"
	}
	return "content"
}

// Span is a typed fragment of model output.
type Span struct {
	Channel Channel
	Text    string
}

// ContentSpan returns a content span.
func ContentSpan(text string) Span { return Span{Channel: ChannelContent, Text: text} }

// ReasoningSpan returns a reasoning span.
func ReasoningSpan(text string) Span { return Span{Channel: ChannelReasoning, Text: text} }

// ImageOptions tune a single image invocation.
type ImageOptions struct {
	// Size such as "1024x1024". Empty lets the provider decide.
	Size string
}

// Artifact is the single result of an image binding.
type Artifact struct {
	ID            string    `json:"id"`
	Key           string    `json:"key"`
	Model         string    `json:"model"`
	Prompt        string    `json:"prompt"`
	MediaType     string    `json:"media_type"`
	Data          []byte    `json:"data,omitempty"`
	URL           string    `json:"url,omitempty"`
	RevisedPrompt string    `json:"revised_prompt,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
