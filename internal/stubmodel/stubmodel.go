// Package stubmodel provides deterministic chat and image models for the test
// table. They never touch the network.
package stubmodel

import (
	"context"
	"encoding/base64"
	"sync"
	"time"

	"github.com/dotcommander/modelkit/internal/proto"
	"github.com/dotcommander/modelkit/internal/storage"
	"github.com/dotcommander/modelkit/internal/stream"
)

var _ stream.Client = &Model{}

// Model is a canned chat model.
type Model struct {
	Name string
	// Chunks is the fixed response, already fragmented.
	Chunks []string
	// Handler, when set, computes the response from the request instead.
	Handler func(proto.Request) []string
	// Err, when set, ends every stream with this transport error.
	Err error
}

// Request implements stream.Client.
func (m *Model) Request(ctx context.Context, request proto.Request) stream.Stream {
	chunks := m.Chunks
	if m.Handler != nil {
		chunks = m.Handler(request)
	}
	return NewStream(ctx, chunks...).WithErr(m.Err)
}

// Stream replays chunks in order. It is safe to Close from another goroutine.
type Stream struct {
	ctx    context.Context
	chunks []string
	err    error

	mu     sync.Mutex
	pos    int
	pulls  int
	closed bool
}

// NewStream returns a stream over chunks.
func NewStream(ctx context.Context, chunks ...string) *Stream {
	return &Stream{ctx: ctx, chunks: chunks, pos: -1}
}

// WithErr makes the stream end with err once its chunks are exhausted.
func (s *Stream) WithErr(err error) *Stream {
	s.err = err
	return s
}

// Next implements stream.Stream.
func (s *Stream) Next() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.ctx.Err() != nil {
		return false
	}
	s.pulls++
	if s.pos < len(s.chunks) {
		s.pos++
	}
	return s.pos < len(s.chunks)
}

// Current implements stream.Stream.
func (s *Stream) Current() (proto.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos < 0 || s.pos >= len(s.chunks) {
		return proto.Chunk{}, stream.ErrNoContent
	}
	return proto.Chunk{Content: s.chunks[s.pos]}, nil
}

// Err implements stream.Stream.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ctx.Err(); err != nil {
		return err //nolint:wrapcheck
	}
	if s.pos >= len(s.chunks) {
		return s.err
	}
	return nil
}

// Close implements stream.Stream.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Pulls reports how many times Next was called on an open stream.
func (s *Stream) Pulls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pulls
}

// Closed reports whether Close was called.
func (s *Stream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Split cuts s into chunks of at most size bytes.
func Split(s string, size int) []string {
	if size <= 0 {
		return []string{s}
	}
	chunks := make([]string, 0, len(s)/size+1)
	for len(s) > size {
		chunks = append(chunks, s[:size])
		s = s[size:]
	}
	if s != "" {
		chunks = append(chunks, s)
	}
	return chunks
}

// Canned responses of the test table.
const (
	ChatResponse      = "Hello, world! This is a test response."
	ReasoningThoughts = "The user said hello, a short greeting fits."
	ReasoningAnswer   = "Hello there! How can I help?"
	TitleResponse     = "This is a test title"
	ArtifactResponse  = "# Test artifact\n\nGenerated content for testing."
)

// ChatModel returns the stub behind "chat-model".
func ChatModel() *Model {
	return &Model{Name: "chat-model", Chunks: Split(ChatResponse, 6)}
}

// ReasoningModel returns the stub behind "chat-model-reasoning". Its output
// carries an inline <tag> section with the tags cut across chunks.
func ReasoningModel(tag string) *Model {
	return &Model{
		Name:   "chat-model-reasoning",
		Chunks: Split("<"+tag+">"+ReasoningThoughts+"</"+tag+">"+ReasoningAnswer, 5),
	}
}

// TitleModel returns the stub behind "title-model".
func TitleModel() *Model {
	return &Model{Name: "title-model", Chunks: Split(TitleResponse, 4)}
}

// ArtifactModel returns the stub behind "artifact-model".
func ArtifactModel() *Model {
	return &Model{Name: "artifact-model", Chunks: Split(ArtifactResponse, 8)}
}

// transparent 1x1 PNG.
const pixelPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

// Image is a canned image model.
type Image struct {
	Name string
	Data []byte
}

// ImageModel returns the stub behind "small-model".
func ImageModel() *Image {
	data, _ := base64.StdEncoding.DecodeString(pixelPNG)
	return &Image{Name: "small-model", Data: data}
}

// Generate returns the canned image.
func (i *Image) Generate(ctx context.Context, model, prompt string, _ proto.ImageOptions) (proto.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return proto.Artifact{}, err //nolint:wrapcheck
	}
	return proto.Artifact{
		ID:        storage.NewID(),
		Model:     model,
		Prompt:    prompt,
		MediaType: "image/png",
		Data:      append([]byte(nil), i.Data...),
		CreatedAt: time.Now().UTC(),
	}, nil
}
