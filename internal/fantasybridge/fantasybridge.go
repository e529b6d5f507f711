// Package fantasybridge adapts charm.land/fantasy providers to stream.Client.
package fantasybridge

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"charm.land/fantasy"
	"github.com/dotcommander/modelkit/internal/proto"
	"github.com/dotcommander/modelkit/internal/stream"
)

var _ stream.Client = &Client{}

const (
	apiAnthropic  = "anthropic"
	apiGoogle     = "google"
	apiOpenAI     = "openai"
	apiAzure      = "azure"
	apiAzureAD    = "azure-ad"
	apiOpenRouter = "openrouter"
	apiVercel     = "vercel"
	apiBedrock    = "bedrock"
)

// partBuffer bounds how far the provider may run ahead of the consumer.
const partBuffer = 64

// Config is the provider configuration of one API entry.
type Config struct {
	API            string
	BaseURL        string
	APIKey         string
	HTTPClient     *http.Client
	ThinkingBudget int
}

// Client is a stream.Client backed by a fantasy provider.
type Client struct {
	provider fantasy.Provider
	config   Config
}

// New creates a fantasy-backed stream client.
func New(cfg Config) (*Client, error) {
	provider, err := newProvider(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{provider: provider, config: cfg}, nil
}

// API returns the configured API name.
func (c *Client) API() string { return c.config.API }

// Request implements stream.Client.
func (c *Client) Request(ctx context.Context, request proto.Request) stream.Stream {
	return open(ctx, request, c.config, c.provider.LanguageModel)
}

type languageModelFunc func(ctx context.Context, modelID string) (fantasy.LanguageModel, error)

// open starts a call. A call that fails before its first part is reported
// as errs.ErrStreamNotStarted by Err.
func open(ctx context.Context, request proto.Request, cfg Config, languageModel languageModelFunc) *Stream {
	streamCtx, cancel := context.WithCancel(ctx)
	s := &Stream{
		ctx:         streamCtx,
		cancel:      cancel,
		request:     request,
		api:         cfg.API,
		config:      cfg,
		warningSeen: map[string]struct{}{},
	}
	if err := s.start(languageModel); err != nil {
		s.err = stream.NotStarted(err)
		cancel()
	}
	return s
}

// Stream is a stream.Stream over the parts of one fantasy model call.
type Stream struct {
	ctx     context.Context
	cancel  context.CancelFunc
	request proto.Request
	api     string
	config  Config

	mu sync.Mutex

	partCh chan fantasy.StreamPart
	last   fantasy.StreamPart
	err    error
	done   bool

	warningSeen     map[string]struct{}
	pendingWarnings []string
}

// Next implements stream.Stream.
func (s *Stream) Next() bool {
	s.mu.Lock()
	if s.err != nil || s.done || s.partCh == nil {
		s.mu.Unlock()
		return false
	}
	ch := s.partCh
	s.mu.Unlock()

	part, ok := <-ch

	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok {
		s.done = true
		if err := s.ctx.Err(); err != nil && s.err == nil {
			s.err = err
		}
		return false
	}
	s.last = part
	s.consumePart(part)
	return true
}

// Current implements stream.Stream. Provider-native reasoning deltas are
// marked so they bypass tag extraction.
func (s *Stream) Current() (proto.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.last.Type {
	case fantasy.StreamPartTypeTextDelta:
		return proto.Chunk{Content: s.last.Delta}, nil
	case fantasy.StreamPartTypeReasoningDelta:
		return proto.Chunk{Content: s.last.Delta, Reasoning: true}, nil
	case fantasy.StreamPartTypeError:
		if s.last.Error != nil {
			return proto.Chunk{}, s.last.Error
		}
	default:
	}
	return proto.Chunk{}, stream.ErrNoContent
}

// Close implements stream.Stream.
func (s *Stream) Close() error {
	s.cancel()
	return nil
}

// Err implements stream.Stream.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// DrainWarnings returns provider warnings seen since the last call. Each
// distinct warning is reported once per stream.
func (s *Stream) DrainWarnings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	warnings := append([]string(nil), s.pendingWarnings...)
	s.pendingWarnings = nil
	return warnings
}

func (s *Stream) start(languageModel languageModelFunc) error {
	model, err := languageModel(s.ctx, s.request.Model)
	if err != nil {
		return fmt.Errorf("fantasy language model: %w", err)
	}

	seq, err := model.Stream(s.ctx, s.buildCall())
	if err != nil {
		return fmt.Errorf("fantasy stream: %w", err)
	}

	ch := make(chan fantasy.StreamPart, partBuffer)
	s.partCh = ch
	go func() {
		defer close(ch)
		for part := range seq {
			select {
			case <-s.ctx.Done():
				return
			case ch <- part:
			}
		}
	}()
	return nil
}

func (s *Stream) buildCall() fantasy.Call {
	call := fantasy.Call{
		Prompt:          toFantasyPrompt(s.request.Messages),
		MaxOutputTokens: s.request.MaxTokens,
		Temperature:     s.request.Temperature,
		TopP:            s.request.TopP,
		TopK:            s.request.TopK,
		ProviderOptions: fantasy.ProviderOptions{},
	}
	applyProviderOptions(&call, s.api, s.config, s.request)
	return call
}

func (s *Stream) consumePart(part fantasy.StreamPart) {
	switch part.Type {
	case fantasy.StreamPartTypeError:
		s.err = part.Error
	case fantasy.StreamPartTypeWarnings:
		for _, warning := range part.Warnings {
			s.addWarning(string(warning.Type), warningText(warning))
		}
	default:
	}
}

func (s *Stream) addWarning(kind, text string) {
	key := kind + ":" + text
	if _, exists := s.warningSeen[key]; exists {
		return
	}
	s.warningSeen[key] = struct{}{}
	s.pendingWarnings = append(s.pendingWarnings, text)
}

func warningText(w fantasy.CallWarning) string {
	if text := strings.TrimSpace(w.Message); text != "" {
		return text
	}
	if text := strings.TrimSpace(w.Details); text != "" {
		return text
	}
	if w.Setting != "" {
		return fmt.Sprintf("unsupported setting: %s", w.Setting)
	}
	return "provider warning"
}
