// Package registry resolves logical model keys to model bindings.
//
// The table is chosen once, when the registry is built: deterministic stub
// models in test mode, live provider clients otherwise. It is read-only
// afterwards and safe for concurrent use.
package registry

import (
	"context"
	"fmt"
	"slices"

	xstrings "github.com/charmbracelet/x/exp/strings"

	"github.com/dotcommander/modelkit/internal/config"
	"github.com/dotcommander/modelkit/internal/errs"
	"github.com/dotcommander/modelkit/internal/fantasybridge"
	"github.com/dotcommander/modelkit/internal/imagegen"
	"github.com/dotcommander/modelkit/internal/reasoning"
	"github.com/dotcommander/modelkit/internal/stream"
)

// Key is a logical model key.
type Key string

// Built-in keys.
const (
	ChatModel          Key = "chat-model"
	ChatModelReasoning Key = "chat-model-reasoning"
	TitleModel         Key = "title-model"
	ArtifactModel      Key = "artifact-model"
	SmallModel         Key = "small-model"
)

// ChatFactory builds the chat client of a live binding.
type ChatFactory func(ctx context.Context, cfg fantasybridge.Config) (stream.Client, error)

// ImageFactory builds the image client of a live binding.
type ImageFactory func(ctx context.Context, cfg imagegen.Config) (ImageClient, error)

// Option configures New.
type Option func(*options)

type options struct {
	chat  ChatFactory
	image ImageFactory
}

// WithChatFactory replaces the fantasy-backed chat client constructor.
func WithChatFactory(f ChatFactory) Option {
	return func(o *options) { o.chat = f }
}

// WithImageFactory replaces the images API client constructor.
func WithImageFactory(f ImageFactory) Option {
	return func(o *options) { o.image = f }
}

func defaultChatFactory(_ context.Context, cfg fantasybridge.Config) (stream.Client, error) {
	client, err := fantasybridge.New(cfg)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return client, nil
}

func defaultImageFactory(_ context.Context, cfg imagegen.Config) (ImageClient, error) {
	return imagegen.New(cfg), nil
}

// Registry maps keys to bindings.
type Registry struct {
	test     bool
	tag      string
	keys     []Key
	bindings map[Key]*Binding
}

// New builds the registry from cfg. cfg.Test selects the stub table.
// Building the live table initializes every provider client and fails with
// errs.ErrProviderUnavailable if any of them cannot be built.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Registry, error) {
	o := options{chat: defaultChatFactory, image: defaultImageFactory}
	for _, opt := range opts {
		opt(&o)
	}

	tag := cfg.ReasoningTag
	if tag == "" {
		tag = reasoning.DefaultTag
	}
	if err := reasoning.ValidateTag(tag); err != nil {
		return nil, errs.Wrapf(err, "Invalid reasoning-tag %q.", tag)
	}
	var ropts []reasoning.Option
	if cfg.StartInReasoning {
		ropts = append(ropts, reasoning.WithStartInReasoning())
	}

	var (
		bindings []*Binding
		err      error
	)
	if cfg.Test {
		bindings = testTable(tag)
	} else {
		bindings, err = liveTable(ctx, cfg, o)
		if err != nil {
			return nil, err
		}
	}

	r := &Registry{
		test:     cfg.Test,
		tag:      tag,
		bindings: make(map[Key]*Binding, len(bindings)),
	}
	for _, b := range bindings {
		b.tag = tag
		b.reasoningOpts = ropts
		r.bindings[b.Key] = b
		r.keys = append(r.keys, b.Key)
	}
	slices.Sort(r.keys)
	return r, nil
}

// Resolve returns the binding of key. It never calls a provider.
func (r *Registry) Resolve(key Key) (*Binding, error) {
	if b, ok := r.bindings[key]; ok {
		return b, nil
	}
	known := make([]string, len(r.keys))
	for i, k := range r.keys {
		known[i] = string(k)
	}
	return nil, errs.Wrapf(
		errs.Kind(errs.ErrUnknownCapability, fmt.Errorf("key %q", key)),
		"Unknown model key %q. Available keys are %s.", key, xstrings.EnglishJoin(known, true),
	)
}

// Keys returns the keys of the active table, sorted.
func (r *Registry) Keys() []Key {
	return slices.Clone(r.keys)
}

// Bindings returns the bindings of the active table, sorted by key.
func (r *Registry) Bindings() []*Binding {
	out := make([]*Binding, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, r.bindings[k])
	}
	return out
}

// TestMode reports whether the stub table is active.
func (r *Registry) TestMode() bool { return r.test }

// Tag returns the reasoning tag name used by reasoning bindings.
func (r *Registry) Tag() string { return r.tag }
