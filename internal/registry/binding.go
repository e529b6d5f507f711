package registry

import (
	"context"
	"fmt"

	"github.com/dotcommander/modelkit/internal/config"
	"github.com/dotcommander/modelkit/internal/errs"
	"github.com/dotcommander/modelkit/internal/proto"
	"github.com/dotcommander/modelkit/internal/reasoning"
	"github.com/dotcommander/modelkit/internal/stream"
)

// Kind is what a binding produces.
type Kind int

// Kinds.
const (
	KindChat Kind = iota
	KindImage
)

func (k Kind) String() string {
	if k == KindImage {
		return config.KindImage
	}
	return config.KindChat
}

// Capability tells whether a chat binding emits inline reasoning.
type Capability int

// Capabilities.
const (
	Plain Capability = iota
	Reasoning
)

func (c Capability) String() string {
	if c == Reasoning {
		return config.CapabilityReasoning
	}
	return config.CapabilityPlain
}

// ImageClient generates images.
type ImageClient interface {
	Generate(ctx context.Context, model, prompt string, opts proto.ImageOptions) (proto.Artifact, error)
}

// Binding is an invocable model behind a key.
type Binding struct {
	Key        Key
	Kind       Kind
	Capability Capability
	API        string
	Model      string
	Fallback   Key
	MaxChars   int64

	user          string
	chat          stream.Client
	image         ImageClient
	tag           string
	reasoningOpts []reasoning.Option
}

// Stream starts a chat invocation. Reasoning bindings split the output into
// reasoning and content spans; plain bindings emit content spans only, plus
// any reasoning the provider reports natively.
func (b *Binding) Stream(ctx context.Context, prompt string, opts proto.Options) (stream.SpanStream, error) {
	if b.Kind != KindChat || b.chat == nil {
		return nil, b.wrongKind("stream text from")
	}
	if opts.User == "" {
		opts.User = b.user
	}
	raw := b.chat.Request(ctx, opts.Request(b.Model, prompt))
	if b.Capability == Reasoning {
		return reasoning.Wrap(ctx, raw, b.tag, b.reasoningOpts...), nil
	}
	return stream.Plain(ctx, raw), nil
}

// Generate produces one image.
func (b *Binding) Generate(ctx context.Context, prompt string, opts proto.ImageOptions) (proto.Artifact, error) {
	if b.Kind != KindImage || b.image == nil {
		return proto.Artifact{}, b.wrongKind("generate an image with")
	}
	artifact, err := b.image.Generate(ctx, b.Model, prompt, opts)
	if err != nil {
		return proto.Artifact{}, fmt.Errorf("%s: %w", b.Key, err)
	}
	artifact.Key = string(b.Key)
	return artifact, nil
}

func (b *Binding) wrongKind(action string) error {
	return errs.Wrapf(
		errs.Kind(errs.ErrWrongKind, fmt.Errorf("%s is a %s model", b.Key, b.Kind)),
		"Cannot %s %q.", action, b.Key,
	)
}
