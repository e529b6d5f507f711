package agent

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/dotcommander/modelkit/internal/config"
	"github.com/dotcommander/modelkit/internal/errs"
	"github.com/dotcommander/modelkit/internal/proto"
	"github.com/dotcommander/modelkit/internal/registry"
	"github.com/dotcommander/modelkit/internal/storage/cache"
	"github.com/dotcommander/modelkit/internal/stream"
)

const titlePrompt = "Write a short title, at most eight words, for the text below. " +
	"Reply with the title only, without quotes or punctuation at the end."

// Service runs invocations. It is UI-agnostic.
type Service struct {
	cfg       *config.Config
	reg       *registry.Registry
	artifacts *cache.Artifacts
}

// New creates a service. artifacts may be nil, in which case images are not
// persisted.
func New(cfg *config.Config, reg *registry.Registry, artifacts *cache.Artifacts) *Service {
	return &Service{cfg: cfg, reg: reg, artifacts: artifacts}
}

// Result describes a finished invocation.
type Result struct {
	// Key is the key that produced the output, a fallback when one kicked in.
	Key     registry.Key
	Model   string
	Retries int
	Spans   int

	// Warnings reported by the provider, once each, across all attempts.
	Warnings []string
}

// Run streams the answer of key to input, calling handler for every span in
// order. The configured prefix goes before input; only input is subject to the
// input character limit. Failures are retried, at most cfg.MaxRetries times and
// only while no span has reached handler. A handler error cancels the
// invocation.
func (s *Service) Run(ctx context.Context, key registry.Key, input string, handler func(proto.Span) error) (Result, error) {
	opts, err := s.Options(ctx)
	if err != nil {
		return Result{}, err
	}

	res := Result{Key: key}
	for {
		b, err := s.reg.Resolve(res.Key)
		if err != nil {
			return res, err //nolint:wrapcheck
		}
		res.Model = b.Model

		err = s.invoke(ctx, b, s.prompt(b, input), opts, handler, &res)
		if err == nil {
			return res, nil
		}
		var herr handlerError
		if errors.As(err, &herr) {
			return res, herr.err
		}
		if res.Spans > 0 || ctx.Err() != nil {
			return res, errs.Wrapf(err, "The %s response was interrupted.", b.Key)
		}

		action := s.ActionForStreamError(err, b, input)
		if !action.Retry || res.Retries >= s.cfg.MaxRetries {
			return res, action.Err
		}
		res.Retries++
		input = action.Prompt
		if action.KeyOverride != "" {
			res.Key = action.KeyOverride
		}
	}
}

type handlerError struct{ err error }

func (e handlerError) Error() string { return e.err.Error() }

func (s *Service) invoke(
	ctx context.Context,
	b *registry.Binding,
	prompt string,
	opts proto.Options,
	handler func(proto.Span) error,
	res *Result,
) error {
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}
	// o1 models reject max_tokens.
	if strings.HasPrefix(b.Model, "o1") {
		opts.MaxTokens = nil
	}

	st, err := b.Stream(ctx, prompt, opts)
	if err != nil {
		return err //nolint:wrapcheck
	}
	defer func() {
		res.Warnings = appendNew(res.Warnings, stream.Warnings(st)...)
		_ = st.Close()
	}()

	for st.Next() {
		res.Spans++
		if err := handler(st.Current()); err != nil {
			return handlerError{err}
		}
	}
	return st.Err() //nolint:wrapcheck
}

func appendNew(dst []string, items ...string) []string {
	for _, item := range items {
		if !slices.Contains(dst, item) {
			dst = append(dst, item)
		}
	}
	return dst
}

// prompt joins the prefix and input, cutting input to the input character
// limit of b on a rune boundary.
func (s *Service) prompt(b *registry.Binding, input string) string {
	maxChars := b.MaxChars
	if maxChars == 0 {
		maxChars = s.cfg.MaxInputChars
	}
	if !s.cfg.NoLimit && maxChars > 0 && int64(len(input)) > maxChars {
		cut := int(maxChars)
		for cut > 0 && !utf8.RuneStart(input[cut]) {
			cut--
		}
		input = input[:cut]
	}
	if s.cfg.Prefix == "" {
		return input
	}
	return strings.TrimSpace(s.cfg.Prefix + "\n\n" + input)
}

// Options builds the invocation options from configuration: the system
// prompt, the role messages and sampling settings.
func (s *Service) Options(ctx context.Context) (proto.Options, error) {
	cfg := s.cfg
	var opts proto.Options

	if cfg.System != "" {
		opts.System = append(opts.System, cfg.System)
	}
	if cfg.Role != "" {
		setup, ok := cfg.Roles[cfg.Role]
		if !ok {
			return opts, errs.Wrap(fmt.Errorf("role %q does not exist", cfg.Role), "Could not use role")
		}
		for _, msg := range setup {
			content, err := config.LoadMsg(ctx, msg)
			if err != nil {
				return opts, errs.Wrap(err, "Could not use role")
			}
			opts.System = append(opts.System, content)
		}
	}

	opts.User = cfg.User
	if cfg.Temperature >= 0 {
		v := cfg.Temperature
		opts.Temperature = &v
	}
	if cfg.TopP >= 0 {
		v := cfg.TopP
		opts.TopP = &v
	}
	if cfg.TopK >= 0 {
		v := cfg.TopK
		opts.TopK = &v
	}
	if cfg.MaxTokens > 0 {
		v := cfg.MaxTokens
		opts.MaxTokens = &v
	}
	if cfg.MaxCompletionTokens > 0 {
		v := cfg.MaxCompletionTokens
		opts.MaxCompletionTokens = &v
	}
	return opts, nil
}

// Title summarizes text with the title model.
func (s *Service) Title(ctx context.Context, text string) (string, error) {
	b, err := s.reg.Resolve(registry.TitleModel)
	if err != nil {
		return "", err //nolint:wrapcheck
	}
	st, err := b.Stream(ctx, text, proto.Options{System: []string{titlePrompt}, User: s.cfg.User})
	if err != nil {
		return "", err //nolint:wrapcheck
	}
	spans, err := stream.Collect(st)
	if err != nil {
		return "", errs.Wrap(err, "Could not generate a title.")
	}
	title := strings.TrimSpace(stream.Text(spans, proto.ChannelContent))
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = title[:i]
	}
	return strings.Trim(title, `"' `), nil
}

// Image generates an image with the image model and stores it. It returns
// the artifact and the path of its payload, empty when not stored.
func (s *Service) Image(ctx context.Context, prompt string, opts proto.ImageOptions) (proto.Artifact, string, error) {
	b, err := s.reg.Resolve(registry.SmallModel)
	if err != nil {
		return proto.Artifact{}, "", err //nolint:wrapcheck
	}
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}
	artifact, err := b.Generate(ctx, prompt, opts)
	if err != nil {
		return proto.Artifact{}, "", errs.Wrap(err, "Could not generate the image.")
	}
	if s.artifacts == nil {
		return artifact, "", nil
	}
	path, err := s.artifacts.Save(artifact)
	if err != nil {
		return artifact, "", errs.Wrap(err, "Could not store the image.")
	}
	return artifact, path, nil
}

// Artifact loads the stored artifact whose ID starts with id and returns it
// with the path of its payload.
func (s *Service) Artifact(id string) (proto.Artifact, string, error) {
	if s.artifacts == nil {
		return proto.Artifact{}, "", errs.Wrap(errs.UserErrorf("no cache path configured"), "Could not find the image.")
	}
	full, err := s.artifacts.Find(id)
	if err != nil {
		return proto.Artifact{}, "", errs.Wrap(err, "Could not find the image.")
	}
	a, err := s.artifacts.Load(full)
	if err != nil {
		return proto.Artifact{}, "", errs.Wrap(err, "Could not load the image.")
	}
	var path string
	if len(a.Data) > 0 {
		path = s.artifacts.DataPath(a)
	}
	return a, path, nil
}

// DeleteArtifact removes the stored artifact whose ID starts with id and
// returns its full ID.
func (s *Service) DeleteArtifact(id string) (string, error) {
	if s.artifacts == nil {
		return "", errs.Wrap(errs.UserErrorf("no cache path configured"), "Could not find the image.")
	}
	full, err := s.artifacts.Find(id)
	if err != nil {
		return "", errs.Wrap(err, "Could not find the image.")
	}
	if err := s.artifacts.Delete(full); err != nil {
		return "", errs.Wrap(err, "Could not delete the image.")
	}
	return full, nil
}
