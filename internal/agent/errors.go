package agent

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"charm.land/fantasy"

	"github.com/dotcommander/modelkit/internal/errs"
	"github.com/dotcommander/modelkit/internal/registry"
)

// StreamErrorAction describes how to respond to a failed invocation.
type StreamErrorAction struct {
	Retry       bool
	Prompt      string
	KeyOverride registry.Key
	Err         errs.Error
}

// ActionForStreamError decides whether a failed invocation of b should be
// retried, and with which prompt and key.
func (s *Service) ActionForStreamError(err error, b *registry.Binding, prompt string) StreamErrorAction {
	var providerErr *fantasy.ProviderError
	if errors.As(err, &providerErr) {
		return s.actionForProviderError(err, providerErr, b, prompt)
	}
	return StreamErrorAction{
		Err: errs.Wrapf(err, "There was a problem with the %s API request.", b.API),
	}
}

func (s *Service) actionForProviderError(err error, pe *fantasy.ProviderError, b *registry.Binding, prompt string) StreamErrorAction {
	reason := fantasy.ErrorTitleForStatusCode(pe.StatusCode)
	switch pe.StatusCode {
	case http.StatusNotFound:
		if b.Fallback != "" {
			return StreamErrorAction{
				Retry:       true,
				Prompt:      prompt,
				KeyOverride: b.Fallback,
				Err:         errs.Wrap(err, orDefault(reason, fmt.Sprintf("%s API server error.", b.API))),
			}
		}
		return StreamErrorAction{
			Err: errs.Wrapf(err, "Missing model '%s' for API '%s'.", b.Model, b.API),
		}

	case http.StatusBadRequest:
		if isContextLengthExceeded(pe) {
			e := errs.Wrap(err, "Maximum prompt size exceeded.")
			if s.cfg.NoLimit {
				return StreamErrorAction{Err: e}
			}
			return StreamErrorAction{Retry: true, Prompt: cutPrompt(pe.Error(), prompt), Err: e}
		}
		return StreamErrorAction{Err: errs.Wrap(err, orDefault(reason, fmt.Sprintf("%s API request error.", b.API)))}
	}

	if pe.IsRetryable() {
		return StreamErrorAction{
			Retry:  true,
			Prompt: prompt,
			Err:    errs.Wrap(err, orDefault(reason, "Retryable API error.")),
		}
	}
	return StreamErrorAction{Err: errs.Wrap(err, orDefault(reason, fmt.Sprintf("%s API request error.", b.API)))}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func isContextLengthExceeded(err *fantasy.ProviderError) bool {
	return strings.Contains(strings.ToLower(err.Message), "context_length_exceeded") ||
		strings.Contains(strings.ToLower(string(err.ResponseBody)), "context_length_exceeded")
}

var tokenErrRe = regexp.MustCompile(`This model's maximum context length is (\d+) tokens. However, your messages resulted in (\d+) tokens`)

// cutPrompt shortens prompt by the overflow reported in msg, at roughly four
// characters per token plus a small margin.
func cutPrompt(msg, prompt string) string {
	found := tokenErrRe.FindStringSubmatch(msg)
	if len(found) != 3 { //nolint:mnd
		return prompt
	}

	maxt, _ := strconv.Atoi(found[1])
	current, _ := strconv.Atoi(found[2])
	if maxt > current {
		return prompt
	}

	reduceBy := 10 + (current-maxt)*4 //nolint:mnd
	if len(prompt) > reduceBy {
		return prompt[:len(prompt)-reduceBy]
	}
	return prompt
}
