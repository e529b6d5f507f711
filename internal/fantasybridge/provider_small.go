//go:build modelkit_small

package fantasybridge

import (
	"fmt"

	"charm.land/fantasy"
)

// newProvider only knows OpenAI-compatible APIs in the small build.
func newProvider(cfg Config) (fantasy.Provider, error) {
	provider, err := newOpenAICompat(cfg)
	if err != nil {
		return nil, fmt.Errorf("new fantasy %s provider: %w", cfg.API, err)
	}
	return provider, nil
}
