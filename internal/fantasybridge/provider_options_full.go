//go:build !modelkit_small

package fantasybridge

import (
	"charm.land/fantasy"
	fgoogle "charm.land/fantasy/providers/google"
	fopenai "charm.land/fantasy/providers/openai"
	"github.com/dotcommander/modelkit/internal/proto"
)

func usesOpenAIOptions(api string) bool {
	switch api {
	case apiOpenAI, apiAzure, apiAzureAD:
		return true
	}
	return false
}

// nativeAPI reports whether api has its own provider and no user option.
func nativeAPI(api string) bool {
	switch api {
	case apiAnthropic, apiGoogle, apiOpenRouter, apiVercel, apiBedrock:
		return true
	}
	return false
}

func applyProviderOptions(call *fantasy.Call, api string, cfg Config, req proto.Request) {
	if usesOpenAIOptions(api) {
		var opts fopenai.ProviderOptions
		if req.User != "" {
			user := req.User
			opts.User = &user
		}
		opts.MaxCompletionTokens = req.MaxCompletionTokens
		if opts.User != nil || opts.MaxCompletionTokens != nil {
			call.ProviderOptions[fopenai.Name] = &opts
		}
	} else if req.User != "" && !nativeAPI(api) {
		compatUser(call, req.User)
	}

	if api == apiGoogle && cfg.ThinkingBudget > 0 {
		call.ProviderOptions[fgoogle.Name] = &fgoogle.ProviderOptions{
			ThinkingConfig: &fgoogle.ThinkingConfig{
				ThinkingBudget: fantasy.Opt(int64(cfg.ThinkingBudget)),
			},
		}
	}
}
