package registry

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/caarlos0/go-shellwords"
	"golang.org/x/sync/errgroup"

	"github.com/dotcommander/modelkit/internal/config"
	"github.com/dotcommander/modelkit/internal/errs"
	"github.com/dotcommander/modelkit/internal/fantasybridge"
	"github.com/dotcommander/modelkit/internal/imagegen"
)

// vendor describes how to authenticate against an API.
type vendor struct {
	title   string
	keyEnv  string
	docsURL string
	// optional vendors work without a key.
	optional bool
	// native vendors ignore the global base-url.
	native bool
	// baseURL is used when no other is configured.
	baseURL string
}

var vendors = map[string]vendor{
	"openai":     {title: "OpenAI", keyEnv: "OPENAI_API_KEY", docsURL: "https://platform.openai.com/account/api-keys"},
	"anthropic":  {title: "Anthropic", keyEnv: "ANTHROPIC_API_KEY", docsURL: "https://console.anthropic.com/settings/keys", native: true},
	"google":     {title: "Google", keyEnv: "GOOGLE_API_KEY", docsURL: "https://aistudio.google.com/app/apikey", native: true},
	"azure":      {title: "Azure", keyEnv: "AZURE_OPENAI_KEY", docsURL: "https://aka.ms/oai/access", native: true},
	"azure-ad":   {title: "Azure", keyEnv: "AZURE_OPENAI_KEY", docsURL: "https://aka.ms/oai/access", native: true},
	"openrouter": {title: "OpenRouter", keyEnv: "OPENROUTER_API_KEY", docsURL: "https://openrouter.ai/keys", native: true},
	"vercel":     {title: "Vercel AI Gateway", keyEnv: "VERCEL_API_KEY", docsURL: "https://vercel.com/dashboard/tokens", native: true},
	"bedrock":    {title: "Bedrock", optional: true, native: true},
	"ollama":     {title: "Ollama", optional: true, native: true, baseURL: "http://localhost:11434/v1"},
}

func vendorFor(api string) vendor {
	if v, ok := vendors[api]; ok {
		return v
	}
	v := vendors["openai"]
	v.title = api
	return v
}

// liveTable builds every configured binding, initializing provider clients
// concurrently.
func liveTable(ctx context.Context, cfg *config.Config, o options) ([]*Binding, error) {
	httpClient, err := ProxyClient(cfg.HTTPProxy)
	if err != nil {
		return nil, err
	}

	bindings := make([]*Binding, len(cfg.Models))
	g, gctx := errgroup.WithContext(ctx)
	for i, m := range cfg.Models {
		g.Go(func() error {
			b, err := buildBinding(gctx, cfg, m, httpClient, o)
			if err != nil {
				return errs.Wrapf(
					errs.Kind(errs.ErrProviderUnavailable, err),
					"Could not initialize %q (%s %s).", m.Key, m.API, m.Name,
				)
			}
			bindings[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck
	}
	return bindings, nil
}

func buildBinding(ctx context.Context, cfg *config.Config, m config.Model, httpClient *http.Client, o options) (*Binding, error) {
	api, ok := cfg.APIs.Get(m.API)
	if !ok {
		return nil, fmt.Errorf("api %q is not configured", m.API)
	}
	v := vendorFor(api.Name)

	key, err := apiKey(ctx, api, v)
	if err != nil {
		return nil, err
	}
	baseURL := api.BaseURL
	if baseURL == "" && v.native {
		baseURL = v.baseURL
	} else if baseURL == "" {
		baseURL = cfg.BaseURLFor(api)
	}

	b := &Binding{
		Key:      Key(m.Key),
		API:      api.Name,
		Model:    m.Name,
		Fallback: Key(m.Fallback),
		MaxChars: m.MaxChars,
		user:     api.User,
	}
	if m.CapabilityOrDefault() == config.CapabilityReasoning {
		b.Capability = Reasoning
	}

	if m.KindOrDefault() == config.KindImage {
		b.Kind = KindImage
		b.image, err = o.image(ctx, imagegen.Config{BaseURL: baseURL, APIKey: key, HTTPClient: httpClient})
		if err != nil {
			return nil, err
		}
		return b, nil
	}

	b.chat, err = o.chat(ctx, fantasybridge.Config{
		API:            api.Name,
		BaseURL:        baseURL,
		APIKey:         key,
		HTTPClient:     httpClient,
		ThinkingBudget: m.ThinkingBudget,
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// apiKey resolves the key of api: the literal api-key, then api-key-env,
// then the output of api-key-cmd, then the vendor's default variable.
func apiKey(ctx context.Context, api config.API, v vendor) (string, error) {
	key := api.APIKey
	if key == "" && api.APIKeyEnv != "" && api.APIKeyCmd == "" {
		key = os.Getenv(api.APIKeyEnv)
	}
	if key == "" && api.APIKeyCmd != "" {
		args, err := shellwords.Parse(api.APIKeyCmd)
		if err != nil {
			return "", errs.Wrap(err, "Failed to parse api-key-cmd")
		}
		if len(args) == 0 {
			return "", errs.Wrap(errs.UserErrorf("api-key-cmd is empty"), "Failed to parse api-key-cmd")
		}
		// #nosec G204 -- api-key-cmd is explicitly configured by the local user.
		out, err := exec.CommandContext(ctx, args[0], args[1:]...).Output()
		if err != nil {
			return "", errs.Wrap(err, "Cannot exec api-key-cmd")
		}
		key = strings.TrimSpace(string(out))
	}
	if key == "" && v.keyEnv != "" {
		key = os.Getenv(v.keyEnv)
	}
	if key != "" || v.optional {
		return key, nil
	}
	return "", errs.Wrapf(
		errs.UserErrorf("You can grab one at %s", v.docsURL),
		"%s authentication failed: set %s or configure api-key for %q.", v.title, v.keyEnv, api.Name,
	)
}

// ProxyClient returns an HTTP client routed through httpProxy, or nil when
// no proxy is configured.
func ProxyClient(httpProxy string) (*http.Client, error) {
	if httpProxy == "" {
		return nil, nil
	}
	proxyURL, err := url.Parse(httpProxy)
	if err != nil {
		return nil, errs.Wrap(err, "There was an error parsing your proxy URL.")
	}
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, errs.Wrap(fmt.Errorf("default transport is not *http.Transport"), "Could not configure proxy.")
	}
	tr := base.Clone()
	tr.Proxy = http.ProxyURL(proxyURL)
	tr.DialContext = (&net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}).DialContext
	tr.TLSHandshakeTimeout = 10 * time.Second
	tr.ResponseHeaderTimeout = 30 * time.Second
	tr.IdleConnTimeout = 90 * time.Second
	tr.ExpectContinueTimeout = 1 * time.Second
	return &http.Client{Transport: tr}, nil
}
