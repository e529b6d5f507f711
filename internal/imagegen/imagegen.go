// Package imagegen generates images through the OpenAI images API, or any
// service speaking it.
package imagegen

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/dotcommander/modelkit/internal/proto"
	"github.com/dotcommander/modelkit/internal/storage"
)

// Config configures the images client.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// Client generates images.
type Client struct {
	api openai.Client
}

// New returns an images client.
func New(cfg Config) *Client {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return &Client{api: openai.NewClient(opts...)}
}

// Generate renders one image for prompt.
func (c *Client) Generate(ctx context.Context, model, prompt string, opts proto.ImageOptions) (proto.Artifact, error) {
	params := openai.ImageGenerateParams{
		Prompt: prompt,
		Model:  openai.ImageModel(model),
		N:      openai.Int(1),
	}
	// gpt-image models always answer with base64 and reject the field.
	if !strings.HasPrefix(model, "gpt-image") {
		params.ResponseFormat = openai.ImageGenerateParamsResponseFormatB64JSON
	}
	if opts.Size != "" {
		params.Size = openai.ImageGenerateParamsSize(opts.Size)
	}

	resp, err := c.api.Images.Generate(ctx, params)
	if err != nil {
		return proto.Artifact{}, fmt.Errorf("generate image: %w", err)
	}
	if len(resp.Data) == 0 {
		return proto.Artifact{}, fmt.Errorf("generate image: empty response")
	}

	img := resp.Data[0]
	artifact := proto.Artifact{
		ID:            storage.NewID(),
		Model:         model,
		Prompt:        prompt,
		URL:           img.URL,
		RevisedPrompt: img.RevisedPrompt,
		CreatedAt:     time.Now().UTC(),
	}
	if img.B64JSON != "" {
		data, err := base64.StdEncoding.DecodeString(img.B64JSON)
		if err != nil {
			return proto.Artifact{}, fmt.Errorf("decode image: %w", err)
		}
		artifact.Data = data
		artifact.MediaType = http.DetectContentType(data)
	} else {
		artifact.MediaType = mediaTypeFromURL(img.URL)
	}
	return artifact, nil
}

func mediaTypeFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	switch strings.ToLower(path.Ext(u.Path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	}
	return ""
}
