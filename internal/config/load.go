package config

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	maxRemoteMsgBytes = 2 * 1024 * 1024
	remoteMsgTimeout  = 10 * time.Second
)

// LoadMsg resolves a system or role message. msg is either the text itself,
// an http(s) URL or a file:// path. Markdown files lose their YAML
// frontmatter.
func LoadMsg(ctx context.Context, msg string) (string, error) {
	if strings.HasPrefix(msg, "https://") || strings.HasPrefix(msg, "http://") {
		return fetchMsg(ctx, msg)
	}

	path, ok := strings.CutPrefix(msg, "file://")
	if !ok {
		return msg, nil
	}
	bts, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read role file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".md") {
		return StripYAMLFrontmatter(string(bts))
	}
	return string(bts), nil
}

func fetchMsg(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, remoteMsgTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("fetch role message: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch role message: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bts, _ := io.ReadAll(io.LimitReader(resp.Body, 8*1024))
		return "", fmt.Errorf("fetch role message: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(bts)))
	}
	bts, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteMsgBytes))
	if err != nil {
		return "", fmt.Errorf("read role message: %w", err)
	}
	if len(bts) >= maxRemoteMsgBytes {
		return "", fmt.Errorf("read role message: response too large (>%d bytes)", maxRemoteMsgBytes)
	}
	return string(bts), nil
}

// StripYAMLFrontmatter removes a leading YAML frontmatter block. The block
// must parse as YAML.
func StripYAMLFrontmatter(content string) (string, error) {
	lines := strings.Split(content, "\n")
	if strings.TrimSpace(lines[0]) != "---" {
		return content, nil
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end == -1 {
		return "", fmt.Errorf("invalid markdown frontmatter: missing closing delimiter")
	}

	var parsed map[string]any
	if err := yaml.Unmarshal([]byte(strings.Join(lines[1:end], "\n")), &parsed); err != nil {
		return "", fmt.Errorf("invalid markdown frontmatter: %w", err)
	}
	return strings.TrimLeft(strings.Join(lines[end+1:], "\n"), "\r\n"), nil
}
