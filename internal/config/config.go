// Package config loads the modelkit settings file and environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/template"
	"time"

	_ "embed"

	"github.com/caarlos0/env/v9"
	"gopkg.in/yaml.v3"

	"github.com/dotcommander/modelkit/internal/errs"
	"github.com/dotcommander/modelkit/internal/reasoning"
)

//go:embed config_template.yml
var configTemplate string

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MODELKIT_"

// DefaultBaseURL is used when neither the API entry, the settings nor
// OPENAI_BASE_URL name one.
const DefaultBaseURL = "https://api.openai.com/v1"

// Binding kinds and capabilities as written in the settings file.
const (
	KindChat  = "chat"
	KindImage = "image"

	CapabilityPlain     = "plain"
	CapabilityReasoning = "reasoning"
)

// Model binds a logical key to a concrete model of an API entry.
type Model struct {
	Key            string `yaml:"-"`
	API            string `yaml:"api"`
	Name           string `yaml:"model"`
	Kind           string `yaml:"kind,omitempty"`
	Capability     string `yaml:"capability,omitempty"`
	Fallback       string `yaml:"fallback,omitempty"`
	ThinkingBudget int    `yaml:"thinking-budget,omitempty"`
	MaxChars       int64  `yaml:"max-input-chars,omitempty"`
}

// Models keeps the settings file order of the models map.
type Models []Model

// UnmarshalYAML implements ordered model decoding.
func (models *Models) UnmarshalYAML(node *yaml.Node) error {
	*models = nil
	for i := 0; i+1 < len(node.Content); i += 2 {
		var m Model
		if err := node.Content[i+1].Decode(&m); err != nil {
			return fmt.Errorf("error decoding model %q: %w", node.Content[i].Value, err)
		}
		m.Key = node.Content[i].Value
		*models = append(*models, m)
	}
	return nil
}

// Get returns the model bound to key.
func (models Models) Get(key string) (Model, bool) {
	for _, m := range models {
		if m.Key == key {
			return m, true
		}
	}
	return Model{}, false
}

// API is a provider endpoint.
type API struct {
	Name      string `yaml:"-"`
	APIKey    string `yaml:"api-key,omitempty"`
	APIKeyEnv string `yaml:"api-key-env,omitempty"`
	APIKeyCmd string `yaml:"api-key-cmd,omitempty"`
	BaseURL   string `yaml:"base-url,omitempty"`
	User      string `yaml:"user,omitempty"`
}

// APIs keeps the settings file order of the apis map.
type APIs []API

// UnmarshalYAML implements ordered API decoding.
func (apis *APIs) UnmarshalYAML(node *yaml.Node) error {
	*apis = nil
	for i := 0; i+1 < len(node.Content); i += 2 {
		var api API
		if err := node.Content[i+1].Decode(&api); err != nil {
			return fmt.Errorf("error decoding api %q: %w", node.Content[i].Value, err)
		}
		api.Name = node.Content[i].Value
		*apis = append(*apis, api)
	}
	return nil
}

// Get returns the API entry called name.
func (apis APIs) Get(name string) (API, bool) {
	for _, api := range apis {
		if api.Name == name {
			return api, true
		}
	}
	return API{}, false
}

// Settings holds persisted configuration loaded from the YAML settings file
// and environment variables.
type Settings struct {
	Test             bool   `yaml:"test" env:"TEST"`
	BaseURL          string `yaml:"base-url" env:"BASE_URL"`
	ReasoningTag     string `yaml:"reasoning-tag" env:"REASONING_TAG"`
	StartInReasoning bool   `yaml:"start-in-reasoning" env:"START_IN_REASONING"`
	DefaultModel     string `yaml:"default-model" env:"MODEL"`
	Models           Models `yaml:"models"`
	APIs             APIs   `yaml:"apis"`

	MaxTokens           int64   `yaml:"max-tokens" env:"MAX_TOKENS"`
	MaxCompletionTokens int64   `yaml:"max-completion-tokens" env:"MAX_COMPLETION_TOKENS"`
	MaxInputChars       int64   `yaml:"max-input-chars" env:"MAX_INPUT_CHARS"`
	Temperature         float64 `yaml:"temp" env:"TEMP"`
	TopP                float64 `yaml:"topp" env:"TOPP"`
	TopK                int64   `yaml:"topk" env:"TOPK"`
	NoLimit             bool    `yaml:"no-limit" env:"NO_LIMIT"`

	System string              `yaml:"system" env:"SYSTEM"`
	Role   string              `yaml:"role" env:"ROLE"`
	Roles  map[string][]string `yaml:"roles"`
	User   string              `yaml:"user" env:"USER_ID"`

	MaxRetries     int           `yaml:"max-retries" env:"MAX_RETRIES"`
	RequestTimeout time.Duration `yaml:"request-timeout" env:"REQUEST_TIMEOUT"`
	HTTPProxy      string        `yaml:"http-proxy" env:"HTTP_PROXY"`
	CachePath      string        `yaml:"cache-path" env:"CACHE_PATH"`

	Raw           bool   `yaml:"raw" env:"RAW"`
	Quiet         bool   `yaml:"quiet" env:"QUIET"`
	HideReasoning bool   `yaml:"hide-reasoning" env:"HIDE_REASONING"`
	WordWrap      int    `yaml:"word-wrap" env:"WORD_WRAP"`
	Theme         string `yaml:"theme" env:"THEME"`
}

// Runtime holds CLI-only options that are never read from the settings file.
type Runtime struct {
	SettingsPath string
	Model        string
	AskModel     bool
	ShowHelp     bool
	Version      bool
	Copy         bool
	OpenEditor   bool
	Prefix       string
	Output       string
	ImageSize    string
	ShowImage    string
	DeleteImage  string
}

// Config is the application configuration.
type Config struct {
	Settings `yaml:",inline"`
	Runtime  `yaml:"-" env:"-"`
}

// RolesDir returns the directory of role files next to the settings file at
// settingsPath.
func RolesDir(settingsPath string) string {
	return filepath.Join(filepath.Dir(settingsPath), "roles")
}

// SettingsPath returns the default settings file location.
func SettingsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errs.Wrap(err, "Could not determine home directory.")
	}
	return filepath.Join(home, ".config", "modelkit", "modelkit.yml"), nil
}

// Ensure loads the default settings file, creating it first if needed.
func Ensure() (Config, error) {
	sp, err := SettingsPath()
	if err != nil {
		return Config{}, err
	}
	return Load(sp)
}

// Load reads the settings file at path, creating it from the template when it
// does not exist, then applies environment overrides and defaults.
func Load(path string) (Config, error) {
	c := Default()
	c.SettingsPath = path

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return c, errs.Wrap(err, "Could not create config directory.")
	}
	if err := WriteConfigFile(path); err != nil {
		return c, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return c, errs.Wrap(err, "Could not read settings file.")
	}
	if err := yaml.Unmarshal(content, &c); err != nil {
		return c, errs.Wrap(err, "Could not parse settings file.")
	}
	if err := env.ParseWithOptions(&c, env.Options{Prefix: EnvPrefix}); err != nil {
		return c, errs.Wrap(err, "Could not parse environment into settings.")
	}
	if c.BaseURL == "" {
		c.BaseURL = os.Getenv("OPENAI_BASE_URL")
	}
	if err := MergeRolesFromDir(&c); err != nil {
		return c, errs.Wrap(err, "Could not load roles from roles directory.")
	}

	def := Default()
	if len(c.Models) == 0 {
		c.Models = def.Models
	}
	if len(c.APIs) == 0 {
		c.APIs = def.APIs
	}
	if c.ReasoningTag == "" {
		c.ReasoningTag = reasoning.DefaultTag
	}
	if c.DefaultModel == "" {
		c.DefaultModel = def.DefaultModel
	}
	if c.WordWrap == 0 {
		c.WordWrap = def.WordWrap
	}
	if c.CachePath == "" {
		c.CachePath = filepath.Join(filepath.Dir(path), "artifacts")
	}
	return c, c.Validate()
}

// Validate reports the first inconsistency of the model table.
func (c *Config) Validate() error {
	if err := reasoning.ValidateTag(c.ReasoningTag); err != nil {
		return errs.Wrapf(err, "Invalid reasoning-tag %q.", c.ReasoningTag)
	}
	seen := map[string]struct{}{}
	for _, m := range c.Models {
		if _, dup := seen[m.Key]; dup {
			return errs.Wrapf(errs.UserErrorf("duplicate key %q", m.Key), "Model %q is configured twice.", m.Key)
		}
		seen[m.Key] = struct{}{}
		if m.Name == "" {
			return errs.Wrapf(errs.UserErrorf("missing model name"), "Model %q has no model.", m.Key)
		}
		if !slices.Contains([]string{"", KindChat, KindImage}, m.Kind) {
			return errs.Wrapf(errs.UserErrorf("kind must be %s or %s", KindChat, KindImage), "Model %q has an invalid kind %q.", m.Key, m.Kind)
		}
		if !slices.Contains([]string{"", CapabilityPlain, CapabilityReasoning}, m.Capability) {
			return errs.Wrapf(errs.UserErrorf("capability must be %s or %s", CapabilityPlain, CapabilityReasoning), "Model %q has an invalid capability %q.", m.Key, m.Capability)
		}
		if m.Kind == KindImage && m.Capability == CapabilityReasoning {
			return errs.Wrapf(errs.UserErrorf("only chat models can reason"), "Model %q is an image model with reasoning capability.", m.Key)
		}
		if _, ok := c.APIs.Get(m.API); !ok {
			return errs.Wrapf(errs.UserErrorf("add it under apis"), "Model %q uses the unknown API %q.", m.Key, m.API)
		}
	}
	for _, m := range c.Models {
		if m.Fallback == "" {
			continue
		}
		fb, ok := c.Models.Get(m.Fallback)
		if !ok {
			return errs.Wrapf(errs.UserErrorf("fallback must be a configured key"), "Model %q falls back to the unknown key %q.", m.Key, m.Fallback)
		}
		if fb.KindOrDefault() != m.KindOrDefault() {
			return errs.Wrapf(errs.UserErrorf("fallback must be the same kind"), "Model %q falls back to %q of another kind.", m.Key, m.Fallback)
		}
	}
	if _, ok := c.Models.Get(c.DefaultModel); !ok && c.DefaultModel != "" {
		return errs.Wrapf(errs.UserErrorf("default-model must be a configured key"), "Unknown default-model %q.", c.DefaultModel)
	}
	return nil
}

// KindOrDefault returns the model kind, chat when unset.
func (m Model) KindOrDefault() string {
	if m.Kind == "" {
		return KindChat
	}
	return m.Kind
}

// CapabilityOrDefault returns the model capability, plain when unset.
func (m Model) CapabilityOrDefault() string {
	if m.Capability == "" {
		return CapabilityPlain
	}
	return m.Capability
}

// BaseURLFor returns the base URL to use for api.
func (c *Config) BaseURLFor(api API) string {
	if api.BaseURL != "" {
		return api.BaseURL
	}
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return DefaultBaseURL
}

// MergeRolesFromDir merges role definitions from the roles directory next to
// the settings file into cfg. Roles from the settings file win.
func MergeRolesFromDir(cfg *Config) error {
	rolesDir := RolesDir(cfg.SettingsPath)
	roles, err := readRolesFromDir(rolesDir)
	if err != nil {
		return err
	}
	if len(roles) == 0 {
		return nil
	}
	if cfg.Roles == nil {
		cfg.Roles = map[string][]string{}
	}
	for name, setup := range roles {
		if _, exists := cfg.Roles[name]; !exists {
			cfg.Roles[name] = setup
		}
	}
	return nil
}

func readRolesFromDir(dir string) (map[string][]string, error) {
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("read roles directory %q: %w", dir, err)
	}

	roles := map[string][]string{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() {
			return walkErr
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".md" && ext != ".yml" && ext != ".yaml" {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return fmt.Errorf("resolve role path %q: %w", path, err)
		}
		name := strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))
		setup, err := roleSetupFromFile(path)
		if err != nil {
			return fmt.Errorf("role file %q: %w", rel, err)
		}
		roles[name] = setup
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read roles directory %q: %w", dir, err)
	}
	return roles, nil
}

func roleSetupFromFile(path string) ([]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".md") {
		return []string{"file://" + path}, nil
	}
	bts, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read role file: %w", err)
	}
	var setup []string
	if err := yaml.Unmarshal(bts, &setup); err == nil {
		return setup, nil
	}
	var single string
	if err := yaml.Unmarshal(bts, &single); err == nil {
		return []string{single}, nil
	}
	return nil, fmt.Errorf("must be a YAML string or string list")
}

// WriteConfigFile creates the settings file at path if it does not exist.
func WriteConfigFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return createConfigFile(path)
	} else if err != nil {
		return errs.Wrap(err, "Could not stat path.")
	}
	return nil
}

// Reset overwrites the settings file at path with the defaults.
func Reset(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errs.Wrap(err, "Could not remove settings file.")
	}
	return createConfigFile(path)
}

func createConfigFile(path string) error {
	tmpl := template.Must(template.New("config").Parse(configTemplate))

	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(err, "Could not create configuration file.")
	}
	defer func() { _ = f.Close() }()

	m := struct{ Config Config }{Config: Default()}
	if err := tmpl.Execute(f, m); err != nil {
		return errs.Wrap(err, "Could not render template.")
	}
	return nil
}

// Default returns the default configuration: one OpenAI-compatible endpoint
// serving the built-in keys.
func Default() Config {
	return Config{
		Settings: Settings{
			ReasoningTag: reasoning.DefaultTag,
			DefaultModel: "chat-model",
			Models: Models{
				{Key: "chat-model", API: "newapi", Name: "gpt-4o", Kind: KindChat, Capability: CapabilityPlain},
				{Key: "chat-model-reasoning", API: "newapi", Name: "qwen3-235b-a22b", Kind: KindChat, Capability: CapabilityReasoning, Fallback: "chat-model"},
				{Key: "title-model", API: "newapi", Name: "gpt-4o-mini", Kind: KindChat, Capability: CapabilityPlain},
				{Key: "artifact-model", API: "newapi", Name: "gpt-4o", Kind: KindChat, Capability: CapabilityPlain},
				{Key: "small-model", API: "newapi", Name: "grok-2-image", Kind: KindImage, Capability: CapabilityPlain},
			},
			APIs: APIs{
				{Name: "newapi", APIKeyEnv: "OPENAI_API_KEY"},
			},
			Temperature:    -1,
			TopP:           -1,
			TopK:           -1,
			MaxRetries:     3,
			RequestTimeout: 2 * time.Minute,
			WordWrap:       80,
			Theme:          "charm",
		},
	}
}
