package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/goliatone/go-config/cfgx"
)

// Config captures module-level configuration knobs. Feature packages
// (resolver, executor, extractor, storage) pull from these nested structs.
type Config struct {
	Resolver  ResolverConfig  `mapstructure:"resolver" json:"resolver"`
	Extractor ExtractorConfig `mapstructure:"extractor" json:"extractor"`
	Executor  ExecutorConfig  `mapstructure:"executor" json:"executor"`
	Browser   BrowserConfig   `mapstructure:"browser" json:"browser"`
	Storage   StorageConfig   `mapstructure:"storage" json:"storage"`
}

// ResolverConfig controls the link-resolution tiers.
type ResolverConfig struct {
	// EnableSemantic turns on the LLM-backed extraction tier.
	EnableSemantic bool `mapstructure:"enable_semantic" json:"enable_semantic"`
	// SemanticTimeout bounds one extraction call.
	SemanticTimeout time.Duration `mapstructure:"semantic_timeout" json:"semantic_timeout"`
	// BodyExcerptLimit bounds how much body text reaches the extractor.
	BodyExcerptLimit int `mapstructure:"body_excerpt_limit" json:"body_excerpt_limit"`
}

// ExtractorConfig configures the OpenAI-backed semantic extractor.
type ExtractorConfig struct {
	APIKey     string `mapstructure:"api_key" json:"api_key"`
	Model      string `mapstructure:"model" json:"model"`
	BaseURL    string `mapstructure:"base_url" json:"base_url"`
	MaxRetries int    `mapstructure:"max_retries" json:"max_retries"`
}

// ExecutorConfig bounds the opt-out strategies.
type ExecutorConfig struct {
	PassiveTimeout time.Duration `mapstructure:"passive_timeout" json:"passive_timeout"`
	UserAgent      string        `mapstructure:"user_agent" json:"user_agent"`
}

// BrowserConfig controls the active (headless-browser) strategy.
type BrowserConfig struct {
	PageLoadTimeout time.Duration `mapstructure:"page_load_timeout" json:"page_load_timeout"`
	// SettleInterval is how long to wait for client-side rendering after
	// navigation and again after a click.
	SettleInterval time.Duration `mapstructure:"settle_interval" json:"settle_interval"`
	Headless       bool          `mapstructure:"headless" json:"headless"`
}

// StorageConfig selects the attempt-history backend.
type StorageConfig struct {
	// Driver is "memory" or "sqlite".
	Driver string `mapstructure:"driver" json:"driver"`
	DSN    string `mapstructure:"dsn" json:"dsn"`
}

// Defaults returns the baseline configuration.
func Defaults() Config {
	return Config{
		Resolver: ResolverConfig{
			EnableSemantic:   false,
			SemanticTimeout:  15 * time.Second,
			BodyExcerptLimit: 2000,
		},
		Extractor: ExtractorConfig{
			Model:      "gpt-4o-mini",
			MaxRetries: 1,
		},
		Executor: ExecutorConfig{
			PassiveTimeout: 10 * time.Second,
			UserAgent:      "go-optout/1.0",
		},
		Browser: BrowserConfig{
			PageLoadTimeout: 10 * time.Second,
			SettleInterval:  2 * time.Second,
			Headless:        true,
		},
		Storage: StorageConfig{
			Driver: "memory",
			DSN:    "file:optout.db?cache=shared&mode=rwc",
		},
	}
}

// Validate ensures required fields are present and sane.
func (c *Config) Validate() error {
	if c.Resolver.SemanticTimeout < 0 {
		return errors.New("resolver.semantic_timeout must be >= 0")
	}
	if c.Resolver.BodyExcerptLimit < 0 {
		return errors.New("resolver.body_excerpt_limit must be >= 0")
	}
	if c.Resolver.EnableSemantic && c.Extractor.APIKey == "" {
		return errors.New("extractor.api_key is required when resolver.enable_semantic is set")
	}
	if c.Executor.PassiveTimeout <= 0 {
		return errors.New("executor.passive_timeout must be > 0")
	}
	if c.Browser.PageLoadTimeout <= 0 {
		return errors.New("browser.page_load_timeout must be > 0")
	}
	if c.Browser.SettleInterval < 0 {
		return errors.New("browser.settle_interval must be >= 0")
	}
	switch c.Storage.Driver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("storage.driver %q is not supported", c.Storage.Driver)
	}
	return nil
}

// Load decodes arbitrary input (struct, map, cfg struct) using cfgx helpers.
// While cfgx.Build still returns zero values, we fallback to a lightweight
// decoder to keep smoke tests meaningful.
func Load(input any, opts ...LoadOption) (Config, error) {
	settings := loadOptions{}
	for _, opt := range opts {
		opt(&settings)
	}

	if input == nil {
		cfg := Defaults()
		if err := cfg.Validate(); err != nil {
			return Config{}, err
		}
		return cfg, nil
	}

	cfg, err := cfgx.Build(input, settings.buildOpts...)
	if err != nil {
		return Config{}, err
	}

	if isZero(cfg) {
		if err := decodeFallback(input, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg = cfg.withDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadOption lets callers amend cfgx build options.
type LoadOption func(*loadOptions)

type loadOptions struct {
	buildOpts []cfgx.Option[Config]
}

// WithBuildOptions forwards cfgx options (duration hooks, preprocessors, etc.).
func WithBuildOptions(opts ...cfgx.Option[Config]) LoadOption {
	return func(lo *loadOptions) {
		lo.buildOpts = append(lo.buildOpts, opts...)
	}
}

func (c Config) withDefaults() Config {
	defaults := Defaults()

	if c.Resolver.SemanticTimeout == 0 {
		c.Resolver.SemanticTimeout = defaults.Resolver.SemanticTimeout
	}
	if c.Resolver.BodyExcerptLimit == 0 {
		c.Resolver.BodyExcerptLimit = defaults.Resolver.BodyExcerptLimit
	}
	if c.Extractor.Model == "" {
		c.Extractor.Model = defaults.Extractor.Model
	}
	if c.Extractor.MaxRetries == 0 {
		c.Extractor.MaxRetries = defaults.Extractor.MaxRetries
	}
	if c.Executor.PassiveTimeout == 0 {
		c.Executor.PassiveTimeout = defaults.Executor.PassiveTimeout
	}
	if c.Executor.UserAgent == "" {
		c.Executor.UserAgent = defaults.Executor.UserAgent
	}
	if c.Browser.PageLoadTimeout == 0 {
		c.Browser.PageLoadTimeout = defaults.Browser.PageLoadTimeout
	}
	if c.Browser.SettleInterval == 0 {
		c.Browser.SettleInterval = defaults.Browser.SettleInterval
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = defaults.Storage.Driver
	}
	if c.Storage.DSN == "" {
		c.Storage.DSN = defaults.Storage.DSN
	}
	return c
}

func isZero(cfg Config) bool {
	return reflect.DeepEqual(cfg, Config{})
}

func decodeFallback(input any, cfg *Config) error {
	switch v := input.(type) {
	case nil:
		return nil
	case Config:
		*cfg = v
		return nil
	case *Config:
		if v != nil {
			*cfg = *v
		}
		return nil
	case map[string]any:
		return decodeMap(v, cfg)
	default:
		return fmt.Errorf("unsupported config input type: %T", input)
	}
}

func decodeMap(input map[string]any, cfg *Config) error {
	if input == nil {
		return nil
	}
	payload, err := json.Marshal(input)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, cfg)
}
