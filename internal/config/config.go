// Package config loads flyersmith settings.
//
// Settings come from three layers, later ones winning:
//
//  1. Built-in defaults ([Default])
//  2. A TOML file, by default $XDG_CONFIG_HOME/flyersmith/config.toml
//  3. Environment variables (OPENAI_API_KEY, FLYERSMITH_REDIS_ADDR, ...)
//
// Command-line flags are applied on top by the CLI. String values in the
// file may reference the environment as ${VAR} or ${VAR:default}:
//
//	[openai]
//	api_key = "${OPENAI_API_KEY}"
//	base_url = "${OPENAI_BASE_URL:https://api.openai.com/v1}"
package config

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/flyersmith/pkg/errors"
	"github.com/matzehuels/flyersmith/pkg/llm"
	"github.com/matzehuels/flyersmith/pkg/pipeline"
)

// AppName names the configuration, cache and data directories.
const AppName = "flyersmith"

// FileName is the configuration file name inside the config directory.
const FileName = "config.toml"

// Backend names.
const (
	BackendNone   = "none"
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Environment variables read by ApplyEnv.
const (
	EnvAPIKey    = "OPENAI_API_KEY"
	EnvBaseURL   = "OPENAI_BASE_URL"
	EnvRedisAddr = "FLYERSMITH_REDIS_ADDR"
	EnvMongoURI  = "FLYERSMITH_MONGO_URI"
	EnvOutputDir = "FLYERSMITH_OUTPUT_DIR"
	EnvAddr      = "FLYERSMITH_ADDR"
)

// Config is the full set of settings.
type Config struct {
	OpenAI   OpenAI   `toml:"openai"`
	Pipeline Pipeline `toml:"pipeline"`
	Cache    Cache    `toml:"cache"`
	Store    Store    `toml:"store"`
	Server   Server   `toml:"server"`
}

// OpenAI configures the model service.
type OpenAI struct {
	APIKey       string        `toml:"api_key"`
	BaseURL      string        `toml:"base_url"`
	ChatModel    string        `toml:"chat_model"`
	ImageModel   string        `toml:"image_model"`
	ImageSize    string        `toml:"image_size"`
	ImageQuality string        `toml:"image_quality"`
	Temperature  float32       `toml:"temperature"`
	MaxTokens    int           `toml:"max_tokens"`
	Timeout      time.Duration `toml:"timeout"`

	// ImageInterval spaces image requests; zero disables pacing.
	ImageInterval time.Duration `toml:"image_interval"`
}

// Pipeline holds run defaults.
type Pipeline struct {
	OutputDir     string `toml:"output_dir"`
	Rounds        int    `toml:"rounds"`
	LegibilityCap bool   `toml:"legibility_cap"`
}

// Cache selects and configures the completion cache.
type Cache struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// Store selects and configures the flyer archive.
type Store struct {
	Backend    string `toml:"backend"`
	Dir        string `toml:"dir"`
	MongoURI   string `toml:"mongo_uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Server configures the HTTP front end.
type Server struct {
	Addr            string        `toml:"addr"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
	MaxConcurrent   int           `toml:"max_concurrent"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		OpenAI: OpenAI{
			ChatModel:     llm.DefaultChatModel,
			ImageModel:    llm.DefaultImageModel,
			ImageSize:     llm.DefaultImageSize,
			ImageQuality:  llm.DefaultImageQuality,
			MaxTokens:     llm.DefaultMaxTokens,
			Timeout:       llm.DefaultTimeout,
			ImageInterval: llm.DefaultImageInterval,
		},
		Pipeline: Pipeline{
			OutputDir: pipeline.DefaultOutputDir,
			Rounds:    pipeline.DefaultRounds,
		},
		Cache: Cache{Backend: BackendFile},
		Store: Store{
			Backend:    BackendFile,
			Database:   AppName,
			Collection: "flyers",
		},
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    10 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
			MaxConcurrent:   4,
		},
	}
}

// Load reads the configuration file at path over the defaults and then
// applies the environment. An empty path means [Path]; a missing default
// file is not an error, a missing explicit one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := Path()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "cannot locate config directory")
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := cfg.decode(string(data)); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid config file %s", path)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "cannot read config file")
	}

	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Parse decodes TOML text over the defaults without touching the
// environment beyond ${VAR} references.
func Parse(text string) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(text); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid config")
	}
	return &cfg, nil
}

func (c *Config) decode(text string) error {
	md, err := toml.Decode(expandEnv(text, os.LookupEnv), c)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return errors.New(errors.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// ApplyEnv overlays environment variables. A Redis address or Mongo URI
// also switches the matching backend on.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIKey); ok && v != "" {
		c.OpenAI.APIKey = v
	}
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		c.OpenAI.BaseURL = v
	}
	if v, ok := lookup(EnvRedisAddr); ok && v != "" {
		c.Cache.RedisAddr = v
		c.Cache.Backend = BackendRedis
	}
	if v, ok := lookup(EnvMongoURI); ok && v != "" {
		c.Store.MongoURI = v
		c.Store.Backend = BackendMongo
	}
	if v, ok := lookup(EnvOutputDir); ok && v != "" {
		c.Pipeline.OutputDir = v
	}
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Server.Addr = v
	}
}

// Validate checks backend names and the settings they need.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case BackendNone, BackendFile, BackendMemory:
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache backend redis needs redis_addr")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}

	switch c.Store.Backend {
	case BackendNone, BackendFile:
	case BackendMongo:
		if c.Store.MongoURI == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "store backend mongo needs mongo_uri")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q", c.Store.Backend)
	}

	if c.OpenAI.BaseURL != "" {
		if err := errors.ValidateURL(c.OpenAI.BaseURL); err != nil {
			return err
		}
	}
	if err := pipeline.ValidateRounds(c.Pipeline.Rounds); err != nil {
		return err
	}
	if c.Server.MaxConcurrent < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "max_concurrent must not be negative")
	}
	return nil
}

// LLM converts the model settings for llm.NewOpenAI.
func (c *Config) LLM() llm.Config {
	return llm.Config{
		APIKey:       c.OpenAI.APIKey,
		BaseURL:      c.OpenAI.BaseURL,
		ChatModel:    c.OpenAI.ChatModel,
		ImageModel:   c.OpenAI.ImageModel,
		ImageSize:    c.OpenAI.ImageSize,
		ImageQuality: c.OpenAI.ImageQuality,
		Temperature:  c.OpenAI.Temperature,
		MaxTokens:    c.OpenAI.MaxTokens,
		Timeout:      c.OpenAI.Timeout,
	}
}

// CacheDir returns the cache directory: the configured one, or
// $XDG_CACHE_HOME/flyersmith (~/.cache/flyersmith).
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

// StoreDir returns the archive directory: the configured one, or
// $XDG_DATA_HOME/flyersmith/flyers.
func (c *Config) StoreDir() (string, error) {
	if c.Store.Dir != "" {
		return c.Store.Dir, nil
	}
	dir, err := xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "flyers"), nil
}

// Path returns the default configuration file path.
func Path() (string, error) {
	dir, err := xdgDir("XDG_CONFIG_HOME", ".config")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

func xdgDir(env, fallback string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, AppName), nil
}

var envRef = regexp.MustCompile(`\$\{(\w+)(:([^}]*))?\}`)

// expandEnv replaces ${VAR} and ${VAR:default}. An unset variable without
// a default is left as written.
func expandEnv(s string, lookup func(string) (string, bool)) string {
	return envRef.ReplaceAllStringFunc(s, func(match string) string {
		m := envRef.FindStringSubmatch(match)
		if v, ok := lookup(m[1]); ok {
			return tomlEscape(v)
		}
		if m[2] != "" {
			return m[3]
		}
		return match
	})
}

// tomlEscape makes a value safe inside a basic TOML string.
func tomlEscape(s string) string {
	q := strconv.Quote(s)
	return q[1 : len(q)-1]
}
