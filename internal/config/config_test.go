package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/flyersmith/pkg/errors"
	"github.com/matzehuels/flyersmith/pkg/llm"
	"github.com/matzehuels/flyersmith/pkg/pipeline"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if c.OpenAI.ChatModel != llm.DefaultChatModel || c.Pipeline.Rounds != pipeline.DefaultRounds {
		t.Errorf("defaults = %+v", c)
	}
	if c.Cache.Backend != BackendFile || c.Store.Backend != BackendFile {
		t.Errorf("backends = %q, %q", c.Cache.Backend, c.Store.Backend)
	}
}

func TestParse(t *testing.T) {
	c, err := Parse(`
[openai]
chat_model = "gpt-4o"
timeout = "45s"
image_interval = "0s"

[pipeline]
rounds = 5
legibility_cap = true

[cache]
backend = "memory"

[server]
addr = ":9090"
`)
	if err != nil {
		t.Fatal(err)
	}
	if c.OpenAI.ChatModel != "gpt-4o" || c.OpenAI.Timeout != 45*time.Second {
		t.Errorf("openai = %+v", c.OpenAI)
	}
	if c.OpenAI.ImageModel != llm.DefaultImageModel {
		t.Errorf("unset key lost its default: %q", c.OpenAI.ImageModel)
	}
	if c.OpenAI.ImageInterval != 0 {
		t.Errorf("ImageInterval = %v", c.OpenAI.ImageInterval)
	}
	if c.Pipeline.Rounds != 5 || !c.Pipeline.LegibilityCap {
		t.Errorf("pipeline = %+v", c.Pipeline)
	}
	if c.Cache.Backend != BackendMemory || c.Server.Addr != ":9090" {
		t.Errorf("cache = %+v, server = %+v", c.Cache, c.Server)
	}
}

func TestParseUnknownKey(t *testing.T) {
	_, err := Parse("[openai]\nchat_modle = \"gpt-4o\"\n")
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Fatalf("err = %v, want INVALID_CONFIG", err)
	}
	if !strings.Contains(err.Error(), "openai.chat_modle") {
		t.Errorf("err = %v, want the key named", err)
	}
}

func TestExpandEnv(t *testing.T) {
	lookup := env(map[string]string{"KEY": "sk-test", "QUOTED": `a"b`})

	tests := []struct {
		in, want string
	}{
		{`api_key = "${KEY}"`, `api_key = "sk-test"`},
		{`api_key = "${MISSING:fallback}"`, `api_key = "fallback"`},
		{`api_key = "${KEY:fallback}"`, `api_key = "sk-test"`},
		{`api_key = "${MISSING}"`, `api_key = "${MISSING}"`},
		{`api_key = "${MISSING:}"`, `api_key = ""`},
		{`api_key = "${QUOTED}"`, `api_key = "a\"b"`},
	}

	for _, tt := range tests {
		if got := expandEnv(tt.in, lookup); got != tt.want {
			t.Errorf("expandEnv(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestApplyEnv(t *testing.T) {
	c := Default()
	c.ApplyEnv(env(map[string]string{
		EnvAPIKey:    "sk-env",
		EnvRedisAddr: "localhost:6379",
		EnvMongoURI:  "mongodb://localhost:27017",
		EnvOutputDir: "",
	}))

	if c.OpenAI.APIKey != "sk-env" {
		t.Errorf("APIKey = %q", c.OpenAI.APIKey)
	}
	if c.Cache.Backend != BackendRedis || c.Cache.RedisAddr != "localhost:6379" {
		t.Errorf("cache = %+v", c.Cache)
	}
	if c.Store.Backend != BackendMongo {
		t.Errorf("store = %+v", c.Store)
	}
	if c.Pipeline.OutputDir != pipeline.DefaultOutputDir {
		t.Errorf("empty variable overrode output dir: %q", c.Pipeline.OutputDir)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown cache", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"redis without addr", func(c *Config) { c.Cache.Backend = BackendRedis }},
		{"unknown store", func(c *Config) { c.Store.Backend = "s3" }},
		{"mongo without uri", func(c *Config) { c.Store.Backend = BackendMongo }},
		{"bad base url", func(c *Config) { c.OpenAI.BaseURL = "api.openai.com" }},
		{"too many rounds", func(c *Config) { c.Pipeline.Rounds = pipeline.MaxRounds + 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(&c)
			if err := c.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvRedisAddr, "")
	t.Setenv(EnvMongoURI, "")
	t.Setenv("FLYERSMITH_TEST_MODEL", "gpt-4.1-mini")

	// No file at the default location.
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load without file: %v", err)
	}
	if c.OpenAI.ChatModel != llm.DefaultChatModel {
		t.Errorf("ChatModel = %q", c.OpenAI.ChatModel)
	}

	path := filepath.Join(dir, AppName, FileName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("[openai]\nchat_model = \"${FLYERSMITH_TEST_MODEL}\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err = Load("")
	if err != nil {
		t.Fatal(err)
	}
	if c.OpenAI.ChatModel != "gpt-4.1-mini" {
		t.Errorf("ChatModel = %q, want value from file", c.OpenAI.ChatModel)
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("missing explicit file should fail")
	}
}

func TestDirs(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")

	c := Default()
	if dir, _ := c.CacheDir(); dir != filepath.Join("/tmp/xdg-cache", AppName) {
		t.Errorf("CacheDir = %q", dir)
	}
	if dir, _ := c.StoreDir(); dir != filepath.Join("/tmp/xdg-data", AppName, "flyers") {
		t.Errorf("StoreDir = %q", dir)
	}
	c.Cache.Dir = "custom"
	if dir, _ := c.CacheDir(); dir != "custom" {
		t.Errorf("CacheDir = %q, want configured dir", dir)
	}
}

func TestLLM(t *testing.T) {
	c := Default()
	c.OpenAI.APIKey = "sk-test"
	lc := c.LLM()
	if err := lc.Validate(); err != nil {
		t.Errorf("converted config invalid: %v", err)
	}
	if lc.ImageSize != llm.DefaultImageSize {
		t.Errorf("ImageSize = %q", lc.ImageSize)
	}
}
