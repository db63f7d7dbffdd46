package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "NST"

	// PlaceholderKey is the value build pipelines inject when no real key exists.
	PlaceholderKey = "DUMMY_KEY_FOR_BUILD"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_header_timeout", 5*time.Second)
	v.SetDefault("http.idle_timeout", 2*time.Minute)
	v.SetDefault("http.shutdown_timeout", 15*time.Second)
	v.SetDefault("http.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})

	v.SetDefault("upstream.engine", "gemini")
	v.SetDefault("upstream.base_url", "")
	v.SetDefault("upstream.timeout", 90*time.Second)
	v.SetDefault("upstream.standard_model", "gemini-2.5-flash")
	v.SetDefault("upstream.advanced_model", "gemini-3-pro-preview")
	v.SetDefault("upstream.temperature", 0.3)
	v.SetDefault("upstream.keys", []string{})
	v.SetDefault("upstream.fallback_key", "")
	v.SetDefault("upstream.env_key_var", "API_KEY")
	v.SetDefault("upstream.style_instruction", "")

	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.dsn", "nst_content.db")

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.prefix", "nst")

	v.SetDefault("grounding.max_chars", 15000)

	v.SetDefault("pacing.override_min", time.Duration(0))
	v.SetDefault("pacing.override_max", time.Duration(0))
	v.SetDefault("pacing.offline", time.Duration(0))

	v.SetDefault("admin.jwt_secret", "")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "nst-content")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", false)
	v.SetDefault("tracing.sample_ratio", 0.1)
}

// Load reads defaults, then an optional config file, then an optional .env,
// then NST_* environment variables (NST_UPSTREAM_ENGINE, NST_CACHE_BACKEND, ...).
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfgPath := strings.TrimSpace(os.Getenv("NST_CONFIG_PATH"))
	if cfgPath == "" {
		if wd, err := os.Getwd(); err == nil {
			p := filepath.Join(wd, "config", "config.yaml")
			if _, err := os.Stat(p); err == nil {
				cfgPath = p
			}
		}
	}
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgPath, err)
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate normalises free-form values and rejects unusable combinations.
func (c *Config) Validate() error {
	c.Env = strings.TrimSpace(c.Env)
	if c.Env == "" {
		c.Env = "development"
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		c.HTTP.Addr = ":8080"
	}

	u := &c.Upstream
	u.Engine = strings.ToLower(strings.TrimSpace(u.Engine))
	u.BaseURL = strings.TrimRight(strings.TrimSpace(u.BaseURL), "/")
	switch u.Engine {
	case "gemini", "mock":
	case "openai_http", "oai_http":
		u.Engine = "oai_http"
		if u.BaseURL == "" {
			return errors.New("upstream.base_url is required for oai_http")
		}
	case "langchain", "langchain_openai":
		u.Engine = "langchain_openai"
	default:
		return fmt.Errorf("unsupported upstream.engine %q", u.Engine)
	}
	if strings.TrimSpace(u.StandardModel) == "" {
		return errors.New("upstream.standard_model is required")
	}
	if strings.TrimSpace(u.AdvancedModel) == "" {
		u.AdvancedModel = u.StandardModel
	}
	if u.Temperature < 0 || u.Temperature > 2 {
		return fmt.Errorf("upstream.temperature out of range: %v", u.Temperature)
	}
	if strings.TrimSpace(u.EnvKeyVar) == "" {
		u.EnvKeyVar = "API_KEY"
	}

	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported storage.driver %q", c.Storage.Driver)
	}
	if strings.TrimSpace(c.Storage.DSN) == "" {
		return errors.New("storage.dsn is required")
	}

	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	switch c.Cache.Backend {
	case "", "memory":
		c.Cache.Backend = "memory"
	case "redis":
		if strings.TrimSpace(c.Cache.RedisAddr) == "" {
			return errors.New("cache.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unsupported cache.backend %q", c.Cache.Backend)
	}

	if c.Grounding.MaxChars <= 0 {
		c.Grounding.MaxChars = 15000
	}

	p := &c.Pacing
	if p.OverrideMin < 0 || p.OverrideMax < 0 || p.Offline < 0 {
		return errors.New("pacing delays must not be negative")
	}
	if p.OverrideMax < p.OverrideMin {
		p.OverrideMax = p.OverrideMin
	}

	if c.Tracing.SampleRatio < 0 {
		c.Tracing.SampleRatio = 0
	}
	if c.Tracing.SampleRatio > 1 {
		c.Tracing.SampleRatio = 1
	}
	return nil
}
