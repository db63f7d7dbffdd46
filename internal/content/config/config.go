package config

import "time"

type HTTPConfig struct {
	Addr              string        `mapstructure:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
}

type UpstreamConfig struct {
	// Engine selects the generation backend: "gemini", "oai_http", "langchain_openai" or "mock".
	Engine string `mapstructure:"engine"`

	// BaseURL overrides the provider endpoint. Required for oai_http.
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`

	StandardModel string  `mapstructure:"standard_model"`
	AdvancedModel string  `mapstructure:"advanced_model"`
	Temperature   float64 `mapstructure:"temperature"`

	// Keys seeds the operator credential list until an admin saves one.
	Keys []string `mapstructure:"keys"`

	// FallbackKey is the built-in credential appended after the operator list.
	FallbackKey string `mapstructure:"fallback_key"`

	// EnvKeyVar names the process variable holding one more credential.
	EnvKeyVar string `mapstructure:"env_key_var"`

	// StyleInstruction seeds the admin note style until an admin saves one.
	StyleInstruction string `mapstructure:"style_instruction"`
}

type StorageConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type CacheConfig struct {
	// Backend is "memory" or "redis".
	Backend   string `mapstructure:"backend"`
	RedisAddr string `mapstructure:"redis_addr"`
	Prefix    string `mapstructure:"prefix"`
}

type GroundingConfig struct {
	MaxChars int `mapstructure:"max_chars"`
}

// PacingConfig holds the optional UX delays. Zero disables each one.
type PacingConfig struct {
	OverrideMin time.Duration `mapstructure:"override_min"`
	OverrideMax time.Duration `mapstructure:"override_max"`
	Offline     time.Duration `mapstructure:"offline"`
}

type AdminConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

type Config struct {
	Env       string          `mapstructure:"env"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Grounding GroundingConfig `mapstructure:"grounding"`
	Pacing    PacingConfig    `mapstructure:"pacing"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}
