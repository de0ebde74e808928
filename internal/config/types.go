package config

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderOllama    ProviderType = "ollama"
)

// Config is the top-level mindmap configuration, corresponding to .mindmap.yml.
type Config struct {
	Provider       ProviderType `yaml:"provider" koanf:"provider"`
	Model          string       `yaml:"model" koanf:"model"`
	Environment    string       `yaml:"environment" koanf:"environment"`
	LogLevel       string       `yaml:"log_level" koanf:"log_level"`
	DataDir        string       `yaml:"data_dir" koanf:"data_dir"`
	MaxConcurrency int          `yaml:"max_concurrency" koanf:"max_concurrency"`
	RateLimitRPM   int          `yaml:"rate_limit_rpm" koanf:"rate_limit_rpm"`
	DefaultDepth   int          `yaml:"default_depth" koanf:"default_depth"`
	DefaultColor   string       `yaml:"default_color" koanf:"default_color"`
	Server         ServerConfig `yaml:"server" koanf:"server"`
	Export         ExportConfig `yaml:"export" koanf:"export"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port           int  `yaml:"port" koanf:"port"`
	AllowAll       bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	TimeoutSeconds int  `yaml:"timeout_seconds" koanf:"timeout_seconds"`
}

// ExportConfig holds image and PDF export settings. Pixel density is fixed.
type ExportConfig struct {
	JPEGQuality int `yaml:"jpeg_quality" koanf:"jpeg_quality"`
}
