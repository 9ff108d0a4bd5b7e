package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Backend  string         `mapstructure:"backend" validate:"oneof=openai bedrock gemini stub"`
	Timeout  time.Duration  `mapstructure:"timeout" validate:"gt=0"`
	Retry    RetryConfig    `mapstructure:"retry"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Bedrock  BedrockConfig  `mapstructure:"bedrock"`
	Gemini   GeminiConfig   `mapstructure:"gemini"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Runner   RunnerConfig   `mapstructure:"runner"`
	Reports  ReportsConfig  `mapstructure:"reports"`
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
}

type RetryConfig struct {
	Attempts     uint          `mapstructure:"attempts" validate:"min=1"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
}

type BedrockConfig struct {
	Region    string `mapstructure:"region"`
	ModelID   string `mapstructure:"model_id"`
	MaxTokens int    `mapstructure:"max_tokens" validate:"min=0"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type HTTPConfig struct {
	BaseURL       string        `mapstructure:"base_url" validate:"omitempty,url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	SlowThreshold time.Duration `mapstructure:"slow_threshold"`
}

type RunnerConfig struct {
	Parallelism          int  `mapstructure:"parallelism" validate:"min=1"`
	FailOnSecurityIssues bool `mapstructure:"fail_on_security_issues"`
}

type ReportsConfig struct {
	Directory string   `mapstructure:"directory"`
	Formats   []string `mapstructure:"formats" validate:"dive,oneof=console markdown pdf json"`
	// Template is optional; the embedded report template is used otherwise.
	Template string `mapstructure:"template" validate:"omitempty,file"`
}

type DatabaseConfig struct {
	Enabled         bool              `mapstructure:"enabled"`
	Host            string            `mapstructure:"host"`
	Port            int               `mapstructure:"port"`
	Database        string            `mapstructure:"database"`
	Username        string            `mapstructure:"username"`
	Password        string            `mapstructure:"password"`
	TLS             bool              `mapstructure:"tls"`
	Params          map[string]string `mapstructure:"params"`
	MaxOpenConns    int               `mapstructure:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int               `mapstructure:"conn_max_lifetime_seconds"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port" validate:"min=1,max=65535"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
	envFile    string
}

func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, trans, err := NewValidator("mapstructure")
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/apijudge")
	}

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
		envFile:    ".env",
	}, nil
}

// SetEnvFile changes the dotenv file read before environment bindings.
// An empty path disables it.
func (loader *ConfigLoader) SetEnvFile(path string) {
	loader.envFile = path
}

// envBindings maps config keys to the environment variables that set them.
var envBindings = []struct {
	key string
	env string
}{
	{key: "backend", env: "APIJUDGE_BACKEND"},
	{key: "timeout", env: "APIJUDGE_TIMEOUT"},
	{key: "openai.api_key", env: "OPENAI_API_KEY"},
	{key: "openai.model", env: "OPENAI_MODEL"},
	{key: "openai.base_url", env: "OPENAI_BASE_URL"},
	{key: "bedrock.region", env: "AWS_REGION"},
	{key: "bedrock.model_id", env: "BEDROCK_MODEL_ID"},
	{key: "gemini.api_key", env: "GEMINI_API_KEY"},
	{key: "gemini.model", env: "GEMINI_MODEL"},
	{key: "database.password", env: "DB_PASSWORD"},
}

func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper

	// Variables already in the environment win over the dotenv file
	if loader.envFile != "" {
		if err := godotenv.Load(loader.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", loader.envFile, err)
		}
	}

	v.SetDefault("backend", "openai")
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("retry.attempts", 1)
	v.SetDefault("retry.initial_delay", 500*time.Millisecond)
	v.SetDefault("retry.max_delay", 5*time.Second)
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("bedrock.model_id", "anthropic.claude-3-haiku-20240307-v1:0")
	v.SetDefault("bedrock.max_tokens", 1024)
	v.SetDefault("gemini.model", "gemini-1.5-flash")
	v.SetDefault("http.timeout", 10*time.Second)
	v.SetDefault("http.slow_threshold", 2*time.Second)
	v.SetDefault("runner.parallelism", 4)
	v.SetDefault("runner.fail_on_security_issues", false)
	v.SetDefault("reports.directory", "reports")
	v.SetDefault("reports.formats", []string{"console", "markdown"})
	v.SetDefault("reports.template", "")
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.database", "apijudge")
	v.SetDefault("database.username", "user")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:3000"})

	for _, binding := range envBindings {
		if err := v.BindEnv(binding.key, binding.env); err != nil {
			return nil, fmt.Errorf("failed to bind %s environment variable: %w", binding.env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := loader.validator.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(TranslateErrors(err, loader.translator, false), ", "))
	}

	return &cfg, nil
}
