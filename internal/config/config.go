package config

// Configuration loading and validation for pcapexplain

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/tturner/pcapexplain/internal/errors"
)

// Environment variable names. The first three match the keys the tool has
// always read from .env.
const (
	EnvEndpoint  = "OPENAI_ENDPOINT"
	EnvAPIKey    = "OPENAI_API_KEY"
	EnvModel     = "MODEL"
	EnvBatchSize = "PCAPEXPLAIN_BATCH_SIZE"
	EnvWorkers   = "PCAPEXPLAIN_WORKERS"
	EnvOutputDir = "PCAPEXPLAIN_OUTPUT_DIR"
	EnvTshark    = "TSHARK"
)

// DefaultEnvFile is read when --env is not given. Its absence is not an error.
const DefaultEnvFile = ".env"

// LLMConfig holds the language-model service settings
type LLMConfig struct {
	Endpoint    string  `yaml:"endpoint" toml:"endpoint" validate:"required,url"`
	APIKey      string  `yaml:"api_key" toml:"api_key" validate:"required"`
	Model       string  `yaml:"model" toml:"model" validate:"required"`
	Temperature float32 `yaml:"temperature" toml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `yaml:"max_tokens" toml:"max_tokens" validate:"gt=0"`
	Timeout     string  `yaml:"timeout" toml:"timeout" validate:"duration"`
}

// RetryConfig holds the retry/backoff policy for model calls
type RetryConfig struct {
	MaxRetries     int     `yaml:"max_retries" toml:"max_retries" validate:"gte=0,lte=20"`
	InitialBackoff string  `yaml:"initial_backoff" toml:"initial_backoff" validate:"duration"`
	MaxBackoff     string  `yaml:"max_backoff" toml:"max_backoff" validate:"duration"`
	Multiplier     float64 `yaml:"multiplier" toml:"multiplier" validate:"gte=1"`
}

// Config is the top-level configuration
type Config struct {
	LLM        LLMConfig   `yaml:"llm" toml:"llm"`
	Retry      RetryConfig `yaml:"retry" toml:"retry"`
	BatchSize  int         `yaml:"batch_size" toml:"batch_size" validate:"gt=0"`
	Workers    int         `yaml:"workers" toml:"workers" validate:"gt=0,lte=64"`
	TsharkPath string      `yaml:"tshark_path" toml:"tshark_path"`
	OutputDir  string      `yaml:"output_dir" toml:"output_dir"`
}

// Default returns a Config with the defaults applied
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Temperature: 0.2,
			MaxTokens:   8192,
			Timeout:     "2m",
		},
		Retry: RetryConfig{
			MaxRetries:     3,
			InitialBackoff: "1s",
			MaxBackoff:     "30s",
			Multiplier:     2,
		},
		BatchSize: 10,
		Workers:   1,
		OutputDir: ".",
	}
}

// LoadOptions selects the configuration sources.
type LoadOptions struct {
	// ConfigPath is an optional .yaml/.yml/.toml file.
	ConfigPath string
	// EnvPath is the .env file; empty means DefaultEnvFile.
	EnvPath string
	// EnvExplicit makes a missing EnvPath an error.
	EnvExplicit bool
	// LookupEnv reads process environment; defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load builds a Config from defaults, the config file, the .env file and the
// process environment, in increasing precedence. It does not validate.
func Load(opts LoadOptions) (*Config, error) {
	cfg := Default()

	if opts.ConfigPath != "" {
		if err := loadFile(opts.ConfigPath, cfg); err != nil {
			return nil, err
		}
	}

	envPath := opts.EnvPath
	if envPath == "" {
		envPath = DefaultEnvFile
	}
	dotenv, err := godotenv.Read(envPath)
	if err != nil {
		if !os.IsNotExist(err) || opts.EnvExplicit {
			return nil, &errors.ConfigError{Reason: fmt.Sprintf("read env file %s", envPath), Err: err}
		}
		dotenv = nil
	}
	if err := applyEnv(cfg, func(key string) (string, bool) {
		v, ok := dotenv[key]
		return v, ok
	}); err != nil {
		return nil, err
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &errors.ConfigError{Reason: fmt.Sprintf("config file not found: %s", path), Err: err}
		}
		return &errors.ConfigError{Reason: "read config file", Err: err}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return &errors.ConfigError{Reason: "parse TOML", Err: err}
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return &errors.ConfigError{Reason: "parse YAML", Err: err}
		}
	default:
		return &errors.ConfigError{Reason: fmt.Sprintf("unsupported config format %q (use .yaml or .toml)", filepath.Ext(path))}
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key, field string, dst *int) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return &errors.ConfigError{Fields: []string{field}, Reason: fmt.Sprintf("%s=%q is not an integer", key, v)}
		}
		*dst = n
		return nil
	}

	str(EnvEndpoint, &cfg.LLM.Endpoint)
	str(EnvAPIKey, &cfg.LLM.APIKey)
	str(EnvModel, &cfg.LLM.Model)
	str(EnvOutputDir, &cfg.OutputDir)
	str(EnvTshark, &cfg.TsharkPath)
	if err := num(EnvBatchSize, "batch_size", &cfg.BatchSize); err != nil {
		return err
	}
	return num(EnvWorkers, "workers", &cfg.Workers)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		d, err := time.ParseDuration(fl.Field().String())
		return err == nil && d > 0
	})
	return v
}

// Validate checks cfg and reports every offending key in one ConfigError.
func Validate(cfg *Config) error {
	if cfg == nil {
		return &errors.ConfigError{Reason: "no configuration"}
	}
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &errors.ConfigError{Reason: "validate", Err: err}
	}

	var missing, invalid []string
	for _, fe := range verrs {
		// Namespace is "Config.llm.api_key"; drop the root type name.
		key := fe.Namespace()
		if i := strings.Index(key, "."); i >= 0 {
			key = key[i+1:]
		}
		if fe.Tag() == "required" {
			missing = append(missing, key)
		} else {
			invalid = append(invalid, key)
		}
	}

	var reason []string
	if len(missing) > 0 {
		reason = append(reason, "missing "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		reason = append(reason, "invalid "+strings.Join(invalid, ", "))
	}
	return &errors.ConfigError{
		Fields: append(missing, invalid...),
		Reason: strings.Join(reason, "; "),
	}
}

// RequestTimeout returns the per-request model timeout.
func (c LLMConfig) RequestTimeout() time.Duration {
	return parseDuration(c.Timeout, 2*time.Minute)
}

// Backoff returns the initial and maximum backoff intervals.
func (c RetryConfig) Backoff() (initial, max time.Duration) {
	return parseDuration(c.InitialBackoff, time.Second), parseDuration(c.MaxBackoff, 30*time.Second)
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.LLM.APIKey != "" {
		c.LLM.APIKey = maskSecret(c.LLM.APIKey)
	}
	return c
}

// WriteYAML renders cfg as YAML.
func (c Config) WriteYAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(data), nil
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + strings.Repeat("*", 4) + s[len(s)-4:]
}
