// Package config builds the process configuration once at start-up. Values
// are layered: built-in defaults, an optional YAML file, an optional dotenv
// file, then the process environment. The result is validated before use and
// passed explicitly to the transport and components.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps validation failures.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the root configuration.
type Config struct {
	API        API        `yaml:"api"`
	Server     Server     `yaml:"server"`
	Log        Log        `yaml:"log"`
	Submission Submission `yaml:"submission"`
}

// API configures the backend the transport talks to.
type API struct {
	BaseURL      string        `yaml:"base_url" validate:"required,url"`
	Timeout      time.Duration `yaml:"timeout" validate:"gt=0"`
	UserAgent    string        `yaml:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" validate:"gte=0"`
}

// Server configures the HTTP host.
type Server struct {
	Addr         string        `yaml:"addr" validate:"required"`
	BasePath     string        `yaml:"base_path"`
	ReadTimeout  time.Duration `yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"gte=0"`
}

// Log configures the zap logger.
type Log struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

// Submission tunes the coordinator.
type Submission struct {
	SecretLength int    `yaml:"secret_length" validate:"gte=8,lte=128"`
	Redirect     string `yaml:"redirect" validate:"required"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		API: API{
			BaseURL:      "http://localhost:8000",
			Timeout:      10 * time.Second,
			UserAgent:    "go-formpipe",
			MaxBodyBytes: 1 << 20,
		},
		Server: Server{
			Addr:         ":3000",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: Log{Level: "info"},
		Submission: Submission{
			SecretLength: 8,
			Redirect:     "/login",
		},
	}
}

// Options control where Load looks for values.
type Options struct {
	// File is an optional YAML file. A missing file is an error only when
	// set explicitly.
	File string
	// EnvFile is an optional dotenv file; missing files are skipped.
	EnvFile string
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load layers every source and validates the result.
func Load(opts Options) (Config, error) {
	cfg := Default()

	if opts.File != "" {
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", opts.File, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", opts.File, err)
		}
	}

	dotenv := map[string]string{}
	if opts.EnvFile != "" {
		values, err := godotenv.Read(opts.EnvFile)
		switch {
		case err == nil:
			dotenv = values
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("config: read %s: %w", opts.EnvFile, err)
		}
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	env := func(keys ...string) (string, bool) {
		for _, key := range keys {
			if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v), true
			}
		}
		for _, key := range keys {
			if v, ok := dotenv[key]; ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v), true
			}
		}
		return "", false
	}
	if err := applyEnv(&cfg, env); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, env func(keys ...string) (string, bool)) error {
	if v, ok := env("FORMPIPE_API_URL", "API_URL"); ok {
		cfg.API.BaseURL = v
	}
	if v, ok := env("FORMPIPE_API_USER_AGENT"); ok {
		cfg.API.UserAgent = v
	}
	if v, ok := env("FORMPIPE_SERVER_ADDR"); ok {
		cfg.Server.Addr = v
	}
	if v, ok := env("FORMPIPE_SERVER_BASE_PATH"); ok {
		cfg.Server.BasePath = v
	}
	if v, ok := env("FORMPIPE_LOG_LEVEL", "LOG_LEVEL"); ok {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v, ok := env("FORMPIPE_SUBMISSION_REDIRECT"); ok {
		cfg.Submission.Redirect = v
	}

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"FORMPIPE_API_TIMEOUT", &cfg.API.Timeout},
		{"FORMPIPE_SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout},
		{"FORMPIPE_SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout},
	}
	for _, d := range durations {
		v, ok := env(d.key)
		if !ok {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", d.key, err)
		}
		*d.target = parsed
	}

	if v, ok := env("FORMPIPE_LOG_DEVELOPMENT"); ok {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: FORMPIPE_LOG_DEVELOPMENT: %w", err)
		}
		cfg.Log.Development = parsed
	}
	if v, ok := env("FORMPIPE_SUBMISSION_SECRET_LENGTH"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: FORMPIPE_SUBMISSION_SECRET_LENGTH: %w", err)
		}
		cfg.Submission.SecretLength = parsed
	}
	if v, ok := env("FORMPIPE_API_MAX_BODY_BYTES"); ok {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: FORMPIPE_API_MAX_BODY_BYTES: %w", err)
		}
		cfg.API.MaxBodyBytes = parsed
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the struct tags and reports every failing key.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		key := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			problems = append(problems, fmt.Sprintf("%s failed %s=%s", key, fe.Tag(), fe.Param()))
			continue
		}
		problems = append(problems, fmt.Sprintf("%s failed %s", key, fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
}

// NewLogger builds a zap logger for l.
func (l Log) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("config: log level: %w", err)
	}
	zcfg := zap.NewProductionConfig()
	if l.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
