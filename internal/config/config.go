package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	envPrefix = "TRAVEL_WEB_"

	defaultEnvFile         = ".env"
	defaultPort            = "8080"
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultBackendTimeout  = 8 * time.Second
	defaultWorkflowTTL     = 30 * time.Minute
	defaultSpinPerMinute   = 30
	defaultLang            = "ko"
	defaultEnvironment     = "local"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Environment string `validate:"oneof=local dev prod"`
	LogLevel    string
	Server      ServerConfig
	Backend     BackendConfig
	Session     SessionConfig
	Web         WebConfig
	RateLimits  RateLimitConfig
	Analytics   AnalyticsConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port            string        `validate:"required,numeric"`
	ReadTimeout     time.Duration `validate:"gt=0"`
	WriteTimeout    time.Duration `validate:"gt=0"`
	IdleTimeout     time.Duration `validate:"gt=0"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

// Addr returns the listen address for the configured port.
func (s ServerConfig) Addr() string { return ":" + s.Port }

// BackendConfig points at the travel recommendation API. An empty BaseURL serves static data.
type BackendConfig struct {
	BaseURL string        `validate:"omitempty,url"`
	Timeout time.Duration `validate:"gt=0"`
}

// SessionConfig controls the session cookie and the workflow store lifetime.
type SessionConfig struct {
	CookieName  string `validate:"required"`
	HashKey     string
	BlockKey    string `validate:"omitempty,len=16|len=24|len=32"`
	Secure      bool
	WorkflowTTL time.Duration `validate:"gt=0"`
}

// WebConfig locates templates, assets and content on disk.
type WebConfig struct {
	TemplatesDir string `validate:"required"`
	PublicDir    string `validate:"required"`
	ContentDir   string `validate:"required"`
	LocalesDir   string `validate:"required"`
	DefaultLang  string `validate:"required"`
	SiteURL      string `validate:"omitempty,url"`
	DevMode      bool
}

// AnalyticsConfig carries client instrumentation ids surfaced to templates.
type AnalyticsConfig struct {
	GA4MeasurementID string
	GTMContainerID   string
	Debug            bool
}

// RateLimitConfig throttles spin and draw requests per client.
type RateLimitConfig struct {
	SpinPerMinute int `validate:"gte=0"`
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides. An empty path disables it.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects explicit key/value pairs that take precedence over the system environment.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the configuration from defaults, .env overrides, and environment variables.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnv, err := readDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if v, ok := options.envMap[key]; ok {
			return v, true
		}
		if options.useSystemEnv {
			if v, ok := os.LookupEnv(key); ok {
				return v, true
			}
		}
		if v, ok := dotEnv[key]; ok {
			return v, true
		}
		return "", false
	}

	var invalid []string
	str := func(name, fallback string) string {
		if v, ok := lookup(envPrefix + name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return fallback
	}
	dur := func(name string, fallback time.Duration) time.Duration {
		raw := str(name, "")
		if raw == "" {
			return fallback
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			invalid = append(invalid, envPrefix+name)
			return fallback
		}
		return d
	}
	integer := func(name string, fallback int) int {
		raw := str(name, "")
		if raw == "" {
			return fallback
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			invalid = append(invalid, envPrefix+name)
			return fallback
		}
		return n
	}
	boolean := func(name string, fallback bool) bool {
		raw := str(name, "")
		if raw == "" {
			return fallback
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			invalid = append(invalid, envPrefix+name)
			return fallback
		}
		return b
	}

	// Cloud Run injects PORT; the prefixed variable wins when both are set.
	port := defaultPort
	if v, ok := lookup("PORT"); ok && strings.TrimSpace(v) != "" {
		port = strings.TrimSpace(v)
	}

	cfg := Config{
		Environment: strings.ToLower(str("ENV", defaultEnvironment)),
		LogLevel:    str("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Port:            str("PORT", port),
			ReadTimeout:     dur("READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:    dur("WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:     dur("IDLE_TIMEOUT", defaultIdleTimeout),
			ShutdownTimeout: dur("SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		},
		Backend: BackendConfig{
			BaseURL: strings.TrimRight(str("API_BASE_URL", ""), "/"),
			Timeout: dur("API_TIMEOUT", defaultBackendTimeout),
		},
		Session: SessionConfig{
			CookieName:  str("SESSION_COOKIE", "TRAVEL_WEB_SESSION"),
			HashKey:     str("SESSION_HASH_KEY", ""),
			BlockKey:    str("SESSION_BLOCK_KEY", ""),
			WorkflowTTL: dur("WORKFLOW_TTL", defaultWorkflowTTL),
		},
		Web: WebConfig{
			TemplatesDir: str("TEMPLATES_DIR", "templates"),
			PublicDir:    str("PUBLIC_DIR", "public"),
			ContentDir:   str("CONTENT_DIR", "content"),
			LocalesDir:   str("LOCALES_DIR", "locales"),
			DefaultLang:  strings.ToLower(str("DEFAULT_LANG", defaultLang)),
			SiteURL:      strings.TrimRight(str("SITE_URL", ""), "/"),
			DevMode:      boolean("DEV", false),
		},
		RateLimits: RateLimitConfig{
			SpinPerMinute: integer("SPIN_PER_MINUTE", defaultSpinPerMinute),
		},
		Analytics: AnalyticsConfig{
			GA4MeasurementID: str("GA_MEASUREMENT_ID", ""),
			GTMContainerID:   str("GTM_CONTAINER_ID", ""),
			Debug:            boolean("ANALYTICS_DEBUG", false),
		},
	}
	cfg.Session.Secure = boolean("SESSION_SECURE", cfg.Environment == "prod")

	if cfg.Environment == "prod" && cfg.Session.HashKey == "" {
		invalid = append(invalid, envPrefix+"SESSION_HASH_KEY")
	}
	if err := validate(cfg); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			invalid = append(invalid, verr.fields...)
		} else {
			return Config{}, err
		}
	}
	if len(invalid) > 0 {
		return Config{}, &ValidationError{fields: invalid}
	}
	return cfg, nil
}

func validate(cfg Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("config: validate: %w", err)
		}
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, strings.TrimPrefix(fe.Namespace(), "Config."))
		}
		return &ValidationError{fields: fields}
	}
	return nil
}

func readDotEnv(path string) (map[string]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return values, nil
}
