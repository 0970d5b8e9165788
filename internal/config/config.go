package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	apperrors "github.com/jrsteele09/go-google-login/internal/errors"
)

// Provider endpoints used when neither an explicit URL nor an issuer is configured.
const (
	DefaultAuthURL    = "https://accounts.google.com/o/oauth2/v2/auth"
	DefaultTokenURL   = "https://www.googleapis.com/oauth2/v3/token"
	DefaultProfileURL = "https://googleapp.com/api/users/@me"
)

const (
	StateStoreMemory = "memory"
	StateStoreRedis  = "redis"
)

// Config is built once at startup and shared read-only by every request.
type Config struct {
	// Provider client registration
	ClientID     string `env:"GOOGLE_CLIENT_ID,required,notEmpty"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET,required,notEmpty"`
	RedirectURL  string `env:"GOOGLE_REDIRECT_URL,required,notEmpty"`

	// Provider endpoints
	AuthURL    string   `env:"GOOGLE_AUTH_URL"`
	TokenURL   string   `env:"TOKEN_URL"`
	ProfileURL string   `env:"GOOGLE_PROFILE_URL"`
	IssuerURL  string   `env:"GOOGLE_ISSUER_URL"`
	Scopes     []string `env:"GOOGLE_SCOPES" envSeparator:"," envDefault:"identify"`

	// Service
	Port     string `env:"PORT" envDefault:"8080"`
	AppName  string `env:"APP_NAME" envDefault:"Google Login"`
	Env      string `env:"ENV" envDefault:"DEV"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"10s"`
	StateTTL        time.Duration `env:"STATE_TTL" envDefault:"10m"`
	StateStore      string        `env:"STATE_STORE" envDefault:"memory"`

	Redis RedisConfig `envPrefix:"REDIS_"`
}

type RedisConfig struct {
	Addr      string `env:"ADDR"`
	Password  string `env:"PASSWORD"`
	DB        int    `env:"DB" envDefault:"0"`
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"google-login:state:"`
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// Parse reads the configuration from the given variables instead of the process environment.
func Parse(environ map[string]string) (*Config, error) {
	if environ == nil {
		environ = map[string]string{}
	}
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	var c Config
	if err := env.ParseWithOptions(&c, opts); err != nil {
		return nil, apperrors.Kind(apperrors.ErrConfiguration, err)
	}

	// An issuer supplies whichever endpoints are not set explicitly.
	if c.IssuerURL == "" {
		if c.AuthURL == "" {
			c.AuthURL = DefaultAuthURL
		}
		if c.TokenURL == "" {
			c.TokenURL = DefaultTokenURL
		}
	}
	if c.ProfileURL == "" {
		c.ProfileURL = DefaultProfileURL
	}
	c.Scopes = trimCSV(c.Scopes)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the values that the environment parser cannot.
func (c *Config) Validate() error {
	urls := []struct {
		name     string
		value    string
		optional bool
	}{
		{"GOOGLE_REDIRECT_URL", c.RedirectURL, false},
		{"GOOGLE_AUTH_URL", c.AuthURL, true},
		{"TOKEN_URL", c.TokenURL, true},
		{"GOOGLE_PROFILE_URL", c.ProfileURL, false},
		{"GOOGLE_ISSUER_URL", c.IssuerURL, true},
	}
	for _, u := range urls {
		if u.value == "" && u.optional {
			continue
		}
		if err := validateURL(u.value); err != nil {
			return fmt.Errorf("%w: %s: %w", apperrors.ErrConfiguration, u.name, err)
		}
	}

	if len(c.Scopes) == 0 {
		return fmt.Errorf("%w: GOOGLE_SCOPES must name at least one scope", apperrors.ErrConfiguration)
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("%w: UPSTREAM_TIMEOUT must be positive", apperrors.ErrConfiguration)
	}
	if c.StateTTL <= 0 {
		return fmt.Errorf("%w: STATE_TTL must be positive", apperrors.ErrConfiguration)
	}

	switch c.StateStore {
	case StateStoreMemory:
	case StateStoreRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("%w: REDIS_ADDR is required when STATE_STORE=redis", apperrors.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown STATE_STORE %q", apperrors.ErrConfiguration, c.StateStore)
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func (c *Config) IsDev() bool {
	return strings.EqualFold(c.Env, "DEV")
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q is not an absolute http(s) URL", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}

// trimCSV removes empty entries from a string slice.
func trimCSV(values []string) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			result = append(result, v)
		}
	}
	return result
}
