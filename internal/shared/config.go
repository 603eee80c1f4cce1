package shared

import (
	_ "embed"
	"encoding/base64"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	// MinStateTTL and MaxStateTTL bound how long a login state cookie lives.
	MinStateTTL = 5 * time.Minute
	MaxStateTTL = time.Hour

	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config represents the application configuration loaded from a TOML file and overlaid from the environment.
type Config struct {
	Spotify SpotifyConfig `toml:"spotify"`
	Server  ServerConfig  `toml:"server"`
	Auth    AuthConfig    `toml:"auth"`
	Store   StoreConfig   `toml:"store"`
	Log     LogConfig     `toml:"log"`
}

// SpotifyConfig contains Spotify API credentials and endpoint overrides.
//
// The endpoint overrides exist for tests and local mocks; leave them empty to use Spotify's.
type SpotifyConfig struct {
	ClientID     string   `toml:"client_id" env:"SPOTIFY_CLIENT_ID"`
	ClientSecret string   `toml:"client_secret" env:"SPOTIFY_CLIENT_SECRET"`
	RedirectURI  string   `toml:"redirect_uri" env:"SPOTIFY_REDIRECT_URI"`
	Scopes       []string `toml:"scopes" env:"SPOTIFY_SCOPES" envSeparator:","`
	AuthURL      string   `toml:"auth_url,omitempty"`
	TokenURL     string   `toml:"token_url,omitempty"`
	APIURL       string   `toml:"api_url,omitempty"`
}

// ServerConfig contains HTTP server and cookie settings.
type ServerConfig struct {
	Host               string `toml:"host" env:"STARIFY_HOST"`
	Port               int    `toml:"port" env:"STARIFY_PORT"`
	CookieDomain       string `toml:"cookie_domain" env:"STARIFY_COOKIE_DOMAIN"`
	SecureCookies      bool   `toml:"secure_cookies" env:"STARIFY_SECURE_COOKIES"`
	AuthenticatedRoute string `toml:"authenticated_route"`
	AnonymousRoute     string `toml:"anonymous_route"`
}

// AuthConfig contains login state, session and refresh settings.
type AuthConfig struct {
	StateTTL       Duration `toml:"state_ttl"`
	SessionTTL     Duration `toml:"session_ttl"`
	SessionSecret  string   `toml:"session_secret" env:"STARIFY_SESSION_SECRET"`
	ResolveTimeout Duration `toml:"resolve_timeout"`
	RefreshLeeway  Duration `toml:"refresh_leeway"`
	LoginRate      float64  `toml:"login_rate"`
	LoginBurst     int      `toml:"login_burst"`
}

// StoreConfig selects and configures the credential store backing.
type StoreConfig struct {
	Backend       string `toml:"backend" env:"STARIFY_STORE"`
	Path          string `toml:"path" env:"STARIFY_CACHE"`
	EncryptionKey string `toml:"encryption_key" env:"STARIFY_ENCRYPTION_KEY"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level" env:"STARIFY_LOG_LEVEL"`
}

// Duration is a [time.Duration] that reads and writes as text ("5m", "1h30m") in TOML and env values.
type Duration time.Duration

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, text, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a [time.Duration].
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Addr returns the host:port the HTTP server listens on.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// RedirectURL returns the configured OAuth redirect URI, deriving it from the listen address when unset.
func (c *Config) RedirectURL() string {
	if c.Spotify.RedirectURI != "" {
		return c.Spotify.RedirectURI
	}
	return fmt.Sprintf("http://%s/callback", c.Server.Addr())
}

// DecodeEncryptionKey decodes the base64 store encryption key. A nil key means payloads are stored unsealed.
func (s StoreConfig) DecodeEncryptionKey() ([]byte, error) {
	if s.EncryptionKey == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(s.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("%w: encryption_key is not base64: %v", ErrInvalidConfig, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("%w: encryption_key must decode to 32 bytes, got %d", ErrInvalidConfig, len(key))
	}
	return key, nil
}

// Validate checks that the configuration can drive the login backend.
func (c *Config) Validate() error {
	if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: spotify client_id and client_secret must be set", ErrMissingCredentials)
	}
	if len(c.Spotify.Scopes) == 0 {
		return fmt.Errorf("%w: at least one spotify scope is required", ErrInvalidConfig)
	}
	if ttl := c.Auth.StateTTL.Std(); ttl < MinStateTTL || ttl > MaxStateTTL {
		return fmt.Errorf("%w: state_ttl %v outside [%v, %v]", ErrInvalidConfig, ttl, MinStateTTL, MaxStateTTL)
	}
	if c.Auth.SessionTTL.Std() <= 0 {
		return fmt.Errorf("%w: session_ttl must be positive", ErrInvalidConfig)
	}
	switch c.Store.Backend {
	case StoreMemory:
	case StoreSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("%w: store path is required for the sqlite backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, c.Store.Backend)
	}
	if _, err := c.Store.DecodeEncryptionKey(); err != nil {
		return err
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults; environment variables win over both.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := ApplyEnv(config); err != nil {
		return nil, err
	}

	return config, nil
}

// ApplyEnv overlays environment variables (SPOTIFY_CLIENT_ID, STARIFY_CACHE, ...) onto config.
func ApplyEnv(config *Config) error {
	if err := env.Parse(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig writes config to path as TOML, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
