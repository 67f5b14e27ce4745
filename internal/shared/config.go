package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/language"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override secrets from the config file.
const (
	EnvTMDBToken   = "CINEFEED_TMDB_TOKEN"
	EnvYouTubeKey  = "CINEFEED_YOUTUBE_KEY"
	EnvFirebaseKey = "CINEFEED_FIREBASE_KEY"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Catalog     CatalogConfig     `toml:"catalog"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	TMDB     TMDBConfig     `toml:"tmdb"`
	YouTube  YouTubeConfig  `toml:"youtube"`
	Firebase FirebaseConfig `toml:"firebase"`
	Google   GoogleConfig   `toml:"google"`
}

// TMDBConfig contains movies metadata API settings.
type TMDBConfig struct {
	BearerToken  string `toml:"bearer_token"`
	BaseURL      string `toml:"base_url"`
	ImageBaseURL string `toml:"image_base_url"`
	Language     string `toml:"language"`
}

// YouTubeConfig contains YouTube Data API settings used for the trailer fallback search.
type YouTubeConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// FirebaseConfig contains identity provider settings.
type FirebaseConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// GoogleConfig contains the OAuth client used for federated sign-in.
type GoogleConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// Map returns the OAuth client credentials as a map, matching the services constructors.
func (g GoogleConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     g.ClientID,
		"client_secret": g.ClientSecret,
		"redirect_uri":  g.RedirectURI,
	}
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the local OAuth callback server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// CatalogConfig contains feed behaviour settings.
type CatalogConfig struct {
	DefaultFilter     string  `toml:"default_filter"`
	ScrollThreshold   int     `toml:"scroll_threshold"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Environment overrides are applied after parsing.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.ApplyEnv()
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// SaveConfig writes the configuration to path as TOML.
func SaveConfig(path string, config *Config) error {
	if config == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides API secrets with their environment variables when set.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvTMDBToken); v != "" {
		c.Credentials.TMDB.BearerToken = v
	}
	if v := os.Getenv(EnvYouTubeKey); v != "" {
		c.Credentials.YouTube.APIKey = v
	}
	if v := os.Getenv(EnvFirebaseKey); v != "" {
		c.Credentials.Firebase.APIKey = v
	}
}

// Validate reports configuration values that would make every request fail.
func (c *Config) Validate() error {
	if _, err := language.Parse(c.Credentials.TMDB.Language); err != nil {
		return fmt.Errorf("%w: tmdb language %q: %v", ErrInvalidConfig, c.Credentials.TMDB.Language, err)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d", ErrInvalidConfig, c.Server.Port)
	}
	if c.Catalog.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: negative requests_per_second", ErrInvalidConfig)
	}
	if c.Catalog.ScrollThreshold < 0 {
		return fmt.Errorf("%w: negative scroll_threshold", ErrInvalidConfig)
	}
	return nil
}

// LanguageTag returns the canonical BCP 47 form of the configured metadata language.
func (c *Config) LanguageTag() string {
	tag, err := language.Parse(c.Credentials.TMDB.Language)
	if err != nil {
		return "es-ES"
	}
	return tag.String()
}
