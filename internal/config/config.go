package config

import (
	"fmt"
	"time"

	"github.com/devilmonastery/procorepress/internal/procore"
	"github.com/devilmonastery/procorepress/internal/settings"
)

// Config represents the application configuration
type Config struct {
	Procore  ProcoreConfig  `yaml:"procore"`
	Settings SettingsConfig `yaml:"settings"`
	Server   ServerConfig   `yaml:"server"`
	Render   RenderConfig   `yaml:"render"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ProcoreConfig holds Procore application credentials.
// Non-empty values here override what is in the settings store.
type ProcoreConfig struct {
	ClientID         string `yaml:"client_id"`
	ClientSecret     string `yaml:"client_secret"`
	APIURL           string `yaml:"api_url"` // default https://api.procore.com
	DefaultCompanyID string `yaml:"default_company_id"`
}

// SettingsConfig selects where settings and token state are persisted
type SettingsConfig struct {
	Backend        string `yaml:"backend" default:"file"` // file, sqlite, postgres, keyring
	Path           string `yaml:"path"`                   // file and sqlite backends
	DSN            string `yaml:"dsn"`                    // postgres backend
	KeyringService string `yaml:"keyring_service" default:"procorepress"`
	Profile        string `yaml:"profile" default:"default"`
	EncryptionKey  string `yaml:"encryption_key"` // optional, 32 bytes base64
}

// ServerConfig holds web host configuration
type ServerConfig struct {
	Host   string `yaml:"host" default:"localhost"`
	Port   int    `yaml:"port" default:"8080"`
	NodeID int64  `yaml:"node_id" default:"1"` // snowflake node for request IDs

	// AdminSecret signs admin bearer tokens. Admin routes are disabled when empty.
	AdminSecret   string        `yaml:"admin_secret"`
	AdminTokenTTL time.Duration `yaml:"admin_token_ttl" default:"1h"`
}

// RenderConfig holds shortcode rendering options
type RenderConfig struct {
	MarkdownDescriptions bool   `yaml:"markdown_descriptions"`
	AssetsRoot           string `yaml:"assets_root" default:"."`
}

// LoggingConfig holds logger configuration for the web host
type LoggingConfig struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"text"`
	File   string `yaml:"file"`
}

// Credentials returns the configured credential overrides
func (p ProcoreConfig) Credentials() procore.Credentials {
	return procore.Credentials{
		ClientID:         p.ClientID,
		ClientSecret:     p.ClientSecret,
		APIBaseURL:       p.APIURL,
		DefaultCompanyID: p.DefaultCompanyID,
	}
}

// StoreOptions converts the settings section into settings.Options
func (s SettingsConfig) StoreOptions() settings.Options {
	return settings.Options{
		Backend:       s.Backend,
		Path:          s.Path,
		DSN:           s.DSN,
		Service:       s.KeyringService,
		Profile:       s.Profile,
		EncryptionKey: s.EncryptionKey,
	}
}

// Address returns host:port for the web listener
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
