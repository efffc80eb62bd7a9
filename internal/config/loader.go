package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/devilmonastery/procorepress/internal/settings"
)

// expandEnvVars expands environment variables in the format ${VAR} or $VAR
func expandEnvVars(data []byte) []byte {
	return []byte(os.ExpandEnv(string(data)))
}

// DefaultConfigPaths defines the default locations to search for configuration files
var DefaultConfigPaths = []string{
	"./procorepress.yaml",
	"./procorepress.yml",
	"./config.yaml",
	"./config.yml",
	"./configs/config.yaml",
	"/etc/procorepress/config.yaml",
	"/etc/procorepress/config.yml",
}

// Environment variables that override the procore section
const (
	EnvClientID     = "PROCORE_CLIENT_ID"
	EnvClientSecret = "PROCORE_CLIENT_SECRET"
	EnvAPIURL       = "PROCORE_API_URL"
	EnvCompanyID    = "PROCORE_COMPANY_ID"
	EnvAdminSecret  = "PROCOREPRESS_ADMIN_SECRET"
)

// Default returns a configuration populated with defaults only
func Default() *Config {
	return &Config{
		Settings: SettingsConfig{
			Backend:        settings.BackendFile,
			KeyringService: settings.DefaultKeyringService,
			Profile:        "default",
		},
		Server: ServerConfig{
			Host:   "localhost",
			Port:   8080,
			NodeID:        1,
			AdminTokenTTL: time.Hour,
		},
		Render: RenderConfig{
			AssetsRoot: ".",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads the configuration from the specified file or default locations
func Load(configPath string) (*Config, error) {
	config := Default()

	// If no config path is provided, search in default locations
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" && fileExists(configPath) {
		slog.Debug("loading config", slog.String("component", "config"), slog.String("path", configPath))
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		data = expandEnvVars(data)

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if configPath != "" {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	} else {
		slog.Debug("no config file found, using defaults", slog.String("component", "config"))
	}

	applyEnvOverrides(config)

	if err := validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides lets PROCORE_* variables win over the file
func applyEnvOverrides(config *Config) {
	overrides := []struct {
		env    string
		target *string
	}{
		{EnvClientID, &config.Procore.ClientID},
		{EnvClientSecret, &config.Procore.ClientSecret},
		{EnvAPIURL, &config.Procore.APIURL},
		{EnvCompanyID, &config.Procore.DefaultCompanyID},
		{EnvAdminSecret, &config.Server.AdminSecret},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}
}

// findConfigFile searches for a configuration file in default locations
func findConfigFile() string {
	for _, path := range DefaultConfigPaths {
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// fileExists checks if a file exists and is not a directory
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// validate performs basic validation on the configuration
func validate(config *Config) error {
	switch config.Settings.Backend {
	case settings.BackendFile, settings.BackendKeyring:
	case settings.BackendSQLite:
		if config.Settings.Path == "" {
			return fmt.Errorf("settings.path is required for the sqlite backend")
		}
	case settings.BackendPostgres:
		if config.Settings.DSN == "" {
			return fmt.Errorf("settings.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("settings.backend must be one of file, sqlite, postgres, keyring; got %q", config.Settings.Backend)
	}

	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	// snowflake supports 10 bits of node id
	if config.Server.NodeID < 0 || config.Server.NodeID > 1023 {
		return fmt.Errorf("server.node_id must be between 0 and 1023")
	}

	if config.Server.AdminTokenTTL <= 0 {
		return fmt.Errorf("server.admin_token_ttl must be positive")
	}

	switch config.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json")
	}

	return nil
}
