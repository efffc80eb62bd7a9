package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/devilmonastery/procorepress/internal/config"
	"github.com/devilmonastery/procorepress/internal/pkg/logger"
	"github.com/devilmonastery/procorepress/internal/procore"
	"github.com/devilmonastery/procorepress/internal/settings"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const cliContextKey contextKey = "cliContext"

// CliContext holds shared CLI context
type CliContext struct {
	Contexts  *Config
	AppConfig *config.Config
	Store     settings.Store
	Settings  *settings.Manager
	Tokens    *procore.TokenManager
	Client    *procore.Client
	Logger    *slog.Logger
}

// Global flags
var (
	logLevel      string
	logFile       string
	logToStderr   bool
	alsoLogStderr bool
	logFormat     string
	configFile    string
	contextName   string
)

// commands that run without a settings store or API client
var offlineCommands = map[string]bool{
	"config":     true,
	"init":       true,
	"help":       true,
	"completion": true,
	"version":    true,
}

// NewRootCommand creates the root cobra command
func NewRootCommand() *cobra.Command {
	var ctx CliContext

	rootCmd := &cobra.Command{
		Use:           "procorepress",
		Short:         "Procore project data for your site",
		Long:          `Render Procore project information as HTML shortcodes and inspect projects from the command line.`,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors (main.go handles it)
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := setupLogging(); err != nil {
				return fmt.Errorf("failed to setup logging: %w", err)
			}

			ctx.Logger = logger.WithCommand(slog.Default().With("component", "cli"), cmd.CommandPath())
			ctx.Logger.Debug("CLI started")

			contexts, err := LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load CLI config: %w", err)
			}
			if contextName != "" {
				if err := contexts.SetCurrentContext(contextName); err != nil {
					return err
				}
			}
			ctx.Contexts = contexts
			cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey, &ctx))

			if isOffline(cmd) {
				return nil
			}
			return ctx.connect(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if ctx.Store != nil {
				return ctx.Store.Close()
			}
			return nil
		},
	}

	rootCmd.AddCommand(newAuthCommand())
	rootCmd.AddCommand(newProjectCommand())
	rootCmd.AddCommand(newRenderCommand())
	rootCmd.AddCommand(newExpandCommand())
	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newConfigCommand())

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"Application config file (overrides the current context)")
	rootCmd.PersistentFlags().StringVar(&contextName, "context", "",
		"CLI context to use for this command")

	// Add logging flags
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn",
		"Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"Log file path (if specified, logs to file instead of stderr)")
	rootCmd.PersistentFlags().BoolVar(&logToStderr, "logtostderr", false,
		"Log to stderr (default behavior unless --log-file specified)")
	rootCmd.PersistentFlags().BoolVar(&alsoLogStderr, "alsologtostderr", false,
		"Log to both file and stderr")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"Log format (text, json)")

	return rootCmd
}

// isOffline reports whether cmd or any of its parents is an offline command
func isOffline(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if offlineCommands[c.Name()] {
			return true
		}
	}
	return false
}

// connect loads the app config and settings and builds the token manager and API client
func (c *CliContext) connect(ctx context.Context) error {
	path := configFile
	if path == "" {
		if cur, err := c.Contexts.GetCurrentContext(); err == nil {
			path = cur.Config
		}
	}

	appConfig, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	c.AppConfig = appConfig

	store, err := settings.Open(appConfig.Settings.StoreOptions())
	if err != nil {
		return fmt.Errorf("failed to open settings store: %w", err)
	}
	c.Store = store

	manager, err := settings.NewManager(ctx, store, appConfig.Procore.Credentials())
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	c.Settings = manager

	httpClient := &http.Client{
		Timeout:   30 * time.Second,
		Transport: newDebugTransport(http.DefaultTransport, c.Logger),
	}

	c.Tokens = manager.TokenManager(
		procore.WithTokenHTTPClient(httpClient),
		procore.WithTokenLogger(c.Logger),
	)
	c.Client = procore.NewClient(manager.Credentials(), c.Tokens,
		procore.WithHTTPClient(httpClient),
		procore.WithLogger(c.Logger),
	)
	return nil
}

// setupLogging configures the global logger based on CLI flags
func setupLogging() error {
	// Default to stderr logging unless file is specified
	if logFile == "" {
		logToStderr = true
	}

	cfg := logger.Config{
		Level:         logger.ParseLevel(logLevel),
		LogFile:       logFile,
		LogToStderr:   logToStderr,
		AlsoLogStderr: alsoLogStderr,
		Format:        logFormat,
	}

	globalLogger, err := logger.SetupLogger(cfg)
	if err != nil {
		return err
	}

	slog.SetDefault(globalLogger)
	return nil
}

// getCliContext extracts the CLI context from the command context
func getCliContext(cmd *cobra.Command) *CliContext {
	return cmd.Context().Value(cliContextKey).(*CliContext)
}
