package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devilmonastery/procorepress/internal/auth"
	"github.com/devilmonastery/procorepress/internal/config"
	"github.com/devilmonastery/procorepress/internal/pkg/idgen"
	"github.com/devilmonastery/procorepress/internal/pkg/logger"
	"github.com/devilmonastery/procorepress/internal/procore"
	"github.com/devilmonastery/procorepress/internal/render"
	"github.com/devilmonastery/procorepress/internal/settings"
	"github.com/devilmonastery/procorepress/web/internal/handlers"
	"github.com/devilmonastery/procorepress/web/internal/middleware"
)

// setupWebLogging configures the global logger for the web service
func setupWebLogging(cfg config.LoggingConfig) error {
	logCfg := logger.Config{
		Level:       logger.ParseLevel(cfg.Level),
		LogFile:     cfg.File,
		LogToStderr: cfg.File == "",
		Format:      cfg.Format,
	}

	globalLogger, err := logger.SetupLogger(logCfg)
	if err != nil {
		return err
	}

	// Set as default logger so all slog.Info/Warn/Error calls use our configured logger
	slog.SetDefault(globalLogger)

	return nil
}

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Set up structured logging (must be done before any logging calls)
	if err = setupWebLogging(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to setup logging: %v\n", err)
		os.Exit(1)
	}

	log := slog.Default().With("component", "web")
	log.Info("starting procorepress web host")

	if err := idgen.Initialize(cfg.Server.NodeID); err != nil {
		log.Error("failed to initialize request IDs", slog.Any("error", err))
		os.Exit(1)
	}

	store, err := settings.Open(cfg.Settings.StoreOptions())
	if err != nil {
		log.Error("failed to open settings store", slog.Any("error", err))
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	manager, err := settings.NewManager(ctx, store, cfg.Procore.Credentials())
	if err != nil {
		log.Error("failed to load settings", slog.Any("error", err))
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	tokens := manager.TokenManager(
		procore.WithTokenHTTPClient(httpClient),
		procore.WithTokenLogger(log),
	)
	client := procore.NewClient(manager.Credentials(), tokens,
		procore.WithHTTPClient(httpClient),
		procore.WithLogger(log),
	)

	renderer, err := render.NewRenderer(client,
		render.WithMarkdownDescriptions(cfg.Render.MarkdownDescriptions),
		render.WithLogger(log),
	)
	if err != nil {
		log.Error("failed to load templates", slog.Any("error", err))
		os.Exit(1)
	}

	h := handlers.New(render.NewRegistry(renderer), tokens, cfg.Render.AssetsRoot, log)

	var jwtManager *auth.JWTManager
	if cfg.Server.AdminSecret != "" {
		if jwtManager, err = auth.NewJWTManager(cfg.Server.AdminSecret, cfg.Server.AdminTokenTTL); err != nil {
			log.Error("failed to initialize admin auth", slog.Any("error", err))
			os.Exit(1)
		}
	} else {
		log.Warn("server.admin_secret is not set, admin routes are disabled")
	}
	adminMw := middleware.NewAdminAuth(jwtManager, log)

	srv := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           createRouter(h, adminMw),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("listening", slog.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	case <-quit:
		log.Info("shutting down web host")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", slog.Any("error", err))
	}
}

// createRouter sets up the HTTP router with all routes and middleware
func createRouter(h *handlers.Handler, adminMw *middleware.AdminAuth) http.Handler {
	router := mux.NewRouter()
	router.Use(middleware.LogRequest)

	router.HandleFunc("/health", h.Health).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	router.HandleFunc("/shortcodes/{name}", h.Shortcode).Methods("GET")
	router.HandleFunc("/render", h.RenderContent).Methods("POST")

	// Admin routes (admin bearer token required)
	admin := router.PathPrefix("/admin").Subrouter()
	admin.Use(adminMw.RequireAdmin)
	admin.HandleFunc("/test-connection", h.TestConnection).Methods("POST")

	router.HandleFunc("/assets/css/procore-integration.css", h.Stylesheet).Methods("GET")

	return router
}
