// Package gateway provides an embeddable build-inspection gateway for Azure
// DevOps pipelines.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/buildpeek/buildpeek/internal/api"
	"github.com/buildpeek/buildpeek/internal/artifact"
	"github.com/buildpeek/buildpeek/internal/config"
	"github.com/buildpeek/buildpeek/internal/provider/azdevops"
	"github.com/buildpeek/buildpeek/internal/service"
	"github.com/buildpeek/buildpeek/pkg/logger"
)

// Gateway bundles the configured build's inspection surface behind an HTTP
// server that can be embedded in applications
type Gateway struct {
	config  *Config
	service *service.Service
	router  http.Handler
	server  *http.Server
	logger  *logger.Logger
}

// Config holds the configuration for the Gateway
type Config struct {
	// Server configuration
	Server ServerConfig

	// Authentication configuration
	Auth AuthConfig

	// Azure DevOps connection parameters
	Azure AzureConfig

	// Artifacts controls JSON snapshot persistence
	Artifacts ArtifactsConfig

	// Logger configuration
	Logging LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	// APIKeys is a list of API keys for authentication
	APIKeys []APIKey
}

// APIKey represents an API key for authentication
type APIKey struct {
	Name string
	Key  string
}

// AzureConfig holds the Azure DevOps connection parameters. They stay fixed
// for the gateway's lifetime. A zero RequestTimeout leaves outbound SDK calls
// without a deadline of their own.
type AzureConfig struct {
	OrganizationURL string
	Project         string
	BuildID         int
	Token           string
	RequestTimeout  time.Duration
}

// ArtifactsConfig controls JSON snapshot persistence
type ArtifactsConfig struct {
	Enabled bool
	Dir     string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json or text
}

// New creates a new Gateway instance with the provided configuration. It
// dials the organization and resolves the configured build up front.
func New(ctx context.Context, cfg *Config) (*Gateway, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	// Initialize logger
	appLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	// Initialize the Azure DevOps facade
	providerCfg := &azdevops.Config{
		OrganizationURL: cfg.Azure.OrganizationURL,
		Project:         cfg.Azure.Project,
		BuildID:         cfg.Azure.BuildID,
		Token:           cfg.Azure.Token,
		RequestTimeout:  cfg.Azure.RequestTimeout,
	}
	adapter, err := azdevops.NewAdapter(ctx, providerCfg, appLogger)
	if err != nil {
		return nil, fmt.Errorf("initialize azure devops provider: %w", err)
	}
	appLogger.Info("initialized azure devops provider",
		"organization", cfg.Azure.OrganizationURL,
		"project", cfg.Azure.Project,
		"build_id", cfg.Azure.BuildID)

	// Initialize snapshot persistence when enabled
	var snapshots *artifact.Writer
	if cfg.Artifacts.Enabled {
		snapshots, err = artifact.NewWriter(cfg.Artifacts.Dir)
		if err != nil {
			return nil, fmt.Errorf("initialize artifact writer: %w", err)
		}
		appLogger.Info("snapshot persistence enabled", "dir", snapshots.Dir())
	}

	// Initialize service layer
	svc := service.NewService(adapter, snapshots, appLogger)

	// Initialize API layer
	handlers := api.NewHandlers(svc)

	configAPIKeys := make([]config.APIKey, len(cfg.Auth.APIKeys))
	for i, key := range cfg.Auth.APIKeys {
		configAPIKeys[i] = config.APIKey{
			Name: key.Name,
			Key:  key.Key,
		}
	}
	authMiddleware := api.NewAuthMiddleware(configAPIKeys)
	loggingMiddleware := api.NewLoggingMiddleware(appLogger)
	router := api.NewRouter(handlers, authMiddleware, loggingMiddleware)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Gateway{
		config:  cfg,
		service: svc,
		router:  router,
		server:  srv,
		logger:  appLogger,
	}, nil
}

// Start starts the HTTP server
// This is a blocking call that will run until the context is canceled or an error occurs
func (g *Gateway) Start(ctx context.Context) error {
	serverErrors := make(chan error, 1)

	// Start server in goroutine
	go func() {
		g.logger.Info("starting http server", "port", g.config.Server.Port)
		serverErrors <- g.server.ListenAndServe()
	}()

	// Wait for context cancellation or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		g.logger.Info("shutdown signal received")

		// Graceful shutdown with 30s timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := g.server.Shutdown(shutdownCtx); err != nil {
			g.server.Close()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}

		g.logger.Info("server stopped gracefully")
		return nil
	}
}

// Handler returns the http.Handler for the gateway
// Use this if you want to integrate the gateway into an existing HTTP server
func (g *Gateway) Handler() http.Handler {
	return g.router
}

// Service returns the underlying service layer
// Use this for direct programmatic access to gateway functionality
func (g *Gateway) Service() *service.Service {
	return g.service
}

// NewFromConfigFile creates a Gateway instance from a YAML configuration file.
// Environment variables referenced in the file are expanded; the token and
// build id fall back to AZURE_PIPELINES_TOKEN and BUILD_BUILDID.
func NewFromConfigFile(ctx context.Context, path string) (*Gateway, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	gwAPIKeys := make([]APIKey, len(cfg.Auth.APIKeys))
	for i, key := range cfg.Auth.APIKeys {
		gwAPIKeys[i] = APIKey{
			Name: key.Name,
			Key:  key.Key,
		}
	}

	gwConfig := &Config{
		Server: ServerConfig{
			Port:         cfg.Server.Port,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		Auth: AuthConfig{
			APIKeys: gwAPIKeys,
		},
		Azure: AzureConfig{
			OrganizationURL: cfg.Azure.OrganizationURL,
			Project:         cfg.Azure.Project,
			BuildID:         cfg.Azure.BuildID,
			Token:           cfg.Azure.Token,
			RequestTimeout:  cfg.Azure.RequestTimeout,
		},
		Artifacts: ArtifactsConfig{
			Enabled: cfg.Artifacts.Enabled,
			Dir:     cfg.Artifacts.Dir,
		},
		Logging: LoggingConfig{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
		},
	}

	return New(ctx, gwConfig)
}
