package main

import (
	"context"
	"time"

	"spyglass/internal/config"
	"spyglass/internal/insights"
	"spyglass/internal/mcpbridge"
	"spyglass/internal/transcribe"
	"spyglass/pkg/auth"
	muxclient "spyglass/pkg/clients/muxdata"
	pkgconfig "spyglass/pkg/config"
	"spyglass/pkg/logging"
	"spyglass/pkg/monitoring"
	"spyglass/pkg/server"
	"spyglass/pkg/version"
)

func main() {
	// Setup logger
	logger := logging.NewLoggerWithService("spyglass")

	// Load environment variables
	pkgconfig.LoadEnv(logger)

	logger.Info("Starting Spyglass (Streaming Analytics Agent API)")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid analytics credentials")
	}

	// Setup monitoring
	healthChecker := monitoring.NewHealthChecker("spyglass", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("spyglass", version.Version, version.GitCommit)

	// Add health checks
	healthChecker.AddCheck("analytics_backend", monitoring.HTTPServiceHealthCheck("mux-data", cfg.MuxBaseURL))
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"MUX_TOKEN_ID":     cfg.MuxTokenID,
		"MUX_TOKEN_SECRET": cfg.MuxTokenSecret,
	}))

	// Direct REST client for the analytics backend.
	restClient := muxclient.NewClient(muxclient.Config{
		BaseURL:     cfg.MuxBaseURL,
		TokenID:     cfg.MuxTokenID,
		TokenSecret: cfg.MuxTokenSecret,
		Timeout:     cfg.MuxTimeout,
		Logger:      logger,
	})

	// The mirror is optional: when configured and reachable it becomes
	// the preferred source, with REST as the one-shot fallback. A mirror
	// connection failure never blocks startup.
	sources := []insights.MetricsSource{}
	if cfg.MCPMirrorURL != "" {
		connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		mirror, err := mcpbridge.New(connectCtx, mcpbridge.Config{
			MirrorURL:    cfg.MCPMirrorURL,
			ServiceToken: cfg.ServiceToken,
			Logger:       logger,
		})
		cancel()
		if err != nil {
			logger.WithError(err).Warn("Failed to connect to MCP mirror - using REST only")
		} else {
			defer func() { _ = mirror.Close() }()
			logger.WithField("url", cfg.MCPMirrorURL).Info("Connected to MCP mirror")
			sources = append(sources, &insights.MirrorSource{Mirror: mirror})
		}
	}
	sources = append(sources, &insights.RESTSource{Client: restClient})

	chain := insights.NewChain(logger, sources...)
	service := insights.NewService(chain, logger)

	// Setup router with unified monitoring (health/metrics only)
	router := server.SetupServiceRouter(logger, "spyglass", healthChecker, metricsCollector)
	apiGroup := router.Group("/api/spyglass")
	switch {
	case cfg.ServiceToken != "" && cfg.JWTSecret != "":
		apiGroup.Use(auth.SessionAuthMiddleware(cfg.ServiceToken, []byte(cfg.JWTSecret)))
	case cfg.ServiceToken != "":
		apiGroup.Use(auth.ServiceAuthMiddleware(cfg.ServiceToken))
	case cfg.JWTSecret != "":
		apiGroup.Use(auth.JWTAuthMiddleware([]byte(cfg.JWTSecret)))
	default:
		logger.Warn("SERVICE_TOKEN and JWT_SECRET not set - API group is unauthenticated")
	}
	insights.RegisterRoutes(apiGroup, insights.NewHandler(service, logger))
	transcribe.RegisterRoutes(apiGroup, transcribe.NewHandler(cfg.STTBaseURL, logger))

	// Start HTTP server with graceful shutdown
	serverConfig := server.DefaultConfig("spyglass", cfg.Port)
	if err := server.Start(serverConfig, router, logger); err != nil {
		logger.WithError(err).Fatal("Server startup failed")
	}
}
