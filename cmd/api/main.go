package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"ipscope/internal/api"
	"ipscope/internal/api/handlers"
	"ipscope/internal/config"
	"ipscope/internal/domain/services"
	"ipscope/internal/infrastructure/cache"
	"ipscope/internal/infrastructure/database"
	"ipscope/internal/infrastructure/database/repository"
	"ipscope/internal/providers"
	"ipscope/internal/providers/geo"
	"ipscope/internal/providers/proxy"
	"ipscope/internal/providers/reputation"
	"ipscope/internal/providers/whois"
	"ipscope/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var log *logger.Logger
	if cfg.App.Environment == "production" {
		log = logger.NewProduction()
	} else {
		log = logger.NewDevelopment()
	}
	logger.SetGlobal(log)

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Msg("starting IPScope")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize infrastructure
	db, redisCache := initInfrastructure(ctx, cfg, log)
	defer func() {
		if db != nil {
			db.Close()
		}
		if redisCache != nil {
			redisCache.Close()
		}
	}()

	// Initialize repository
	var repo *repository.AnalysisRepository
	if db != nil {
		repo = repository.NewAnalysisRepository(db.Pool())
		log.Info().Msg("analysis repository initialized with database")
	} else {
		log.Warn().Msg("running without database - history and stats unavailable")
	}

	// Register data providers
	registry := providers.NewRegistry(log)
	registerProviders(registry, log)
	registry.ConfigureFromProvidersConfig(cfg.Providers)
	log.Info().
		Int("total", registry.Count()).
		Int("enabled", registry.CountEnabled()).
		Msg("registered data providers")

	// Initialize services
	normalizer := services.NewNormalizer(log)
	classifier := services.NewClassifier(cfg.Scoring)
	mockGen := services.NewMockGenerator(classifier)

	var analysisCache services.AnalysisCache
	if redisCache != nil {
		analysisCache = redisCache
	} else {
		analysisCache = cache.NewMemory()
		log.Warn().Msg("running without Redis - using in-process analysis cache")
	}

	var store services.AnalysisStore
	if repo != nil {
		store = repo
	}
	analyzer := services.NewAnalyzer(registry, normalizer, classifier, mockGen, analysisCache, store, cfg.Cache.TTL, log)

	// Initialize handlers
	h := handlers.NewHandlers(handlers.Dependencies{
		Analyzer: analyzer,
		Repo:     repo,
		Cache:    redisCache,
		DB:       db,
		Logger:   log,
	})

	// Create router
	router := api.NewRouter(*cfg, h, redisCache, log)
	httpHandler := router.Setup()

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      httpHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("shutdown complete")
}

// initInfrastructure initializes database and cache connections. Both are
// optional: the analyzer degrades to mock-backed, cache-only operation.
func initInfrastructure(ctx context.Context, cfg *config.Config, log *logger.Logger) (*database.PostgresDB, *cache.RedisCache) {
	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		log.Warn().Err(err).Msg("failed to connect to PostgreSQL, continuing without database")
		db = nil
	} else if err := db.EnsureSchema(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to ensure schema, continuing without database")
		db.Close()
		db = nil
	}

	redisCache, err := cache.NewRedis(ctx, cfg.Redis, log)
	if err != nil {
		log.Warn().Err(err).Msg("failed to connect to Redis, continuing with in-process cache")
		redisCache = nil
	}

	return db, redisCache
}

// registerProviders registers all available data providers. Registration
// order is the merge precedence order.
func registerProviders(registry *providers.Registry, log *logger.Logger) {
	if err := registry.Register(geo.NewIPAPIProvider(log)); err != nil {
		log.Warn().Err(err).Msg("failed to register ip-api provider")
	}
	if err := registry.Register(geo.NewIPWhoisProvider(log)); err != nil {
		log.Warn().Err(err).Msg("failed to register ipwhois provider")
	}
	if err := registry.Register(reputation.NewAbuseIPDBProvider(log)); err != nil {
		log.Warn().Err(err).Msg("failed to register AbuseIPDB provider")
	}
	if err := registry.Register(proxy.NewVPNAPIProvider(log)); err != nil {
		log.Warn().Err(err).Msg("failed to register vpnapi provider")
	}
	if err := registry.Register(whois.NewRDAPProvider(log)); err != nil {
		log.Warn().Err(err).Msg("failed to register RDAP provider")
	}
}
