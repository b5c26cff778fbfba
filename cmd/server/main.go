package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/mohamedkhairy/stock-advisor/internal/analyzer"
	"github.com/mohamedkhairy/stock-advisor/internal/api"
	"github.com/mohamedkhairy/stock-advisor/internal/config"
	"github.com/mohamedkhairy/stock-advisor/internal/quote"
	"github.com/mohamedkhairy/stock-advisor/internal/scheduler"
	"github.com/mohamedkhairy/stock-advisor/internal/screener"
	"github.com/mohamedkhairy/stock-advisor/internal/store"
	"github.com/mohamedkhairy/stock-advisor/internal/watchlist"
	"github.com/mohamedkhairy/stock-advisor/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.LogLevel, cfg.Environment); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting stock advisor service",
		logger.Int("port", cfg.Server.Port),
		logger.String("storage", cfg.Storage.Backend),
		logger.String("quote_provider", cfg.Quote.Provider),
	)

	// Initialize storage backend
	recommendStore, recordStore, watchStore, cleanup, err := buildStores(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize storage", logger.ErrorField(err))
	}
	defer cleanup()

	// Initialize quote provider: the configured source with a synthetic
	// fallback, behind a short-TTL cache
	provider := buildProvider(cfg)

	// Initialize analysis engine with the built-in rule set
	registry := analyzer.NewRegistry()
	if err := analyzer.RegisterDefaults(registry); err != nil {
		logger.Fatal("Failed to register rules", logger.ErrorField(err))
	}
	registry.Freeze()

	ladder := analyzer.Ladder{
		StrongBuy: cfg.Analyzer.StrongBuyThreshold,
		Buy:       cfg.Analyzer.BuyThreshold,
		Hold:      cfg.Analyzer.HoldThreshold,
		Reduce:    cfg.Analyzer.ReduceThreshold,
	}
	engine, err := analyzer.NewEngine(registry, provider, ladder)
	if err != nil {
		logger.Fatal("Failed to initialize analyzer", logger.ErrorField(err))
	}

	// Initialize scheduler and screener
	sched := scheduler.New(engine,
		scheduler.WithRecommendationStore(recommendStore),
		scheduler.WithHistoryLimit(cfg.Scheduler.HistoryLimit),
	)
	screen := screener.New(screener.DefaultCatalog())
	watchManager := watchlist.NewManager(watchStore)

	// Initialize handlers
	screenHandler := api.NewScreenHandler(screen, recommendStore, recordStore)
	analyzeHandler := api.NewAnalyzeHandler(engine)
	taskHandler := api.NewTaskHandler(sched, cfg.Scheduler.MaxBatchSize)
	watchlistHandler := api.NewWatchlistHandler(watchManager, sched)

	// Set up router
	router := mux.NewRouter()

	// API v1 routes
	v1 := router.PathPrefix("/api/v1").Subrouter()

	// Screening endpoints
	v1.HandleFunc("/screen", screenHandler.Screen).Methods("POST")
	v1.HandleFunc("/screen/presets", screenHandler.ListPresets).Methods("GET")
	v1.HandleFunc("/screen/records", screenHandler.ListRecords).Methods("GET")
	v1.HandleFunc("/screen/records/{id}", screenHandler.GetRecord).Methods("GET")
	v1.HandleFunc("/screen/records/{id}", screenHandler.DeleteRecord).Methods("DELETE")

	// Analysis endpoints
	v1.HandleFunc("/analyze", analyzeHandler.Analyze).Methods("POST")
	v1.HandleFunc("/rules", analyzeHandler.ListRules).Methods("GET")

	// Task endpoints
	v1.HandleFunc("/tasks", taskHandler.CreateTask).Methods("POST")
	v1.HandleFunc("/tasks", taskHandler.ListTasks).Methods("GET")
	v1.HandleFunc("/tasks/{id}", taskHandler.GetTask).Methods("GET")
	v1.HandleFunc("/tasks/{id}", taskHandler.CancelTask).Methods("DELETE")
	v1.HandleFunc("/tasks/{id}/stream", taskHandler.StreamTask).Methods("GET")

	// Watchlist endpoints
	v1.HandleFunc("/watchlist/groups", watchlistHandler.CreateGroup).Methods("POST")
	v1.HandleFunc("/watchlist/groups", watchlistHandler.ListGroups).Methods("GET")
	v1.HandleFunc("/watchlist/groups/{id}", watchlistHandler.GetGroup).Methods("GET")
	v1.HandleFunc("/watchlist/groups/{id}", watchlistHandler.DeleteGroup).Methods("DELETE")
	v1.HandleFunc("/watchlist/groups/{id}/stocks", watchlistHandler.AddStock).Methods("POST")
	v1.HandleFunc("/watchlist/groups/{id}/stocks/{symbol}", watchlistHandler.RemoveStock).Methods("DELETE")
	v1.HandleFunc("/watchlist/groups/{id}/analyze", watchlistHandler.AnalyzeGroup).Methods("POST")

	// Health check endpoints
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	router.HandleFunc("/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
	})

	// Metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// Apply middleware
	middlewares := api.ChainMiddleware(
		api.CORSMiddleware(),
		api.LoggingMiddleware(),
		api.ErrorHandlingMiddleware(),
		api.AuthMiddleware(api.NewAuthManager(cfg.Server.JWTSecret)),
		api.RateLimitMiddleware(cfg.Server.RateLimitRPS),
	)

	handler := middlewares(router)

	// Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Starting HTTP server",
			logger.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server",
				logger.ErrorField(err),
			)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	logger.Info("Shutting down stock advisor service")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Scheduler.ShutdownGrace)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Error shutting down HTTP server",
			logger.ErrorField(err),
		)
	}
	if err := sched.Shutdown(ctx); err != nil {
		logger.Error("Error shutting down scheduler",
			logger.ErrorField(err),
		)
	}

	logger.Info("Stock advisor service stopped")
}

// buildStores wires the persistence backend selected by configuration.
// Watchlists always live in memory: they are a session-level convenience.
func buildStores(cfg *config.Config) (store.RecommendationStore, store.ScreenRecordStore, store.WatchlistStore, func(), error) {
	watchStore := store.NewMemoryWatchlistStore()

	switch cfg.Storage.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		cleanup := func() { client.Close() }
		return store.NewRedisRecommendationStore(client), store.NewRedisScreenStore(client), watchStore, cleanup, nil

	case "postgres":
		pg, err := store.NewPostgresStore(cfg.Database.DSN())
		if err != nil {
			return nil, nil, nil, nil, err
		}
		cleanup := func() { pg.Close() }
		return pg, pg.ScreenStore(), watchStore, cleanup, nil

	default:
		return store.NewMemoryRecommendationStore(), store.NewMemoryScreenStore(), watchStore, func() {}, nil
	}
}

// buildProvider wires the market-data path: configured primary with a
// synthetic fallback, fronted by a short-TTL cache.
func buildProvider(cfg *config.Config) quote.Provider {
	synthetic := quote.NewSyntheticProvider()

	var primary quote.Provider
	switch cfg.Quote.Provider {
	case "synthetic", "":
		primary = synthetic
	default:
		// Real feeds plug in here behind the Provider interface, wrapped as
		// quote.NewFallbackProvider(feed, synthetic). Until one is
		// configured, unknown names degrade to synthetic data.
		logger.Warn("Unknown quote provider, using synthetic",
			logger.String("provider", cfg.Quote.Provider),
		)
		primary = synthetic
	}
	return quote.NewCachingProvider(primary, cfg.Quote.CacheTTL)
}
