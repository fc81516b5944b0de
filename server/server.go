package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coinpulse/cache"
	"coinpulse/config"
	"coinpulse/core/market"
	"coinpulse/db"
	"coinpulse/logger"
	"coinpulse/model"
	"coinpulse/repository"
	"coinpulse/storage"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(os.Getenv("LOG_LEVEL")),
		OutputPath: os.Getenv("LOG_FILE"),
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	// Connect to the database
	if err := db.ConnectDB(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.DB.Close()

	if err := db.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if err := db.ConnectGormDB(cfg); err != nil {
		log.Fatalf("Failed to connect to database with GORM: %v", err)
	}
	defer db.CloseGormDB()

	if err := db.AutoMigrateModels(&model.Preference{}, &model.Vote{}); err != nil {
		log.Fatalf("Failed to migrate models: %v", err)
	}

	// The market caches default to process memory; Redis keeps them warm
	// across restarts when enabled.
	var cacheStore cache.Store = cache.NewMemoryStore()
	if cfg.RedisEnabled {
		if err := db.ConnectRedis(cfg); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer db.CloseRedis()
		cacheStore = cache.NewRedisStore(db.RedisClient, "market")
		log.Println("Successfully connected to Redis, using Redis-backed market cache")
	}

	if cfg.MinioEnabled {
		if err := storage.InitMinio(cfg); err != nil {
			log.Fatalf("Failed to initialize MinIO: %v", err)
		}
	}

	userRepo := repository.NewMySQLUserRepository(db.DB)
	prefRepo := repository.NewGormPreferenceRepository(db.GormDB)
	voteRepo := repository.NewGormVoteRepository(db.GormDB)

	priceService := market.NewPriceService(cacheStore, cfg.PricesTTL, cfg.UpstreamTimeout)
	newsService := market.NewNewsService(cacheStore, cfg.CryptoPanicKey, cfg.NewsTTL, cfg.UpstreamTimeout)
	insightService := market.NewInsightService(cfg.HFToken, cfg.HFBaseURL, cfg.HFModel, cfg.UpstreamTimeout)

	memeService := market.NewMemeService(cfg.MemesFile)
	if err := memeService.Watch(); err != nil {
		logger.Warn("meme file watcher unavailable", logger.ErrorField(err))
	}
	defer memeService.Close()

	apiHandler := NewAPIHandler(userRepo, prefRepo, voteRepo,
		priceService, newsService, insightService, memeService, cfg)

	router := mux.NewRouter()
	router.Use(corsMiddleware)
	router.Use(requestLogMiddleware)

	// Auth endpoints
	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/me", apiHandler.AuthMiddleware(apiHandler.MeHandler)).Methods(http.MethodGet)

	// Preference endpoints
	router.HandleFunc("/api/preferences", apiHandler.AuthMiddleware(apiHandler.SavePreferencesHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/preferences", apiHandler.AuthMiddleware(apiHandler.GetPreferencesHandler)).Methods(http.MethodGet)

	// Vote endpoints
	router.HandleFunc("/api/vote", apiHandler.AuthMiddleware(apiHandler.VoteHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/votes", apiHandler.AuthMiddleware(apiHandler.GetVotesHandler)).Methods(http.MethodGet)

	// Dashboard widget endpoints
	router.HandleFunc("/api/prices", apiHandler.PricesHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/news", apiHandler.AuthMiddleware(apiHandler.NewsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/ai-insight", apiHandler.AuthMiddleware(apiHandler.InsightHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/meme", apiHandler.AuthMiddleware(apiHandler.MemeHandler)).Methods(http.MethodGet)

	router.HandleFunc("/api/health", apiHandler.HealthHandler).Methods(http.MethodGet)

	if cfg.MinioEnabled {
		router.PathPrefix("/media/").Handler(NewMediaHandler(cfg))
	}

	// Everything else falls through to the SPA shell.
	router.PathPrefix("/").Handler(NewSPAHandler(cfg))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server listening", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", logger.ErrorField(err))
	}
	logger.Info("server stopped")
}

// corsMiddleware opens the API to browser clients; the SPA may be served
// from a different origin during development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requestLogMiddleware tags every request with an id and logs its outcome.
func requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		start := time.Now()
		next.ServeHTTP(w, r)

		logger.Debug("request handled",
			logger.String("requestId", requestID),
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Duration("elapsed", time.Since(start)),
		)
	})
}
