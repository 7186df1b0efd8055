package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"uni-wizard/internal/config"
	apihttp "uni-wizard/internal/http"
	"uni-wizard/internal/scoring"
	"uni-wizard/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	catalogCache := scoring.NewMemoryCatalogCache()
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory catalog cache", zap.Error(err))
		} else {
			catalogCache = scoring.NewRedisCatalogCache(redisClient)
		}
		cancel()
	}

	httpScorer := scoring.NewHTTPClient(cfg.ScoringBaseURL, cfg.ScoringTimeout(), logger)
	scorer := scoring.NewCachedClient(scoring.NewInstrumentedClient(httpScorer), catalogCache, cfg.CatalogCacheTTL(), logger)

	policy, err := service.LoadAdvisoryPolicy(cfg.AdvisoryPolicyFile)
	if err != nil {
		logger.Warn("advisory policy load failed, using defaults", zap.Error(err))
	}
	advisor := service.NewAdvisor(policy)
	if cfg.AdvisoryPolicyFile != "" {
		watcher := service.NewPolicyWatcher(cfg.AdvisoryPolicyFile, advisor, logger)
		go func() {
			if err := watcher.Run(ctx); err != nil {
				logger.Warn("advisory policy watcher stopped", zap.Error(err))
			}
		}()
	}

	opts := service.WizardOptions{
		DefaultCountry: cfg.DefaultCountry,
		ReplyDelay:     cfg.BotReplyDelay(),
	}
	registry := service.NewSessionRegistry(func() *service.WizardSession {
		return service.NewWizardSession(scorer, advisor, opts, logger)
	}, cfg.SessionIdleTTL(), logger)
	go registry.RunJanitor(ctx, time.Minute)

	wizardHandler := apihttp.NewWizardHandler(logger, registry)
	router := apihttp.NewRouter(logger, wizardHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server",
		zap.String("port", cfg.HTTPPort),
		zap.String("scoring_base_url", cfg.ScoringBaseURL),
	)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
	registry.CloseAll()
}
