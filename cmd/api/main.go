package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"tweet-manager/internal/adapters/repo"
	"tweet-manager/internal/adapters/twitterapi"
	"tweet-manager/internal/domain"
	"tweet-manager/internal/infra/cache"
	"tweet-manager/internal/infra/config"
	"tweet-manager/internal/infra/db"
	httpinfra "tweet-manager/internal/infra/http"
	applog "tweet-manager/internal/infra/log"
	"tweet-manager/internal/infra/metrics"
	"tweet-manager/internal/usecase/timeline"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoClient, err := db.Connect(cfg.MongoURI)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: нет подключения к MongoDB")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	var tlCache domain.Cache
	if cfg.RedisAddr != "" {
		tlCache = cache.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	}

	gateway := twitterapi.NewGateway(twitterapi.GatewayConfig{
		APIKey:        cfg.Twitter.APIKey,
		APIHost:       cfg.Twitter.APIHost,
		MinInterval:   cfg.Gateway.MinInterval,
		MaxRetries:    cfg.Gateway.MaxRetries,
		RetryDelay:    cfg.Gateway.RetryDelay,
		MemoTTL:       cfg.Gateway.MemoTTL,
		RateLimitHold: cfg.Gateway.RateLimitHold,
		QueueSize:     cfg.Gateway.QueueSize,
		Timeout:       cfg.Twitter.Timeout,
	}, logger.With().Str("component", "gateway").Logger())
	defer gateway.Close()

	apiClient := twitterapi.NewClient(gateway)
	timelineService := timeline.NewService(apiClient, tlCache, logger.With().Str("component", "timeline").Logger(), timeline.Limits{
		PageLimit:      cfg.Fetch.PageLimit,
		MaxPosts:       cfg.Fetch.MaxPosts,
		MaxPages:       cfg.Fetch.MaxPages,
		DetailBackfill: cfg.Fetch.DetailBackfill,
		PageDelay:      cfg.Fetch.PageDelay,
		CacheTTL:       cfg.Fetch.CacheTTL,
	})
	postRepo := repo.NewMongo(mongoClient.Database(cfg.MongoDB))

	srv := httpinfra.NewServer(logger.With().Str("component", "http").Logger())
	handler := newHandler(timelineService, postRepo, logger.With().Str("component", "api").Logger())
	handler.routes(srv.Router)

	go func() {
		if err := srv.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("api: сервер остановлен")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("api: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
