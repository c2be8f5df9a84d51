package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/apollosoftdev/mm-processor/internal/common/cache"
	commonmw "github.com/apollosoftdev/mm-processor/internal/common/http/middleware"
	"github.com/apollosoftdev/mm-processor/internal/common/mq"
	"github.com/apollosoftdev/mm-processor/internal/completion/client"
	"github.com/apollosoftdev/mm-processor/internal/completion/service"
	"github.com/apollosoftdev/mm-processor/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultConfigPath = "configs/completion.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		return
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	tokenStore, err := cache.NewRedisCacheWithConfig(&appCfg.Redis)
	if err != nil {
		logger.Error(context.Background(), "init token store failed", zap.Error(err))
		return
	}
	defer func() {
		_ = tokenStore.Close()
	}()

	mqClient, err := mq.NewKafkaQueue(appCfg.Kafka)
	if err != nil {
		logger.Error(context.Background(), "init kafka failed", zap.Error(err))
		return
	}
	defer func() {
		_ = mqClient.Close()
	}()

	tokens := client.NewTokenProvider(tokenStore, appCfg.API.TokenKey)
	api, err := client.NewSubmissionAPI(appCfg.API, tokens)
	if err != nil {
		logger.Error(context.Background(), "init submission API client failed", zap.Error(err))
		return
	}

	correlator := service.NewCorrelator(api, appCfg.Lifecycle.ScorerContainer)

	err = mqClient.SubscribeWithOptions(context.Background(), appCfg.Lifecycle.Topic, correlator.HandleMessage, &mq.SubscribeOptions{
		ConsumerGroup:   appCfg.Lifecycle.ConsumerGroup,
		Concurrency:     appCfg.Lifecycle.Concurrency,
		MaxRetries:      appCfg.Lifecycle.MaxRetries,
		RetryDelay:      appCfg.Lifecycle.RetryDelay,
		DeadLetterTopic: appCfg.Lifecycle.DeadLetter,
	})
	if err != nil {
		logger.Error(context.Background(), "subscribe lifecycle topic failed", zap.Error(err))
		return
	}
	if err := mqClient.Start(); err != nil {
		logger.Error(context.Background(), "start lifecycle consumer failed", zap.Error(err))
		return
	}

	httpServer := buildHTTPServer(appCfg.Server, mqClient, tokenStore, tokens)
	listener, err := net.Listen("tcp", appCfg.Server.Addr)
	if err != nil {
		logger.Error(context.Background(), "init http listener failed", zap.Error(err))
		return
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "completion ops server started", zap.String("addr", appCfg.Server.Addr))
		errCh <- httpServer.Serve(listener)
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "http server stopped", zap.Error(err))
		}
	case <-shutdownCtx.Done():
		logger.Info(context.Background(), "shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error(context.Background(), "http server shutdown failed", zap.Error(err))
	}
	_ = mqClient.Stop()
}

func buildHTTPServer(cfg ServerConfig, mqClient *mq.KafkaQueue, store cache.Cache, tokens *client.TokenProvider) *http.Server {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(commonmw.TraceContextMiddleware())
	engine.Use(commonmw.RequestLogger())

	engine.GET("/healthz", func(c *gin.Context) {
		if err := mqClient.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "kafka": err.Error()})
			return
		}
		if err := store.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "store": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	engine.POST("/admin/token/invalidate", func(c *gin.Context) {
		tokens.Invalidate()
		logger.Info(c.Request.Context(), "api token invalidated")
		c.JSON(http.StatusOK, gin.H{"invalidated": true})
	})

	return &http.Server{
		Handler:      engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
