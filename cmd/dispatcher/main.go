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
	"github.com/apollosoftdev/mm-processor/internal/dispatch/launcher"
	"github.com/apollosoftdev/mm-processor/internal/dispatch/repository"
	"github.com/apollosoftdev/mm-processor/internal/dispatch/service"
	"github.com/apollosoftdev/mm-processor/internal/fanout"
	"github.com/apollosoftdev/mm-processor/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultConfigPath = "configs/dispatcher.yaml"

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

	configStore, err := cache.NewRedisCacheWithConfig(&appCfg.Redis)
	if err != nil {
		logger.Error(context.Background(), "init config store failed", zap.Error(err))
		return
	}
	defer func() {
		_ = configStore.Close()
	}()

	mqClient, err := mq.NewKafkaQueue(appCfg.Kafka)
	if err != nil {
		logger.Error(context.Background(), "init kafka failed", zap.Error(err))
		return
	}
	defer func() {
		_ = mqClient.Close()
	}()

	agent, err := launcher.NewHTTPLauncher(appCfg.Agent)
	if err != nil {
		logger.Error(context.Background(), "init execution agent client failed", zap.Error(err))
		return
	}

	configs := repository.NewConfigRepository(configStore)
	dispatcher, err := service.NewDispatcher(appCfg.Challenge.ID, configs, agent)
	if err != nil {
		logger.Error(context.Background(), "init dispatcher failed", zap.Error(err))
		return
	}

	handler := fanout.FilterHandler(appCfg.Challenge.ID, dispatcher.HandleMessage)
	err = mqClient.SubscribeWithOptions(context.Background(), appCfg.Routed.Topic, handler, &mq.SubscribeOptions{
		ConsumerGroup:   appCfg.Routed.ConsumerGroup,
		Concurrency:     appCfg.Routed.Concurrency,
		MaxRetries:      appCfg.Routed.MaxRetries,
		RetryDelay:      appCfg.Routed.RetryDelay,
		DeadLetterTopic: appCfg.Routed.DeadLetter,
	})
	if err != nil {
		logger.Error(context.Background(), "subscribe routed topic failed", zap.Error(err))
		return
	}
	if err := mqClient.Start(); err != nil {
		logger.Error(context.Background(), "start routed consumer failed", zap.Error(err))
		return
	}

	httpServer := buildHTTPServer(appCfg, mqClient, configStore, configs)
	listener, err := net.Listen("tcp", appCfg.Server.Addr)
	if err != nil {
		logger.Error(context.Background(), "init http listener failed", zap.Error(err))
		return
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "dispatcher ops server started",
			zap.String("addr", appCfg.Server.Addr),
			zap.String("challenge_id", appCfg.Challenge.ID))
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

func buildHTTPServer(appCfg *AppConfig, mqClient *mq.KafkaQueue, store cache.Cache, configs *repository.ConfigRepository) *http.Server {
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

	// Operator escape hatch: the config cache lives for the process
	// lifetime and is only dropped on explicit request.
	engine.POST("/admin/config/invalidate", func(c *gin.Context) {
		configs.Invalidate(appCfg.Challenge.ID)
		logger.Info(c.Request.Context(), "destination config invalidated",
			zap.String("challenge_id", appCfg.Challenge.ID))
		c.JSON(http.StatusOK, gin.H{"invalidated": appCfg.Challenge.ID})
	})

	return &http.Server{
		Handler:      engine,
		ReadTimeout:  appCfg.Server.ReadTimeout,
		WriteTimeout: appCfg.Server.WriteTimeout,
		IdleTimeout:  appCfg.Server.IdleTimeout,
	}
}
