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

	commonmw "github.com/apollosoftdev/mm-processor/internal/common/http/middleware"
	"github.com/apollosoftdev/mm-processor/internal/common/mq"
	"github.com/apollosoftdev/mm-processor/internal/fanout"
	"github.com/apollosoftdev/mm-processor/internal/router/service"
	"github.com/apollosoftdev/mm-processor/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultConfigPath = "configs/router.yaml"

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

	mqClient, err := mq.NewKafkaQueue(appCfg.Kafka)
	if err != nil {
		logger.Error(context.Background(), "init kafka failed", zap.Error(err))
		return
	}
	defer func() {
		_ = mqClient.Close()
	}()

	publisher := fanout.NewMQPublisher(mqClient, appCfg.Fanout.Topic)
	router := service.NewRouter(publisher, appCfg.Stream.Base64Payload)

	err = mqClient.SubscribeWithOptions(context.Background(), appCfg.Stream.Topic, router.HandleMessage, &mq.SubscribeOptions{
		ConsumerGroup:   appCfg.Stream.ConsumerGroup,
		Concurrency:     appCfg.Stream.Concurrency,
		MaxRetries:      appCfg.Stream.MaxRetries,
		RetryDelay:      appCfg.Stream.RetryDelay,
		DeadLetterTopic: appCfg.Stream.DeadLetter,
	})
	if err != nil {
		logger.Error(context.Background(), "subscribe stream failed", zap.Error(err))
		return
	}
	if err := mqClient.Start(); err != nil {
		logger.Error(context.Background(), "start stream consumer failed", zap.Error(err))
		return
	}

	httpServer := buildHTTPServer(appCfg.Server, mqClient)
	listener, err := net.Listen("tcp", appCfg.Server.Addr)
	if err != nil {
		logger.Error(context.Background(), "init http listener failed", zap.Error(err))
		return
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "router ops server started", zap.String("addr", appCfg.Server.Addr))
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

func buildHTTPServer(cfg ServerConfig, mqClient *mq.KafkaQueue) *http.Server {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(commonmw.TraceContextMiddleware())
	engine.Use(commonmw.RequestLogger())

	engine.GET("/healthz", func(c *gin.Context) {
		if err := mqClient.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "kafka": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return &http.Server{
		Handler:      engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
