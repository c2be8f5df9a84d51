package main

import (
	"fmt"
	"os"
	"time"

	"github.com/apollosoftdev/mm-processor/internal/common/mq"
	"github.com/apollosoftdev/mm-processor/pkg/utils/logger"

	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8080"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second

	defaultStreamGroup = "mm-processor-router"
)

// ServerConfig holds ops HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// StreamConfig holds inbound submission stream settings.
type StreamConfig struct {
	Topic         string        `yaml:"topic"`
	ConsumerGroup string        `yaml:"consumerGroup"`
	Base64Payload bool          `yaml:"base64Payload"`
	Concurrency   int           `yaml:"concurrency"`
	MaxRetries    int           `yaml:"maxRetries"`
	RetryDelay    time.Duration `yaml:"retryDelay"`
	DeadLetter    string        `yaml:"deadLetter"`
}

// FanoutConfig holds fan-out publish settings.
type FanoutConfig struct {
	Topic string `yaml:"topic"`
}

// AppConfig holds the router service configuration.
type AppConfig struct {
	Server ServerConfig   `yaml:"server"`
	Logger logger.Config  `yaml:"logger"`
	Kafka  mq.KafkaConfig `yaml:"kafka"`
	Stream StreamConfig   `yaml:"stream"`
	Fanout FanoutConfig   `yaml:"fanout"`
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

func loadAppConfig(path string) (*AppConfig, error) {
	cfg := AppConfig{
		Stream: StreamConfig{Base64Payload: true},
	}
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if cfg.Stream.Topic == "" {
		return nil, fmt.Errorf("stream topic is required")
	}
	if cfg.Fanout.Topic == "" {
		return nil, fmt.Errorf("fanout topic is required")
	}
	if cfg.Stream.ConsumerGroup == "" {
		cfg.Stream.ConsumerGroup = defaultStreamGroup
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}
	return &cfg, nil
}
