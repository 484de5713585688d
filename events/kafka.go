package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/aquafarm-pro/tenantcore/logger"
)

// KafkaPublisher publishes JSON payloads to a topic.
// Decouples the bus from the sarama producer (and lets tests stub it).
type KafkaPublisher interface {
	PublishJSON(ctx context.Context, topic string, key string, payload any) error
	Close() error
}

// KafkaConfig producer configuration
type KafkaConfig struct {
	// Enabled forward events to Kafka when true
	Enabled bool `mapstructure:"enabled"`

	// Brokers bootstrap broker addresses
	Brokers []string `mapstructure:"brokers"`

	// Topic destination topic for audit events
	Topic string `mapstructure:"topic"`

	// Timeout produce timeout
	Timeout time.Duration `mapstructure:"timeout"`
}

// ApplyDefaults fills zero-value fields
func (c *KafkaConfig) ApplyDefaults() {
	if c.Topic == "" {
		c.Topic = "tenantcore.audit"
	}
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Second
	}
}

// Validate checks the configuration
func (c *KafkaConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if len(c.Brokers) == 0 {
		return fmt.Errorf("kafka brokers cannot be empty")
	}
	return nil
}

// SyncKafkaPublisher sarama-backed synchronous publisher
type SyncKafkaPublisher struct {
	producer sarama.SyncProducer
	log      logger.Logger
	mu       sync.RWMutex
	closed   bool
}

// NewSyncKafkaPublisher creates a publisher connected to the given brokers
func NewSyncKafkaPublisher(cfg KafkaConfig, log logger.Logger) (*SyncKafkaPublisher, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.RequiredAcks = sarama.WaitForLocal
	saramaCfg.Producer.Timeout = cfg.Timeout

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("create sync producer failed: %w", err)
	}

	return &SyncKafkaPublisher{producer: producer, log: log}, nil
}

// PublishJSON marshals payload and sends it to topic keyed by key
func (p *SyncKafkaPublisher) PublishJSON(ctx context.Context, topic string, key string, payload any) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return fmt.Errorf("publisher is closed")
	}
	p.mu.RUnlock()

	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event failed: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.log.WarnCtx(ctx, "audit event publish failed",
			zap.String("topic", topic),
			zap.String("key", key),
			zap.Error(err))
		return fmt.Errorf("send message failed: %w", err)
	}

	p.log.DebugCtx(ctx, "audit event published",
		zap.String("topic", topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

// Close shuts the producer down
func (p *SyncKafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.producer.Close()
}
