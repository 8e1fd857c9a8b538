package messaging

import (
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

type Config struct {
	URL        string
	Exchange   string
	RetryCount int
	RetryDelay time.Duration
}

// RabbitMQClient owns one connection and channel with a durable topic exchange declared.
type RabbitMQClient struct {
	config     Config
	connection *amqp.Connection
	channel    *amqp.Channel
	mu         sync.RWMutex
	log        *zap.Logger
}

// Dial connects, retrying RetryCount times, and declares the exchange.
func Dial(cfg Config, log *zap.Logger) (*RabbitMQClient, error) {
	if cfg.RetryCount <= 0 {
		cfg.RetryCount = 1
	}
	c := &RabbitMQClient{config: cfg, log: log}

	var err error
	for i := 0; i < cfg.RetryCount; i++ {
		if err = c.connect(); err == nil {
			log.Info("connected to rabbitmq", zap.String("exchange", cfg.Exchange))
			return c, nil
		}
		log.Warn("rabbitmq connection failed",
			zap.Int("attempt", i+1),
			zap.Int("of", cfg.RetryCount),
			zap.Error(err))
		if i < cfg.RetryCount-1 {
			time.Sleep(cfg.RetryDelay)
		}
	}
	return nil, err
}

func (c *RabbitMQClient) connect() error {
	conn, err := amqp.Dial(c.config.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		c.config.Exchange, // name
		"topic",           // type
		true,              // durable
		false,             // auto-deleted
		false,             // internal
		false,             // no-wait
		nil,               // arguments
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	c.mu.Lock()
	c.connection = conn
	c.channel = ch
	c.mu.Unlock()
	return nil
}

func (c *RabbitMQClient) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	c.mu.RLock()
	ch := c.channel
	c.mu.RUnlock()
	if ch == nil || c.connection.IsClosed() {
		return fmt.Errorf("no connection to RabbitMQ")
	}
	return ch.Publish(exchange, key, mandatory, immediate, msg)
}

func (c *RabbitMQClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var closeErr error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			closeErr = fmt.Errorf("channel close error: %w", err)
		}
	}
	if c.connection != nil {
		if err := c.connection.Close(); err != nil && closeErr == nil {
			closeErr = fmt.Errorf("connection close error: %w", err)
		}
	}
	return closeErr
}
