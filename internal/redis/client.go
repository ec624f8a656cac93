package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/koios/zigstar-flasher/internal/config"
	"github.com/koios/zigstar-flasher/pkg/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Publisher wraps the Redis client for outcome notifications.
// Events go out over pub/sub only; nothing is written to keys or streams.
type Publisher struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewPublisher creates a new Redis publisher and checks the connection
func NewPublisher(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*Publisher, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		PoolTimeout:  30 * time.Second,
	})

	// Test the connection
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Connected to Redis",
		zap.String("addr", cfg.Addr),
		zap.String("channel_prefix", cfg.ChannelPrefix))

	return NewPublisherFromClient(rdb, cfg.ChannelPrefix, logger), nil
}

// NewPublisherFromClient creates a publisher from an existing client
func NewPublisherFromClient(client *redis.Client, prefix string, logger *zap.Logger) *Publisher {
	return &Publisher{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

// Close closes the Redis connection
func (p *Publisher) Close() error {
	return p.client.Close()
}

// Channel returns the pub/sub channel carrying events for a device
func (p *Publisher) Channel(deviceIP string) string {
	return fmt.Sprintf("%s:device:%s", p.prefix, deviceIP)
}

// Publish sends an operation outcome to the device-specific channel
func (p *Publisher) Publish(ctx context.Context, event *models.OperationEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal operation event: %w", err)
	}

	channel := p.Channel(event.DeviceIP)

	if err := p.client.Publish(ctx, channel, body).Err(); err != nil {
		return fmt.Errorf("failed to publish to Redis channel %s: %w", channel, err)
	}

	p.logger.Debug("Published operation event",
		zap.String("channel", channel),
		zap.String("operation", event.Operation),
		zap.Bool("success", event.Success))

	return nil
}
