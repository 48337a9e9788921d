package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shenikar/tourist_safety_system/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	webhookQueueKey = "webhook_events"
)

// WebhookEvent - событие канала authority в том виде, в котором оно уходит во внешнюю систему
type WebhookEvent struct {
	Type      string          `json:"type"`
	Channel   string          `json:"channel"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// NewWebhookEvent сериализует полезную нагрузку события
func NewWebhookEvent(channel string, event models.Event) (WebhookEvent, error) {
	we := WebhookEvent{Type: event.Type, Channel: channel, Timestamp: event.Timestamp}
	if event.Data != nil {
		data, err := json.Marshal(event.Data)
		if err != nil {
			return WebhookEvent{}, fmt.Errorf("failed to marshal event data: %w", err)
		}
		we.Data = data
	}
	return we, nil
}

// WebhookPublisher - интерфейс для публикации вебхуков
type WebhookPublisher interface {
	Publish(ctx context.Context, event WebhookEvent) error
}

// RedisWebhookPublisher - реализация WebhookPublisher, использующая Redis
type RedisWebhookPublisher struct {
	redisClient *redis.Client
}

// NewRedisWebhookPublisher создает новый RedisWebhookPublisher
func NewRedisWebhookPublisher(client *redis.Client) *RedisWebhookPublisher {
	return &RedisWebhookPublisher{
		redisClient: client,
	}
}

// Publish публикует событие вебхука в очередь Redis
func (p *RedisWebhookPublisher) Publish(ctx context.Context, event WebhookEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook event: %w", err)
	}

	// LPUSH + BRPOP у воркера дают FIFO
	if err := p.redisClient.LPush(ctx, webhookQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish webhook event to Redis: %w", err)
	}
	return nil
}

// Sink возвращает подписчика канала, который ставит каждое событие в очередь вебхуков.
// Ошибка постановки только логируется: внешняя доставка best-effort, как и сам канал.
func Sink(publisher WebhookPublisher, channel string, timeout time.Duration, logger *logrus.Logger) func(models.Event) {
	return func(event models.Event) {
		log := logger.WithField("event", event.Type).WithField("channel", channel)

		we, err := NewWebhookEvent(channel, event)
		if err != nil {
			log.WithError(err).Error("Failed to build webhook event")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := publisher.Publish(ctx, we); err != nil {
			log.WithError(err).Warn("Failed to enqueue webhook event")
		}
	}
}
