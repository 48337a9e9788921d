package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shenikar/tourist_safety_system/internal/config"
	"github.com/sirupsen/logrus"
)

const SignatureHeader = "X-Webhook-Signature"

// WebhookWorker - структура для обработки и отправки вебхуков
type WebhookWorker struct {
	redisClient *redis.Client
	logger      *logrus.Logger
	cfg         *config.Config
	httpClient  *http.Client
	wg          sync.WaitGroup
}

// NewWebhookWorker создает новый WebhookWorker
func NewWebhookWorker(redisClient *redis.Client, logger *logrus.Logger, cfg *config.Config) *WebhookWorker {
	return &WebhookWorker{
		redisClient: redisClient,
		logger:      logger,
		cfg:         cfg,
		httpClient: &http.Client{
			Timeout: cfg.WebhookTimeout,
		},
	}
}

// Start запускает горутину для обработки очереди вебхуков
func (w *WebhookWorker) Start(ctx context.Context) {
	w.logger.Info("Starting webhook worker...")
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-ctx.Done():
				w.logger.Info("Stopping webhook worker.")
				return
			default:
			}

			// BRPOP блокируется до появления события или отмены ctx
			result, err := w.redisClient.BRPop(ctx, 0, webhookQueueKey).Result()
			if err != nil {
				if errors.Is(err, context.Canceled) || ctx.Err() != nil {
					continue
				}
				w.logger.WithError(err).Error("Failed to pop webhook event from Redis")
				sleepCtx(ctx, w.cfg.WebhookTimeout)
				continue
			}

			// result[0] - ключ, result[1] - значение
			payload := result[1]
			var event WebhookEvent
			if err := json.Unmarshal([]byte(payload), &event); err != nil {
				w.logger.WithError(err).Error("Failed to unmarshal webhook event from Redis")
				continue
			}

			if err := w.deliver(ctx, event, []byte(payload)); err != nil {
				w.logger.WithError(err).WithField("event", event.Type).Error("Webhook delivery abandoned")
			}
		}
	}()
}

// Wait дожидается остановки воркера после отмены контекста
func (w *WebhookWorker) Wait() {
	w.wg.Wait()
}

// deliver отправляет событие с экспоненциальной задержкой между попытками.
// Ответы 4xx, кроме 408 и 429, не повторяются.
func (w *WebhookWorker) deliver(ctx context.Context, event WebhookEvent, payload []byte) error {
	log := w.logger.WithField("event", event.Type).WithField("channel", event.Channel)
	log.Debug("Processing webhook event...")

	if w.cfg.WebhookURL == "" {
		log.Warn("Webhook URL is not configured. Skipping webhook delivery.")
		return nil
	}

	attempts := w.cfg.WebhookMaxRetries
	if attempts < 1 {
		attempts = 1
	}
	delay := w.cfg.WebhookBaseDelay

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			log.WithError(lastErr).Warnf("Retrying webhook in %v. Retries left: %d", delay, attempts-i)
			if !sleepCtx(ctx, delay) {
				return ctx.Err()
			}
			delay *= 2
		}

		retry, err := w.send(ctx, payload)
		if err == nil {
			log.Info("Webhook delivered successfully.")
			return nil
		}
		lastErr = err
		if !retry {
			break
		}
	}
	return fmt.Errorf("failed to deliver webhook after %d attempts: %w", attempts, lastErr)
}

// send делает одну попытку; retry сообщает, имеет ли смысл повторять
func (w *WebhookWorker) send(ctx context.Context, payload []byte) (retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// Добавляем HMAC подпись, если WEBHOOK_SECRET задан
	if w.cfg.WebhookSecret != "" {
		req.Header.Set(SignatureHeader, generateHMACSHA256(payload, w.cfg.WebhookSecret))
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return true, fmt.Errorf("failed to send webhook: %w", err)
	}
	resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return false, nil
	case resp.StatusCode == http.StatusRequestTimeout, resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return true, fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	default:
		return false, fmt.Errorf("webhook endpoint rejected event with status %d", resp.StatusCode)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// generateHMACSHA256 генерирует HMAC-SHA256 подпись для данных
func generateHMACSHA256(data []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
