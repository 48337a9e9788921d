package service

import (
	"context"
	"time"

	"github.com/shenikar/tourist_safety_system/internal/models"
	"github.com/shenikar/tourist_safety_system/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// publish доставляет событие без влияния на результат операции: ошибка только логируется
func publish(ctx context.Context, b Broadcaster, timeout time.Duration, log *logrus.Entry, channel string, event models.Event) {
	if b == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := b.Publish(pubCtx, channel, event); err != nil {
		metrics.BroadcastDropped(channel)
		log.WithError(err).WithFields(logrus.Fields{
			"channel": channel,
			"event":   event.Type,
		}).Warn("Failed to broadcast event")
	}
}
