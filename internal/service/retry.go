package service

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shenikar/tourist_safety_system/internal/apperror"
	"github.com/sirupsen/logrus"
)

// isTransient - ошибки ввода-вывода, которые имеет смысл повторить
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return apperror.Is(err, apperror.KindTransient)
}

// withTimeout выполняет операцию хранилища с жёстким таймаутом и одной повторной попыткой.
// Пережившая повтор транзиентная ошибка превращается в apperror.Transient.
func withTimeout(ctx context.Context, timeout time.Duration, log *logrus.Entry, op string, fn func(ctx context.Context) error) error {
	attempt := func() error {
		opCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return fn(opCtx)
	}

	err := attempt()
	if err == nil || !isTransient(err) {
		return err
	}
	if ctx.Err() != nil {
		return apperror.Transient(err, "%s was cancelled", op)
	}

	log.WithError(err).WithField("operation", op).Warn("Transient failure, retrying once")
	err = attempt()
	if err != nil && isTransient(err) {
		return apperror.Transient(err, "%s failed, try again later", op)
	}
	return err
}
