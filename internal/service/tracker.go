package service

//go:generate mockgen -source=tracker.go -destination=mocks/mock_tracker.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/tourist_safety_system/internal/apperror"
	"github.com/shenikar/tourist_safety_system/internal/config"
	"github.com/shenikar/tourist_safety_system/internal/models"
	"github.com/shenikar/tourist_safety_system/pkg/geo"
	"github.com/shenikar/tourist_safety_system/pkg/metrics"
	"github.com/sirupsen/logrus"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

// LocationTracker принимает замеры, ведёт историю и поднимает тревоги по запретным зонам
type LocationTracker interface {
	Ingest(ctx context.Context, userID string, lat, lng float64, accuracy *float64) (*models.IngestResult, error)
	ListHistory(ctx context.Context, userID string, limit int) ([]*models.LocationSample, error)
	PruneHistory(ctx context.Context, before time.Time) (int64, error)
}

type locationTracker struct {
	locations   LocationRepository
	users       UserDirectory
	index       PointChecker
	alerts      AlertService
	alertRepo   AlertRepository
	cooldown    CooldownStore
	broadcaster Broadcaster
	logger      *logrus.Logger
	timeout     time.Duration
	window      time.Duration
	locks       *keyedMutex
	now         func() time.Time
}

// TrackerDeps - зависимости трекера
type TrackerDeps struct {
	Locations   LocationRepository
	Users       UserDirectory
	Index       PointChecker
	Alerts      AlertService
	AlertRepo   AlertRepository
	Cooldown    CooldownStore
	Broadcaster Broadcaster
}

func NewLocationTracker(deps TrackerDeps, logger *logrus.Logger, cfg *config.Config) LocationTracker {
	return &locationTracker{
		locations:   deps.Locations,
		users:       deps.Users,
		index:       deps.Index,
		alerts:      deps.Alerts,
		alertRepo:   deps.AlertRepo,
		cooldown:    deps.Cooldown,
		broadcaster: deps.Broadcaster,
		logger:      logger,
		timeout:     cfg.OperationTimeout,
		window:      cfg.GeofenceCooldown,
		locks:       newKeyedMutex(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Ingest - последовательный конвейер для одного замера:
// пользователь -> история -> снимок -> проверка зон -> тревоги.
// Замеры одного пользователя обрабатываются строго по одному.
func (t *locationTracker) Ingest(ctx context.Context, userID string, lat, lng float64, accuracy *float64) (*models.IngestResult, error) {
	log := t.logger.WithFields(logrus.Fields{
		"service": "tracker",
		"method":  "Ingest",
		"user_id": userID,
	})
	log.Debug("Ingesting location sample")

	if !geo.ValidCoordinate(lat, lng) {
		return nil, invalidCoordinate(lat, lng)
	}
	if accuracy != nil && (math.IsNaN(*accuracy) || math.IsInf(*accuracy, 0) || *accuracy < 0) {
		return nil, apperror.Validation(apperror.ReasonInvalidRequest, "accuracy must be a non-negative number of meters").
			WithField("accuracy", "must be >= 0")
	}

	unlock := t.locks.Lock(userID)
	defer unlock()

	user, err := t.getUser(ctx, log, userID)
	if err != nil {
		return nil, err
	}

	sample := &models.LocationSample{
		ID:         uuid.New(),
		UserID:     user.ID,
		Latitude:   lat,
		Longitude:  lng,
		Accuracy:   accuracy,
		CapturedAt: t.now(),
	}
	err = withTimeout(ctx, t.timeout, log, "save location sample", func(ctx context.Context) error {
		return t.locations.Save(ctx, sample)
	})
	if err != nil {
		log.WithError(err).Error("Failed to save location sample")
		return nil, fmt.Errorf("service: could not save location sample: %w", err)
	}

	err = withTimeout(ctx, t.timeout, log, "update last location", func(ctx context.Context) error {
		return t.users.UpdateLastLocation(ctx, user.ID, lat, lng, sample.CapturedAt)
	})
	if err != nil {
		log.WithError(err).Error("Failed to update user location snapshot")
		return nil, fmt.Errorf("service: could not update location snapshot: %w", err)
	}

	matches, err := t.index.CheckPoint(lat, lng)
	if err != nil {
		return nil, err
	}
	metrics.GeofenceCheck(len(matches) > 0)

	publish(ctx, t.broadcaster, t.timeout, log, models.ChannelAuthority,
		models.NewEvent(models.EventTouristLocationUpdate, models.TouristLocation{
			UserID:    user.ID,
			Latitude:  lat,
			Longitude: lng,
			Timestamp: sample.CapturedAt,
		}))

	result := &models.IngestResult{
		Sample:  sample,
		Matches: matches,
		Alerts:  make([]*models.Alert, 0),
	}
	for _, match := range matches {
		if match.Category != models.ZoneRestricted {
			continue
		}
		if t.cooldownActive(ctx, log, user.ID, match.FenceID) {
			metrics.AlertSuppressed()
			result.Suppressed++
			log.WithField("fence_id", match.FenceID).Info("Geofence alert suppressed by cooldown")
			continue
		}

		alert, err := t.raise(ctx, log, user, sample, match)
		if err != nil {
			return nil, err
		}
		result.Alerts = append(result.Alerts, alert)
	}

	log.WithFields(logrus.Fields{
		"matches":    len(matches),
		"alerts":     len(result.Alerts),
		"suppressed": result.Suppressed,
	}).Info("Location sample ingested")
	return result, nil
}

func (t *locationTracker) getUser(ctx context.Context, log *logrus.Entry, userID string) (*models.User, error) {
	var user *models.User
	err := withTimeout(ctx, t.timeout, log, "get user", func(ctx context.Context) error {
		var err error
		user, err = t.users.GetUser(ctx, userID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			log.Warn("Location sample for unknown user")
			return nil, apperror.NotFound(apperror.ReasonUserNotFound, "user %s not found", userID)
		}
		log.WithError(err).Error("Failed to look up user")
		return nil, fmt.Errorf("service: could not look up user: %w", err)
	}
	return user, nil
}

// cooldownActive - есть ли для пары (пользователь, зона) недавняя тревога, которая ещё активна.
// Если хранилище подавления недоступно, тревога поднимается.
func (t *locationTracker) cooldownActive(ctx context.Context, log *logrus.Entry, userID string, fenceID uuid.UUID) bool {
	if t.cooldown == nil {
		return false
	}
	log = log.WithField("fence_id", fenceID)

	var (
		alertID uuid.UUID
		found   bool
	)
	err := withTimeout(ctx, t.timeout, log, "get cooldown", func(ctx context.Context) error {
		var err error
		alertID, found, err = t.cooldown.Get(ctx, userID, fenceID)
		return err
	})
	if err != nil {
		log.WithError(err).Warn("Cooldown store unavailable, raising alert anyway")
		return false
	}
	if !found {
		return false
	}

	var alert *models.Alert
	err = withTimeout(ctx, t.timeout, log, "get cooldown alert", func(ctx context.Context) error {
		var err error
		alert, err = t.alertRepo.GetByID(ctx, alertID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return false
		}
		// запись о подавлении есть, но статус не прочитать - считаем тревогу активной
		log.WithError(err).Warn("Failed to read alert behind cooldown entry")
		return true
	}
	return alert.Status == models.StatusActive
}

func (t *locationTracker) raise(ctx context.Context, log *logrus.Entry, user *models.User, sample *models.LocationSample, match models.FenceMatch) (*models.Alert, error) {
	fenceID := match.FenceID
	alert, err := t.alerts.Create(ctx, models.NewAlert{
		UserID:      user.ID,
		Category:    models.CategoryCrime,
		Location:    match.Name,
		Latitude:    sample.Latitude,
		Longitude:   sample.Longitude,
		Description: fmt.Sprintf("Automatic alert: tourist entered restricted zone %q", match.Name),
		FenceID:     &fenceID,
		Automatic:   true,
	})
	if err != nil {
		log.WithError(err).WithField("fence_id", fenceID).Error("Failed to raise geofence alert")
		return nil, err
	}

	if t.cooldown != nil {
		err = withTimeout(ctx, t.timeout, log, "set cooldown", func(ctx context.Context) error {
			return t.cooldown.Set(ctx, user.ID, fenceID, alert.ID, t.window)
		})
		if err != nil {
			log.WithError(err).Warn("Failed to record geofence cooldown")
		}
	}
	return alert, nil
}

// ListHistory возвращает последние замеры пользователя, новые первыми
func (t *locationTracker) ListHistory(ctx context.Context, userID string, limit int) ([]*models.LocationSample, error) {
	log := t.logger.WithFields(logrus.Fields{
		"service": "tracker",
		"method":  "ListHistory",
		"user_id": userID,
	})

	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	var samples []*models.LocationSample
	err := withTimeout(ctx, t.timeout, log, "list location history", func(ctx context.Context) error {
		var err error
		samples, err = t.locations.ListByUser(ctx, userID, limit)
		return err
	})
	if err != nil {
		log.WithError(err).Error("Failed to list location history")
		return nil, fmt.Errorf("service: could not list location history: %w", err)
	}
	return samples, nil
}

// PruneHistory удаляет замеры старше before
func (t *locationTracker) PruneHistory(ctx context.Context, before time.Time) (int64, error) {
	log := t.logger.WithFields(logrus.Fields{
		"service": "tracker",
		"method":  "PruneHistory",
		"before":  before,
	})
	log.Info("Pruning location history")

	var deleted int64
	err := withTimeout(ctx, t.timeout, log, "prune location history", func(ctx context.Context) error {
		var err error
		deleted, err = t.locations.DeleteBefore(ctx, before)
		return err
	})
	if err != nil {
		log.WithError(err).Error("Failed to prune location history")
		return 0, fmt.Errorf("service: could not prune location history: %w", err)
	}

	log.WithField("deleted", deleted).Info("Location history pruned")
	return deleted, nil
}
