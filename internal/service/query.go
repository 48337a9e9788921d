package service

//go:generate mockgen -source=query.go -destination=mocks/mock_query.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/tourist_safety_system/internal/apperror"
	"github.com/shenikar/tourist_safety_system/internal/config"
	"github.com/shenikar/tourist_safety_system/internal/models"
	"github.com/shenikar/tourist_safety_system/pkg/geo"
	"github.com/sirupsen/logrus"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
	maxWindowDays    = 365
	maxRadiusKm      = 20000
)

// AlertQueryService - read-side: выборки и агрегаты, всегда отражает текущее состояние хранилища
type AlertQueryService interface {
	Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Alert, error)
	ListActive(ctx context.Context, filter models.AlertFilter) ([]*models.Alert, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Alert, error)
	ListByRadius(ctx context.Context, lat, lng, radiusKm float64) ([]models.AlertDistance, error)
	AggregateStats(ctx context.Context, windowDays int) (*models.AlertStats, error)
}

type alertQueryService struct {
	alerts        AlertRepository
	locations     LocationRepository
	logger        *logrus.Logger
	timeout       time.Duration
	defaultWindow int
	now           func() time.Time
}

func NewAlertQueryService(alerts AlertRepository, locations LocationRepository, logger *logrus.Logger, cfg *config.Config) AlertQueryService {
	return &alertQueryService{
		alerts:        alerts,
		locations:     locations,
		logger:        logger,
		timeout:       cfg.OperationTimeout,
		defaultWindow: cfg.StatsWindowDays,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Get возвращает тревогу автору или представителю службы
func (s *alertQueryService) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Alert, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "alert_query",
		"method":   "Get",
		"alert_id": id,
	})

	var alert *models.Alert
	err := withTimeout(ctx, s.timeout, log, "get alert", func(ctx context.Context) error {
		var err error
		alert, err = s.alerts.GetByID(ctx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, apperror.NotFound(apperror.ReasonAlertNotFound, "alert %s not found", id)
		}
		log.WithError(err).Error("Failed to get alert from repository")
		return nil, fmt.Errorf("service: could not get alert: %w", err)
	}

	if actor == nil || (!actor.IsAuthority() && actor.ID != alert.UserID) {
		return nil, apperror.Forbidden("alert %s belongs to another user", id)
	}
	return alert, nil
}

// ListActive - активные тревоги, все фильтры объединяются через AND
func (s *alertQueryService) ListActive(ctx context.Context, filter models.AlertFilter) ([]*models.Alert, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "alert_query",
		"method":  "ListActive",
	})

	active := models.StatusActive
	filter.Status = &active
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	return s.list(ctx, log, filter)
}

// ListByUser возвращает все тревоги пользователя, новые первыми
func (s *alertQueryService) ListByUser(ctx context.Context, userID string) ([]*models.Alert, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "alert_query",
		"method":  "ListByUser",
		"user_id": userID,
	})
	if userID == "" {
		return nil, apperror.Validation(apperror.ReasonInvalidRequest, "user id is required").WithField("user_id", "required")
	}
	return s.list(ctx, log, models.AlertFilter{UserID: userID})
}

func (s *alertQueryService) list(ctx context.Context, log *logrus.Entry, filter models.AlertFilter) ([]*models.Alert, error) {
	var alerts []*models.Alert
	err := withTimeout(ctx, s.timeout, log, "list alerts", func(ctx context.Context) error {
		var err error
		alerts, err = s.alerts.List(ctx, filter)
		return err
	})
	if err != nil {
		log.WithError(err).Error("Failed to list alerts from repository")
		return nil, fmt.Errorf("service: could not list alerts: %w", err)
	}
	log.WithField("count", len(alerts)).Debug("Alerts listed")
	return alerts, nil
}

// ListByRadius - активные тревоги в радиусе по большому кругу, ближайшие первыми, при равенстве по id
func (s *alertQueryService) ListByRadius(ctx context.Context, lat, lng, radiusKm float64) ([]models.AlertDistance, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":   "alert_query",
		"method":    "ListByRadius",
		"latitude":  lat,
		"longitude": lng,
		"radius_km": radiusKm,
	})

	if !geo.ValidCoordinate(lat, lng) {
		return nil, invalidCoordinate(lat, lng)
	}
	if math.IsNaN(radiusKm) || radiusKm <= 0 || radiusKm > maxRadiusKm {
		return nil, apperror.Validation(apperror.ReasonInvalidRequest, "radius must be within (0, %d] km", maxRadiusKm).
			WithField("radius_km", "must be positive")
	}

	center := geo.Point{Latitude: lat, Longitude: lng}
	var candidates []*models.Alert
	err := withTimeout(ctx, s.timeout, log, "list alerts in box", func(ctx context.Context) error {
		var err error
		candidates, err = s.alerts.ListActiveInBox(ctx, geo.BoxAround(center, radiusKm))
		return err
	})
	if err != nil {
		log.WithError(err).Error("Failed to query alerts by bounding box")
		return nil, fmt.Errorf("service: could not query alerts by radius: %w", err)
	}

	result := make([]models.AlertDistance, 0, len(candidates))
	for _, a := range candidates {
		d := geo.HaversineKm(center, geo.Point{Latitude: a.Latitude, Longitude: a.Longitude})
		if d <= radiusKm {
			result = append(result, models.AlertDistance{Alert: a, DistanceKm: d})
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].DistanceKm != result[j].DistanceKm {
			return result[i].DistanceKm < result[j].DistanceKm
		}
		return result[i].Alert.ID.String() < result[j].Alert.ID.String()
	})

	log.WithField("count", len(result)).Debug("Alerts within radius")
	return result, nil
}

// AggregateStats - счётчики по категории, приоритету, статусу и дням плюс число активных пользователей
func (s *alertQueryService) AggregateStats(ctx context.Context, windowDays int) (*models.AlertStats, error) {
	if windowDays <= 0 {
		windowDays = s.defaultWindow
	}
	if windowDays > maxWindowDays {
		windowDays = maxWindowDays
	}

	log := s.logger.WithFields(logrus.Fields{
		"service":     "alert_query",
		"method":      "AggregateStats",
		"window_days": windowDays,
	})
	log.Info("Computing alert statistics")

	since := s.now().Add(-time.Duration(windowDays) * 24 * time.Hour)

	var stats *models.AlertStats
	err := withTimeout(ctx, s.timeout, log, "alert stats", func(ctx context.Context) error {
		var err error
		stats, err = s.alerts.Stats(ctx, since)
		return err
	})
	if err != nil {
		log.WithError(err).Error("Failed to aggregate alert stats")
		return nil, fmt.Errorf("service: could not aggregate alert stats: %w", err)
	}

	var activeUsers int
	err = withTimeout(ctx, s.timeout, log, "count active users", func(ctx context.Context) error {
		var err error
		activeUsers, err = s.locations.CountDistinctUsers(ctx, since)
		return err
	})
	if err != nil {
		log.WithError(err).Error("Failed to count active users")
		return nil, fmt.Errorf("service: could not count active users: %w", err)
	}

	stats.WindowDays = windowDays
	stats.Since = since
	stats.ActiveUsers = activeUsers
	return stats, nil
}
