package service

//go:generate mockgen -source=geofence.go -destination=mocks/mock_geofence.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/tourist_safety_system/internal/apperror"
	"github.com/shenikar/tourist_safety_system/internal/config"
	"github.com/shenikar/tourist_safety_system/internal/geofence"
	"github.com/shenikar/tourist_safety_system/internal/models"
	"github.com/shenikar/tourist_safety_system/pkg/geo"
	"github.com/shenikar/tourist_safety_system/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// PointChecker скрывает конкретный алгоритм проверки вхождения
type PointChecker interface {
	CheckPoint(lat, lng float64) ([]models.FenceMatch, error)
}

// FenceIndex - индекс, который сервис зон держит в согласии с хранилищем
type FenceIndex interface {
	PointChecker
	Upsert(fence *models.GeoFence)
	Remove(id uuid.UUID)
	Reload(ctx context.Context, load geofence.Loader) error
}

// GeoFenceService определяет контракт управления зонами
type GeoFenceService interface {
	Create(ctx context.Context, actor *models.User, fence *models.GeoFence) (*models.GeoFence, error)
	Get(ctx context.Context, id uuid.UUID) (*models.GeoFence, error)
	List(ctx context.Context, filter models.GeoFenceFilter) ([]*models.GeoFence, error)
	Update(ctx context.Context, actor *models.User, fence *models.GeoFence) (*models.GeoFence, error)
	Delete(ctx context.Context, actor *models.User, id uuid.UUID) error
	CheckPoint(ctx context.Context, lat, lng float64) ([]models.FenceMatch, error)
	Reload(ctx context.Context) error
}

type geoFenceService struct {
	repo    GeoFenceRepository
	index   FenceIndex
	logger  *logrus.Logger
	timeout time.Duration
	locks   *keyedMutex
	now     func() time.Time
}

func NewGeoFenceService(repo GeoFenceRepository, index FenceIndex, logger *logrus.Logger, cfg *config.Config) GeoFenceService {
	return &geoFenceService{
		repo:    repo,
		index:   index,
		logger:  logger,
		timeout: cfg.OperationTimeout,
		locks:   newKeyedMutex(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create сохраняет зону и сразу делает её видимой для CheckPoint
func (s *geoFenceService) Create(ctx context.Context, actor *models.User, fence *models.GeoFence) (*models.GeoFence, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "geofence",
		"method":  "Create",
		"name":    fence.Name,
	})
	log.Info("Attempting to create a new geofence")

	if !actor.IsAuthority() {
		return nil, apperror.Forbidden("only authorities can manage geofences")
	}
	normalized, err := normalizeFence(fence)
	if err != nil {
		log.WithError(err).Warn("Geofence rejected by validation")
		return nil, err
	}

	now := s.now()
	normalized.ID = uuid.New()
	normalized.CreatedBy = actor.ID
	normalized.CreatedAt = now
	normalized.UpdatedAt = now

	unlock := s.locks.Lock(normalized.ID.String())
	defer unlock()

	err = withTimeout(ctx, s.timeout, log, "create geofence", func(ctx context.Context) error {
		return s.repo.Create(ctx, normalized)
	})
	if err != nil {
		log.WithError(err).Error("Failed to create geofence in repository")
		return nil, fmt.Errorf("service: could not create geofence: %w", err)
	}
	s.index.Upsert(normalized)

	log.WithField("fence_id", normalized.ID).Info("Geofence created successfully")
	return normalized, nil
}

func (s *geoFenceService) Get(ctx context.Context, id uuid.UUID) (*models.GeoFence, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "geofence",
		"method":   "Get",
		"fence_id": id,
	})

	fence, err := s.load(ctx, log, id)
	if err != nil {
		return nil, err
	}
	return fence, nil
}

func (s *geoFenceService) List(ctx context.Context, filter models.GeoFenceFilter) ([]*models.GeoFence, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "geofence",
		"method":  "List",
	})

	var fences []*models.GeoFence
	err := withTimeout(ctx, s.timeout, log, "list geofences", func(ctx context.Context) error {
		var err error
		fences, err = s.repo.List(ctx, filter)
		return err
	})
	if err != nil {
		log.WithError(err).Error("Failed to list geofences")
		return nil, fmt.Errorf("service: could not list geofences: %w", err)
	}
	return fences, nil
}

// Update заменяет изменяемые поля зоны; автор и время создания сохраняются
func (s *geoFenceService) Update(ctx context.Context, actor *models.User, fence *models.GeoFence) (*models.GeoFence, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "geofence",
		"method":   "Update",
		"fence_id": fence.ID,
	})
	log.Info("Attempting to update geofence")

	if !actor.IsAuthority() {
		return nil, apperror.Forbidden("only authorities can manage geofences")
	}
	normalized, err := normalizeFence(fence)
	if err != nil {
		log.WithError(err).Warn("Geofence rejected by validation")
		return nil, err
	}

	unlock := s.locks.Lock(fence.ID.String())
	defer unlock()

	existing, err := s.load(ctx, log, fence.ID)
	if err != nil {
		return nil, err
	}
	normalized.CreatedBy = existing.CreatedBy
	normalized.CreatedAt = existing.CreatedAt
	normalized.UpdatedAt = s.now()

	err = withTimeout(ctx, s.timeout, log, "update geofence", func(ctx context.Context) error {
		return s.repo.Update(ctx, normalized)
	})
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, fenceNotFound(fence.ID)
		}
		log.WithError(err).Error("Failed to update geofence in repository")
		return nil, fmt.Errorf("service: could not update geofence: %w", err)
	}
	s.index.Upsert(normalized)

	log.Info("Geofence updated successfully")
	return normalized, nil
}

func (s *geoFenceService) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "geofence",
		"method":   "Delete",
		"fence_id": id,
	})
	log.Info("Attempting to delete geofence")

	if !actor.IsAuthority() {
		return apperror.Forbidden("only authorities can manage geofences")
	}

	unlock := s.locks.Lock(id.String())
	defer unlock()

	err := withTimeout(ctx, s.timeout, log, "delete geofence", func(ctx context.Context) error {
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return fenceNotFound(id)
		}
		log.WithError(err).Error("Failed to delete geofence in repository")
		return fmt.Errorf("service: could not delete geofence: %w", err)
	}
	s.index.Remove(id)

	log.Info("Geofence deleted successfully")
	return nil
}

// CheckPoint - чистая проверка по индексу без побочных эффектов
func (s *geoFenceService) CheckPoint(ctx context.Context, lat, lng float64) ([]models.FenceMatch, error) {
	matches, err := s.index.CheckPoint(lat, lng)
	if err != nil {
		return nil, err
	}
	metrics.GeofenceCheck(len(matches) > 0)
	return matches, nil
}

// Reload перечитывает все зоны из хранилища в индекс
func (s *geoFenceService) Reload(ctx context.Context) error {
	log := s.logger.WithFields(logrus.Fields{
		"service": "geofence",
		"method":  "Reload",
	})

	err := s.index.Reload(ctx, func(ctx context.Context) ([]*models.GeoFence, error) {
		var fences []*models.GeoFence
		err := withTimeout(ctx, s.timeout, log, "load geofences", func(ctx context.Context) error {
			var err error
			fences, err = s.repo.List(ctx, models.GeoFenceFilter{})
			return err
		})
		return fences, err
	})
	if err != nil {
		log.WithError(err).Error("Failed to reload geofence index")
		return fmt.Errorf("service: could not reload geofences: %w", err)
	}
	log.Info("Geofence index reloaded")
	return nil
}

func (s *geoFenceService) load(ctx context.Context, log *logrus.Entry, id uuid.UUID) (*models.GeoFence, error) {
	var fence *models.GeoFence
	err := withTimeout(ctx, s.timeout, log, "get geofence", func(ctx context.Context) error {
		var err error
		fence, err = s.repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, fenceNotFound(id)
		}
		log.WithError(err).Error("Failed to get geofence from repository")
		return nil, fmt.Errorf("service: could not get geofence: %w", err)
	}
	return fence, nil
}

// normalizeFence проверяет зону и возвращает копию с нормализованным полигоном
func normalizeFence(fence *models.GeoFence) (*models.GeoFence, error) {
	out := *fence
	out.Name = strings.TrimSpace(fence.Name)
	out.Description = strings.TrimSpace(fence.Description)

	if out.Name == "" {
		return nil, apperror.Validation(apperror.ReasonInvalidRequest, "geofence name is required").
			WithField("name", "required")
	}
	if !out.Category.Valid() {
		return nil, apperror.Validation(apperror.ReasonInvalidZoneCategory, "unknown zone category %q", out.Category).
			WithField("category", "must be one of safe_zone, restricted_zone, tourist_area")
	}

	poly, err := geo.NormalizePolygon(fence.Coordinates)
	if err != nil {
		reason := apperror.ReasonInvalidPolygon
		if errors.Is(err, geo.ErrInvalidCoordinate) {
			reason = apperror.ReasonInvalidCoordinate
		}
		return nil, apperror.Validation(reason, "invalid polygon: %v", err).WithField("coordinates", err.Error())
	}
	out.Coordinates = poly
	return &out, nil
}

func fenceNotFound(id uuid.UUID) error {
	return apperror.NotFound(apperror.ReasonFenceNotFound, "geofence %s not found", id)
}
