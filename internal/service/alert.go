package service

//go:generate mockgen -source=alert.go -destination=mocks/mock_alert.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/tourist_safety_system/internal/apperror"
	"github.com/shenikar/tourist_safety_system/internal/config"
	"github.com/shenikar/tourist_safety_system/internal/models"
	"github.com/shenikar/tourist_safety_system/pkg/geo"
	"github.com/shenikar/tourist_safety_system/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// AlertService - единственный писатель тревог, владеет автоматом состояний
type AlertService interface {
	Create(ctx context.Context, in models.NewAlert) (*models.Alert, error)
	Resolve(ctx context.Context, id uuid.UUID, actor *models.User) (*models.Alert, error)
	MarkFalseAlarm(ctx context.Context, id uuid.UUID, actor *models.User) (*models.Alert, error)
	Escalate(ctx context.Context, id uuid.UUID, actor *models.User, priority models.Priority) (*models.Alert, error)
	UpdateFields(ctx context.Context, id uuid.UUID, actor *models.User, update models.AlertUpdate) (*models.Alert, error)
}

type alertService struct {
	repo        AlertRepository
	cooldown    CooldownStore
	broadcaster Broadcaster
	logger      *logrus.Logger
	timeout     time.Duration
	locks       *keyedMutex
	now         func() time.Time
}

func NewAlertService(repo AlertRepository, cooldown CooldownStore, broadcaster Broadcaster, logger *logrus.Logger, cfg *config.Config) AlertService {
	return &alertService{
		repo:        repo,
		cooldown:    cooldown,
		broadcaster: broadcaster,
		logger:      logger,
		timeout:     cfg.OperationTimeout,
		locks:       newKeyedMutex(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create создает тревогу в статусе active и оповещает канал служб
func (s *alertService) Create(ctx context.Context, in models.NewAlert) (*models.Alert, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":   "alert",
		"method":    "Create",
		"user_id":   in.UserID,
		"category":  in.Category,
		"automatic": in.Automatic,
	})
	log.Info("Attempting to create a new alert")

	priority, err := validateNewAlert(in)
	if err != nil {
		log.WithError(err).Warn("Alert rejected by validation")
		return nil, err
	}

	now := s.now()
	alert := &models.Alert{
		ID:          uuid.New(),
		UserID:      in.UserID,
		Category:    in.Category,
		Location:    strings.TrimSpace(in.Location),
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Description: strings.TrimSpace(in.Description),
		Priority:    priority,
		Status:      models.StatusActive,
		FenceID:     in.FenceID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = withTimeout(ctx, s.timeout, log, "create alert", func(ctx context.Context) error {
		return s.repo.Create(ctx, alert)
	})
	if err != nil {
		log.WithError(err).Error("Failed to create alert in repository")
		return nil, fmt.Errorf("service: could not create alert: %w", err)
	}

	metrics.AlertCreated(string(alert.Category), in.Automatic)
	publish(ctx, s.broadcaster, s.timeout, log, models.ChannelAuthority,
		models.NewEvent(models.EventNewPanicAlert, alert))

	log.WithFields(logrus.Fields{"alert_id": alert.ID, "priority": alert.Priority}).Info("Alert created successfully")
	return alert, nil
}

// Resolve закрывает активную тревогу от имени представителя службы
func (s *alertService) Resolve(ctx context.Context, id uuid.UUID, actor *models.User) (*models.Alert, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "alert",
		"method":   "Resolve",
		"alert_id": id,
	})
	log.Info("Attempting to resolve alert")

	if !actor.IsAuthority() {
		return nil, apperror.Forbidden("only authorities can resolve alerts")
	}

	return s.mutate(ctx, log, id, func(a *models.Alert, now time.Time) (bool, error) {
		if !a.Status.CanTransitionTo(models.StatusResolved) {
			return false, invalidTransition(a, models.StatusResolved)
		}
		resolver := actor.ID
		a.Status = models.StatusResolved
		a.ResolvedBy = &resolver
		a.ResolvedAt = &now
		return true, nil
	})
}

// MarkFalseAlarm - отмена собственной активной тревоги автором
func (s *alertService) MarkFalseAlarm(ctx context.Context, id uuid.UUID, actor *models.User) (*models.Alert, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "alert",
		"method":   "MarkFalseAlarm",
		"alert_id": id,
	})
	log.Info("Attempting to cancel alert as false alarm")

	if actor == nil {
		return nil, apperror.Forbidden("only the reporter can cancel an alert")
	}

	return s.mutate(ctx, log, id, func(a *models.Alert, now time.Time) (bool, error) {
		if a.UserID != actor.ID {
			return false, apperror.Forbidden("only the reporter can cancel an alert")
		}
		if !a.Status.CanTransitionTo(models.StatusFalseAlarm) {
			return false, invalidTransition(a, models.StatusFalseAlarm)
		}
		a.Status = models.StatusFalseAlarm
		a.ResolvedAt = &now
		return true, nil
	})
}

// Escalate меняет приоритет активной тревоги; тот же уровень - успешный no-op
func (s *alertService) Escalate(ctx context.Context, id uuid.UUID, actor *models.User, priority models.Priority) (*models.Alert, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "alert",
		"method":   "Escalate",
		"alert_id": id,
		"priority": priority,
	})
	log.Info("Attempting to change alert priority")

	if !actor.IsAuthority() {
		return nil, apperror.Forbidden("only authorities can escalate alerts")
	}
	if !priority.Valid() {
		return nil, apperror.Validation(apperror.ReasonInvalidPriority, "unknown priority %q", priority).
			WithField("priority", "must be one of low, medium, high, critical")
	}

	return s.mutate(ctx, log, id, func(a *models.Alert, _ time.Time) (bool, error) {
		if a.Status != models.StatusActive {
			return false, apperror.Conflict(apperror.ReasonInvalidTransition, "alert %s is %s, priority can only change while active", a.ID, a.Status)
		}
		if a.Priority == priority {
			return false, nil
		}
		a.Priority = priority
		return true, nil
	})
}

// UpdateFields применяет изменения из разрешённого набора полей
func (s *alertService) UpdateFields(ctx context.Context, id uuid.UUID, actor *models.User, update models.AlertUpdate) (*models.Alert, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "alert",
		"method":   "UpdateFields",
		"alert_id": id,
	})
	log.Info("Attempting to update alert fields")

	if !actor.IsAuthority() {
		return nil, apperror.Forbidden("only authorities can update alerts")
	}
	if err := validateUpdate(update); err != nil {
		log.WithError(err).Warn("Alert update rejected by validation")
		return nil, err
	}

	return s.mutate(ctx, log, id, func(a *models.Alert, now time.Time) (bool, error) {
		if a.Status.Terminal() {
			return false, apperror.Conflict(apperror.ReasonInvalidTransition, "alert %s is %s and can no longer change", a.ID, a.Status)
		}
		if update.Location != nil {
			a.Location = strings.TrimSpace(*update.Location)
		}
		if update.Latitude != nil {
			a.Latitude = *update.Latitude
		}
		if update.Longitude != nil {
			a.Longitude = *update.Longitude
		}
		if !geo.ValidCoordinate(a.Latitude, a.Longitude) {
			return false, invalidCoordinate(a.Latitude, a.Longitude)
		}
		if update.Description != nil {
			a.Description = strings.TrimSpace(*update.Description)
		}
		if update.Priority != nil {
			a.Priority = *update.Priority
		}
		if update.Status != nil && *update.Status != a.Status {
			if !a.Status.CanTransitionTo(*update.Status) {
				return false, invalidTransition(a, *update.Status)
			}
			resolver := actor.ID
			a.Status = *update.Status
			a.ResolvedBy = &resolver
			a.ResolvedAt = &now
		}
		return true, nil
	})
}

// mutate загружает тревогу под блокировкой её id, применяет apply к копии,
// сохраняет и публикует результат. Публикация идёт под той же блокировкой,
// поэтому подписчики видят переходы в порядке фиксации.
func (s *alertService) mutate(ctx context.Context, log *logrus.Entry, id uuid.UUID, apply func(a *models.Alert, now time.Time) (bool, error)) (*models.Alert, error) {
	unlock := s.locks.Lock(id.String())
	defer unlock()

	var current *models.Alert
	err := withTimeout(ctx, s.timeout, log, "load alert", func(ctx context.Context) error {
		var err error
		current, err = s.repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			log.Warn("Alert not found")
			return nil, apperror.NotFound(apperror.ReasonAlertNotFound, "alert %s not found", id)
		}
		log.WithError(err).Error("Failed to load alert from repository")
		return nil, fmt.Errorf("service: could not load alert: %w", err)
	}

	now := s.now()
	updated := current.Clone()
	changed, err := apply(updated, now)
	if err != nil {
		log.WithError(err).Warn("Alert change rejected")
		return nil, err
	}
	if !changed {
		log.Info("Alert already in requested state, nothing to do")
		return current, nil
	}
	updated.UpdatedAt = now

	err = withTimeout(ctx, s.timeout, log, "update alert", func(ctx context.Context) error {
		return s.repo.Update(ctx, updated)
	})
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, apperror.NotFound(apperror.ReasonAlertNotFound, "alert %s not found", id)
		}
		log.WithError(err).Error("Failed to update alert in repository")
		return nil, fmt.Errorf("service: could not update alert: %w", err)
	}

	if updated.Status != current.Status {
		metrics.AlertTransition(string(updated.Status))
		if updated.Status.Terminal() {
			s.releaseCooldown(ctx, log, updated)
		}
	}

	event := models.NewEvent(models.EventAlertStatusUpdate, updated)
	publish(ctx, s.broadcaster, s.timeout, log, models.UserChannel(updated.UserID), event)
	publish(ctx, s.broadcaster, s.timeout, log, models.ChannelAuthority, event)

	log.WithField("status", updated.Status).Info("Alert updated successfully")
	return updated, nil
}

// releaseCooldown снимает подавление для пары (пользователь, зона), если тревога была автоматической
func (s *alertService) releaseCooldown(ctx context.Context, log *logrus.Entry, a *models.Alert) {
	if s.cooldown == nil || a.FenceID == nil {
		return
	}
	err := withTimeout(ctx, s.timeout, log, "clear cooldown", func(ctx context.Context) error {
		return s.cooldown.Clear(ctx, a.UserID, *a.FenceID)
	})
	if err != nil {
		log.WithError(err).Warn("Failed to clear geofence cooldown")
	}
}

func validateNewAlert(in models.NewAlert) (models.Priority, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return "", apperror.Validation(apperror.ReasonInvalidRequest, "reporter id is required").
			WithField("user_id", "required")
	}
	if !in.Category.Valid() {
		return "", apperror.Validation(apperror.ReasonInvalidCategory, "unknown alert category %q", in.Category).
			WithField("category", "must be one of panic, medical, crime, lost")
	}
	if !geo.ValidCoordinate(in.Latitude, in.Longitude) {
		return "", invalidCoordinate(in.Latitude, in.Longitude)
	}
	if in.Priority == "" {
		return Classify(in.Category, in.Automatic)
	}
	if !in.Priority.Valid() {
		return "", apperror.Validation(apperror.ReasonInvalidPriority, "unknown priority %q", in.Priority).
			WithField("priority", "must be one of low, medium, high, critical")
	}
	return in.Priority, nil
}

func validateUpdate(u models.AlertUpdate) error {
	if u.Empty() {
		return apperror.Validation(apperror.ReasonInvalidRequest, "no fields to update")
	}
	if u.Priority != nil && !u.Priority.Valid() {
		return apperror.Validation(apperror.ReasonInvalidPriority, "unknown priority %q", *u.Priority).
			WithField("priority", "must be one of low, medium, high, critical")
	}
	if u.Status != nil && !u.Status.Valid() {
		return apperror.Validation(apperror.ReasonInvalidStatus, "unknown alert status %q", *u.Status).
			WithField("status", "must be one of active, resolved, false_alarm")
	}
	return nil
}

func invalidTransition(a *models.Alert, to models.AlertStatus) error {
	return apperror.Conflict(apperror.ReasonInvalidTransition, "alert %s cannot move from %s to %s", a.ID, a.Status, to)
}

func invalidCoordinate(lat, lng float64) error {
	return apperror.Validation(apperror.ReasonInvalidCoordinate, "invalid coordinate (%v, %v)", lat, lng).
		WithField("latitude", "must be within [-90, 90]").
		WithField("longitude", "must be within [-180, 180]")
}
