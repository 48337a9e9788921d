package service

//go:generate mockgen -source=repository.go -destination=mocks/mock_repository.go -package=mocks

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/tourist_safety_system/internal/models"
	"github.com/shenikar/tourist_safety_system/pkg/geo"
)

// ErrRecordNotFound возвращают все реализации хранилищ, когда записи нет
var ErrRecordNotFound = errors.New("record not found")

// GeoFenceRepository определяет контракт хранилища зон
type GeoFenceRepository interface {
	Create(ctx context.Context, fence *models.GeoFence) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.GeoFence, error)
	Update(ctx context.Context, fence *models.GeoFence) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter models.GeoFenceFilter) ([]*models.GeoFence, error)
}

// AlertRepository определяет контракт хранилища тревог. Физического удаления нет.
type AlertRepository interface {
	Create(ctx context.Context, alert *models.Alert) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Alert, error)
	Update(ctx context.Context, alert *models.Alert) error
	// List возвращает записи по убыванию времени создания
	List(ctx context.Context, filter models.AlertFilter) ([]*models.Alert, error)
	ListActiveInBox(ctx context.Context, box geo.BBox) ([]*models.Alert, error)
	Stats(ctx context.Context, since time.Time) (*models.AlertStats, error)
}

// LocationRepository - журнал замеров, только добавление
type LocationRepository interface {
	Save(ctx context.Context, sample *models.LocationSample) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.LocationSample, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
	CountDistinctUsers(ctx context.Context, since time.Time) (int, error)
}

// UserDirectory - чтение пользователей из внешней подсистемы авторизации
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateLastLocation(ctx context.Context, id string, lat, lng float64, at time.Time) error
}

// UserStore дополняет каталог записью, нужна только для начального наполнения
type UserStore interface {
	UserDirectory
	Upsert(ctx context.Context, user *models.User) error
}

// CooldownStore хранит последнюю автоматическую тревогу для пары (пользователь, зона)
type CooldownStore interface {
	Get(ctx context.Context, userID string, fenceID uuid.UUID) (uuid.UUID, bool, error)
	Set(ctx context.Context, userID string, fenceID uuid.UUID, alertID uuid.UUID, ttl time.Duration) error
	Clear(ctx context.Context, userID string, fenceID uuid.UUID) error
}

// Broadcaster - доставка событий подписчикам канала в реальном времени
type Broadcaster interface {
	Publish(ctx context.Context, channel string, event models.Event) error
}
