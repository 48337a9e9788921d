package v1

import (
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/tourist_safety_system/internal/models"
	"github.com/shenikar/tourist_safety_system/pkg/geo"
)

// CreateAlertRequest DTO для ручной тревоги
// @Description DTO для ручной тревоги; приоритет вычисляется сервером
type CreateAlertRequest struct {
	Category    string   `json:"category" validate:"required"`
	Location    string   `json:"location,omitempty" validate:"max=255"`
	Latitude    *float64 `json:"latitude" validate:"required,latitude"`
	Longitude   *float64 `json:"longitude" validate:"required,longitude"`
	Description string   `json:"description,omitempty" validate:"max=2000"`
}

// UpdateAlertRequest DTO частичного обновления; неизвестные поля отклоняются
// @Description Разрешены только location, latitude, longitude, description, priority, status
type UpdateAlertRequest struct {
	Location    *string  `json:"location,omitempty" validate:"omitempty,max=255"`
	Latitude    *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=2000"`
	Priority    *string  `json:"priority,omitempty"`
	Status      *string  `json:"status,omitempty"`
}

// UpdateStatusRequest DTO смены статуса тревоги службой
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=resolved false_alarm"`
}

// EscalateRequest DTO смены приоритета
type EscalateRequest struct {
	Priority string `json:"priority" validate:"required"`
}

// AlertResponse DTO для ответа с информацией о тревоге
// @Description DTO для ответа с информацией о тревоге
type AlertResponse struct {
	ID          uuid.UUID  `json:"id"`
	UserID      string     `json:"user_id"`
	Category    string     `json:"category"`
	Location    string     `json:"location,omitempty"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	FenceID     *uuid.UUID `json:"fence_id,omitempty"`
	ResolvedBy  *string    `json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	DistanceKm  *float64   `json:"distance_km,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// StatsResponse DTO для ответа со статистикой
// @Description Агрегаты по тревогам за окно и число активных пользователей
type StatsResponse struct {
	WindowDays  int                          `json:"window_days"`
	Since       time.Time                    `json:"since"`
	Total       int                          `json:"total"`
	ByCategory  map[models.AlertCategory]int `json:"by_category"`
	ByPriority  map[models.Priority]int      `json:"by_priority"`
	ByStatus    map[models.AlertStatus]int   `json:"by_status"`
	ByDay       []models.DayCount            `json:"by_day"`
	ActiveUsers int                          `json:"active_users"`
}

// GeoFenceRequest DTO для создания и изменения зоны
// @Description Полигон задаётся списком вершин {lat, lng}; замыкающая вершина необязательна
type GeoFenceRequest struct {
	Name        string      `json:"name" validate:"required,min=1,max=255"`
	Coordinates []geo.Point `json:"coordinates" validate:"required,min=3"`
	Category    string      `json:"category" validate:"required"`
	IsActive    *bool       `json:"is_active,omitempty"`
	Description string      `json:"description,omitempty" validate:"max=2000"`
}

// GeoFenceResponse DTO для ответа с информацией о зоне
type GeoFenceResponse struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Coordinates []geo.Point `json:"coordinates"`
	Category    string      `json:"category"`
	IsActive    bool        `json:"is_active"`
	Description string      `json:"description,omitempty"`
	CreatedBy   string      `json:"created_by,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// PointRequest DTO для проверки точки и замера местоположения
// @Description DTO для проверки координат
type PointRequest struct {
	Latitude  *float64 `json:"lat" validate:"required,latitude"`
	Longitude *float64 `json:"lng" validate:"required,longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty" validate:"omitempty,gte=0"`
}

// CheckPointResponse - совпавшие зоны; для туриста также результат обработки замера
type CheckPointResponse struct {
	Matches    []models.FenceMatch `json:"matches"`
	Alerts     []*AlertResponse    `json:"alerts,omitempty"`
	Suppressed int                 `json:"suppressed,omitempty"`
}

// LocationResponse DTO результата обработки замера
type LocationResponse struct {
	Sample     *models.LocationSample `json:"sample"`
	Matches    []models.FenceMatch    `json:"matches"`
	Alerts     []*AlertResponse       `json:"alerts"`
	Suppressed int                    `json:"suppressed"`
}

// PanicAlertFrame - полезная нагрузка WebSocket-кадра panic_alert
type PanicAlertFrame struct {
	Category    string   `json:"category" validate:"required"`
	Location    string   `json:"location,omitempty" validate:"max=255"`
	Latitude    *float64 `json:"lat" validate:"required,latitude"`
	Longitude   *float64 `json:"lng" validate:"required,longitude"`
	Description string   `json:"description,omitempty" validate:"max=2000"`
}
