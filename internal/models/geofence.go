package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/tourist_safety_system/pkg/geo"
)

// GeoFence - именованный полигон с категорией безопасности
type GeoFence struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Coordinates []geo.Point  `json:"coordinates"`
	Category    ZoneCategory `json:"category"`
	IsActive    bool         `json:"is_active"`
	Description string       `json:"description,omitempty"`
	CreatedBy   string       `json:"created_by,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// GeoFenceFilter - условия выборки зон, nil означает "без ограничения"
type GeoFenceFilter struct {
	Category *ZoneCategory
	Active   *bool
}

func (f GeoFenceFilter) Match(fence *GeoFence) bool {
	if f.Category != nil && fence.Category != *f.Category {
		return false
	}
	if f.Active != nil && fence.IsActive != *f.Active {
		return false
	}
	return true
}

// FenceMatch - результат проверки точки
type FenceMatch struct {
	FenceID  uuid.UUID    `json:"fence_id"`
	Name     string       `json:"name"`
	Category ZoneCategory `json:"category"`
}
