package models

import (
	"time"

	"github.com/google/uuid"
)

type Alert struct {
	ID          uuid.UUID     `json:"id"`
	UserID      string        `json:"user_id"`
	Category    AlertCategory `json:"category"`
	Location    string        `json:"location,omitempty"`
	Latitude    float64       `json:"latitude"`
	Longitude   float64       `json:"longitude"`
	Description string        `json:"description,omitempty"`
	Priority    Priority      `json:"priority"`
	Status      AlertStatus   `json:"status"`
	FenceID     *uuid.UUID    `json:"fence_id,omitempty"`
	ResolvedBy  *string       `json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time    `json:"resolved_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Clone возвращает независимую копию, указатели тоже копируются
func (a *Alert) Clone() *Alert {
	if a == nil {
		return nil
	}
	c := *a
	if a.FenceID != nil {
		id := *a.FenceID
		c.FenceID = &id
	}
	if a.ResolvedBy != nil {
		by := *a.ResolvedBy
		c.ResolvedBy = &by
	}
	if a.ResolvedAt != nil {
		at := *a.ResolvedAt
		c.ResolvedAt = &at
	}
	return &c
}

// NewAlert - входные данные для создания тревоги
type NewAlert struct {
	UserID      string
	Category    AlertCategory
	Location    string
	Latitude    float64
	Longitude   float64
	Description string
	// Priority пустой - приоритет вычисляется классификатором
	Priority  Priority
	FenceID   *uuid.UUID
	Automatic bool
}

// AlertUpdate - разрешённый набор изменяемых полей.
// UserID и CreatedAt сюда не входят и не меняются никогда.
type AlertUpdate struct {
	Location    *string
	Latitude    *float64
	Longitude   *float64
	Description *string
	Priority    *Priority
	Status      *AlertStatus
}

func (u AlertUpdate) Empty() bool {
	return u.Location == nil && u.Latitude == nil && u.Longitude == nil &&
		u.Description == nil && u.Priority == nil && u.Status == nil
}

// AlertFilter - условия объединяются через AND
type AlertFilter struct {
	UserID   string
	Category *AlertCategory
	Priority *Priority
	Status   *AlertStatus
	Since    *time.Time
	Limit    int
	Offset   int
}

func (f AlertFilter) Match(a *Alert) bool {
	if f.UserID != "" && a.UserID != f.UserID {
		return false
	}
	if f.Category != nil && a.Category != *f.Category {
		return false
	}
	if f.Priority != nil && a.Priority != *f.Priority {
		return false
	}
	if f.Status != nil && a.Status != *f.Status {
		return false
	}
	if f.Since != nil && a.CreatedAt.Before(*f.Since) {
		return false
	}
	return true
}

// AlertDistance - тревога и расстояние до точки запроса
type AlertDistance struct {
	Alert      *Alert  `json:"alert"`
	DistanceKm float64 `json:"distance_km"`
}

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type AlertStats struct {
	WindowDays  int                   `json:"window_days"`
	Since       time.Time             `json:"since"`
	Total       int                   `json:"total"`
	ByCategory  map[AlertCategory]int `json:"by_category"`
	ByPriority  map[Priority]int      `json:"by_priority"`
	ByStatus    map[AlertStatus]int   `json:"by_status"`
	ByDay       []DayCount            `json:"by_day"`
	ActiveUsers int                   `json:"active_users"`
}

// NewAlertStats заполняет все значения перечислений нулями, чтобы ответ имел стабильную форму
func NewAlertStats(windowDays int, since time.Time) *AlertStats {
	s := &AlertStats{
		WindowDays: windowDays,
		Since:      since,
		ByCategory: make(map[AlertCategory]int, len(AlertCategories)),
		ByPriority: make(map[Priority]int, len(Priorities)),
		ByStatus:   make(map[AlertStatus]int, len(AlertStatuses)),
		ByDay:      make([]DayCount, 0),
	}
	for _, c := range AlertCategories {
		s.ByCategory[c] = 0
	}
	for _, p := range Priorities {
		s.ByPriority[p] = 0
	}
	for _, st := range AlertStatuses {
		s.ByStatus[st] = 0
	}
	return s
}
