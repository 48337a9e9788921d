package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/tourist_safety_system/internal/models"
	"github.com/shenikar/tourist_safety_system/internal/service"
	"github.com/shenikar/tourist_safety_system/pkg/geo"
)

type AlertRepository struct {
	mu     sync.RWMutex
	alerts map[uuid.UUID]*models.Alert
}

func NewAlertRepository() service.AlertRepository {
	return &AlertRepository{alerts: make(map[uuid.UUID]*models.Alert)}
}

// Create идемпотентен по ID: повторная вставка той же тревоги ничего не меняет
func (r *AlertRepository) Create(ctx context.Context, alert *models.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}
	if _, exists := r.alerts[alert.ID]; exists {
		return nil
	}
	r.alerts[alert.ID] = alert.Clone()
	return nil
}

func (r *AlertRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	alert, ok := r.alerts[id]
	if !ok {
		return nil, service.ErrRecordNotFound
	}
	return alert.Clone(), nil
}

func (r *AlertRepository) Update(ctx context.Context, alert *models.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.alerts[alert.ID]
	if !ok {
		return service.ErrRecordNotFound
	}
	updated := alert.Clone()
	// автор и время создания не меняются
	updated.UserID = existing.UserID
	updated.CreatedAt = existing.CreatedAt
	r.alerts[alert.ID] = updated
	return nil
}

func (r *AlertRepository) List(ctx context.Context, filter models.AlertFilter) ([]*models.Alert, error) {
	r.mu.RLock()
	matched := make([]*models.Alert, 0)
	for _, a := range r.alerts {
		if filter.Match(a) {
			matched = append(matched, a.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []*models.Alert{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (r *AlertRepository) ListActiveInBox(ctx context.Context, box geo.BBox) ([]*models.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Alert, 0)
	for _, a := range r.alerts {
		if a.Status == models.StatusActive && box.Contains(geo.Point{Latitude: a.Latitude, Longitude: a.Longitude}) {
			result = append(result, a.Clone())
		}
	}
	return result, nil
}

func (r *AlertRepository) Stats(ctx context.Context, since time.Time) (*models.AlertStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := models.NewAlertStats(0, since)
	days := make(map[string]int)
	for _, a := range r.alerts {
		if a.CreatedAt.Before(since) {
			continue
		}
		stats.Total++
		stats.ByCategory[a.Category]++
		stats.ByPriority[a.Priority]++
		stats.ByStatus[a.Status]++
		days[a.CreatedAt.UTC().Format(time.DateOnly)]++
	}

	for day, count := range days {
		stats.ByDay = append(stats.ByDay, models.DayCount{Date: day, Count: count})
	}
	sort.Slice(stats.ByDay, func(i, j int) bool { return stats.ByDay[i].Date < stats.ByDay[j].Date })
	return stats, nil
}
