package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/tourist_safety_system/internal/models"
	"github.com/shenikar/tourist_safety_system/internal/service"
)

type LocationRepository struct {
	mu      sync.RWMutex
	samples []*models.LocationSample
	ids     map[uuid.UUID]struct{}
}

func NewLocationRepository() service.LocationRepository {
	return &LocationRepository{ids: make(map[uuid.UUID]struct{})}
}

func (r *LocationRepository) Save(ctx context.Context, sample *models.LocationSample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sample.ID == uuid.Nil {
		sample.ID = uuid.New()
	}
	if _, exists := r.ids[sample.ID]; exists {
		return nil
	}
	c := *sample
	r.samples = append(r.samples, &c)
	r.ids[sample.ID] = struct{}{}
	return nil
}

func (r *LocationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.LocationSample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.LocationSample, 0)
	for _, s := range r.samples {
		if s.UserID == userID {
			c := *s
			result = append(result, &c)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CapturedAt.After(result[j].CapturedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *LocationRepository) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.samples[:0]
	var deleted int64
	for _, s := range r.samples {
		if s.CapturedAt.Before(before) {
			delete(r.ids, s.ID)
			deleted++
			continue
		}
		kept = append(kept, s)
	}
	for i := len(kept); i < len(r.samples); i++ {
		r.samples[i] = nil
	}
	r.samples = kept
	return deleted, nil
}

func (r *LocationRepository) CountDistinctUsers(ctx context.Context, since time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make(map[string]struct{})
	for _, s := range r.samples {
		if !s.CapturedAt.Before(since) {
			users[s.UserID] = struct{}{}
		}
	}
	return len(users), nil
}
