package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shenikar/tourist_safety_system/internal/models"
	"github.com/shenikar/tourist_safety_system/internal/service"
	"github.com/shenikar/tourist_safety_system/pkg/geo"
)

// GeoFenceRepository - потокобезопасное хранилище зон в памяти процесса
type GeoFenceRepository struct {
	mu     sync.RWMutex
	fences map[uuid.UUID]*models.GeoFence
}

func NewGeoFenceRepository() service.GeoFenceRepository {
	return &GeoFenceRepository{fences: make(map[uuid.UUID]*models.GeoFence)}
}

func (r *GeoFenceRepository) Create(ctx context.Context, fence *models.GeoFence) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if fence.ID == uuid.Nil {
		fence.ID = uuid.New()
	}
	r.fences[fence.ID] = cloneFence(fence)
	return nil
}

func (r *GeoFenceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.GeoFence, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fence, ok := r.fences[id]
	if !ok {
		return nil, service.ErrRecordNotFound
	}
	return cloneFence(fence), nil
}

func (r *GeoFenceRepository) Update(ctx context.Context, fence *models.GeoFence) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.fences[fence.ID]; !ok {
		return service.ErrRecordNotFound
	}
	r.fences[fence.ID] = cloneFence(fence)
	return nil
}

func (r *GeoFenceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.fences[id]; !ok {
		return service.ErrRecordNotFound
	}
	delete(r.fences, id)
	return nil
}

// List возвращает зоны по времени создания
func (r *GeoFenceRepository) List(ctx context.Context, filter models.GeoFenceFilter) ([]*models.GeoFence, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fences := make([]*models.GeoFence, 0, len(r.fences))
	for _, f := range r.fences {
		if filter.Match(f) {
			fences = append(fences, cloneFence(f))
		}
	}
	sort.Slice(fences, func(i, j int) bool {
		if !fences[i].CreatedAt.Equal(fences[j].CreatedAt) {
			return fences[i].CreatedAt.Before(fences[j].CreatedAt)
		}
		return fences[i].ID.String() < fences[j].ID.String()
	})
	return fences, nil
}

func cloneFence(f *models.GeoFence) *models.GeoFence {
	c := *f
	c.Coordinates = append([]geo.Point(nil), f.Coordinates...)
	return &c
}
