package geofence

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/shenikar/tourist_safety_system/internal/apperror"
	"github.com/shenikar/tourist_safety_system/internal/models"
	"github.com/shenikar/tourist_safety_system/pkg/geo"
	"golang.org/x/sync/singleflight"
)

type entry struct {
	fence *models.GeoFence
	box   geo.BBox
}

// snapshot неизменяем после публикации; записи отсортированы по ID
type snapshot struct {
	entries []entry
}

// Loader возвращает полный набор зон из хранилища
type Loader func(ctx context.Context) ([]*models.GeoFence, error)

// Index - потокобезопасный движок проверки вхождения точки в активные зоны.
// Читатели работают с атомарно опубликованным снимком без блокировок,
// писатели строят новый снимок под мьютексом (copy-on-write).
type Index struct {
	current atomic.Pointer[snapshot]
	writeMu sync.Mutex
	group   singleflight.Group
}

func NewIndex() *Index {
	idx := &Index{}
	idx.current.Store(&snapshot{})
	return idx
}

// Load полностью заменяет содержимое индекса
func (i *Index) Load(fences []*models.GeoFence) {
	i.writeMu.Lock()
	defer i.writeMu.Unlock()
	i.loadLocked(fences)
}

func (i *Index) loadLocked(fences []*models.GeoFence) {
	entries := make([]entry, 0, len(fences))
	for _, f := range fences {
		if f == nil || !f.IsActive || len(f.Coordinates) < 3 {
			continue
		}
		entries = append(entries, newEntry(f))
	}
	sortEntries(entries)
	i.current.Store(&snapshot{entries: entries})
}

// Reload загружает зоны через loader; одновременные вызовы схлопываются в один.
// Чтение хранилища и замена снимка идут под writeMu, поэтому Upsert/Remove,
// пришедшие во время загрузки, применяются поверх нового снимка.
func (i *Index) Reload(ctx context.Context, load Loader) error {
	_, err, _ := i.group.Do("reload", func() (any, error) {
		i.writeMu.Lock()
		defer i.writeMu.Unlock()

		fences, err := load(ctx)
		if err != nil {
			return nil, err
		}
		i.loadLocked(fences)
		return nil, nil
	})
	return err
}

// Upsert добавляет или заменяет зону; неактивная зона из индекса убирается
func (i *Index) Upsert(fence *models.GeoFence) {
	i.writeMu.Lock()
	defer i.writeMu.Unlock()

	old := i.current.Load().entries
	entries := make([]entry, 0, len(old)+1)
	for _, e := range old {
		if e.fence.ID != fence.ID {
			entries = append(entries, e)
		}
	}
	if fence.IsActive && len(fence.Coordinates) >= 3 {
		entries = append(entries, newEntry(fence))
	}
	sortEntries(entries)
	i.current.Store(&snapshot{entries: entries})
}

func (i *Index) Remove(id uuid.UUID) {
	i.writeMu.Lock()
	defer i.writeMu.Unlock()

	old := i.current.Load().entries
	entries := make([]entry, 0, len(old))
	for _, e := range old {
		if e.fence.ID != id {
			entries = append(entries, e)
		}
	}
	i.current.Store(&snapshot{entries: entries})
}

// Len - количество активных зон в индексе
func (i *Index) Len() int {
	return len(i.current.Load().entries)
}

// CheckPoint возвращает все активные зоны, содержащие точку, в порядке ID.
// Точка на границе считается внутренней.
func (i *Index) CheckPoint(lat, lng float64) ([]models.FenceMatch, error) {
	if !geo.ValidCoordinate(lat, lng) {
		return nil, apperror.Validation(apperror.ReasonInvalidCoordinate, "invalid coordinate (%v, %v)", lat, lng).
			WithField("latitude", "must be within [-90, 90]").
			WithField("longitude", "must be within [-180, 180]")
	}

	p := geo.Point{Latitude: lat, Longitude: lng}
	snap := i.current.Load()
	matches := make([]models.FenceMatch, 0)
	for _, e := range snap.entries {
		if !e.box.Contains(p) {
			continue
		}
		if geo.PolygonContains(e.fence.Coordinates, p) {
			matches = append(matches, models.FenceMatch{
				FenceID:  e.fence.ID,
				Name:     e.fence.Name,
				Category: e.fence.Category,
			})
		}
	}
	return matches, nil
}

func newEntry(f *models.GeoFence) entry {
	fence := *f
	fence.Coordinates = append([]geo.Point(nil), f.Coordinates...)
	return entry{fence: &fence, box: geo.BoundsOf(fence.Coordinates)}
}

func sortEntries(entries []entry) {
	sort.Slice(entries, func(a, b int) bool {
		return entries[a].fence.ID.String() < entries[b].fence.ID.String()
	})
}
