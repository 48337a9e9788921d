package service_test

import (
	"context"
	"io"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/tourist_safety_system/internal/apperror"
	"github.com/shenikar/tourist_safety_system/internal/config"
	"github.com/shenikar/tourist_safety_system/internal/geofence"
	"github.com/shenikar/tourist_safety_system/internal/models"
	"github.com/shenikar/tourist_safety_system/internal/repository/memory"
	"github.com/shenikar/tourist_safety_system/internal/service"
	"github.com/shenikar/tourist_safety_system/pkg/geo"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder запоминает все опубликованные события
type recorder struct {
	mu     sync.Mutex
	events map[string][]models.Event
}

func (r *recorder) Publish(_ context.Context, channel string, event models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[channel] = append(r.events[channel], event)
	return nil
}

func (r *recorder) ofType(channel, eventType string) []models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Event
	for _, e := range r.events[channel] {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type engine struct {
	users    service.UserStore
	fences   service.GeoFenceService
	alerts   service.AlertService
	queries  service.AlertQueryService
	tracker  service.LocationTracker
	recorder *recorder
}

var (
	touristA  = &models.User{ID: "tourist-a", Role: models.RoleTourist, Name: "Anna"}
	touristB  = &models.User{ID: "tourist-b", Role: models.RoleTourist, Name: "Boris"}
	officer   = &models.User{ID: "officer-1", Role: models.RoleAuthority, Name: "Officer"}
	f1Polygon = []geo.Point{
		{Latitude: 12.97, Longitude: 77.59},
		{Latitude: 12.98, Longitude: 77.59},
		{Latitude: 12.98, Longitude: 77.60},
		{Latitude: 12.97, Longitude: 77.60},
	}
)

func newEngine(t *testing.T, cooldown time.Duration) *engine {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	cfg := &config.Config{
		OperationTimeout: time.Second,
		GeofenceCooldown: cooldown,
		StatsWindowDays:  7,
	}

	users := memory.NewUserDirectory()
	for _, u := range []*models.User{touristA, touristB, officer} {
		require.NoError(t, users.Upsert(context.Background(), u))
	}

	alertRepo := memory.NewAlertRepository()
	locations := memory.NewLocationRepository()
	cooldownStore := memory.NewCooldownStore(time.Minute)
	rec := &recorder{events: make(map[string][]models.Event)}
	index := geofence.NewIndex()

	alerts := service.NewAlertService(alertRepo, cooldownStore, rec, logger, cfg)
	return &engine{
		users:   users,
		fences:  service.NewGeoFenceService(memory.NewGeoFenceRepository(), index, logger, cfg),
		alerts:  alerts,
		queries: service.NewAlertQueryService(alertRepo, locations, logger, cfg),
		tracker: service.NewLocationTracker(service.TrackerDeps{
			Locations:   locations,
			Users:       users,
			Index:       index,
			Alerts:      alerts,
			AlertRepo:   alertRepo,
			Cooldown:    cooldownStore,
			Broadcaster: rec,
		}, logger, cfg),
		recorder: rec,
	}
}

func (e *engine) createFence(t *testing.T, name string, category models.ZoneCategory) *models.GeoFence {
	t.Helper()
	fence, err := e.fences.Create(context.Background(), officer, &models.GeoFence{
		Name:        name,
		Category:    category,
		IsActive:    true,
		Coordinates: f1Polygon,
	})
	require.NoError(t, err)
	return fence
}

func TestScenario_RestrictedZoneAlertWithCooldown(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, 15*time.Minute)
	f1 := e.createFence(t, "F1", models.ZoneRestricted)

	matches, err := e.fences.CheckPoint(ctx, 12.975, 77.595)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, f1.ID, matches[0].FenceID)

	first, err := e.tracker.Ingest(ctx, touristA.ID, 12.975, 77.595, nil)
	require.NoError(t, err)
	require.Len(t, first.Alerts, 1)
	alert := first.Alerts[0]
	assert.Equal(t, models.CategoryCrime, alert.Category)
	assert.Equal(t, models.PriorityHigh, alert.Priority)
	assert.Contains(t, alert.Description, "F1")
	require.NotNil(t, alert.FenceID)
	assert.Equal(t, f1.ID, *alert.FenceID)

	second, err := e.tracker.Ingest(ctx, touristA.ID, 12.975, 77.595, nil)
	require.NoError(t, err)
	assert.Empty(t, second.Alerts)
	assert.Equal(t, 1, second.Suppressed)

	active, err := e.queries.ListActive(ctx, models.AlertFilter{UserID: touristA.ID})
	require.NoError(t, err)
	assert.Len(t, active, 1)

	assert.Len(t, e.recorder.ofType(models.ChannelAuthority, models.EventNewPanicAlert), 1)
	assert.Len(t, e.recorder.ofType(models.ChannelAuthority, models.EventTouristLocationUpdate), 2)
}

func TestScenario_CooldownReleasedByResolve(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, 15*time.Minute)
	e.createFence(t, "F1", models.ZoneRestricted)

	first, err := e.tracker.Ingest(ctx, touristA.ID, 12.975, 77.595, nil)
	require.NoError(t, err)
	require.Len(t, first.Alerts, 1)

	_, err = e.alerts.Resolve(ctx, first.Alerts[0].ID, officer)
	require.NoError(t, err)

	next, err := e.tracker.Ingest(ctx, touristA.ID, 12.975, 77.595, nil)
	require.NoError(t, err)
	assert.Len(t, next.Alerts, 1, "resolved alert no longer suppresses")
}

func TestScenario_CooldownWindowElapses(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, 50*time.Millisecond)
	e.createFence(t, "F1", models.ZoneRestricted)

	for i := 0; i < 5; i++ {
		_, err := e.tracker.Ingest(ctx, touristA.ID, 12.975, 77.595, nil)
		require.NoError(t, err)
	}
	active, err := e.queries.ListActive(ctx, models.AlertFilter{UserID: touristA.ID})
	require.NoError(t, err)
	require.Len(t, active, 1)

	time.Sleep(100 * time.Millisecond)

	res, err := e.tracker.Ingest(ctx, touristA.ID, 12.975, 77.595, nil)
	require.NoError(t, err)
	assert.Len(t, res.Alerts, 1)
}

func TestScenario_ConcurrentSamplesRaiseSingleAlert(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, 15*time.Minute)
	e.createFence(t, "F1", models.ZoneRestricted)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.tracker.Ingest(ctx, touristA.ID, 12.975, 77.595, nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	active, err := e.queries.ListActive(ctx, models.AlertFilter{UserID: touristA.ID})
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestScenario_CooldownIsPerUserAndNonRestrictedZonesDoNotAlert(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, 15*time.Minute)
	e.createFence(t, "F1", models.ZoneRestricted)
	e.createFence(t, "Market", models.ZoneTouristArea)

	a, err := e.tracker.Ingest(ctx, touristA.ID, 12.975, 77.595, nil)
	require.NoError(t, err)
	b, err := e.tracker.Ingest(ctx, touristB.ID, 12.975, 77.595, nil)
	require.NoError(t, err)

	assert.Len(t, a.Matches, 2)
	assert.Len(t, a.Alerts, 1)
	assert.Len(t, b.Alerts, 1)
}

func TestIngest_Errors(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, time.Minute)

	_, err := e.tracker.Ingest(ctx, "ghost", 1, 1, nil)
	assert.Equal(t, apperror.ReasonUserNotFound, apperror.ReasonOf(err))

	_, err = e.tracker.Ingest(ctx, touristA.ID, math.NaN(), 1, nil)
	assert.Equal(t, apperror.ReasonInvalidCoordinate, apperror.ReasonOf(err))

	negative := -5.0
	_, err = e.tracker.Ingest(ctx, touristA.ID, 1, 1, &negative)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestIngest_RecordsHistoryAndSnapshot(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, time.Minute)
	accuracy := 8.0

	_, err := e.tracker.Ingest(ctx, touristA.ID, 10, 20, &accuracy)
	require.NoError(t, err)
	_, err = e.tracker.Ingest(ctx, touristA.ID, 10.5, 20.5, nil)
	require.NoError(t, err)

	history, err := e.tracker.ListHistory(ctx, touristA.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)

	u, err := e.users.GetUser(ctx, touristA.ID)
	require.NoError(t, err)
	require.NotNil(t, u.LastLatitude)
	assert.Equal(t, 10.5, *u.LastLatitude)

	deleted, err := e.tracker.PruneHistory(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
}

func TestScenario_ManualPanicThenResolve(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, time.Minute)

	alert, err := e.alerts.Create(ctx, models.NewAlert{
		UserID: touristA.ID, Category: models.CategoryPanic, Latitude: 12.9, Longitude: 77.5,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityCritical, alert.Priority)
	assert.Equal(t, models.StatusActive, alert.Status)

	resolved, err := e.alerts.Resolve(ctx, alert.ID, officer)
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, officer.ID, *resolved.ResolvedBy)
	assert.NotNil(t, resolved.ResolvedAt)

	_, err = e.alerts.Resolve(ctx, alert.ID, officer)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	updates := e.recorder.ofType(models.UserChannel(touristA.ID), models.EventAlertStatusUpdate)
	require.Len(t, updates, 1)
	assert.Equal(t, models.StatusResolved, updates[0].Data.(*models.Alert).Status)
}

func TestScenario_RadiusQuery(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, time.Minute)
	center := geo.Point{Latitude: 12.97, Longitude: 77.59}

	kmToLat := func(km float64) float64 { return km / geo.EarthRadiusKm * 180 / math.Pi }
	created := make(map[float64]uuid.UUID)
	for _, km := range []float64{10, 1, 4} {
		a, err := e.alerts.Create(ctx, models.NewAlert{
			UserID: touristA.ID, Category: models.CategoryLost,
			Latitude: center.Latitude + kmToLat(km), Longitude: center.Longitude,
		})
		require.NoError(t, err)
		created[km] = a.ID
	}

	result, err := e.queries.ListByRadius(ctx, center.Latitude, center.Longitude, 5)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, created[1], result[0].Alert.ID)
	assert.Equal(t, created[4], result[1].Alert.ID)
	assert.InDelta(t, 1.0, result[0].DistanceKm, 0.001)
	assert.InDelta(t, 4.0, result[1].DistanceKm, 0.001)

	_, err = e.queries.ListByRadius(ctx, center.Latitude, center.Longitude, 0)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestScenario_RadiusQueryHighLatitudeEdge(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, time.Minute)

	// у восточного края круга радиусом 1000 км вокруг (60, 0)
	a, err := e.alerts.Create(ctx, models.NewAlert{
		UserID: touristA.ID, Category: models.CategoryLost,
		Latitude: 61.2592, Longitude: 18.118,
	})
	require.NoError(t, err)

	result, err := e.queries.ListByRadius(ctx, 60, 0, 1000)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, a.ID, result[0].Alert.ID)
	assert.Less(t, result[0].DistanceKm, 1000.0)
}

func TestOwnership_MarkFalseAlarm(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, time.Minute)

	callers := []struct {
		name    string
		user    *models.User
		allowed bool
	}{
		{"other tourist", touristB, false},
		{"authority", officer, false},
		{"same id different role", &models.User{ID: touristA.ID, Role: models.RoleAuthority}, true},
		{"reporter", touristA, true},
	}

	for _, c := range callers {
		t.Run(c.name, func(t *testing.T) {
			alert, err := e.alerts.Create(ctx, models.NewAlert{
				UserID: touristA.ID, Category: models.CategoryMedical, Latitude: 1, Longitude: 1,
			})
			require.NoError(t, err)

			got, err := e.alerts.MarkFalseAlarm(ctx, alert.ID, c.user)
			if c.allowed {
				require.NoError(t, err)
				assert.Equal(t, models.StatusFalseAlarm, got.Status)
				return
			}
			assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
		})
	}
}

func TestStateMachine_TerminalStatesAreFinal(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, time.Minute)

	finish := map[models.AlertStatus]func(id uuid.UUID) error{
		models.StatusResolved: func(id uuid.UUID) error {
			_, err := e.alerts.Resolve(ctx, id, officer)
			return err
		},
		models.StatusFalseAlarm: func(id uuid.UUID) error {
			_, err := e.alerts.MarkFalseAlarm(ctx, id, touristA)
			return err
		},
	}

	active := models.StatusActive
	resolved := models.StatusResolved
	desc := "late edit"
	attempts := map[string]func(id uuid.UUID) error{
		"resolve": func(id uuid.UUID) error {
			_, err := e.alerts.Resolve(ctx, id, officer)
			return err
		},
		"false alarm": func(id uuid.UUID) error {
			_, err := e.alerts.MarkFalseAlarm(ctx, id, touristA)
			return err
		},
		"escalate": func(id uuid.UUID) error {
			_, err := e.alerts.Escalate(ctx, id, officer, models.PriorityLow)
			return err
		},
		"reactivate": func(id uuid.UUID) error {
			_, err := e.alerts.UpdateFields(ctx, id, officer, models.AlertUpdate{Status: &active})
			return err
		},
		"update status": func(id uuid.UUID) error {
			_, err := e.alerts.UpdateFields(ctx, id, officer, models.AlertUpdate{Status: &resolved})
			return err
		},
		"update description": func(id uuid.UUID) error {
			_, err := e.alerts.UpdateFields(ctx, id, officer, models.AlertUpdate{Description: &desc})
			return err
		},
	}

	for status, terminate := range finish {
		for name, attempt := range attempts {
			t.Run(string(status)+"/"+name, func(t *testing.T) {
				alert, err := e.alerts.Create(ctx, models.NewAlert{
					UserID: touristA.ID, Category: models.CategoryCrime, Latitude: 1, Longitude: 1,
				})
				require.NoError(t, err)
				require.NoError(t, terminate(alert.ID))

				err = attempt(alert.ID)
				assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

				got, err := e.queries.Get(ctx, officer, alert.ID)
				require.NoError(t, err)
				assert.Equal(t, status, got.Status)
			})
		}
	}
}

func TestEscalateAndUpdateFields(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, time.Minute)

	alert, err := e.alerts.Create(ctx, models.NewAlert{
		UserID: touristA.ID, Category: models.CategoryLost, Latitude: 1, Longitude: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityMedium, alert.Priority)

	_, err = e.alerts.Escalate(ctx, alert.ID, touristA, models.PriorityHigh)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	escalated, err := e.alerts.Escalate(ctx, alert.ID, officer, models.PriorityHigh)
	require.NoError(t, err)
	assert.Equal(t, models.PriorityHigh, escalated.Priority)

	before := len(e.recorder.ofType(models.ChannelAuthority, models.EventAlertStatusUpdate))
	_, err = e.alerts.Escalate(ctx, alert.ID, officer, models.PriorityHigh)
	require.NoError(t, err)
	assert.Len(t, e.recorder.ofType(models.ChannelAuthority, models.EventAlertStatusUpdate), before, "no-op escalation publishes nothing")

	lat, label := 2.0, "Old fort"
	updated, err := e.alerts.UpdateFields(ctx, alert.ID, officer, models.AlertUpdate{Latitude: &lat, Location: &label})
	require.NoError(t, err)
	assert.Equal(t, 2.0, updated.Latitude)
	assert.Equal(t, "Old fort", updated.Location)
	assert.Equal(t, touristA.ID, updated.UserID)

	badLat := 100.0
	_, err = e.alerts.UpdateFields(ctx, alert.ID, officer, models.AlertUpdate{Latitude: &badLat})
	assert.Equal(t, apperror.ReasonInvalidCoordinate, apperror.ReasonOf(err))

	falseAlarm := models.StatusFalseAlarm
	closed, err := e.alerts.UpdateFields(ctx, alert.ID, officer, models.AlertUpdate{Status: &falseAlarm})
	require.NoError(t, err)
	assert.Equal(t, models.StatusFalseAlarm, closed.Status)
	require.NotNil(t, closed.ResolvedBy)
	assert.Equal(t, officer.ID, *closed.ResolvedBy)
}

func TestQuery_VisibilityFiltersAndStats(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, time.Minute)

	mine, err := e.alerts.Create(ctx, models.NewAlert{UserID: touristA.ID, Category: models.CategoryPanic, Latitude: 1, Longitude: 1})
	require.NoError(t, err)
	_, err = e.alerts.Create(ctx, models.NewAlert{UserID: touristB.ID, Category: models.CategoryLost, Latitude: 1, Longitude: 1})
	require.NoError(t, err)
	_, err = e.tracker.Ingest(ctx, touristB.ID, 5, 5, nil)
	require.NoError(t, err)

	_, err = e.queries.Get(ctx, touristB, mine.ID)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
	_, err = e.queries.Get(ctx, touristA, mine.ID)
	assert.NoError(t, err)
	_, err = e.queries.Get(ctx, officer, uuid.New())
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	critical := models.PriorityCritical
	filtered, err := e.queries.ListActive(ctx, models.AlertFilter{Priority: &critical})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, mine.ID, filtered[0].ID)

	own, err := e.queries.ListByUser(ctx, touristB.ID)
	require.NoError(t, err)
	assert.Len(t, own, 1)

	stats, err := e.queries.AggregateStats(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 7, stats.WindowDays)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByCategory[models.CategoryPanic])
	assert.Equal(t, 2, stats.ByStatus[models.StatusActive])
	assert.Equal(t, 1, stats.ActiveUsers)
	require.Len(t, stats.ByDay, 1)
	assert.Equal(t, 2, stats.ByDay[0].Count)
}

func TestGeoFenceService_LifecycleAndValidation(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, time.Minute)

	_, err := e.fences.Create(ctx, touristA, &models.GeoFence{Name: "x", Category: models.ZoneSafe, Coordinates: f1Polygon})
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	bowtie := []geo.Point{{Latitude: 0, Longitude: 0}, {Latitude: 1, Longitude: 1}, {Latitude: 1, Longitude: 0}, {Latitude: 0, Longitude: 1}}
	_, err = e.fences.Create(ctx, officer, &models.GeoFence{Name: "bad", Category: models.ZoneSafe, Coordinates: bowtie})
	assert.Equal(t, apperror.ReasonInvalidPolygon, apperror.ReasonOf(err))

	_, err = e.fences.Create(ctx, officer, &models.GeoFence{Name: "bad", Category: "danger", Coordinates: f1Polygon})
	assert.Equal(t, apperror.ReasonInvalidZoneCategory, apperror.ReasonOf(err))

	fence := e.createFence(t, "Park", models.ZoneSafe)

	fence.IsActive = false
	_, err = e.fences.Update(ctx, officer, fence)
	require.NoError(t, err)
	matches, err := e.fences.CheckPoint(ctx, 12.975, 77.595)
	require.NoError(t, err)
	assert.Empty(t, matches, "deactivated fence disappears from the index")

	inactive := false
	list, err := e.fences.List(ctx, models.GeoFenceFilter{Active: &inactive})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, e.fences.Delete(ctx, officer, fence.ID))
	_, err = e.fences.Get(ctx, fence.ID)
	assert.Equal(t, apperror.ReasonFenceNotFound, apperror.ReasonOf(err))
	err = e.fences.Delete(ctx, officer, fence.ID)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	require.NoError(t, e.fences.Reload(ctx))
}
