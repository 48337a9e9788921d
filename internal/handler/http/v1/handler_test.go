package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shenikar/tourist_safety_system/internal/apperror"
	"github.com/shenikar/tourist_safety_system/internal/config"
	"github.com/shenikar/tourist_safety_system/internal/models"
	"github.com/shenikar/tourist_safety_system/internal/service"
	"github.com/shenikar/tourist_safety_system/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	tourist   = &models.User{ID: "tourist-1", Role: models.RoleTourist}
	officer   = &models.User{ID: "officer-1", Role: models.RoleAuthority}
	asTourist = map[string]string{"X-User-ID": tourist.ID}
	asOfficer = map[string]string{"X-User-ID": officer.ID}
)

type testDeps struct {
	alerts    *mocks.MockAlertService
	queries   *mocks.MockAlertQueryService
	geofences *mocks.MockGeoFenceService
	tracker   *mocks.MockLocationTracker
	users     *mocks.MockUserDirectory
}

// newTestHandler создает Handler с мокированными сервисами и каталогом из двух пользователей
func newTestHandler(t *testing.T, configure ...func(*config.Config)) (*Handler, *testDeps, *gin.Engine) {
	ctrl := gomock.NewController(t)
	deps := &testDeps{
		alerts:    mocks.NewMockAlertService(ctrl),
		queries:   mocks.NewMockAlertQueryService(ctrl),
		geofences: mocks.NewMockGeoFenceService(ctrl),
		tracker:   mocks.NewMockLocationTracker(ctrl),
		users:     mocks.NewMockUserDirectory(ctrl),
	}
	deps.users.EXPECT().GetUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id string) (*models.User, error) {
			switch id {
			case tourist.ID:
				return tourist, nil
			case officer.ID:
				return officer, nil
			}
			return nil, service.ErrRecordNotFound
		}).AnyTimes()

	logger := logrus.New()
	logger.SetOutput(io.Discard) // Отключаем вывод логов в тестах

	cfg := &config.Config{}
	for _, fn := range configure {
		fn(cfg)
	}

	handler := NewHandler(Services{
		Alerts:    deps.alerts,
		Queries:   deps.queries,
		GeoFences: deps.geofences,
		Tracker:   deps.tracker,
		Users:     deps.users,
	}, nil, logger, cfg)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler.RegisterRoutes(router.Group("/api/v1"))

	return handler, deps, router
}

// makeRequest - вспомогательная функция для выполнения HTTP-запросов
func makeRequest(router *gin.Engine, method, url string, body any, headers ...map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewBuffer(raw)
	}

	req := httptest.NewRequest(method, url, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range headers {
		for key, value := range h {
			req.Header.Set(key, value)
		}
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Reason  string            `json:"reason"`
	Fields  map[string]string `json:"fields"`
	Data    json.RawMessage   `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func ptr[T any](v T) *T { return &v }

func sampleAlert(status models.AlertStatus) *models.Alert {
	now := time.Now().UTC()
	return &models.Alert{
		ID:        uuid.New(),
		UserID:    tourist.ID,
		Category:  models.CategoryPanic,
		Latitude:  12.975,
		Longitude: 77.595,
		Priority:  models.PriorityCritical,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateAlert_Success(t *testing.T) {
	_, deps, router := newTestHandler(t)
	created := sampleAlert(models.StatusActive)

	deps.alerts.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, in models.NewAlert) (*models.Alert, error) {
			assert.Equal(t, tourist.ID, in.UserID)
			assert.Equal(t, models.CategoryPanic, in.Category)
			assert.Empty(t, in.Priority, "priority is left to the classifier")
			assert.False(t, in.Automatic)
			return created, nil
		}).Times(1)

	w := makeRequest(router, http.MethodPost, "/api/v1/alerts",
		CreateAlertRequest{Category: "panic", Latitude: ptr(12.975), Longitude: ptr(77.595)}, asTourist)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp AlertResponse
	env := decode(t, w, &resp)
	assert.True(t, env.Success)
	assert.Equal(t, created.ID, resp.ID)
	assert.Equal(t, "critical", resp.Priority)
}

func TestCreateAlert_ZeroCoordinatesAccepted(t *testing.T) {
	_, deps, router := newTestHandler(t)
	deps.alerts.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sampleAlert(models.StatusActive), nil)

	w := makeRequest(router, http.MethodPost, "/api/v1/alerts",
		CreateAlertRequest{Category: "lost", Latitude: ptr(0.0), Longitude: ptr(0.0)}, asTourist)

	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestCreateAlert_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		headers    map[string]string
		wantStatus int
		wantReason string
		wantField  string
	}{
		{"invalid json", `{"category": "panic"`, asTourist, http.StatusBadRequest, apperror.ReasonInvalidRequest, ""},
		{"missing latitude", CreateAlertRequest{Category: "panic", Longitude: ptr(1.0)}, asTourist, http.StatusBadRequest, apperror.ReasonInvalidRequest, "latitude"},
		{"latitude out of range", CreateAlertRequest{Category: "panic", Latitude: ptr(91.0), Longitude: ptr(1.0)}, asTourist, http.StatusBadRequest, apperror.ReasonInvalidCoordinate, "latitude"},
		{"unknown category", CreateAlertRequest{Category: "fire", Latitude: ptr(1.0), Longitude: ptr(1.0)}, asTourist, http.StatusBadRequest, apperror.ReasonInvalidCategory, ""},
		{"authority cannot raise", CreateAlertRequest{Category: "panic", Latitude: ptr(1.0), Longitude: ptr(1.0)}, asOfficer, http.StatusForbidden, apperror.ReasonForbidden, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, deps, router := newTestHandler(t)
			deps.alerts.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0) // Сервис не должен вызываться

			w := makeRequest(router, http.MethodPost, "/api/v1/alerts", tt.body, tt.headers)

			assert.Equal(t, tt.wantStatus, w.Code)
			env := decode(t, w, nil)
			assert.False(t, env.Success)
			assert.Equal(t, tt.wantReason, env.Reason)
			if tt.wantField != "" {
				assert.Contains(t, env.Fields, tt.wantField)
			}
		})
	}
}

func TestIdentityMiddleware(t *testing.T) {
	_, _, router := newTestHandler(t)

	w := makeRequest(router, http.MethodGet, "/api/v1/alerts/mine", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = makeRequest(router, http.MethodGet, "/api/v1/alerts/mine", nil, map[string]string{"X-User-ID": "ghost"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperror.ReasonUserNotFound, decode(t, w, nil).Reason)
}

func TestAPIKeyAuthMiddleware(t *testing.T) {
	_, deps, router := newTestHandler(t, func(cfg *config.Config) {
		cfg.APIKeys = []string{"test-api-key"}
	})
	deps.queries.EXPECT().ListByUser(gomock.Any(), tourist.ID).Return([]*models.Alert{}, nil).Times(2)

	w := makeRequest(router, http.MethodGet, "/api/v1/alerts/mine", nil, asTourist)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "API key required")

	w = makeRequest(router, http.MethodGet, "/api/v1/alerts/mine", nil, asTourist, map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = makeRequest(router, http.MethodGet, "/api/v1/alerts/mine", nil, asTourist, map[string]string{"X-API-Key": "test-api-key"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = makeRequest(router, http.MethodGet, "/api/v1/alerts/mine", nil, asTourist, map[string]string{"Authorization": "Bearer test-api-key"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateAlertStatus(t *testing.T) {
	t.Run("resolved calls Resolve", func(t *testing.T) {
		_, deps, router := newTestHandler(t)
		a := sampleAlert(models.StatusResolved)
		deps.alerts.EXPECT().Resolve(gomock.Any(), a.ID, officer).Return(a, nil)

		w := makeRequest(router, http.MethodPatch, "/api/v1/alerts/"+a.ID.String()+"/status",
			UpdateStatusRequest{Status: "resolved"}, asOfficer)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp AlertResponse
		decode(t, w, &resp)
		assert.Equal(t, "resolved", resp.Status)
	})

	t.Run("false_alarm goes through field update", func(t *testing.T) {
		_, deps, router := newTestHandler(t)
		a := sampleAlert(models.StatusFalseAlarm)
		deps.alerts.EXPECT().
			UpdateFields(gomock.Any(), a.ID, officer, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ uuid.UUID, _ *models.User, u models.AlertUpdate) (*models.Alert, error) {
				require.NotNil(t, u.Status)
				assert.Equal(t, models.StatusFalseAlarm, *u.Status)
				return a, nil
			})

		w := makeRequest(router, http.MethodPatch, "/api/v1/alerts/"+a.ID.String()+"/status",
			UpdateStatusRequest{Status: "false_alarm"}, asOfficer)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("already closed is a conflict", func(t *testing.T) {
		_, deps, router := newTestHandler(t)
		id := uuid.New()
		deps.alerts.EXPECT().Resolve(gomock.Any(), id, officer).
			Return(nil, apperror.Conflict(apperror.ReasonInvalidTransition, "alert is resolved"))

		w := makeRequest(router, http.MethodPatch, "/api/v1/alerts/"+id.String()+"/status",
			UpdateStatusRequest{Status: "resolved"}, asOfficer)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, apperror.ReasonInvalidTransition, decode(t, w, nil).Reason)
	})

	t.Run("unsupported target", func(t *testing.T) {
		_, _, router := newTestHandler(t)
		w := makeRequest(router, http.MethodPatch, "/api/v1/alerts/"+uuid.NewString()+"/status",
			UpdateStatusRequest{Status: "active"}, asOfficer)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("tourist is forbidden", func(t *testing.T) {
		_, _, router := newTestHandler(t)
		w := makeRequest(router, http.MethodPatch, "/api/v1/alerts/"+uuid.NewString()+"/status",
			UpdateStatusRequest{Status: "resolved"}, asTourist)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestUpdateAlert(t *testing.T) {
	t.Run("allow-listed fields", func(t *testing.T) {
		_, deps, router := newTestHandler(t)
		a := sampleAlert(models.StatusActive)
		deps.alerts.EXPECT().
			UpdateFields(gomock.Any(), a.ID, officer, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ uuid.UUID, _ *models.User, u models.AlertUpdate) (*models.Alert, error) {
				require.NotNil(t, u.Priority)
				assert.Equal(t, models.PriorityHigh, *u.Priority)
				require.NotNil(t, u.Description)
				assert.Equal(t, "seen near the gate", *u.Description)
				assert.Nil(t, u.Status)
				return a, nil
			})

		w := makeRequest(router, http.MethodPatch, "/api/v1/alerts/"+a.ID.String(),
			`{"priority":"high","description":"seen near the gate"}`, asOfficer)
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("immutable field is rejected", func(t *testing.T) {
		_, deps, router := newTestHandler(t)
		deps.alerts.EXPECT().UpdateFields(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		w := makeRequest(router, http.MethodPatch, "/api/v1/alerts/"+uuid.NewString(),
			`{"user_id":"someone-else"}`, asOfficer)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperror.ReasonInvalidRequest, decode(t, w, nil).Reason)
	})

	t.Run("bad priority", func(t *testing.T) {
		_, _, router := newTestHandler(t)
		w := makeRequest(router, http.MethodPatch, "/api/v1/alerts/"+uuid.NewString(), `{"priority":"urgent"}`, asOfficer)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperror.ReasonInvalidPriority, decode(t, w, nil).Reason)
	})
}

func TestEscalateAlert(t *testing.T) {
	_, deps, router := newTestHandler(t)
	a := sampleAlert(models.StatusActive)
	deps.alerts.EXPECT().Escalate(gomock.Any(), a.ID, officer, models.PriorityCritical).Return(a, nil)

	w := makeRequest(router, http.MethodPatch, "/api/v1/alerts/"+a.ID.String()+"/priority",
		EscalateRequest{Priority: "critical"}, asOfficer)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestCancelAlert(t *testing.T) {
	_, deps, router := newTestHandler(t)
	a := sampleAlert(models.StatusFalseAlarm)
	deps.alerts.EXPECT().MarkFalseAlarm(gomock.Any(), a.ID, tourist).Return(a, nil)
	deps.alerts.EXPECT().MarkFalseAlarm(gomock.Any(), a.ID, officer).
		Return(nil, apperror.Forbidden("only the reporter can cancel an alert"))

	w := makeRequest(router, http.MethodPost, "/api/v1/alerts/"+a.ID.String()+"/cancel", nil, asTourist)
	assert.Equal(t, http.StatusOK, w.Code)

	w = makeRequest(router, http.MethodPost, "/api/v1/alerts/"+a.ID.String()+"/cancel", nil, asOfficer)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apperror.ReasonForbidden, decode(t, w, nil).Reason)
}

func TestGetAlert(t *testing.T) {
	_, deps, router := newTestHandler(t)
	a := sampleAlert(models.StatusActive)
	missing := uuid.New()
	deps.queries.EXPECT().Get(gomock.Any(), officer, a.ID).Return(a, nil)
	deps.queries.EXPECT().Get(gomock.Any(), officer, missing).
		Return(nil, apperror.NotFound(apperror.ReasonAlertNotFound, "alert %s not found", missing))

	w := makeRequest(router, http.MethodGet, "/api/v1/alerts/"+a.ID.String(), nil, asOfficer)
	assert.Equal(t, http.StatusOK, w.Code)

	w = makeRequest(router, http.MethodGet, "/api/v1/alerts/"+missing.String(), nil, asOfficer)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperror.ReasonAlertNotFound, decode(t, w, nil).Reason)

	w = makeRequest(router, http.MethodGet, "/api/v1/alerts/not-a-uuid", nil, asOfficer)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListActiveAlerts_ParsesFilters(t *testing.T) {
	_, deps, router := newTestHandler(t)
	deps.queries.EXPECT().
		ListActive(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, f models.AlertFilter) ([]*models.Alert, error) {
			require.NotNil(t, f.Category)
			assert.Equal(t, models.CategoryCrime, *f.Category)
			require.NotNil(t, f.Priority)
			assert.Equal(t, models.PriorityHigh, *f.Priority)
			assert.Equal(t, tourist.ID, f.UserID)
			require.NotNil(t, f.Since)
			assert.Equal(t, 2024, f.Since.Year())
			assert.Equal(t, 10, f.Limit)
			assert.Equal(t, 5, f.Offset)
			return []*models.Alert{sampleAlert(models.StatusActive)}, nil
		})

	w := makeRequest(router, http.MethodGet,
		"/api/v1/alerts/active?category=crime&priority=high&user_id=tourist-1&since=2024-05-01T00:00:00Z&limit=10&offset=5",
		nil, asOfficer)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp []AlertResponse
	decode(t, w, &resp)
	assert.Len(t, resp, 1)
}

func TestListActiveAlerts_InvalidFilters(t *testing.T) {
	_, _, router := newTestHandler(t)

	for _, q := range []string{"category=fire", "priority=urgent", "since=yesterday", "limit=-1", "offset=x"} {
		w := makeRequest(router, http.MethodGet, "/api/v1/alerts/active?"+q, nil, asOfficer)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}

	w := makeRequest(router, http.MethodGet, "/api/v1/alerts/active", nil, asTourist)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListNearbyAlerts(t *testing.T) {
	_, deps, router := newTestHandler(t)
	near := sampleAlert(models.StatusActive)
	deps.queries.EXPECT().ListByRadius(gomock.Any(), 12.97, 77.59, 5.0).
		Return([]models.AlertDistance{{Alert: near, DistanceKm: 1.2}}, nil)

	w := makeRequest(router, http.MethodGet, "/api/v1/alerts/nearby?lat=12.97&lng=77.59&radius_km=5", nil, asOfficer)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp []AlertResponse
	decode(t, w, &resp)
	require.Len(t, resp, 1)
	require.NotNil(t, resp[0].DistanceKm)
	assert.InDelta(t, 1.2, *resp[0].DistanceKm, 1e-9)

	w = makeRequest(router, http.MethodGet, "/api/v1/alerts/nearby?lat=12.97", nil, asOfficer)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.ReasonInvalidCoordinate, decode(t, w, nil).Reason)
}

func TestGetAlertStats(t *testing.T) {
	_, deps, router := newTestHandler(t)
	stats := models.NewAlertStats(7, time.Now().AddDate(0, 0, -7))
	stats.Total = 3
	stats.ActiveUsers = 2
	deps.queries.EXPECT().AggregateStats(gomock.Any(), 7).Return(stats, nil)

	w := makeRequest(router, http.MethodGet, "/api/v1/alerts/stats?window_days=7", nil, asOfficer)

	require.Equal(t, http.StatusOK, w.Code)
	var resp StatsResponse
	decode(t, w, &resp)
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 2, resp.ActiveUsers)
	assert.Contains(t, resp.ByCategory, models.CategoryLost)
}

func TestErrorMapping_HidesInternalDetail(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"transient", apperror.Transient(errors.New("dial tcp 10.0.0.5:5432: i/o timeout"), "failed to load alerts"), http.StatusServiceUnavailable, "service temporarily unavailable"},
		{"internal", errors.New("pq: relation alerts does not exist"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, deps, router := newTestHandler(t)
			deps.queries.EXPECT().ListByUser(gomock.Any(), tourist.ID).Return(nil, tt.err)

			w := makeRequest(router, http.MethodGet, "/api/v1/alerts/mine", nil, asTourist)

			assert.Equal(t, tt.wantStatus, w.Code)
			env := decode(t, w, nil)
			assert.False(t, env.Success)
			assert.Equal(t, tt.wantMsg, env.Message)
			assert.NotContains(t, w.Body.String(), "10.0.0.5")
			assert.NotContains(t, w.Body.String(), "relation")
		})
	}
}

func TestCreateGeoFence(t *testing.T) {
	square := `[{"lat":12.97,"lng":77.59},{"lat":12.98,"lng":77.59},{"lat":12.98,"lng":77.60},{"lat":12.97,"lng":77.60}]`

	t.Run("success", func(t *testing.T) {
		_, deps, router := newTestHandler(t)
		deps.geofences.EXPECT().
			Create(gomock.Any(), officer, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *models.User, f *models.GeoFence) (*models.GeoFence, error) {
				assert.Equal(t, "F1", f.Name)
				assert.Equal(t, models.ZoneRestricted, f.Category)
				assert.True(t, f.IsActive)
				assert.Len(t, f.Coordinates, 4)
				f.ID = uuid.New()
				return f, nil
			})

		w := makeRequest(router, http.MethodPost, "/api/v1/geofences",
			`{"name":"F1","category":"restricted_zone","coordinates":`+square+`}`, asOfficer)
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	t.Run("too few vertices", func(t *testing.T) {
		_, _, router := newTestHandler(t)
		w := makeRequest(router, http.MethodPost, "/api/v1/geofences",
			`{"name":"F1","category":"restricted_zone","coordinates":[{"lat":1,"lng":1},{"lat":2,"lng":2}]}`, asOfficer)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode(t, w, nil).Fields, "coordinates")
	})

	t.Run("unknown category", func(t *testing.T) {
		_, _, router := newTestHandler(t)
		w := makeRequest(router, http.MethodPost, "/api/v1/geofences",
			`{"name":"F1","category":"danger","coordinates":`+square+`}`, asOfficer)
		assert.Equal(t, apperror.ReasonInvalidZoneCategory, decode(t, w, nil).Reason)
	})

	t.Run("tourist is forbidden", func(t *testing.T) {
		_, _, router := newTestHandler(t)
		w := makeRequest(router, http.MethodPost, "/api/v1/geofences",
			`{"name":"F1","category":"restricted_zone","coordinates":`+square+`}`, asTourist)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestListGeoFences_Filters(t *testing.T) {
	_, deps, router := newTestHandler(t)
	deps.geofences.EXPECT().
		List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, f models.GeoFenceFilter) ([]*models.GeoFence, error) {
			require.NotNil(t, f.Category)
			assert.Equal(t, models.ZoneSafe, *f.Category)
			require.NotNil(t, f.Active)
			assert.False(t, *f.Active)
			return []*models.GeoFence{}, nil
		})

	w := makeRequest(router, http.MethodGet, "/api/v1/geofences?category=safe_zone&active=false", nil, asTourist)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = makeRequest(router, http.MethodGet, "/api/v1/geofences?active=maybe", nil, asTourist)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteGeoFence_NotFound(t *testing.T) {
	_, deps, router := newTestHandler(t)
	id := uuid.New()
	deps.geofences.EXPECT().Delete(gomock.Any(), officer, id).
		Return(apperror.NotFound(apperror.ReasonFenceNotFound, "geofence %s not found", id))

	w := makeRequest(router, http.MethodDelete, "/api/v1/geofences/"+id.String(), nil, asOfficer)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperror.ReasonFenceNotFound, decode(t, w, nil).Reason)
}

func TestCheckPoint(t *testing.T) {
	match := models.FenceMatch{FenceID: uuid.New(), Name: "F1", Category: models.ZoneRestricted}

	t.Run("tourist is ingested", func(t *testing.T) {
		_, deps, router := newTestHandler(t)
		deps.tracker.EXPECT().Ingest(gomock.Any(), tourist.ID, 12.975, 77.595, nil).
			Return(&models.IngestResult{
				Matches: []models.FenceMatch{match},
				Alerts:  []*models.Alert{sampleAlert(models.StatusActive)},
			}, nil)
		deps.geofences.EXPECT().CheckPoint(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		w := makeRequest(router, http.MethodPost, "/api/v1/geofences/check", `{"lat":12.975,"lng":77.595}`, asTourist)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp CheckPointResponse
		decode(t, w, &resp)
		assert.Equal(t, []models.FenceMatch{match}, resp.Matches)
		assert.Len(t, resp.Alerts, 1)
	})

	t.Run("authority only checks", func(t *testing.T) {
		_, deps, router := newTestHandler(t)
		deps.geofences.EXPECT().CheckPoint(gomock.Any(), 12.975, 77.595).Return([]models.FenceMatch{match}, nil)
		deps.tracker.EXPECT().Ingest(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		w := makeRequest(router, http.MethodPost, "/api/v1/geofences/check", `{"lat":12.975,"lng":77.595}`, asOfficer)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestReportLocation(t *testing.T) {
	_, deps, router := newTestHandler(t)
	sample := &models.LocationSample{ID: uuid.New(), UserID: tourist.ID, Latitude: 1, Longitude: 2, CapturedAt: time.Now().UTC()}
	deps.tracker.EXPECT().Ingest(gomock.Any(), tourist.ID, 1.0, 2.0, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _, _ float64, acc *float64) (*models.IngestResult, error) {
			require.NotNil(t, acc)
			assert.Equal(t, 15.0, *acc)
			return &models.IngestResult{Sample: sample, Matches: []models.FenceMatch{}}, nil
		})

	w := makeRequest(router, http.MethodPost, "/api/v1/location", `{"lat":1,"lng":2,"accuracy":15}`, asTourist)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp LocationResponse
	decode(t, w, &resp)
	assert.Equal(t, sample.ID, resp.Sample.ID)
	assert.NotNil(t, resp.Alerts)

	w = makeRequest(router, http.MethodPost, "/api/v1/location", `{"lat":1,"lng":2}`, asOfficer)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = makeRequest(router, http.MethodPost, "/api/v1/location", `{"lat":1,"lng":200}`, asTourist)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.ReasonInvalidCoordinate, decode(t, w, nil).Reason)
}

func TestReportLocation_RateLimited(t *testing.T) {
	_, deps, router := newTestHandler(t, func(cfg *config.Config) {
		cfg.LocationRateLimit = "2-M"
	})
	deps.tracker.EXPECT().Ingest(gomock.Any(), tourist.ID, gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&models.IngestResult{}, nil).Times(2)

	for i := 0; i < 2; i++ {
		w := makeRequest(router, http.MethodPost, "/api/v1/location", `{"lat":1,"lng":2}`, asTourist)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := makeRequest(router, http.MethodPost, "/api/v1/location", `{"lat":1,"lng":2}`, asTourist)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "rate_limited", decode(t, w, nil).Reason)
}

func TestLocationHistory(t *testing.T) {
	_, deps, router := newTestHandler(t)
	deps.tracker.EXPECT().ListHistory(gomock.Any(), tourist.ID, 20).Return([]*models.LocationSample{}, nil)

	w := makeRequest(router, http.MethodGet, "/api/v1/location/history?limit=20", nil, asTourist)
	assert.Equal(t, http.StatusOK, w.Code)

	w = makeRequest(router, http.MethodGet, "/api/v1/location/history?limit=many", nil, asTourist)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthCheck_Success(t *testing.T) {
	_, _, router := newTestHandler(t)

	w := makeRequest(router, http.MethodGet, "/api/v1/system/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode(t, w, nil).Success)
}
