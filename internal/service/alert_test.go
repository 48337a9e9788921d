package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/tourist_safety_system/internal/apperror"
	"github.com/shenikar/tourist_safety_system/internal/config"
	"github.com/shenikar/tourist_safety_system/internal/models"
	"github.com/shenikar/tourist_safety_system/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testConfig() *config.Config {
	return &config.Config{
		OperationTimeout: time.Second,
		GeofenceCooldown: 15 * time.Minute,
		StatsWindowDays:  7,
	}
}

type alertFixture struct {
	repo        *mocks.MockAlertRepository
	cooldown    *mocks.MockCooldownStore
	broadcaster *mocks.MockBroadcaster
	svc         AlertService
}

func newAlertFixture(t *testing.T) *alertFixture {
	ctrl := gomock.NewController(t)
	f := &alertFixture{
		repo:        mocks.NewMockAlertRepository(ctrl),
		cooldown:    mocks.NewMockCooldownStore(ctrl),
		broadcaster: mocks.NewMockBroadcaster(ctrl),
	}
	f.svc = NewAlertService(f.repo, f.cooldown, f.broadcaster, testLogger(), testConfig())
	return f
}

var (
	tourist   = &models.User{ID: "tourist-1", Role: models.RoleTourist}
	authority = &models.User{ID: "officer-1", Role: models.RoleAuthority}
)

func activeAlert() *models.Alert {
	return &models.Alert{
		ID:        uuid.New(),
		UserID:    tourist.ID,
		Category:  models.CategoryPanic,
		Priority:  models.PriorityCritical,
		Status:    models.StatusActive,
		Latitude:  12.97,
		Longitude: 77.59,
		CreatedAt: time.Now().UTC(),
	}
}

func TestCreate_RetriesTransientFailureOnce(t *testing.T) {
	f := newAlertFixture(t)

	gomock.InOrder(
		f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(timeoutErr{}),
		f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil),
	)
	f.broadcaster.EXPECT().
		Publish(gomock.Any(), models.ChannelAuthority, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, ev models.Event) error {
			assert.Equal(t, models.EventNewPanicAlert, ev.Type)
			return nil
		})

	alert, err := f.svc.Create(context.Background(), models.NewAlert{
		UserID: tourist.ID, Category: models.CategoryPanic, Latitude: 12.97, Longitude: 77.59,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityCritical, alert.Priority)
	assert.Equal(t, models.StatusActive, alert.Status)
	assert.NotEqual(t, uuid.Nil, alert.ID)
}

func TestCreate_SurfacesTransientAfterRetry(t *testing.T) {
	f := newAlertFixture(t)
	f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(context.DeadlineExceeded).Times(2)

	_, err := f.svc.Create(context.Background(), models.NewAlert{
		UserID: tourist.ID, Category: models.CategoryLost, Latitude: 1, Longitude: 1,
	})
	require.Error(t, err)
	assert.Equal(t, apperror.KindTransient, apperror.KindOf(err))
}

func TestCreate_PermanentErrorIsNotRetried(t *testing.T) {
	f := newAlertFixture(t)
	f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("constraint violation")).Times(1)

	_, err := f.svc.Create(context.Background(), models.NewAlert{
		UserID: tourist.ID, Category: models.CategoryLost, Latitude: 1, Longitude: 1,
	})
	require.Error(t, err)
	assert.Equal(t, apperror.KindInternal, apperror.KindOf(err))
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name   string
		in     models.NewAlert
		reason string
	}{
		{"bad category", models.NewAlert{UserID: "u", Category: "fire"}, apperror.ReasonInvalidCategory},
		{"bad priority", models.NewAlert{UserID: "u", Category: models.CategoryLost, Priority: "urgent"}, apperror.ReasonInvalidPriority},
		{"bad coordinate", models.NewAlert{UserID: "u", Category: models.CategoryLost, Latitude: 123}, apperror.ReasonInvalidCoordinate},
		{"missing reporter", models.NewAlert{Category: models.CategoryLost}, apperror.ReasonInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAlertFixture(t)
			_, err := f.svc.Create(context.Background(), tt.in)
			require.Error(t, err)
			assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
			assert.Equal(t, tt.reason, apperror.ReasonOf(err))
		})
	}
}

func TestResolve_BroadcastFailureIsNotFatal(t *testing.T) {
	f := newAlertFixture(t)
	alert := activeAlert()

	f.repo.EXPECT().GetByID(gomock.Any(), alert.ID).Return(alert, nil)
	f.repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
	f.broadcaster.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("hub closed")).Times(2)

	resolved, err := f.svc.Resolve(context.Background(), alert.ID, authority)
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, authority.ID, *resolved.ResolvedBy)
	assert.NotNil(t, resolved.ResolvedAt)
}

func TestResolve_ClearsCooldownForGeofenceAlert(t *testing.T) {
	f := newAlertFixture(t)
	alert := activeAlert()
	fenceID := uuid.New()
	alert.FenceID = &fenceID

	f.repo.EXPECT().GetByID(gomock.Any(), alert.ID).Return(alert, nil)
	f.repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
	f.cooldown.EXPECT().Clear(gomock.Any(), tourist.ID, fenceID).Return(nil)
	f.broadcaster.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2)

	_, err := f.svc.Resolve(context.Background(), alert.ID, authority)
	require.NoError(t, err)
}

func TestResolve_RequiresAuthority(t *testing.T) {
	f := newAlertFixture(t)

	_, err := f.svc.Resolve(context.Background(), uuid.New(), tourist)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
}

func TestResolve_NotFound(t *testing.T) {
	f := newAlertFixture(t)
	id := uuid.New()
	f.repo.EXPECT().GetByID(gomock.Any(), id).Return(nil, ErrRecordNotFound)

	_, err := f.svc.Resolve(context.Background(), id, authority)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	assert.Equal(t, apperror.ReasonAlertNotFound, apperror.ReasonOf(err))
}

func TestEscalate_SameLevelIsNoop(t *testing.T) {
	f := newAlertFixture(t)
	alert := activeAlert()
	f.repo.EXPECT().GetByID(gomock.Any(), alert.ID).Return(alert, nil)

	got, err := f.svc.Escalate(context.Background(), alert.ID, authority, models.PriorityCritical)
	require.NoError(t, err)
	assert.Equal(t, models.PriorityCritical, got.Priority)
}

func TestUpdateFields_TerminalAlertIsImmutable(t *testing.T) {
	f := newAlertFixture(t)
	alert := activeAlert()
	alert.Status = models.StatusResolved
	f.repo.EXPECT().GetByID(gomock.Any(), alert.ID).Return(alert, nil)

	desc := "updated"
	_, err := f.svc.UpdateFields(context.Background(), alert.ID, authority, models.AlertUpdate{Description: &desc})
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
}

func TestUpdateFields_RejectsEmptyAndInvalid(t *testing.T) {
	f := newAlertFixture(t)

	_, err := f.svc.UpdateFields(context.Background(), uuid.New(), authority, models.AlertUpdate{})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	bad := models.AlertStatus("closed")
	_, err = f.svc.UpdateFields(context.Background(), uuid.New(), authority, models.AlertUpdate{Status: &bad})
	assert.Equal(t, apperror.ReasonInvalidStatus, apperror.ReasonOf(err))
}
