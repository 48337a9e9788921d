package service

import (
	"context"
	"time"
)

// RetentionJob периодически удаляет историю перемещений старше срока хранения
type RetentionJob struct {
	tracker   LocationTracker
	retention time.Duration
	now       func() time.Time
}

func NewRetentionJob(tracker LocationTracker, retentionDays int) *RetentionJob {
	return &RetentionJob{
		tracker:   tracker,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (j *RetentionJob) Name() string { return "location_retention" }

// Run удаляет замеры старше срока; нулевой срок отключает очистку
func (j *RetentionJob) Run(ctx context.Context) error {
	if j.retention <= 0 {
		return nil
	}
	_, err := j.tracker.PruneHistory(ctx, j.now().Add(-j.retention))
	return err
}
