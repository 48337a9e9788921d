package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs chan struct{}
	err  error
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs <- struct{}{}
	return j.err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestCron_RunsJobOnSchedule(t *testing.T) {
	cr := NewCron(time.UTC, quietLogger())
	job := &countingJob{runs: make(chan struct{}, 4), err: errors.New("boom")}

	_, err := cr.Add("@every 1s", job)
	require.NoError(t, err)
	require.Len(t, cr.Entries(), 1)

	cr.Start()
	defer cr.Stop()

	select {
	case <-job.runs:
	case <-time.After(3 * time.Second):
		t.Fatal("job was not executed")
	}
}

func TestCron_RejectsBadExpression(t *testing.T) {
	cr := NewCron(nil, quietLogger())
	_, err := cr.Add("not a cron", &countingJob{runs: make(chan struct{}, 1)})
	assert.Error(t, err)
}
