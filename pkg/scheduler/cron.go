package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job - периодическая задача
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Cron - обёртка над robfig/cron с восстановлением после паники и логированием результата
type Cron struct {
	c      *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	logger *logrus.Logger
}

func NewCron(loc *time.Location, logger *logrus.Logger) *Cron {
	if loc == nil {
		loc = time.Local
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := cron.New(cron.WithLocation(loc), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	return &Cron{c: c, ctx: ctx, cancel: cancel, logger: logger}
}

func (cr *Cron) Start() { cr.c.Start() }

// Stop отменяет контекст выполняющихся задач и ждёт их завершения
func (cr *Cron) Stop() {
	cr.cancel()
	<-cr.c.Stop().Done()
}

func (cr *Cron) Add(expr string, job Job) (cron.EntryID, error) {
	return cr.c.AddFunc(expr, func() { cr.run(job) })
}

func (cr *Cron) Entries() []cron.Entry { return cr.c.Entries() }

func (cr *Cron) run(job Job) {
	log := cr.logger.WithField("job", job.Name())
	start := time.Now()
	if err := job.Run(cr.ctx); err != nil {
		log.WithError(err).Error("Scheduled job failed")
		return
	}
	log.WithField("duration", time.Since(start).String()).Info("Scheduled job finished")
}
