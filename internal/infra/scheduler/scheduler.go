package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"practice_reminder_service/internal/app"
	"practice_reminder_service/internal/infra/config"
)

// JobScheduler owns the periodic batch jobs: instance generation, the
// overdue sweep, reminder dispatch and auto-start. Each job runs under its
// own timeout; a slow run never wedges the cron engine.
type JobScheduler struct {
	cronEngine *cron.Cron
	tasks      *app.TaskService
	overdue    *app.OverdueService
	dispatch   *app.DispatchService
	logger     *logrus.Logger
	cfg        *config.AppConfig
}

func NewJobScheduler(
	tasks *app.TaskService,
	overdue *app.OverdueService,
	dispatch *app.DispatchService,
	logger *logrus.Logger,
	cfg *config.AppConfig,
) *JobScheduler {
	return &JobScheduler{
		cronEngine: cron.New(cron.WithLocation(time.Local)),
		tasks:      tasks,
		overdue:    overdue,
		dispatch:   dispatch,
		logger:     logger,
		cfg:        cfg,
	}
}

// Start registers and starts all cron jobs. It is fatal for a spec to be
// unparseable; the service cannot run partially scheduled.
func (s *JobScheduler) Start() {
	s.logger.Info("Starting job scheduler...")

	_, err := s.cronEngine.AddFunc(s.cfg.CronSpecGeneration, func() {
		s.logger.Info("Cron job triggered: instance generation")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := s.tasks.GenerateAll(ctx, time.Now().UTC(), false); err != nil {
			s.logger.WithError(err).Error("instance generation job failed")
		}
	})
	if err != nil {
		s.logger.Fatalf("Could not add instance generation cron job: %v", err)
	}

	_, err = s.cronEngine.AddFunc(s.cfg.CronSpecOverdue, func() {
		s.logger.Info("Cron job triggered: overdue sweep")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := s.overdue.Sweep(ctx, time.Now().UTC()); err != nil {
			s.logger.WithError(err).Error("overdue sweep job failed")
		}
	})
	if err != nil {
		s.logger.Fatalf("Could not add overdue sweep cron job: %v", err)
	}

	_, err = s.cronEngine.AddFunc(s.cfg.CronSpecDispatch, func() {
		s.logger.Info("Cron job triggered: reminder dispatch")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := s.dispatch.ProcessDue(ctx, time.Now().UTC(), false); err != nil {
			s.logger.WithError(err).Error("reminder dispatch job failed")
		}
	})
	if err != nil {
		s.logger.Fatalf("Could not add reminder dispatch cron job: %v", err)
	}

	_, err = s.cronEngine.AddFunc(s.cfg.CronSpecAutoStart, func() {
		s.logger.Info("Cron job triggered: auto-start")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := s.tasks.AutoStartDue(ctx, time.Now().UTC(), false); err != nil {
			s.logger.WithError(err).Error("auto-start job failed")
		}
	})
	if err != nil {
		s.logger.Fatalf("Could not add auto-start cron job: %v", err)
	}

	s.cronEngine.Start()
	s.logger.Info("Job scheduler started with all jobs.")
}

// Stop halts the scheduler and waits for in-flight jobs to finish.
func (s *JobScheduler) Stop() {
	s.logger.Info("Stopping job scheduler...")
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.logger.Info("Job scheduler gracefully stopped.")
}
