package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"practice_reminder_service/internal/domain/schedule"
	"practice_reminder_service/internal/domain/task"
)

// OverdueService sweeps open instances past their due date into OVERDUE.
type OverdueService struct {
	tasks  task.Repository
	bus    *Bus
	logger *logrus.Logger
}

func NewOverdueService(tasks task.Repository, bus *Bus, logger *logrus.Logger) *OverdueService {
	return &OverdueService{tasks: tasks, bus: bus, logger: logger}
}

// Sweep transitions every open instance with due_date strictly before today
// to OVERDUE, pausing any running work timer first so elapsed time is not
// lost. Returns the number of instances transitioned; re-running when
// nothing changed is a no-op.
func (s *OverdueService) Sweep(ctx context.Context, today time.Time) (int64, error) {
	today = schedule.DateOnly(today)
	candidates, err := s.tasks.ListOpenPastDue(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue candidates: %w", err)
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	ids := make([]int64, 0, len(candidates))
	for _, inst := range candidates {
		if inst.TimerRunning() {
			inst.PauseTimer(now)
			if err := s.tasks.Update(ctx, inst); err != nil {
				s.logger.WithError(err).WithField("instance_id", inst.ID).
					Error("failed to pause timer on overdue instance")
				// Still sweep it; the timer state is best-effort here.
			}
		}
		ids = append(ids, inst.ID)
	}

	affected, err := s.tasks.BulkMarkOverdue(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to mark instances overdue: %w", err)
	}
	for _, inst := range candidates {
		inst.Status = task.StatusOverdue
		s.bus.Publish(Event{Type: EventInstanceOverdue, FirmID: inst.FirmID, Instance: inst, At: now})
	}
	s.logger.WithFields(logrus.Fields{"affected": affected, "as_of": today.Format("2006-01-02")}).
		Info("overdue sweep finished")
	return affected, nil
}
