package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"practice_reminder_service/internal/domain/notify"
	"practice_reminder_service/internal/domain/schedule"
)

// NewAssigneeOverdueNotifier returns an event handler that raises a
// high-priority in-app notification for the assignee when an instance goes
// overdue. Dedup on (user, kind, date) means repeated sweeps in one day
// cannot double-notify.
func NewAssigneeOverdueNotifier(notifications notify.Repository, logger *logrus.Logger) EventHandler {
	return func(e Event) {
		if e.Type != EventInstanceOverdue || e.Instance == nil || !e.Instance.AssignedTo.Valid {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, err := notifications.CreateIfAbsent(ctx, &notify.Notification{
			FirmID:    e.FirmID,
			UserID:    e.Instance.AssignedTo.Int64,
			Kind:      notify.KindTaskOverdue,
			Title:     fmt.Sprintf("Overdue: %s", e.Instance.PeriodLabel),
			Message:   fmt.Sprintf("Task for period %s was due on %s and is now overdue.", e.Instance.PeriodLabel, e.Instance.DueDate.Format("02 Jan 2006")),
			Priority:  notify.PriorityHigh,
			CreatedOn: schedule.DateOnly(e.At),
		})
		if err != nil {
			logger.WithError(err).WithField("instance_id", e.Instance.ID).
				Warn("failed to create overdue notification for assignee")
		}
	}
}
