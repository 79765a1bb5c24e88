package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"practice_reminder_service/internal/domain/directory"
	"practice_reminder_service/internal/domain/reminder"
	"practice_reminder_service/internal/domain/schedule"
	"practice_reminder_service/internal/domain/subscription"
	"practice_reminder_service/internal/domain/task"
	"practice_reminder_service/internal/domain/worktype"
)

const (
	defaultClientLeadDays   = 7
	defaultEmployeeLeadDays = 3
)

// ReminderService materializes reminder instances for a task instance:
// separate windows for the client and employee recipient classes, one
// reminder per generated date, idempotent under re-invocation.
type ReminderService struct {
	subs      subscription.Repository
	workTypes worktype.Repository
	reminders reminder.Repository
	directory directory.Repository
	logger    *logrus.Logger
	sendHour  int
}

func NewReminderService(
	subs subscription.Repository,
	workTypes worktype.Repository,
	reminders reminder.Repository,
	dir directory.Repository,
	logger *logrus.Logger,
	sendHour int,
) *ReminderService {
	return &ReminderService{
		subs:      subs,
		workTypes: workTypes,
		reminders: reminders,
		directory: dir,
		logger:    logger,
		sendHour:  sendHour,
	}
}

// scheduledAtFor places a reminder on day d at the configured send hour.
func (s *ReminderService) scheduledAtFor(d time.Time) time.Time {
	d = schedule.DateOnly(d)
	return time.Date(d.Year(), d.Month(), d.Day(), s.sendHour, 0, 0, 0, time.UTC)
}

// windowStart derives the first reminder date for a class: lead days before
// the due date, never earlier than the period start, never in the past.
func windowStart(inst *task.Instance, leadDays, defaultLead int, now time.Time) time.Time {
	if leadDays <= 0 {
		leadDays = defaultLead
	}
	start := inst.DueDate.AddDate(0, 0, -leadDays)
	if start.Before(inst.PeriodStart) {
		start = inst.PeriodStart
	}
	today := schedule.DateOnly(now)
	if start.Before(today) {
		start = today
	}
	return start
}

// ScheduleForInstance generates reminders for both recipient classes.
// Disabled classes and missing recipients are skipped, not errors; dates
// already covered by a PENDING or SENT reminder are left alone.
func (s *ReminderService) ScheduleForInstance(ctx context.Context, inst *task.Instance, now time.Time) (RunSummary, error) {
	var summary RunSummary

	sub, err := s.subs.GetByID(ctx, inst.FirmID, inst.SubscriptionID)
	if err != nil {
		return summary, fmt.Errorf("failed to load subscription %d: %w", inst.SubscriptionID, err)
	}
	wt, err := s.workTypes.GetByID(ctx, inst.FirmID, sub.WorkTypeID)
	if err != nil {
		return summary, fmt.Errorf("failed to load work type %d: %w", sub.WorkTypeID, err)
	}

	// Client-facing reminders.
	if !wt.EnableClientReminders {
		summary.Skipped++
		s.logger.WithFields(logrus.Fields{"instance_id": inst.ID, "work_type_id": wt.ID}).
			Debug("client reminders disabled for work type")
	} else {
		client, err := s.directory.GetClient(ctx, inst.FirmID, sub.ClientID)
		if err != nil {
			return summary, fmt.Errorf("failed to load client %d: %w", sub.ClientID, err)
		}
		if !client.Email.Valid || client.Email.String == "" {
			summary.Skipped++
			s.logger.WithFields(logrus.Fields{"instance_id": inst.ID, "client_id": client.ID}).
				Debug("client has no email address, skipping client reminders")
		} else {
			start := windowStart(inst, wt.ClientReminderLeadDays, defaultClientLeadDays, now)
			created, err := s.materialize(ctx, inst, reminder.ClassClient, client.Email.String, start, inst.DueDate, wt.ClientPolicy())
			if err != nil {
				return summary, err
			}
			summary.Created += created
		}
	}

	// Employee-facing reminders.
	if !wt.EnableEmployeeReminders {
		summary.Skipped++
		s.logger.WithFields(logrus.Fields{"instance_id": inst.ID, "work_type_id": wt.ID}).
			Debug("employee reminders disabled for work type")
		return summary, nil
	}
	if !inst.AssignedTo.Valid {
		summary.Skipped++
		s.logger.WithField("instance_id", inst.ID).
			Debug("instance unassigned, skipping employee reminders")
		return summary, nil
	}
	employee, err := s.directory.GetEmployee(ctx, inst.FirmID, inst.AssignedTo.Int64)
	if err != nil {
		return summary, fmt.Errorf("failed to load employee %d: %w", inst.AssignedTo.Int64, err)
	}
	channel := wt.EmployeeChannel
	if channel == "" {
		channel = worktype.ChannelEmail
	}
	email := ""
	if employee.Email.Valid {
		email = employee.Email.String
	}
	if email == "" && channel != worktype.ChannelInApp {
		summary.Skipped++
		s.logger.WithFields(logrus.Fields{"instance_id": inst.ID, "employee_id": employee.ID}).
			Debug("employee has no email address, skipping employee reminders")
		return summary, nil
	}
	start := windowStart(inst, wt.EmployeeReminderLeadDays, defaultEmployeeLeadDays, now)
	created, err := s.materialize(ctx, inst, reminder.ClassEmployee, email, start, inst.DueDate, wt.EmployeePolicy())
	if err != nil {
		return summary, err
	}
	summary.Created += created
	return summary, nil
}

// materialize creates one PENDING reminder per generated date, skipping
// dates already covered by an active reminder for the class.
func (s *ReminderService) materialize(ctx context.Context, inst *task.Instance, class reminder.RecipientClass, email string, start, end time.Time, policy schedule.ReminderPolicy) (int, error) {
	created := 0
	for _, d := range schedule.Dates(start, end, policy) {
		inserted, err := s.reminders.CreateIfAbsent(ctx, &reminder.Instance{
			FirmID:         inst.FirmID,
			TaskInstanceID: inst.ID,
			Recipient:      class,
			Email:          email,
			ScheduledAt:    s.scheduledAtFor(d),
			ScheduledOn:    schedule.DateOnly(d),
			SendStatus:     reminder.StatusPending,
		})
		if err != nil {
			return created, fmt.Errorf("failed to create %s reminder for instance %d on %s: %w",
				class, inst.ID, d.Format("2006-01-02"), err)
		}
		if inserted {
			created++
		}
	}
	return created, nil
}

// ScheduleLegacyRules fans out the work type's offset-based reminder rules:
// one reminder at due date plus the rule's offset, materialized only while
// that moment is still in the future, with the same per-date dedup as the
// windowed generation.
func (s *ReminderService) ScheduleLegacyRules(ctx context.Context, inst *task.Instance, wt *worktype.WorkType, now time.Time) (int, error) {
	rules, err := s.workTypes.ListActiveRules(ctx, inst.FirmID, wt.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to list reminder rules for work type %d: %w", wt.ID, err)
	}
	if len(rules) == 0 {
		return 0, nil
	}

	sub, err := s.subs.GetByID(ctx, inst.FirmID, inst.SubscriptionID)
	if err != nil {
		return 0, fmt.Errorf("failed to load subscription %d: %w", inst.SubscriptionID, err)
	}

	clientEmail := ""
	if client, err := s.directory.GetClient(ctx, inst.FirmID, sub.ClientID); err == nil && client.Email.Valid {
		clientEmail = client.Email.String
	}
	employeeEmail := ""
	if inst.AssignedTo.Valid {
		if emp, err := s.directory.GetEmployee(ctx, inst.FirmID, inst.AssignedTo.Int64); err == nil && emp.Email.Valid {
			employeeEmail = emp.Email.String
		}
	}

	created := 0
	for _, rule := range rules {
		at := s.scheduledAtFor(inst.DueDate.AddDate(0, 0, rule.OffsetDays))
		if !at.After(now) {
			continue
		}
		targets := make(map[reminder.RecipientClass]string)
		if rule.Audience == worktype.AudienceClient || rule.Audience == worktype.AudienceBoth {
			targets[reminder.ClassClient] = clientEmail
		}
		if rule.Audience == worktype.AudienceEmployee || rule.Audience == worktype.AudienceBoth {
			targets[reminder.ClassEmployee] = employeeEmail
		}
		for class, email := range targets {
			if email == "" {
				s.logger.WithFields(logrus.Fields{"instance_id": inst.ID, "rule_id": rule.ID, "class": class}).
					Debug("no recipient email for legacy reminder rule, skipping")
				continue
			}
			inserted, err := s.reminders.CreateIfAbsent(ctx, &reminder.Instance{
				FirmID:         inst.FirmID,
				TaskInstanceID: inst.ID,
				Recipient:      class,
				Email:          email,
				ScheduledAt:    at,
				ScheduledOn:    schedule.DateOnly(at),
				SendStatus:     reminder.StatusPending,
			})
			if err != nil {
				return created, fmt.Errorf("failed to create rule reminder for instance %d: %w", inst.ID, err)
			}
			if inserted {
				created++
			}
		}
	}
	return created, nil
}

// Regenerate cancels every PENDING reminder still scheduled in the future
// and re-runs generation. Used when a due date changes; SENT history is
// immutable and dates that keep a live reminder deduplicate on re-creation.
func (s *ReminderService) Regenerate(ctx context.Context, inst *task.Instance, now time.Time) (RunSummary, error) {
	cancelled, err := s.reminders.CancelFuturePending(ctx, inst.ID, now)
	if err != nil {
		return RunSummary{}, fmt.Errorf("failed to cancel pending reminders for instance %d: %w", inst.ID, err)
	}
	s.logger.WithFields(logrus.Fields{"instance_id": inst.ID, "cancelled": cancelled}).
		Info("cancelled pending reminders for regeneration")
	return s.ScheduleForInstance(ctx, inst, now)
}

// CancelForCompleted marks all PENDING reminders SKIPPED: the task is done,
// not rescheduled, and the distinct status records that.
func (s *ReminderService) CancelForCompleted(ctx context.Context, inst *task.Instance) (int64, error) {
	skipped, err := s.reminders.SkipPending(ctx, inst.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to skip pending reminders for instance %d: %w", inst.ID, err)
	}
	return skipped, nil
}
