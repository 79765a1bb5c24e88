package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"practice_reminder_service/internal/domain/schedule"
	"practice_reminder_service/internal/domain/subscription"
	"practice_reminder_service/internal/domain/task"
	"practice_reminder_service/internal/domain/worktype"
	idb "practice_reminder_service/internal/infra/database"
)

// maxGenerationIterations bounds the per-subscription generation loop so a
// frequency policy that fails to advance the due date cannot spin forever.
const maxGenerationIterations = 50

// defaultHorizonMonths is the look-forward window instances are
// pre-generated into.
const defaultHorizonMonths = 3

// TaskService is the task instance lifecycle manager: it creates the next
// instance for a subscription, drives status transitions, and triggers
// reminder generation and cancellation on each transition.
type TaskService struct {
	subs          subscription.Repository
	tasks         task.Repository
	workTypes     worktype.Repository
	reminders     *ReminderService
	bus           *Bus
	logger        *logrus.Logger
	horizonMonths int
}

func NewTaskService(
	subs subscription.Repository,
	tasks task.Repository,
	workTypes worktype.Repository,
	reminders *ReminderService,
	bus *Bus,
	logger *logrus.Logger,
	horizonMonths int,
) *TaskService {
	if horizonMonths <= 0 {
		horizonMonths = defaultHorizonMonths
	}
	return &TaskService{
		subs:          subs,
		tasks:         tasks,
		workTypes:     workTypes,
		reminders:     reminders,
		bus:           bus,
		logger:        logger,
		horizonMonths: horizonMonths,
	}
}

// CreateNextInstance creates the next task instance for the subscription,
// unless the latest instance's due date already reaches the cutoff (then it
// is a no-op returning nil). The new instance's reminders are generated
// before returning; reminder problems are logged, not fatal to the creation.
func (s *TaskService) CreateNextInstance(ctx context.Context, sub *subscription.Subscription, cutoff time.Time, now time.Time) (*task.Instance, error) {
	wt, err := s.workTypes.GetByID(ctx, sub.FirmID, sub.WorkTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load work type %d: %w", sub.WorkTypeID, err)
	}
	freq := sub.EffectiveFrequency(wt)

	latest, err := s.tasks.LatestForSubscription(ctx, sub.FirmID, sub.ID)
	if err != nil && !errors.Is(err, idb.ErrInstanceNotFound) {
		return nil, fmt.Errorf("failed to load latest instance for subscription %d: %w", sub.ID, err)
	}

	var period schedule.Period
	if latest == nil {
		anchor := sub.StartFrom
		if anchor.IsZero() {
			anchor = now
		}
		period, err = freq.PeriodFromAnchor(anchor, wt.DueConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to compute first period for subscription %d: %w", sub.ID, err)
		}
	} else {
		if !latest.DueDate.Before(cutoff) {
			return nil, nil
		}
		next, ok, err := freq.NextPeriod(latest.PeriodEnd, wt.DueConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to compute next period for subscription %d: %w", sub.ID, err)
		}
		if !ok {
			// One-time subscriptions never get a second instance.
			return nil, nil
		}
		period = next
	}

	inst := &task.Instance{
		FirmID:         sub.FirmID,
		SubscriptionID: sub.ID,
		PeriodLabel:    period.Label,
		PeriodStart:    period.Start,
		PeriodEnd:      period.End,
		DueDate:        period.DueDate,
		Status:         task.StatusNotStarted,
		AssignedTo:     s.resolveAssignee(wt, latest),
	}
	if wt.AutoDriven && wt.AutoStart {
		inst.Status = task.StatusStarted
		inst.StartedOn = sql.NullTime{Time: schedule.DateOnly(now), Valid: true}
	}

	if err := s.tasks.Create(ctx, inst); err != nil {
		return nil, fmt.Errorf("failed to create instance for subscription %d period %s: %w", sub.ID, period.Label, err)
	}
	s.logger.WithFields(logrus.Fields{
		"firm_id":         sub.FirmID,
		"subscription_id": sub.ID,
		"instance_id":     inst.ID,
		"period":          inst.PeriodLabel,
		"due_date":        inst.DueDate.Format("2006-01-02"),
		"status":          inst.Status,
	}).Info("created task instance")
	s.bus.Publish(Event{Type: EventInstanceCreated, FirmID: inst.FirmID, Instance: inst, At: now})

	if _, err := s.reminders.ScheduleForInstance(ctx, inst, now); err != nil {
		s.logger.WithError(err).WithField("instance_id", inst.ID).
			Warn("reminder generation failed for new instance")
	}
	if _, err := s.reminders.ScheduleLegacyRules(ctx, inst, wt, now); err != nil {
		s.logger.WithError(err).WithField("instance_id", inst.ID).
			Warn("legacy rule reminder generation failed for new instance")
	}
	return inst, nil
}

// resolveAssignee picks the owning employee: the work type's explicit
// assignment rule wins, then carry-forward from the prior instance, else
// unassigned.
func (s *TaskService) resolveAssignee(wt *worktype.WorkType, prior *task.Instance) sql.NullInt64 {
	if wt.DefaultAssigneeID.Valid {
		return wt.DefaultAssigneeID
	}
	if prior != nil && prior.AssignedTo.Valid {
		return prior.AssignedTo
	}
	return sql.NullInt64{}
}

// GenerateForSubscription creates instances until the latest due date
// reaches the horizon cutoff, bounded by the iteration cap. One-time
// subscriptions get at most one instance ever, across all invocations.
func (s *TaskService) GenerateForSubscription(ctx context.Context, sub *subscription.Subscription, today time.Time, dryRun bool) (int, error) {
	if !sub.Active {
		return 0, ErrSubscriptionInactive
	}
	cutoff := schedule.DateOnly(today).AddDate(0, s.horizonMonths, 0)

	if dryRun {
		return s.previewForSubscription(ctx, sub, cutoff, today)
	}

	created := 0
	for i := 0; i < maxGenerationIterations; i++ {
		inst, err := s.CreateNextInstance(ctx, sub, cutoff, today)
		if err != nil {
			return created, err
		}
		if inst == nil {
			return created, nil
		}
		created++
	}
	// Hitting the cap means the frequency policy never advanced past the
	// cutoff; surface it so GenerateAll counts this subscription as failed.
	s.logger.WithFields(logrus.Fields{
		"firm_id":         sub.FirmID,
		"subscription_id": sub.ID,
		"cap":             maxGenerationIterations,
	}).Warn("generation iteration cap reached, frequency policy may not be advancing")
	return created, fmt.Errorf("%w for subscription %d", ErrGenerationCapExceeded, sub.ID)
}

// previewForSubscription walks the same period math as generation without
// persisting anything.
func (s *TaskService) previewForSubscription(ctx context.Context, sub *subscription.Subscription, cutoff, now time.Time) (int, error) {
	wt, err := s.workTypes.GetByID(ctx, sub.FirmID, sub.WorkTypeID)
	if err != nil {
		return 0, fmt.Errorf("failed to load work type %d: %w", sub.WorkTypeID, err)
	}
	freq := sub.EffectiveFrequency(wt)

	latest, err := s.tasks.LatestForSubscription(ctx, sub.FirmID, sub.ID)
	if err != nil && !errors.Is(err, idb.ErrInstanceNotFound) {
		return 0, fmt.Errorf("failed to load latest instance for subscription %d: %w", sub.ID, err)
	}

	var lastDue, lastEnd time.Time
	count := 0
	if latest == nil {
		anchor := sub.StartFrom
		if anchor.IsZero() {
			anchor = now
		}
		period, err := freq.PeriodFromAnchor(anchor, wt.DueConfig())
		if err != nil {
			return 0, err
		}
		count++
		lastDue = period.DueDate
		lastEnd = period.End
	} else {
		lastDue = latest.DueDate
		lastEnd = latest.PeriodEnd
	}
	if !freq.Recurring() {
		return count, nil
	}
	for i := count; i < maxGenerationIterations; i++ {
		if !lastDue.Before(cutoff) {
			return count, nil
		}
		period, ok, err := freq.NextPeriod(lastEnd, wt.DueConfig())
		if err != nil || !ok {
			return count, err
		}
		count++
		lastDue = period.DueDate
		lastEnd = period.End
	}
	return count, fmt.Errorf("%w for subscription %d", ErrGenerationCapExceeded, sub.ID)
}

// GenerateAll runs generation for every active subscription. Per-subscription
// failures are counted and logged; the run continues.
func (s *TaskService) GenerateAll(ctx context.Context, today time.Time, dryRun bool) (RunSummary, error) {
	var summary RunSummary
	active, err := s.subs.ListActive(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to list active subscriptions: %w", err)
	}
	for _, sub := range active {
		summary.Examined++
		created, err := s.GenerateForSubscription(ctx, sub, today, dryRun)
		summary.Created += created
		if err != nil {
			summary.Errors++
			s.logger.WithError(err).WithFields(logrus.Fields{
				"firm_id":         sub.FirmID,
				"subscription_id": sub.ID,
			}).Error("instance generation failed for subscription")
		}
	}
	s.logger.WithField("summary", summary.String()).Info("instance generation run finished")
	return summary, nil
}

// Start moves an instance into STARTED and starts its work timer. Allowed
// from NOT_STARTED, PAUSED and OVERDUE; overdue work resumes once action is
// taken.
func (s *TaskService) Start(ctx context.Context, firmID, instanceID int64) (*task.Instance, error) {
	inst, err := s.tasks.GetByID(ctx, firmID, instanceID)
	if err != nil {
		return nil, err
	}
	switch inst.Status {
	case task.StatusNotStarted, task.StatusPaused, task.StatusOverdue:
		// allowed
	case task.StatusStarted:
		return inst, nil
	default:
		return nil, fmt.Errorf("%w: cannot start from %s", ErrInvalidTransition, inst.Status)
	}
	now := time.Now().UTC()
	inst.Status = task.StatusStarted
	if !inst.StartedOn.Valid {
		inst.StartedOn = sql.NullTime{Time: schedule.DateOnly(now), Valid: true}
	}
	inst.StartTimer(now)
	if err := s.tasks.Update(ctx, inst); err != nil {
		return nil, fmt.Errorf("failed to persist start of instance %d: %w", instanceID, err)
	}
	s.bus.Publish(Event{Type: EventInstanceStarted, FirmID: firmID, Instance: inst, At: now})
	return inst, nil
}

// Pause parks a started instance and folds its running timer into the
// accumulated time.
func (s *TaskService) Pause(ctx context.Context, firmID, instanceID int64) (*task.Instance, error) {
	inst, err := s.tasks.GetByID(ctx, firmID, instanceID)
	if err != nil {
		return nil, err
	}
	if inst.Status != task.StatusStarted {
		return nil, fmt.Errorf("%w: cannot pause from %s", ErrInvalidTransition, inst.Status)
	}
	now := time.Now().UTC()
	inst.Status = task.StatusPaused
	inst.PauseTimer(now)
	if err := s.tasks.Update(ctx, inst); err != nil {
		return nil, fmt.Errorf("failed to persist pause of instance %d: %w", instanceID, err)
	}
	s.bus.Publish(Event{Type: EventInstancePaused, FirmID: firmID, Instance: inst, At: now})
	return inst, nil
}

// Complete finishes an instance: terminal status, completion date, timer
// folded, all pending reminders skipped. Completing an already completed
// instance is a no-op.
func (s *TaskService) Complete(ctx context.Context, firmID, instanceID int64) (*task.Instance, error) {
	inst, err := s.tasks.GetByID(ctx, firmID, instanceID)
	if err != nil {
		return nil, err
	}
	if inst.Status == task.StatusCompleted {
		s.logger.WithField("instance_id", instanceID).Debug("instance already completed, no-op")
		return inst, nil
	}
	now := time.Now().UTC()
	inst.PauseTimer(now)
	inst.Status = task.StatusCompleted
	inst.CompletedOn = sql.NullTime{Time: schedule.DateOnly(now), Valid: true}
	if err := s.tasks.Update(ctx, inst); err != nil {
		return nil, fmt.Errorf("failed to persist completion of instance %d: %w", instanceID, err)
	}
	skipped, err := s.reminders.CancelForCompleted(ctx, inst)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"firm_id":     firmID,
		"instance_id": instanceID,
		"skipped":     skipped,
	}).Info("task instance completed")
	s.bus.Publish(Event{Type: EventInstanceCompleted, FirmID: firmID, Instance: inst, At: now})
	return inst, nil
}

// Reschedule moves an instance's due date and rebuilds its reminder
// calendar. Future PENDING reminders are cancelled; sent history is
// untouched.
func (s *TaskService) Reschedule(ctx context.Context, firmID, instanceID int64, newDueDate, now time.Time) (*task.Instance, error) {
	inst, err := s.tasks.GetByID(ctx, firmID, instanceID)
	if err != nil {
		return nil, err
	}
	if inst.Status == task.StatusCompleted {
		return nil, ErrInstanceCompleted
	}
	inst.DueDate = schedule.DateOnly(newDueDate)
	if err := s.tasks.Update(ctx, inst); err != nil {
		return nil, fmt.Errorf("failed to persist reschedule of instance %d: %w", instanceID, err)
	}
	if _, err := s.reminders.Regenerate(ctx, inst, now); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"firm_id":     firmID,
		"instance_id": instanceID,
		"due_date":    inst.DueDate.Format("2006-01-02"),
	}).Info("task instance rescheduled")
	s.bus.Publish(Event{Type: EventInstanceRescheduled, FirmID: firmID, Instance: inst, At: now})
	return inst, nil
}

// AutoStartDue flips NOT_STARTED instances of auto-driven, auto-start work
// types whose period has begun into STARTED. Safe to re-run.
func (s *TaskService) AutoStartDue(ctx context.Context, today time.Time, dryRun bool) (RunSummary, error) {
	var summary RunSummary
	candidates, err := s.tasks.ListAutoStartCandidates(ctx, schedule.DateOnly(today))
	if err != nil {
		return summary, fmt.Errorf("failed to list auto-start candidates: %w", err)
	}
	now := time.Now().UTC()
	for _, inst := range candidates {
		summary.Examined++
		if dryRun {
			s.logger.WithField("instance_id", inst.ID).Info("dry-run: would auto-start instance")
			continue
		}
		inst.Status = task.StatusStarted
		inst.StartedOn = sql.NullTime{Time: schedule.DateOnly(today), Valid: true}
		if err := s.tasks.Update(ctx, inst); err != nil {
			summary.Errors++
			s.logger.WithError(err).WithField("instance_id", inst.ID).Error("failed to auto-start instance")
			continue
		}
		summary.Started++
		s.bus.Publish(Event{Type: EventInstanceStarted, FirmID: inst.FirmID, Instance: inst, At: now})
	}
	s.logger.WithField("summary", summary.String()).Info("auto-start run finished")
	return summary, nil
}
