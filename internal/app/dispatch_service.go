package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"practice_reminder_service/internal/domain/directory"
	"practice_reminder_service/internal/domain/mail"
	"practice_reminder_service/internal/domain/notify"
	"practice_reminder_service/internal/domain/reminder"
	"practice_reminder_service/internal/domain/schedule"
	"practice_reminder_service/internal/domain/subscription"
	"practice_reminder_service/internal/domain/task"
	"practice_reminder_service/internal/domain/worktype"
)

// DispatchService is the dispatch loop: it pulls due reminders, renders
// their subject and body from the work type's templates, hands them to the
// email capability (or the in-app notification store, per channel) and
// records the outcome on the reminder.
type DispatchService struct {
	reminders     reminder.Repository
	tasks         task.Repository
	subs          subscription.Repository
	workTypes     worktype.Repository
	directory     directory.Repository
	notifications notify.Repository
	sender        mail.Sender
	logger        *logrus.Logger
}

func NewDispatchService(
	reminders reminder.Repository,
	tasks task.Repository,
	subs subscription.Repository,
	workTypes worktype.Repository,
	dir directory.Repository,
	notifications notify.Repository,
	sender mail.Sender,
	logger *logrus.Logger,
) *DispatchService {
	return &DispatchService{
		reminders:     reminders,
		tasks:         tasks,
		subs:          subs,
		workTypes:     workTypes,
		directory:     dir,
		notifications: notifications,
		sender:        sender,
		logger:        logger,
	}
}

// ProcessDue dispatches every PENDING reminder scheduled at or before now.
// A single reminder's failure is recorded on the reminder (FAILED + error)
// and counted; the run continues. Transient failures retry on the next pass.
func (s *DispatchService) ProcessDue(ctx context.Context, now time.Time, dryRun bool) (RunSummary, error) {
	var summary RunSummary
	due, err := s.reminders.ListDue(ctx, now)
	if err != nil {
		return summary, fmt.Errorf("failed to list due reminders: %w", err)
	}
	for _, rem := range due {
		summary.Examined++
		if dryRun {
			s.logger.WithFields(logrus.Fields{
				"reminder_id": rem.ID,
				"recipient":   rem.Recipient,
				"email":       rem.Email,
			}).Info("dry-run: would send reminder")
			continue
		}
		if err := s.dispatchOne(ctx, rem, now); err != nil {
			switch KindOf(err) {
			case KindDisabled, KindMissingRecipient:
				summary.Skipped++
			default:
				summary.Failed++
			}
			s.logger.WithError(err).WithField("reminder_id", rem.ID).Warn("reminder dispatch failed")
			continue
		}
		summary.Sent++
	}
	s.logger.WithField("summary", summary.String()).Info("reminder dispatch run finished")
	return summary, nil
}

// ForceSend dispatches one reminder immediately, regardless of its
// scheduled time. Only PENDING and FAILED reminders are sendable.
func (s *DispatchService) ForceSend(ctx context.Context, reminderID int64) error {
	rem, err := s.reminders.GetByID(ctx, reminderID)
	if err != nil {
		return err
	}
	if rem.SendStatus != reminder.StatusPending && rem.SendStatus != reminder.StatusFailed {
		return fmt.Errorf("%w: reminder %d is %s", ErrReminderNotSendable, reminderID, rem.SendStatus)
	}
	return s.dispatchOne(ctx, rem, time.Now().UTC())
}

func (s *DispatchService) dispatchOne(ctx context.Context, rem *reminder.Instance, now time.Time) error {
	inst, err := s.tasks.GetByID(ctx, rem.FirmID, rem.TaskInstanceID)
	if err != nil {
		return fmt.Errorf("failed to load task instance %d: %w", rem.TaskInstanceID, err)
	}
	if inst.Status == task.StatusCompleted {
		// Completion should have skipped this reminder already; collapse the
		// straggler rather than mailing about finished work.
		rem.SendStatus = reminder.StatusSkipped
		if err := s.reminders.Update(ctx, rem); err != nil {
			return fmt.Errorf("failed to skip reminder %d for completed instance: %w", rem.ID, err)
		}
		return Kindf(KindDisabled, "task instance %d already completed", inst.ID)
	}

	sub, err := s.subs.GetByID(ctx, rem.FirmID, inst.SubscriptionID)
	if err != nil {
		return fmt.Errorf("failed to load subscription %d: %w", inst.SubscriptionID, err)
	}
	wt, err := s.workTypes.GetByID(ctx, rem.FirmID, sub.WorkTypeID)
	if err != nil {
		return fmt.Errorf("failed to load work type %d: %w", sub.WorkTypeID, err)
	}
	client, err := s.directory.GetClient(ctx, rem.FirmID, sub.ClientID)
	if err != nil {
		return fmt.Errorf("failed to load client %d: %w", sub.ClientID, err)
	}
	firm, err := s.directory.GetFirm(ctx, rem.FirmID)
	if err != nil {
		return fmt.Errorf("failed to load firm %d: %w", rem.FirmID, err)
	}
	var employee *directory.Employee
	if inst.AssignedTo.Valid {
		employee, err = s.directory.GetEmployee(ctx, rem.FirmID, inst.AssignedTo.Int64)
		if err != nil {
			s.logger.WithError(err).WithField("employee_id", inst.AssignedTo.Int64).
				Warn("failed to load assignee for reminder rendering")
			employee = nil
		}
	}

	rctx := mail.RenderContext{
		ClientName:    client.Name,
		PAN:           client.PAN.String,
		GSTIN:         client.GSTIN.String,
		PeriodLabel:   inst.PeriodLabel,
		DueDate:       inst.DueDate.Format("02 Jan 2006"),
		WorkName:      wt.Name,
		StatutoryForm: wt.StatutoryForm.String,
		FirmName:      firm.Name,
	}
	if employee != nil {
		rctx.EmployeeName = employee.Name
	}
	subject, body := s.renderFor(rem.Recipient, wt, rctx)

	var sendErr error
	switch {
	case rem.Recipient == reminder.ClassClient:
		sendErr = s.sendEmail(rem, subject, body)
	case rem.Recipient == reminder.ClassEmployee:
		sendErr = s.dispatchEmployee(ctx, rem, inst, wt, subject, body, now)
	default:
		sendErr = Kindf(KindMisconfigured, "unknown recipient class %q", rem.Recipient)
	}

	if sendErr != nil {
		rem.SendStatus = reminder.StatusFailed
		rem.LastError = sql.NullString{String: sendErr.Error(), Valid: true}
		if uerr := s.reminders.Update(ctx, rem); uerr != nil {
			s.logger.WithError(uerr).WithField("reminder_id", rem.ID).
				Error("failed to record reminder send failure")
		}
		return sendErr
	}

	rem.SendStatus = reminder.StatusSent
	rem.RepeatCount++
	rem.Subject = sql.NullString{String: subject, Valid: true}
	rem.Body = sql.NullString{String: body, Valid: true}
	rem.LastError = sql.NullString{}
	if err := s.reminders.Update(ctx, rem); err != nil {
		return fmt.Errorf("failed to record reminder send for %d: %w", rem.ID, err)
	}
	return nil
}

func (s *DispatchService) renderFor(class reminder.RecipientClass, wt *worktype.WorkType, rctx mail.RenderContext) (string, string) {
	subjectTmpl := mail.DefaultClientSubject
	bodyTmpl := mail.DefaultClientBody
	if class == reminder.ClassEmployee {
		subjectTmpl = mail.DefaultEmployeeSubject
		bodyTmpl = mail.DefaultEmployeeBody
		if wt.EmployeeTemplateSubject.Valid && wt.EmployeeTemplateSubject.String != "" {
			subjectTmpl = wt.EmployeeTemplateSubject.String
		}
		if wt.EmployeeTemplateBody.Valid && wt.EmployeeTemplateBody.String != "" {
			bodyTmpl = wt.EmployeeTemplateBody.String
		}
	} else {
		if wt.ClientTemplateSubject.Valid && wt.ClientTemplateSubject.String != "" {
			subjectTmpl = wt.ClientTemplateSubject.String
		}
		if wt.ClientTemplateBody.Valid && wt.ClientTemplateBody.String != "" {
			bodyTmpl = wt.ClientTemplateBody.String
		}
	}
	return mail.Render(subjectTmpl, rctx), mail.Render(bodyTmpl, rctx)
}

func (s *DispatchService) sendEmail(rem *reminder.Instance, subject, body string) error {
	if rem.Email == "" {
		return Kindf(KindMissingRecipient, "reminder %d has no recipient email", rem.ID)
	}
	if err := s.sender.Send(rem.Email, subject, body, ""); err != nil {
		return Kindf(KindTransient, "email send failed: %v", err)
	}
	return nil
}

// dispatchEmployee honors the work type's notification channel: email,
// in-app, or both. In-app creation dedups on (user, kind, date), so a
// repeated dispatch pass cannot double-notify.
func (s *DispatchService) dispatchEmployee(ctx context.Context, rem *reminder.Instance, inst *task.Instance, wt *worktype.WorkType, subject, body string, now time.Time) error {
	channel := wt.EmployeeChannel
	if channel == "" {
		channel = worktype.ChannelEmail
	}

	if channel == worktype.ChannelInApp || channel == worktype.ChannelBoth {
		if inst.AssignedTo.Valid {
			_, err := s.notifications.CreateIfAbsent(ctx, &notify.Notification{
				FirmID:    rem.FirmID,
				UserID:    inst.AssignedTo.Int64,
				Kind:      notify.KindTaskReminder,
				Title:     subject,
				Message:   body,
				Priority:  notify.PriorityNormal,
				CreatedOn: schedule.DateOnly(now),
			})
			if err != nil {
				s.logger.WithError(err).WithField("reminder_id", rem.ID).
					Warn("failed to create in-app notification for reminder")
				if channel == worktype.ChannelInApp {
					return Kindf(KindTransient, "in-app notification failed: %v", err)
				}
			}
		} else if channel == worktype.ChannelInApp {
			return Kindf(KindMissingRecipient, "reminder %d has no assignee for in-app delivery", rem.ID)
		}
	}

	if channel == worktype.ChannelEmail || channel == worktype.ChannelBoth {
		return s.sendEmail(rem, subject, body)
	}
	return nil
}
