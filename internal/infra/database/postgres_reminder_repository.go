package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"practice_reminder_service/internal/domain/reminder"
)

type PostgresReminderRepository struct {
	db *sql.DB
}

func NewPostgresReminderRepository(db *sql.DB) *PostgresReminderRepository {
	return &PostgresReminderRepository{db: db}
}

const reminderColumns = `id, firm_id, task_instance_id, recipient_type, email, scheduled_at, scheduled_on,
	send_status, repeat_count, subject, body, last_error, created_at, updated_at`

// CreateIfAbsent relies on the partial unique index over (task_instance_id,
// recipient_type, scheduled_on) for active reminders: a concurrent duplicate
// collapses to a no-op instead of an error.
func (r *PostgresReminderRepository) CreateIfAbsent(ctx context.Context, rem *reminder.Instance) (bool, error) {
	query := `INSERT INTO reminder_instances (firm_id, task_instance_id, recipient_type, email,
               scheduled_at, scheduled_on, send_status, repeat_count, subject, body, last_error)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
               ON CONFLICT (task_instance_id, recipient_type, scheduled_on)
                   WHERE send_status IN ('PENDING', 'SENT')
                   DO NOTHING
               RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		rem.FirmID, rem.TaskInstanceID, rem.Recipient, rem.Email,
		rem.ScheduledAt, rem.ScheduledOn, rem.SendStatus, rem.RepeatCount,
		rem.Subject, rem.Body, rem.LastError,
	).Scan(&rem.ID, &rem.CreatedAt, &rem.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			// Conflict: an active reminder already covers this date.
			return false, nil
		}
		return false, fmt.Errorf("error creating reminder instance: %w", err)
	}
	return true, nil
}

func (r *PostgresReminderRepository) GetByID(ctx context.Context, id int64) (*reminder.Instance, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminder_instances WHERE id = $1`
	rem := reminder.Instance{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rem.ID, &rem.FirmID, &rem.TaskInstanceID, &rem.Recipient, &rem.Email,
		&rem.ScheduledAt, &rem.ScheduledOn, &rem.SendStatus, &rem.RepeatCount,
		&rem.Subject, &rem.Body, &rem.LastError, &rem.CreatedAt, &rem.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrReminderNotFound
		}
		return nil, fmt.Errorf("error getting reminder instance by ID: %w", err)
	}
	return &rem, nil
}

func (r *PostgresReminderRepository) Update(ctx context.Context, rem *reminder.Instance) error {
	query := `UPDATE reminder_instances
               SET send_status = $1, repeat_count = $2, subject = $3, body = $4, last_error = $5,
                   updated_at = NOW()
               WHERE id = $6
               RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		rem.SendStatus, rem.RepeatCount, rem.Subject, rem.Body, rem.LastError, rem.ID,
	).Scan(&rem.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrReminderNotFound
		}
		return fmt.Errorf("error updating reminder instance: %w", err)
	}
	return nil
}

func scanReminders(rows *sql.Rows) ([]*reminder.Instance, error) {
	reminders := make([]*reminder.Instance, 0)
	for rows.Next() {
		rem := reminder.Instance{}
		if err := rows.Scan(
			&rem.ID, &rem.FirmID, &rem.TaskInstanceID, &rem.Recipient, &rem.Email,
			&rem.ScheduledAt, &rem.ScheduledOn, &rem.SendStatus, &rem.RepeatCount,
			&rem.Subject, &rem.Body, &rem.LastError, &rem.CreatedAt, &rem.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning reminder instance row: %w", err)
		}
		reminders = append(reminders, &rem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminder instance rows: %w", err)
	}
	return reminders, nil
}

func (r *PostgresReminderRepository) ListByTask(ctx context.Context, firmID, taskInstanceID int64) ([]*reminder.Instance, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminder_instances
               WHERE firm_id = $1 AND task_instance_id = $2
               ORDER BY scheduled_at, recipient_type`
	rows, err := r.db.QueryContext(ctx, query, firmID, taskInstanceID)
	if err != nil {
		return nil, fmt.Errorf("error querying reminders by task: %w", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

func (r *PostgresReminderRepository) ListDue(ctx context.Context, now time.Time) ([]*reminder.Instance, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminder_instances
               WHERE send_status = $1 AND scheduled_at <= $2
               ORDER BY scheduled_at ASC`
	rows, err := r.db.QueryContext(ctx, query, reminder.StatusPending, now)
	if err != nil {
		return nil, fmt.Errorf("error querying due reminders: %w", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

func (r *PostgresReminderRepository) bulkTransitionPending(ctx context.Context, taskInstanceID int64, to reminder.SendStatus, after *time.Time) (int64, error) {
	query := `UPDATE reminder_instances
               SET send_status = $1, updated_at = NOW()
               WHERE task_instance_id = $2 AND send_status = $3`
	args := []interface{}{to, taskInstanceID, reminder.StatusPending}
	if after != nil {
		query += ` AND scheduled_at > $4`
		args = append(args, *after)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("error bulk transitioning pending reminders to %s: %w", to, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading rows affected: %w", err)
	}
	return affected, nil
}

func (r *PostgresReminderRepository) CancelFuturePending(ctx context.Context, taskInstanceID int64, after time.Time) (int64, error) {
	return r.bulkTransitionPending(ctx, taskInstanceID, reminder.StatusCancelled, &after)
}

func (r *PostgresReminderRepository) SkipPending(ctx context.Context, taskInstanceID int64) (int64, error) {
	return r.bulkTransitionPending(ctx, taskInstanceID, reminder.StatusSkipped, nil)
}
