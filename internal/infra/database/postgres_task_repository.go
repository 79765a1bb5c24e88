package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"practice_reminder_service/internal/domain/task"
)

type PostgresTaskRepository struct {
	db *sql.DB
}

func NewPostgresTaskRepository(db *sql.DB) *PostgresTaskRepository {
	return &PostgresTaskRepository{db: db}
}

const taskColumns = `id, firm_id, subscription_id, period_label, period_start, period_end, due_date,
	status, assigned_to, started_on, completed_on, timer_started_at, time_spent_seconds,
	created_at, updated_at`

func (r *PostgresTaskRepository) Create(ctx context.Context, inst *task.Instance) error {
	query := `INSERT INTO task_instances (firm_id, subscription_id, period_label, period_start, period_end,
               due_date, status, assigned_to, started_on, timer_started_at, time_spent_seconds)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
               RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		inst.FirmID, inst.SubscriptionID, inst.PeriodLabel, inst.PeriodStart, inst.PeriodEnd,
		inst.DueDate, inst.Status, inst.AssignedTo, inst.StartedOn, inst.TimerStartedAt, inst.TimeSpentSeconds,
	).Scan(&inst.ID, &inst.CreatedAt, &inst.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating task instance: %w", err)
	}
	return nil
}

func (r *PostgresTaskRepository) GetByID(ctx context.Context, firmID, id int64) (*task.Instance, error) {
	query := `SELECT ` + taskColumns + ` FROM task_instances WHERE firm_id = $1 AND id = $2`
	inst := task.Instance{}
	err := r.db.QueryRowContext(ctx, query, firmID, id).Scan(
		&inst.ID, &inst.FirmID, &inst.SubscriptionID, &inst.PeriodLabel, &inst.PeriodStart, &inst.PeriodEnd,
		&inst.DueDate, &inst.Status, &inst.AssignedTo, &inst.StartedOn, &inst.CompletedOn,
		&inst.TimerStartedAt, &inst.TimeSpentSeconds, &inst.CreatedAt, &inst.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrInstanceNotFound
		}
		return nil, fmt.Errorf("error getting task instance by ID: %w", err)
	}
	return &inst, nil
}

func (r *PostgresTaskRepository) Update(ctx context.Context, inst *task.Instance) error {
	query := `UPDATE task_instances
               SET due_date = $1, status = $2, assigned_to = $3, started_on = $4, completed_on = $5,
                   timer_started_at = $6, time_spent_seconds = $7, updated_at = NOW()
               WHERE id = $8
               RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		inst.DueDate, inst.Status, inst.AssignedTo, inst.StartedOn, inst.CompletedOn,
		inst.TimerStartedAt, inst.TimeSpentSeconds, inst.ID,
	).Scan(&inst.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrInstanceNotFound
		}
		return fmt.Errorf("error updating task instance: %w", err)
	}
	return nil
}

func (r *PostgresTaskRepository) LatestForSubscription(ctx context.Context, firmID, subscriptionID int64) (*task.Instance, error) {
	query := `SELECT ` + taskColumns + ` FROM task_instances
               WHERE firm_id = $1 AND subscription_id = $2
               ORDER BY due_date DESC, id DESC LIMIT 1`
	inst := task.Instance{}
	err := r.db.QueryRowContext(ctx, query, firmID, subscriptionID).Scan(
		&inst.ID, &inst.FirmID, &inst.SubscriptionID, &inst.PeriodLabel, &inst.PeriodStart, &inst.PeriodEnd,
		&inst.DueDate, &inst.Status, &inst.AssignedTo, &inst.StartedOn, &inst.CompletedOn,
		&inst.TimerStartedAt, &inst.TimeSpentSeconds, &inst.CreatedAt, &inst.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrInstanceNotFound
		}
		return nil, fmt.Errorf("error getting latest task instance: %w", err)
	}
	return &inst, nil
}

func scanInstances(rows *sql.Rows) ([]*task.Instance, error) {
	instances := make([]*task.Instance, 0)
	for rows.Next() {
		inst := task.Instance{}
		if err := rows.Scan(
			&inst.ID, &inst.FirmID, &inst.SubscriptionID, &inst.PeriodLabel, &inst.PeriodStart, &inst.PeriodEnd,
			&inst.DueDate, &inst.Status, &inst.AssignedTo, &inst.StartedOn, &inst.CompletedOn,
			&inst.TimerStartedAt, &inst.TimeSpentSeconds, &inst.CreatedAt, &inst.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning task instance row: %w", err)
		}
		instances = append(instances, &inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task instance rows: %w", err)
	}
	return instances, nil
}

func (r *PostgresTaskRepository) ListOpenPastDue(ctx context.Context, before time.Time) ([]*task.Instance, error) {
	query := `SELECT ` + taskColumns + ` FROM task_instances
               WHERE due_date < $1 AND status = ANY($2::varchar[])
               ORDER BY firm_id, due_date`
	statuses := make([]string, len(task.OpenStatuses))
	for i, st := range task.OpenStatuses {
		statuses[i] = string(st)
	}
	rows, err := r.db.QueryContext(ctx, query, before, pq.Array(statuses))
	if err != nil {
		return nil, fmt.Errorf("error querying open past-due instances: %w", err)
	}
	defer rows.Close()
	return scanInstances(rows)
}

func (r *PostgresTaskRepository) BulkMarkOverdue(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	// Status is re-checked here so a concurrent completion between the scan
	// and this update is not clobbered.
	query := `UPDATE task_instances
               SET status = $1, updated_at = NOW()
               WHERE id = ANY($2::bigint[]) AND status = ANY($3::varchar[])`
	statuses := make([]string, len(task.OpenStatuses))
	for i, st := range task.OpenStatuses {
		statuses[i] = string(st)
	}
	res, err := r.db.ExecContext(ctx, query, task.StatusOverdue, pq.Array(ids), pq.Array(statuses))
	if err != nil {
		return 0, fmt.Errorf("error bulk marking instances overdue: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading rows affected: %w", err)
	}
	return affected, nil
}

func (r *PostgresTaskRepository) ListAutoStartCandidates(ctx context.Context, onOrBefore time.Time) ([]*task.Instance, error) {
	query := `SELECT ti.id, ti.firm_id, ti.subscription_id, ti.period_label, ti.period_start, ti.period_end,
                      ti.due_date, ti.status, ti.assigned_to, ti.started_on, ti.completed_on,
                      ti.timer_started_at, ti.time_spent_seconds, ti.created_at, ti.updated_at
               FROM task_instances ti
               JOIN subscriptions s ON s.id = ti.subscription_id
               JOIN work_types w ON w.id = s.work_type_id
               WHERE ti.status = $1 AND ti.period_start <= $2 AND w.auto_driven AND w.auto_start
               ORDER BY ti.firm_id, ti.id`
	rows, err := r.db.QueryContext(ctx, query, task.StatusNotStarted, onOrBefore)
	if err != nil {
		return nil, fmt.Errorf("error querying auto-start candidates: %w", err)
	}
	defer rows.Close()
	return scanInstances(rows)
}
