package database

import (
	"context"
	"database/sql"
	"fmt"

	"practice_reminder_service/internal/domain/schedule"
	"practice_reminder_service/internal/domain/worktype"
)

type PostgresWorkTypeRepository struct {
	db *sql.DB
}

func NewPostgresWorkTypeRepository(db *sql.DB) *PostgresWorkTypeRepository {
	return &PostgresWorkTypeRepository{db: db}
}

const workTypeColumns = `id, firm_id, name, statutory_form, frequency, due_day_of_month,
	yearly_due_month, yearly_due_day, auto_driven, auto_start, default_assignee_id,
	enable_client_reminders, client_reminder_frequency, client_reminder_interval_days,
	client_reminder_weekdays, client_reminder_lead_days,
	enable_employee_reminders, employee_reminder_frequency, employee_reminder_interval_days,
	employee_reminder_weekdays, employee_reminder_lead_days, employee_channel,
	client_template_subject, client_template_body, employee_template_subject, employee_template_body,
	created_at, updated_at`

// workTypeRow holds the nullable columns of the work_types table. CRUD
// screens outside this service leave cadence fields NULL until a firm
// customizes them; zero values map onto the calculator defaults.
type workTypeRow struct {
	dueDayOfMonth  sql.NullInt64
	yearlyDueMonth sql.NullInt64
	yearlyDueDay   sql.NullInt64

	clientFrequency    sql.NullString
	clientIntervalDays sql.NullInt64
	clientWeekdays     sql.NullString
	clientLeadDays     sql.NullInt64

	employeeFrequency    sql.NullString
	employeeIntervalDays sql.NullInt64
	employeeWeekdays     sql.NullString
	employeeLeadDays     sql.NullInt64
	employeeChannel      sql.NullString
}

func (row *workTypeRow) apply(wt *worktype.WorkType) {
	wt.DueDayOfMonth = int(row.dueDayOfMonth.Int64)
	wt.YearlyDueMonth = int(row.yearlyDueMonth.Int64)
	wt.YearlyDueDay = int(row.yearlyDueDay.Int64)

	wt.ClientReminderFrequency = schedule.ReminderFrequency(row.clientFrequency.String)
	wt.ClientReminderIntervalDays = int(row.clientIntervalDays.Int64)
	wt.ClientReminderWeekdays = row.clientWeekdays.String
	wt.ClientReminderLeadDays = int(row.clientLeadDays.Int64)

	wt.EmployeeReminderFrequency = schedule.ReminderFrequency(row.employeeFrequency.String)
	wt.EmployeeReminderIntervalDays = int(row.employeeIntervalDays.Int64)
	wt.EmployeeReminderWeekdays = row.employeeWeekdays.String
	wt.EmployeeReminderLeadDays = int(row.employeeLeadDays.Int64)
	wt.EmployeeChannel = worktype.NotificationChannel(row.employeeChannel.String)
}

func (r *PostgresWorkTypeRepository) GetByID(ctx context.Context, firmID, id int64) (*worktype.WorkType, error) {
	query := `SELECT ` + workTypeColumns + ` FROM work_types WHERE firm_id = $1 AND id = $2`
	wt := worktype.WorkType{}
	row := workTypeRow{}
	err := r.db.QueryRowContext(ctx, query, firmID, id).Scan(
		&wt.ID, &wt.FirmID, &wt.Name, &wt.StatutoryForm, &wt.Frequency, &row.dueDayOfMonth,
		&row.yearlyDueMonth, &row.yearlyDueDay, &wt.AutoDriven, &wt.AutoStart, &wt.DefaultAssigneeID,
		&wt.EnableClientReminders, &row.clientFrequency, &row.clientIntervalDays,
		&row.clientWeekdays, &row.clientLeadDays,
		&wt.EnableEmployeeReminders, &row.employeeFrequency, &row.employeeIntervalDays,
		&row.employeeWeekdays, &row.employeeLeadDays, &row.employeeChannel,
		&wt.ClientTemplateSubject, &wt.ClientTemplateBody, &wt.EmployeeTemplateSubject, &wt.EmployeeTemplateBody,
		&wt.CreatedAt, &wt.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrWorkTypeNotFound
		}
		return nil, fmt.Errorf("error getting work type by ID: %w", err)
	}
	row.apply(&wt)
	return &wt, nil
}

func (r *PostgresWorkTypeRepository) ListActiveRules(ctx context.Context, firmID, workTypeID int64) ([]*worktype.ReminderRule, error) {
	query := `SELECT id, firm_id, work_type_id, offset_days, audience, active, created_at
               FROM reminder_rules
               WHERE firm_id = $1 AND work_type_id = $2 AND active
               ORDER BY offset_days`
	rows, err := r.db.QueryContext(ctx, query, firmID, workTypeID)
	if err != nil {
		return nil, fmt.Errorf("error querying reminder rules: %w", err)
	}
	defer rows.Close()

	rules := make([]*worktype.ReminderRule, 0)
	for rows.Next() {
		rule := worktype.ReminderRule{}
		if err := rows.Scan(&rule.ID, &rule.FirmID, &rule.WorkTypeID,
			&rule.OffsetDays, &rule.Audience, &rule.Active, &rule.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning reminder rule row: %w", err)
		}
		rules = append(rules, &rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminder rule rows: %w", err)
	}
	return rules, nil
}
