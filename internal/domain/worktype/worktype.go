package worktype

import (
	"database/sql"
	"time"

	"practice_reminder_service/internal/domain/schedule"
)

// NotificationChannel selects how employee-facing reminders are delivered.
type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "EMAIL"
	ChannelInApp NotificationChannel = "IN_APP"
	ChannelBoth  NotificationChannel = "BOTH"
)

// Audience is the recipient fan-out of a legacy offset-based reminder rule.
type Audience string

const (
	AudienceClient   Audience = "CLIENT"
	AudienceEmployee Audience = "EMPLOYEE"
	AudienceBoth     Audience = "BOTH"
)

// WorkType is a firm's recurring statutory obligation template (e.g. "GSTR-3B
// Filing"). It is read-only to the scheduling engine: the CRUD screens that
// maintain it live outside this service.
type WorkType struct {
	ID            int64
	FirmID        int64
	Name          string
	StatutoryForm sql.NullString
	Frequency     schedule.Frequency
	DueDayOfMonth int
	// Yearly work types ignore DueDayOfMonth and use a fixed month/day.
	// Zero values mean the July 31 default.
	YearlyDueMonth int
	YearlyDueDay   int

	// Auto-driven work types create their instances ready to work; with
	// AutoStart set the instance is created directly in STARTED.
	AutoDriven bool
	AutoStart  bool

	DefaultAssigneeID sql.NullInt64

	EnableClientReminders      bool
	ClientReminderFrequency    schedule.ReminderFrequency
	ClientReminderIntervalDays int
	ClientReminderWeekdays     string
	ClientReminderLeadDays     int

	EnableEmployeeReminders      bool
	EmployeeReminderFrequency    schedule.ReminderFrequency
	EmployeeReminderIntervalDays int
	EmployeeReminderWeekdays     string
	EmployeeReminderLeadDays     int
	EmployeeChannel              NotificationChannel

	ClientTemplateSubject   sql.NullString
	ClientTemplateBody      sql.NullString
	EmployeeTemplateSubject sql.NullString
	EmployeeTemplateBody    sql.NullString

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DueConfig assembles the period calculator's due-date settings.
func (w *WorkType) DueConfig() schedule.DueConfig {
	return schedule.DueConfig{
		DayOfMonth:  w.DueDayOfMonth,
		YearlyMonth: time.Month(w.YearlyDueMonth),
		YearlyDay:   w.YearlyDueDay,
	}
}

// ClientPolicy returns the client-facing reminder cadence.
func (w *WorkType) ClientPolicy() schedule.ReminderPolicy {
	return schedule.ReminderPolicy{
		Frequency:    w.ClientReminderFrequency,
		IntervalDays: w.ClientReminderIntervalDays,
		Weekdays:     w.ClientReminderWeekdays,
	}
}

// EmployeePolicy returns the employee-facing reminder cadence.
func (w *WorkType) EmployeePolicy() schedule.ReminderPolicy {
	return schedule.ReminderPolicy{
		Frequency:    w.EmployeeReminderFrequency,
		IntervalDays: w.EmployeeReminderIntervalDays,
		Weekdays:     w.EmployeeReminderWeekdays,
	}
}

// ReminderRule is a legacy offset-based reminder: one reminder at due date
// plus OffsetDays, kept for firms that predate the windowed policies.
type ReminderRule struct {
	ID         int64
	FirmID     int64
	WorkTypeID int64
	OffsetDays int
	Audience   Audience
	Active     bool
	CreatedAt  time.Time
}
