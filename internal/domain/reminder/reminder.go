package reminder

import (
	"database/sql"
	"time"
)

// RecipientClass addresses a reminder to exactly one side of the engagement.
type RecipientClass string

const (
	ClassClient   RecipientClass = "CLIENT"
	ClassEmployee RecipientClass = "EMPLOYEE"
)

// SendStatus is a reminder's delivery state. CANCELLED means superseded by a
// reschedule; SKIPPED means no longer relevant because the task completed.
type SendStatus string

const (
	StatusPending   SendStatus = "PENDING"
	StatusSent      SendStatus = "SENT"
	StatusFailed    SendStatus = "FAILED"
	StatusCancelled SendStatus = "CANCELLED"
	StatusSkipped   SendStatus = "SKIPPED"
)

// Instance is one scheduled notification for a task instance. At most one
// non-cancelled reminder may exist per (task instance, recipient class,
// calendar date); the ScheduledOn column carries the date part of the dedup
// key.
type Instance struct {
	ID             int64
	FirmID         int64
	TaskInstanceID int64
	Recipient      RecipientClass
	Email          string
	ScheduledAt    time.Time
	ScheduledOn    time.Time
	SendStatus     SendStatus
	RepeatCount    int
	// Subject and Body are cached at send time so history survives template
	// edits.
	Subject   sql.NullString
	Body      sql.NullString
	LastError sql.NullString
	CreatedAt time.Time
	UpdatedAt time.Time
}
