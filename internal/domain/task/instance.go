package task

import (
	"database/sql"
	"time"
)

// Status is a task instance's lifecycle state. Transitions advance
// monotonically except PAUSED and STARTED, which toggle, and OVERDUE, which
// returns to STARTED once work resumes. COMPLETED is terminal.
type Status string

const (
	StatusNotStarted Status = "NOT_STARTED"
	StatusStarted    Status = "STARTED"
	StatusPaused     Status = "PAUSED"
	StatusCompleted  Status = "COMPLETED"
	StatusOverdue    Status = "OVERDUE"
)

// Open reports whether the instance still needs work and is eligible for the
// overdue sweep.
func (s Status) Open() bool {
	switch s {
	case StatusNotStarted, StatusStarted, StatusPaused:
		return true
	}
	return false
}

// OpenStatuses is the sweep's selection set.
var OpenStatuses = []Status{StatusNotStarted, StatusStarted, StatusPaused}

// Instance is one concrete occurrence of a subscription for a period.
type Instance struct {
	ID             int64
	FirmID         int64
	SubscriptionID int64
	PeriodLabel    string
	PeriodStart    time.Time
	PeriodEnd      time.Time
	DueDate        time.Time
	Status         Status
	AssignedTo     sql.NullInt64
	StartedOn      sql.NullTime
	CompletedOn    sql.NullTime
	// TimerStartedAt is set while a work timer is running; elapsed time is
	// folded into TimeSpentSeconds when the timer pauses.
	TimerStartedAt   sql.NullTime
	TimeSpentSeconds int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TimerRunning reports whether a work timer is currently accumulating.
func (i *Instance) TimerRunning() bool {
	return i.TimerStartedAt.Valid
}

// PauseTimer folds the running timer's elapsed time into TimeSpentSeconds
// and clears the running mark. A no-op when no timer is running.
func (i *Instance) PauseTimer(now time.Time) {
	if !i.TimerStartedAt.Valid {
		return
	}
	elapsed := int64(now.Sub(i.TimerStartedAt.Time).Seconds())
	if elapsed > 0 {
		i.TimeSpentSeconds += elapsed
	}
	i.TimerStartedAt = sql.NullTime{}
}

// StartTimer marks a timer running from now. A no-op when already running.
func (i *Instance) StartTimer(now time.Time) {
	if i.TimerStartedAt.Valid {
		return
	}
	i.TimerStartedAt = sql.NullTime{Time: now, Valid: true}
}
