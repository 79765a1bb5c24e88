package directory

import (
	"database/sql"
	"time"
)

// Firm is the tenant. Every record in the system is scoped to one firm.
type Firm struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Client is a firm's customer, the CLIENT recipient of reminders.
type Client struct {
	ID        int64
	FirmID    int64
	Name      string
	Email     sql.NullString
	PAN       sql.NullString
	GSTIN     sql.NullString
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Employee is a firm staff member, the EMPLOYEE recipient of reminders and
// the assignee of task instances.
type Employee struct {
	ID        int64
	FirmID    int64
	Name      string
	Email     sql.NullString
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
