package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = 1 * time.Minute
)

// NewPostgresConnection opens a pooled PostgreSQL connection and pings it to
// verify connectivity before handing it out.
func NewPostgresConnection(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Sentinel errors shared by the repositories in this package.
var (
	ErrFirmNotFound         = fmt.Errorf("firm not found")
	ErrClientNotFound       = fmt.Errorf("client not found")
	ErrEmployeeNotFound     = fmt.Errorf("employee not found")
	ErrWorkTypeNotFound     = fmt.Errorf("work type not found")
	ErrSubscriptionNotFound = fmt.Errorf("subscription not found")
	ErrInstanceNotFound     = fmt.Errorf("task instance not found")
	ErrReminderNotFound     = fmt.Errorf("reminder instance not found")
)
