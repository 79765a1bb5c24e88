package database

import (
	"context"
	"database/sql"
	"fmt"

	"practice_reminder_service/internal/domain/directory"
)

type PostgresDirectoryRepository struct {
	db *sql.DB
}

func NewPostgresDirectoryRepository(db *sql.DB) *PostgresDirectoryRepository {
	return &PostgresDirectoryRepository{db: db}
}

func (r *PostgresDirectoryRepository) GetFirm(ctx context.Context, id int64) (*directory.Firm, error) {
	query := `SELECT id, name, created_at FROM firms WHERE id = $1`
	firm := directory.Firm{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&firm.ID, &firm.Name, &firm.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrFirmNotFound
		}
		return nil, fmt.Errorf("error getting firm by ID: %w", err)
	}
	return &firm, nil
}

func (r *PostgresDirectoryRepository) GetClient(ctx context.Context, firmID, id int64) (*directory.Client, error) {
	query := `SELECT id, firm_id, name, email, pan, gstin, active, created_at, updated_at
               FROM clients WHERE firm_id = $1 AND id = $2`
	client := directory.Client{}
	err := r.db.QueryRowContext(ctx, query, firmID, id).Scan(
		&client.ID, &client.FirmID, &client.Name, &client.Email, &client.PAN, &client.GSTIN,
		&client.Active, &client.CreatedAt, &client.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("error getting client by ID: %w", err)
	}
	return &client, nil
}

func (r *PostgresDirectoryRepository) GetEmployee(ctx context.Context, firmID, id int64) (*directory.Employee, error) {
	query := `SELECT id, firm_id, name, email, active, created_at, updated_at
               FROM employees WHERE firm_id = $1 AND id = $2`
	emp := directory.Employee{}
	err := r.db.QueryRowContext(ctx, query, firmID, id).Scan(
		&emp.ID, &emp.FirmID, &emp.Name, &emp.Email, &emp.Active, &emp.CreatedAt, &emp.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("error getting employee by ID: %w", err)
	}
	return &emp, nil
}
