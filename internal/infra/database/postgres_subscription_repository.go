package database

import (
	"context"
	"database/sql"
	"fmt"

	"practice_reminder_service/internal/domain/subscription"
)

type PostgresSubscriptionRepository struct {
	db *sql.DB
}

func NewPostgresSubscriptionRepository(db *sql.DB) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{db: db}
}

const subscriptionColumns = `id, firm_id, client_id, work_type_id, frequency_override, start_from, active, created_at, updated_at`

func (r *PostgresSubscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	query := `INSERT INTO subscriptions (firm_id, client_id, work_type_id, frequency_override, start_from, active)
               VALUES ($1, $2, $3, $4, $5, $6)
               RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		sub.FirmID, sub.ClientID, sub.WorkTypeID, sub.FrequencyOverride, sub.StartFrom, sub.Active,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating subscription: %w", err)
	}
	return nil
}

func scanSubscription(row *sql.Row) (*subscription.Subscription, error) {
	sub := subscription.Subscription{}
	err := row.Scan(&sub.ID, &sub.FirmID, &sub.ClientID, &sub.WorkTypeID,
		&sub.FrequencyOverride, &sub.StartFrom, &sub.Active, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *PostgresSubscriptionRepository) GetByID(ctx context.Context, firmID, id int64) (*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE firm_id = $1 AND id = $2`
	sub, err := scanSubscription(r.db.QueryRowContext(ctx, query, firmID, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("error getting subscription by ID: %w", err)
	}
	return sub, nil
}

func scanSubscriptions(rows *sql.Rows) ([]*subscription.Subscription, error) {
	subs := make([]*subscription.Subscription, 0)
	for rows.Next() {
		sub := subscription.Subscription{}
		if err := rows.Scan(&sub.ID, &sub.FirmID, &sub.ClientID, &sub.WorkTypeID,
			&sub.FrequencyOverride, &sub.StartFrom, &sub.Active, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning subscription row: %w", err)
		}
		subs = append(subs, &sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscription rows: %w", err)
	}
	return subs, nil
}

func (r *PostgresSubscriptionRepository) ListActive(ctx context.Context) ([]*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE active ORDER BY firm_id, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying active subscriptions: %w", err)
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

func (r *PostgresSubscriptionRepository) ListActiveByFirm(ctx context.Context, firmID int64) ([]*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE firm_id = $1 AND active ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, firmID)
	if err != nil {
		return nil, fmt.Errorf("error querying active subscriptions for firm: %w", err)
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

func (r *PostgresSubscriptionRepository) Deactivate(ctx context.Context, firmID, id int64) error {
	query := `UPDATE subscriptions SET active = false, updated_at = NOW() WHERE firm_id = $1 AND id = $2`
	res, err := r.db.ExecContext(ctx, query, firmID, id)
	if err != nil {
		return fmt.Errorf("error deactivating subscription: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading rows affected: %w", err)
	}
	if affected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}
