package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/example/carpool-matching/internal/models"
)

// uniqueViolation is the Postgres SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	// quick ping
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) DB() *sql.DB { return p.db }

func (p *PostgresStore) Close() error { return p.db.Close() }

func (p *PostgresStore) Append(ctx context.Context, userID string, it models.RideHistoryItem) error {
	_, err := p.db.ExecContext(ctx, `INSERT INTO ride_history(id, user_id, date_label, origin, destination, role, price, driver_name, rider_name, status, payment_ref) VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		it.ID, userID, it.Date, it.Origin, it.Destination, string(it.Role), it.Price, it.DriverName, it.RiderName, string(it.Status), it.PaymentRef)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return ErrDuplicate
	}
	return err
}

func (p *PostgresStore) List(ctx context.Context, userID string) ([]models.RideHistoryItem, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, date_label, origin, destination, role, price, driver_name, rider_name, status, payment_ref FROM ride_history WHERE user_id=$1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RideHistoryItem
	for rows.Next() {
		var it models.RideHistoryItem
		var role, status string
		if err := rows.Scan(&it.ID, &it.Date, &it.Origin, &it.Destination, &role, &it.Price, &it.DriverName, &it.RiderName, &status, &it.PaymentRef); err != nil {
			return nil, err
		}
		it.Role = models.Role(role)
		it.Status = models.HistoryStatus(status)
		out = append(out, it)
	}
	return out, rows.Err()
}
