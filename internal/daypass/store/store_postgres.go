package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"gymdesk/internal/daypass/models"
	"gymdesk/pkg/platform/sentinel"
	txcontext "gymdesk/pkg/platform/tx"
)

const dayPassColumns = `id, pass_id, qr_code, first_name, last_name, email, phone, valid_date,
	amount_cents, status, used_at, created_at, updated_at`

// PostgresStore persists day passes in PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	runner *txcontext.Runner
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, runner: txcontext.NewRunner(db)}
}

func (s *PostgresStore) Save(ctx context.Context, p *models.DayPass) error {
	if p == nil {
		return fmt.Errorf("day pass is required")
	}
	query := `
		INSERT INTO day_passes (` + dayPassColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			qr_code = EXCLUDED.qr_code,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			valid_date = EXCLUDED.valid_date,
			amount_cents = EXCLUDED.amount_cents,
			status = EXCLUDED.status,
			used_at = EXCLUDED.used_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		p.ID, p.PassID, p.QRCode, p.FirstName, p.LastName, p.Email, p.Phone, p.ValidDate,
		p.AmountCents, string(p.Status), nullTime(p.UsedAt), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("save day pass %s: %w", p.PassID, sentinel.ErrConflict)
		}
		return fmt.Errorf("save day pass: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByPassID(ctx context.Context, passID string) (*models.DayPass, error) {
	query := `SELECT ` + dayPassColumns + ` FROM day_passes WHERE pass_id = $1`
	p, err := scanDayPass(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, passID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("day pass %s: %w", passID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find day pass: %w", err)
	}
	return p, nil
}

// FindByCode matches either the printed QR code or the pass id.
func (s *PostgresStore) FindByCode(ctx context.Context, code string) (*models.DayPass, error) {
	query := `SELECT ` + dayPassColumns + ` FROM day_passes WHERE qr_code = $1 OR pass_id = $1 LIMIT 1`
	p, err := scanDayPass(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("day pass code %s: %w", code, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find day pass by code: %w", err)
	}
	return p, nil
}

// Execute locks the row, validates and persists the mutation in one transaction.
// Joins the caller's transaction when ctx carries one.
func (s *PostgresStore) Execute(ctx context.Context, passID string, validate func(*models.DayPass) error, mutate func(*models.DayPass)) (*models.DayPass, error) {
	var result *models.DayPass
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		q := txcontext.Executor(ctx, s.db)
		query := `SELECT ` + dayPassColumns + ` FROM day_passes WHERE pass_id = $1 FOR UPDATE`
		p, err := scanDayPass(q.QueryRowContext(ctx, query, passID))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("day pass %s: %w", passID, sentinel.ErrNotFound)
			}
			return fmt.Errorf("lock day pass: %w", err)
		}
		if err := validate(p); err != nil {
			return err
		}
		mutate(p)

		update := `UPDATE day_passes SET status = $2, used_at = $3, updated_at = $4 WHERE id = $1`
		if _, err := q.ExecContext(ctx, update, p.ID, string(p.Status), nullTime(p.UsedAt), p.UpdatedAt); err != nil {
			return fmt.Errorf("update day pass: %w", err)
		}
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ExpireBefore marks active passes dated before today as expired.
func (s *PostgresStore) ExpireBefore(ctx context.Context, today, now time.Time) (int, error) {
	query := `UPDATE day_passes SET status = 'expired', updated_at = $2 WHERE status = 'active' AND valid_date < $1`
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query, today, now)
	if err != nil {
		return 0, fmt.Errorf("expire day passes: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expire day passes: %w", err)
	}
	return int(affected), nil
}

func scanDayPass(row *sql.Row) (*models.DayPass, error) {
	var (
		p      models.DayPass
		status string
		usedAt sql.NullTime
	)
	err := row.Scan(&p.ID, &p.PassID, &p.QRCode, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &p.ValidDate,
		&p.AmountCents, &status, &usedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Status = models.Status(status)
	p.ValidDate = p.ValidDate.UTC()
	if usedAt.Valid {
		p.UsedAt = &usedAt.Time
	}
	return &p, nil
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *value, Valid: true}
}
