package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"gymdesk/internal/member/models"
	"gymdesk/pkg/platform/sentinel"
	txcontext "gymdesk/pkg/platform/tx"
)

const memberColumns = `id, member_code, first_name, last_name, email, status, membership_end_date,
	last_check_in, total_check_ins, created_at, updated_at`

// PostgresStore persists members in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, m *models.Member) error {
	if m == nil {
		return fmt.Errorf("member is required")
	}
	query := `
		INSERT INTO members (` + memberColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			member_code = EXCLUDED.member_code,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			email = EXCLUDED.email,
			status = EXCLUDED.status,
			membership_end_date = EXCLUDED.membership_end_date,
			last_check_in = EXCLUDED.last_check_in,
			total_check_ins = EXCLUDED.total_check_ins,
			updated_at = EXCLUDED.updated_at
	`
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		m.ID, m.Code, m.FirstName, m.LastName, m.Email, string(m.Status), m.MembershipEndDate,
		nullTime(m.LastCheckIn), m.TotalCheckIns, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("save member %s: %w", m.Code, sentinel.ErrConflict)
		}
		return fmt.Errorf("save member: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`
	m, err := scanMember(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("member %s: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find member by id: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) FindByCode(ctx context.Context, code string) (*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE member_code = $1`
	m, err := scanMember(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("member %s: %w", code, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find member by code: %w", err)
	}
	return m, nil
}

// RecordVisit bumps the visit counters in a single statement so concurrent check-ins never lose an increment.
func (s *PostgresStore) RecordVisit(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE members
		SET last_check_in = $2, total_check_ins = total_check_ins + 1, updated_at = $2
		WHERE id = $1
	`
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("record member visit: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record member visit: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("record visit for member %s: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

func scanMember(row *sql.Row) (*models.Member, error) {
	var (
		m           models.Member
		status      string
		lastCheckIn sql.NullTime
	)
	err := row.Scan(&m.ID, &m.Code, &m.FirstName, &m.LastName, &m.Email, &status, &m.MembershipEndDate,
		&lastCheckIn, &m.TotalCheckIns, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.Status = models.Status(status)
	if lastCheckIn.Valid {
		m.LastCheckIn = &lastCheckIn.Time
	}
	return &m, nil
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *value, Valid: true}
}
