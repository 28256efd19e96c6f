package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"gymdesk/internal/attendance/models"
	"gymdesk/pkg/platform/sentinel"
	txcontext "gymdesk/pkg/platform/tx"
)

const recordColumns = `id, subject_kind, member_id, member_code, day_pass_id,
	pass_first_name, pass_last_name, pass_email, pass_phone, pass_valid_date, pass_amount_cents,
	entry_time, exit_time, duration_minutes, method, status, auto_checkout_enabled,
	scheduled_checkout_time, location, notes, created_at, updated_at`

const uniqueViolation = "23505"

// PostgresStore persists attendance records in PostgreSQL.
// The partial unique indexes on open member_id/day_pass_id back the
// single-open-visit rule; violations surface as sentinel.ErrConflict.
type PostgresStore struct {
	db     *sql.DB
	runner *txcontext.Runner
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, runner: txcontext.NewRunner(db)}
}

func (s *PostgresStore) Create(ctx context.Context, r *models.AttendanceRecord) error {
	if r == nil {
		return fmt.Errorf("attendance record is required")
	}
	row := toRow(r)
	query := `
		INSERT INTO attendance_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query, row.args()...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("open visit for %s: %w", r.Subject.Identity(), sentinel.ErrConflict)
		}
		return fmt.Errorf("create attendance record: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.AttendanceRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM attendance_records WHERE id = $1`
	r, err := scanRecord(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("attendance record %s: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find attendance record: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) FindOpenByMember(ctx context.Context, memberID uuid.UUID) (*models.AttendanceRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM attendance_records WHERE member_id = $1 AND status = 'open'`
	r, err := scanRecord(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, memberID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("open visit for member %s: %w", memberID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find open visit: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) FindOpenByDayPass(ctx context.Context, passID string) (*models.AttendanceRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM attendance_records WHERE day_pass_id = $1 AND status = 'open'`
	r, err := scanRecord(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, passID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("open visit for day pass %s: %w", passID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find open visit: %w", err)
	}
	return r, nil
}

// FindByFilters returns matching records, newest entry first.
func (s *PostgresStore) FindByFilters(ctx context.Context, f models.Filters) ([]*models.AttendanceRecord, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, 0, len(f.Statuses))
		for _, st := range f.Statuses {
			statuses = append(statuses, string(st))
		}
		add("status = ANY($%d)", pq.Array(statuses))
	}
	if f.Kind != "" {
		add("subject_kind = $%d", string(f.Kind))
	}
	if f.Method != "" {
		add("method = $%d", string(f.Method))
	}
	if f.MemberID != nil {
		add("member_id = $%d", *f.MemberID)
	}
	if f.DayPassID != "" {
		add("day_pass_id = $%d", f.DayPassID)
	}
	if f.EntryFrom != nil {
		add("entry_time >= $%d", *f.EntryFrom)
	}
	if f.EntryUntil != nil {
		add("entry_time < $%d", *f.EntryUntil)
	}

	query := `SELECT ` + recordColumns + ` FROM attendance_records`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY entry_time DESC`
	if limit := f.EffectiveLimit(); limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	return s.queryRecords(ctx, query, args...)
}

// FindOpenPastDeadline returns open auto-checkout records whose deadline is at or before before.
func (s *PostgresStore) FindOpenPastDeadline(ctx context.Context, before time.Time) ([]*models.AttendanceRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM attendance_records
		WHERE status = 'open' AND auto_checkout_enabled AND scheduled_checkout_time <= $1
		ORDER BY scheduled_checkout_time ASC`
	return s.queryRecords(ctx, query, before)
}

// CountEntriesBetween counts a member's visits with entry in [start, end).
func (s *PostgresStore) CountEntriesBetween(ctx context.Context, memberID uuid.UUID, start, end time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM attendance_records WHERE member_id = $1 AND entry_time >= $2 AND entry_time < $3`
	var count int
	if err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, memberID, start, end).Scan(&count); err != nil {
		return 0, fmt.Errorf("count member entries: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) Update(ctx context.Context, r *models.AttendanceRecord) error {
	if r == nil {
		return fmt.Errorf("attendance record is required")
	}
	return s.update(ctx, txcontext.Executor(ctx, s.db), r)
}

// UpdateStatus moves a record from one status to another only if it is still in from.
func (s *PostgresStore) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.Status, at time.Time) (bool, error) {
	query := `UPDATE attendance_records SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query, id, string(from), string(to), at)
	if err != nil {
		return false, fmt.Errorf("update attendance status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update attendance status: %w", err)
	}
	if affected == 0 {
		if _, err := s.FindByID(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// Execute locks the row, validates and persists the mutation in one transaction.
func (s *PostgresStore) Execute(ctx context.Context, id uuid.UUID, validate func(*models.AttendanceRecord) error, mutate func(*models.AttendanceRecord)) (*models.AttendanceRecord, error) {
	var result *models.AttendanceRecord
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		q := txcontext.Executor(ctx, s.db)
		query := `SELECT ` + recordColumns + ` FROM attendance_records WHERE id = $1 FOR UPDATE`
		r, err := scanRecord(q.QueryRowContext(ctx, query, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("attendance record %s: %w", id, sentinel.ErrNotFound)
			}
			return fmt.Errorf("lock attendance record: %w", err)
		}
		if err := validate(r); err != nil {
			return err
		}
		mutate(r)
		if err := s.update(ctx, q, r); err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *PostgresStore) update(ctx context.Context, q txcontext.Querier, r *models.AttendanceRecord) error {
	query := `
		UPDATE attendance_records SET
			exit_time = $2,
			duration_minutes = $3,
			status = $4,
			auto_checkout_enabled = $5,
			scheduled_checkout_time = $6,
			location = $7,
			notes = $8,
			updated_at = $9
		WHERE id = $1
	`
	res, err := q.ExecContext(ctx, query,
		r.ID, nullTime(r.ExitTime), nullInt(r.DurationMinutes), string(r.Status), r.AutoCheckoutEnabled,
		nullTime(r.ScheduledCheckoutTime), r.Location, pq.Array(r.Notes), r.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("open visit for %s: %w", r.Subject.Identity(), sentinel.ErrConflict)
		}
		return fmt.Errorf("update attendance record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update attendance record: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("attendance record %s: %w", r.ID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) queryRecords(ctx context.Context, query string, args ...any) ([]*models.AttendanceRecord, error) {
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attendance records: %w", err)
	}
	defer rows.Close()

	var out []*models.AttendanceRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance records: %w", err)
	}
	return out, nil
}

// recordRow is the flattened column shape of an attendance record.
type recordRow struct {
	id            uuid.UUID
	kind          string
	memberID      uuid.NullUUID
	memberCode    sql.NullString
	dayPassID     sql.NullString
	passFirstName sql.NullString
	passLastName  sql.NullString
	passEmail     sql.NullString
	passPhone     sql.NullString
	passValidDate sql.NullTime
	passAmount    sql.NullInt64
	entry         time.Time
	exit          sql.NullTime
	duration      sql.NullInt64
	method        string
	status        string
	autoCheckout  bool
	scheduled     sql.NullTime
	location      string
	notes         []string
	createdAt     time.Time
	updatedAt     time.Time
}

func toRow(r *models.AttendanceRecord) recordRow {
	row := recordRow{
		id:           r.ID,
		kind:         string(r.Subject.Kind()),
		entry:        r.EntryTime,
		exit:         nullTime(r.ExitTime),
		duration:     nullInt(r.DurationMinutes),
		method:       string(r.Method),
		status:       string(r.Status),
		autoCheckout: r.AutoCheckoutEnabled,
		scheduled:    nullTime(r.ScheduledCheckoutTime),
		location:     r.Location,
		notes:        r.Notes,
		createdAt:    r.CreatedAt,
		updatedAt:    r.UpdatedAt,
	}
	switch s := r.Subject.(type) {
	case models.MemberSubject:
		row.memberID = uuid.NullUUID{UUID: s.MemberID, Valid: true}
		row.memberCode = sql.NullString{String: s.MemberCode, Valid: true}
	case models.DayPassSubject:
		p := s.Pass
		row.dayPassID = sql.NullString{String: p.PassID, Valid: true}
		row.passFirstName = sql.NullString{String: p.FirstName, Valid: true}
		row.passLastName = sql.NullString{String: p.LastName, Valid: true}
		row.passEmail = sql.NullString{String: p.Email, Valid: true}
		row.passPhone = sql.NullString{String: p.Phone, Valid: true}
		row.passValidDate = sql.NullTime{Time: p.ValidDate, Valid: !p.ValidDate.IsZero()}
		row.passAmount = sql.NullInt64{Int64: p.AmountCents, Valid: true}
	}
	return row
}

func (row recordRow) args() []any {
	notes := row.notes
	if notes == nil {
		notes = []string{}
	}
	return []any{
		row.id, row.kind, row.memberID, row.memberCode, row.dayPassID,
		row.passFirstName, row.passLastName, row.passEmail, row.passPhone, row.passValidDate, row.passAmount,
		row.entry, row.exit, row.duration, row.method, row.status, row.autoCheckout,
		row.scheduled, row.location, pq.Array(notes), row.createdAt, row.updatedAt,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(scanner rowScanner) (*models.AttendanceRecord, error) {
	var row recordRow
	err := scanner.Scan(
		&row.id, &row.kind, &row.memberID, &row.memberCode, &row.dayPassID,
		&row.passFirstName, &row.passLastName, &row.passEmail, &row.passPhone, &row.passValidDate, &row.passAmount,
		&row.entry, &row.exit, &row.duration, &row.method, &row.status, &row.autoCheckout,
		&row.scheduled, &row.location, pq.Array(&row.notes), &row.createdAt, &row.updatedAt,
	)
	if err != nil {
		return nil, err
	}
	return row.toRecord()
}

func (row recordRow) toRecord() (*models.AttendanceRecord, error) {
	r := &models.AttendanceRecord{
		ID:                  row.id,
		EntryTime:           row.entry,
		Method:              models.Method(row.method),
		Status:              models.Status(row.status),
		AutoCheckoutEnabled: row.autoCheckout,
		Location:            row.location,
		Notes:               append([]string{}, row.notes...),
		CreatedAt:           row.createdAt,
		UpdatedAt:           row.updatedAt,
	}
	switch models.SubjectKind(row.kind) {
	case models.SubjectMember:
		r.Subject = models.MemberSubject{MemberID: row.memberID.UUID, MemberCode: row.memberCode.String}
	case models.SubjectDayPass:
		r.Subject = models.DayPassSubject{Pass: models.DayPassSnapshot{
			PassID:      row.dayPassID.String,
			FirstName:   row.passFirstName.String,
			LastName:    row.passLastName.String,
			Email:       row.passEmail.String,
			Phone:       row.passPhone.String,
			ValidDate:   row.passValidDate.Time.UTC(),
			AmountCents: row.passAmount.Int64,
		}}
	default:
		return nil, fmt.Errorf("unknown subject kind %q on record %s", row.kind, row.id)
	}
	if row.exit.Valid {
		exit := row.exit.Time
		r.ExitTime = &exit
	}
	if row.duration.Valid {
		d := int(row.duration.Int64)
		r.DurationMinutes = &d
	}
	if row.scheduled.Valid {
		sched := row.scheduled.Time
		r.ScheduledCheckoutTime = &sched
	}
	return r, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *value, Valid: true}
}

func nullInt(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}
