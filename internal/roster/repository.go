package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/seatplan-core/internal/arrangement"
	"github.com/nerrad567/seatplan-core/internal/seating"
)

// Compile-time checks for the arrangement boundary interfaces.
var (
	_ arrangement.MemberDirectory   = (*SQLiteRepository)(nil)
	_ arrangement.AttendanceService = (*SQLiteRepository)(nil)
)

// Absence records that a member cannot attend on a date.
type Absence struct {
	MemberID  string    `json:"member_id"`
	Date      string    `json:"date"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SQLiteRepository implements the member directory and attendance service
// on SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed roster.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// ListMembers returns every member ordered by part then name.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//
// Returns:
//   - []arrangement.DirectoryMember: All members, singers and non-singers
//   - error: nil on success, otherwise the underlying query error
func (r *SQLiteRepository) ListMembers(ctx context.Context) ([]arrangement.DirectoryMember, error) {
	query := `SELECT id, name, part, is_singer FROM members
		ORDER BY CASE part
			WHEN 'SOPRANO' THEN 0 WHEN 'ALTO' THEN 1 WHEN 'TENOR' THEN 2
			WHEN 'BASS' THEN 3 ELSE 4 END, name, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying members: %w", err)
	}
	defer rows.Close()

	var members []arrangement.DirectoryMember
	for rows.Next() {
		var (
			m        arrangement.DirectoryMember
			part     string
			isSinger int
		)
		if err := rows.Scan(&m.ID, &m.Name, &part, &isSinger); err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		m.Part = seating.Part(part)
		m.IsSinger = isSinger != 0
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating members: %w", err)
	}
	return members, nil
}

// GetMember retrieves one member.
//
// Returns:
//   - arrangement.DirectoryMember: The member
//   - error: ErrMemberNotFound if missing
func (r *SQLiteRepository) GetMember(ctx context.Context, id string) (arrangement.DirectoryMember, error) {
	var (
		m        arrangement.DirectoryMember
		part     string
		isSinger int
	)
	err := r.db.QueryRowContext(ctx, `SELECT id, name, part, is_singer FROM members WHERE id = ?`, id).
		Scan(&m.ID, &m.Name, &part, &isSinger)
	if errors.Is(err, sql.ErrNoRows) {
		return arrangement.DirectoryMember{}, ErrMemberNotFound
	}
	if err != nil {
		return arrangement.DirectoryMember{}, fmt.Errorf("querying member: %w", err)
	}
	m.Part = seating.Part(part)
	m.IsSinger = isSinger != 0
	return m, nil
}

// CreateMember adds a member to the roster.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - m: Member to add; validated with seating.ValidateMember
//
// Returns:
//   - error: Validation error, ErrMemberExists, or the underlying database error
//
// Security: Uses parameterised SQL queries to prevent injection.
func (r *SQLiteRepository) CreateMember(ctx context.Context, m arrangement.DirectoryMember) error {
	if err := seating.ValidateMember(seating.Member{ID: m.ID, Name: m.Name, Part: m.Part}); err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO members (id, name, part, is_singer, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, string(m.Part), boolToInt(m.IsSinger), now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrMemberExists
		}
		return fmt.Errorf("inserting member: %w", err)
	}
	return nil
}

// DeleteMember removes a member and their absences.
func (r *SQLiteRepository) DeleteMember(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx, `DELETE FROM absences WHERE member_id = ?`, id); err != nil {
		return fmt.Errorf("deleting absences: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting member: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return ErrMemberNotFound
	}
	return tx.Commit()
}

// IsAvailable reports whether memberID has no absence recorded on date.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - memberID: Member identifier
//   - date: Calendar date; only the year, month and day are used
//
// Returns:
//   - bool: false when an absence exists for the date
//   - error: nil on success, otherwise the underlying query error
func (r *SQLiteRepository) IsAvailable(ctx context.Context, memberID string, date time.Time) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM absences WHERE member_id = ? AND date = ?`,
		memberID, date.Format(time.DateOnly),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("querying absence: %w", err)
	}
	return n == 0, nil
}

// MarkUnavailable records an absence. Marking the same date twice keeps the
// first reason.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - memberID: Member identifier; must exist
//   - date: "YYYY-MM-DD"
//   - reason: Free text, may be empty
//
// Returns:
//   - error: ErrMemberNotFound, ErrInvalidDate, or the underlying database error
func (r *SQLiteRepository) MarkUnavailable(ctx context.Context, memberID, date, reason string) error {
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	if _, err := r.GetMember(ctx, memberID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO absences (member_id, date, reason, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (member_id, date) DO NOTHING`,
		memberID, date, nullableString(reason), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting absence: %w", err)
	}
	return nil
}

// ClearUnavailable removes an absence. Clearing a missing absence is not an error.
func (r *SQLiteRepository) ClearUnavailable(ctx context.Context, memberID, date string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM absences WHERE member_id = ? AND date = ?`, memberID, date,
	); err != nil {
		return fmt.Errorf("deleting absence: %w", err)
	}
	return nil
}

// ListAbsences returns the absences recorded for date, ordered by member.
func (r *SQLiteRepository) ListAbsences(ctx context.Context, date string) ([]Absence, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT member_id, date, reason, created_at FROM absences WHERE date = ? ORDER BY member_id`, date)
	if err != nil {
		return nil, fmt.Errorf("querying absences: %w", err)
	}
	defer rows.Close()

	var out []Absence
	for rows.Next() {
		var (
			a       Absence
			reason  sql.NullString
			created string
		)
		if err := rows.Scan(&a.MemberID, &a.Date, &reason, &created); err != nil {
			return nil, fmt.Errorf("scanning absence: %w", err)
		}
		a.Reason = reason.String
		a.CreatedAt, _ = time.Parse(time.RFC3339, created) //nolint:errcheck // format is ours
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating absences: %w", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nullableString converts an empty string to nil for nullable columns.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// isUniqueConstraintError checks for SQLite unique constraint violations.
func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
