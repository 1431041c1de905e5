package arrangement

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/seatplan-core/internal/seating"
)

// Repository defines persistence operations for arrangements.
type Repository interface {
	Get(ctx context.Context, id string) (*Document, error)
	List(ctx context.Context) ([]Document, error)
	Save(ctx context.Context, doc *Document) error
	Delete(ctx context.Context, id string) error

	// Emergency log (append-only)
	AppendEmergencyRecord(ctx context.Context, rec EmergencyChangeRecord) error
	ListEmergencyRecords(ctx context.Context, arrangementID string) ([]EmergencyChangeRecord, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository creates a new SQLite-backed arrangement repository.
//
// Parameters:
//   - db: Open SQLite connection with the arrangements tables migrated
//
// Returns:
//   - *SQLiteRepository: Repository instance ready for use
//
// Example:
//
//	repo := arrangement.NewSQLiteRepository(db)
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

// Get retrieves an arrangement by ID.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - id: Arrangement identifier
//
// Returns:
//   - *Document: The stored arrangement
//   - error: ErrNotFound if missing, otherwise the underlying query error
//
// Security: Uses parameterised SQL queries to prevent injection.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Document, error) {
	query := `SELECT id, name, date, layout, workflow, assignments, baseline, version, created_at, updated_at
		FROM arrangements WHERE id = ?`

	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// List returns every arrangement, newest date first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//
// Returns:
//   - []Document: Stored arrangements
//   - error: nil on success, otherwise the underlying query error
func (r *SQLiteRepository) List(ctx context.Context) ([]Document, error) {
	query := `SELECT id, name, date, layout, workflow, assignments, baseline, version, created_at, updated_at
		FROM arrangements ORDER BY date DESC, name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying arrangements: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating arrangements: %w", err)
	}
	return docs, nil
}

// Save inserts a new arrangement (Version 0) or updates an existing one.
//
// Updates are optimistic: the stored version must equal doc.Version, and
// on success both are incremented. A stale version yields ErrVersionConflict
// so the caller can reload and reconcile.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - doc: Arrangement to store; ID, Version and timestamps are updated in place
//
// Returns:
//   - error: ErrInvalidDocument, ErrNotFound, ErrVersionConflict or the underlying database error
//
// Security: Uses parameterised SQL queries to prevent injection.
func (r *SQLiteRepository) Save(ctx context.Context, doc *Document) error {
	if err := ValidateDocument(doc); err != nil {
		return err
	}
	layoutJSON, err := json.Marshal(doc.Layout)
	if err != nil {
		return fmt.Errorf("marshalling layout: %w", err)
	}
	workflowJSON, err := json.Marshal(doc.Workflow)
	if err != nil {
		return fmt.Errorf("marshalling workflow: %w", err)
	}
	list := doc.Assignments
	if list == nil {
		list = []seating.SeatAssignment{}
	}
	assignmentsJSON, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshalling assignments: %w", err)
	}
	baselineJSON, err := json.Marshal(doc.Baseline)
	if err != nil {
		return fmt.Errorf("marshalling baseline: %w", err)
	}

	now := r.now().UTC().Truncate(time.Second)
	if doc.Version == 0 {
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO arrangements (id, name, date, layout, workflow, assignments, baseline, version, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
			doc.ID, doc.Name, doc.Date,
			string(layoutJSON), string(workflowJSON), string(assignmentsJSON), string(baselineJSON),
			now.Format(time.RFC3339), now.Format(time.RFC3339),
		)
		if err != nil {
			if isUniqueConstraintError(err) {
				return ErrVersionConflict
			}
			return fmt.Errorf("inserting arrangement: %w", err)
		}
		doc.Version = 1
		doc.CreatedAt = now
		doc.UpdatedAt = now
		return nil
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE arrangements
		 SET name = ?, date = ?, layout = ?, workflow = ?, assignments = ?, baseline = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?`,
		doc.Name, doc.Date,
		string(layoutJSON), string(workflowJSON), string(assignmentsJSON), string(baselineJSON),
		now.Format(time.RFC3339),
		doc.ID, doc.Version,
	)
	if err != nil {
		return fmt.Errorf("updating arrangement: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		var exists int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM arrangements WHERE id = ?`, doc.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("checking arrangement: %w", err)
		}
		return ErrVersionConflict
	}
	doc.Version++
	doc.UpdatedAt = now
	return nil
}

// Delete removes an arrangement and its emergency log.
//
// Returns:
//   - error: ErrNotFound if missing, otherwise the underlying database error
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx, `DELETE FROM emergency_changes WHERE arrangement_id = ?`, id); err != nil {
		return fmt.Errorf("deleting emergency records: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM arrangements WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting arrangement: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete: %w", err)
	}
	return nil
}

// AppendEmergencyRecord stores an applied emergency change.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - rec: Record to append; ArrangementID must be set
//
// Returns:
//   - error: nil on success, otherwise the underlying database error
func (r *SQLiteRepository) AppendEmergencyRecord(ctx context.Context, rec EmergencyChangeRecord) error {
	if rec.ArrangementID == "" {
		return fmt.Errorf("%w: emergency record without arrangement", ErrInvalidDocument)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.now()
	}
	cascade := rec.CascadeChanges
	if cascade == nil {
		cascade = []CascadeStep{}
	}
	cascadeJSON, err := json.Marshal(cascade)
	if err != nil {
		return fmt.Errorf("marshalling cascade: %w", err)
	}

	var removedFrom any
	if rec.RemovedFrom != nil {
		removedFrom = rec.RemovedFrom.Key()
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO emergency_changes (id, arrangement_id, kind, member_id, process_mode, removed_from, cascade_changes, moved_member_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ArrangementID, string(rec.Kind), rec.MemberID, string(rec.ProcessMode),
		removedFrom, string(cascadeJSON), rec.MovedMemberCount,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting emergency record: %w", err)
	}
	return nil
}

// ListEmergencyRecords returns the emergency log of an arrangement, oldest first.
func (r *SQLiteRepository) ListEmergencyRecords(ctx context.Context, arrangementID string) ([]EmergencyChangeRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, arrangement_id, kind, member_id, process_mode, removed_from, cascade_changes, moved_member_count, created_at
		 FROM emergency_changes WHERE arrangement_id = ? ORDER BY created_at, id`,
		arrangementID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying emergency records: %w", err)
	}
	defer rows.Close()

	var out []EmergencyChangeRecord
	for rows.Next() {
		var (
			rec                  EmergencyChangeRecord
			kind, mode           string
			removedFrom          sql.NullString
			cascadeJSON, created string
		)
		if err := rows.Scan(&rec.ID, &rec.ArrangementID, &kind, &rec.MemberID, &mode,
			&removedFrom, &cascadeJSON, &rec.MovedMemberCount, &created); err != nil {
			return nil, fmt.Errorf("scanning emergency record: %w", err)
		}
		rec.Kind = EmergencyKind(kind)
		rec.ProcessMode = ProcessMode(mode)
		if removedFrom.Valid {
			s, err := seating.ParseSeatKey(removedFrom.String)
			if err != nil {
				return nil, fmt.Errorf("emergency record %s: %w", rec.ID, err)
			}
			rec.RemovedFrom = &s
		}
		if err := json.Unmarshal([]byte(cascadeJSON), &rec.CascadeChanges); err != nil {
			return nil, fmt.Errorf("decoding cascade of %s: %w", rec.ID, err)
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parsing emergency timestamp %q: %w", created, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating emergency records: %w", err)
	}
	return out, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var (
		doc                                Document
		layoutJSON, workflowJSON, listJSON string
		baselineJSON                       string
		createdAt, updatedAt               string
	)
	if err := row.Scan(&doc.ID, &doc.Name, &doc.Date, &layoutJSON, &workflowJSON, &listJSON,
		&baselineJSON, &doc.Version, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning arrangement: %w", err)
	}
	if err := json.Unmarshal([]byte(layoutJSON), &doc.Layout); err != nil {
		return nil, fmt.Errorf("decoding layout of %s: %w", doc.ID, err)
	}
	if err := json.Unmarshal([]byte(workflowJSON), &doc.Workflow); err != nil {
		return nil, fmt.Errorf("decoding workflow of %s: %w", doc.ID, err)
	}
	if err := json.Unmarshal([]byte(listJSON), &doc.Assignments); err != nil {
		return nil, fmt.Errorf("decoding assignments of %s: %w", doc.ID, err)
	}
	if err := json.Unmarshal([]byte(baselineJSON), &doc.Baseline); err != nil {
		return nil, fmt.Errorf("decoding baseline of %s: %w", doc.ID, err)
	}
	doc.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is ours
	doc.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is ours
	return &doc, nil
}

// isUniqueConstraintError checks for SQLite unique constraint violations.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
