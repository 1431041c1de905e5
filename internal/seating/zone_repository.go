package seating

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// ZoneSource supplies part zones by profile name. Hand-edited defaults and
// zones learned from past arrangements share this shape, so either source
// can back a registry.
type ZoneSource interface {
	LoadZones(ctx context.Context, profile string) ([]PartZone, error)
}

// SQLiteZoneRepository stores zone profiles in SQLite.
type SQLiteZoneRepository struct {
	db *sql.DB
}

// NewSQLiteZoneRepository creates a new SQLite-backed zone profile repository.
//
// Parameters:
//   - db: Open SQLite connection with the zone_profiles table migrated
//
// Returns:
//   - *SQLiteZoneRepository: Repository instance ready for use
//
// Example:
//
//	repo := seating.NewSQLiteZoneRepository(db)
func NewSQLiteZoneRepository(db *sql.DB) *SQLiteZoneRepository {
	return &SQLiteZoneRepository{db: db}
}

// LoadZones returns every zone stored under profile in part display order.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - profile: Profile name (e.g. "default", "christmas-2026")
//
// Returns:
//   - []PartZone: Stored zones
//   - error: ErrProfileNotFound when the profile has no zones, otherwise the underlying query error
//
// Security: Uses parameterised SQL queries to prevent injection.
func (r *SQLiteZoneRepository) LoadZones(ctx context.Context, profile string) ([]PartZone, error) {
	query := `SELECT part, allowed_min, allowed_max, side, forbidden_rows, preferred_rows
		FROM zone_profiles WHERE profile = ?`

	rows, err := r.db.QueryContext(ctx, query, profile)
	if err != nil {
		return nil, fmt.Errorf("querying zone profile: %w", err)
	}
	defer rows.Close()

	var zones []PartZone
	for rows.Next() {
		var (
			z                    PartZone
			part, side           string
			forbidden, preferred string
		)
		if err := rows.Scan(&part, &z.AllowedRows.Min, &z.AllowedRows.Max, &side, &forbidden, &preferred); err != nil {
			return nil, fmt.Errorf("scanning zone: %w", err)
		}
		z.Part = Part(part)
		z.Side = Side(side)
		if err := json.Unmarshal([]byte(forbidden), &z.ForbiddenRows); err != nil {
			return nil, fmt.Errorf("decoding forbidden rows for %s: %w", part, err)
		}
		if err := json.Unmarshal([]byte(preferred), &z.PreferredRows); err != nil {
			return nil, fmt.Errorf("decoding preferred rows for %s: %w", part, err)
		}
		zones = append(zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating zones: %w", err)
	}
	if len(zones) == 0 {
		return nil, ErrProfileNotFound
	}
	return NewZoneRegistry(zones...).Zones(), nil
}

// SaveZones replaces the zones of profile in a single transaction.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - profile: Profile name
//   - zones: Zones to store; each is validated first
//
// Returns:
//   - error: Validation error or the underlying database error
//
// Security: Uses parameterised SQL queries to prevent injection.
func (r *SQLiteZoneRepository) SaveZones(ctx context.Context, profile string, zones []PartZone) error {
	for _, z := range zones {
		if err := ValidateZone(z); err != nil {
			return err
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx, `DELETE FROM zone_profiles WHERE profile = ?`, profile); err != nil {
		return fmt.Errorf("clearing zone profile: %w", err)
	}

	query := `INSERT INTO zone_profiles (
			profile, part, allowed_min, allowed_max, side, forbidden_rows, preferred_rows
		) VALUES (?, ?, ?, ?, ?, ?, ?)`
	for _, z := range zones {
		forbidden, err := marshalRows(z.ForbiddenRows)
		if err != nil {
			return err
		}
		preferred, err := marshalRows(z.PreferredRows)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query,
			profile,
			string(z.Part),
			z.AllowedRows.Min,
			z.AllowedRows.Max,
			string(z.Side),
			forbidden,
			preferred,
		); err != nil {
			return fmt.Errorf("inserting zone %s: %w", z.Part, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing zone profile: %w", err)
	}
	return nil
}

// LoadRegistry builds a registry from the default zones for rows, overlaid
// with the zones stored under profile. A missing profile yields the defaults.
func LoadRegistry(ctx context.Context, src ZoneSource, profile string, rows int) (*ZoneRegistry, error) {
	reg := DefaultZones(rows)
	if src == nil || profile == "" {
		return reg, nil
	}
	zones, err := src.LoadZones(ctx, profile)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return reg, nil
		}
		return nil, err
	}
	for _, z := range zones {
		if err := reg.Set(z); err != nil {
			return nil, fmt.Errorf("profile %q: %w", profile, err)
		}
	}
	return reg, nil
}

func marshalRows(rows []int) (string, error) {
	if rows == nil {
		rows = []int{}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("encoding rows: %w", err)
	}
	return string(b), nil
}
