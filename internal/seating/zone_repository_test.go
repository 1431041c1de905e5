package seating

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupZoneDB creates an in-memory SQLite database with the zone_profiles table.
func setupZoneDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE zone_profiles (
			profile TEXT NOT NULL,
			part TEXT NOT NULL,
			allowed_min INTEGER NOT NULL,
			allowed_max INTEGER NOT NULL,
			side TEXT NOT NULL,
			forbidden_rows TEXT NOT NULL DEFAULT '[]',
			preferred_rows TEXT NOT NULL DEFAULT '[]',
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			PRIMARY KEY (profile, part)
		) STRICT;
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteZoneRepository_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteZoneRepository(setupZoneDB(t))

	zones := []PartZone{
		{Part: PartBass, AllowedRows: RowRange{Min: 3, Max: 4}, Side: SideRight, PreferredRows: []int{4}},
		{Part: PartSoprano, AllowedRows: RowRange{Min: 1, Max: 2}, Side: SideLeft, ForbiddenRows: []int{3}},
	}
	require.NoError(t, repo.SaveZones(ctx, "learned", zones))

	got, err := repo.LoadZones(ctx, "learned")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, PartSoprano, got[0].Part, "zones come back in part order")
	assert.Equal(t, []int{3}, got[0].ForbiddenRows)
	assert.Empty(t, got[0].PreferredRows)
	assert.Equal(t, []int{4}, got[1].PreferredRows)

	// Saving again replaces the profile.
	require.NoError(t, repo.SaveZones(ctx, "learned", zones[:1]))
	got, err = repo.LoadZones(ctx, "learned")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSQLiteZoneRepository_Missing(t *testing.T) {
	repo := NewSQLiteZoneRepository(setupZoneDB(t))

	_, err := repo.LoadZones(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestSQLiteZoneRepository_RejectsInvalid(t *testing.T) {
	repo := NewSQLiteZoneRepository(setupZoneDB(t))

	err := repo.SaveZones(context.Background(), "bad", []PartZone{{Part: PartAlto, Side: "middle", AllowedRows: RowRange{Min: 1, Max: 1}}})
	assert.ErrorIs(t, err, ErrInvalidZone)
}

func TestLoadRegistry(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteZoneRepository(setupZoneDB(t))
	require.NoError(t, repo.SaveZones(ctx, "gala", []PartZone{
		{Part: PartAlto, AllowedRows: RowRange{Min: 2, Max: 3}, Side: SideBoth},
	}))

	reg, err := LoadRegistry(ctx, repo, "gala", 4)
	require.NoError(t, err)
	assert.Equal(t, RowRange{Min: 2, Max: 3}, reg.Zone(PartAlto).AllowedRows)
	assert.Equal(t, SideLeft, reg.Zone(PartSoprano).Side, "unset parts keep defaults")

	fallback, err := LoadRegistry(ctx, repo, "unknown", 4)
	require.NoError(t, err)
	assert.Equal(t, DefaultZones(4).Zones(), fallback.Zones())
}
