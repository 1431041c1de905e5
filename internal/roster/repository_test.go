package roster

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/seatplan-core/internal/arrangement"
	"github.com/nerrad567/seatplan-core/internal/seating"
)

// setupTestDB creates an in-memory SQLite database with the roster tables.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE members (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			part TEXT NOT NULL,
			is_singer INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		) STRICT;

		CREATE TABLE absences (
			member_id TEXT NOT NULL REFERENCES members(id) ON DELETE CASCADE,
			date TEXT NOT NULL,
			reason TEXT,
			created_at TEXT NOT NULL,
			PRIMARY KEY (member_id, date)
		) STRICT;
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func seedMembers(t *testing.T, repo *SQLiteRepository) {
	t.Helper()
	for _, m := range []arrangement.DirectoryMember{
		{ID: "b1", Name: "Ben", Part: seating.PartBass, IsSinger: true},
		{ID: "s2", Name: "Zoe", Part: seating.PartSoprano, IsSinger: true},
		{ID: "s1", Name: "Ana", Part: seating.PartSoprano, IsSinger: true},
		{ID: "p1", Name: "Pianist", Part: seating.PartSpecial, IsSinger: false},
	} {
		if err := repo.CreateMember(context.Background(), m); err != nil {
			t.Fatalf("seeding %s: %v", m.ID, err)
		}
	}
}

func TestListMembersOrdersByPartThenName(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	seedMembers(t, repo)

	members, err := repo.ListMembers(context.Background())
	require.NoError(t, err)

	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"s1", "s2", "b1", "p1"}, ids)
	assert.False(t, members[3].IsSinger)
}

func TestCreateMemberValidation(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()
	seedMembers(t, repo)

	err := repo.CreateMember(ctx, arrangement.DirectoryMember{ID: "s1", Name: "Dup", Part: seating.PartSoprano})
	require.ErrorIs(t, err, ErrMemberExists)

	err = repo.CreateMember(ctx, arrangement.DirectoryMember{ID: "x", Name: "X", Part: "KAZOO"})
	require.ErrorIs(t, err, seating.ErrInvalidPart)
}

func TestAttendance(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()
	seedMembers(t, repo)

	sunday := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ok, err := repo.IsAvailable(ctx, "s1", sunday)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.MarkUnavailable(ctx, "s1", "2026-03-01", "sick"))
	require.NoError(t, repo.MarkUnavailable(ctx, "s1", "2026-03-01", "again"))

	ok, err = repo.IsAvailable(ctx, "s1", sunday)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.IsAvailable(ctx, "s1", sunday.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.True(t, ok, "absence applies to one date only")

	absences, err := repo.ListAbsences(ctx, "2026-03-01")
	require.NoError(t, err)
	require.Len(t, absences, 1)
	assert.Equal(t, "sick", absences[0].Reason)

	require.ErrorIs(t, repo.MarkUnavailable(ctx, "nobody", "2026-03-01", ""), ErrMemberNotFound)
	require.ErrorIs(t, repo.MarkUnavailable(ctx, "s1", "March 1st", ""), ErrInvalidDate)

	require.NoError(t, repo.ClearUnavailable(ctx, "s1", "2026-03-01"))
	ok, err = repo.IsAvailable(ctx, "s1", sunday)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAvailableMembersFromRoster(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()
	seedMembers(t, repo)
	require.NoError(t, repo.MarkUnavailable(ctx, "b1", "2026-03-01", ""))

	date, err := time.Parse(time.DateOnly, "2026-03-01")
	require.NoError(t, err)
	members, err := arrangement.AvailableMembers(ctx, repo, repo, date)
	require.NoError(t, err)

	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"s1", "s2"}, ids)
}

func TestDeleteMember(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()
	seedMembers(t, repo)
	require.NoError(t, repo.MarkUnavailable(ctx, "b1", "2026-03-01", ""))

	require.NoError(t, repo.DeleteMember(ctx, "b1"))
	_, err := repo.GetMember(ctx, "b1")
	require.ErrorIs(t, err, ErrMemberNotFound)
	require.ErrorIs(t, repo.DeleteMember(ctx, "b1"), ErrMemberNotFound)

	absences, err := repo.ListAbsences(ctx, "2026-03-01")
	require.NoError(t, err)
	assert.Empty(t, absences)
}
