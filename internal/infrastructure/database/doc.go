// Package database provides SQLite connectivity for the seat planner.
//
// This package manages:
//   - Database connection with WAL mode for concurrent reads
//   - Schema migrations loaded from an fs.FS (see package migrations)
//   - Connection lifecycle and health checks
//
// Tables created by the bundled migrations:
//
//	arrangements       saved arrangement documents (optimistic version)
//	emergency_changes  append-only emergency log per arrangement
//	members, absences  choir roster and per-date attendance
//	zone_profiles      named part-zone overrides
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS, "."); err != nil {
//	    return err
//	}
//
// Repositories take the embedded *sql.DB (db.DB) so they can be tested
// against a bare in-memory connection.
package database
