// Package database provides the SQLite store shared by the tracker's
// repositories.
//
// This package manages:
//   - The connection, with WAL mode and foreign keys enabled
//   - Embedded up/down schema migrations
//   - A transaction helper for multi-statement writes
//
// Foreign keys must stay on: deleting a project removes its tasks through
// ON DELETE CASCADE.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{
//	    Path:        cfg.Database.Path,
//	    WALMode:     cfg.Database.WALMode,
//	    BusyTimeout: cfg.Database.BusyTimeout,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files live in the top-level migrations package and are named
// YYYYMMDD_HHMMSS_description.up.sql / .down.sql.
package database
