// Package database provides the agent's local SQLite store.
//
// The database holds the sensor state history. It is opened in WAL mode
// with a single writer connection, which suits SQLite and the agent's
// write pattern (one row per committed change).
//
// Schema changes are applied by Migrate from an fs.FS of paired
// YYYYMMDD_HHMMSS_name.up.sql / .down.sql files, normally the embedded
// migrations package. Each migration runs in its own transaction and is
// recorded in schema_migrations.
//
// Usage:
//
//	db, err := database.Open(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
package database
