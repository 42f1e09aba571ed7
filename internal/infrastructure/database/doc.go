// Package database opens the sqlite store backing Lumina Core and runs its
// embedded schema migrations.
//
// The database holds profiles, registered controllers, the sports game
// catalog, feedback history, learned preferences, and autopilot run
// bookkeeping. WAL mode keeps reads flowing while the single writer works,
// and foreign keys are enforced on every connection.
//
// Migrations live in the top-level migrations/ package as paired
// version_description.up.sql / .down.sql files and are applied in version
// order at startup:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//	if err := db.Migrate(ctx); err != nil {
//		return err
//	}
//
// All tables are STRICT and all timestamps are stored as RFC3339 UTC text.
package database
