// Package database opens the SQLite store behind the sensor type catalogue,
// the sensor inventory and the audit trail.
//
// Schema changes live in package migrations as paired .up.sql/.down.sql
// files and are applied in version order by Migrate:
//
//	db, err := database.OpenMigrated(ctx, database.Config{
//	    Path:    cfg.Database.Path,
//	    WALMode: true,
//	}, migrations.FS)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
// Tests can pass MemoryPath for a throwaway database. All queries in the
// repositories are parameterised; the database file is created 0600.
package database
