// Package audit records who changed what in the sensor catalogue and
// inventory.
//
// Entries are written to the audit_logs table through a Repository. The
// Recorder sits in front of it so HTTP handlers can record changes without
// blocking:
//
//	rec := audit.NewRecorder(audit.NewSQLiteRepository(db.DB), logger)
//	rec.Start(ctx)
//	rec.Record(&audit.Entry{
//	    Action:     audit.ActionUpdate,
//	    EntityType: audit.EntitySensorType,
//	    EntityID:   "Temperature",
//	    UserID:     "operator",
//	})
package audit
