package sensortype

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-sensors/internal/sensorconfig"
)

// timestampLayout is fixed-width so stored timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// Repository defines persistence for the sensor type catalogue.
type Repository interface {
	// Get returns ErrNotFound if the sensor type does not exist.
	Get(ctx context.Context, name string) (*SensorType, error)

	// List returns all sensor types ordered by name.
	List(ctx context.Context) ([]*SensorType, error)

	// Create returns ErrExists if the name is taken.
	Create(ctx context.Context, t *SensorType) error

	// Update replaces description and configuration.
	// Returns ErrNotFound if the sensor type does not exist.
	Update(ctx context.Context, t *SensorType) error

	// Delete returns ErrNotFound if missing and ErrInUse while sensors
	// still reference the type.
	Delete(ctx context.Context, name string) error

	// PatchConfigValue sets one value in the stored configuration without
	// rewriting the rest. An empty section addresses the root scope.
	PatchConfigValue(ctx context.Context, name, section, key string, v sensorconfig.Value, user string) (*SensorType, error)

	// DeleteConfigValue removes one value from the stored configuration.
	DeleteConfigValue(ctx context.Context, name, section, key, user string) (*SensorType, error)
}

// SQLiteRepository implements Repository on the sensor_types table.
// Configurations are stored as ordered JSON objects.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectColumns = `SELECT sensor_type, description, config, updated_by, created_at, updated_at FROM sensor_types`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSensorType(row rowScanner) (*SensorType, error) {
	var (
		t                    SensorType
		configJSON           string
		updatedBy            sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&t.Name, &t.Description, &configJSON, &updatedBy, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	cfg, err := sensorconfig.FromJSON([]byte(configJSON))
	if err != nil {
		return nil, fmt.Errorf("decoding config of %q: %w", t.Name, err)
	}
	t.Config = cfg
	t.UpdatedBy = updatedBy.String

	if t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at of %q: %w", t.Name, err)
	}
	if t.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at of %q: %w", t.Name, err)
	}
	return &t, nil
}

// Get retrieves a sensor type by name.
func (r *SQLiteRepository) Get(ctx context.Context, name string) (*SensorType, error) {
	t, err := scanSensorType(r.db.QueryRowContext(ctx, selectColumns+` WHERE sensor_type = ?`, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying sensor type: %w", err)
	}
	return t, nil
}

// List retrieves all sensor types ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]*SensorType, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY sensor_type`)
	if err != nil {
		return nil, fmt.Errorf("querying sensor types: %w", err)
	}
	defer rows.Close()

	var types []*SensorType
	for rows.Next() {
		t, err := scanSensorType(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning sensor type: %w", err)
		}
		types = append(types, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sensor types: %w", err)
	}
	return types, nil
}

// Create inserts a new sensor type, setting its timestamps.
func (r *SQLiteRepository) Create(ctx context.Context, t *SensorType) error {
	configJSON, err := t.Config.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO sensor_types (sensor_type, description, config, updated_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.Name, t.Description, string(configJSON), nullableString(t.UpdatedBy),
		now.Format(timestampLayout), now.Format(timestampLayout),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrExists
		}
		return fmt.Errorf("inserting sensor type: %w", err)
	}
	return nil
}

// Update replaces description and configuration and bumps UpdatedAt.
func (r *SQLiteRepository) Update(ctx context.Context, t *SensorType) error {
	configJSON, err := t.Config.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE sensor_types SET description = ?, config = ?, updated_by = ?, updated_at = ?
		 WHERE sensor_type = ?`,
		t.Description, string(configJSON), nullableString(t.UpdatedBy), now.Format(timestampLayout), t.Name,
	)
	if err != nil {
		return fmt.Errorf("updating sensor type: %w", err)
	}
	if err := expectOneRow(result); err != nil {
		return err
	}
	t.UpdatedAt = now
	return nil
}

// Delete removes a sensor type.
func (r *SQLiteRepository) Delete(ctx context.Context, name string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sensor_types WHERE sensor_type = ?`, name)
	if err != nil {
		if isForeignKeyError(err) {
			return ErrInUse
		}
		return fmt.Errorf("deleting sensor type: %w", err)
	}
	return expectOneRow(result)
}

// PatchConfigValue edits the stored JSON blob in place inside a
// transaction and returns the updated sensor type.
func (r *SQLiteRepository) PatchConfigValue(ctx context.Context, name, section, key string, v sensorconfig.Value, user string) (*SensorType, error) {
	return r.patchConfig(ctx, name, user, func(blob []byte) ([]byte, error) {
		return sensorconfig.SetJSONValue(blob, section, key, v)
	})
}

// DeleteConfigValue removes one value from the stored JSON blob. Removing
// the last key is rejected with ErrInvalidConfig.
func (r *SQLiteRepository) DeleteConfigValue(ctx context.Context, name, section, key, user string) (*SensorType, error) {
	return r.patchConfig(ctx, name, user, func(blob []byte) ([]byte, error) {
		return sensorconfig.DeleteJSONValue(blob, section, key)
	})
}

func (r *SQLiteRepository) patchConfig(ctx context.Context, name, user string, edit func([]byte) ([]byte, error)) (*SensorType, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var blob string
	if err := tx.QueryRowContext(ctx, `SELECT config FROM sensor_types WHERE sensor_type = ?`, name).Scan(&blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	patched, err := edit([]byte(blob))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	cfg, err := sensorconfig.FromJSON(patched)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if cfg.Len() == 0 {
		return nil, fmt.Errorf("%w: at least one key is required", ErrInvalidConfig)
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE sensor_types SET config = ?, updated_by = ?, updated_at = ? WHERE sensor_type = ?`,
		string(patched), nullableString(user), now.Format(timestampLayout), name,
	); err != nil {
		return nil, fmt.Errorf("updating config: %w", err)
	}

	t, err := scanSensorType(tx.QueryRowContext(ctx, selectColumns+` WHERE sensor_type = ?`, name))
	if err != nil {
		return nil, fmt.Errorf("re-reading sensor type: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing config patch: %w", err)
	}
	return t, nil
}

func expectOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
