package sensor

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-sensors/internal/sensorconfig"
)

const (
	timestampLayout = "2006-01-02T15:04:05.000000Z07:00"
	defaultPageSize = 20
	maxPageSize     = 200
)

// Repository defines persistence for the sensor inventory.
type Repository interface {
	// Get returns ErrNotFound if the sensor does not exist.
	Get(ctx context.Context, id string) (*Sensor, error)

	// List returns one page of sensors matching the filter, ordered by name.
	List(ctx context.Context, f Filter) (*Page, error)

	// Create assigns an ID when empty. Returns ErrNameExists on a name
	// clash and ErrUnknownType when the sensor type is not catalogued.
	Create(ctx context.Context, s *Sensor) error

	// Update replaces every mutable field.
	Update(ctx context.Context, s *Sensor) error

	// UpdateStatus toggles Enable without touching other fields.
	UpdateStatus(ctx context.Context, id string, enable bool, user string) error

	// Delete returns ErrNotFound if the sensor does not exist.
	Delete(ctx context.Context, id string) error

	// CountByType returns how many sensors reference the sensor type.
	CountByType(ctx context.Context, sensorType string) (int, error)
}

// SQLiteRepository implements Repository on the sensors table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectColumns = `SELECT id, sensor_type, port_type, name, enable, wsid, location, eqp_id,
	ip, station_no, port, com, svids, config, last_update_user, created_at, updated_at
	FROM sensors`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSensor(row rowScanner) (*Sensor, error) {
	var (
		s                    Sensor
		enable               int
		com, configJSON      sql.NullString
		lastUser             sql.NullString
		svidsJSON            string
		createdAt, updatedAt string
	)
	err := row.Scan(&s.ID, &s.SensorType, &s.PortType, &s.Name, &enable, &s.WSID, &s.Location, &s.EQPID,
		&s.IP, &s.StationNo, &s.Port, &com, &svidsJSON, &configJSON, &lastUser, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	s.Enable = enable != 0
	s.Com = com.String
	s.LastUpdateUser = lastUser.String

	if err := json.Unmarshal([]byte(svidsJSON), &s.SVIDs); err != nil {
		return nil, fmt.Errorf("decoding svids of %s: %w", s.ID, err)
	}
	if configJSON.Valid && configJSON.String != "" {
		cfg, err := sensorconfig.FromJSON([]byte(configJSON.String))
		if err != nil {
			return nil, fmt.Errorf("decoding config of %s: %w", s.ID, err)
		}
		s.Config = cfg
	}

	if s.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at of %s: %w", s.ID, err)
	}
	if s.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at of %s: %w", s.ID, err)
	}
	return &s, nil
}

// Get retrieves a sensor by ID.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Sensor, error) {
	s, err := scanSensor(r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying sensor: %w", err)
	}
	return s, nil
}

// List retrieves one page of sensors.
func (r *SQLiteRepository) List(ctx context.Context, f Filter) (*Page, error) {
	where, args := buildWhere(f)
	page, size := normalisePage(f.Page, f.PageSize)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sensors`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting sensors: %w", err)
	}

	query := selectColumns + where + ` ORDER BY name LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, size, (page-1)*size)...)
	if err != nil {
		return nil, fmt.Errorf("querying sensors: %w", err)
	}
	defer rows.Close()

	result := &Page{List: []*Sensor{}, Total: total, Page: page, PageSize: size}
	for rows.Next() {
		s, err := scanSensor(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning sensor: %w", err)
		}
		result.List = append(result.List, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sensors: %w", err)
	}
	return result, nil
}

func buildWhere(f Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.SensorType != "" {
		conds = append(conds, "sensor_type = ?")
		args = append(args, f.SensorType)
	}
	if f.PortType != "" {
		conds = append(conds, "port_type = ?")
		args = append(args, string(f.PortType))
	}
	if f.Enable != nil {
		conds = append(conds, "enable = ?")
		args = append(args, boolToInt(*f.Enable))
	}
	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		like := "%" + escapeLike(kw) + "%"
		conds = append(conds, `(name LIKE ? ESCAPE '\' OR eqp_id LIKE ? ESCAPE '\' OR wsid LIKE ? ESCAPE '\'
			OR location LIKE ? ESCAPE '\' OR ip LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like, like, like)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func normalisePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

// Create inserts a new sensor.
func (r *SQLiteRepository) Create(ctx context.Context, s *Sensor) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	svids, cfg, err := encodeJSONFields(s)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now

	_, err = r.db.ExecContext(ctx, `INSERT INTO sensors
		(id, sensor_type, port_type, name, enable, wsid, location, eqp_id, ip, station_no, port, com,
		 svids, config, last_update_user, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.SensorType, string(s.PortType), s.Name, boolToInt(s.Enable), s.WSID, s.Location, s.EQPID,
		s.IP, s.StationNo, s.Port, nullable(s.Com), svids, cfg, nullable(s.LastUpdateUser),
		now.Format(timestampLayout), now.Format(timestampLayout),
	)
	if err != nil {
		return mapWriteError(err, "inserting sensor")
	}
	return nil
}

// Update replaces every mutable field of an existing sensor.
func (r *SQLiteRepository) Update(ctx context.Context, s *Sensor) error {
	svids, cfg, err := encodeJSONFields(s)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `UPDATE sensors SET
		sensor_type = ?, port_type = ?, name = ?, enable = ?, wsid = ?, location = ?, eqp_id = ?,
		ip = ?, station_no = ?, port = ?, com = ?, svids = ?, config = ?, last_update_user = ?, updated_at = ?
		WHERE id = ?`,
		s.SensorType, string(s.PortType), s.Name, boolToInt(s.Enable), s.WSID, s.Location, s.EQPID,
		s.IP, s.StationNo, s.Port, nullable(s.Com), svids, cfg, nullable(s.LastUpdateUser),
		now.Format(timestampLayout), s.ID,
	)
	if err != nil {
		return mapWriteError(err, "updating sensor")
	}
	if err := expectOneRow(result); err != nil {
		return err
	}
	s.UpdatedAt = now
	return nil
}

// UpdateStatus enables or disables a sensor.
func (r *SQLiteRepository) UpdateStatus(ctx context.Context, id string, enable bool, user string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE sensors SET enable = ?, last_update_user = ?, updated_at = ? WHERE id = ?`,
		boolToInt(enable), nullable(user), time.Now().UTC().Format(timestampLayout), id,
	)
	if err != nil {
		return fmt.Errorf("updating sensor status: %w", err)
	}
	return expectOneRow(result)
}

// Delete removes a sensor.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sensors WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting sensor: %w", err)
	}
	return expectOneRow(result)
}

// CountByType counts sensors of one type.
func (r *SQLiteRepository) CountByType(ctx context.Context, sensorType string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sensors WHERE sensor_type = ?`, sensorType,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting sensors by type: %w", err)
	}
	return n, nil
}

func encodeJSONFields(s *Sensor) (string, any, error) {
	svids := s.SVIDs
	if svids == nil {
		svids = []SVID{}
	}
	svidsJSON, err := json.Marshal(svids)
	if err != nil {
		return "", nil, fmt.Errorf("encoding svids: %w", err)
	}

	var cfg any
	if s.Config != nil {
		raw, err := s.Config.MarshalJSON()
		if err != nil {
			return "", nil, fmt.Errorf("encoding config: %w", err)
		}
		cfg = string(raw)
	}
	return string(svidsJSON), cfg, nil
}

func mapWriteError(err error, op string) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed: sensors.name"):
		return ErrNameExists
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return ErrUnknownType
	}
	return fmt.Errorf("%s: %w", op, err)
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

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
