// Package sqlite provides SQLite-backed user, sample and measurement stores.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/elementx/pkg/adapters/sqlite/migrations"
	"github.com/aretw0/elementx/pkg/chem"
	"github.com/aretw0/elementx/pkg/domain"
	"github.com/aretw0/elementx/pkg/ports"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// DB is an open SQLite database with the schema applied.
type DB struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens (creating if needed) the database at path and applies embedded migrations.
func Open(path string) (*DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &DB{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (d *DB) Close() error {
	if d == nil || d.sqlDB == nil {
		return nil
	}
	return d.sqlDB.Close()
}

// Samples returns the sample store.
func (d *DB) Samples() *SampleStore { return &SampleStore{db: d.sqlDB} }

// Users returns the user store.
func (d *DB) Users() *UserStore { return &UserStore{db: d.sqlDB} }

// Measurements returns the measurement store.
func (d *DB) Measurements() *MeasurementStore { return &MeasurementStore{db: d.sqlDB} }

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// UserStore persists accounts.
type UserStore struct {
	db *sql.DB
}

// Create inserts a user; a second account with the same email is rejected.
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, institution, email, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Institution,
		strings.ToLower(strings.TrimSpace(user.Email)),
		user.PasswordHash,
		toMillis(user.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// FindByEmail looks a user up by email, ignoring case.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.find(ctx, `email = ?`, strings.ToLower(strings.TrimSpace(email)))
}

// FindByID looks a user up by ID.
func (s *UserStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return s.find(ctx, `id = ?`, id)
}

func (s *UserStore) find(ctx context.Context, where string, arg any) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, institution, email, password_hash, created_at
		   FROM users
		  WHERE `+where, arg)

	var user domain.User
	var createdAt int64
	if err := row.Scan(&user.ID, &user.Name, &user.Institution, &user.Email, &user.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	user.CreatedAt = fromMillis(createdAt)
	return &user, nil
}

// SampleStore persists saved calculations. Components are stored as JSON.
type SampleStore struct {
	db *sql.DB
}

// Save inserts or replaces the sample.
func (s *SampleStore) Save(ctx context.Context, sample *domain.Sample) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if sample.ID == "" {
		return fmt.Errorf("sample id is required")
	}
	components, err := json.Marshal(sample.Result.Components)
	if err != nil {
		return fmt.Errorf("marshal components: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO samples (
		   id, user_id, name, formula, target, target_mass,
		   components, total_mass, calculated_at, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   user_id = excluded.user_id,
		   name = excluded.name,
		   formula = excluded.formula,
		   target = excluded.target,
		   target_mass = excluded.target_mass,
		   components = excluded.components,
		   total_mass = excluded.total_mass,
		   calculated_at = excluded.calculated_at,
		   created_at = excluded.created_at`,
		sample.ID,
		sample.UserID,
		sample.Name,
		sample.Result.Formula,
		sample.Result.Target,
		sample.Result.TargetMass,
		string(components),
		sample.Result.Total,
		toMillis(sample.Result.CalculatedAt),
		toMillis(sample.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("save sample: %w", err)
	}
	return nil
}

const sampleColumns = `id, user_id, name, formula, target, target_mass,
		        components, total_mass, calculated_at, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSample(row rowScanner) (domain.Sample, error) {
	var (
		sample       domain.Sample
		components   string
		calculatedAt int64
		createdAt    int64
	)
	if err := row.Scan(
		&sample.ID,
		&sample.UserID,
		&sample.Name,
		&sample.Result.Formula,
		&sample.Result.Target,
		&sample.Result.TargetMass,
		&components,
		&sample.Result.Total,
		&calculatedAt,
		&createdAt,
	); err != nil {
		return domain.Sample{}, err
	}
	var rows []chem.Component
	if err := json.Unmarshal([]byte(components), &rows); err != nil {
		return domain.Sample{}, fmt.Errorf("decode components of %s: %w", sample.ID, err)
	}
	sample.Result.Components = rows
	sample.Result.CalculatedAt = fromMillis(calculatedAt)
	sample.CreatedAt = fromMillis(createdAt)
	return sample, nil
}

// Load returns one sample by ID.
func (s *SampleStore) Load(ctx context.Context, id string) (*domain.Sample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+sampleColumns+` FROM samples WHERE id = ?`, id)
	sample, err := scanSample(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSampleNotFound
		}
		return nil, fmt.Errorf("load sample: %w", err)
	}
	return &sample, nil
}

// List returns the user's samples, newest first.
func (s *SampleStore) List(ctx context.Context, userID string) ([]domain.Sample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sampleColumns+`
		   FROM samples
		  WHERE user_id = ?
		  ORDER BY created_at DESC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list samples: %w", err)
	}
	defer rows.Close()

	samples := []domain.Sample{}
	for rows.Next() {
		sample, err := scanSample(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}
	return samples, nil
}

// Delete removes a sample; missing IDs are ignored.
func (s *SampleStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM samples WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete sample: %w", err)
	}
	return nil
}

// MeasurementStore persists imported instrument files.
type MeasurementStore struct {
	db *sql.DB
}

// Save inserts or replaces the measurement.
func (s *MeasurementStore) Save(ctx context.Context, m *domain.Measurement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.ID == "" {
		return fmt.Errorf("measurement id is required")
	}
	points, err := json.Marshal(m.Points)
	if err != nil {
		return fmt.Errorf("marshal points: %w", err)
	}
	peaks, err := json.Marshal(m.Peaks)
	if err != nil {
		return fmt.Errorf("marshal peaks: %w", err)
	}
	var properties sql.NullString
	if m.Properties != nil {
		raw, err := json.Marshal(m.Properties)
		if err != nil {
			return fmt.Errorf("marshal properties: %w", err)
		}
		properties = sql.NullString{String: string(raw), Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO measurements (
		   id, user_id, sample_id, kind, filename, measurement_type,
		   notes, points, peaks, properties, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   user_id = excluded.user_id,
		   sample_id = excluded.sample_id,
		   kind = excluded.kind,
		   filename = excluded.filename,
		   measurement_type = excluded.measurement_type,
		   notes = excluded.notes,
		   points = excluded.points,
		   peaks = excluded.peaks,
		   properties = excluded.properties,
		   created_at = excluded.created_at`,
		m.ID,
		m.UserID,
		m.SampleID,
		string(m.Kind),
		m.Filename,
		m.MeasurementType,
		m.Notes,
		string(points),
		string(peaks),
		properties,
		toMillis(m.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("save measurement: %w", err)
	}
	return nil
}

const measurementColumns = `id, user_id, sample_id, kind, filename, measurement_type,
		        notes, points, peaks, properties, created_at`

func scanMeasurement(row rowScanner) (domain.Measurement, error) {
	var (
		m          domain.Measurement
		kind       string
		points     string
		peaks      string
		properties sql.NullString
		createdAt  int64
	)
	if err := row.Scan(
		&m.ID,
		&m.UserID,
		&m.SampleID,
		&kind,
		&m.Filename,
		&m.MeasurementType,
		&m.Notes,
		&points,
		&peaks,
		&properties,
		&createdAt,
	); err != nil {
		return domain.Measurement{}, err
	}
	m.Kind = domain.MeasurementKind(kind)
	m.CreatedAt = fromMillis(createdAt)
	if err := json.Unmarshal([]byte(points), &m.Points); err != nil {
		return domain.Measurement{}, fmt.Errorf("decode points of %s: %w", m.ID, err)
	}
	if err := json.Unmarshal([]byte(peaks), &m.Peaks); err != nil {
		return domain.Measurement{}, fmt.Errorf("decode peaks of %s: %w", m.ID, err)
	}
	if properties.Valid {
		m.Properties = &domain.MagneticProperties{}
		if err := json.Unmarshal([]byte(properties.String), m.Properties); err != nil {
			return domain.Measurement{}, fmt.Errorf("decode properties of %s: %w", m.ID, err)
		}
	}
	return m, nil
}

// Load returns one measurement by ID.
func (s *MeasurementStore) Load(ctx context.Context, id string) (*domain.Measurement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+measurementColumns+` FROM measurements WHERE id = ?`, id)
	m, err := scanMeasurement(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMeasurementNotFound
		}
		return nil, fmt.Errorf("load measurement: %w", err)
	}
	return &m, nil
}

// List returns the user's measurements, newest first.
func (s *MeasurementStore) List(ctx context.Context, userID string) ([]domain.Measurement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+measurementColumns+`
		   FROM measurements
		  WHERE user_id = ?
		  ORDER BY created_at DESC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}
	defer rows.Close()

	out := []domain.Measurement{}
	for rows.Next() {
		m, err := scanMeasurement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan measurement: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate measurements: %w", err)
	}
	return out, nil
}

var (
	_ ports.SampleStore      = (*SampleStore)(nil)
	_ ports.UserStore        = (*UserStore)(nil)
	_ ports.MeasurementStore = (*MeasurementStore)(nil)
)
