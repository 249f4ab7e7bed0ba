package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/dzhang123/DynaCard/internal/domain/card"
	"github.com/dzhang123/DynaCard/internal/domain/cycle"
	"github.com/dzhang123/DynaCard/internal/domain/edge"
	"github.com/dzhang123/DynaCard/internal/domain/model"
	"github.com/dzhang123/DynaCard/internal/domain/shape"
	"github.com/dzhang123/DynaCard/pkg/metrics"
)

const defaultBusyTimeout = 5 * time.Second

const schema = `
CREATE TABLE IF NOT EXISTS results (
	id            TEXT PRIMARY KEY,
	seq           INTEGER NOT NULL,
	well_id       TEXT NOT NULL,
	timestamp     TEXT NOT NULL,
	device_serial TEXT NOT NULL,
	sensor_serial TEXT NOT NULL,
	label         TEXT NOT NULL,
	peak_load     REAL NOT NULL,
	error_code    TEXT NOT NULL,
	error         TEXT NOT NULL,
	detail        BLOB,
	samples       BLOB,
	submitted_at  INTEGER NOT NULL,
	classified_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS results_by_well ON results (well_id, classified_at DESC, seq DESC);
`

const selectColumns = `id, well_id, timestamp, device_serial, sensor_serial, label, peak_load,
	error_code, error, detail, samples, submitted_at, classified_at`

// sampleRow packs a sample as a three element msgpack array.
type sampleRow struct {
	_msgpack     struct{} `msgpack:",as_array"` //nolint:unused // msgpack layout marker
	Position     int
	Displacement float64
	Load         float64
}

// detailBlob carries the per-edge diagnostics and shape properties.
type detailBlob struct {
	Edges      []edge.Summary   `msgpack:"edges"`
	Properties *card.Properties `msgpack:"properties"`
}

// SQLiteStore persists results in a SQLite database. Edge diagnostics and
// the raw samples are stored as msgpack blobs next to the indexed columns.
type SQLiteStore struct {
	db          *sql.DB
	path        string
	busyTimeout time.Duration
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(ctx context.Context, path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	s := &SQLiteStore{path: path, busyTimeout: defaultBusyTimeout}
	for _, opt := range opts {
		opt(s)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", path, s.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create results schema: %w", err)
	}
	s.db = db
	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

// Save implements Store.Save.
func (s *SQLiteStore) Save(ctx context.Context, r model.Result) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositorySaveLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	detail, err := msgpack.Marshal(detailBlob{Edges: r.Edges, Properties: r.Properties})
	if err != nil {
		return fmt.Errorf("encode detail of %s: %w", r.ID, err)
	}
	samples, err := encodeSamples(r.Samples)
	if err != nil {
		return fmt.Errorf("encode samples of %s: %w", r.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO results (id, seq, well_id, timestamp, device_serial, sensor_serial,
			label, peak_load, error_code, error, detail, samples, submitted_at, classified_at)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM results), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Header.WellID, r.Header.Timestamp, r.Header.DeviceSerial, r.Header.SensorSerial,
		r.Label.String(), r.PeakLoad, r.ErrorCode, r.Error, detail, samples,
		toNanos(r.SubmittedAt), toNanos(r.ClassifiedAt),
	)
	if err != nil {
		return fmt.Errorf("save result %s: %w", r.ID, err)
	}

	if n, err := s.Count(ctx); err == nil {
		metrics.UpdateStoredResults(n)
	}
	return nil
}

// Get implements Store.Get.
func (s *SQLiteStore) Get(ctx context.Context, id string) (model.Result, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM results WHERE id = ?`, id)
	r, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Result{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Result{}, fmt.Errorf("get result %s: %w", id, err)
	}
	return r, nil
}

// ListByWell implements Store.ListByWell.
func (s *SQLiteStore) ListByWell(ctx context.Context, wellID string, limit int) ([]model.Result, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM results
		WHERE well_id = ? ORDER BY classified_at DESC, seq DESC LIMIT ?`, wellID, limit)
	if err != nil {
		return nil, fmt.Errorf("list results of well %s: %w", wellID, err)
	}
	defer rows.Close()

	out := make([]model.Result, 0, limit)
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list results of well %s: %w", wellID, err)
	}
	return out, nil
}

// Count implements Store.Count.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM results`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count results: %w", err)
	}
	return n, nil
}

// Close implements Store.Close.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(row scanner) (model.Result, error) {
	var (
		r                   model.Result
		label               string
		detail, samples     []byte
		submitted, classify int64
	)
	err := row.Scan(&r.ID, &r.Header.WellID, &r.Header.Timestamp, &r.Header.DeviceSerial,
		&r.Header.SensorSerial, &label, &r.PeakLoad, &r.ErrorCode, &r.Error,
		&detail, &samples, &submitted, &classify)
	if err != nil {
		return model.Result{}, err
	}

	if r.Label, err = shape.ParseLabel(label); err != nil {
		return model.Result{}, err
	}
	r.PumpStatus = r.Label.Status()
	r.SubmittedAt = fromNanos(submitted)
	r.ClassifiedAt = fromNanos(classify)

	if len(detail) > 0 {
		var d detailBlob
		if err := msgpack.Unmarshal(detail, &d); err != nil {
			return model.Result{}, fmt.Errorf("decode detail: %w", err)
		}
		r.Edges = d.Edges
		r.Properties = d.Properties
	}
	if r.Samples, err = decodeSamples(samples); err != nil {
		return model.Result{}, fmt.Errorf("decode samples: %w", err)
	}
	return r, nil
}

func encodeSamples(samples model.Samples) ([]byte, error) {
	if len(samples) == 0 {
		return nil, nil
	}
	rows := make([]sampleRow, len(samples))
	for i, v := range samples {
		rows[i] = sampleRow{Position: v.Position, Displacement: v.Displacement, Load: v.Load}
	}
	return msgpack.Marshal(rows)
}

func decodeSamples(b []byte) (model.Samples, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var rows []sampleRow
	if err := msgpack.Unmarshal(b, &rows); err != nil {
		return nil, err
	}
	out := make(model.Samples, len(rows))
	for i, r := range rows {
		out[i] = cycle.Sample{Position: r.Position, Displacement: r.Displacement, Load: r.Load}
	}
	return out, nil
}

// toNanos maps the zero time to 0 so it survives the round trip.
func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
