package actuator

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ActuationRecord is one row of the actuation audit log.
type ActuationRecord struct {
	ID         string        `json:"id"`
	DeviceID   string        `json:"device_id"`
	DeviceName string        `json:"device_name"`
	Type       Type          `json:"type"`
	Power      float64       `json:"power"`
	Duration   time.Duration `json:"duration"`
	Amount     float64       `json:"amount"`
	Unit       string        `json:"unit"`
	StartedAt  time.Time     `json:"started_at"`
}

// newActuationRecord builds an audit row from an accepted activation.
// Called with the device lock held; reads only immutable device fields.
func newActuationRecord(d *device, act Activation) ActuationRecord {
	return ActuationRecord{
		ID:         uuid.NewString(),
		DeviceID:   act.DeviceID,
		DeviceName: d.name,
		Type:       d.profile.Type,
		Power:      act.Power,
		Duration:   act.Duration,
		Amount:     act.Amount,
		Unit:       act.Unit,
		StartedAt:  act.StartedAt,
	}
}

// SQLiteRecorder implements Recorder on the actuation_log table.
type SQLiteRecorder struct {
	db *sql.DB
}

// NewSQLiteRecorder creates a new SQLite-backed actuation recorder.
func NewSQLiteRecorder(db *sql.DB) *SQLiteRecorder {
	return &SQLiteRecorder{db: db}
}

// Record inserts one actuation row.
func (r *SQLiteRecorder) Record(ctx context.Context, rec ActuationRecord) error {
	query := `
		INSERT INTO actuation_log (id, device_id, device_name, device_type, power, duration_ms, amount, unit, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.DeviceID,
		rec.DeviceName,
		string(rec.Type),
		rec.Power,
		rec.Duration.Milliseconds(),
		rec.Amount,
		rec.Unit,
		rec.StartedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting actuation record: %w", err)
	}
	return nil
}

// Recent returns the most recent actuations for a device, newest
// first.
func (r *SQLiteRecorder) Recent(ctx context.Context, deviceID string, limit int) ([]ActuationRecord, error) {
	query := `
		SELECT id, device_id, device_name, device_type, power, duration_ms, amount, unit, started_at
		FROM actuation_log
		WHERE device_id = ?
		ORDER BY started_at DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying actuation log: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var out []ActuationRecord
	for rows.Next() {
		var (
			rec        ActuationRecord
			deviceType string
			durationMS int64
			startedAt  string
		)
		if err := rows.Scan(&rec.ID, &rec.DeviceID, &rec.DeviceName, &deviceType, &rec.Power, &durationMS, &rec.Amount, &rec.Unit, &startedAt); err != nil {
			return nil, fmt.Errorf("scanning actuation record: %w", err)
		}
		rec.Type = Type(deviceType)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		if rec.StartedAt, err = time.Parse(time.RFC3339, startedAt); err != nil {
			return nil, fmt.Errorf("parsing started_at: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
