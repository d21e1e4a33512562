package actuator

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the
// actuation_log schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}

	// Matches the actuation log migration.
	schema := `
		CREATE TABLE actuation_log (
			id TEXT PRIMARY KEY,
			device_id TEXT NOT NULL,
			device_name TEXT NOT NULL,
			device_type TEXT NOT NULL,
			power REAL NOT NULL,
			duration_ms INTEGER NOT NULL,
			amount REAL NOT NULL,
			unit TEXT NOT NULL,
			started_at TEXT NOT NULL
		) STRICT;`

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteRecorderRoundTrip(t *testing.T) {
	recorder := NewSQLiteRecorder(setupTestDB(t))
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		rec := ActuationRecord{
			ID:         "rec-" + string(rune('a'+i)),
			DeviceID:   "feeder-1",
			DeviceName: "Food Dispenser",
			Type:       TypeFoodDispenser,
			Power:      1.0,
			Duration:   10 * time.Second,
			Amount:     100.0,
			Unit:       "units",
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
		}
		if err := recorder.Record(ctx, rec); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	recent, err := recorder.Recent(ctx, "feeder-1", 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Recent() returned %d records, want 2", len(recent))
	}
	// Newest first.
	if !recent[0].StartedAt.After(recent[1].StartedAt) {
		t.Errorf("Recent() not ordered newest first: %v, %v", recent[0].StartedAt, recent[1].StartedAt)
	}
	if recent[0].Duration != 10*time.Second || recent[0].Amount != 100.0 {
		t.Errorf("record did not round-trip: %+v", recent[0])
	}
	if recent[0].Type != TypeFoodDispenser {
		t.Errorf("type = %v, want food_dispenser", recent[0].Type)
	}
}

func TestGovernorRecordsActivations(t *testing.T) {
	recorder := NewSQLiteRecorder(setupTestDB(t))
	g, _, _, _ := testGovernor(t)
	g.SetRecorder(recorder)

	if err := g.Register("feeder-1", "Food Dispenser", TypeFoodDispenser); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := g.Activate(context.Background(), "feeder-1", 1.0, 5*time.Second); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	recent, err := recorder.Recent(context.Background(), "feeder-1", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("Recent() returned %d records, want 1", len(recent))
	}
	if recent[0].DeviceName != "Food Dispenser" || recent[0].Power != 1.0 {
		t.Errorf("recorded = %+v", recent[0])
	}
}
