package rules

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/habitatworks/habitat-core/internal/telemetry"
)

// setupTestDB creates an in-memory SQLite database with the rules schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}

	// Matches the rules migration.
	schema := `
		CREATE TABLE rules (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			enabled INTEGER NOT NULL DEFAULT 1,
			conditions TEXT NOT NULL DEFAULT '[]',
			actions TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		) STRICT;`

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func testStoredRule(id, name string) *StoredRule {
	return &StoredRule{
		ID:      id,
		Name:    name,
		Enabled: true,
		Conditions: []Condition{
			{Operand: Metric(telemetry.MetricTemperatureAvg), Op: OpLessThan, Threshold: 15.0},
		},
		ActionNames: []string{"activate_heater"},
	}
}

func TestSQLiteRepositoryCreateAndGet(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	rule := testStoredRule("r1", "low temperature")
	if err := repo.Create(ctx, rule); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if rule.CreatedAt.IsZero() || rule.UpdatedAt.IsZero() {
		t.Error("Create() did not stamp timestamps")
	}

	got, err := repo.GetByID(ctx, "r1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "low temperature" || !got.Enabled {
		t.Errorf("GetByID() = %+v", got)
	}
	if len(got.Conditions) != 1 || got.Conditions[0].Op != OpLessThan {
		t.Errorf("conditions did not round-trip: %+v", got.Conditions)
	}
	if got.Conditions[0].Operand.MetricKey != telemetry.MetricTemperatureAvg {
		t.Errorf("operand metric = %q", got.Conditions[0].Operand.MetricKey)
	}
	if len(got.ActionNames) != 1 || got.ActionNames[0] != "activate_heater" {
		t.Errorf("action names = %v", got.ActionNames)
	}
}

func TestSQLiteRepositoryDuplicateID(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testStoredRule("r1", "first")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	err := repo.Create(ctx, testStoredRule("r1", "second"))
	if !errors.Is(err, ErrRuleExists) {
		t.Errorf("Create() duplicate error = %v, want ErrRuleExists", err)
	}
}

func TestSQLiteRepositoryGetMissing(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	_, err := repo.GetByID(context.Background(), "absent")
	if !errors.Is(err, ErrRuleNotFound) {
		t.Errorf("GetByID() error = %v, want ErrRuleNotFound", err)
	}
}

func TestSQLiteRepositoryList(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		if err := repo.Create(ctx, testStoredRule(id, "rule "+id)); err != nil {
			t.Fatalf("Create(%q) error = %v", id, err)
		}
	}

	rules, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(rules) != 3 {
		t.Fatalf("List() returned %d rules, want 3", len(rules))
	}
	for i, want := range []string{"a", "b", "c"} {
		if rules[i].ID != want {
			t.Errorf("List()[%d].ID = %q, want %q", i, rules[i].ID, want)
		}
	}
}

func TestSQLiteRepositoryDelete(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testStoredRule("r1", "doomed")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Delete(ctx, "r1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(ctx, "r1"); !errors.Is(err, ErrRuleNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrRuleNotFound", err)
	}
}

func TestSQLiteRepositorySetEnabled(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testStoredRule("r1", "toggle")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.SetEnabled(ctx, "r1", false); err != nil {
		t.Fatalf("SetEnabled() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "r1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Enabled {
		t.Error("rule still enabled after SetEnabled(false)")
	}

	if err := repo.SetEnabled(ctx, "absent", true); !errors.Is(err, ErrRuleNotFound) {
		t.Errorf("SetEnabled() on absent rule error = %v, want ErrRuleNotFound", err)
	}
}
