package rules

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for rule persistence.
// This abstraction allows different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	GetByID(ctx context.Context, id string) (*StoredRule, error)
	List(ctx context.Context) ([]StoredRule, error)
	Create(ctx context.Context, rule *StoredRule) error
	Delete(ctx context.Context, id string) error
	SetEnabled(ctx context.Context, id string, enabled bool) error
}

// ruleColumns is the SELECT column list for rule queries.
const ruleColumns = `id, name, enabled, conditions, actions, created_at, updated_at`

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetByID retrieves a rule by its unique identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*StoredRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM rules WHERE id = ?`

	rule, err := scanRule(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRuleNotFound
		}
		return nil, fmt.Errorf("querying rule by id: %w", err)
	}
	return rule, nil
}

// List retrieves all rules ordered by ID.
func (r *SQLiteRepository) List(ctx context.Context) ([]StoredRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM rules ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing rules: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var out []StoredRule
	for rows.Next() {
		rule, scanErr := scanRule(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scanning rule: %w", scanErr)
		}
		out = append(out, *rule)
	}
	return out, rows.Err()
}

// Create inserts a new rule.
func (r *SQLiteRepository) Create(ctx context.Context, rule *StoredRule) error {
	conditionsJSON, err := json.Marshal(rule.Conditions)
	if err != nil {
		return fmt.Errorf("marshalling conditions: %w", err)
	}
	actionsJSON, err := json.Marshal(rule.ActionNames)
	if err != nil {
		return fmt.Errorf("marshalling actions: %w", err)
	}

	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now

	query := `
		INSERT INTO rules (id, name, enabled, conditions, actions, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		rule.ID,
		rule.Name,
		boolToInt(rule.Enabled),
		string(conditionsJSON),
		string(actionsJSON),
		rule.CreatedAt.Format(time.RFC3339),
		rule.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrRuleExists
		}
		return fmt.Errorf("inserting rule: %w", err)
	}
	return nil
}

// Delete removes a rule.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting rule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return ErrRuleNotFound
	}
	return nil
}

// SetEnabled toggles a rule's enabled flag.
func (r *SQLiteRepository) SetEnabled(ctx context.Context, id string, enabled bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE rules SET enabled = ?, updated_at = ? WHERE id = ?`,
		boolToInt(enabled),
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("updating rule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return ErrRuleNotFound
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scan logic.
type scanner interface {
	Scan(dest ...any) error
}

// scanRule reads one rule row.
func scanRule(s scanner) (*StoredRule, error) {
	var (
		rule           StoredRule
		enabled        int
		conditionsJSON string
		actionsJSON    string
		createdAt      string
		updatedAt      string
	)

	if err := s.Scan(&rule.ID, &rule.Name, &enabled, &conditionsJSON, &actionsJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	rule.Enabled = enabled != 0
	if err := json.Unmarshal([]byte(conditionsJSON), &rule.Conditions); err != nil {
		return nil, fmt.Errorf("unmarshalling conditions: %w", err)
	}
	if err := json.Unmarshal([]byte(actionsJSON), &rule.ActionNames); err != nil {
		return nil, fmt.Errorf("unmarshalling actions: %w", err)
	}

	var err error
	if rule.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if rule.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &rule, nil
}

// boolToInt converts a bool to SQLite's integer representation.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueConstraintError reports whether err is a SQLite unique
// constraint violation.
func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
