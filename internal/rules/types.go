package rules

import (
	"context"
	"time"

	"github.com/habitatworks/habitat-core/internal/telemetry"
)

// Operator identifies a condition comparison.
type Operator string

// Condition operators.
const (
	OpGreaterThan Operator = "gt"
	OpLessThan    Operator = "lt"
	OpEqual       Operator = "eq"
	OpNotEqual    Operator = "neq"
	OpBetween     Operator = "between"     // threshold <= value <= threshold2 (inclusive)
	OpNotBetween  Operator = "not_between" // negation of between
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpIsTrue      Operator = "is_true"
	OpIsFalse     Operator = "is_false"
)

// Operand is the left-hand side of a condition: either a literal value
// or a reference to a metric key resolved against the current telemetry
// snapshot at evaluation time.
//
// When MetricKey is set but absent from the snapshot, the operand falls
// back to its Literal. The stored operand is never mutated during
// evaluation.
type Operand struct {
	// MetricKey names a metric or flag in the telemetry snapshot.
	// Empty means the operand is purely literal.
	MetricKey string `json:"metric,omitempty"`

	// Literal is the fallback (or sole) value.
	Literal any `json:"literal,omitempty"`
}

// Metric returns an operand referencing a telemetry key.
func Metric(key string) Operand {
	return Operand{MetricKey: key}
}

// Literal returns a purely literal operand.
func Literal(v any) Operand {
	return Operand{Literal: v}
}

// Resolve produces the operand's value for this evaluation cycle.
func (o Operand) Resolve(metrics telemetry.Metrics) any {
	if o.MetricKey != "" {
		if v, ok := metrics.Lookup(o.MetricKey); ok {
			return v
		}
	}
	return o.Literal
}

// Condition is a single stateless comparison within a rule.
type Condition struct {
	Operand    Operand  `json:"operand"`
	Op         Operator `json:"op"`
	Threshold  any      `json:"threshold,omitempty"`
	Threshold2 any      `json:"threshold2,omitempty"`
}

// ActionFunc is the work a rule performs when it fires.
type ActionFunc func(ctx context.Context) error

// Action pairs a persistable name with its bound callback.
type Action struct {
	Name string
	Run  ActionFunc
}

// Rule combines AND-ed conditions with ordered actions.
//
// Counters are mutated only by the engine during evaluation.
type Rule struct {
	ID            string
	Name          string
	Conditions    []Condition
	Actions       []Action
	Enabled       bool
	LastTriggered time.Time
	TriggerCount  int
}

// ActionRegistry maps action names to callbacks so persisted rules can
// be rebound at load time.
type ActionRegistry map[string]ActionFunc

// StoredRule is the persistable form of a rule: conditions plus action
// names, without bound callbacks.
type StoredRule struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Enabled     bool        `json:"enabled"`
	Conditions  []Condition `json:"conditions"`
	ActionNames []string    `json:"actions"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Bind resolves a stored rule's action names against the registry.
//
// Returns:
//   - Rule: Runnable rule with callbacks attached
//   - error: ErrUnknownAction if any name is not registered
func (sr StoredRule) Bind(registry ActionRegistry) (Rule, error) {
	actions := make([]Action, 0, len(sr.ActionNames))
	for _, name := range sr.ActionNames {
		fn, ok := registry[name]
		if !ok {
			return Rule{}, unknownActionError(name)
		}
		actions = append(actions, Action{Name: name, Run: fn})
	}
	return Rule{
		ID:         sr.ID,
		Name:       sr.Name,
		Conditions: sr.Conditions,
		Actions:    actions,
		Enabled:    sr.Enabled,
	}, nil
}

// Stored converts a runnable rule back to its persistable form.
func (r Rule) Stored() StoredRule {
	names := make([]string, 0, len(r.Actions))
	for _, a := range r.Actions {
		names = append(names, a.Name)
	}
	return StoredRule{
		ID:          r.ID,
		Name:        r.Name,
		Enabled:     r.Enabled,
		Conditions:  r.Conditions,
		ActionNames: names,
	}
}
