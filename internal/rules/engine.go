package rules

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/habitatworks/habitat-core/internal/telemetry"
)

// Logger defines the logging interface used by the Engine.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Engine holds the rule set and evaluates it against telemetry snapshots.
//
// Thread Safety:
//   - Rule administration (Add/Remove) may race with Evaluate from the
//     scheduler loop; an RWMutex guards the set and the per-rule
//     counters.
type Engine struct {
	mu     sync.RWMutex
	rules  map[string]*Rule
	logger Logger
}

// NewEngine creates an empty rule engine.
func NewEngine() *Engine {
	return &Engine{
		rules:  make(map[string]*Rule),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the engine.
func (e *Engine) SetLogger(logger Logger) {
	e.logger = logger
}

// AddRule adds a rule to the set.
//
// Returns:
//   - error: ErrRuleExists if the ID is already present
func (e *Engine) AddRule(rule Rule) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.rules[rule.ID]; ok {
		return ErrRuleExists
	}
	r := rule
	e.rules[rule.ID] = &r
	e.logger.Info("rule added", "id", rule.ID, "name", rule.Name)
	return nil
}

// RemoveRule removes a rule by ID.
//
// Returns:
//   - bool: Whether a rule was removed
func (e *Engine) RemoveRule(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.rules[id]; !ok {
		return false
	}
	delete(e.rules, id)
	e.logger.Info("rule removed", "id", id)
	return true
}

// GetRule returns a copy of a rule by ID.
func (e *Engine) GetRule(id string) (Rule, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r, ok := e.rules[id]
	if !ok {
		return Rule{}, ErrRuleNotFound
	}
	return *r, nil
}

// ListRules returns copies of all rules sorted by ID.
func (e *Engine) ListRules() []Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Rule, 0, len(e.rules))
	for _, r := range e.rules {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of rules in the set.
func (e *Engine) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.rules)
}

// Evaluate runs every enabled rule against the snapshot.
//
// A rule fires when ALL of its conditions hold. On fire, actions run in
// order; individual action failures are logged and do not abort the
// remaining actions or the rule's bookkeeping. The trigger count and
// timestamp advance regardless of action outcomes.
//
// Condition evaluation errors (unknown operator, incomparable values)
// are programming faults: the offending rule does not fire and the
// error is both logged and returned (joined), never downgraded to a
// silent false. Other rules still evaluate.
//
// Parameters:
//   - ctx: Passed through to rule actions
//   - metrics: Immutable snapshot for this cycle
//
// Returns:
//   - []string: IDs of rules that fired, in ID order
//   - error: Joined condition evaluation errors, if any
func (e *Engine) Evaluate(ctx context.Context, metrics telemetry.Metrics) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make([]string, 0, len(e.rules))
	for id := range e.rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var fired []string
	var errs []error

	for _, id := range ids {
		rule := e.rules[id]
		if !rule.Enabled {
			continue
		}

		matched := true
		for i, cond := range rule.Conditions {
			ok, err := cond.Evaluate(metrics)
			if err != nil {
				e.logger.Error("condition evaluation failed",
					"rule_id", rule.ID,
					"condition", i,
					"error", err,
				)
				errs = append(errs, err)
				matched = false
				break
			}
			if !ok {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}

		e.logger.Info("rule triggered", "id", rule.ID, "name", rule.Name)
		e.runActions(ctx, rule)

		// Bookkeeping advances whether or not actions succeeded.
		rule.TriggerCount++
		rule.LastTriggered = time.Now().UTC()
		fired = append(fired, rule.ID)
	}

	return fired, errors.Join(errs...)
}

// runActions executes a fired rule's actions in order, containing
// per-action failures.
func (e *Engine) runActions(ctx context.Context, rule *Rule) {
	for _, action := range rule.Actions {
		if err := e.runAction(ctx, action); err != nil {
			e.logger.Error("rule action failed",
				"rule_id", rule.ID,
				"action", action.Name,
				"error", err,
			)
		}
	}
}

// runAction runs one action, converting panics into errors.
func (e *Engine) runAction(ctx context.Context, action Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("action panicked")
		}
	}()
	return action.Run(ctx)
}
