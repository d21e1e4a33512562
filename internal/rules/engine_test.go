package rules

import (
	"context"
	"errors"
	"testing"

	"github.com/habitatworks/habitat-core/internal/telemetry"
)

func coldSnapshot(temp, food float64) telemetry.Metrics {
	return telemetry.Metrics{
		Values: map[string]float64{
			telemetry.MetricTemperatureAvg: temp,
			telemetry.MetricFoodLevel:      food,
		},
		Flags: map[string]bool{},
	}
}

func countedAction(n *int) Action {
	return Action{Name: "count", Run: func(ctx context.Context) error {
		*n++
		return nil
	}}
}

func TestEngineAddRemoveGet(t *testing.T) {
	e := NewEngine()

	rule := Rule{ID: "r1", Name: "test", Enabled: true}
	if err := e.AddRule(rule); err != nil {
		t.Fatalf("AddRule() error = %v", err)
	}
	if err := e.AddRule(rule); !errors.Is(err, ErrRuleExists) {
		t.Errorf("AddRule() duplicate error = %v, want ErrRuleExists", err)
	}
	if e.Count() != 1 {
		t.Errorf("Count() = %d, want 1", e.Count())
	}

	got, err := e.GetRule("r1")
	if err != nil {
		t.Fatalf("GetRule() error = %v", err)
	}
	if got.Name != "test" {
		t.Errorf("GetRule().Name = %q, want %q", got.Name, "test")
	}

	if !e.RemoveRule("r1") {
		t.Error("RemoveRule() = false, want true")
	}
	if e.RemoveRule("r1") {
		t.Error("RemoveRule() on absent rule = true, want false")
	}
	if _, err := e.GetRule("r1"); !errors.Is(err, ErrRuleNotFound) {
		t.Errorf("GetRule() after removal error = %v, want ErrRuleNotFound", err)
	}
}

func TestEngineConjunction(t *testing.T) {
	// Fires only when temperature_avg < 15 AND food_level > 0.
	conditions := []Condition{
		{Operand: Metric(telemetry.MetricTemperatureAvg), Op: OpLessThan, Threshold: 15.0},
		{Operand: Metric(telemetry.MetricFoodLevel), Op: OpGreaterThan, Threshold: 0.0},
	}

	tests := []struct {
		name     string
		temp     float64
		food     float64
		wantFire bool
	}{
		{"both hold", 10.0, 50.0, true},
		{"temperature violates", 20.0, 50.0, false},
		{"food violates", 10.0, 0.0, false},
		{"both violate", 20.0, 0.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine()
			ran := 0
			err := e.AddRule(Rule{
				ID:         "cold-with-food",
				Name:       "heater guard",
				Conditions: conditions,
				Actions:    []Action{countedAction(&ran)},
				Enabled:    true,
			})
			if err != nil {
				t.Fatalf("AddRule() error = %v", err)
			}

			fired, err := e.Evaluate(context.Background(), coldSnapshot(tt.temp, tt.food))
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}

			if tt.wantFire {
				if len(fired) != 1 || fired[0] != "cold-with-food" {
					t.Errorf("fired = %v, want [cold-with-food]", fired)
				}
				if ran != 1 {
					t.Errorf("action ran %d times, want 1", ran)
				}
			} else {
				if len(fired) != 0 {
					t.Errorf("fired = %v, want none", fired)
				}
				if ran != 0 {
					t.Errorf("action ran %d times, want 0", ran)
				}
			}
		})
	}
}

func TestEngineTriggerCountPerCycle(t *testing.T) {
	e := NewEngine()
	ran := 0
	err := e.AddRule(Rule{
		ID:         "r1",
		Conditions: []Condition{{Operand: Metric(telemetry.MetricTemperatureAvg), Op: OpLessThan, Threshold: 15.0}},
		Actions:    []Action{countedAction(&ran), countedAction(&ran)},
		Enabled:    true,
	})
	if err != nil {
		t.Fatalf("AddRule() error = %v", err)
	}

	// Two firing cycles: count advances once per cycle even though the
	// rule carries two actions.
	for i := 0; i < 2; i++ {
		if _, err := e.Evaluate(context.Background(), coldSnapshot(10.0, 50.0)); err != nil {
			t.Fatalf("Evaluate() error = %v", err)
		}
	}
	// One non-firing cycle.
	if _, err := e.Evaluate(context.Background(), coldSnapshot(20.0, 50.0)); err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	got, err := e.GetRule("r1")
	if err != nil {
		t.Fatalf("GetRule() error = %v", err)
	}
	if got.TriggerCount != 2 {
		t.Errorf("TriggerCount = %d, want 2", got.TriggerCount)
	}
	if got.LastTriggered.IsZero() {
		t.Error("LastTriggered not set")
	}
	if ran != 4 {
		t.Errorf("actions ran %d times, want 4", ran)
	}
}

func TestEngineDisabledRuleSkipped(t *testing.T) {
	e := NewEngine()
	ran := 0
	err := e.AddRule(Rule{
		ID:         "r1",
		Conditions: []Condition{{Operand: Literal(true), Op: OpIsTrue}},
		Actions:    []Action{countedAction(&ran)},
		Enabled:    false,
	})
	if err != nil {
		t.Fatalf("AddRule() error = %v", err)
	}

	fired, err := e.Evaluate(context.Background(), coldSnapshot(10.0, 50.0))
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if len(fired) != 0 || ran != 0 {
		t.Errorf("disabled rule fired: fired=%v ran=%d", fired, ran)
	}
}

func TestEngineFaultyRuleIsolated(t *testing.T) {
	e := NewEngine()
	ran := 0

	// "a-broken" sorts first so the fault is hit before the good rule.
	err := e.AddRule(Rule{
		ID:         "a-broken",
		Conditions: []Condition{{Operand: Literal(1.0), Op: Operator("approx"), Threshold: 1.0}},
		Actions:    []Action{countedAction(&ran)},
		Enabled:    true,
	})
	if err != nil {
		t.Fatalf("AddRule() error = %v", err)
	}
	err = e.AddRule(Rule{
		ID:         "b-good",
		Conditions: []Condition{{Operand: Metric(telemetry.MetricTemperatureAvg), Op: OpLessThan, Threshold: 15.0}},
		Actions:    []Action{countedAction(&ran)},
		Enabled:    true,
	})
	if err != nil {
		t.Fatalf("AddRule() error = %v", err)
	}

	fired, err := e.Evaluate(context.Background(), coldSnapshot(10.0, 50.0))
	if !errors.Is(err, ErrUnknownOperator) {
		t.Errorf("Evaluate() error = %v, want ErrUnknownOperator", err)
	}
	if len(fired) != 1 || fired[0] != "b-good" {
		t.Errorf("fired = %v, want [b-good]", fired)
	}
	if ran != 1 {
		t.Errorf("actions ran %d times, want 1", ran)
	}

	broken, err := e.GetRule("a-broken")
	if err != nil {
		t.Fatalf("GetRule() error = %v", err)
	}
	if broken.TriggerCount != 0 {
		t.Errorf("faulty rule TriggerCount = %d, want 0", broken.TriggerCount)
	}
}

func TestEngineActionFailureContained(t *testing.T) {
	e := NewEngine()
	ran := 0
	err := e.AddRule(Rule{
		ID:         "r1",
		Conditions: []Condition{{Operand: Literal(true), Op: OpIsTrue}},
		Actions: []Action{
			{Name: "fail", Run: func(ctx context.Context) error { return errors.New("sink offline") }},
			{Name: "panic", Run: func(ctx context.Context) error { panic("boom") }},
			countedAction(&ran),
		},
		Enabled: true,
	})
	if err != nil {
		t.Fatalf("AddRule() error = %v", err)
	}

	fired, err := e.Evaluate(context.Background(), coldSnapshot(10.0, 50.0))
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if len(fired) != 1 {
		t.Fatalf("fired = %v, want one rule", fired)
	}
	if ran != 1 {
		t.Errorf("trailing action ran %d times, want 1", ran)
	}

	got, _ := e.GetRule("r1")
	if got.TriggerCount != 1 {
		t.Errorf("TriggerCount = %d, want 1 despite action failures", got.TriggerCount)
	}
}

func TestEngineListRulesSorted(t *testing.T) {
	e := NewEngine()
	for _, id := range []string{"c", "a", "b"} {
		if err := e.AddRule(Rule{ID: id, Enabled: true}); err != nil {
			t.Fatalf("AddRule(%q) error = %v", id, err)
		}
	}

	list := e.ListRules()
	if len(list) != 3 {
		t.Fatalf("ListRules() returned %d rules, want 3", len(list))
	}
	for i, want := range []string{"a", "b", "c"} {
		if list[i].ID != want {
			t.Errorf("ListRules()[%d].ID = %q, want %q", i, list[i].ID, want)
		}
	}
}

func TestStoredRuleBind(t *testing.T) {
	registry := ActionRegistry{
		"activate_heater": func(ctx context.Context) error { return nil },
	}

	sr := StoredRule{
		ID:          "r1",
		Name:        "low temp",
		Enabled:     true,
		Conditions:  []Condition{{Operand: Metric(telemetry.MetricTemperatureAvg), Op: OpLessThan, Threshold: 15.0}},
		ActionNames: []string{"activate_heater"},
	}

	rule, err := sr.Bind(registry)
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if len(rule.Actions) != 1 || rule.Actions[0].Name != "activate_heater" {
		t.Errorf("Bind() actions = %+v", rule.Actions)
	}

	sr.ActionNames = []string{"activate_jacuzzi"}
	if _, err := sr.Bind(registry); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("Bind() unknown action error = %v, want ErrUnknownAction", err)
	}

	back := rule.Stored()
	if len(back.ActionNames) != 1 || back.ActionNames[0] != "activate_heater" {
		t.Errorf("Stored() round-trip actions = %v", back.ActionNames)
	}
}
