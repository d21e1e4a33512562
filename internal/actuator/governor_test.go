package actuator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeSink records actuation calls and can be made to fail.
type fakeSink struct {
	mu       sync.Mutex
	actuated []string
	halted   []string
	failNext error
}

func (f *fakeSink) Actuate(_ context.Context, deviceID string, _ float64, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	f.actuated = append(f.actuated, deviceID)
	return nil
}

func (f *fakeSink) Halt(_ context.Context, deviceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.halted = append(f.halted, deviceID)
	return nil
}

// fakeDeferrer captures deferred callbacks without any real timing.
type fakeDeferrer struct {
	mu    sync.Mutex
	tasks map[string]deferred
}

type deferred struct {
	delay time.Duration
	fn    func(ctx context.Context) error
}

func newFakeDeferrer() *fakeDeferrer {
	return &fakeDeferrer{tasks: make(map[string]deferred)}
}

func (f *fakeDeferrer) After(id string, delay time.Duration, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[id] = deferred{delay: delay, fn: fn}
	return nil
}

func (f *fakeDeferrer) Cancel(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tasks, id)
	return nil
}

func (f *fakeDeferrer) fire(t *testing.T, id string) {
	t.Helper()
	f.mu.Lock()
	task, ok := f.tasks[id]
	delete(f.tasks, id)
	f.mu.Unlock()
	if !ok {
		t.Fatalf("no deferred task %q", id)
	}
	if err := task.fn(context.Background()); err != nil {
		t.Fatalf("deferred task %q error = %v", id, err)
	}
}

func (f *fakeDeferrer) pending(id string) (deferred, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	return task, ok
}

// testGovernor wires a governor with a controllable clock.
func testGovernor(t *testing.T) (*Governor, *fakeSink, *fakeDeferrer, *time.Time) {
	t.Helper()

	sink := &fakeSink{}
	deferrer := newFakeDeferrer()
	g := NewGovernor(sink, deferrer)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }
	return g, sink, deferrer, &now
}

func TestGovernorRegister(t *testing.T) {
	g, _, _, _ := testGovernor(t)

	if err := g.Register("feeder-1", "Food Dispenser", TypeFoodDispenser); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := g.Register("feeder-1", "Duplicate", TypeFoodDispenser); !errors.Is(err, ErrActuatorExists) {
		t.Errorf("Register() duplicate error = %v, want ErrActuatorExists", err)
	}
	if err := g.Register("mystery-1", "Mystery", Type("teleporter")); !errors.Is(err, ErrInvalidType) {
		t.Errorf("Register() invalid type error = %v, want ErrInvalidType", err)
	}
	if g.Count() != 1 {
		t.Errorf("Count() = %d, want 1", g.Count())
	}
}

func TestGovernorActivateAndSelfDeactivate(t *testing.T) {
	g, sink, deferrer, _ := testGovernor(t)
	if err := g.Register("fan-1", "Fan", TypeFan); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	act, err := g.Activate(context.Background(), "fan-1", 0.5, 5*time.Minute)
	if err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if act.Power != 0.5 || act.Duration != 5*time.Minute {
		t.Errorf("Activate() = %+v", act)
	}
	if len(sink.actuated) != 1 || sink.actuated[0] != "fan-1" {
		t.Errorf("sink.actuated = %v", sink.actuated)
	}

	state, err := g.GetState("fan-1")
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.State != StateActive || state.CurrentPower != 0.5 {
		t.Errorf("state = %+v", state)
	}
	if state.ActivationCountTotal != 1 || state.ActivationCountToday != 1 {
		t.Errorf("counters = %d/%d, want 1/1", state.ActivationCountTotal, state.ActivationCountToday)
	}

	task, ok := deferrer.pending("deactivate:fan-1")
	if !ok {
		t.Fatal("no deferred self-deactivation scheduled")
	}
	if task.delay != 5*time.Minute {
		t.Errorf("deferred delay = %v, want 5m", task.delay)
	}

	deferrer.fire(t, "deactivate:fan-1")
	state, _ = g.GetState("fan-1")
	if state.State != StateIdle || state.CurrentPower != 0 {
		t.Errorf("state after expiry = %+v", state)
	}
	if len(sink.halted) != 1 {
		t.Errorf("sink.halted = %v", sink.halted)
	}
}

func TestGovernorCooldownRejection(t *testing.T) {
	g, _, _, now := testGovernor(t)
	if err := g.Register("feeder-1", "Food Dispenser", TypeFoodDispenser); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	ctx := context.Background()
	if _, err := g.Activate(ctx, "feeder-1", 1.0, 5*time.Second); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if err := g.Deactivate(ctx, "feeder-1"); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}

	// 2s into a 10s cooldown.
	*now = now.Add(2 * time.Second)
	_, err := g.Activate(ctx, "feeder-1", 1.0, 5*time.Second)
	if !errors.Is(err, ErrCooldownActive) {
		t.Fatalf("Activate() error = %v, want ErrCooldownActive", err)
	}

	state, _ := g.GetState("feeder-1")
	if state.State != StateIdle || state.ActivationCountTotal != 1 {
		t.Errorf("rejection mutated state: %+v", state)
	}

	*now = now.Add(9 * time.Second)
	if _, err := g.Activate(ctx, "feeder-1", 1.0, 5*time.Second); err != nil {
		t.Errorf("Activate() after cooldown error = %v", err)
	}
}

func TestGovernorDailyLimit(t *testing.T) {
	g, _, _, now := testGovernor(t)
	if err := g.Register("fan-1", "Fan", TypeFan); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		if _, err := g.Activate(ctx, "fan-1", 0.5, time.Second); err != nil {
			t.Fatalf("Activate() #%d error = %v", i+1, err)
		}
		if err := g.Deactivate(ctx, "fan-1"); err != nil {
			t.Fatalf("Deactivate() #%d error = %v", i+1, err)
		}
		*now = now.Add(15 * time.Second)
	}

	_, err := g.Activate(ctx, "fan-1", 0.5, time.Second)
	if !errors.Is(err, ErrDailyLimitReached) {
		t.Fatalf("51st Activate() error = %v, want ErrDailyLimitReached", err)
	}

	// Past the rolling window the counter resets.
	*now = now.Add(24*time.Hour + time.Minute)
	if _, err := g.Activate(ctx, "fan-1", 0.5, time.Second); err != nil {
		t.Fatalf("Activate() after window rollover error = %v", err)
	}
	state, _ := g.GetState("fan-1")
	if state.ActivationCountToday != 1 {
		t.Errorf("ActivationCountToday = %d, want 1 after reset", state.ActivationCountToday)
	}
	if state.ActivationCountTotal != 51 {
		t.Errorf("ActivationCountTotal = %d, want 51", state.ActivationCountTotal)
	}
}

func TestGovernorEmergencyStop(t *testing.T) {
	g, _, _, now := testGovernor(t)
	ctx := context.Background()
	for _, reg := range []struct {
		id string
		t  Type
	}{
		{"fan-1", TypeFan},
		{"heater-1", TypeHeater},
		{"feeder-1", TypeFoodDispenser},
	} {
		if err := g.Register(reg.id, reg.id, reg.t); err != nil {
			t.Fatalf("Register(%q) error = %v", reg.id, err)
		}
	}

	if _, err := g.Activate(ctx, "fan-1", 0.5, time.Minute); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if _, err := g.Activate(ctx, "heater-1", 0.5, time.Minute); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	g.EmergencyStop(ctx)

	if active := g.ActiveActuators(); len(active) != 0 {
		t.Errorf("ActiveActuators() = %v after emergency stop", active)
	}
	for _, id := range []string{"fan-1", "heater-1", "feeder-1"} {
		if _, err := g.Activate(ctx, id, 0.5, time.Second); !errors.Is(err, ErrEmergencyStop) {
			t.Errorf("Activate(%q) error = %v, want ErrEmergencyStop", id, err)
		}
	}

	g.ResetEmergencyStop()
	*now = now.Add(time.Minute) // past cooldown from the forced halt
	if _, err := g.Activate(ctx, "fan-1", 0.5, time.Second); err != nil {
		t.Errorf("Activate() after reset error = %v", err)
	}
}

func TestGovernorPowerClamping(t *testing.T) {
	g, _, _, _ := testGovernor(t)
	if err := g.Register("heater-1", "Heater", TypeHeater); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := g.Register("fan-1", "Fan", TypeFan); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	ctx := context.Background()

	// Heater hard cap applies before the generic clamp.
	act, err := g.Activate(ctx, "heater-1", 1.0, time.Minute)
	if err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if act.Power != 0.7 {
		t.Errorf("heater power = %v, want 0.7", act.Power)
	}
	state, _ := g.GetState("heater-1")
	if state.CurrentPower != 0.7 {
		t.Errorf("CurrentPower = %v, want 0.7", state.CurrentPower)
	}

	// Generic lower clamp.
	act, err = g.Activate(ctx, "fan-1", 0.01, time.Minute)
	if err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if act.Power != 0.1 {
		t.Errorf("fan power = %v, want 0.1", act.Power)
	}
}

func TestGovernorDurationClamping(t *testing.T) {
	g, _, _, _ := testGovernor(t)
	if err := g.Register("feeder-1", "Food Dispenser", TypeFoodDispenser); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	ctx := context.Background()

	// Requested 999s; food dispensers cap at 10s.
	act, err := g.Activate(ctx, "feeder-1", 1.0, 999*time.Second)
	if err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if act.Duration != 10*time.Second {
		t.Errorf("duration = %v, want 10s", act.Duration)
	}
	// Rate 10 units/s at full power for 10s.
	if act.Amount != 100.0 || act.Unit != "units" {
		t.Errorf("amount = %v %s, want 100 units", act.Amount, act.Unit)
	}
}

func TestGovernorZeroDurationUsesMax(t *testing.T) {
	g, _, _, _ := testGovernor(t)
	if err := g.Register("water-1", "Water Dispenser", TypeWaterDispenser); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	act, err := g.Activate(context.Background(), "water-1", 1.0, 0)
	if err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if act.Duration != 15*time.Second {
		t.Errorf("duration = %v, want 15s", act.Duration)
	}
}

func TestGovernorSinkFaultEntersErrorState(t *testing.T) {
	g, sink, _, _ := testGovernor(t)
	if err := g.Register("fan-1", "Fan", TypeFan); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	ctx := context.Background()

	sink.failNext = errors.New("relay stuck")
	if _, err := g.Activate(ctx, "fan-1", 0.5, time.Minute); err == nil {
		t.Fatal("Activate() succeeded despite sink fault")
	}

	state, _ := g.GetState("fan-1")
	if state.State != StateError || state.ErrorMessage == "" {
		t.Errorf("state after fault = %+v", state)
	}
	if inError := g.ActuatorsInError(); len(inError) != 1 || inError[0] != "fan-1" {
		t.Errorf("ActuatorsInError() = %v", inError)
	}

	// Errored devices reject activation until cleared.
	if _, err := g.Activate(ctx, "fan-1", 0.5, time.Minute); !errors.Is(err, ErrInErrorState) {
		t.Errorf("Activate() on errored device error = %v, want ErrInErrorState", err)
	}
	if err := g.ClearError("fan-1"); err != nil {
		t.Fatalf("ClearError() error = %v", err)
	}
	if _, err := g.Activate(ctx, "fan-1", 0.5, time.Minute); err != nil {
		t.Errorf("Activate() after clear error = %v", err)
	}
}

func TestGovernorDisableAndMaintenance(t *testing.T) {
	g, _, _, now := testGovernor(t)
	if err := g.Register("fan-1", "Fan", TypeFan); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	ctx := context.Background()

	if err := g.Disable(ctx, "fan-1"); err != nil {
		t.Fatalf("Disable() error = %v", err)
	}
	if _, err := g.Activate(ctx, "fan-1", 0.5, time.Minute); !errors.Is(err, ErrDisabled) {
		t.Errorf("Activate() on disabled error = %v, want ErrDisabled", err)
	}
	if err := g.Enable("fan-1"); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}

	// Entering maintenance forces a deactivation first.
	if _, err := g.Activate(ctx, "fan-1", 0.5, time.Minute); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if err := g.SetMaintenance(ctx, "fan-1", true); err != nil {
		t.Fatalf("SetMaintenance() error = %v", err)
	}
	state, _ := g.GetState("fan-1")
	if state.State != StateMaintenance {
		t.Errorf("state = %v, want maintenance", state.State)
	}
	if _, err := g.Activate(ctx, "fan-1", 0.5, time.Minute); !errors.Is(err, ErrMaintenance) {
		t.Errorf("Activate() in maintenance error = %v, want ErrMaintenance", err)
	}

	if err := g.SetMaintenance(ctx, "fan-1", false); err != nil {
		t.Fatalf("SetMaintenance(false) error = %v", err)
	}
	*now = now.Add(time.Minute)
	if _, err := g.Activate(ctx, "fan-1", 0.5, time.Minute); err != nil {
		t.Errorf("Activate() after maintenance error = %v", err)
	}
}

func TestGovernorDeactivateIdleNoOp(t *testing.T) {
	g, sink, _, _ := testGovernor(t)
	if err := g.Register("fan-1", "Fan", TypeFan); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := g.Deactivate(context.Background(), "fan-1"); err != nil {
		t.Errorf("Deactivate() on idle device error = %v", err)
	}
	if len(sink.halted) != 0 {
		t.Errorf("sink.halted = %v, want none", sink.halted)
	}
	if err := g.Deactivate(context.Background(), "ghost"); !errors.Is(err, ErrActuatorNotFound) {
		t.Errorf("Deactivate() on unknown device error = %v, want ErrActuatorNotFound", err)
	}
}

func TestGovernorListSorted(t *testing.T) {
	g, _, _, _ := testGovernor(t)
	for _, id := range []string{"c-fan", "a-fan", "b-fan"} {
		if err := g.Register(id, id, TypeFan); err != nil {
			t.Fatalf("Register(%q) error = %v", id, err)
		}
	}

	list := g.List()
	if len(list) != 3 {
		t.Fatalf("List() returned %d devices, want 3", len(list))
	}
	for i, want := range []string{"a-fan", "b-fan", "c-fan"} {
		if list[i].ID != want {
			t.Errorf("List()[%d].ID = %q, want %q", i, list[i].ID, want)
		}
	}
}

func TestGovernorEnvironmentalAmount(t *testing.T) {
	g, _, _, _ := testGovernor(t)
	if err := g.Register("heater-1", "Heater", TypeHeater); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// 150W at 0.5 power for 30 minutes is 37.5Wh.
	act, err := g.Activate(context.Background(), "heater-1", 0.5, 30*time.Minute)
	if err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if act.Amount != 37.5 || act.Unit != "Wh" {
		t.Errorf("amount = %v %s, want 37.5 Wh", act.Amount, act.Unit)
	}
}
