package actuator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// dailyWindow is the rolling window for the per-device activation cap.
const dailyWindow = 24 * time.Hour

// Power clamp applied to every accepted activation.
const (
	minPower = 0.1
	maxPower = 1.0
)

// Sink performs the physical (or simulated) effect of an approved
// activation. It is called only after the Governor has accepted the
// request and clamped its parameters.
type Sink interface {
	// Actuate starts the device at the given power for the given
	// duration.
	Actuate(ctx context.Context, deviceID string, power float64, duration time.Duration) error

	// Halt stops the device immediately.
	Halt(ctx context.Context, deviceID string) error
}

// Deferrer schedules the cancellable self-deactivation event that ends
// an activation after its effective duration. Activate returns
// immediately; the deferred callback performs the matching deactivate.
type Deferrer interface {
	After(id string, delay time.Duration, fn func(ctx context.Context) error) error
	Cancel(id string) error
}

// Recorder persists accepted activations for audit.
type Recorder interface {
	Record(ctx context.Context, rec ActuationRecord) error
}

// Logger defines the logging interface used by the Governor.
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

// device pairs a registered actuator with its safety record. Each
// device carries its own mutex so activation decisions (check then
// set) are atomic per device without serialising the whole fleet.
type device struct {
	mu      sync.Mutex
	id      string
	name    string
	profile Profile
	safety  SafetyState
	deferID string
}

// Governor is the per-device safety state machine gating all
// actuation. Every activate call passes its checks; on acceptance the
// request is clamped, forwarded to the Sink, and a deferred
// self-deactivation is scheduled.
//
// Thread Safety:
//   - The registry map is guarded by an RWMutex; each device's safety
//     record by its own mutex.
//   - The emergency stop flag is atomic and observed by every activate
//     call before per-device checks.
type Governor struct {
	mu      sync.RWMutex
	devices map[string]*device

	emergencyStop atomic.Bool

	sink     Sink
	deferrer Deferrer
	recorder Recorder
	logger   Logger

	// now is replaceable in tests.
	now func() time.Time
}

// NewGovernor creates a governor forwarding approved activations to
// sink and scheduling self-deactivation through deferrer. Both may be
// nil for a dry governor that only tracks state.
func NewGovernor(sink Sink, deferrer Deferrer) *Governor {
	return &Governor{
		devices:  make(map[string]*device),
		sink:     sink,
		deferrer: deferrer,
		logger:   noopLogger{},
		now:      time.Now,
	}
}

// SetLogger sets the logger for the governor.
func (g *Governor) SetLogger(logger Logger) {
	g.logger = logger
}

// SetRecorder attaches an actuation audit recorder.
func (g *Governor) SetRecorder(r Recorder) {
	g.recorder = r
}

// Register adds a device under the built-in profile for its type.
//
// Returns:
//   - error: ErrInvalidType or ErrActuatorExists
func (g *Governor) Register(id, name string, t Type) error {
	profile, ok := ProfileFor(t)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidType, t)
	}
	return g.RegisterProfile(id, name, profile)
}

// RegisterProfile adds a device under a custom profile, typically a
// type profile with per-device overrides applied.
func (g *Governor) RegisterProfile(id, name string, profile Profile) error {
	if !profile.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, profile.Type)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.devices[id]; exists {
		return ErrActuatorExists
	}
	g.devices[id] = &device{
		id:      id,
		name:    name,
		profile: profile,
		safety:  SafetyState{State: StateIdle},
	}
	g.logger.Info("actuator registered", "id", id, "name", name, "type", profile.Type)
	return nil
}

// Remove unregisters a device, halting it first if active.
func (g *Governor) Remove(ctx context.Context, id string) bool {
	g.mu.Lock()
	d, ok := g.devices[id]
	if ok {
		delete(g.devices, id)
	}
	g.mu.Unlock()
	if !ok {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.safety.State == StateActive {
		g.stopLocked(ctx, d)
	}
	g.logger.Info("actuator removed", "id", id)
	return true
}

func (g *Governor) get(id string) (*device, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	d, ok := g.devices[id]
	return d, ok
}

// Activate requests an activation at the given power for the given
// duration. A non-positive duration means "as long as allowed" and is
// replaced by the device's maximum activation time.
//
// Rejections (emergency stop, state, cooldown, daily cap) leave the
// device untouched and return a sentinel error. On acceptance the
// power is capped per device type, clamped to [0.1, 1.0], the duration
// clamped to the type's maximum, the Sink invoked, and a deferred
// self-deactivation scheduled. The call returns immediately.
//
// Returns:
//   - *Activation: The effective (clamped) activation on success
//   - error: A rejection sentinel, ErrActuatorNotFound, or a sink fault
func (g *Governor) Activate(ctx context.Context, id string, power float64, duration time.Duration) (*Activation, error) {
	if g.emergencyStop.Load() {
		g.logger.Warn("activation rejected", "id", id, "reason", "emergency stop active")
		return nil, ErrEmergencyStop
	}

	d, ok := g.get(id)
	if !ok {
		g.logger.Warn("activation rejected", "id", id, "reason", "unknown actuator")
		return nil, ErrActuatorNotFound
	}

	d.mu.Lock()
	act, err := g.activateLocked(ctx, d, power, duration)
	d.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if g.recorder != nil {
		if recErr := g.recorder.Record(ctx, newActuationRecord(d, *act)); recErr != nil {
			g.logger.Error("recording actuation failed", "id", id, "error", recErr)
		}
	}
	return act, nil
}

func (g *Governor) activateLocked(ctx context.Context, d *device, power float64, duration time.Duration) (*Activation, error) {
	now := g.now()

	if err := g.safeToActivateLocked(d, now); err != nil {
		g.logger.Warn("activation rejected", "id", d.id, "reason", err)
		return nil, err
	}

	if limit := d.profile.PowerCap; limit > 0 && power > limit {
		g.logger.Warn("power capped", "id", d.id, "requested", power, "cap", limit)
		power = limit
	}
	if power < minPower {
		power = minPower
	}
	if power > maxPower {
		power = maxPower
	}
	if duration <= 0 || duration > d.profile.MaxActivationTime {
		g.logger.Info("duration limited", "id", d.id, "limit", d.profile.MaxActivationTime)
		duration = d.profile.MaxActivationTime
	}

	if g.sink != nil {
		if err := g.sink.Actuate(ctx, d.id, power, duration); err != nil {
			g.setErrorLocked(d, fmt.Sprintf("activation failed: %v", err))
			return nil, fmt.Errorf("actuating %s: %w", d.id, err)
		}
	}

	// Re-activation while active restarts the timer.
	g.cancelDeferredLocked(d)

	d.safety.State = StateActive
	d.safety.LastActivated = now
	d.safety.CurrentPower = power
	d.safety.ActivationCountTotal++
	d.safety.ActivationCountToday++

	act := &Activation{
		DeviceID:  d.id,
		Power:     power,
		Duration:  duration,
		Amount:    amountFor(d.profile, power, duration),
		Unit:      d.profile.AmountUnit,
		StartedAt: now,
	}

	g.scheduleDeactivationLocked(d, duration)
	g.logger.Info("actuator activated",
		"id", d.id,
		"power", power,
		"duration", duration,
		"amount", act.Amount,
		"unit", act.Unit,
	)
	return act, nil
}

// safeToActivateLocked runs the rejection checks. The daily counter
// reset and the subsequent limit check happen under the device lock so
// reset-then-increment cannot lose updates.
func (g *Governor) safeToActivateLocked(d *device, now time.Time) error {
	switch d.safety.State {
	case StateDisabled:
		return ErrDisabled
	case StateError:
		return fmt.Errorf("%w: %s", ErrInErrorState, d.safety.ErrorMessage)
	case StateMaintenance:
		return ErrMaintenance
	}

	if !d.safety.LastDeactivated.IsZero() {
		if elapsed := now.Sub(d.safety.LastDeactivated); elapsed < d.profile.MinCooldown {
			return fmt.Errorf("%w: wait %s", ErrCooldownActive, (d.profile.MinCooldown - elapsed).Round(time.Millisecond))
		}
	}

	if d.safety.DailyWindowStart.IsZero() || now.Sub(d.safety.DailyWindowStart) > dailyWindow {
		d.safety.ActivationCountToday = 0
		d.safety.DailyWindowStart = now
	}
	if d.safety.ActivationCountToday >= d.profile.MaxPerDay {
		return fmt.Errorf("%w: %d", ErrDailyLimitReached, d.profile.MaxPerDay)
	}
	return nil
}

// amountFor computes the per-activation side metric: units or mL
// dispensed for dispensers, watt-hours consumed for environmental
// controllers.
func amountFor(p Profile, power float64, duration time.Duration) float64 {
	if p.DispensingRate > 0 {
		return p.DispensingRate * power * duration.Seconds()
	}
	return p.PowerConsumption * power * duration.Hours()
}

// scheduleDeactivationLocked arranges the deferred self-deactivation.
func (g *Governor) scheduleDeactivationLocked(d *device, duration time.Duration) {
	if g.deferrer == nil {
		return
	}
	id := "deactivate:" + d.id
	d.deferID = id
	deviceID := d.id
	if err := g.deferrer.After(id, duration, func(ctx context.Context) error {
		return g.Deactivate(ctx, deviceID)
	}); err != nil {
		g.logger.Error("scheduling self-deactivation failed", "id", d.id, "error", err)
	}
}

// cancelDeferredLocked cancels a pending self-deactivation, if any.
// Best effort: a callback already mid-dispatch may still run, where it
// lands as a harmless no-op deactivate.
func (g *Governor) cancelDeferredLocked(d *device) {
	if g.deferrer == nil || d.deferID == "" {
		return
	}
	_ = g.deferrer.Cancel(d.deferID)
	d.deferID = ""
}

// Deactivate stops a device. Already-inactive devices are a no-op
// success.
func (g *Governor) Deactivate(ctx context.Context, id string) error {
	d, ok := g.get(id)
	if !ok {
		return ErrActuatorNotFound
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.safety.State != StateActive {
		return nil
	}
	return g.stopLocked(ctx, d)
}

// stopLocked performs the ACTIVE -> IDLE transition.
func (g *Governor) stopLocked(ctx context.Context, d *device) error {
	g.cancelDeferredLocked(d)

	if g.sink != nil {
		if err := g.sink.Halt(ctx, d.id); err != nil {
			g.setErrorLocked(d, fmt.Sprintf("deactivation failed: %v", err))
			return fmt.Errorf("halting %s: %w", d.id, err)
		}
	}

	d.safety.State = StateIdle
	d.safety.LastDeactivated = g.now()
	d.safety.CurrentPower = 0
	g.logger.Info("actuator deactivated", "id", d.id)
	return nil
}

// SetError moves a device to the error state with a message. Surfaced
// via status queries; cleared only by an explicit ClearError.
func (g *Governor) SetError(id, message string) error {
	d, ok := g.get(id)
	if !ok {
		return ErrActuatorNotFound
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	g.setErrorLocked(d, message)
	return nil
}

func (g *Governor) setErrorLocked(d *device, message string) {
	g.cancelDeferredLocked(d)
	d.safety.State = StateError
	d.safety.ErrorMessage = message
	d.safety.CurrentPower = 0
	g.logger.Error("actuator error", "id", d.id, "message", message)
}

// ClearError returns an errored device to idle. Devices in other
// states are left untouched.
func (g *Governor) ClearError(id string) error {
	d, ok := g.get(id)
	if !ok {
		return ErrActuatorNotFound
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.safety.State != StateError {
		return nil
	}
	d.safety.State = StateIdle
	d.safety.ErrorMessage = ""
	g.logger.Info("actuator error cleared", "id", id)
	return nil
}

// Enable returns a disabled device to idle.
func (g *Governor) Enable(id string) error {
	d, ok := g.get(id)
	if !ok {
		return ErrActuatorNotFound
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.safety.State == StateDisabled {
		d.safety.State = StateIdle
		g.logger.Info("actuator enabled", "id", id)
	}
	return nil
}

// Disable halts a device if active and marks it disabled.
func (g *Governor) Disable(ctx context.Context, id string) error {
	d, ok := g.get(id)
	if !ok {
		return ErrActuatorNotFound
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.safety.State == StateActive {
		if err := g.stopLocked(ctx, d); err != nil {
			return err
		}
	}
	d.safety.State = StateDisabled
	g.logger.Info("actuator disabled", "id", id)
	return nil
}

// SetMaintenance enters or leaves maintenance mode. Entering forces a
// deactivation first; leaving returns the device to idle only if it is
// actually in maintenance.
func (g *Governor) SetMaintenance(ctx context.Context, id string, on bool) error {
	d, ok := g.get(id)
	if !ok {
		return ErrActuatorNotFound
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if on {
		if d.safety.State == StateActive {
			if err := g.stopLocked(ctx, d); err != nil {
				return err
			}
		}
		d.safety.State = StateMaintenance
		g.logger.Info("actuator in maintenance", "id", id)
		return nil
	}
	if d.safety.State == StateMaintenance {
		d.safety.State = StateIdle
		g.logger.Info("actuator maintenance cleared", "id", id)
	}
	return nil
}

// EmergencyStop sets the global stop flag and halts every active
// device. All subsequent Activate calls on any device fail until
// ResetEmergencyStop.
func (g *Governor) EmergencyStop(ctx context.Context) {
	g.emergencyStop.Store(true)
	g.logger.Error("EMERGENCY STOP TRIGGERED")

	for _, d := range g.snapshotDevices() {
		d.mu.Lock()
		if d.safety.State == StateActive {
			if err := g.stopLocked(ctx, d); err != nil {
				g.logger.Error("emergency halt failed", "id", d.id, "error", err)
			}
		}
		d.mu.Unlock()
	}
}

// ResetEmergencyStop clears the global stop flag.
func (g *Governor) ResetEmergencyStop() {
	if g.emergencyStop.CompareAndSwap(true, false) {
		g.logger.Info("emergency stop reset")
	}
}

// EmergencyStopActive reports whether the global stop flag is set.
func (g *Governor) EmergencyStopActive() bool {
	return g.emergencyStop.Load()
}

// GetState returns a copy of a device's safety record.
func (g *Governor) GetState(id string) (SafetyState, error) {
	d, ok := g.get(id)
	if !ok {
		return SafetyState{}, ErrActuatorNotFound
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.safety, nil
}

// Get returns a read-only snapshot of a registered device.
func (g *Governor) Get(id string) (Info, error) {
	d, ok := g.get(id)
	if !ok {
		return Info{}, ErrActuatorNotFound
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return Info{ID: d.id, Name: d.name, Type: d.profile.Type, Profile: d.profile, Safety: d.safety}, nil
}

// List returns snapshots of all registered devices.
func (g *Governor) List() []Info {
	out := make([]Info, 0)
	for _, d := range g.snapshotDevices() {
		d.mu.Lock()
		out = append(out, Info{ID: d.id, Name: d.name, Type: d.profile.Type, Profile: d.profile, Safety: d.safety})
		d.mu.Unlock()
	}
	return out
}

// ActuatorsInError returns the IDs of devices currently in the error
// state.
func (g *Governor) ActuatorsInError() []string {
	return g.idsInState(StateError)
}

// ActiveActuators returns the IDs of currently active devices.
func (g *Governor) ActiveActuators() []string {
	return g.idsInState(StateActive)
}

func (g *Governor) idsInState(state State) []string {
	var ids []string
	for _, d := range g.snapshotDevices() {
		d.mu.Lock()
		if d.safety.State == state {
			ids = append(ids, d.id)
		}
		d.mu.Unlock()
	}
	return ids
}

// ResetErrors clears the error state of every errored device.
func (g *Governor) ResetErrors() {
	for _, d := range g.snapshotDevices() {
		d.mu.Lock()
		if d.safety.State == StateError {
			d.safety.State = StateIdle
			d.safety.ErrorMessage = ""
		}
		d.mu.Unlock()
	}
}

// Count returns the number of registered devices.
func (g *Governor) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.devices)
}

// snapshotDevices copies the registry's device pointers, sorted by ID,
// so per-device locks are never taken while holding the registry lock.
func (g *Governor) snapshotDevices() []*device {
	g.mu.RLock()
	out := make([]*device, 0, len(g.devices))
	for _, d := range g.devices {
		out = append(out, d)
	}
	g.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}
