package actuator

import "time"

// State identifies an actuator's position in its safety state machine.
type State string

// Actuator states.
const (
	StateIdle        State = "idle"
	StateActive      State = "active"
	StateError       State = "error"
	StateMaintenance State = "maintenance"
	StateDisabled    State = "disabled"
)

// Type identifies the device class an actuator belongs to. The type
// selects the safety profile (activation limits, rates, power caps).
type Type string

// Actuator types.
const (
	TypeFoodDispenser  Type = "food_dispenser"
	TypeWaterDispenser Type = "water_dispenser"
	TypeFan            Type = "fan"
	TypeHeater         Type = "heater"
	TypeHumidifier     Type = "humidifier"
	TypeDehumidifier   Type = "dehumidifier"
)

// AllTypes lists every supported actuator type.
var AllTypes = []Type{
	TypeFoodDispenser,
	TypeWaterDispenser,
	TypeFan,
	TypeHeater,
	TypeHumidifier,
	TypeDehumidifier,
}

// Valid reports whether t is a recognised actuator type.
func (t Type) Valid() bool {
	for _, known := range AllTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Profile holds the per-type safety parameters enforced by the
// Governor. Zero values in optional fields mean "not applicable for
// this type".
type Profile struct {
	Type Type

	// MaxActivationTime caps a single activation. Requests without a
	// duration, or exceeding the cap, are clamped to it.
	MaxActivationTime time.Duration

	// MinCooldown is the minimum gap between a deactivation and the
	// next activation.
	MinCooldown time.Duration

	// MaxPerDay caps successful activations within a rolling 24h
	// window.
	MaxPerDay int

	// PowerCap, when non-zero, hard-limits the effective power level
	// before the generic clamp (heaters run at 0.7 at most).
	PowerCap float64

	// DispensingRate is units (or mL) per second at full power, for
	// dispensers.
	DispensingRate float64

	// PowerConsumption is the draw in watts at full power, for
	// environmental controllers.
	PowerConsumption float64

	// AmountUnit labels the side metric computed per activation
	// (units dispensed, mL dispensed, watt-hours consumed).
	AmountUnit string
}

// defaultCooldown and defaultMaxPerDay apply to every profile.
const (
	defaultCooldown  = 10 * time.Second
	defaultMaxPerDay = 50
)

// profiles holds the built-in safety parameters per device type.
var profiles = map[Type]Profile{
	TypeFoodDispenser: {
		Type:              TypeFoodDispenser,
		MaxActivationTime: 10 * time.Second,
		MinCooldown:       defaultCooldown,
		MaxPerDay:         defaultMaxPerDay,
		DispensingRate:    10.0,
		AmountUnit:        "units",
	},
	TypeWaterDispenser: {
		Type:              TypeWaterDispenser,
		MaxActivationTime: 15 * time.Second,
		MinCooldown:       defaultCooldown,
		MaxPerDay:         defaultMaxPerDay,
		DispensingRate:    20.0,
		AmountUnit:        "mL",
	},
	TypeFan: {
		Type:              TypeFan,
		MaxActivationTime: time.Hour,
		MinCooldown:       defaultCooldown,
		MaxPerDay:         defaultMaxPerDay,
		PowerConsumption:  15.0,
		AmountUnit:        "Wh",
	},
	TypeHeater: {
		Type:              TypeHeater,
		MaxActivationTime: 30 * time.Minute,
		MinCooldown:       defaultCooldown,
		MaxPerDay:         defaultMaxPerDay,
		PowerCap:          0.7,
		PowerConsumption:  150.0,
		AmountUnit:        "Wh",
	},
	TypeHumidifier: {
		Type:              TypeHumidifier,
		MaxActivationTime: time.Hour,
		MinCooldown:       defaultCooldown,
		MaxPerDay:         defaultMaxPerDay,
		PowerConsumption:  25.0,
		AmountUnit:        "Wh",
	},
	TypeDehumidifier: {
		Type:              TypeDehumidifier,
		MaxActivationTime: time.Hour,
		MinCooldown:       defaultCooldown,
		MaxPerDay:         defaultMaxPerDay,
		PowerConsumption:  25.0,
		AmountUnit:        "Wh",
	},
}

// ProfileFor returns the built-in safety profile for a device type.
func ProfileFor(t Type) (Profile, bool) {
	p, ok := profiles[t]
	return p, ok
}

// SafetyState is the per-device safety record owned by the Governor.
// Callers receive copies; mutation happens only through Governor
// operations.
type SafetyState struct {
	State                State     `json:"state"`
	CurrentPower         float64   `json:"current_power"`
	LastActivated        time.Time `json:"last_activated,omitempty"`
	LastDeactivated      time.Time `json:"last_deactivated,omitempty"`
	ActivationCountTotal int       `json:"activation_count_total"`
	ActivationCountToday int       `json:"activation_count_today"`
	DailyWindowStart     time.Time `json:"daily_window_start,omitempty"`
	ErrorMessage         string    `json:"error_message,omitempty"`
}

// Activation describes an accepted activation after clamping.
type Activation struct {
	DeviceID  string        `json:"device_id"`
	Power     float64       `json:"power"`
	Duration  time.Duration `json:"duration"`
	Amount    float64       `json:"amount"`
	Unit      string        `json:"unit"`
	StartedAt time.Time     `json:"started_at"`
}

// Info is a read-only snapshot of a registered device.
type Info struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Type    Type        `json:"type"`
	Profile Profile     `json:"-"`
	Safety  SafetyState `json:"safety"`
}
