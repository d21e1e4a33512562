package actuator

import "errors"

// Domain errors for the actuator package. Activation rejections are
// expected operational outcomes, returned (and logged at warning
// level) rather than panicking or escalating.
var (
	// ErrActuatorNotFound is returned when a device ID is not registered.
	ErrActuatorNotFound = errors.New("actuator: not found")

	// ErrActuatorExists is returned when registering a duplicate device ID.
	ErrActuatorExists = errors.New("actuator: already exists")

	// ErrInvalidType is returned when a device declares an unknown type.
	ErrInvalidType = errors.New("actuator: invalid type")

	// ErrEmergencyStop rejects activation while the global emergency
	// stop flag is set.
	ErrEmergencyStop = errors.New("actuator: emergency stop active")

	// ErrDisabled rejects activation of a disabled device.
	ErrDisabled = errors.New("actuator: disabled")

	// ErrInErrorState rejects activation of a device in the error state.
	ErrInErrorState = errors.New("actuator: in error state")

	// ErrMaintenance rejects activation of a device in maintenance mode.
	ErrMaintenance = errors.New("actuator: in maintenance mode")

	// ErrCooldownActive rejects activation before the per-device
	// cooldown has elapsed.
	ErrCooldownActive = errors.New("actuator: cooldown period not complete")

	// ErrDailyLimitReached rejects activation once the rolling 24h
	// activation cap is hit.
	ErrDailyLimitReached = errors.New("actuator: daily activation limit reached")
)
