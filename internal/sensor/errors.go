package sensor

import "errors"

// Domain errors for the sensor package.
var (
	// ErrSensorNotFound is returned when a sensor ID does not exist.
	ErrSensorNotFound = errors.New("sensor: not found")

	// ErrSensorExists is returned when adding a sensor with a duplicate ID.
	ErrSensorExists = errors.New("sensor: already exists")

	// ErrInvalidCategory is returned when a sensor declares an unknown category.
	ErrInvalidCategory = errors.New("sensor: invalid category")

	// ErrReadFailed is returned when the underlying driver read fails.
	ErrReadFailed = errors.New("sensor: read failed")
)
