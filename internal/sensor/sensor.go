package sensor

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Driver reads raw values from sensor hardware (or a simulation of it).
//
// Implementations do not calibrate or validate; that is the Sensor's job.
type Driver interface {
	// ReadRaw returns the current raw measurement.
	ReadRaw() (float64, error)

	// Unit returns the unit of measurement (e.g. "°C", "%").
	Unit() string
}

// Sensor pairs a driver with identity, calibration, and validation.
//
// Read applies the calibration transform (value + offset) * factor and
// flags readings outside the valid range as invalid rather than dropping
// them, so callers can still observe and log the fault.
//
// Thread Safety:
//   - Each sensor carries its own mutex guarding calibration, range, and
//     the last reading, so a calibration arriving mid-sweep cannot race a
//     concurrent Read.
type Sensor struct {
	ID       string
	Name     string
	Category Category

	driver Driver

	mu sync.Mutex

	// Calibration transform applied to every raw value.
	calibrationOffset float64
	calibrationFactor float64

	// Valid range; readings outside it are marked invalid.
	minValid float64
	maxValid float64

	lastReading *Reading
}

// NewSensor creates a sensor over the given driver.
//
// The calibration factor defaults to 1.0 and the valid range to
// (-inf, +inf); use SetValidRange to constrain it.
//
// Returns:
//   - *Sensor: Ready sensor
//   - error: ErrInvalidCategory if the category is unknown
func NewSensor(id, name string, category Category, driver Driver) (*Sensor, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	return &Sensor{
		ID:                id,
		Name:              name,
		Category:          category,
		driver:            driver,
		calibrationFactor: 1.0,
		minValid:          math.Inf(-1),
		maxValid:          math.Inf(1),
	}, nil
}

// SetValidRange constrains the range of values considered valid.
func (s *Sensor) SetValidRange(minValue, maxValue float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.minValid = minValue
	s.maxValid = maxValue
}

// Read takes a measurement, applies calibration, and validates it.
//
// A driver failure or out-of-range value yields a Reading with
// Valid=false and a descriptive error message; Read itself never
// returns an error so one bad sensor cannot abort a ReadAll sweep.
func (s *Sensor) Read() Reading {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()

	raw, err := s.driver.ReadRaw()
	if err != nil {
		reading := Reading{
			SensorID:  s.ID,
			Category:  s.Category,
			Unit:      s.driver.Unit(),
			Timestamp: now,
			Valid:     false,
			Error:     fmt.Sprintf("driver read: %v", err),
		}
		s.lastReading = &reading
		return reading
	}

	calibrated := (raw + s.calibrationOffset) * s.calibrationFactor

	reading := Reading{
		SensorID:  s.ID,
		Category:  s.Category,
		Value:     calibrated,
		Unit:      s.driver.Unit(),
		Timestamp: now,
		Valid:     true,
	}

	if calibrated < s.minValid || calibrated > s.maxValid {
		reading.Valid = false
		reading.Error = fmt.Sprintf("value %.2f out of range [%.2f, %.2f]", calibrated, s.minValid, s.maxValid)
	}

	s.lastReading = &reading
	return reading
}

// Calibrate sets the calibration offset so the current raw value maps to
// the given reference value (simple offset calibration).
//
// Returns:
//   - error: Wrapped ErrReadFailed if the raw read fails
func (s *Sensor) Calibrate(reference float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.driver.ReadRaw()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadFailed, err)
	}
	s.calibrationOffset = reference - raw
	return nil
}

// LastReading returns a copy of the most recent reading, if any.
func (s *Sensor) LastReading() (Reading, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastReading == nil {
		return Reading{}, false
	}
	return *s.lastReading, true
}
