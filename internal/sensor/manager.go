package sensor

import (
	"context"
	"sync"
)

// Logger defines the logging interface used by the Manager.
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

// Manager holds the sensor fleet and provides the read-all sweep the
// telemetry aggregator consumes.
//
// Thread Safety:
//   - All public methods are safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	sensors map[string]*Sensor
	logger  Logger
}

// NewManager creates an empty sensor manager.
func NewManager() *Manager {
	return &Manager{
		sensors: make(map[string]*Sensor),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the manager.
func (m *Manager) SetLogger(logger Logger) {
	m.logger = logger
}

// Add registers a sensor.
//
// Returns:
//   - error: ErrSensorExists if the ID is already registered
func (m *Manager) Add(s *Sensor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sensors[s.ID]; ok {
		return ErrSensorExists
	}
	m.sensors[s.ID] = s
	m.logger.Info("sensor added", "id", s.ID, "name", s.Name, "category", s.Category)
	return nil
}

// Remove unregisters a sensor by ID.
//
// Returns:
//   - error: ErrSensorNotFound if the ID is not registered
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sensors[id]; !ok {
		return ErrSensorNotFound
	}
	delete(m.sensors, id)
	m.logger.Info("sensor removed", "id", id)
	return nil
}

// Get returns a sensor by ID.
func (m *Manager) Get(id string) (*Sensor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sensors[id]
	if !ok {
		return nil, ErrSensorNotFound
	}
	return s, nil
}

// Count returns the number of registered sensors.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sensors)
}

// ReadAll reads every registered sensor and returns the readings keyed
// by sensor ID. Individual sensor failures produce invalid readings
// rather than aborting the sweep.
func (m *Manager) ReadAll(ctx context.Context) map[string]Reading {
	m.mu.RLock()
	defer m.mu.RUnlock()

	readings := make(map[string]Reading, len(m.sensors))
	for id, s := range m.sensors {
		select {
		case <-ctx.Done():
			return readings
		default:
		}

		reading := s.Read()
		if !reading.Valid {
			m.logger.Warn("invalid sensor reading", "id", id, "error", reading.Error)
		}
		readings[id] = reading
	}
	return readings
}

// Calibrate calibrates a single sensor against a reference value.
//
// Returns:
//   - error: ErrSensorNotFound, or the sensor's calibration error
func (m *Manager) Calibrate(id string, reference float64) error {
	m.mu.RLock()
	s, ok := m.sensors[id]
	m.mu.RUnlock()
	if !ok {
		return ErrSensorNotFound
	}
	if err := s.Calibrate(reference); err != nil {
		m.logger.Error("calibration failed", "id", id, "error", err)
		return err
	}
	m.logger.Info("sensor calibrated", "id", id, "reference", reference)
	return nil
}

// CalibrateAll calibrates every sensor against per-category reference
// values. Categories missing from the map are skipped.
//
// Returns:
//   - map[string]bool: Calibration success per sensor ID
func (m *Manager) CalibrateAll(references map[Category]float64) map[string]bool {
	m.mu.RLock()
	sensors := make([]*Sensor, 0, len(m.sensors))
	for _, s := range m.sensors {
		sensors = append(sensors, s)
	}
	m.mu.RUnlock()

	results := make(map[string]bool, len(sensors))
	for _, s := range sensors {
		ref, ok := references[s.Category]
		if !ok {
			m.logger.Warn("no calibration reference for category", "id", s.ID, "category", s.Category)
			results[s.ID] = false
			continue
		}
		results[s.ID] = s.Calibrate(ref) == nil
	}
	return results
}
