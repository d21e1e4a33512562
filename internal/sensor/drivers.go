package sensor

import (
	"math/rand"
	"sync"
)

// Simulated drivers standing in for real habitat hardware. Each produces
// plausible values; supply-level drivers decay over time and support
// refilling, mirroring a physical hopper or reservoir.

// TemperatureDriver simulates an enclosure temperature probe.
type TemperatureDriver struct {
	// Baseline is the centre of the simulated range (°C).
	Baseline float64
}

// ReadRaw returns the baseline temperature with ±1°C of jitter.
func (d *TemperatureDriver) ReadRaw() (float64, error) {
	return d.Baseline + (rand.Float64()*2 - 1), nil
}

// Unit returns the temperature unit.
func (d *TemperatureDriver) Unit() string { return "°C" }

// HumidityDriver simulates a relative humidity probe.
type HumidityDriver struct {
	// Baseline is the centre of the simulated range (%).
	Baseline float64
}

// ReadRaw returns the baseline humidity with ±5% of jitter.
func (d *HumidityDriver) ReadRaw() (float64, error) {
	return d.Baseline + (rand.Float64()*10 - 5), nil
}

// Unit returns the humidity unit.
func (d *HumidityDriver) Unit() string { return "%" }

// LevelDriver simulates a supply-level sensor (food hopper, water
// reservoir). The level decays by up to MaxDecay per read and can be
// refilled to capacity.
type LevelDriver struct {
	mu       sync.Mutex
	level    float64
	capacity float64

	// MaxDecay is the largest drop per read (% of capacity).
	MaxDecay float64
}

// NewLevelDriver creates a level driver starting at full capacity.
func NewLevelDriver(capacity, maxDecay float64) *LevelDriver {
	return &LevelDriver{
		level:    capacity,
		capacity: capacity,
		MaxDecay: maxDecay,
	}
}

// ReadRaw returns the current level after applying decay.
func (d *LevelDriver) ReadRaw() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.level -= rand.Float64() * d.MaxDecay
	if d.level < 0 {
		d.level = 0
	}
	return d.level, nil
}

// Unit returns the level unit.
func (d *LevelDriver) Unit() string { return "%" }

// Refill restores the level to full capacity.
func (d *LevelDriver) Refill() {
	d.mu.Lock()
	d.level = d.capacity
	d.mu.Unlock()
}

// Level returns the current level without applying decay.
func (d *LevelDriver) Level() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.level
}
