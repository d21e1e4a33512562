package telemetry

import (
	"sync"
	"time"

	"github.com/habitatworks/habitat-core/internal/sensor"
)

// maxHistoryPerSensor bounds the rolling per-sensor reading history.
// Oldest entries are dropped first.
const maxHistoryPerSensor = 1000

// Aggregator turns raw sensor readings into a derived Metrics snapshot
// and maintains a bounded rolling history per sensor.
//
// Thread Safety:
//   - All public methods are safe for concurrent use.
type Aggregator struct {
	thresholds Thresholds

	mu      sync.Mutex
	history map[string][]sensor.Reading
}

// NewAggregator creates an aggregator with the given flag thresholds.
func NewAggregator(thresholds Thresholds) *Aggregator {
	return &Aggregator{
		thresholds: thresholds,
		history:    make(map[string][]sensor.Reading),
	}
}

// Aggregate records the readings into history and computes a fresh
// Metrics snapshot.
//
// Readings are grouped by their declared category. Invalid readings are
// recorded in history but excluded from statistics. A category with no
// valid readings contributes no metric keys and no flags.
//
// Parameters:
//   - readings: Current sweep, keyed by sensor ID
//
// Returns:
//   - Metrics: Immutable snapshot for this cycle
func (a *Aggregator) Aggregate(readings map[string]sensor.Reading) Metrics {
	a.recordHistory(readings)

	byCategory := make(map[sensor.Category][]float64)
	for _, r := range readings {
		if !r.Valid {
			continue
		}
		byCategory[r.Category] = append(byCategory[r.Category], r.Value)
	}

	metrics := Metrics{
		Values:    make(map[string]float64),
		Flags:     make(map[string]bool),
		Timestamp: time.Now().UTC(),
	}

	if temps, ok := byCategory[sensor.CategoryTemperature]; ok {
		avg, minV, maxV := stats(temps)
		metrics.Values[MetricTemperatureAvg] = avg
		metrics.Values[MetricTemperatureMin] = minV
		metrics.Values[MetricTemperatureMax] = maxV
		metrics.Flags[FlagTemperatureInRange] = avg >= a.thresholds.TemperatureMin && avg <= a.thresholds.TemperatureMax
	}

	if humids, ok := byCategory[sensor.CategoryHumidity]; ok {
		avg, _, _ := stats(humids)
		metrics.Values[MetricHumidityAvg] = avg
		metrics.Flags[FlagHumidityInRange] = avg >= a.thresholds.HumidityMin && avg <= a.thresholds.HumidityMax
	}

	if foods, ok := byCategory[sensor.CategoryFoodLevel]; ok {
		avg, _, _ := stats(foods)
		metrics.Values[MetricFoodLevel] = avg
		metrics.Flags[FlagFoodLow] = avg < a.thresholds.FoodThreshold
	}

	if waters, ok := byCategory[sensor.CategoryWaterLevel]; ok {
		avg, _, _ := stats(waters)
		metrics.Values[MetricWaterLevel] = avg
		metrics.Flags[FlagWaterLow] = avg < a.thresholds.WaterThreshold
	}

	return metrics
}

// recordHistory appends readings to the per-sensor rolling history,
// dropping the oldest entries beyond the bound.
func (a *Aggregator) recordHistory(readings map[string]sensor.Reading) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for id, r := range readings {
		h := append(a.history[id], r)
		if len(h) > maxHistoryPerSensor {
			h = h[len(h)-maxHistoryPerSensor:]
		}
		a.history[id] = h
	}
}

// History returns a copy of the rolling history for one sensor.
func (a *Aggregator) History(sensorID string) []sensor.Reading {
	a.mu.Lock()
	defer a.mu.Unlock()

	h := a.history[sensorID]
	cpy := make([]sensor.Reading, len(h))
	copy(cpy, h)
	return cpy
}

// HistoryLen returns the number of stored readings for one sensor.
func (a *Aggregator) HistoryLen(sensorID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.history[sensorID])
}

// stats computes average, minimum, and maximum of a non-empty slice.
func stats(values []float64) (avg, minV, maxV float64) {
	minV = values[0]
	maxV = values[0]
	var sum float64
	for _, v := range values {
		sum += v
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	return sum / float64(len(values)), minV, maxV
}
