package telemetry

import "time"

// Metric keys produced by the aggregator.
const (
	MetricTemperatureAvg = "temperature_avg"
	MetricTemperatureMin = "temperature_min"
	MetricTemperatureMax = "temperature_max"
	MetricHumidityAvg    = "humidity_avg"
	MetricFoodLevel      = "food_level"
	MetricWaterLevel     = "water_level"
)

// Flag keys produced by the aggregator.
const (
	FlagTemperatureInRange = "temperature_in_range"
	FlagHumidityInRange    = "humidity_in_range"
	FlagFoodLow            = "food_low"
	FlagWaterLow           = "water_low"
)

// Metrics is an immutable snapshot of derived telemetry for one
// aggregation cycle.
//
// Categories with zero valid readings contribute no keys at all: an
// absent key means "no data this cycle", not zero. Consumers (the rule
// engine) must treat absence as such.
type Metrics struct {
	Values    map[string]float64 `json:"values"`
	Flags     map[string]bool    `json:"flags"`
	Timestamp time.Time          `json:"timestamp"`
}

// Value returns a numeric metric and whether it was present this cycle.
func (m Metrics) Value(key string) (float64, bool) {
	v, ok := m.Values[key]
	return v, ok
}

// Flag returns a boolean flag and whether it was present this cycle.
func (m Metrics) Flag(key string) (bool, bool) {
	v, ok := m.Flags[key]
	return v, ok
}

// Lookup resolves a key against values first, then flags.
//
// Returns:
//   - any: float64 for values, bool for flags
//   - bool: Whether the key was present
func (m Metrics) Lookup(key string) (any, bool) {
	if v, ok := m.Values[key]; ok {
		return v, true
	}
	if f, ok := m.Flags[key]; ok {
		return f, true
	}
	return nil, false
}

// Thresholds supplies the externally configured ranges and floors used
// to compute range-membership flags.
type Thresholds struct {
	TemperatureMin float64
	TemperatureMax float64
	HumidityMin    float64
	HumidityMax    float64
	FoodThreshold  float64
	WaterThreshold float64
}
