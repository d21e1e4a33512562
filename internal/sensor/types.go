package sensor

import "time"

// Category classifies what a sensor measures.
//
// The category is declared on the sensor, never inferred from its ID.
// Aggregation groups readings by this tag.
type Category string

// Sensor categories.
const (
	CategoryTemperature Category = "temperature"
	CategoryHumidity    Category = "humidity"
	CategoryFoodLevel   Category = "food_level"
	CategoryWaterLevel  Category = "water_level"
)

// AllCategories returns all known sensor categories.
func AllCategories() []Category {
	return []Category{
		CategoryTemperature,
		CategoryHumidity,
		CategoryFoodLevel,
		CategoryWaterLevel,
	}
}

// Valid reports whether the category is one of the known values.
func (c Category) Valid() bool {
	switch c {
	case CategoryTemperature, CategoryHumidity, CategoryFoodLevel, CategoryWaterLevel:
		return true
	default:
		return false
	}
}

// Reading is a single calibrated measurement from one sensor.
//
// Readings are immutable once created. Invalid readings carry an error
// message and are excluded from aggregation.
type Reading struct {
	SensorID  string    `json:"sensor_id"`
	Category  Category  `json:"category"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
	Timestamp time.Time `json:"timestamp"`
	Valid     bool      `json:"valid"`
	Error     string    `json:"error,omitempty"`
}
