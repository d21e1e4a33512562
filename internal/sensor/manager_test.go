package sensor

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// stubDriver returns a fixed value or error.
type stubDriver struct {
	value float64
	err   error
	unit  string
}

func (d *stubDriver) ReadRaw() (float64, error) { return d.value, d.err }
func (d *stubDriver) Unit() string              { return d.unit }

func mustSensor(t *testing.T, id string, category Category, driver Driver) *Sensor {
	t.Helper()
	s, err := NewSensor(id, id, category, driver)
	if err != nil {
		t.Fatalf("NewSensor(%q) error = %v", id, err)
	}
	return s
}

func TestNewSensor_InvalidCategory(t *testing.T) {
	_, err := NewSensor("x", "x", Category("pressure"), &stubDriver{})
	if !errors.Is(err, ErrInvalidCategory) {
		t.Errorf("NewSensor() error = %v, want ErrInvalidCategory", err)
	}
}

func TestRead_AppliesCalibration(t *testing.T) {
	driver := &stubDriver{value: 20.0, unit: "°C"}
	s := mustSensor(t, "temp-01", CategoryTemperature, driver)

	// Calibrate against a reference of 22.0: offset becomes +2.0
	if err := s.Calibrate(22.0); err != nil {
		t.Fatalf("Calibrate() error = %v", err)
	}

	reading := s.Read()
	if !reading.Valid {
		t.Fatalf("reading invalid: %s", reading.Error)
	}
	if reading.Value != 22.0 {
		t.Errorf("calibrated value = %v, want 22.0", reading.Value)
	}
	if reading.Category != CategoryTemperature {
		t.Errorf("category = %q, want temperature", reading.Category)
	}
}

func TestRead_OutOfRangeMarkedInvalid(t *testing.T) {
	driver := &stubDriver{value: 75.0, unit: "°C"}
	s := mustSensor(t, "temp-01", CategoryTemperature, driver)
	s.SetValidRange(-10.0, 50.0)

	reading := s.Read()
	if reading.Valid {
		t.Error("out-of-range reading marked valid")
	}
	if reading.Error == "" {
		t.Error("invalid reading missing error message")
	}
}

func TestRead_DriverFailure(t *testing.T) {
	driver := &stubDriver{err: errors.New("bus fault"), unit: "%"}
	s := mustSensor(t, "humid-01", CategoryHumidity, driver)

	reading := s.Read()
	if reading.Valid {
		t.Error("failed read marked valid")
	}
	if reading.Error == "" {
		t.Error("failed read missing error message")
	}
}

func TestManager_AddRemoveGet(t *testing.T) {
	m := NewManager()
	s := mustSensor(t, "temp-01", CategoryTemperature, &stubDriver{value: 22, unit: "°C"})

	if err := m.Add(s); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := m.Add(s); !errors.Is(err, ErrSensorExists) {
		t.Errorf("duplicate Add() error = %v, want ErrSensorExists", err)
	}

	got, err := m.Get("temp-01")
	if err != nil || got.ID != "temp-01" {
		t.Errorf("Get() = %v, %v", got, err)
	}

	if err := m.Remove("temp-01"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := m.Remove("temp-01"); !errors.Is(err, ErrSensorNotFound) {
		t.Errorf("second Remove() error = %v, want ErrSensorNotFound", err)
	}
}

func TestManager_ReadAll(t *testing.T) {
	m := NewManager()
	_ = m.Add(mustSensor(t, "temp-01", CategoryTemperature, &stubDriver{value: 22, unit: "°C"}))
	_ = m.Add(mustSensor(t, "humid-01", CategoryHumidity, &stubDriver{err: errors.New("fault"), unit: "%"}))

	readings := m.ReadAll(context.Background())
	if len(readings) != 2 {
		t.Fatalf("ReadAll() returned %d readings, want 2", len(readings))
	}
	if !readings["temp-01"].Valid {
		t.Error("healthy sensor reading marked invalid")
	}
	if readings["humid-01"].Valid {
		t.Error("faulty sensor reading marked valid")
	}
}

func TestManager_CalibrateAll(t *testing.T) {
	m := NewManager()
	_ = m.Add(mustSensor(t, "temp-01", CategoryTemperature, &stubDriver{value: 20, unit: "°C"}))
	_ = m.Add(mustSensor(t, "food-01", CategoryFoodLevel, NewLevelDriver(100, 0)))

	results := m.CalibrateAll(map[Category]float64{
		CategoryTemperature: 22.0,
		// food_level deliberately omitted
	})

	if !results["temp-01"] {
		t.Error("temperature calibration failed")
	}
	if results["food-01"] {
		t.Error("food calibration succeeded without a reference")
	}
}

func TestManager_ConcurrentReadAndCalibrate(t *testing.T) {
	// A calibration request arriving while the scheduled sweep is reading
	// must not race the sensor's calibration or last-reading state. Run
	// under the race detector this exercises both write paths.
	m := NewManager()
	_ = m.Add(mustSensor(t, "temp-01", CategoryTemperature, &stubDriver{value: 20, unit: "°C"}))
	_ = m.Add(mustSensor(t, "humid-01", CategoryHumidity, &stubDriver{value: 55, unit: "%"}))

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			m.ReadAll(context.Background())
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if err := m.Calibrate("temp-01", 22.0); err != nil {
				t.Errorf("Calibrate() error = %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			m.CalibrateAll(map[Category]float64{CategoryHumidity: 60.0})
		}
	}()

	wg.Wait()

	// Calibration must have landed: offset +2 on a raw 20 reads as 22.
	readings := m.ReadAll(context.Background())
	if got := readings["temp-01"].Value; got != 22.0 {
		t.Errorf("calibrated value = %v, want 22.0", got)
	}
}

func TestLevelDriver_DecayAndRefill(t *testing.T) {
	d := NewLevelDriver(100, 0.5)

	// Levels only go down between refills
	prev := 100.0
	for i := 0; i < 50; i++ {
		v, err := d.ReadRaw()
		if err != nil {
			t.Fatalf("ReadRaw() error = %v", err)
		}
		if v > prev {
			t.Fatalf("level rose from %v to %v without refill", prev, v)
		}
		prev = v
	}

	d.Refill()
	if d.Level() != 100 {
		t.Errorf("Level() after refill = %v, want 100", d.Level())
	}
}
