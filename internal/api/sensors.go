package api

import (
	"encoding/json"
	"net/http"

	"github.com/habitatworks/habitat-core/internal/sensor"
)

// calibrateRequest carries reference values per sensor category.
type calibrateRequest struct {
	References map[string]float64 `json:"references"`
}

// handleCalibrateSensors applies offset calibration to every sensor
// whose category has a reference value.
//
// POST /sensors/calibrate
// Body: {"references": {"temperature": 25.0, "humidity": 60.0}}
// Response: {"results": {"temp-1": true, ...}}
func (s *Server) handleCalibrateSensors(w http.ResponseWriter, r *http.Request) {
	var req calibrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if len(req.References) == 0 {
		writeBadRequest(w, "at least one reference is required")
		return
	}

	references := make(map[sensor.Category]float64, len(req.References))
	for key, value := range req.References {
		cat := sensor.Category(key)
		if !cat.Valid() {
			writeBadRequest(w, "unknown sensor category: "+key)
			return
		}
		references[cat] = value
	}

	results := s.controller.CalibrateSensors(references)
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}
