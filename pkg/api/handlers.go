package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
)

type handler struct {
	stats  StatsSource
	target TargetSetter
}

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	Last  float64 `json:"last"`
	Slope float64 `json:"slopePerMinute"`
}

// SampleResponse is one element of GET /samples.
type SampleResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Celsius   float64   `json:"celsius"`
}

// SetpointRequest is the body of PUT /setpoint.
type SetpointRequest struct {
	Celsius int `json:"celsius"`
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) getStats(w http.ResponseWriter, _ *http.Request) {
	st := h.stats.Stats()
	writeJSON(w, http.StatusOK, StatsResponse{
		Count: st.Count,
		Min:   st.Min,
		Max:   st.Max,
		Mean:  st.Mean,
		Last:  st.Last,
		Slope: st.Slope,
	})
}

func (h *handler) getSamples(w http.ResponseWriter, _ *http.Request) {
	samples := h.stats.Samples()
	resp := make([]SampleResponse, 0, len(samples))
	for _, s := range samples {
		resp = append(resp, SampleResponse{Timestamp: s.Timestamp, Celsius: s.Celsius})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) putSetpoint(w http.ResponseWriter, r *http.Request) {
	var celsius int
	if v, ok := mux.Vars(r)["celsius"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid setpoint %q", v))
			return
		}
		celsius = n
	} else {
		var req SetpointRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
		celsius = req.Celsius
	}

	// The controller receives one raw byte
	if celsius < 0 || celsius > 255 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("setpoint %d out of range 0-255", celsius))
		return
	}

	if err := h.target.SetTarget(uint8(celsius)); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	writeJSON(w, http.StatusOK, SetpointRequest{Celsius: celsius})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
