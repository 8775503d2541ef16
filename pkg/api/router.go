// Package api serves the host monitor's HTTP surface: window statistics,
// recent samples, and setpoint updates forwarded to the controller.
package api

import (
	"github.com/gorilla/mux"

	"github.com/itohio/gofan/pkg/meter"
	"github.com/itohio/gofan/pkg/sample"
)

// StatsSource is the read side of a temperature meter.
type StatsSource interface {
	Stats() meter.Stats
	Samples() []sample.Sample
}

// TargetSetter sends a new setpoint to the controller.
type TargetSetter interface {
	SetTarget(celsius uint8) error
}

// NewRouter wires the monitor endpoints.
func NewRouter(stats StatsSource, target TargetSetter) *mux.Router {
	h := &handler{stats: stats, target: target}

	r := mux.NewRouter()
	r.HandleFunc("/health", healthHandler).Methods("GET")
	r.HandleFunc("/stats", h.getStats).Methods("GET")
	r.HandleFunc("/samples", h.getSamples).Methods("GET")
	r.HandleFunc("/setpoint", h.putSetpoint).Methods("PUT", "POST")
	r.HandleFunc("/setpoint/{celsius:[0-9]+}", h.putSetpoint).Methods("PUT", "POST")

	return r
}
