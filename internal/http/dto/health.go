package dto

import "time"

// HealthResponse is the readiness probe body.
type HealthResponse struct {
	Status          string     `json:"status"` // "ok" | "degraded" | "error"
	MatrixConnected bool       `json:"matrix_connected"`
	LastHealthCheck *time.Time `json:"last_health_check"`
	LastError       string     `json:"last_error,omitempty"`
	UptimeSeconds   float64    `json:"uptime_seconds"`
}

// MatrixStatus is the GET /api/status response: raw connection bookkeeping
// from the matrix client plus the monitor's reachability view.
type MatrixStatus struct {
	Connection    string     `json:"connection"` // "connected" | "disconnected" | "error"
	Reachable     bool       `json:"reachable"`
	URL           string     `json:"url"`
	LastCommand   *time.Time `json:"last_command"`
	LastResponse  string     `json:"last_response,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
	UptimeSeconds float64    `json:"uptime_seconds"`
}
