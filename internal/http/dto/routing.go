// Package dto holds the JSON request/response shapes of the HTTP API.
package dto

import "github.com/willysamz/ha-matrix-api/internal/domain/routing"

// OutputRouting is one output's current route with display names.
type OutputRouting struct {
	Output     int    `json:"output"`
	OutputName string `json:"output_name"`
	Input      int    `json:"input"`
	InputName  string `json:"input_name"`
}

// RoutingState is the GET /api/routing response: all 8 outputs plus the
// full name tables (keys serialize as strings, JSON objects demand it).
type RoutingState struct {
	Outputs     []OutputRouting `json:"outputs"`
	InputNames  map[int]string  `json:"input_names"`
	OutputNames map[int]string  `json:"output_names"`
}

// SetRoutingRequest is the POST /api/routing/output/:id body. The input is
// a number (1-8) or a configured input name.
type SetRoutingRequest struct {
	Input routing.Selector `json:"input"`
}

// SetRoutingResponse confirms a single route change.
type SetRoutingResponse struct {
	Output     int    `json:"output"`
	OutputName string `json:"output_name"`
	Input      int    `json:"input"`
	InputName  string `json:"input_name"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
}

// PresetRequest is the POST /api/routing/preset body: output→input
// mappings where both sides may be numbers or names. Key uniqueness is
// enforced by the JSON object itself.
type PresetRequest struct {
	Mappings map[string]routing.Selector `json:"mappings"`
}

// PresetEntryResult reports the outcome for one mapping key. Every key of
// the request appears exactly once in the response. Code is a stable
// machine-readable failure class; empty on success.
type PresetEntryResult struct {
	Key    string `json:"key"`
	Output int    `json:"output,omitempty"`
	Input  int    `json:"input,omitempty"`
	OK     bool   `json:"ok"`
	Code   string `json:"code,omitempty"`
	Error  string `json:"error,omitempty"`
}

// PresetResponse is the preset batch outcome. Success means every entry
// succeeded; Applied/Failed are the summary views the Home Assistant
// integration consumes.
type PresetResponse struct {
	Success bool                `json:"success"`
	Results []PresetEntryResult `json:"results"`
	Applied map[int]int         `json:"applied"`
	Failed  map[string]string   `json:"failed"`
}

// PortInfo is one input or output with its display name.
type PortInfo struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

// InputListResponse is the GET /api/inputs response. Names repeats just
// the display names in port order, for dropdown option lists.
type InputListResponse struct {
	Inputs []PortInfo `json:"inputs"`
	Names  []string   `json:"names"`
}

// OutputListResponse is the GET /api/outputs response.
type OutputListResponse struct {
	Outputs []PortInfo `json:"outputs"`
	Names   []string   `json:"names"`
}
