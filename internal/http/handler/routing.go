package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/willysamz/ha-matrix-api/internal/domain/routing"
	"github.com/willysamz/ha-matrix-api/internal/http/dto"
	"github.com/willysamz/ha-matrix-api/internal/service"
	"go.uber.org/zap"
)

// RoutingHandler provides the RESTful HTTP handlers for matrix routing.
//
// Supported operations:
//   - GET  /api/routing             → full routing state with names
//   - GET  /api/routing/output/:id  → one output's route (id = number or name)
//   - POST /api/routing/output/:id  → route an input to one output
//   - POST /api/routing/preset      → apply a batch of routings
//   - GET  /api/inputs              → input names (dropdown helper)
//   - GET  /api/outputs             → output names (dropdown helper)
type RoutingHandler struct {
	log *zap.Logger
	svc *service.RoutingService
}

// NewRoutingHandler constructs a RoutingHandler instance.
func NewRoutingHandler(log *zap.Logger, svc *service.RoutingService) *RoutingHandler {
	return &RoutingHandler{
		log: log.Named("routing"),
		svc: svc,
	}
}

// GetRouting handles GET /api/routing.
//
// Status Codes:
//   - 200 OK → current routing state for all 8 outputs, with name tables
//   - 502/503 → device answered garbage / device unreachable
func (h *RoutingHandler) GetRouting(c *gin.Context) {
	snap, err := h.svc.Snapshot(c.Request.Context())
	if err != nil {
		c.Error(err)
		c.JSON(statusForError(err), gin.H{"error": errorCode(err), "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, snapshotToDTO(snap))
}

// GetOutputRouting handles GET /api/routing/output/:id.
//
// The :id segment accepts a number (1-8) or a configured output name.
//
// Status Codes:
//   - 200 OK  → route for the requested output
//   - 400 Bad Request → unknown/ambiguous name, id out of range
//   - 502/503 → device failures
func (h *RoutingHandler) GetOutputRouting(c *gin.Context) {
	sel := routing.ParseSelector(c.Param("id"))

	route, err := h.svc.OutputRoute(c.Request.Context(), sel)
	if err != nil {
		c.Error(err)
		c.JSON(statusForError(err), gin.H{"error": errorCode(err), "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.OutputRouting{
		Output:     route.Output,
		OutputName: route.OutputName,
		Input:      route.Input,
		InputName:  route.InputName,
	})
}

// SetOutputRouting handles POST /api/routing/output/:id.
//
// Both the :id segment and the body's input accept a number or a name.
//
// Status Codes:
//   - 200 OK → routing confirmation with resolved ids and names
//   - 400 Bad Request → invalid JSON, resolution or validation failure
//   - 502/503 → device failures
func (h *RoutingHandler) SetOutputRouting(c *gin.Context) {
	var req dto.SetRoutingRequest
	if err := bind(c.Request, &req); err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
		return
	}

	outputSel := routing.ParseSelector(c.Param("id"))

	res, err := h.svc.SetRoute(c.Request.Context(), outputSel, req.Input)
	if err != nil {
		c.Error(err)
		c.JSON(statusForError(err), gin.H{"error": errorCode(err), "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.SetRoutingResponse{
		Output:     res.Route.Output,
		OutputName: res.OutputName,
		Input:      res.Route.Input,
		InputName:  res.InputName,
		Success:    true,
		Message:    fmt.Sprintf("Routed %s to %s", res.InputName, res.OutputName),
	})
}

// ApplyPreset handles POST /api/routing/preset.
//
// Resolution happens for every entry before any command is sent; entries
// that fail resolution or execution are reported individually and never
// abort the rest of the batch.
//
// Status Codes:
//   - 200 OK → per-entry results (also when some or all entries failed)
//   - 400 Bad Request → invalid JSON or empty mappings
//   - 502/503 → the name-table fetch itself failed, nothing was resolved
func (h *RoutingHandler) ApplyPreset(c *gin.Context) {
	var req dto.PresetRequest
	if err := bind(c.Request, &req); err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
		return
	}
	if len(req.Mappings) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": "mappings must not be empty"})
		return
	}

	entries, err := h.svc.ApplyPreset(c.Request.Context(), req.Mappings)
	if err != nil {
		c.Error(err)
		c.JSON(statusForError(err), gin.H{"error": errorCode(err), "message": err.Error()})
		return
	}

	res := dto.PresetResponse{
		Success: true,
		Results: make([]dto.PresetEntryResult, 0, len(entries)),
		Applied: make(map[int]int),
		Failed:  make(map[string]string),
	}
	for _, e := range entries {
		r := dto.PresetEntryResult{Key: e.Key, Output: e.Output, Input: e.Input, OK: e.Err == nil}
		if e.Err != nil {
			r.Code = errorCode(e.Err)
			r.Error = e.Err.Error()
			res.Success = false
			res.Failed[e.Key] = e.Err.Error()
		} else {
			res.Applied[e.Output] = e.Input
		}
		res.Results = append(res.Results, r)
	}

	c.JSON(http.StatusOK, res)
}

// GetInputs handles GET /api/inputs.
func (h *RoutingHandler) GetInputs(c *gin.Context) {
	names, err := h.svc.PortNames(c.Request.Context(), routing.KindInput)
	if err != nil {
		c.Error(err)
		c.JSON(statusForError(err), gin.H{"error": errorCode(err), "message": err.Error()})
		return
	}

	res := dto.InputListResponse{Names: names[:]}
	for i, name := range names {
		res.Inputs = append(res.Inputs, dto.PortInfo{Number: i + 1, Name: name})
	}
	c.JSON(http.StatusOK, res)
}

// GetOutputs handles GET /api/outputs.
func (h *RoutingHandler) GetOutputs(c *gin.Context) {
	names, err := h.svc.PortNames(c.Request.Context(), routing.KindOutput)
	if err != nil {
		c.Error(err)
		c.JSON(statusForError(err), gin.H{"error": errorCode(err), "message": err.Error()})
		return
	}

	res := dto.OutputListResponse{Names: names[:]}
	for i, name := range names {
		res.Outputs = append(res.Outputs, dto.PortInfo{Number: i + 1, Name: name})
	}
	c.JSON(http.StatusOK, res)
}

// snapshotToDTO flattens a service snapshot into the wire shape.
func snapshotToDTO(snap service.Snapshot) dto.RoutingState {
	state := dto.RoutingState{
		InputNames:  make(map[int]string, routing.NumPorts),
		OutputNames: make(map[int]string, routing.NumPorts),
	}
	for _, out := range snap.Outputs {
		state.Outputs = append(state.Outputs, dto.OutputRouting{
			Output:     out.Output,
			OutputName: out.OutputName,
			Input:      out.Input,
			InputName:  out.InputName,
		})
	}
	for id := 1; id <= routing.NumPorts; id++ {
		state.InputNames[id] = routing.DisplayName(routing.KindInput, id, snap.Names.Inputs)
		state.OutputNames[id] = routing.DisplayName(routing.KindOutput, id, snap.Names.Outputs)
	}
	return state
}
