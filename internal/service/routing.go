package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/willysamz/ha-matrix-api/internal/domain/routing"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// -----------------------------------------------------------------------------
// RoutingService
// -----------------------------------------------------------------------------
//
// Request-facing orchestration over the matrix client:
//   • joins routing state with the device's name tables into snapshots,
//   • resolves numeric-or-name selectors before any command is sent,
//   • fans a preset batch out into individual SW commands with per-entry
//     results (one entry's failure never aborts the others).
//
// Name tables are fetched fresh for every logical operation (the device is
// the source of truth; nothing is cached), but concurrent fetches are
// coalesced via singleflight so a burst of requests costs one device call.

// MatrixAPI is the slice of the matrix client the orchestrator consumes.
type MatrixAPI interface {
	SetRoute(ctx context.Context, output, input int) error
	Routes(ctx context.Context) ([routing.NumPorts]int, error)
	Names(ctx context.Context) (routing.NameTables, error)
}

// OutputRoute is one output's route enriched with display names.
type OutputRoute struct {
	Output     int
	OutputName string
	Input      int
	InputName  string
}

// Snapshot is the full routing state of the device at one point in time.
type Snapshot struct {
	Outputs [routing.NumPorts]OutputRoute
	Names   routing.NameTables
	// NamesFetched is false when the name fetch failed and generic
	// fallbacks were substituted. Routing state is the primary data;
	// missing names degrade the snapshot, they never fail it.
	NamesFetched bool
}

// RouteResult is the outcome of a single successful route change.
type RouteResult struct {
	Route      routing.Route
	OutputName string
	InputName  string
}

// PresetEntry is the outcome for one mapping key of a preset batch.
// Err is nil on success; Output/Input are zero when resolution failed.
type PresetEntry struct {
	Key    string
	Output int
	Input  int
	Err    error
}

// RoutingService composes the matrix client and selector resolution.
type RoutingService struct {
	log    *zap.Logger
	matrix MatrixAPI

	sg singleflight.Group
}

// NewRoutingService wires the orchestrator.
func NewRoutingService(log *zap.Logger, matrix MatrixAPI) *RoutingService {
	return &RoutingService{
		log:    log.Named("routing_service"),
		matrix: matrix,
	}
}

// names fetches one consistent snapshot of both name tables. Concurrent
// callers share a single in-flight device query.
func (s *RoutingService) names(ctx context.Context) (routing.NameTables, error) {
	v, err, _ := s.sg.Do("names", func() (any, error) {
		return s.matrix.Names(ctx)
	})
	if err != nil {
		return routing.NameTables{}, err
	}
	return v.(routing.NameTables), nil
}

// Snapshot reads the full routing state plus name tables.
//
// A routing-state failure fails the snapshot. A name-table failure does
// not: generic names are substituted and NamesFetched reports the degrade.
func (s *RoutingService) Snapshot(ctx context.Context) (Snapshot, error) {
	routes, err := s.matrix.Routes(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read routing state: %w", err)
	}

	snap := Snapshot{NamesFetched: true}
	snap.Names, err = s.names(ctx)
	if err != nil {
		s.log.Warn("name fetch failed, using generic names", zap.Error(err))
		snap.NamesFetched = false
		snap.Names = routing.NameTables{} // all blank, DisplayName falls back
	}

	for i := 0; i < routing.NumPorts; i++ {
		output := i + 1
		input := routes[i]
		snap.Outputs[i] = OutputRoute{
			Output:     output,
			OutputName: routing.DisplayName(routing.KindOutput, output, snap.Names.Outputs),
			Input:      input,
			InputName:  routing.DisplayName(routing.KindInput, input, snap.Names.Inputs),
		}
	}

	return snap, nil
}

// OutputRoute resolves an output selector and returns that output's route.
func (s *RoutingService) OutputRoute(ctx context.Context, outputSel routing.Selector) (OutputRoute, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return OutputRoute{}, err
	}

	output, err := routing.Resolve(outputSel, routing.KindOutput, snap.Names.Outputs)
	if err != nil {
		return OutputRoute{}, err
	}

	return snap.Outputs[output-1], nil
}

// SetRoute resolves both selectors against a freshly fetched name snapshot,
// then issues the switch command. Resolution errors and device errors keep
// their distinct classes so the HTTP layer can map them separately.
//
// When both selectors are numeric no table is needed for resolution; a
// failed name fetch then only costs the display names in the result.
func (s *RoutingService) SetRoute(ctx context.Context, outputSel, inputSel routing.Selector) (RouteResult, error) {
	tables, err := s.names(ctx)
	if err != nil {
		if !outputSel.IsID() || !inputSel.IsID() {
			return RouteResult{}, fmt.Errorf("fetch name tables: %w", err)
		}
		s.log.Warn("name fetch failed, using generic names", zap.Error(err))
		tables = routing.NameTables{}
	}

	output, err := routing.Resolve(outputSel, routing.KindOutput, tables.Outputs)
	if err != nil {
		return RouteResult{}, err
	}
	input, err := routing.Resolve(inputSel, routing.KindInput, tables.Inputs)
	if err != nil {
		return RouteResult{}, err
	}

	if err := s.matrix.SetRoute(ctx, output, input); err != nil {
		return RouteResult{}, err
	}

	return RouteResult{
		Route:      routing.Route{Output: output, Input: input},
		OutputName: routing.DisplayName(routing.KindOutput, output, tables.Outputs),
		InputName:  routing.DisplayName(routing.KindInput, input, tables.Inputs),
	}, nil
}

// ApplyPreset applies a batch of output→input mappings in two strict phases:
//
//  1. Resolve every entry against one name snapshot, collecting resolution
//     failures. No command is sent during this phase.
//  2. Send commands for the resolved entries only, each independently; a
//     device failure on one entry does not abort the rest.
//
// The returned slice has exactly one entry per mapping key, ordered by key.
// The call itself errors only when the name-table fetch fails — with no
// tables, no selector can be resolved.
func (s *RoutingService) ApplyPreset(ctx context.Context, mappings map[string]routing.Selector) ([]PresetEntry, error) {
	tables, err := s.names(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch name tables: %w", err)
	}

	keys := make([]string, 0, len(mappings))
	for key := range mappings {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	// Phase 1: resolve everything, side-effect free.
	entries := make([]PresetEntry, 0, len(keys))
	for _, key := range keys {
		entry := PresetEntry{Key: key}

		output, err := routing.Resolve(routing.ParseSelector(key), routing.KindOutput, tables.Outputs)
		if err != nil {
			entry.Err = err
			entries = append(entries, entry)
			continue
		}
		input, err := routing.Resolve(mappings[key], routing.KindInput, tables.Inputs)
		if err != nil {
			entry.Err = err
			entries = append(entries, entry)
			continue
		}

		entry.Output = output
		entry.Input = input
		entries = append(entries, entry)
	}

	// Phase 2: execute resolved entries.
	for i := range entries {
		if entries[i].Err != nil {
			continue
		}
		if err := s.matrix.SetRoute(ctx, entries[i].Output, entries[i].Input); err != nil {
			entries[i].Err = err
			s.log.Warn("preset entry failed",
				zap.String("key", entries[i].Key),
				zap.Int("output", entries[i].Output),
				zap.Int("input", entries[i].Input),
				zap.Error(err))
		}
	}

	return entries, nil
}

// PortNames lists the display names for one kind, generic fallbacks applied.
// Used by the /api/inputs and /api/outputs dropdown-helper endpoints.
func (s *RoutingService) PortNames(ctx context.Context, kind routing.Kind) ([routing.NumPorts]string, error) {
	var names [routing.NumPorts]string

	tables, err := s.names(ctx)
	if err != nil {
		return names, fmt.Errorf("fetch name tables: %w", err)
	}

	table := tables.ByKind(kind)
	for id := 1; id <= routing.NumPorts; id++ {
		names[id-1] = routing.DisplayName(kind, id, table)
	}
	return names, nil
}
