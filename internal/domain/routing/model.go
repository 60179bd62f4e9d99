// Package routing holds the matrix routing domain model: ports, routes,
// name tables and selector resolution. It is a leaf package with no I/O;
// name tables are fetched elsewhere and handed in.
package routing

import "fmt"

// NumPorts is the port count on both sides of the matrix (8x8 device).
const NumPorts = 8

// Kind tells whether a port id or name refers to an input or an output.
type Kind string

const (
	KindInput  Kind = "input"
	KindOutput Kind = "output"
)

// Route is one output→input assignment. Both ends are 1-based ids in [1,8].
type Route struct {
	Output int `json:"output"`
	Input  int `json:"input"`
}

// NameTable holds the user-configured names for all 8 ports of one kind,
// indexed by id-1. Unset names are empty strings; callers substitute
// generic fallbacks where a display name is required.
type NameTable [NumPorts]string

// Name returns the configured name for id, or "" when unset.
// id must be in [1,8].
func (t NameTable) Name(id int) string { return t[id-1] }

// NameTables is one consistent snapshot of both name tables, taken from a
// single device query so every resolution within a batch sees the same data.
type NameTables struct {
	Inputs  NameTable
	Outputs NameTable
}

// ByKind returns the table for the given kind.
func (t NameTables) ByKind(kind Kind) NameTable {
	if kind == KindInput {
		return t.Inputs
	}
	return t.Outputs
}

// GenericName is the fallback display name for an unnamed port:
// "HDMI {id}" for inputs, "Output {id}" for outputs.
func GenericName(kind Kind, id int) string {
	if kind == KindInput {
		return fmt.Sprintf("HDMI %d", id)
	}
	return fmt.Sprintf("Output %d", id)
}

// DisplayName returns the configured name for id, falling back to the
// generic name when the table entry is blank.
func DisplayName(kind Kind, id int, table NameTable) string {
	if name := table.Name(id); name != "" {
		return name
	}
	return GenericName(kind, id)
}
