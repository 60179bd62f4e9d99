package routing

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrOutOfRange signals a numeric id outside [1,8].
	ErrOutOfRange = errors.New("port number out of range")
	// ErrNameNotFound signals a name selector with no matching table entry.
	ErrNameNotFound = errors.New("name not found")
	// ErrAmbiguousName signals a name configured on more than one port.
	// The device does not enforce name uniqueness, so this must be checked
	// rather than silently picking the first match.
	ErrAmbiguousName = errors.New("ambiguous name")
)

// ValidateID enforces the [1,8] port range.
func ValidateID(kind Kind, id int) error {
	if id < 1 || id > NumPorts {
		return fmt.Errorf("%w: invalid %s number %d (must be 1-%d)", ErrOutOfRange, kind, id, NumPorts)
	}
	return nil
}

// Resolve maps a selector to a port id in [1,8].
//
// Numeric selectors only get range-checked; no table lookup happens. Name
// selectors are matched against the table exactly and case-sensitively.
// A name configured on two or more ports yields ErrAmbiguousName.
func Resolve(sel Selector, kind Kind, table NameTable) (int, error) {
	if sel.isID {
		if err := ValidateID(kind, sel.id); err != nil {
			return 0, err
		}
		return sel.id, nil
	}

	found := 0
	matches := 0
	for i, name := range table {
		if name != "" && name == sel.name {
			found = i + 1
			matches++
		}
	}

	switch matches {
	case 0:
		return 0, fmt.Errorf("%w: %s %q (available: %s)", ErrNameNotFound, kind, sel.name, availableNames(kind, table))
	case 1:
		return found, nil
	default:
		return 0, fmt.Errorf("%w: %s %q is configured on %d ports", ErrAmbiguousName, kind, sel.name, matches)
	}
}

// availableNames renders the configured (or generic) names for error
// messages, so callers can see what would have matched.
func availableNames(kind Kind, table NameTable) string {
	names := make([]string, 0, NumPorts)
	for id := 1; id <= NumPorts; id++ {
		names = append(names, fmt.Sprintf("%q", DisplayName(kind, id, table)))
	}
	return strings.Join(names, ", ")
}
