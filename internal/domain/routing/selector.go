package routing

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Selector is a port reference as it appears on the wire: either a numeric
// id (1-8) or a configured display name. JSON numbers and all-digit strings
// are treated as ids; anything else is a name to be resolved against a
// NameTable.
type Selector struct {
	id   int
	name string
	isID bool
}

// SelectorFromID builds a numeric selector. The id is not range-checked
// here; Resolve enforces [1,8].
func SelectorFromID(id int) Selector { return Selector{id: id, isID: true} }

// SelectorFromName builds a name selector.
func SelectorFromName(name string) Selector { return Selector{name: name} }

// ParseSelector interprets a raw string (e.g. a URL path segment) the same
// way UnmarshalJSON interprets a JSON string: digits mean an id, everything
// else a name.
func ParseSelector(raw string) Selector {
	if id, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
		return Selector{id: id, isID: true}
	}
	return Selector{name: raw}
}

// IsID reports whether the selector carries a numeric id.
func (s Selector) IsID() bool { return s.isID }

// String renders the selector the way the caller supplied it, for error
// messages and batch result keys.
func (s Selector) String() string {
	if s.isID {
		return strconv.Itoa(s.id)
	}
	return s.name
}

// UnmarshalJSON accepts either a JSON number or a JSON string.
func (s *Selector) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case float64:
		id := int(v)
		if float64(id) != v {
			return fmt.Errorf("selector must be an integer, got %v", v)
		}
		*s = Selector{id: id, isID: true}
		return nil
	case string:
		*s = ParseSelector(v)
		return nil
	default:
		return fmt.Errorf("selector must be a number or a string, got %T", raw)
	}
}

// MarshalJSON emits the id as a number and the name as a string.
func (s Selector) MarshalJSON() ([]byte, error) {
	if s.isID {
		return json.Marshal(s.id)
	}
	return json.Marshal(s.name)
}
