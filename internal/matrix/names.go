package matrix

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/willysamz/ha-matrix-api/internal/domain/routing"
)

// The device exposes its configured port names through the system-info CGI.
// Posting `in_name=0` (resp. `out_name=0`) returns the matching list as the
// device's ad-hoc JSON:
//
//	{"in_name":["Apple TV","","PlayStation 5","","","","",""]}
//
// Unset slots come back as empty strings and are passed through unchanged;
// substituting generic fallbacks is the orchestrator's job, not this layer's.

// Names fetches both name tables in one logical operation, so callers get
// a single consistent snapshot for batch resolution.
func (c *Client) Names(ctx context.Context) (routing.NameTables, error) {
	var tables routing.NameTables

	inputs, err := c.fetchNames(ctx, "in_name")
	if err != nil {
		return tables, fmt.Errorf("input names: %w", err)
	}

	outputs, err := c.fetchNames(ctx, "out_name")
	if err != nil {
		return tables, fmt.Errorf("output names: %w", err)
	}

	tables.Inputs = inputs
	tables.Outputs = outputs
	return tables, nil
}

// fetchNames retrieves one name list. key is "in_name" or "out_name".
func (c *Client) fetchNames(ctx context.Context, key string) (routing.NameTable, error) {
	var table routing.NameTable

	endpoint := c.baseURL + "/form-system-info.cgi"
	body, err := c.postForm(ctx, endpoint, url.Values{key: {"0"}})
	if err != nil {
		return table, err
	}

	// The device sometimes appends trailing whitespace/nulls after the JSON.
	payload := strings.TrimRight(strings.TrimSpace(body), "\x00")

	var parsed map[string][]string
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return table, fmt.Errorf("%w: %v", ErrParse, err)
	}

	names, ok := parsed[key]
	if !ok {
		return table, fmt.Errorf("%w: %q missing from name response", ErrParse, key)
	}

	// Tolerate short or long lists; slots the device did not report stay "".
	for i := 0; i < len(names) && i < routing.NumPorts; i++ {
		table[i] = names[i]
	}

	c.setState(StateConnected)
	return table, nil
}
