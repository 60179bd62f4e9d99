package matrix

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/willysamz/ha-matrix-api/internal/domain/routing"
	"go.uber.org/zap"
)

// The routing state lives inside the switch page's script block as a
// javascript array literal, one entry per output:
//
//	var sw_now = [3,1,2,8,5,6,7,4];
//
// This is the only marker the parser depends on; everything else on the
// page (markup, styling, other variables) is ignored.
var swNowPattern = regexp.MustCompile(`var\s+sw_now\s*=\s*\[([^\]]*)\]`)

// Routes reads the current input selected for every output from the
// device's switch page. The result is indexed by output-1 and each entry
// is an input id in [1,8].
//
// A reachable device serving a page without the expected marker, or with a
// marker that does not decode to exactly 8 in-range entries, yields
// ErrParse — never a partial result.
func (c *Client) Routes(ctx context.Context) ([routing.NumPorts]int, error) {
	var routes [routing.NumPorts]int

	body, err := c.get(ctx, c.baseURL+"/vsw.html")
	if err != nil {
		return routes, err
	}

	parsed, err := parseSwitchPage(body)
	if err != nil {
		c.log.Warn("switch page parse failed", zap.Error(err))
		return routes, err
	}

	return parsed, nil
}

// parseSwitchPage extracts the sw_now array from the page body.
func parseSwitchPage(body string) ([routing.NumPorts]int, error) {
	var routes [routing.NumPorts]int

	m := swNowPattern.FindStringSubmatch(body)
	if m == nil {
		return routes, fmt.Errorf("%w: sw_now marker not found", ErrParse)
	}

	fields := strings.Split(m[1], ",")
	if len(fields) != routing.NumPorts {
		return routes, fmt.Errorf("%w: expected %d routing entries, got %d", ErrParse, routing.NumPorts, len(fields))
	}

	for i, f := range fields {
		input, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return routes, fmt.Errorf("%w: bad routing entry %q", ErrParse, f)
		}
		if input < 1 || input > routing.NumPorts {
			return routes, fmt.Errorf("%w: input %d for output %d out of range", ErrParse, input, i+1)
		}
		routes[i] = input
	}

	return routes, nil
}
