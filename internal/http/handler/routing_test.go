package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/willysamz/ha-matrix-api/internal/http/dto"
	"github.com/willysamz/ha-matrix-api/internal/matrix"
	"github.com/willysamz/ha-matrix-api/internal/service"
	"go.uber.org/zap"
)

// fakeDevice is a minimal matrix web interface for end-to-end handler tests.
type fakeDevice struct {
	routes      [8]int
	inputNames  [8]string
	outputNames [8]string
	down        bool
}

func (d *fakeDevice) handler(w http.ResponseWriter, r *http.Request) {
	if d.down {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	switch r.URL.Path {
	case "/form-system-cmd.cgi":
		r.ParseForm()
		cmd := r.PostForm.Get("cmd")
		var in, out int
		if _, err := fmt.Sscanf(cmd, "SW+%d+%d", &in, &out); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		d.routes[out-1] = in
		fmt.Fprint(w, "OK")
	case "/form-system-info.cgi":
		r.ParseForm()
		if r.PostForm.Has("in_name") {
			json.NewEncoder(w).Encode(map[string][8]string{"in_name": d.inputNames})
		} else {
			json.NewEncoder(w).Encode(map[string][8]string{"out_name": d.outputNames})
		}
	case "/vsw.html":
		entries := make([]string, 8)
		for i, in := range d.routes {
			entries[i] = fmt.Sprint(in)
		}
		fmt.Fprintf(w, "<html><script>var sw_now = [%s];</script></html>", strings.Join(entries, ","))
	default:
		fmt.Fprint(w, "<html>MT-H8M88</html>")
	}
}

// newTestRouter wires the full stack (gin → handlers → service → client)
// against the fake device.
func newTestRouter(t *testing.T, dev *fakeDevice) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(http.HandlerFunc(dev.handler))
	t.Cleanup(srv.Close)

	log := zap.NewNop()
	clnt := matrix.New(log, matrix.Config{BaseURL: srv.URL, Timeout: 2 * time.Second})
	svc := service.NewRoutingService(log, clnt)
	h := NewRoutingHandler(log, svc)

	r := gin.New()
	r.GET("/api/inputs", h.GetInputs)
	r.GET("/api/outputs", h.GetOutputs)
	r.GET("/api/routing", h.GetRouting)
	r.GET("/api/routing/output/:id", h.GetOutputRouting)
	r.POST("/api/routing/output/:id", h.SetOutputRouting)
	r.POST("/api/routing/preset", h.ApplyPreset)
	return r
}

func newDevice() *fakeDevice {
	dev := &fakeDevice{}
	for i := range dev.routes {
		dev.routes[i] = 1
	}
	dev.inputNames = [8]string{"Apple TV", "", "PlayStation 5"}
	dev.outputNames = [8]string{"Theater", "Living Room TV"}
	return dev
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetRouting(t *testing.T) {
	dev := newDevice()
	dev.routes[0] = 3
	r := newTestRouter(t, dev)

	w := do(r, http.MethodGet, "/api/routing", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}

	var state dto.RoutingState
	if err := json.Unmarshal(w.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(state.Outputs) != 8 {
		t.Fatalf("outputs = %d, want 8", len(state.Outputs))
	}
	first := state.Outputs[0]
	if first.Output != 1 || first.Input != 3 || first.OutputName != "Theater" || first.InputName != "PlayStation 5" {
		t.Errorf("output 1 = %+v", first)
	}
	if state.InputNames[2] != "HDMI 2" {
		t.Errorf("generic input fallback missing: %v", state.InputNames)
	}
}

func TestSetRouteRoundTrip(t *testing.T) {
	dev := newDevice()
	r := newTestRouter(t, dev)

	w := do(r, http.MethodPost, "/api/routing/output/Living%20Room%20TV", `{"input":"Apple TV"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}

	var res dto.SetRoutingResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.Success || res.Output != 2 || res.Input != 1 {
		t.Fatalf("response = %+v", res)
	}

	// The change is visible on the next read.
	w = do(r, http.MethodGet, "/api/routing/output/2", "")
	var route dto.OutputRouting
	if err := json.Unmarshal(w.Body.Bytes(), &route); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if route.Input != 1 || route.InputName != "Apple TV" {
		t.Errorf("route after set = %+v", route)
	}
}

func TestSetRouteResolutionErrors(t *testing.T) {
	r := newTestRouter(t, newDevice())

	cases := []struct {
		path, body, code string
	}{
		{"/api/routing/output/9", `{"input":1}`, "out_of_range"},
		{"/api/routing/output/1", `{"input":42}`, "out_of_range"},
		{"/api/routing/output/Garage", `{"input":1}`, "name_not_found"},
		{"/api/routing/output/1", `{"input":"Garage"}`, "name_not_found"},
		// Output names never resolve as inputs.
		{"/api/routing/output/1", `{"input":"Living Room TV"}`, "name_not_found"},
	}
	for _, tc := range cases {
		w := do(r, http.MethodPost, tc.path, tc.body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s %s: status = %d, body = %s", tc.path, tc.body, w.Code, w.Body)
			continue
		}
		var body map[string]any
		json.Unmarshal(w.Body.Bytes(), &body)
		if body["error"] != tc.code {
			t.Errorf("%s %s: error = %v, want %s", tc.path, tc.body, body["error"], tc.code)
		}
	}
}

func TestSetRouteRejectsUnknownFields(t *testing.T) {
	r := newTestRouter(t, newDevice())

	w := do(r, http.MethodPost, "/api/routing/output/1", `{"input":1,"bogus":true}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
}

func TestSetRouteDeviceDown(t *testing.T) {
	dev := newDevice()
	dev.down = true
	r := newTestRouter(t, dev)

	w := do(r, http.MethodPost, "/api/routing/output/1", `{"input":1}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
}

func TestPresetMixedOutcome(t *testing.T) {
	dev := newDevice()
	r := newTestRouter(t, dev)

	// "Living Room TV" exists as an output name only; as an *input*
	// selector it must fail, while entry "1" still executes.
	w := do(r, http.MethodPost, "/api/routing/preset",
		`{"mappings":{"1":3,"2":"Living Room TV"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}

	var res dto.PresetResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Success {
		t.Error("success must be false when any entry fails")
	}
	if len(res.Results) != 2 {
		t.Fatalf("results = %+v", res.Results)
	}
	for _, e := range res.Results {
		switch e.Key {
		case "1":
			if !e.OK || e.Output != 1 || e.Input != 3 {
				t.Errorf("entry 1 = %+v", e)
			}
		case "2":
			if e.OK || e.Code != "name_not_found" {
				t.Errorf("entry 2 = %+v", e)
			}
		default:
			t.Errorf("unexpected key %q", e.Key)
		}
	}
	if res.Applied[1] != 3 {
		t.Errorf("applied = %v", res.Applied)
	}
	if _, failed := res.Failed["2"]; !failed {
		t.Errorf("failed = %v", res.Failed)
	}
	if dev.routes[0] != 3 {
		t.Errorf("output 1 should be switched to input 3, routes = %v", dev.routes)
	}
}

func TestPresetAllResolved(t *testing.T) {
	dev := newDevice()
	r := newTestRouter(t, dev)

	w := do(r, http.MethodPost, "/api/routing/preset",
		`{"mappings":{"Theater":"Apple TV","2":3,"3":"PlayStation 5"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}

	var res dto.PresetResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	if !res.Success || len(res.Results) != 3 {
		t.Fatalf("response = %+v", res)
	}
	if dev.routes[0] != 1 || dev.routes[1] != 3 || dev.routes[2] != 3 {
		t.Errorf("routes = %v", dev.routes)
	}
}

func TestPresetEmptyMappings(t *testing.T) {
	r := newTestRouter(t, newDevice())

	w := do(r, http.MethodPost, "/api/routing/preset", `{"mappings":{}}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
}

func TestPresetDeviceDown(t *testing.T) {
	dev := newDevice()
	dev.down = true
	r := newTestRouter(t, dev)

	// The name-table fetch itself fails: the whole call fails loudly.
	w := do(r, http.MethodPost, "/api/routing/preset", `{"mappings":{"1":1}}`)
	if w.Code != http.StatusBadGateway && w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
}

func TestGetInputsAndOutputs(t *testing.T) {
	r := newTestRouter(t, newDevice())

	w := do(r, http.MethodGet, "/api/inputs", "")
	var inputs dto.InputListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &inputs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(inputs.Inputs) != 8 || inputs.Inputs[0].Name != "Apple TV" || inputs.Inputs[1].Name != "HDMI 2" {
		t.Errorf("inputs = %+v", inputs.Inputs)
	}
	if len(inputs.Names) != 8 {
		t.Errorf("names = %v", inputs.Names)
	}

	w = do(r, http.MethodGet, "/api/outputs", "")
	var outputs dto.OutputListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &outputs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if outputs.Outputs[1].Name != "Living Room TV" || outputs.Outputs[2].Name != "Output 3" {
		t.Errorf("outputs = %+v", outputs.Outputs)
	}
}
