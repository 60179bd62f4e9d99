package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/willysamz/ha-matrix-api/internal/http/dto"
	"github.com/willysamz/ha-matrix-api/internal/service"
	"go.uber.org/zap"
)

// togglePinger flips between healthy and failing via an atomic bool.
type togglePinger struct{ failing atomic.Bool }

func (p *togglePinger) Ping(context.Context) error {
	if p.failing.Load() {
		return context.DeadlineExceeded
	}
	return nil
}

func newHealthRouter(hs *service.HealthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHealthHandler(hs)
	r := gin.New()
	r.GET("/healthz/live", h.Live)
	r.GET("/healthz/ready", h.Ready)
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func waitForProbes(t *testing.T, hs *service.HealthService, n uint64) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for hs.Snapshot().Probes < n {
		select {
		case <-deadline:
			t.Fatalf("monitor never reached %d probes", n)
		case <-time.After(time.Millisecond):
		}
	}
}

func TestReadinessLifecycle(t *testing.T) {
	pinger := &togglePinger{}
	hs := service.NewHealthService(zap.NewNop(), pinger, 5*time.Millisecond)
	r := newHealthRouter(hs)

	// Before the first probe: not ready, liveness still fine.
	if w := get(r, "/healthz/ready"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("pre-probe readiness = %d, want 503", w.Code)
	}
	if w := get(r, "/healthz/live"); w.Code != http.StatusOK {
		t.Fatalf("liveness = %d, want 200", w.Code)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hs.Run(ctx)
	waitForProbes(t, hs, 1)

	w := get(r, "/healthz/ready")
	if w.Code != http.StatusOK {
		t.Fatalf("post-probe readiness = %d, body = %s", w.Code, w.Body)
	}
	var res dto.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Status != "ok" || !res.MatrixConnected || res.LastHealthCheck == nil {
		t.Errorf("response = %+v", res)
	}
	if res.UptimeSeconds <= 0 {
		t.Errorf("uptime = %f", res.UptimeSeconds)
	}

	// Device disappears: readiness flips, liveness does not.
	pinger.failing.Store(true)
	probes := hs.Snapshot().Probes
	waitForProbes(t, hs, probes+2)

	w = get(r, "/healthz/ready")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("readiness after failure = %d", w.Code)
	}
	json.Unmarshal(w.Body.Bytes(), &res)
	if res.Status != "error" || res.MatrixConnected || res.LastError == "" {
		t.Errorf("response = %+v", res)
	}
	if w := get(r, "/healthz/live"); w.Code != http.StatusOK {
		t.Fatalf("liveness must not depend on the device, got %d", w.Code)
	}
}
