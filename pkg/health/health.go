// Package health implements Kubernetes-style liveness and readiness probes.
//
// Checks run periodically in the background. A check flips to unhealthy only
// after failThreshold consecutive failures and back to healthy after
// okThreshold consecutive successes, so a single slow probe does not bounce
// the pod.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// CheckFunc probes one component. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

const (
	failThreshold = 3
	okThreshold   = 1
)

// check is one registered probe plus its debounced state. The fails/oks
// counters are touched only by the loop goroutine; healthy and lastErr are
// shared with the HTTP handlers under mu.
type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc

	mu      sync.Mutex
	healthy bool
	lastErr error

	fails int
	oks   int
}

func newCheck(name string, timeout time.Duration, fn CheckFunc) *check {
	// Start healthy: a service must not report dead before the first probe.
	return &check{name: name, timeout: timeout, fn: fn, healthy: true}
}

func (c *check) probe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.fn(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err
	if err != nil {
		c.oks = 0
		if c.fails++; c.fails >= failThreshold {
			c.healthy = false
		}
		return
	}
	c.fails = 0
	if c.oks++; c.oks >= okThreshold {
		c.healthy = true
	}
}

func (c *check) state() (healthy bool, lastErr error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.healthy, c.lastErr
}

func (c *check) loop(ctx context.Context, interval time.Duration) {
	c.probe(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.probe(ctx)
		}
	}
}

// Health owns the probe set for a service.
type Health struct {
	mu        sync.Mutex
	ready     bool
	liveness  []*check
	readiness []*check
	cancel    context.CancelFunc
}

// New returns a Health in the not-ready state. Call SetReady(true) once
// startup completes.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a probe for /livez. Liveness failures mean the
// process itself is wedged and should be restarted.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, newCheck(name, timeout, fn))
}

// AddReadinessCheck registers a probe for /readyz. Readiness failures mean
// the service cannot take traffic right now, e.g. the database is away.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, newCheck(name, timeout, fn))
}

// Start launches one background goroutine per registered check, each probing
// at the given interval. Register all checks before calling Start.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	checks := append(append([]*check(nil), h.liveness...), h.readiness...)
	h.mu.Unlock()

	for _, c := range checks {
		go c.loop(ctx, interval)
	}
}

// Stop cancels the probe goroutines. Safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady flips the manual readiness gate. Graceful shutdown sets it false
// first so load balancers drain before the listener closes.
func (h *Health) SetReady(ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ready = ready
}

// IsReady reports whether the service is manually ready and every readiness
// probe is passing.
func (h *Health) IsReady() bool {
	h.mu.Lock()
	ready := h.ready
	checks := append([]*check(nil), h.readiness...)
	h.mu.Unlock()

	if !ready {
		return false
	}
	for _, c := range checks {
		if healthy, _ := c.state(); !healthy {
			return false
		}
	}
	return true
}

type probeResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves /livez: 200 when all liveness probes pass, 503 with
// the failing probes otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	checks := append([]*check(nil), h.liveness...)
	h.mu.Unlock()

	writeProbe(w, failures(checks))
}

// ReadyEndpoint serves /readyz: 200 when SetReady(true) has been called and
// all readiness probes pass, 503 with details otherwise.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	ready := h.ready
	checks := append([]*check(nil), h.readiness...)
	h.mu.Unlock()

	fails := failures(checks)
	if !ready {
		fails["_readiness"] = "service is not ready"
	}
	writeProbe(w, fails)
}

func failures(checks []*check) map[string]string {
	fails := make(map[string]string)
	for _, c := range checks {
		healthy, err := c.state()
		if healthy {
			continue
		}
		if err != nil {
			fails[c.name] = err.Error()
		} else {
			fails[c.name] = "check is unhealthy"
		}
	}
	return fails
}

func writeProbe(w http.ResponseWriter, fails map[string]string) {
	resp := probeResponse{Status: "ok"}
	code := http.StatusOK
	if len(fails) > 0 {
		resp = probeResponse{Status: "unhealthy", Checks: fails}
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
