package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probeBody(t *testing.T, rec *httptest.ResponseRecorder) probeResponse {
	t.Helper()
	var resp probeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestReadyEndpoint_NotReadyByDefault(t *testing.T) {
	h := New()

	rec := httptest.NewRecorder()
	h.ReadyEndpoint(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := probeBody(t, rec)
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Contains(t, resp.Checks, "_readiness")
}

func TestReadyEndpoint_AfterSetReady(t *testing.T) {
	h := New()
	h.SetReady(true)

	rec := httptest.NewRecorder()
	h.ReadyEndpoint(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", probeBody(t, rec).Status)
}

func TestLiveEndpoint_HealthyBeforeFirstProbe(t *testing.T) {
	h := New()
	h.AddLivenessCheck("never-run", time.Second, func(context.Context) error {
		return errors.New("would fail")
	})

	rec := httptest.NewRecorder()
	h.LiveEndpoint(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCheck_FailureThresholdDebounces(t *testing.T) {
	c := newCheck("db", time.Second, func(context.Context) error {
		return errors.New("connection refused")
	})

	c.probe(context.Background())
	c.probe(context.Background())
	healthy, _ := c.state()
	assert.True(t, healthy, "below threshold stays healthy")

	c.probe(context.Background())
	healthy, err := c.state()
	assert.False(t, healthy)
	assert.EqualError(t, err, "connection refused")
}

func TestCheck_RecoversAfterOneSuccess(t *testing.T) {
	fail := true
	c := newCheck("db", time.Second, func(context.Context) error {
		if fail {
			return errors.New("down")
		}
		return nil
	})

	for i := 0; i < failThreshold; i++ {
		c.probe(context.Background())
	}
	healthy, _ := c.state()
	require.False(t, healthy)

	fail = false
	c.probe(context.Background())
	healthy, _ = c.state()
	assert.True(t, healthy)
}

func TestCheck_TimeoutReachesCheckFunc(t *testing.T) {
	c := newCheck("slow", 10*time.Millisecond, func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})

	for i := 0; i < failThreshold; i++ {
		c.probe(context.Background())
	}
	healthy, err := c.state()
	assert.False(t, healthy)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIsReady_FailedReadinessCheckBlocks(t *testing.T) {
	h := New()
	h.SetReady(true)
	h.AddReadinessCheck("db", time.Second, func(context.Context) error {
		return errors.New("down")
	})

	require.True(t, h.IsReady(), "healthy until threshold crossed")

	h.mu.Lock()
	c := h.readiness[0]
	h.mu.Unlock()
	for i := 0; i < failThreshold; i++ {
		c.probe(context.Background())
	}

	assert.False(t, h.IsReady())

	rec := httptest.NewRecorder()
	h.ReadyEndpoint(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "down", probeBody(t, rec).Checks["db"])
}

func TestStartStop(t *testing.T) {
	h := New()
	probed := make(chan struct{}, 1)
	h.AddLivenessCheck("tick", time.Second, func(context.Context) error {
		select {
		case probed <- struct{}{}:
		default:
		}
		return nil
	})

	h.Start(context.Background(), 10*time.Millisecond)
	defer h.Stop()

	select {
	case <-probed:
	case <-time.After(time.Second):
		t.Fatal("check never ran")
	}

	h.Stop()
	h.Stop() // idempotent
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(1_000_000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}
