package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"revenue_backend/internal/revenue/channel"
	"revenue_backend/internal/revenue/domain"
	"revenue_backend/internal/revenue/ledger"
	"revenue_backend/internal/revenue/metrics"
	"revenue_backend/internal/revenue/pipeline"
	"revenue_backend/internal/revenue/runner"
	"revenue_backend/internal/revenue/scheduling"
	"revenue_backend/internal/revenue/service"
	"revenue_backend/internal/revenue/transport"
	"revenue_backend/platform/httpkit"
	"revenue_backend/platform/logger"
	"revenue_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type harness struct {
	engine *gin.Engine
	svc    *service.Service
	runner *runner.Runner
	store  *ledger.Store
}

type harnessOpts struct {
	leads    int
	latency  time.Duration
	interval time.Duration
}

func newHarness(t *testing.T, opts harnessOpts) *harness {
	t.Helper()
	if opts.interval == 0 {
		opts.interval = time.Hour
	}

	log := logger.Discard()
	rnd := pipeline.NewSeededRandom(7)
	build := func(ch domain.Channel) channel.Adapter {
		return channel.NewGateway(channel.Config{Channel: ch, Enabled: true, Timeout: 5 * time.Second},
			channel.NewSimulator(ch, rnd, opts.latency, true), log)
	}
	pipe := pipeline.New(
		pipeline.NewLeadSource(rnd, []int64{497, 997, 1997, 2997, 5497}),
		pipeline.Adapters{Email: build(domain.ChannelEmail), SMS: build(domain.ChannelSMS), Voice: build(domain.ChannelVoice)},
		rnd,
		pipeline.Thresholds{SMS: 60, Voice: 70, Close: 50, MaxCloseProbability: 0.25, VoiceAnswerBonus: 20},
	)

	ctx, cancel := context.WithCancel(context.Background())
	collector := metrics.NewCollector()
	store := ledger.NewStore(50, 20, time.Now())
	r := runner.New(pipe, store, log, opts.leads, runner.WithObserver(collector))
	sched := scheduling.New(r, opts.interval, log, collector)
	svc := service.New(ctx, r, sched, store, transport.EngineConfig{
		Mode:             "test",
		LeadsPerCycle:    opts.leads,
		MaxLeadsPerCycle: 1000,
	}, 20)

	t.Cleanup(func() {
		svc.Shutdown()
		cancel()
	})

	engine := gin.New()
	h := New(svc, validator.New(), collector.Handler())
	h.RegisterRoutes(engine)
	h.RegisterRoutes(engine.Group("/api/v1"))

	return &harness{engine: engine, svc: svc, runner: r, store: store}
}

func (h *harness) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthOnRootAndV1(t *testing.T) {
	h := newHarness(t, harnessOpts{leads: 5})

	for _, path := range []string{"/", "/health", "/api/v1/health"} {
		rec := h.do(http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		body := decode[transport.HealthResponse](t, rec)
		assert.Equal(t, transport.StatusRunning, body.Status)
		assert.Zero(t, body.CyclesCompleted)
		assert.False(t, body.Timestamp.IsZero())
	}
}

func TestRunCycleWaitReturnsSummary(t *testing.T) {
	h := newHarness(t, harnessOpts{leads: 10})

	rec := h.do(http.MethodPost, "/cycle/run", `{"lead_count": 25, "wait": true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[transport.RunCycleResponse](t, rec)
	require.NotNil(t, body.Summary)
	assert.Equal(t, uint64(1), body.CycleNumber)
	assert.Equal(t, 25, body.Summary.Leads)
	assert.Equal(t, domain.TriggerManual, body.Summary.Trigger)

	stats := decode[transport.StatsResponse](t, h.do(http.MethodGet, "/stats", ""))
	assert.Equal(t, uint64(1), stats.CyclesCompleted)
	assert.Equal(t, int64(25), stats.LeadsGenerated)
	assert.Equal(t, body.Summary.RevenueThisCycle, stats.TotalRevenue)
	require.NotNil(t, stats.LastCycle)
	assert.Equal(t, uint64(1), stats.LastCycle.CycleNumber)
}

func TestRunCycleWithoutBodyUsesDefaults(t *testing.T) {
	h := newHarness(t, harnessOpts{leads: 4})

	rec := h.do(http.MethodPost, "/cycle/run", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[transport.RunCycleResponse](t, rec)
	assert.Equal(t, "accepted", body.Status)
	assert.Equal(t, uint64(1), body.CycleNumber)
	assert.Equal(t, 4, body.LeadCount)

	h.runner.Wait()
	assert.Equal(t, uint64(1), h.store.Snapshot().CyclesCompleted)
	assert.Equal(t, int64(4), h.store.Snapshot().LeadsGenerated)
}

func TestRunCycleRejectsBadInput(t *testing.T) {
	h := newHarness(t, harnessOpts{leads: 4})

	cases := map[string]string{
		"zero":       `{"lead_count": 0}`,
		"negative":   `{"lead_count": -3}`,
		"too large":  `{"lead_count": 5000}`,
		"wrong type": `{"lead_count": "many"}`,
		"malformed":  `{"lead_count":`,
	}
	for name, body := range cases {
		rec := h.do(http.MethodPost, "/cycle/run", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
		errBody := decode[httpkit.ErrorResponse](t, rec)
		assert.NotEmpty(t, errBody.Error, name)
		assert.False(t, errBody.Timestamp.IsZero(), name)
	}
	assert.Zero(t, h.store.Snapshot().CyclesCompleted)
}

func TestOverlappingRunIsRejected(t *testing.T) {
	h := newHarness(t, harnessOpts{leads: 20, latency: 5 * time.Millisecond})

	first := h.do(http.MethodPost, "/cycle/run", `{"force": true}`)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "accepted", decode[transport.RunCycleResponse](t, first).Status)

	second := h.do(http.MethodPost, "/cycle/run", `{"force": true}`)
	require.Equal(t, http.StatusConflict, second.Code)
	errBody := decode[httpkit.ErrorResponse](t, second)
	assert.Equal(t, "already_in_flight", errBody.Error)

	health := decode[transport.HealthResponse](t, h.do(http.MethodGet, "/health", ""))
	assert.True(t, health.InFlight)

	h.runner.Wait()
	assert.Equal(t, uint64(1), h.store.Snapshot().CyclesCompleted)
	assert.False(t, h.runner.InFlight())
}

func TestStoppedEngineRejectsRuns(t *testing.T) {
	h := newHarness(t, harnessOpts{leads: 3})

	rec := h.do(http.MethodPost, "/stop", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, transport.StatusStopped, decode[transport.StatsResponse](t, rec).Status)

	rec = h.do(http.MethodPost, "/cycle/run", `{"wait": true}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "engine_stopped", decode[httpkit.ErrorResponse](t, rec).Error)
}

func TestStopMidSchedule(t *testing.T) {
	h := newHarness(t, harnessOpts{leads: 5, interval: 100 * time.Millisecond})
	h.svc.Boot(false)

	require.Eventually(t, func() bool {
		return h.store.Snapshot().CyclesCompleted >= 3
	}, 5*time.Second, 10*time.Millisecond)

	rec := h.do(http.MethodPost, "/stop", "")
	require.Equal(t, http.StatusOK, rec.Code)
	atStop := decode[transport.StatsResponse](t, rec).CyclesCompleted

	h.runner.Wait()
	time.Sleep(350 * time.Millisecond)

	stats := decode[transport.StatsResponse](t, h.do(http.MethodGet, "/stats", ""))
	assert.Equal(t, transport.StatusStopped, stats.Status)
	assert.LessOrEqual(t, stats.CyclesCompleted, atStop+1)

	rec = h.do(http.MethodPost, "/start", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, transport.StatusRunning, decode[transport.StatsResponse](t, rec).Status)

	require.Eventually(t, func() bool {
		return h.store.Snapshot().CyclesCompleted > stats.CyclesCompleted
	}, 5*time.Second, 10*time.Millisecond)
}

func TestCyclesAndRecentLeads(t *testing.T) {
	h := newHarness(t, harnessOpts{leads: 8})

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/cycle/run", `{"wait": true}`).Code)
	}

	cycles := decode[transport.CyclesResponse](t, h.do(http.MethodGet, "/api/v1/cycles", ""))
	require.Len(t, cycles.Cycles, 3)
	assert.Equal(t, 50, cycles.Capacity)
	assert.Equal(t, uint64(3), cycles.CyclesCompleted)
	for i, c := range cycles.Cycles {
		assert.Equal(t, uint64(i+1), c.CycleNumber)
	}

	recent := decode[transport.RecentLeadsResponse](t, h.do(http.MethodGet, "/leads/recent", ""))
	assert.Len(t, recent.Leads, 8)
	assert.Equal(t, 20, recent.Capacity)
}

func TestMetricsExposition(t *testing.T) {
	h := newHarness(t, harnessOpts{leads: 3})
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/cycle/run", `{"wait": true}`).Code)

	rec := h.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `arce_cycles_total{trigger="manual"} 1`))
}
