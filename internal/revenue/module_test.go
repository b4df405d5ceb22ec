package revenue

import (
	"context"
	"sync"
	"testing"
	"time"

	"revenue_backend/internal/events"
	"revenue_backend/internal/revenue/domain"
	"revenue_backend/internal/revenue/ledger"
	"revenue_backend/internal/revenue/ports"
	"revenue_backend/internal/revenue/transport"
	"revenue_backend/platform/config"
	"revenue_backend/platform/logger"
	"revenue_backend/platform/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	mu        sync.Mutex
	summaries []domain.CycleSummary
}

func (s *memorySink) Name() string { return "memory" }

func (s *memorySink) Append(_ context.Context, summary domain.CycleSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries = append(s.summaries, summary)
	return nil
}

func (s *memorySink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.summaries)
}

type recordingPayments struct {
	mu    sync.Mutex
	deals []ports.Deal
}

func (p *recordingPayments) CaptureDeal(_ context.Context, deal ports.Deal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deals = append(p.deals, deal)
	return nil
}

func (p *recordingPayments) total() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	var sum int64
	for _, d := range p.deals {
		sum += d.Amount
	}
	return sum
}

func testConfig() *config.Config {
	return &config.Config{
		EngineMode:          config.ModeTest,
		EngineSeed:          42,
		CycleInterval:       time.Hour,
		LeadsPerCycle:       50,
		MaxLeadsPerCycle:    1000,
		RunOnStartup:        true,
		SMSThreshold:        60,
		VoiceThreshold:      70,
		CloseThreshold:      50,
		MaxCloseProbability: 0.25,
		VoiceAnswerBonus:    20,
		PriceLadder:         []int64{497, 997, 1997, 2997, 5497},
		CycleHistory:        10,
		RecentLeads:         10,
		ChannelTimeout:      time.Second,
		SimulateChannels:    true,
		EmailChannelEnabled: true,
		SMSChannelEnabled:   true,
		VoiceChannelEnabled: true,
	}
}

func TestModuleLifecycle(t *testing.T) {
	log := logger.Discard()
	bus := events.NewInMemoryBus(log)
	sink := &memorySink{}
	payments := &recordingPayments{}

	ctx, cancel := context.WithCancel(context.Background())
	module := NewModule(ctx, testConfig(), Deps{
		EventBus: bus,
		Sinks:    []ledger.Sink{sink},
		Payments: payments,
	}, log, validator.New())

	done := make(chan error, 1)
	go func() { done <- module.Run(ctx) }()

	// Startup cycle.
	require.Eventually(t, func() bool {
		stats := module.Service().Stats()
		return stats.CyclesCompleted == 1 && !stats.InFlight
	}, 2*time.Second, 5*time.Millisecond)

	resp, err := module.Service().RunCycle(context.Background(), transport.RunCycleRequest{Wait: true})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), resp.CycleNumber)

	cancel()
	require.NoError(t, <-done)
	bus.Wait()

	assert.Equal(t, 2, sink.count())
	stats := module.Service().Stats()
	assert.Equal(t, stats.TotalRevenue, payments.total())
	assert.True(t, stats.Config.Channels.Email)
	assert.Equal(t, "test", stats.Config.Mode)
}

func TestModuleSameSeedSameRevenue(t *testing.T) {
	run := func() int64 {
		cfg := testConfig()
		cfg.RunOnStartup = false
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		module := NewModule(ctx, cfg, Deps{}, logger.Discard(), validator.New())
		resp, err := module.Service().RunCycle(context.Background(), transport.RunCycleRequest{Wait: true})
		require.NoError(t, err)
		return resp.Summary.RevenueThisCycle
	}

	assert.Equal(t, run(), run())
}
