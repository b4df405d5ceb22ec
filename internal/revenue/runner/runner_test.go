package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"revenue_backend/internal/events"
	"revenue_backend/internal/revenue/channel"
	"revenue_backend/internal/revenue/domain"
	"revenue_backend/internal/revenue/ledger"
	"revenue_backend/internal/revenue/pipeline"
	"revenue_backend/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simulatedPipeline(seed int64) *pipeline.Pipeline {
	rnd := pipeline.NewSeededRandom(seed)
	build := func(ch domain.Channel) channel.Adapter {
		return channel.NewGateway(channel.Config{Channel: ch, Enabled: true, Timeout: time.Second},
			channel.NewSimulator(ch, rnd, 0, false), logger.Discard())
	}
	return pipeline.New(
		pipeline.NewLeadSource(rnd, []int64{497, 997, 1997, 2997, 5497}),
		pipeline.Adapters{Email: build(domain.ChannelEmail), SMS: build(domain.ChannelSMS), Voice: build(domain.ChannelVoice)},
		rnd,
		pipeline.Thresholds{SMS: 60, Voice: 70, Close: 50, MaxCloseProbability: 0.25, VoiceAnswerBonus: 20},
	)
}

// gatedExecutor blocks inside Run until released.
type gatedExecutor struct {
	inner   Executor
	entered chan struct{}
	release chan struct{}
}

func newGated(inner Executor) *gatedExecutor {
	return &gatedExecutor{inner: inner, entered: make(chan struct{}, 16), release: make(chan struct{})}
}

func (g *gatedExecutor) Run(ctx context.Context, n int) *pipeline.Run {
	g.entered <- struct{}{}
	<-g.release
	return g.inner.Run(ctx, n)
}

func newRunner(exec Executor, opts ...Option) (*Runner, *ledger.Store) {
	store := ledger.NewStore(50, 10, time.Now())
	return New(exec, store, logger.Discard(), 25, opts...), store
}

func TestEmptyCycleStillSeals(t *testing.T) {
	r, store := newRunner(simulatedPipeline(1))

	summary, err := r.RunOne(context.Background(), 0, domain.TriggerManual)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), summary.CycleNumber)
	assert.Zero(t, summary.Leads)
	assert.Zero(t, summary.EmailsSent)
	assert.Zero(t, summary.SMSSent)
	assert.Zero(t, summary.CallsMade)
	assert.Zero(t, summary.DealsClosed)
	assert.Zero(t, summary.RevenueThisCycle)
	assert.Equal(t, uint64(1), store.Snapshot().CyclesCompleted)
	assert.False(t, r.InFlight())
}

func TestRevenueTotalIsSumOfCycles(t *testing.T) {
	r, store := newRunner(simulatedPipeline(17))

	var sum int64
	var prev *domain.CycleSummary
	for i := 0; i < 8; i++ {
		summary, err := r.RunOne(context.Background(), 150, domain.TriggerScheduler)
		require.NoError(t, err)
		sum += summary.RevenueThisCycle
		assert.Equal(t, sum, summary.TotalRevenue)
		if prev != nil {
			assert.False(t, summary.StartedAt.Before(prev.EndedAt), "cycles must not overlap")
			assert.Equal(t, prev.CycleNumber+1, summary.CycleNumber)
		}
		prev = &summary
	}

	snap := store.Snapshot()
	assert.Equal(t, sum, snap.RevenueTotal)
	assert.Equal(t, uint64(8), snap.CyclesCompleted)
	assert.Len(t, snap.History, 8)
	assert.Equal(t, int64(8*150), snap.LeadsGenerated)
}

func TestSameSeedSameSummary(t *testing.T) {
	a, _ := newRunner(simulatedPipeline(42))
	b, _ := newRunner(simulatedPipeline(42))

	sa, err := a.RunOne(context.Background(), 300, domain.TriggerManual)
	require.NoError(t, err)
	sb, err := b.RunOne(context.Background(), 300, domain.TriggerManual)
	require.NoError(t, err)

	for _, s := range []*domain.CycleSummary{&sa, &sb} {
		s.StartedAt, s.EndedAt, s.DurationMs = time.Time{}, time.Time{}, 0
	}
	assert.Equal(t, sa, sb)
}

func TestOverlappingTriggerIsRejected(t *testing.T) {
	gated := newGated(simulatedPipeline(3))
	r, store := newRunner(gated)

	number, err := r.Trigger(10, domain.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), number)
	<-gated.entered

	assert.True(t, r.InFlight())
	_, err = r.Trigger(10, domain.TriggerManual)
	assert.True(t, errors.Is(err, ErrAlreadyInFlight))
	_, err = r.RunOne(context.Background(), 10, domain.TriggerManual)
	assert.True(t, errors.Is(err, ErrAlreadyInFlight))
	assert.Zero(t, store.Snapshot().CyclesCompleted, "rejected triggers must not touch counters")

	close(gated.release)
	r.Wait()

	assert.False(t, r.InFlight())
	assert.Equal(t, uint64(1), store.Snapshot().CyclesCompleted)
}

func TestConcurrentTriggersRunOneAtATime(t *testing.T) {
	r, store := newRunner(simulatedPipeline(5))

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.RunOne(context.Background(), 20, domain.TriggerManual); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			} else {
				assert.True(t, errors.Is(err, ErrAlreadyInFlight))
			}
		}()
	}
	wg.Wait()

	snap := store.Snapshot()
	assert.Equal(t, uint64(accepted), snap.CyclesCompleted)
	for i := 1; i < len(snap.History); i++ {
		assert.False(t, snap.History[i].StartedAt.Before(snap.History[i-1].EndedAt))
	}
}

func TestHaltRejectsTriggersButLetsInFlightCycleSeal(t *testing.T) {
	gated := newGated(simulatedPipeline(9))
	r, store := newRunner(gated)

	_, err := r.Trigger(5, domain.TriggerScheduler)
	require.NoError(t, err)
	<-gated.entered

	assert.True(t, r.Halt())
	assert.False(t, r.Halt())

	_, err = r.Trigger(5, domain.TriggerManual)
	assert.True(t, errors.Is(err, ErrEngineStopped))

	close(gated.release)
	r.Wait()
	assert.Equal(t, uint64(1), store.Snapshot().CyclesCompleted)

	assert.True(t, r.Resume())
	_, err = r.RunOne(context.Background(), 5, domain.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), store.Snapshot().CyclesCompleted)
}

func TestDefaultLeadCount(t *testing.T) {
	r, _ := newRunner(simulatedPipeline(2))

	summary, err := r.RunOne(context.Background(), DefaultLeadCount, domain.TriggerStartup)
	require.NoError(t, err)
	assert.Equal(t, 25, summary.Leads)
	assert.Equal(t, domain.TriggerStartup, summary.Trigger)
}

type panickingExecutor struct{}

func (panickingExecutor) Run(context.Context, int) *pipeline.Run {
	panic("executor bug")
}

func TestExecutorPanicStillSeals(t *testing.T) {
	r, store := newRunner(panickingExecutor{})

	summary, err := r.RunOne(context.Background(), 1, domain.TriggerManual)
	require.NoError(t, err)
	assert.False(t, r.InFlight())
	assert.Equal(t, uint64(1), store.Snapshot().CyclesCompleted)
	assert.Zero(t, summary.Leads)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, domain.StageGenerate, summary.Errors[0].Stage)
	assert.Contains(t, summary.Errors[0].Message, "executor bug")

	_, err = r.RunOne(context.Background(), 1, domain.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), store.Snapshot().CyclesCompleted)
}

type countingObserver struct {
	mu      sync.Mutex
	started int
	sealed  []uint64
}

func (o *countingObserver) CycleStarted() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started++
}

func (o *countingObserver) CycleSealed(summary domain.CycleSummary, _ []domain.StageResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sealed = append(o.sealed, summary.CycleNumber)
}

type recordingQueue struct {
	summaries []domain.CycleSummary
}

func (q *recordingQueue) Enqueue(s domain.CycleSummary) bool {
	q.summaries = append(q.summaries, s)
	return true
}

func TestSealHooksAndEvents(t *testing.T) {
	bus := events.NewInMemoryBus(logger.Discard())
	observer := &countingObserver{}
	queue := &recordingQueue{}

	var mu sync.Mutex
	var sealed []events.CycleSealed
	var deals []events.DealClosed
	bus.Subscribe(events.CycleSealed{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		sealed = append(sealed, e.(events.CycleSealed))
		return nil
	}))
	bus.Subscribe(events.DealClosed{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		deals = append(deals, e.(events.DealClosed))
		return nil
	}))

	r, _ := newRunner(simulatedPipeline(21), WithEventBus(bus), WithObserver(observer), WithWriteBehind(queue))
	summary, err := r.RunOne(context.Background(), 400, domain.TriggerManual)
	require.NoError(t, err)
	bus.Wait()

	assert.Equal(t, 1, observer.started)
	assert.Equal(t, []uint64{1}, observer.sealed)
	require.Len(t, queue.summaries, 1)
	assert.Equal(t, summary, queue.summaries[0])

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, sealed, 1)
	assert.Equal(t, summary.RevenueThisCycle, sealed[0].RevenueThisCycle)
	require.Len(t, deals, summary.DealsClosed)
	var revenue int64
	for _, d := range deals {
		revenue += d.Amount
	}
	assert.Equal(t, summary.RevenueThisCycle, revenue)
}
