// Package revenue provides the autonomous revenue cycle engine module.
// This file wires the pipeline, runner, scheduler and control surface together.
package revenue

import (
	"context"
	"time"

	"revenue_backend/internal/events"
	apphttp "revenue_backend/internal/http"
	"revenue_backend/internal/revenue/adapters"
	"revenue_backend/internal/revenue/channel"
	"revenue_backend/internal/revenue/domain"
	"revenue_backend/internal/revenue/handler"
	"revenue_backend/internal/revenue/ledger"
	"revenue_backend/internal/revenue/metrics"
	"revenue_backend/internal/revenue/pipeline"
	"revenue_backend/internal/revenue/ports"
	"revenue_backend/internal/revenue/runner"
	"revenue_backend/internal/revenue/scheduling"
	"revenue_backend/internal/revenue/service"
	"revenue_backend/internal/revenue/transport"
	"revenue_backend/platform/config"
	"revenue_backend/platform/logger"
	"revenue_backend/platform/validator"
)

// ModuleConfig combines the config interfaces the engine reads.
type ModuleConfig interface {
	config.EngineConfig
	config.ChannelConfig
}

// Deps are the external collaborators the composition root provides. Nil
// gateways fall back to simulated channels.
type Deps struct {
	EventBus events.Bus
	Email    adapters.EmailSender
	SMS      adapters.SMSSender
	Voice    adapters.CallPlacer
	Sinks    []ledger.Sink
	Payments ports.PaymentProcessor
	Credits  ports.CreditReader
}

// Module is the revenue engine bounded context implementing http.Module.
type Module struct {
	handler      *handler.Handler
	service      *service.Service
	runner       *runner.Runner
	store        *ledger.Store
	metrics      *metrics.Collector
	writeBehind  *ledger.WriteBehind
	runOnStartup bool
	log          *logger.Logger
}

// NewModule builds the engine. ctx bounds the scheduler; background cycles
// run to completion even after ctx is cancelled.
func NewModule(ctx context.Context, cfg ModuleConfig, deps Deps, log *logger.Logger, val *validator.Validator) *Module {
	seed := cfg.GetEngineSeed()
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rnd := pipeline.NewSeededRandom(seed)
	deterministic := cfg.GetEngineMode() == config.ModeTest

	newAdapter := func(ch domain.Channel, enabled bool, live channel.Deliverer) channel.Adapter {
		deliverer := live
		if cfg.GetSimulateChannels() || live == nil {
			deliverer = channel.NewSimulator(ch, rnd, cfg.GetChannelSimulatedLatency(), deterministic)
		}
		return channel.NewGateway(channel.Config{
			Channel:    ch,
			Enabled:    enabled,
			Timeout:    cfg.GetChannelTimeout(),
			RatePerSec: cfg.GetChannelRatePerSec(),
		}, deliverer, log)
	}

	var emailLive, smsLive, voiceLive channel.Deliverer
	if deps.Email != nil {
		emailLive = adapters.NewEmailDeliverer(deps.Email)
	}
	if deps.SMS != nil {
		smsLive = adapters.NewSMSDeliverer(deps.SMS)
	}
	if deps.Voice != nil {
		voiceLive = adapters.NewVoiceDeliverer(deps.Voice)
	}

	pipe := pipeline.New(
		pipeline.NewLeadSource(rnd, cfg.GetPriceLadder()),
		pipeline.Adapters{
			Email: newAdapter(domain.ChannelEmail, cfg.IsEmailChannelEnabled(), emailLive),
			SMS:   newAdapter(domain.ChannelSMS, cfg.IsSMSChannelEnabled(), smsLive),
			Voice: newAdapter(domain.ChannelVoice, cfg.IsVoiceChannelEnabled(), voiceLive),
		},
		rnd,
		pipeline.Thresholds{
			SMS:                 cfg.GetSMSThreshold(),
			Voice:               cfg.GetVoiceThreshold(),
			Close:               cfg.GetCloseThreshold(),
			MaxCloseProbability: cfg.GetMaxCloseProbability(),
			VoiceAnswerBonus:    cfg.GetVoiceAnswerBonus(),
		},
	)

	collector := metrics.NewCollector()
	store := ledger.NewStore(cfg.GetCycleHistory(), cfg.GetRecentLeads(), time.Now())
	writeBehind := ledger.NewWriteBehind(log, 0, deps.Sinks...)

	opts := []runner.Option{
		runner.WithObserver(collector),
		runner.WithBaseContext(context.WithoutCancel(ctx)),
	}
	if deps.EventBus != nil {
		opts = append(opts, runner.WithEventBus(deps.EventBus))
	}
	if writeBehind.Enabled() {
		opts = append(opts, runner.WithWriteBehind(writeBehind))
	}
	r := runner.New(pipe, store, log, cfg.GetLeadsPerCycle(), opts...)

	sched := scheduling.New(r, cfg.GetCycleInterval(), log, skipRecorder{metrics: collector, bus: deps.EventBus, ctx: ctx})

	var svcOpts []service.Option
	if deps.Credits != nil {
		svcOpts = append(svcOpts, service.WithCredits(deps.Credits))
	}
	svc := service.New(ctx, r, sched, store, engineConfig(cfg), cfg.GetRecentLeads(), svcOpts...)

	if deps.EventBus != nil && deps.Payments != nil {
		subscribePayments(deps.EventBus, deps.Payments, log)
	}

	log.Info("revenue engine configured",
		"mode", cfg.GetEngineMode(),
		"seed", seed,
		"interval", cfg.GetCycleInterval().String(),
		"leadsPerCycle", cfg.GetLeadsPerCycle(),
		"simulateChannels", cfg.GetSimulateChannels(),
		"sinks", len(deps.Sinks),
	)

	return &Module{
		handler:      handler.New(svc, val, collector.Handler()),
		service:      svc,
		runner:       r,
		store:        store,
		metrics:      collector,
		writeBehind:  writeBehind,
		runOnStartup: cfg.GetRunOnStartup(),
		log:          log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "revenue"
}

// RegisterRoutes mounts the control surface at the root and under /api/v1.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	for _, routes := range ctx.Mounts() {
		m.handler.RegisterRoutes(routes)
	}
}

// Service exposes the control operations.
func (m *Module) Service() *service.Service {
	return m.service
}

// Run starts the scheduler and the write-behind forwarder and blocks until
// ctx is done. On return every background cycle has sealed and every queued
// summary was handed to the sinks.
func (m *Module) Run(ctx context.Context) error {
	wbCtx, stopWriteBehind := context.WithCancel(context.WithoutCancel(ctx))
	wbDone := make(chan struct{})
	go func() {
		defer close(wbDone)
		if m.writeBehind.Enabled() {
			_ = m.writeBehind.Run(wbCtx)
		}
	}()

	m.service.Boot(m.runOnStartup)
	<-ctx.Done()

	m.log.Info("revenue engine shutting down")
	m.service.Shutdown()
	stopWriteBehind()
	<-wbDone
	if dropped := m.writeBehind.Dropped(); dropped > 0 {
		m.log.Warn("cycle summaries dropped by write-behind", "count", dropped)
	}
	return nil
}

// skipRecorder counts dropped ticks and announces them on the bus.
type skipRecorder struct {
	metrics *metrics.Collector
	bus     events.Bus
	ctx     context.Context
}

func (s skipRecorder) CycleSkipped(trigger domain.Trigger, reason string) {
	s.metrics.CycleSkipped(trigger, reason)
	if s.bus != nil {
		s.bus.Publish(s.ctx, events.CycleSkipped{
			BaseEvent: events.NewBaseEvent(),
			Trigger:   string(trigger),
			Reason:    reason,
		})
	}
}

func subscribePayments(bus events.Bus, payments ports.PaymentProcessor, log *logger.Logger) {
	bus.Subscribe(events.DealClosed{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.DealClosed)
		if !ok {
			return nil
		}
		if err := payments.CaptureDeal(ctx, ports.Deal{
			CycleNumber: e.CycleNumber,
			LeadID:      e.LeadID,
			LeadName:    e.LeadName,
			LeadEmail:   e.LeadEmail,
			Amount:      e.Amount,
		}); err != nil {
			log.Error("deal capture failed", "error", err, "leadId", e.LeadID, "cycle", e.CycleNumber)
		}
		return nil
	}))
}

func engineConfig(cfg ModuleConfig) transport.EngineConfig {
	fw := cfg.GetFramework()
	return transport.EngineConfig{
		Mode:                 cfg.GetEngineMode(),
		CycleIntervalSeconds: cfg.GetCycleInterval().Seconds(),
		LeadsPerCycle:        cfg.GetLeadsPerCycle(),
		MaxLeadsPerCycle:     cfg.GetMaxLeadsPerCycle(),
		RunOnStartup:         cfg.GetRunOnStartup(),
		Thresholds: transport.Thresholds{
			SMS:   cfg.GetSMSThreshold(),
			Voice: cfg.GetVoiceThreshold(),
			Close: cfg.GetCloseThreshold(),
		},
		MaxCloseProbability: cfg.GetMaxCloseProbability(),
		VoiceAnswerBonus:    cfg.GetVoiceAnswerBonus(),
		PriceLadder:         cfg.GetPriceLadder(),
		CycleHistory:        cfg.GetCycleHistory(),
		Channels: transport.ChannelFlags{
			Email: cfg.IsEmailChannelEnabled(),
			SMS:   cfg.IsSMSChannelEnabled(),
			Voice: cfg.IsVoiceChannelEnabled(),
		},
		SimulateChannels: cfg.GetSimulateChannels(),
		ChannelTimeoutMs: cfg.GetChannelTimeout().Milliseconds(),
		Framework: transport.Framework{
			Alpha:           fw.Alpha,
			ComplexityLabel: fw.ComplexityLabel,
		},
	}
}
