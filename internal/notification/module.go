// Package notification sends operator notifications in response to revenue
// engine events. Delivery is handed to the background queue so the cycle
// path never waits on a mail server.
package notification

import (
	"context"

	"revenue_backend/internal/events"
	"revenue_backend/internal/scheduler"
	"revenue_backend/platform/config"
	"revenue_backend/platform/logger"
)

// Module subscribes to engine events and enqueues cycle reports.
type Module struct {
	reports   scheduler.ReportScheduler
	recipient string
	log       *logger.Logger
}

// New creates the notification module. reports may be nil, in which case
// no reports are sent.
func New(reports scheduler.ReportScheduler, cfg config.ReportConfig, log *logger.Logger) *Module {
	return &Module{
		reports:   reports,
		recipient: cfg.GetReportEmailTo(),
		log:       log,
	}
}

// Enabled reports whether cycle reports will be enqueued.
func (m *Module) Enabled() bool {
	return m.reports != nil && m.recipient != ""
}

// RegisterHandlers subscribes the module's handlers on bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	if !m.Enabled() {
		m.log.Info("cycle reports disabled")
		return
	}
	bus.Subscribe(events.CycleSealed{}.EventName(), events.HandlerFunc(m.handleCycleSealed))
	bus.Subscribe(events.EngineStateChanged{}.EventName(), events.HandlerFunc(m.handleEngineStateChanged))
}

func (m *Module) handleCycleSealed(ctx context.Context, event events.Event) error {
	e, ok := event.(events.CycleSealed)
	if !ok {
		return nil
	}

	stageErrors := make([]string, 0, len(e.StageErrors))
	for _, f := range e.StageErrors {
		stageErrors = append(stageErrors, f.Stage+": "+f.Message)
	}

	payload := scheduler.CycleReportPayload{
		Recipient:        m.recipient,
		CycleNumber:      e.CycleNumber,
		Trigger:          e.Trigger,
		StartedAt:        e.StartedAt,
		EndedAt:          e.EndedAt,
		Leads:            e.Leads,
		EmailsSent:       e.EmailsSent,
		SMSSent:          e.SMSSent,
		CallsMade:        e.CallsMade,
		DealsClosed:      e.DealsClosed,
		RevenueThisCycle: e.RevenueThisCycle,
		TotalRevenue:     e.TotalRevenue,
		StageErrors:      stageErrors,
	}
	if err := m.reports.EnqueueCycleReport(ctx, payload); err != nil {
		m.log.Error("failed to enqueue cycle report", "error", err, "cycle", e.CycleNumber)
		return err
	}
	return nil
}

func (m *Module) handleEngineStateChanged(_ context.Context, event events.Event) error {
	e, ok := event.(events.EngineStateChanged)
	if !ok {
		return nil
	}
	m.log.Info("revenue engine state changed", "running", e.Running, "recipient", m.recipient)
	return nil
}
