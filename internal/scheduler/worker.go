package scheduler

import (
	"context"
	"fmt"

	"revenue_backend/internal/email"
	"revenue_backend/platform/config"
	"revenue_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// ReportSender is the slice of email.Sender the worker needs.
type ReportSender interface {
	SendCycleReport(ctx context.Context, toEmail string, report email.CycleReport) error
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	sender ReportSender
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, sender ReportSender, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	w := &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
		sender: sender,
		log:    log,
	}
	w.mux.HandleFunc(TaskCycleReport, w.handleCycleReport)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("report worker stopped", "error", err)
	}
}

func (w *Worker) handleCycleReport(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseCycleReportPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if payload.Recipient == "" {
		return nil
	}

	if err := w.sender.SendCycleReport(ctx, payload.Recipient, email.CycleReport{
		CycleNumber:      payload.CycleNumber,
		Trigger:          payload.Trigger,
		StartedAt:        payload.StartedAt,
		EndedAt:          payload.EndedAt,
		Leads:            payload.Leads,
		EmailsSent:       payload.EmailsSent,
		SMSSent:          payload.SMSSent,
		CallsMade:        payload.CallsMade,
		DealsClosed:      payload.DealsClosed,
		RevenueThisCycle: payload.RevenueThisCycle,
		TotalRevenue:     payload.TotalRevenue,
		StageErrors:      payload.StageErrors,
	}); err != nil {
		return err
	}

	w.log.Info("cycle report sent", "cycle", payload.CycleNumber, "recipient", payload.Recipient)
	return nil
}
