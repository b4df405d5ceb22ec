package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"revenue_backend/internal/email"
	"revenue_backend/internal/scheduler"
	"revenue_backend/platform/config"
	"revenue_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting report worker", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}
	if !cfg.GetEmailEnabled() {
		log.Warn("email disabled; cycle reports will be acknowledged without delivery")
	}

	worker, err := scheduler.NewWorker(cfg, sender, log)
	if err != nil {
		log.Error("failed to initialize report worker", "error", err)
		panic("failed to initialize report worker: " + err.Error())
	}

	worker.Run(ctx)
	log.Info("report worker stopped")
}
