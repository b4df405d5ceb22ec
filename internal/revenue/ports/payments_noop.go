package ports

import (
	"context"

	"revenue_backend/platform/logger"
)

// LoggingPaymentProcessor records captures in the log and never fails.
type LoggingPaymentProcessor struct {
	log *logger.Logger
}

// NewLoggingPaymentProcessor creates the default processor.
func NewLoggingPaymentProcessor(log *logger.Logger) *LoggingPaymentProcessor {
	return &LoggingPaymentProcessor{log: log}
}

func (p *LoggingPaymentProcessor) CaptureDeal(ctx context.Context, deal Deal) error {
	p.log.WithContext(ctx).Info("deal captured",
		"cycle", deal.CycleNumber,
		"leadId", deal.LeadID,
		"amount", deal.Amount,
	)
	return nil
}

var _ PaymentProcessor = (*LoggingPaymentProcessor)(nil)
