// Package ports defines the interfaces the revenue engine requires from
// external systems. Implementations are provided by the composition root so
// the engine never imports payment or credit providers directly.
package ports

import (
	"context"
	"time"
)

// Deal is the payment-facing view of a closed lead.
type Deal struct {
	CycleNumber uint64
	LeadID      string
	LeadName    string
	LeadEmail   string
	Amount      int64
}

// PaymentProcessor captures revenue for closed deals. Payment processing is
// external to the engine; a capture failure never changes engine counters.
type PaymentProcessor interface {
	CaptureDeal(ctx context.Context, deal Deal) error
}

// CreditReader exposes the time-derived credit counter.
type CreditReader interface {
	MintedAt(t time.Time) int64
}
