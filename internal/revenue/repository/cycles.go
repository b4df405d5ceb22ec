// Package repository holds the durable write-behind sinks for sealed cycles.
package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"revenue_backend/internal/revenue/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CycleStore appends sealed cycle summaries to Postgres.
type CycleStore struct {
	pool *pgxpool.Pool
}

// NewCycleStore creates a Postgres sink.
func NewCycleStore(pool *pgxpool.Pool) *CycleStore {
	return &CycleStore{pool: pool}
}

// Name identifies the sink in logs.
func (s *CycleStore) Name() string { return "postgres" }

// Append inserts summary. Cycle numbers restart with the process, so rows
// are keyed by start time and number; re-appending a row is a no-op.
func (s *CycleStore) Append(ctx context.Context, summary domain.CycleSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode cycle summary: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO revenue_cycles (
			cycle_number, trigger, started_at, ended_at, duration_ms,
			leads, emails_sent, sms_sent, calls_made, deals_closed,
			revenue_this_cycle, total_revenue, summary
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (started_at, cycle_number) DO NOTHING
	`,
		int64(summary.CycleNumber), string(summary.Trigger), summary.StartedAt, summary.EndedAt, summary.DurationMs,
		summary.Leads, summary.EmailsSent, summary.SMSSent, summary.CallsMade, summary.DealsClosed,
		summary.RevenueThisCycle, summary.TotalRevenue, payload,
	)
	if err != nil {
		return fmt.Errorf("insert revenue cycle %d: %w", summary.CycleNumber, err)
	}
	return nil
}
