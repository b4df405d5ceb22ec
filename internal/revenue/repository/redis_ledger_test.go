package repository

import (
	"context"
	"testing"
	"time"

	"revenue_backend/internal/revenue/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedger(t *testing.T, limit int64) (*RedisLedger, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLedger(client, "", limit), mr
}

func TestRedisLedgerAppendsAndTrims(t *testing.T) {
	ledger, mr := newLedger(t, 3)
	ctx := context.Background()

	for i := uint64(1); i <= 5; i++ {
		require.NoError(t, ledger.Append(ctx, domain.CycleSummary{
			CycleNumber:      i,
			Trigger:          domain.TriggerScheduler,
			StartedAt:        time.Date(2026, 1, 1, 0, 0, int(i), 0, time.UTC),
			RevenueThisCycle: int64(i) * 100,
		}))
	}

	items, err := mr.List(DefaultRedisKey)
	require.NoError(t, err)
	assert.Len(t, items, 3)

	recent, err := ledger.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, uint64(3), recent[0].CycleNumber)
	assert.Equal(t, uint64(5), recent[2].CycleNumber)
	assert.Equal(t, int64(500), recent[2].RevenueThisCycle)
}

func TestRedisLedgerReportsConnectionErrors(t *testing.T) {
	ledger, mr := newLedger(t, 3)
	mr.Close()

	err := ledger.Append(context.Background(), domain.CycleSummary{CycleNumber: 1})
	assert.Error(t, err)
}

func TestNewRedisClientParsesURL(t *testing.T) {
	client, err := NewRedisClient("rediss://:secret@localhost:6380/2", true)
	require.NoError(t, err)
	defer client.Close()

	opts := client.Options()
	assert.Equal(t, "localhost:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	require.NotNil(t, opts.TLSConfig)
	assert.True(t, opts.TLSConfig.InsecureSkipVerify)

	_, err = NewRedisClient("://bad", false)
	assert.Error(t, err)
}
