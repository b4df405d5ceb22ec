package credits

import (
	"testing"
	"time"

	"revenue_backend/platform/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintedAtIsPureFunctionOfTime(t *testing.T) {
	genesis := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMinter(&config.Config{CreditsGenesis: genesis, CreditsPerSecond: 3})
	require.NotNil(t, m)

	at := genesis.Add(90*time.Second + 900*time.Millisecond)
	assert.Equal(t, int64(270), m.MintedAt(at))
	assert.Equal(t, m.MintedAt(at), m.MintedAt(at))
	assert.Zero(t, m.MintedAt(genesis.Add(-time.Hour)))
}

func TestNoGenesisDisablesMinting(t *testing.T) {
	m := NewMinter(&config.Config{})
	assert.Nil(t, m)
	assert.Zero(t, m.MintedAt(time.Now()))
}
