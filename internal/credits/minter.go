// Package credits derives the internal credit counter from wall-clock time.
// Nothing is stored: the minted amount is a pure function of the instant
// being asked about.
package credits

import (
	"time"

	"revenue_backend/platform/config"
)

// Minter computes credits minted since genesis.
type Minter struct {
	genesis   time.Time
	perSecond int64
}

// NewMinter returns nil when no genesis is configured.
func NewMinter(cfg config.CreditsConfig) *Minter {
	genesis := cfg.GetCreditsGenesis()
	if genesis.IsZero() {
		return nil
	}
	return &Minter{genesis: genesis.UTC(), perSecond: cfg.GetCreditsPerSecond()}
}

// MintedAt returns whole seconds since genesis times the mint rate. Instants
// before genesis mint nothing.
func (m *Minter) MintedAt(t time.Time) int64 {
	if m == nil || t.Before(m.genesis) {
		return 0
	}
	return int64(t.Sub(m.genesis)/time.Second) * m.perSecond
}
