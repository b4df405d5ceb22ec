package pipeline

import (
	"encoding/binary"
	"math/rand/v2"
	"sync"
	"time"
)

// Random is the single source of randomness for a pipeline: lead scores,
// prices, ids, simulated channel outcomes and close draws all come from it.
type Random interface {
	IntN(n int) int
	Float64() float64
	Uint64() uint64
}

// SeededRandom is a goroutine-safe PCG source.
type SeededRandom struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededRandom returns a deterministic source for seed. A zero seed picks
// one from the wall clock.
func NewSeededRandom(seed int64) *SeededRandom {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SeededRandom{rng: rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))}
}

func (r *SeededRandom) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}

func (r *SeededRandom) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

func (r *SeededRandom) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Uint64()
}

// randomReader adapts a Random to io.Reader so uuid generation draws from
// the same seeded stream.
type randomReader struct {
	rnd Random
}

func (r randomReader) Read(p []byte) (int, error) {
	var buf [8]byte
	for i := 0; i < len(p); i += 8 {
		binary.LittleEndian.PutUint64(buf[:], r.rnd.Uint64())
		copy(p[i:], buf[:])
	}
	return len(p), nil
}
