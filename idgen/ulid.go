package idgen

import (
	"crypto/rand"
	"sync"

	"github.com/aatuh/radioclock/ports"
	"github.com/oklog/ulid/v2"
)

// ULIDGen issues lexicographically sortable IDs for widgets and fetches.
// IDs from one generator are strictly increasing even within a millisecond.
type ULIDGen struct {
	clock   ports.Clock
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func (g *ULIDGen) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	t := g.clock.Now().UTC()
	return ulid.MustNew(ulid.Timestamp(t), g.entropy).String()
}

// NewULIDGen creates a new ULID generator that implements ports.IDGen.
func NewULIDGen(clock ports.Clock) ports.IDGen {
	return &ULIDGen{clock: clock, entropy: ulid.Monotonic(rand.Reader, 0)}
}
