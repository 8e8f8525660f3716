package apply

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// IDGenerator generates IDs for tasks added without one.
type IDGenerator interface {
	NewTaskID() string
}

// IDGeneratorFunc is a helper to implement IDGenerator with a function.
type IDGeneratorFunc func() string

func (f IDGeneratorFunc) NewTaskID() string { return f() }

// AutoIDGenerator generates `auto-<unix ms>-<counter>-<random>` IDs. The counter
// keeps IDs unique when many are generated in the same millisecond.
type AutoIDGenerator struct {
	mu      sync.Mutex
	counter uint64
	now     func() time.Time
	entropy io.Reader
}

// NewAutoIDGenerator returns a new AutoIDGenerator.
func NewAutoIDGenerator() *AutoIDGenerator {
	return &AutoIDGenerator{
		now:     time.Now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// NewTaskID satisfies IDGenerator.
func (g *AutoIDGenerator) NewTaskID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.counter++
	now := g.now()
	id := ulid.MustNew(ulid.Timestamp(now), g.entropy)

	// The first 10 chars of a ULID are the timestamp, keep only the random part.
	random := strings.ToLower(id.String()[10:])

	return fmt.Sprintf("auto-%d-%d-%s", now.UnixMilli(), g.counter, random)
}
