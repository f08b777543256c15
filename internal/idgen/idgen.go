// Package idgen produces sortable unique identifiers for sessions and
// session events.
package idgen

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Generator produces a new identifier on each call. Calling it n times
// in sequence within a single process must yield n values in strictly
// increasing lexicographic order.
type Generator interface {
	New() (string, error)
}

// UUIDv7Generator produces RFC 9562 version-7 UUIDs: a 48-bit
// millisecond timestamp followed by randomness, formatted as a
// canonical, lexicographically-sortable string.
type UUIDv7Generator struct{}

// New returns a new UUIDv7 string.
func (UUIDv7Generator) New() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("idgen: generating uuidv7: %w", err)
	}

	return id.String(), nil
}

// SequentialGenerator deterministically returns strictly increasing
// zero-padded ids, independent of wall-clock resolution. It exists for
// the session service tests, which need many ids in a tight loop without
// depending on the system clock's granularity.
type SequentialGenerator struct {
	mu   sync.Mutex
	next uint64
}

// New returns the next sequential id.
func (g *SequentialGenerator) New() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := fmt.Sprintf("%020d", g.next)
	g.next++

	return id, nil
}
