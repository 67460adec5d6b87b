package idgen

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// suffixLen matches the 7 character ids handed out by the demo seeders
const suffixLen = 7

// EventPrefix marks ledger events. Their volume grows without bound, so
// they carry the full UUID.
const EventPrefix = "ev"

// Generator creates identifiers such as "b_3f9a1c2" or "u_8e0d4b7"
type Generator interface {
	NewID(prefix string) string
}

// Random generates prefix_xxxxxxx ids from a random UUID
type Random struct{}

// NewID returns prefix + "_" + 7 random hex characters, or the full UUID
// for EventPrefix
func (Random) NewID(prefix string) string {
	if prefix == EventPrefix {
		return prefix + "_" + uuid.NewString()
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLen]
	if prefix == "" {
		return suffix
	}
	return prefix + "_" + suffix
}

// Sequence hands out prefix_1, prefix_2, ... per prefix
type Sequence struct {
	mu       sync.Mutex
	counters map[string]int
}

// NewSequence creates a deterministic generator
func NewSequence() *Sequence {
	return &Sequence{counters: make(map[string]int)}
}

// NewID returns the next id for prefix
func (s *Sequence) NewID(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[prefix]++
	return fmt.Sprintf("%s_%d", prefix, s.counters[prefix])
}
