package inputnode

import (
	"net/netip"
	"sync"
)

// TargetStore holds the address data messages are currently sent to. The
// control listener writes it, the emitter reads it every tick; a reader
// sees either the old or the new address in full, never a mix of the two.
type TargetStore struct {
	mu   sync.RWMutex
	addr netip.AddrPort
}

func NewTargetStore(initial netip.AddrPort) *TargetStore {
	return &TargetStore{addr: initial}
}

// Load returns the latest committed target.
func (s *TargetStore) Load() netip.AddrPort {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Store replaces the target visible to subsequent Loads. Last write wins;
// no history is kept.
func (s *TargetStore) Store(addr netip.AddrPort) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addr = addr
}
