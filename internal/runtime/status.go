package runtime

import "sync/atomic"

// Status tracks the two liveness flags of a runtime instance. The flags are
// updated by unrelated tasks and never need joint consistency, so they stay
// independent atomics rather than one locked struct.
type Status struct {
	running atomic.Bool
	online  atomic.Bool
}

func (s *Status) IsRunning() bool {
	return s.running.Load()
}

func (s *Status) IsShutdown() bool {
	return !s.IsRunning()
}

// SetRunning flips running to true. Callers serialise through the runtime's
// "already running" check; this is not a compare-and-swap.
func (s *Status) SetRunning() {
	s.running.Store(true)
}

func (s *Status) ClearRunning() {
	s.running.Store(false)
}

// SetOnline records transport-level connectivity. Transports own this flag;
// the lifecycle never writes it.
func (s *Status) SetOnline(online bool) {
	s.online.Store(online)
}

func (s *Status) IsOnline() bool {
	return s.online.Load()
}

// Snapshot reads both flags independently; there is no cross-field atomicity.
func (s *Status) Snapshot() StatusContent {
	return StatusContent{
		Good:   s.IsRunning(),
		Online: s.IsOnline(),
	}
}
