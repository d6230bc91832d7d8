package shared

import "sync"

// HaltGuard tracks aggregates that failed a consistency check. Once an
// aggregate is halted every further write against it is rejected until the
// operator intervenes; reads stay available.
type HaltGuard struct {
	mu     sync.RWMutex
	halted map[string]string
}

// NewHaltGuard constructs an empty guard.
func NewHaltGuard() *HaltGuard {
	return &HaltGuard{halted: make(map[string]string)}
}

// Halt marks the aggregate as corrupted with a reason.
func (g *HaltGuard) Halt(aggregate, reason string) {
	if g == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.halted[aggregate]; !ok {
		g.halted[aggregate] = reason
	}
}

// Check returns ErrAggregateHalted when the aggregate was halted.
func (g *HaltGuard) Check(aggregate string) error {
	if g == nil {
		return nil
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	if _, ok := g.halted[aggregate]; ok {
		return ErrAggregateHalted
	}
	return nil
}

// Reason reports the stored halt reason, if any.
func (g *HaltGuard) Reason(aggregate string) (string, bool) {
	if g == nil {
		return "", false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	reason, ok := g.halted[aggregate]
	return reason, ok
}
