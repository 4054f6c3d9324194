package notify

import "sync"

// InteractionGate holds alert sounds back until the audio backend has
// been unlocked by an explicit user action. Sounds requested while
// locked are parked and replayed once, in order, on unlock.
type InteractionGate struct {
	mu       sync.Mutex
	unlocked bool
	parked   []func()
}

// NewInteractionGate returns a locked gate.
func NewInteractionGate() *InteractionGate {
	return &InteractionGate{}
}

// Run executes f immediately if the gate is unlocked and reports true.
// While locked it parks f for later and reports false.
func (g *InteractionGate) Run(f func()) bool {
	g.mu.Lock()
	if !g.unlocked {
		g.parked = append(g.parked, f)
		g.mu.Unlock()
		return false
	}
	g.mu.Unlock()

	f()
	return true
}

// Unlock opens the gate and runs everything parked so far. Unlocking
// an open gate does nothing.
func (g *InteractionGate) Unlock() {
	g.mu.Lock()
	if g.unlocked {
		g.mu.Unlock()
		return
	}
	g.unlocked = true
	parked := g.parked
	g.parked = nil
	g.mu.Unlock()

	for _, f := range parked {
		f()
	}
}

// Unlocked reports whether the gate is open.
func (g *InteractionGate) Unlocked() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.unlocked
}
