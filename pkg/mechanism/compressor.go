package mechanism

import "sync"

// Compressor is a bang-bang regulator over a pressure switch and a relay.
// The relay is written only when the switch disagrees with the last known state.
type Compressor struct {
	relay Relay

	mu      sync.Mutex
	running bool
}

// NewCompressor returns a regulator that starts in the stopped state.
func NewCompressor(relay Relay) *Compressor {
	return &Compressor{relay: relay}
}

// Regulate applies one pressure-switch sample. pressureLow true means the
// tank needs air.
func (c *Compressor) Regulate(pressureLow bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case !pressureLow && c.running:
		c.relay.Set(RelayOff)
		c.running = false
	case pressureLow && !c.running:
		c.relay.Set(RelayForward)
		c.running = true
	}
}

// Running reports whether the compressor relay is currently on.
func (c *Compressor) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}
