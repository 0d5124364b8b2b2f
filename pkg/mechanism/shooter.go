package mechanism

import (
	"sync"
	"time"
)

// RefractoryPeriod is the minimum time between the starts of two pulses.
const RefractoryPeriod = 500 * time.Millisecond

// Shooter opens the firing valve for a timed pulse.
//
// Shoot blocks its caller for the whole pulse and is not reentrant: a second
// call made while a pulse is open, or within RefractoryPeriod of the previous
// start, returns Busy without touching the valve.
type Shooter struct {
	valve Actuator
	clock Clock

	mu       sync.Mutex
	firing   bool
	fired    bool
	lastShot time.Time
}

// NewShooter returns a Shooter driving valve. A nil clock uses the wall clock.
func NewShooter(valve Actuator, clock Clock) *Shooter {
	if clock == nil {
		clock = SystemClock()
	}
	return &Shooter{valve: valve, clock: clock}
}

// Shoot opens the valve for delay and closes it again.
func (s *Shooter) Shoot(delay time.Duration) error {
	if !s.arm() {
		return &Error{Kind: Busy, Op: "shoot"}
	}

	s.valve.Set(1.0)
	<-s.clock.After(delay)
	s.valve.Set(0.0)

	s.mu.Lock()
	s.firing = false
	s.mu.Unlock()
	return nil
}

// ShootAsync runs Shoot on its own goroutine. The channel receives the result
// once the valve has closed, or Busy immediately when the guard refuses.
func (s *Shooter) ShootAsync(delay time.Duration) <-chan error {
	out := make(chan error, 1)
	go func() {
		out <- s.Shoot(delay)
	}()
	return out
}

// Firing reports whether a pulse is open.
func (s *Shooter) Firing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.firing
}

// arm checks the guard and claims the valve in one step.
func (s *Shooter) arm() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if s.firing {
		return false
	}
	if s.fired && now.Sub(s.lastShot) < RefractoryPeriod {
		return false
	}
	s.lastShot = now
	s.fired = true
	s.firing = true
	return true
}
