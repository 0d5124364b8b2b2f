package mechanism

import (
	"sync"
	"time"
)

// fakeActuator keeps the write count, the last value and the first writes.
type fakeActuator struct {
	mu      sync.Mutex
	n       int
	last    float64
	history []float64
}

const historyCap = 64

func (a *fakeActuator) Set(v float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.n++
	a.last = v
	if len(a.history) < historyCap {
		a.history = append(a.history, v)
	}
}

func (a *fakeActuator) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.n
}

func (a *fakeActuator) Last() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

func (a *fakeActuator) History() []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]float64(nil), a.history...)
}

// seqSensor returns readings in order and repeats the last one forever.
type seqSensor struct {
	mu    sync.Mutex
	vals  []float64
	i     int
	reads int
}

func (s *seqSensor) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if len(s.vals) == 0 {
		return 0
	}
	v := s.vals[s.i]
	if s.i < len(s.vals)-1 {
		s.i++
	}
	return v
}

// seqSwitch returns samples in order and repeats the last one forever.
type seqSwitch struct {
	mu   sync.Mutex
	vals []bool
	i    int
}

func (s *seqSwitch) Get() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.vals) == 0 {
		return false
	}
	v := s.vals[s.i]
	if s.i < len(s.vals)-1 {
		s.i++
	}
	return v
}

type fakeRelay struct {
	mu     sync.Mutex
	writes []RelayValue
}

func (r *fakeRelay) Set(v RelayValue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, v)
}

func (r *fakeRelay) Writes() []RelayValue {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RelayValue(nil), r.writes...)
}

// manualClock advances only when told to, when After is called, or by tick
// on every Now. With block set, After never fires.
type manualClock struct {
	mu    sync.Mutex
	now   time.Time
	tick  time.Duration
	block bool
	gate  chan time.Time
	waits []time.Duration
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2014, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.tick)
	return c.now
}

func (c *manualClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waits = append(c.waits, d)
	if c.gate != nil {
		return c.gate
	}
	if c.block {
		return nil
	}
	c.now = c.now.Add(d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *manualClock) Waits() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.waits...)
}

type rig struct {
	pivot, intakeOne, intakeTwo, valve, cock *fakeActuator
	potent                                   *seqSensor
	limit, pressure                          *seqSwitch
	light, compressor                        *fakeRelay
	clock                                    *manualClock
}

func newRig() *rig {
	return &rig{
		pivot:      &fakeActuator{},
		intakeOne:  &fakeActuator{},
		intakeTwo:  &fakeActuator{},
		valve:      &fakeActuator{},
		cock:       &fakeActuator{},
		potent:     &seqSensor{},
		limit:      &seqSwitch{},
		pressure:   &seqSwitch{},
		light:      &fakeRelay{},
		compressor: &fakeRelay{},
		clock:      newManualClock(),
	}
}

func (r *rig) hardware() Hardware {
	return Hardware{
		Pivot:       r.pivot,
		IntakeOne:   r.intakeOne,
		IntakeTwo:   r.intakeTwo,
		Valve:       r.valve,
		Cock:        r.cock,
		Potent:      r.potent,
		Limit:       r.limit,
		Pressure:    r.pressure,
		CameraLight: r.light,
		Compressor:  r.compressor,
	}
}

func (r *rig) mechanism(t interface{ Fatalf(string, ...any) }, tun *Tunables) *Mechanism {
	m, err := New(r.hardware(), Options{Clock: r.clock, Tunables: tun})
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	return m
}
