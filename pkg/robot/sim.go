package robot

import (
	"math"
	"sync"
	"time"

	"github.com/SomethingsBruin/T-Shirt-Robot/pkg/mechanism"
)

// SimConfig shapes the simulated shooter.
type SimConfig struct {
	// PivotRate is potentiometer units per second at full drive. The
	// potentiometer reads lower as the pivot drive goes positive.
	PivotRate     float64 `yaml:"pivot_rate"`
	PotMin        float64 `yaml:"pot_min"`
	PotMax        float64 `yaml:"pot_max"`
	StartPosition float64 `yaml:"start_position"`

	// CockTime is how long the cock motor runs before the limit switch closes.
	CockTime time.Duration `yaml:"cock_time"`

	// Tank pressure is a fraction of full. The compressor adds FillRate per
	// second and a fully open valve drains DrainRate per second.
	FillRate    float64 `yaml:"fill_rate"`
	DrainRate   float64 `yaml:"drain_rate"`
	LowPressure float64 `yaml:"low_pressure"`
}

func DefaultSimConfig() SimConfig {
	return SimConfig{
		PivotRate:     400,
		PotMin:        0,
		PotMax:        1023,
		StartPosition: 500,
		CockTime:      1500 * time.Millisecond,
		FillRate:      0.05,
		DrainRate:     2.0,
		LowPressure:   0.6,
	}
}

// DefaultSimTunables returns tunables whose arm thresholds sit inside the
// default simulated potentiometer range, so every seek reaches its target.
func DefaultSimTunables() mechanism.Tunables {
	t := mechanism.DefaultTunables()
	t.ArmMinimumExtreme = 800
	t.ArmMaximumExtreme = 200
	t.SeekTimeout = 5 * time.Second
	return t
}

// SimState is a snapshot of the simulated shooter.
type SimState struct {
	Potent      float64
	Pressure    float64
	LimitClosed bool
	Compressor  mechanism.RelayValue
	CameraLight mechanism.RelayValue
}

// Sim integrates the shooter's outputs over time so the mechanism can run
// without a robot attached.
type Sim struct {
	cfg SimConfig
	now func() time.Time

	mu       sync.Mutex
	last     time.Time
	pot      float64
	pressure float64
	cockRun  time.Duration

	pivot, valve, cock   float64
	intakeOne, intakeTwo float64
	compressor, light    mechanism.RelayValue
}

// NewSim starts a simulated shooter with a full tank. now may be nil for the
// wall clock.
func NewSim(cfg SimConfig, now func() time.Time) *Sim {
	if now == nil {
		now = time.Now
	}
	return &Sim{
		cfg:      cfg,
		now:      now,
		last:     now(),
		pot:      cfg.StartPosition,
		pressure: 1,
	}
}

// advance integrates the current outputs up to now. Callers hold s.mu.
func (s *Sim) advance() {
	t := s.now()
	dt := t.Sub(s.last)
	s.last = t
	if dt <= 0 {
		return
	}
	sec := dt.Seconds()

	s.pot -= s.pivot * s.cfg.PivotRate * sec
	s.pot = math.Max(s.cfg.PotMin, math.Min(s.cfg.PotMax, s.pot))

	if s.cock != 0 {
		s.cockRun += dt
	}

	if s.compressor == mechanism.RelayForward {
		s.pressure += s.cfg.FillRate * sec
	}
	s.pressure -= math.Abs(s.valve) * s.cfg.DrainRate * sec
	s.pressure = math.Max(0, math.Min(1, s.pressure))
}

func (s *Sim) update(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advance()
	fn()
}

// State returns the simulated readings as of now.
func (s *Sim) State() SimState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advance()
	return SimState{
		Potent:      s.pot,
		Pressure:    s.pressure,
		LimitClosed: s.cockRun >= s.cfg.CockTime,
		Compressor:  s.compressor,
		CameraLight: s.light,
	}
}

type actuatorFunc func(float64)

func (f actuatorFunc) Set(v float64) { f(v) }

type sensorFunc func() float64

func (f sensorFunc) Position() float64 { return f() }

type switchFunc func() bool

func (f switchFunc) Get() bool { return f() }

type relayFunc func(mechanism.RelayValue)

func (f relayFunc) Set(v mechanism.RelayValue) { f(v) }

// Hardware returns mechanism handles backed by the simulation.
func (s *Sim) Hardware() mechanism.Hardware {
	return mechanism.Hardware{
		Pivot:     actuatorFunc(func(v float64) { s.update(func() { s.pivot = v }) }),
		IntakeOne: actuatorFunc(func(v float64) { s.update(func() { s.intakeOne = v }) }),
		IntakeTwo: actuatorFunc(func(v float64) { s.update(func() { s.intakeTwo = v }) }),
		Valve:     actuatorFunc(func(v float64) { s.update(func() { s.valve = v }) }),
		Cock: actuatorFunc(func(v float64) {
			s.update(func() {
				s.cock = v
				// The cam releases the limit switch once the motor stops.
				if v == 0 {
					s.cockRun = 0
				}
			})
		}),

		Potent:   sensorFunc(func() float64 { return s.State().Potent }),
		Limit:    switchFunc(func() bool { return s.State().LimitClosed }),
		Pressure: switchFunc(func() bool { return s.State().Pressure < s.cfg.LowPressure }),

		CameraLight: relayFunc(func(v mechanism.RelayValue) { s.update(func() { s.light = v }) }),
		Compressor:  relayFunc(func(v mechanism.RelayValue) { s.update(func() { s.compressor = v }) }),
	}
}
