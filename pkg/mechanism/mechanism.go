// Package mechanism coordinates the shooter robot's arm, intake, firing valve,
// cocking motor, compressor and camera light.
//
// A Mechanism owns every hardware handle. Immediate operations (Intake,
// LowerArm, LightOn, ...) write synchronously. SetArm and Shoot start
// background tasks; each runs in a single-slot supervisor so at most one arm
// seek and one cock sequence are alive at a time.
package mechanism

import (
	"context"
	"sync/atomic"
	"time"
)

// Options configures a Mechanism.
type Options struct {
	// Clock drives pulses, polls and seek deadlines. Defaults to the wall clock.
	Clock Clock
	// Tunables is the initial snapshot. Defaults to DefaultTunables.
	Tunables *Tunables
	// Logf receives progress messages from background tasks.
	Logf func(format string, args ...any)
}

// Mechanism is the facade over the arm, intake and shooter hardware.
type Mechanism struct {
	hw    Hardware
	clock Clock
	logf  func(format string, args ...any)

	ctx    context.Context
	cancel context.CancelFunc

	tunables atomic.Pointer[Tunables]

	shooter    *Shooter
	compressor *Compressor
	arm        *task
	cocker     *task

	seekState atomic.Int32
	light     atomic.Int32
}

// Status is a point-in-time view of the mechanism.
type Status struct {
	Potent      float64
	SettingArm  bool
	SeekState   SeekState
	Shooting    bool
	Firing      bool
	Compressing bool
	Light       RelayValue
	ArmErr      error
}

// New builds a Mechanism over hw.
func New(hw Hardware, opts Options) (*Mechanism, error) {
	if err := hw.validate(); err != nil {
		return nil, err
	}
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock()
	}
	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}
	t := DefaultTunables()
	if opts.Tunables != nil {
		t = *opts.Tunables
	}
	if err := t.Validate(); err != nil {
		return nil, &Error{Kind: InvalidArgument, Op: "new", Err: err}
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Mechanism{
		hw:         hw,
		clock:      clock,
		logf:       logf,
		ctx:        ctx,
		cancel:     cancel,
		shooter:    NewShooter(hw.Valve, clock),
		compressor: NewCompressor(hw.Compressor),
		arm:        newTask("set arm"),
		cocker:     newTask("shoot"),
	}
	m.tunables.Store(&t)
	return m, nil
}

// Close cancels and joins background tasks and zeroes every motor output.
func (m *Mechanism) Close() error {
	m.StopTasks()
	m.cancel()
	m.StopArm()
	m.StopIntake()
	m.hw.Valve.Set(0.0)
	m.hw.Cock.Set(0.0)
	return nil
}

// Tunables returns the current snapshot.
func (m *Mechanism) Tunables() Tunables {
	return *m.tunables.Load()
}

// SetTunables replaces the snapshot used by tasks started from now on.
// Running tasks keep the snapshot they started with.
func (m *Mechanism) SetTunables(t Tunables) error {
	if err := t.Validate(); err != nil {
		return &Error{Kind: InvalidArgument, Op: "set tunables", Err: err}
	}
	m.tunables.Store(&t)
	return nil
}

// Intake runs both intake motors full forward.
func (m *Mechanism) Intake() {
	m.hw.IntakeOne.Set(1.0)
	m.hw.IntakeTwo.Set(1.0)
}

// Eject runs both intake motors full reverse.
func (m *Mechanism) Eject() {
	m.hw.IntakeOne.Set(-1.0)
	m.hw.IntakeTwo.Set(-1.0)
}

// StopIntake stops both intake motors.
func (m *Mechanism) StopIntake() {
	m.hw.IntakeOne.Set(0.0)
	m.hw.IntakeTwo.Set(0.0)
}

// LowerArm drives the pivot at speed.
func (m *Mechanism) LowerArm(speed float64) {
	m.hw.Pivot.Set(speed)
}

// RaiseArm drives the pivot at -speed.
func (m *Mechanism) RaiseArm(speed float64) {
	m.hw.Pivot.Set(-speed)
}

// StopArm holds the pivot where it is.
func (m *Mechanism) StopArm() {
	m.hw.Pivot.Set(0.0)
}

// Potent returns the arm potentiometer reading.
func (m *Mechanism) Potent() float64 {
	return m.hw.Potent.Position()
}

// SetArm starts a seek toward target. It returns Busy while a previous seek
// is alive and InvalidArgument for an unknown target.
func (m *Mechanism) SetArm(target ArmTarget) error {
	if !target.Valid() {
		return &Error{Kind: InvalidArgument, Op: "set arm", Msg: target.String()}
	}
	t := m.Tunables()
	return m.arm.Start(m.ctx, func(ctx context.Context) error {
		return m.seekArm(ctx, target, t)
	})
}

// PreemptArm cancels a live seek, waits for it to stop the pivot, then seeks
// toward target.
func (m *Mechanism) PreemptArm(target ArmTarget) error {
	if !target.Valid() {
		return &Error{Kind: InvalidArgument, Op: "set arm", Msg: target.String()}
	}
	t := m.Tunables()
	m.arm.Preempt(m.ctx, func(ctx context.Context) error {
		return m.seekArm(ctx, target, t)
	})
	return nil
}

// IsSettingArm reports whether an arm seek is alive.
func (m *Mechanism) IsSettingArm() bool {
	return m.arm.Running()
}

// ArmErr returns the result of the last finished seek.
func (m *Mechanism) ArmErr() error {
	return m.arm.Err()
}

// WaitArm blocks until the current seek returns or ctx is done.
func (m *Mechanism) WaitArm(ctx context.Context) error {
	return m.arm.Wait(ctx)
}

// Shoot starts the cock sequence. It returns Busy while a previous one is alive.
func (m *Mechanism) Shoot() error {
	return m.cocker.Start(m.ctx, m.cock)
}

// IsShooting reports whether the cock sequence is alive.
func (m *Mechanism) IsShooting() bool {
	return m.cocker.Running()
}

// WaitShoot blocks until the current cock sequence returns or ctx is done.
func (m *Mechanism) WaitShoot(ctx context.Context) error {
	return m.cocker.Wait(ctx)
}

// ShootFire pulses the firing valve for delay, blocking the caller. A delay
// of zero or less uses the snapshot's ShootingDelay.
func (m *Mechanism) ShootFire(delay time.Duration) error {
	if delay <= 0 {
		delay = m.Tunables().ShootingDelay
	}
	err := m.shooter.Shoot(delay)
	if err == nil {
		m.logf("fire: %v pulse", delay)
	}
	return err
}

// RunCompressor samples the pressure switch and regulates the compressor.
func (m *Mechanism) RunCompressor() {
	m.compressor.Regulate(m.hw.Pressure.Get())
}

// StopTasks cancels and joins the arm seek and the cock sequence.
func (m *Mechanism) StopTasks() {
	m.arm.Stop()
	m.cocker.Stop()
}

// LightOn turns the camera light on.
func (m *Mechanism) LightOn() {
	m.hw.CameraLight.Set(RelayForward)
	m.light.Store(int32(RelayForward))
}

// LightOff turns the camera light off.
func (m *Mechanism) LightOff() {
	m.hw.CameraLight.Set(RelayOff)
	m.light.Store(int32(RelayOff))
}

// Status returns a snapshot for display.
func (m *Mechanism) Status() Status {
	return Status{
		Potent:      m.Potent(),
		SettingArm:  m.IsSettingArm(),
		SeekState:   SeekState(m.seekState.Load()),
		Shooting:    m.IsShooting(),
		Firing:      m.shooter.Firing(),
		Compressing: m.compressor.Running(),
		Light:       RelayValue(m.light.Load()),
		ArmErr:      m.ArmErr(),
	}
}
