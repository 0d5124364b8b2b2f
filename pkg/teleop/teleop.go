// Package teleop runs the shooter's periodic control loop.
//
// Operator input arrives as Commands through Send. Each tick the loop applies
// the queued commands, jogs the arm when no seek is running, regulates the
// compressor and publishes a State snapshot.
package teleop

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SomethingsBruin/T-Shirt-Robot/pkg/mechanism"
)

// Valve pulse lengths for the fire buttons.
const (
	ShotShort     = 50 * time.Millisecond
	ShotMedium    = 100 * time.Millisecond
	ShotLong      = 150 * time.Millisecond
	ShotEmptyTank = 500 * time.Millisecond
)

// Mechanism is the part of *mechanism.Mechanism the control loop drives.
type Mechanism interface {
	Intake()
	Eject()
	StopIntake()
	LowerArm(speed float64)
	RaiseArm(speed float64)
	StopArm()
	Potent() float64
	SetArm(target mechanism.ArmTarget) error
	IsSettingArm() bool
	Shoot() error
	ShootFire(delay time.Duration) error
	RunCompressor()
	StopTasks()
	LightOn()
	LightOff()
	Tunables() mechanism.Tunables
	SetTunables(t mechanism.Tunables) error
	Status() mechanism.Status
	Close() error
}

var _ Mechanism = (*mechanism.Mechanism)(nil)

// State represents the current state of the shooter. Error is the last
// command failure since the previous State.
type State struct {
	Status    mechanism.Status
	Jog       float64
	Timestamp time.Time
	Error     error
}

// Controller manages the control loop.
type Controller struct {
	mech Mechanism
	hz   int

	mu      sync.RWMutex
	running bool
	cmds    chan Command
	stateCh chan State
	log     *Log

	// Owned by the loop goroutine.
	jog     float64
	lastErr error
}

// Config holds configuration for the controller.
type Config struct {
	Hz int
	// QueueSize bounds pending commands. Defaults to 32.
	QueueSize int
	// Log receives loop messages. Pass the one handed to the mechanism and
	// hardware to get a single stream. Defaults to NewLog(10).
	Log *Log
}

// NewController creates a controller over m. The controller owns m and
// closes it in Close.
func NewController(m Mechanism, cfg Config) *Controller {
	if cfg.Hz <= 0 {
		cfg.Hz = 50
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 32
	}
	if cfg.Log == nil {
		cfg.Log = NewLog(10)
	}
	return &Controller{
		mech:    m,
		hz:      cfg.Hz,
		cmds:    make(chan Command, cfg.QueueSize),
		stateCh: make(chan State, 1),
		log:     cfg.Log,
	}
}

// Close closes the controller and its mechanism.
func (c *Controller) Close() error {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	if err := c.mech.Close(); err != nil {
		return fmt.Errorf("close mechanism: %w", err)
	}
	return nil
}

// States returns a channel that receives state updates.
func (c *Controller) States() <-chan State {
	return c.stateCh
}

// Logs returns a channel that receives log messages.
func (c *Controller) Logs() <-chan string {
	return c.log.Lines()
}

// Hz returns the control frequency.
func (c *Controller) Hz() int {
	return c.hz
}

// Logf formats a message onto the log channel.
func (c *Controller) Logf(format string, args ...any) {
	c.log.Printf(format, args...)
}

// Send queues cmd for the next tick. It reports false if the queue is full.
func (c *Controller) Send(cmd Command) bool {
	select {
	case c.cmds <- cmd:
		return true
	default:
		c.Logf("Dropped command: %s", cmd)
		return false
	}
}

// Start runs the control loop until ctx is done.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("already running")
	}
	c.running = true
	c.mu.Unlock()

	c.Logf("Control loop started at %d Hz", c.hz)

	ticker := time.NewTicker(time.Second / time.Duration(c.hz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return ctx.Err()
		case <-ticker.C:
			c.step()
		}
	}
}

func (c *Controller) step() {
drain:
	for {
		select {
		case cmd := <-c.cmds:
			c.apply(cmd)
		default:
			break drain
		}
	}

	if !c.mech.IsSettingArm() {
		c.jogArm()
	}
	c.mech.RunCompressor()

	c.sendState(State{
		Status:    c.mech.Status(),
		Jog:       c.jog,
		Timestamp: time.Now(),
		Error:     c.lastErr,
	})
	c.lastErr = nil
}

// jogArm moves the arm by hand, refusing to drive past the extremes.
func (c *Controller) jogArm() {
	t := c.mech.Tunables()
	pot := c.mech.Potent()
	switch {
	case c.jog < 0 && pot < t.ArmMinimumExtreme:
		c.mech.LowerArm(c.jog)
	case c.jog > 0 && pot > t.ArmMaximumExtreme:
		c.mech.RaiseArm(-c.jog)
	default:
		c.mech.StopArm()
	}
}

func (c *Controller) apply(cmd Command) {
	var err error
	switch cmd.Kind {
	case CmdIntake:
		c.mech.Intake()
	case CmdEject:
		c.mech.Eject()
	case CmdStopIntake:
		c.mech.StopIntake()
	case CmdSetArm:
		err = c.mech.SetArm(cmd.Target)
	case CmdCock:
		err = c.mech.Shoot()
	case CmdFire:
		// Blocks the loop for the pulse.
		err = c.mech.ShootFire(cmd.Delay)
	case CmdJog:
		c.jog = cmd.Jog
	case CmdLight:
		if cmd.On {
			c.mech.LightOn()
		} else {
			c.mech.LightOff()
		}
	case CmdTunables:
		err = c.mech.SetTunables(cmd.Tunables)
		if err == nil {
			c.Logf("Tunables updated")
		}
	case CmdStop:
		c.jog = 0
		c.mech.StopTasks()
		c.mech.StopArm()
		c.mech.StopIntake()
	}
	if err != nil {
		c.Logf("%s: %v", cmd, err)
		c.lastErr = err
	}
}

func (c *Controller) sendState(s State) {
	select {
	case c.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-c.stateCh:
		default:
		}
		c.stateCh <- s
	}
}

func (c *Controller) shutdown() {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	c.mech.StopTasks()
	c.mech.StopArm()
	c.mech.StopIntake()
	c.Logf("Control loop stopped")
}
