package teleop

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SomethingsBruin/T-Shirt-Robot/pkg/mechanism"
)

// fakeMech records calls by name.
type fakeMech struct {
	mu       sync.Mutex
	calls    []string
	lastArm  float64
	pot      float64
	setting  bool
	shootErr error
	fired    []time.Duration
	tunables mechanism.Tunables
	closed   bool
}

func newFakeMech() *fakeMech {
	t := mechanism.DefaultTunables()
	t.ArmMinimumExtreme = 800
	t.ArmMaximumExtreme = 200
	return &fakeMech{pot: 500, tunables: t}
}

func (f *fakeMech) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeMech) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeMech) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *fakeMech) Intake()     { f.record("Intake") }
func (f *fakeMech) Eject()      { f.record("Eject") }
func (f *fakeMech) StopIntake() { f.record("StopIntake") }
func (f *fakeMech) LowerArm(v float64) {
	f.record("LowerArm")
	f.lastArm = v
}
func (f *fakeMech) RaiseArm(v float64) {
	f.record("RaiseArm")
	f.lastArm = -v
}
func (f *fakeMech) StopArm() {
	f.record("StopArm")
	f.lastArm = 0
}
func (f *fakeMech) Potent() float64 { return f.pot }
func (f *fakeMech) SetArm(target mechanism.ArmTarget) error {
	f.record("SetArm " + target.String())
	return nil
}
func (f *fakeMech) IsSettingArm() bool { return f.setting }
func (f *fakeMech) Shoot() error {
	f.record("Shoot")
	return f.shootErr
}
func (f *fakeMech) ShootFire(d time.Duration) error {
	f.record("ShootFire")
	f.fired = append(f.fired, d)
	return nil
}
func (f *fakeMech) RunCompressor() { f.record("RunCompressor") }
func (f *fakeMech) StopTasks()     { f.record("StopTasks") }
func (f *fakeMech) LightOn()       { f.record("LightOn") }
func (f *fakeMech) LightOff()      { f.record("LightOff") }
func (f *fakeMech) Tunables() mechanism.Tunables {
	return f.tunables
}
func (f *fakeMech) SetTunables(t mechanism.Tunables) error {
	if err := t.Validate(); err != nil {
		return err
	}
	f.tunables = t
	return nil
}
func (f *fakeMech) Status() mechanism.Status {
	return mechanism.Status{Potent: f.pot, SettingArm: f.setting}
}
func (f *fakeMech) Close() error {
	f.closed = true
	return nil
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestController_StepOrder(t *testing.T) {
	m := newFakeMech()
	c := NewController(m, Config{})

	c.Send(Intake())
	c.Send(SetArm(mechanism.ArmTop))
	c.Send(Light(true))
	c.step()

	want := []string{"Intake", "SetArm top", "LightOn", "StopArm", "RunCompressor"}
	if got := m.Calls(); !equal(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}

	m.reset()
	c.step()
	if got := m.Calls(); !equal(got, []string{"StopArm", "RunCompressor"}) {
		t.Errorf("idle step calls = %v", got)
	}
}

func TestController_Jog(t *testing.T) {
	tests := []struct {
		name string
		jog  float64
		pot  float64
		want string
		arm  float64
	}{
		{"down inside range", -0.5, 500, "LowerArm", -0.5},
		{"down past minimum", -0.5, 900, "StopArm", 0},
		{"up inside range", 0.5, 500, "RaiseArm", 0.5},
		{"up past maximum", 0.5, 100, "StopArm", 0},
		{"centered", 0, 500, "StopArm", 0},
	}
	for _, tt := range tests {
		m := newFakeMech()
		m.pot = tt.pot
		c := NewController(m, Config{})
		c.Send(Jog(tt.jog))
		c.step()

		calls := m.Calls()
		if len(calls) != 2 || calls[0] != tt.want {
			t.Errorf("%s: calls = %v, want %s first", tt.name, calls, tt.want)
		}
		if m.lastArm != tt.arm {
			t.Errorf("%s: pivot = %f, want %f", tt.name, m.lastArm, tt.arm)
		}
	}
}

func TestController_NoJogWhileSeeking(t *testing.T) {
	m := newFakeMech()
	m.setting = true
	c := NewController(m, Config{})
	c.Send(Jog(-1))
	c.step()

	if got := m.Calls(); !equal(got, []string{"RunCompressor"}) {
		t.Errorf("calls while seeking = %v, want only RunCompressor", got)
	}
}

func TestController_FirePresets(t *testing.T) {
	m := newFakeMech()
	c := NewController(m, Config{})
	for _, d := range []time.Duration{ShotShort, ShotMedium, ShotLong, ShotEmptyTank} {
		c.Send(Fire(d))
	}
	c.step()

	want := []time.Duration{50 * time.Millisecond, 100 * time.Millisecond, 150 * time.Millisecond, 500 * time.Millisecond}
	if len(m.fired) != len(want) {
		t.Fatalf("fired %v, want %v", m.fired, want)
	}
	for i := range want {
		if m.fired[i] != want[i] {
			t.Errorf("fired[%d] = %v, want %v", i, m.fired[i], want[i])
		}
	}
}

func TestController_CommandError(t *testing.T) {
	m := newFakeMech()
	m.shootErr = &mechanism.Error{Kind: mechanism.Busy, Op: "shoot"}
	c := NewController(m, Config{})

	c.Send(Cock())
	c.step()

	s := <-c.States()
	if !errors.Is(s.Error, mechanism.Busy) {
		t.Errorf("State.Error = %v, want busy", s.Error)
	}
	select {
	case line := <-c.Logs():
		if !strings.Contains(line, "cock: shoot: busy") {
			t.Errorf("log = %q", line)
		}
	default:
		t.Error("no log line for the failed command")
	}

	c.step()
	if s := <-c.States(); s.Error != nil {
		t.Errorf("State.Error on the next tick = %v, want nil", s.Error)
	}
}

func TestController_Tunables(t *testing.T) {
	m := newFakeMech()
	c := NewController(m, Config{})

	next := m.tunables
	next.ShootingDelay = 120 * time.Millisecond
	c.Send(SetTunables(next))
	bad := next
	bad.ArmUpSpeed = 4
	c.Send(SetTunables(bad))
	c.step()

	if m.tunables.ShootingDelay != 120*time.Millisecond {
		t.Errorf("ShootingDelay = %v, want 120ms", m.tunables.ShootingDelay)
	}
	if m.tunables.ArmUpSpeed == 4 {
		t.Error("invalid tunables were applied")
	}
}

func TestController_SendFull(t *testing.T) {
	c := NewController(newFakeMech(), Config{QueueSize: 1})
	if !c.Send(Intake()) {
		t.Fatal("Send() = false on an empty queue")
	}
	if c.Send(Eject()) {
		t.Error("Send() = true on a full queue")
	}
}

func TestController_StatesLatestWins(t *testing.T) {
	m := newFakeMech()
	c := NewController(m, Config{})
	c.step()
	m.pot = 321
	c.step()

	if s := <-c.States(); s.Status.Potent != 321 {
		t.Errorf("State.Potent = %f, want the latest 321", s.Status.Potent)
	}
}

func TestController_Start(t *testing.T) {
	m := newFakeMech()
	c := NewController(m, Config{Hz: 200})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	select {
	case <-c.States():
	case <-time.After(2 * time.Second):
		t.Fatal("no state published")
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Start() error = %v, want context.Canceled", err)
	}

	calls := m.Calls()
	tail := calls[len(calls)-3:]
	if !equal(tail, []string{"StopTasks", "StopArm", "StopIntake"}) {
		t.Errorf("shutdown calls = %v", tail)
	}

	if err := c.Close(); err != nil || !m.closed {
		t.Errorf("Close() = %v, closed = %v", err, m.closed)
	}
}

func TestCommand_String(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{Intake(), "intake"},
		{SetArm(mechanism.ArmMiddle), "set arm middle"},
		{Fire(ShotLong), "fire 150ms"},
		{Jog(-0.25), "jog -0.25"},
		{Light(false), "light off"},
		{Command{Kind: 99}, "Command(99)"},
	}
	for _, tt := range tests {
		if got := tt.cmd.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
