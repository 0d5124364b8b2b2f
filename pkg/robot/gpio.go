package robot

import (
	"fmt"
	"math"
	"time"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/physic"

	"github.com/SomethingsBruin/T-Shirt-Robot/pkg/mechanism"
)

// Servo-style PWM framing used by Victor and Talon motor controllers.
const (
	PWMFrequency = 50 * physic.Hertz
	pwmPeriod    = 20 * time.Millisecond
	pwmNeutral   = 1500 * time.Microsecond
	pwmSpan      = 500 * time.Microsecond
)

// PWMMotor is a motor controller on a PWM-capable pin.
type PWMMotor struct {
	pin  gpio.PinOut
	logf func(string, ...any)
}

// NewPWMMotor binds a motor controller to pin and drives it to neutral.
func NewPWMMotor(pin gpio.PinOut, logf func(string, ...any)) (*PWMMotor, error) {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	m := &PWMMotor{pin: pin, logf: logf}
	if err := pin.PWM(motorDuty(0), PWMFrequency); err != nil {
		return nil, fmt.Errorf("pwm %s: %w", pin, err)
	}
	return m, nil
}

func (m *PWMMotor) Set(v float64) {
	if err := m.pin.PWM(motorDuty(v), PWMFrequency); err != nil {
		m.logf("pwm %s: %v", m.pin, err)
	}
}

// motorDuty maps a drive value in [-1, 1] to the duty cycle of a
// 1.0 to 2.0 ms pulse in a 20 ms frame.
func motorDuty(v float64) gpio.Duty {
	v = math.Max(-1, math.Min(1, v))
	pulse := float64(pwmNeutral) + v*float64(pwmSpan)
	return gpio.Duty(math.Round(float64(gpio.DutyMax) * pulse / float64(pwmPeriod)))
}

// PinSwitch is a digital input, optionally active low.
type PinSwitch struct {
	pin       gpio.PinIn
	activeLow bool
}

func NewPinSwitch(pin gpio.PinIn, activeLow bool) (*PinSwitch, error) {
	pull := gpio.PullDown
	if activeLow {
		pull = gpio.PullUp
	}
	if err := pin.In(pull, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("input %s: %w", pin, err)
	}
	return &PinSwitch{pin: pin, activeLow: activeLow}, nil
}

func (s *PinSwitch) Get() bool {
	return (s.pin.Read() == gpio.High) != s.activeLow
}

// PinRelay is a spike relay driven by a forward pin and an optional reverse pin.
type PinRelay struct {
	fwd  gpio.PinOut
	rev  gpio.PinOut
	logf func(string, ...any)
}

// NewPinRelay binds a relay and turns it off. rev may be nil for a
// forward-only relay.
func NewPinRelay(fwd, rev gpio.PinOut, logf func(string, ...any)) (*PinRelay, error) {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	r := &PinRelay{fwd: fwd, rev: rev, logf: logf}
	if err := r.write(mechanism.RelayOff); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *PinRelay) Set(v mechanism.RelayValue) {
	if err := r.write(v); err != nil {
		r.logf("relay: %v", err)
	}
}

func (r *PinRelay) write(v mechanism.RelayValue) error {
	fwd, rev := relayLevels(v)
	if err := r.fwd.Out(fwd); err != nil {
		return fmt.Errorf("relay %s: %w", r.fwd, err)
	}
	if r.rev == nil {
		return nil
	}
	if err := r.rev.Out(rev); err != nil {
		return fmt.Errorf("relay %s: %w", r.rev, err)
	}
	return nil
}

func relayLevels(v mechanism.RelayValue) (fwd, rev gpio.Level) {
	switch v {
	case mechanism.RelayForward:
		return gpio.High, gpio.Low
	case mechanism.RelayReverse:
		return gpio.Low, gpio.High
	default:
		return gpio.Low, gpio.Low
	}
}

func pinByName(name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio pin %q not found", name)
	}
	return p, nil
}
