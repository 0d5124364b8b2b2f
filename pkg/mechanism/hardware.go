package mechanism

import "time"

// Actuator is a motor output driven with a signed magnitude in [-1, 1].
// Callers are responsible for clamping.
type Actuator interface {
	Set(value float64)
}

// PositionSensor is a continuous, calibration-specific reading polled on demand.
type PositionSensor interface {
	Position() float64
}

// Switch is a boolean digital input (limit switch, pressure switch).
type Switch interface {
	Get() bool
}

// RelayValue is the tri-state output of a spike relay.
type RelayValue int

const (
	RelayOff RelayValue = iota
	RelayForward
	RelayReverse
)

func (v RelayValue) String() string {
	switch v {
	case RelayForward:
		return "Forward"
	case RelayReverse:
		return "Reverse"
	default:
		return "Off"
	}
}

// Relay is a tri-state relay output.
type Relay interface {
	Set(value RelayValue)
}

// Clock abstracts time so control loops can be driven by tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// Hardware holds every handle the mechanism owns.
type Hardware struct {
	Pivot     Actuator
	IntakeOne Actuator
	IntakeTwo Actuator
	Valve     Actuator
	Cock      Actuator

	Potent   PositionSensor
	Limit    Switch
	Pressure Switch

	CameraLight Relay
	Compressor  Relay
}

func (h Hardware) validate() error {
	switch {
	case h.Pivot == nil, h.IntakeOne == nil, h.IntakeTwo == nil, h.Valve == nil, h.Cock == nil:
		return &Error{Kind: InvalidArgument, Op: "new", Msg: "missing actuator"}
	case h.Potent == nil, h.Limit == nil, h.Pressure == nil:
		return &Error{Kind: InvalidArgument, Op: "new", Msg: "missing sensor"}
	case h.CameraLight == nil, h.Compressor == nil:
		return &Error{Kind: InvalidArgument, Op: "new", Msg: "missing relay"}
	}
	return nil
}
