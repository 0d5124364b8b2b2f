package mechanism

import (
	"context"
	"fmt"
)

// ArmTarget is a discrete arm setpoint.
type ArmTarget int

const (
	ArmBottom ArmTarget = iota
	ArmTop
	ArmMiddle
)

func (t ArmTarget) String() string {
	switch t {
	case ArmBottom:
		return "bottom"
	case ArmTop:
		return "top"
	case ArmMiddle:
		return "middle"
	default:
		return fmt.Sprintf("ArmTarget(%d)", int(t))
	}
}

// Valid reports whether t is one of the three setpoints.
func (t ArmTarget) Valid() bool {
	return t >= ArmBottom && t <= ArmMiddle
}

// SeekState is the phase of an arm seek.
type SeekState int

const (
	SeekIdle SeekState = iota
	SeekingBottom
	SeekingTop
	SeekingMiddleDown
	SeekingMiddleUp
	SeekDone
)

func (s SeekState) String() string {
	switch s {
	case SeekingBottom:
		return "SeekingBottom"
	case SeekingTop:
		return "SeekingTop"
	case SeekingMiddleDown:
		return "SeekingMiddleDown"
	case SeekingMiddleUp:
		return "SeekingMiddleUp"
	case SeekDone:
		return "Done"
	default:
		return "Idle"
	}
}

// seekStateFor picks the first phase for target. Middle compares the current
// reading against the middle-up position once, before the loop starts.
func seekStateFor(target ArmTarget, pos float64, t Tunables) SeekState {
	switch target {
	case ArmBottom:
		return SeekingBottom
	case ArmTop:
		return SeekingTop
	default:
		if pos < t.ArmMiddleUpPosition {
			return SeekingMiddleDown
		}
		return SeekingMiddleUp
	}
}

// seekArm drives the pivot until the threshold for target flips.
//
// Bottom keeps driving while at or below the minimum extreme and top while at
// or above the maximum extreme. The directions follow the potentiometer
// wiring on the robot; do not flip them without measuring. The pivot is left
// at its last command when the seek completes.
func (m *Mechanism) seekArm(ctx context.Context, target ArmTarget, t Tunables) error {
	var pos float64
	if target == ArmMiddle {
		pos = m.Potent()
	}
	state := seekStateFor(target, pos, t)
	m.seekState.Store(int32(state))
	m.logf("arm seek %s: %s", target, state)

	var (
		more  func() bool
		drive func()
	)
	switch state {
	case SeekingBottom:
		more = func() bool { return m.Potent() <= t.ArmMinimumExtreme }
		drive = func() { m.LowerArm(t.ArmDownSpeed) }
	case SeekingTop:
		more = func() bool { return m.Potent() >= t.ArmMaximumExtreme }
		drive = func() { m.RaiseArm(-t.ArmUpSpeed) }
	case SeekingMiddleDown:
		more = func() bool { return m.Potent() < t.ArmMiddleDownPosition }
		drive = func() { m.LowerArm(-t.ArmMiddleDownSpeed) }
	case SeekingMiddleUp:
		more = func() bool { return m.Potent() > t.ArmMiddleUpPosition }
		drive = func() { m.RaiseArm(-t.ArmMiddleUpSpeed) }
	}

	start := m.clock.Now()
	for more() {
		if err := ctx.Err(); err != nil {
			m.StopArm()
			m.seekState.Store(int32(SeekIdle))
			return err
		}
		if t.SeekTimeout > 0 && m.clock.Now().Sub(start) >= t.SeekTimeout {
			m.StopArm()
			m.seekState.Store(int32(SeekIdle))
			m.logf("arm seek %s: timed out after %v", target, t.SeekTimeout)
			return &Error{Kind: SeekTimeout, Op: "set arm", Msg: state.String()}
		}
		drive()
	}

	m.seekState.Store(int32(SeekDone))
	m.logf("arm seek %s: done at %.1f", target, m.Potent())
	return nil
}
