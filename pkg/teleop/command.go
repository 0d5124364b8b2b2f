package teleop

import (
	"fmt"
	"time"

	"github.com/SomethingsBruin/T-Shirt-Robot/pkg/mechanism"
)

// CommandKind selects what a Command does.
type CommandKind int

const (
	CmdIntake CommandKind = iota
	CmdEject
	CmdStopIntake
	CmdSetArm
	CmdCock
	CmdFire
	CmdJog
	CmdLight
	CmdTunables
	CmdStop
)

// Command is one operator action applied on the next tick.
type Command struct {
	Kind     CommandKind
	Target   mechanism.ArmTarget
	Delay    time.Duration
	Jog      float64
	On       bool
	Tunables mechanism.Tunables
}

func Intake() Command     { return Command{Kind: CmdIntake} }
func Eject() Command      { return Command{Kind: CmdEject} }
func StopIntake() Command { return Command{Kind: CmdStopIntake} }
func Cock() Command       { return Command{Kind: CmdCock} }
func Stop() Command       { return Command{Kind: CmdStop} }

func SetArm(target mechanism.ArmTarget) Command {
	return Command{Kind: CmdSetArm, Target: target}
}

// Fire pulses the valve for delay. Zero uses the configured shooting delay.
func Fire(delay time.Duration) Command {
	return Command{Kind: CmdFire, Delay: delay}
}

// Jog sets the held arm stick value. It stays in effect until the next Jog.
func Jog(v float64) Command {
	return Command{Kind: CmdJog, Jog: v}
}

func Light(on bool) Command {
	return Command{Kind: CmdLight, On: on}
}

func SetTunables(t mechanism.Tunables) Command {
	return Command{Kind: CmdTunables, Tunables: t}
}

func (c Command) String() string {
	switch c.Kind {
	case CmdIntake:
		return "intake"
	case CmdEject:
		return "eject"
	case CmdStopIntake:
		return "stop intake"
	case CmdSetArm:
		return "set arm " + c.Target.String()
	case CmdCock:
		return "cock"
	case CmdFire:
		return fmt.Sprintf("fire %v", c.Delay)
	case CmdJog:
		return fmt.Sprintf("jog %.2f", c.Jog)
	case CmdLight:
		if c.On {
			return "light on"
		}
		return "light off"
	case CmdTunables:
		return "set tunables"
	case CmdStop:
		return "stop"
	default:
		return fmt.Sprintf("Command(%d)", int(c.Kind))
	}
}
