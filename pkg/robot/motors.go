// Package robot builds the shooter's hardware from configuration.
//
// The arm pivot is a feetech servo on a serial bus. Intake, valve and cock
// motors are PWM motor controllers on GPIO pins; switches and relays are GPIO
// or, optionally, a Modbus TCP I/O module. A simulated backend stands in for
// all of it when no robot is attached.
package robot

// OutputName identifies a PWM motor output.
type OutputName string

// Motor outputs on the shooter.
const (
	IntakeOne OutputName = "intake_one"
	IntakeTwo OutputName = "intake_two"
	Valve     OutputName = "valve"
	Cock      OutputName = "cock"
)

// AllOutputs returns all PWM outputs in wiring order.
func AllOutputs() []OutputName {
	return []OutputName{
		IntakeOne,
		IntakeTwo,
		Valve,
		Cock,
	}
}
