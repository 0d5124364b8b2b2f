// Package shooter drives a teleoperated t-shirt cannon robot.
//
// The robot swings a pivoting arm between bottom, middle and top positions,
// pulls shirts in with two intake motors, cocks a firing mechanism against a
// limit switch and pulses a pneumatic valve to fire. A bang-bang compressor
// keeps the tank charged.
//
// # Installation
//
//	go install github.com/SomethingsBruin/T-Shirt-Robot/cmd/shooter@latest
//
// # Usage
//
// Find and calibrate the pivot servo and enter the wiring:
//
//	shooter setup
//
// Then drive the shooter from the terminal:
//
//	shooter run --watch
//
// Without a configuration file, run uses the simulated backend.
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/shooter: CLI with setup, run and info commands
//   - pkg/mechanism: arm seek, firing, cocking and compressor control
//   - pkg/robot: hardware backends, calibration and configuration
//   - pkg/teleop: periodic control loop
package shooter
