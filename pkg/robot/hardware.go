package robot

import (
	"context"
	"errors"
	"fmt"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/host"

	"github.com/SomethingsBruin/T-Shirt-Robot/pkg/mechanism"
)

// Backend is an opened set of shooter hardware.
type Backend struct {
	Hardware mechanism.Hardware

	// Sim is set for the simulated backend.
	Sim *Sim
	// Pivot is set for the hardware backend.
	Pivot *Pivot

	closers []func() error
}

// Close releases the bus and the Modbus connection.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

// Open builds the hardware described by cfg. logf receives runtime I/O errors
// from the devices, which have no error return of their own.
func Open(ctx context.Context, cfg *Config, logf func(string, ...any)) (*Backend, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	if logf == nil {
		logf = func(string, ...any) {}
	}

	if cfg.Backend == BackendSim {
		sim := NewSim(cfg.Sim, nil)
		return &Backend{Hardware: sim.Hardware(), Sim: sim}, nil
	}

	b := &Backend{}
	if err := b.openHardware(ctx, cfg, logf); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func (b *Backend) openHardware(ctx context.Context, cfg *Config, logf func(string, ...any)) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("init gpio host: %w", err)
	}

	pivot, err := NewPivot(cfg.Pivot, logf)
	if err != nil {
		return err
	}
	b.closers = append(b.closers, pivot.Close)
	if err := pivot.Enable(ctx); err != nil {
		return fmt.Errorf("enable pivot: %w", err)
	}
	b.closers = append(b.closers, func() error {
		dctx, cancel := context.WithTimeout(context.Background(), cfg.Pivot.Timeout)
		defer cancel()
		return pivot.Disable(dctx)
	})
	b.Pivot = pivot
	b.Hardware.Pivot = pivot
	b.Hardware.Potent = pivot

	motors := make(map[OutputName]mechanism.Actuator, len(AllOutputs()))
	for _, name := range AllOutputs() {
		pin, err := pinByName(cfg.Outputs[name])
		if err != nil {
			return fmt.Errorf("output %s: %w", name, err)
		}
		m, err := NewPWMMotor(pin, logf)
		if err != nil {
			return fmt.Errorf("output %s: %w", name, err)
		}
		motors[name] = m
	}
	b.Hardware.IntakeOne = motors[IntakeOne]
	b.Hardware.IntakeTwo = motors[IntakeTwo]
	b.Hardware.Valve = motors[Valve]
	b.Hardware.Cock = motors[Cock]

	var mb *ModbusIO
	if cfg.Modbus != nil && cfg.Modbus.Endpoint != "" {
		mb, err = NewModbusIO(*cfg.Modbus, logf)
		if err != nil {
			return fmt.Errorf("connect modbus %s: %w", cfg.Modbus.Endpoint, err)
		}
		b.closers = append(b.closers, mb.Close)
	}

	if b.Hardware.Limit, err = openSwitch(cfg.Switches.Limit, mb); err != nil {
		return fmt.Errorf("limit switch: %w", err)
	}
	if b.Hardware.Pressure, err = openSwitch(cfg.Switches.Pressure, mb); err != nil {
		return fmt.Errorf("pressure switch: %w", err)
	}
	if b.Hardware.CameraLight, err = openRelay(cfg.Relays.CameraLight, mb, logf); err != nil {
		return fmt.Errorf("camera light: %w", err)
	}
	if b.Hardware.Compressor, err = openRelay(cfg.Relays.Compressor, mb, logf); err != nil {
		return fmt.Errorf("compressor: %w", err)
	}
	return nil
}

func openSwitch(cfg SwitchConfig, mb *ModbusIO) (mechanism.Switch, error) {
	if cfg.ModbusInput != nil {
		return mb.Input(*cfg.ModbusInput, cfg.ActiveLow), nil
	}
	pin, err := pinByName(cfg.Pin)
	if err != nil {
		return nil, err
	}
	return NewPinSwitch(pin, cfg.ActiveLow)
}

func openRelay(cfg RelayConfig, mb *ModbusIO, logf func(string, ...any)) (mechanism.Relay, error) {
	if cfg.ModbusCoil != nil {
		return mb.Coil(*cfg.ModbusCoil), nil
	}
	fwd, err := pinByName(cfg.Forward)
	if err != nil {
		return nil, err
	}
	var rev gpio.PinOut
	if cfg.Reverse != "" {
		if rev, err = pinByName(cfg.Reverse); err != nil {
			return nil, err
		}
	}
	return NewPinRelay(fwd, rev, logf)
}
