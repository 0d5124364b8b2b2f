package robot

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"
)

// Pivot drives the arm pivot through a feetech position servo. It looks like a
// speed controller to the mechanism: each Set moves the goal position by a
// step proportional to the drive value, and Position reports the servo's
// present position on the potentiometer scale.
type Pivot struct {
	bus     *feetech.Bus
	group   *feetech.ServoGroup
	id      int
	cal     PivotCalibration
	step    int
	timeout time.Duration
	logf    func(string, ...any)

	mu    sync.Mutex
	raw   int
	known bool
}

// NewPivot opens the serial bus and binds the pivot servo.
func NewPivot(cfg PivotConfig, logf func(string, ...any)) (*Pivot, error) {
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     cfg.Port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open bus: %w", err)
	}
	if logf == nil {
		logf = func(string, ...any) {}
	}

	return &Pivot{
		bus:     bus,
		group:   feetech.NewServoGroupByIDs(bus, cfg.ServoID),
		id:      cfg.ServoID,
		cal:     cfg.Calibration,
		step:    cfg.StepTicks,
		timeout: cfg.Timeout,
		logf:    logf,
	}, nil
}

// Close closes the pivot's bus connection.
func (p *Pivot) Close() error {
	return p.bus.Close()
}

// Enable enables torque on the pivot servo.
func (p *Pivot) Enable(ctx context.Context) error {
	return p.group.EnableAll(ctx)
}

// Disable disables torque on the pivot servo.
func (p *Pivot) Disable(ctx context.Context) error {
	return p.group.DisableAll(ctx)
}

// Set moves the goal position by v steps of StepTicks. Zero holds the last goal.
func (p *Pivot) Set(v float64) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.known {
		raw, err := p.readRaw(ctx)
		if err != nil {
			p.logf("pivot: %v", err)
			return
		}
		p.raw, p.known = raw, true
	}
	target := stepTarget(p.raw, v, p.step, p.cal)
	if err := p.group.SetPositions(ctx, feetech.PositionMap{p.id: target}); err != nil {
		p.logf("pivot: write position: %v", err)
		return
	}
	p.raw = target
}

// Position returns the present position on the potentiometer scale. A failed
// read reports the last goal.
func (p *Pivot) Position() float64 {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	raw, err := p.readRaw(ctx)
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.logf("pivot: %v", err)
		return p.cal.Normalize(p.raw)
	}
	if !p.known {
		p.raw, p.known = raw, true
	}
	return p.cal.Normalize(raw)
}

func (p *Pivot) readRaw(ctx context.Context) (int, error) {
	positions, err := p.group.Positions(ctx)
	if err != nil {
		return 0, fmt.Errorf("read position: %w", err)
	}
	raw, ok := positions[p.id]
	if !ok {
		return 0, fmt.Errorf("read position: servo %d did not answer", p.id)
	}
	return raw, nil
}

// stepTarget returns the goal for drive v applied to raw, kept inside the
// calibrated range.
func stepTarget(raw int, v float64, step int, cal PivotCalibration) int {
	v = math.Max(-1, math.Min(1, v))
	return cal.Clamp(raw + int(math.Round(v*float64(step))))
}
