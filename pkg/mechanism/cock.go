package mechanism

import (
	"context"
	"time"
)

// CockPollInterval is how often the cock sequence samples the limit switch.
const CockPollInterval = 50 * time.Millisecond

// cock runs the cocking motor and the intakes until the limit switch closes.
// There is no timeout; a switch that never closes keeps the motor energized
// until the task is cancelled.
func (m *Mechanism) cock(ctx context.Context) error {
	m.hw.Cock.Set(1.0)
	m.Intake()
	defer func() {
		m.hw.Cock.Set(0.0)
		m.StopIntake()
	}()

	for !m.hw.Limit.Get() {
		select {
		case <-ctx.Done():
			m.logf("cock: cancelled before limit switch")
			return ctx.Err()
		case <-m.clock.After(CockPollInterval):
		}
	}
	m.logf("cock: limit switch pressed")
	return nil
}
