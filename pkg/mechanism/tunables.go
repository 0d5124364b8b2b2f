package mechanism

import (
	"fmt"
	"time"
)

// Tunables is an immutable snapshot of the live-tunable arm and shooter values.
// A task reads the snapshot it was started with for its whole run.
type Tunables struct {
	ArmMinimumExtreme float64 `yaml:"arm_minimum_extreme" json:"arm_minimum_extreme"`
	ArmMaximumExtreme float64 `yaml:"arm_maximum_extreme" json:"arm_maximum_extreme"`
	ArmUpSpeed        float64 `yaml:"arm_up_speed" json:"arm_up_speed"`
	ArmDownSpeed      float64 `yaml:"arm_down_speed" json:"arm_down_speed"`

	ArmMiddleUpPosition   float64 `yaml:"arm_middle_up_position" json:"arm_middle_up_position"`
	ArmMiddleDownPosition float64 `yaml:"arm_middle_down_position" json:"arm_middle_down_position"`
	ArmMiddleUpSpeed      float64 `yaml:"arm_middle_up_speed" json:"arm_middle_up_speed"`
	ArmMiddleDownSpeed    float64 `yaml:"arm_middle_down_speed" json:"arm_middle_down_speed"`

	// ShootingDelay is the default valve pulse length.
	ShootingDelay time.Duration `yaml:"arm_shooting_delay" json:"arm_shooting_delay"`

	// SeekTimeout bounds an arm seek. Zero means unbounded.
	SeekTimeout time.Duration `yaml:"seek_timeout" json:"seek_timeout"`
}

// DefaultTunables returns the values the robot ships with.
func DefaultTunables() Tunables {
	return Tunables{
		ArmMinimumExtreme:     1000000,
		ArmMaximumExtreme:     -1000000,
		ArmUpSpeed:            1.0,
		ArmDownSpeed:          -1.0,
		ArmMiddleUpPosition:   220.0,
		ArmMiddleDownPosition: 220.0,
		ArmMiddleUpSpeed:      0.7,
		ArmMiddleDownSpeed:    0.35,
		ShootingDelay:         80 * time.Millisecond,
	}
}

// Validate checks that speeds are drive magnitudes and durations are not negative.
func (t Tunables) Validate() error {
	speeds := []struct {
		name string
		v    float64
	}{
		{"arm_up_speed", t.ArmUpSpeed},
		{"arm_down_speed", t.ArmDownSpeed},
		{"arm_middle_up_speed", t.ArmMiddleUpSpeed},
		{"arm_middle_down_speed", t.ArmMiddleDownSpeed},
	}
	for _, s := range speeds {
		if s.v < -1 || s.v > 1 {
			return fmt.Errorf("tunables: %s must be in [-1, 1], got %v", s.name, s.v)
		}
	}
	if t.ShootingDelay < 0 {
		return fmt.Errorf("tunables: arm_shooting_delay must be >= 0, got %v", t.ShootingDelay)
	}
	if t.SeekTimeout < 0 {
		return fmt.Errorf("tunables: seek_timeout must be >= 0, got %v", t.SeekTimeout)
	}
	return nil
}
