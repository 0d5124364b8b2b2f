package robot

import "math"

// PivotCalibration maps the pivot servo's raw position onto the
// potentiometer scale the arm tunables are written in.
type PivotCalibration struct {
	RangeMin int     `yaml:"range_min"`
	RangeMax int     `yaml:"range_max"`
	PotMin   float64 `yaml:"pot_min"`
	PotMax   float64 `yaml:"pot_max"`
}

// DefaultPivotCalibration covers a full STS turn mapped onto a 10-bit potentiometer.
func DefaultPivotCalibration() PivotCalibration {
	return PivotCalibration{
		RangeMin: 0,
		RangeMax: 4095,
		PotMin:   0,
		PotMax:   1023,
	}
}

// IsCalibrated returns true if the raw range is non-empty.
func (c PivotCalibration) IsCalibrated() bool {
	return c.RangeMax > c.RangeMin
}

// Normalize converts a raw servo position to a potentiometer reading.
func (c PivotCalibration) Normalize(raw int) float64 {
	rangeSize := float64(c.RangeMax - c.RangeMin)
	if rangeSize == 0 {
		return c.PotMin
	}
	return c.PotMin + float64(raw-c.RangeMin)/rangeSize*(c.PotMax-c.PotMin)
}

// Denormalize converts a potentiometer reading to a raw servo position.
func (c PivotCalibration) Denormalize(pot float64) int {
	potSize := c.PotMax - c.PotMin
	if potSize == 0 {
		return c.RangeMin
	}
	return int(math.Round((pot-c.PotMin)/potSize*float64(c.RangeMax-c.RangeMin))) + c.RangeMin
}

// Clamp limits a raw position to the calibrated range.
func (c PivotCalibration) Clamp(raw int) int {
	if raw < c.RangeMin {
		return c.RangeMin
	}
	if raw > c.RangeMax {
		return c.RangeMax
	}
	return raw
}
