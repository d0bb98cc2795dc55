package core

import "math"

// DeltaPercent reports the percent change from previous to current, rounded
// to one decimal place. A zero baseline yields 0 when the current value is
// also zero and 100 when it grew, so period-over-period cards never divide
// by zero.
func DeltaPercent(current, previous float64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return roundTo1((current - previous) / previous * 100)
}

// FromMicros converts a money amount expressed in micro units to whole
// currency units.
func FromMicros(micros int64) float64 {
	return float64(micros) / 1e6
}

// RateToPercent converts a 0..1 ratio to a percentage rounded to one decimal.
func RateToPercent(rate float64) float64 {
	return roundTo1(rate * 100)
}

func roundTo1(value float64) float64 {
	return math.Round(value*10) / 10
}
