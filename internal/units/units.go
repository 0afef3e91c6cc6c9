// Package units provides shared constants and conversions for ASIC clocks
package units

import "math"

// Readout ASIC names
const (
	SPADIC = "spadic"
	FASP   = "fasp"
)

// Clock periods in nanoseconds
const (
	SpadicClockNs = 62.5
	FaspClockNs   = 12.5
)

// ValidAsics contains all valid ASIC names
var ValidAsics = []string{SPADIC, FASP}

// IsValid checks if the given ASIC name is known
func IsValid(asic string) bool {
	for _, a := range ValidAsics {
		if asic == a {
			return true
		}
	}
	return false
}

// ClockPeriod returns the sampling clock period in ns for the ASIC.
// Unknown names return 0.
func ClockPeriod(asic string) float64 {
	switch asic {
	case SPADIC:
		return SpadicClockNs
	case FASP:
		return FaspClockNs
	default:
		return 0
	}
}

// ClockToNs converts a count of clock ticks to nanoseconds.
func ClockToNs(ticks int64, periodNs float64) float64 {
	return float64(ticks) * periodNs
}

// NsToClock converts nanoseconds to the nearest clock tick.
func NsToClock(ns, periodNs float64) int64 {
	if periodNs <= 0 {
		return 0
	}
	return int64(math.Round(ns / periodNs))
}
