// Package units provides shared constants and validation for length units
package units

import "fmt"

// Unit constants
const (
	Meters      = "m"
	Centimeters = "cm"
	Millimeters = "mm"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{Meters, Centimeters, Millimeters}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "m, cm, mm"
}

// MetersPerUnit returns the scale that converts a length in unit to meters.
func MetersPerUnit(unit string) (float64, error) {
	switch unit {
	case Meters, "":
		return 1, nil
	case Centimeters:
		return 0.01, nil
	case Millimeters:
		return 0.001, nil
	default:
		return 0, fmt.Errorf("unknown length unit %q (valid: %s)", unit, GetValidUnitsString())
	}
}

// ToMeters converts a length expressed in unit to meters.
// Trajectories are stored in meters; capture exports are commonly millimetres.
func ToMeters(v float64, unit string) (float64, error) {
	scale, err := MetersPerUnit(unit)
	if err != nil {
		return 0, err
	}
	return v * scale, nil
}
