package domain

import (
	"fmt"
	"math"
	"strconv"
)

// scaleSnap is the precision x*10 is snapped to before rounding, so decimal
// literals like 1.45 land on 14.5 instead of 14.499999999999998.
const scaleSnap = 1e6

// ScaleNormal converts a raw normal to stored tenths, rounding half up.
func ScaleNormal(raw float64) int {
	tenths := math.Round(raw*10*scaleSnap) / scaleSnap
	return int(math.Floor(tenths + 0.5))
}

// parseNormal parses a decimal normal and scales it to stored tenths.
func parseNormal(s string) (int, error) {
	v, err := parseRawNormal(s)
	if err != nil {
		return 0, err
	}
	return storeNormal(s, v)
}

// parseRawNormal parses a finite decimal without range checks.
func parseRawNormal(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite normal %q", s)
	}
	return v, nil
}

// storeNormal scales v, rejecting values that would collide with Missing.
func storeNormal(s string, v float64) (int, error) {
	stored := ScaleNormal(v)
	if stored <= Missing || stored >= -Missing {
		return 0, fmt.Errorf("normal %q out of range", s)
	}
	return stored, nil
}

// FormatTenths renders a stored value with one decimal, e.g. -20 -> "-2.0".
func FormatTenths(v int) string {
	return strconv.FormatFloat(float64(v)/10, 'f', 1, 64)
}
