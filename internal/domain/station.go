package domain

import (
	"errors"
	"strconv"
)

const (
	// DaysPerYear is the number of day-of-year slots in a record. Leap days are not modeled.
	DaysPerYear = 365

	// Missing marks a day without a normal.
	Missing = -32767

	MinStationID = 1
	MaxStationID = 99999
)

// ValidStationID reports whether id lies in the accepted station id range.
func ValidStationID(id int) bool {
	return id >= MinStationID && id <= MaxStationID
}

// parseStationID parses a station id field. Integers too large for int are
// reported as 0 so callers drop them like any other out-of-range id.
func parseStationID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if errors.Is(err, strconv.ErrRange) {
		return 0, nil
	}
	return id, err
}

// Days holds one stored value per day of year, index 0 is day 1.
type Days [DaysPerYear]int

// EmptyDays returns a day array with every slot set to Missing.
func EmptyDays() Days {
	var d Days
	for i := range d {
		d[i] = Missing
	}
	return d
}

// Record is the finalized set of daily normals for one station run.
// Records are values; copies never share their day array.
type Record struct {
	StationID int
	Days      Days
}

// Day returns the stored value for a 1-based day of year.
func (r Record) Day(day int) int {
	return r.Days[day-1]
}

// Present counts the days that carry a value.
func (r Record) Present() int {
	n := 0
	for _, v := range r.Days {
		if v != Missing {
			n++
		}
	}
	return n
}
