package domain

import "fmt"

// Accumulator builds a Collection from a stream of (station, day, value)
// observations. It holds the record of the active station run and finalizes
// it when a different station appears or the stream ends.
type Accumulator struct {
	collection *Collection
	active     bool
	current    Record
}

// NewAccumulator creates an accumulator that finalizes into a fresh collection.
func NewAccumulator(policy DuplicatePolicy) *Accumulator {
	return &Accumulator{collection: NewCollection(policy)}
}

// Set stores a value for a 1-based day of the given station, starting a new
// run if station differs from the active one.
func (a *Accumulator) Set(station, day, value int) error {
	if day < 1 || day > DaysPerYear {
		return fmt.Errorf("day %d outside 1..%d: %w", day, DaysPerYear, ErrMalformedRecord)
	}
	if !a.active || a.current.StationID != station {
		if err := a.finalize(); err != nil {
			return err
		}
		a.current = Record{StationID: station, Days: EmptyDays()}
		a.active = true
	}
	a.current.Days[day-1] = value
	return nil
}

// Finish finalizes the open run, if any, and returns the collection.
// The accumulator must not be used afterwards.
func (a *Accumulator) Finish() (*Collection, error) {
	if err := a.finalize(); err != nil {
		return nil, err
	}
	return a.collection, nil
}

func (a *Accumulator) finalize() error {
	if !a.active {
		return nil
	}
	a.active = false
	return a.collection.Add(a.current)
}
