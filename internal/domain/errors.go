package domain

import "errors"

var (
	// ErrMalformedRecord means an input line could not be decomposed into the
	// fields its format guarantees.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrNoStationHeader means a format B value row appeared before any station header.
	ErrNoStationHeader = errors.New("value row before station header")

	// ErrDuplicateStation means a station id reappeared after its run was finalized.
	ErrDuplicateStation = errors.New("duplicate station run")

	// ErrNoStations means the input produced no station records at all.
	ErrNoStations = errors.New("no stations")
)
