package domain

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
)

var (
	// stationHeaderRe matches a report header, e.g.
	// "TAM-normal for 7010 - Oslo Blindern" -> 7010.
	stationHeaderRe = regexp.MustCompile(`^TAM-.*normal for *([0-9]+) - `)

	// valueRowRe matches a "<day> <value>" row with optional leading spaces.
	valueRowRe = regexp.MustCompile(`^ *([0-9]+) +(-?[0-9]+(?:\.[0-9]+)?)`)
)

type formatBState int

const (
	noStation formatBState = iota
	stationIgnored
	stationActive
)

// FormatBParser reads columnar reports with "TAM-... normal for <id> - ..."
// headers followed by "<day> <value>" rows.
type FormatBParser struct {
	policy DuplicatePolicy
	logger *slog.Logger
}

// NewFormatBParser creates a format B parser.
func NewFormatBParser(policy DuplicatePolicy, logger *slog.Logger) *FormatBParser {
	return &FormatBParser{policy: policy, logger: logger}
}

// Parse reads all station blocks from r. A value row before the first header
// fails with ErrNoStationHeader; rows under a header with an out-of-range id
// are skipped until the next header.
func (p *FormatBParser) Parse(ctx context.Context, r io.Reader) (*Collection, ParseStats, error) {
	var stats ParseStats
	acc := NewAccumulator(p.policy)
	state := noStation
	station := 0

	err := scanLines(ctx, r, &stats, func(n int, line string) error {
		if m := stationHeaderRe.FindStringSubmatch(line); m != nil {
			id, err := parseStationID(m[1])
			if err != nil {
				return fmt.Errorf("line %d: station id %q: %w", n, m[1], ErrMalformedRecord)
			}
			if !ValidStationID(id) {
				p.logger.Debug("ignoring station block", "station", id, "line", n)
				stats.skip(SkipStationRange)
				state = stationIgnored
				return nil
			}
			state, station = stationActive, id
			return nil
		}

		m := valueRowRe.FindStringSubmatch(line)
		if m == nil {
			stats.skip(SkipNoMatch)
			return nil
		}

		switch state {
		case noStation:
			return fmt.Errorf("line %d: %w", n, ErrNoStationHeader)
		case stationIgnored:
			stats.skip(SkipIgnoredStation)
			return nil
		}

		day, err := strconv.Atoi(m[1])
		if err != nil {
			return fmt.Errorf("line %d: day %q: %w", n, m[1], ErrMalformedRecord)
		}
		value, err := parseNormal(m[2])
		if err != nil {
			return fmt.Errorf("line %d: value: %v: %w", n, err, ErrMalformedRecord)
		}
		if day == DaysPerYear+1 {
			p.logger.Debug("skipping leap day", "station", station, "line", n)
			stats.skip(SkipLeapDay)
			return nil
		}
		if err := acc.Set(station, day, value); err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		return nil
	})
	if err != nil {
		return nil, stats, fmt.Errorf("parse format B: %w", err)
	}

	c, err := acc.Finish()
	if err != nil {
		return nil, stats, fmt.Errorf("parse format B: %w", err)
	}
	return c, stats, nil
}
