package domain

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

const formatAFields = 5

// FormatAParser reads flat "<station> <date> <day> <normal> <years>" records.
type FormatAParser struct {
	policy DuplicatePolicy
	logger *slog.Logger
}

// NewFormatAParser creates a format A parser.
func NewFormatAParser(policy DuplicatePolicy, logger *slog.Logger) *FormatAParser {
	return &FormatAParser{policy: policy, logger: logger}
}

// Parse reads all records from r. Any line that does not carry exactly five
// fields of the expected types aborts parsing with ErrMalformedRecord.
func (p *FormatAParser) Parse(ctx context.Context, r io.Reader) (*Collection, ParseStats, error) {
	var stats ParseStats
	acc := NewAccumulator(p.policy)

	err := scanLines(ctx, r, &stats, func(n int, line string) error {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			stats.skip(SkipBlank)
			return nil
		}
		if len(fields) != formatAFields {
			return fmt.Errorf("line %d: %d fields, want %d: %w", n, len(fields), formatAFields, ErrMalformedRecord)
		}

		station, err := parseStationID(fields[0])
		if err != nil {
			return fmt.Errorf("line %d: station id %q: %w", n, fields[0], ErrMalformedRecord)
		}
		day, err := strconv.Atoi(fields[2])
		if err != nil {
			return fmt.Errorf("line %d: day %q: %w", n, fields[2], ErrMalformedRecord)
		}
		raw, err := parseRawNormal(fields[3])
		if err != nil {
			return fmt.Errorf("line %d: normal: %v: %w", n, err, ErrMalformedRecord)
		}

		if !ValidStationID(station) {
			stats.skip(SkipStationRange)
			return nil
		}
		if day == DaysPerYear+1 {
			p.logger.Debug("skipping leap day", "station", station, "line", n)
			stats.skip(SkipLeapDay)
			return nil
		}
		normal, err := storeNormal(fields[3], raw)
		if err != nil {
			return fmt.Errorf("line %d: normal: %v: %w", n, err, ErrMalformedRecord)
		}
		if err := acc.Set(station, day, normal); err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		return nil
	})
	if err != nil {
		return nil, stats, fmt.Errorf("parse format A: %w", err)
	}

	c, err := acc.Finish()
	if err != nil {
		return nil, stats, fmt.Errorf("parse format A: %w", err)
	}
	return c, stats, nil
}
