package domain

import (
	"bufio"
	"context"
	"io"
)

// Skip reasons reported in ParseStats.
const (
	SkipBlank          = "blank"
	SkipStationRange   = "station_range"
	SkipLeapDay        = "leap_day"
	SkipNoMatch        = "no_match"
	SkipIgnoredStation = "ignored_station"
)

const maxLineBytes = 1 << 20

// Parser turns one normals input stream into a station collection.
type Parser interface {
	Parse(ctx context.Context, r io.Reader) (*Collection, ParseStats, error)
}

// ParseStats summarizes what a parser did with its input lines.
type ParseStats struct {
	Lines   int
	Skipped map[string]int
}

func (s *ParseStats) skip(reason string) {
	if s.Skipped == nil {
		s.Skipped = make(map[string]int)
	}
	s.Skipped[reason]++
}

// scanLines calls fn for every line of r with its 1-based line number,
// stopping at the first error or when ctx is done.
func scanLines(ctx context.Context, r io.Reader, stats *ParseStats, fn func(lineNum int, line string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Lines++
		if err := fn(stats.Lines, sc.Text()); err != nil {
			return err
		}
	}
	return sc.Err()
}
