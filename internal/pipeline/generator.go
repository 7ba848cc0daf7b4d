package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"

	"github.com/couchcryptid/daymeans/internal/config"
	"github.com/couchcryptid/daymeans/internal/domain"
	"github.com/couchcryptid/daymeans/internal/emit"
)

// Generator names.
const (
	Table110   = "table110"
	Table212   = "table212"
	Fixture110 = "fixture110"
	Fixture211 = "fixture211"
)

// Param ids stamped into fixtures.
const (
	ParamPrecipitation = 110
	ParamTemperature   = 211
)

// Generator binds a parser, an optional transform and an emitter.
type Generator struct {
	Name        string
	Extractor   Extractor
	Transformer Transformer
	Loader      Loader
}

// GeneratorNames lists the available presets in sorted order.
func GeneratorNames() []string {
	names := []string{Table110, Table212, Fixture110, Fixture211}
	sort.Strings(names)
	return names
}

// NewGenerator builds a preset:
//
//	table110    format A -> daymeans110 lookup table
//	table212    format B -> daymeans212 lookup table (raw values)
//	fixture110  format A -> paramid 110 test fixture
//	fixture211  format B -> 30-day window means -> paramid 211 test fixture
func NewGenerator(name string, cfg *config.Config, logger *slog.Logger) (Generator, error) {
	formatA := domain.NewFormatAParser(cfg.DuplicateStations, logger)
	formatB := domain.NewFormatBParser(cfg.DuplicateStations, logger)
	tableOpts := emit.TableOptions{SortIDs: cfg.TableSortIDs}

	switch name {
	case Table110:
		return Generator{Name: name, Extractor: formatA, Loader: &TableLoader{Prefix: "daymeans110", Options: tableOpts}}, nil
	case Table212:
		return Generator{Name: name, Extractor: formatB, Loader: &TableLoader{Prefix: "daymeans212", Options: tableOpts}}, nil
	case Fixture110:
		return Generator{Name: name, Extractor: formatA, Loader: &FixtureLoader{ParamID: ParamPrecipitation, Allow: cfg.FixtureStationSet()}}, nil
	case Fixture211:
		return Generator{
			Name:        name,
			Extractor:   formatB,
			Transformer: &WindowTransformer{Averager: domain.NewWindowAverager(cfg.Window, logger)},
			Loader:      &FixtureLoader{ParamID: ParamTemperature, Allow: cfg.FixtureStationSet()},
		}, nil
	default:
		return Generator{}, fmt.Errorf("unknown generator %q (want one of %v)", name, GeneratorNames())
	}
}

// WindowTransformer replaces raw daily values with trailing window means.
type WindowTransformer struct {
	Averager *domain.WindowAverager
}

func (t *WindowTransformer) Transform(_ context.Context, c *domain.Collection) (*domain.Collection, TransformStats, error) {
	out, stats, err := t.Averager.Average(c)
	return out, TransformStats{DaysDropped: stats.Dropped}, err
}

// TableLoader emits a lookup table source.
type TableLoader struct {
	Prefix  string
	Options emit.TableOptions
}

func (l *TableLoader) Load(_ context.Context, c *domain.Collection, w io.Writer) (LoadStats, error) {
	table, err := emit.NewTable(l.Prefix, c, l.Options)
	if err != nil {
		return LoadStats{}, err
	}
	if _, err := table.WriteTo(w); err != nil {
		return LoadStats{}, fmt.Errorf("write table: %w", err)
	}
	return LoadStats{Stations: len(table.Arrays)}, nil
}

// FixtureLoader emits a unit test fixture for the allowed stations.
type FixtureLoader struct {
	ParamID int
	Allow   map[int]struct{}
}

func (l *FixtureLoader) Load(_ context.Context, c *domain.Collection, w io.Writer) (LoadStats, error) {
	fixture := emit.NewFixture(l.ParamID, c, l.Allow)
	if _, err := fixture.WriteTo(w); err != nil {
		return LoadStats{}, fmt.Errorf("write fixture: %w", err)
	}
	return LoadStats{Stations: len(fixture.Batches), Rows: fixture.Rows()}, nil
}

// ParamID returns the fixture paramid a generator emits, or false for table generators.
func ParamID(name string) (int, bool) {
	switch name {
	case Fixture110:
		return ParamPrecipitation, true
	case Fixture211:
		return ParamTemperature, true
	default:
		return 0, false
	}
}

// IsGenerator reports whether name is a known preset.
func IsGenerator(name string) bool {
	return slices.Contains(GeneratorNames(), name)
}
