// Command validate replays a generated statistical mean fixture into an
// in-memory reference table and checks it the way the quality control engine
// reads it: schema load, domain ranges, and optionally a cross-check against
// a fresh regeneration from the normals input.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -fixture test/StatisticalMeanTest_n211.icc \
//	  -input data/normals_212.dat.gz \
//	  -generator fixture211
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/daymeans/internal/adapter/file"
	"github.com/couchcryptid/daymeans/internal/adapter/sqlite"
	"github.com/couchcryptid/daymeans/internal/config"
	"github.com/couchcryptid/daymeans/internal/domain"
	"github.com/couchcryptid/daymeans/internal/emit"
	"github.com/couchcryptid/daymeans/internal/observability"
	"github.com/couchcryptid/daymeans/internal/pipeline"
	"github.com/google/go-cmp/cmp"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// maxReported caps per-phase error listings; a broken regeneration can
// otherwise print thousands of lines.
const maxReported = 50

func main() {
	fixturePath := flag.String("fixture", "", "path to generated fixture source")
	inputPath := flag.String("input", "", "normals input to regenerate from (optional)")
	generator := flag.String("generator", "", "fixture generator preset, fixture110 or fixture211")
	flag.Parse()

	if *fixturePath == "" || *generator == "" {
		flag.Usage()
		os.Exit(1)
	}
	if code := run(*fixturePath, *inputPath, *generator); code != 0 {
		os.Exit(code)
	}
}

func run(fixturePath, inputPath, generator string) int {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		return 1
	}
	logger := observability.NewLogger(cfg)

	paramID, ok := pipeline.ParamID(generator)
	if !ok {
		fmt.Fprintf(os.Stderr, "FATAL: %q is not a fixture generator\n", generator)
		return 1
	}

	fmt.Println("=== Statistical Mean Fixture Validation ===")
	fmt.Println()

	// ── Load fixture ──
	load := &phase{name: "Phase 1: Fixture Load (SQLite replay)"}
	got, err := replay(ctx, fixturePath, paramID, logger)
	if err != nil {
		load.errorf("%v", err)
	}

	phases := []*phase{load}
	if load.passed() {
		phases = append(phases, validateDomain(got, paramID))
	}

	if inputPath != "" && load.passed() {
		want, err := regenerate(ctx, inputPath, generator, cfg, logger)
		cross := &phase{name: "Phase 3: Regeneration Cross-check"}
		if err != nil {
			cross.errorf("regenerate: %v", err)
		} else {
			compareValues(cross, want, got)
		}
		phases = append(phases, cross)
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d for paramid %d\n", len(got), paramID)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == maxReported {
				fmt.Printf("  ... %d more\n", len(p.errors)-maxReported)
				break
			}
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// replay executes a fixture source against a fresh in-memory table and reads
// back every reference value for paramID.
func replay(ctx context.Context, path string, paramID int, logger *slog.Logger) ([]sqlite.ReferenceValue, error) {
	src, err := file.Open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return replayReader(ctx, src, paramID, logger)
}

func replayReader(ctx context.Context, r io.Reader, paramID int, logger *slog.Logger) ([]sqlite.ReferenceValue, error) {
	batches, err := emit.ReadFixture(r)
	if err != nil {
		return nil, err
	}

	store, err := sqlite.Open(ctx, ":memory:", logger)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	if err := store.LoadFixture(ctx, batches); err != nil {
		return nil, err
	}

	counts, err := store.CountByParam(ctx)
	if err != nil {
		return nil, err
	}
	for param, n := range counts {
		if param != paramID {
			return nil, fmt.Errorf("%d rows carry paramid %d, want only %d", n, param, paramID)
		}
	}
	return store.ReferenceValues(ctx, paramID, emit.ReferenceKey)
}

// regenerate runs the generator over input in memory and replays the result.
func regenerate(ctx context.Context, input, generator string, cfg *config.Config, logger *slog.Logger) ([]sqlite.ReferenceValue, error) {
	gen, err := pipeline.NewGenerator(generator, cfg, logger)
	if err != nil {
		return nil, err
	}

	src, err := file.Open(input)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	var buf bytes.Buffer
	p := pipeline.New(gen, logger, observability.NewMetrics())
	if _, err := p.Run(ctx, src, &buf); err != nil {
		return nil, err
	}

	paramID, _ := pipeline.ParamID(generator)
	return replayReader(ctx, &buf, paramID, logger)
}

// ── Phase 2: Domain ranges ──
// Station ids, days and values must be what the engine can look up.

func validateDomain(rows []sqlite.ReferenceValue, paramID int) *phase {
	p := &phase{name: fmt.Sprintf("Phase 2: Domain Ranges (paramid %d)", paramID)}
	if len(rows) == 0 {
		p.errorf("no rows for paramid %d", paramID)
		return p
	}

	type key struct{ station, day int }
	seen := make(map[key]bool, len(rows))
	for _, rv := range rows {
		if !domain.ValidStationID(rv.StationID) {
			p.errorf("station %d outside [%d, %d]", rv.StationID, domain.MinStationID, domain.MaxStationID)
		}
		if rv.DayOfYear < 1 || rv.DayOfYear > domain.DaysPerYear {
			p.errorf("station %d: day_of_year %d outside [1, %d]", rv.StationID, rv.DayOfYear, domain.DaysPerYear)
		}
		if rv.Value <= float64(domain.Missing)/10 {
			p.errorf("station %d day %d: value %g is the missing sentinel", rv.StationID, rv.DayOfYear, rv.Value)
		}
		k := key{rv.StationID, rv.DayOfYear}
		if seen[k] {
			p.errorf("station %d day %d: duplicate row", rv.StationID, rv.DayOfYear)
		}
		seen[k] = true
	}
	return p
}

// ── Phase 3: Regeneration cross-check ──

func compareValues(p *phase, want, got []sqlite.ReferenceValue) {
	if len(want) != len(got) {
		p.errorf("row count: regenerated %d, fixture %d", len(want), len(got))
	}
	if diff := cmp.Diff(want, got); diff != "" {
		p.errorf("fixture differs from regeneration (-regenerated +fixture):\n%s", diff)
	}
}
