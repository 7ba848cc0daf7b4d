// Command daymeans generates the day-of-year normals sources used by the
// statistical mean check: lookup tables and unit test fixtures.
//
// Usage:
//
//	go run ./cmd/daymeans -generator table110 \
//	  data/normals_110.dat.gz \
//	  src/StatisticalMean_n110.icc
//
// Generators: fixture110, fixture211, table110, table212. Inputs ending in
// .gz, .zst or .lz4 are decompressed on the fly.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/couchcryptid/daymeans/internal/config"
	"github.com/couchcryptid/daymeans/internal/observability"
	"github.com/couchcryptid/daymeans/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		slog.Error("daymeans failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	generator := flag.String("generator", "", "generator preset: "+strings.Join(pipeline.GeneratorNames(), ", "))
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s -generator <preset> <input> <output>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *generator == "" || flag.NArg() != 2 {
		flag.Usage()
		return fmt.Errorf("need -generator and exactly two arguments, got %d", flag.NArg())
	}
	input, output := flag.Arg(0), flag.Arg(1)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(cfg)
	slog.SetDefault(logger)
	metrics := observability.NewMetrics()

	gen, err := pipeline.NewGenerator(*generator, cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := pipeline.New(gen, logger, metrics)
	sum, runErr := p.RunFiles(ctx, input, output)

	// Metrics are written for failed runs too; skipped-line counters help
	// diagnose a rejected input.
	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Error("write metrics textfile", "path", cfg.MetricsTextfile, "error", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	logger.Info("done",
		"generator", sum.Generator,
		"lines", sum.Parse.Lines,
		"stations", sum.Load.Stations,
		"rows", sum.Load.Rows,
	)
	return nil
}
