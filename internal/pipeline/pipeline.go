package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/couchcryptid/daymeans/internal/adapter/file"
	"github.com/couchcryptid/daymeans/internal/domain"
	"github.com/couchcryptid/daymeans/internal/observability"
)

// Extractor parses one input stream into a station collection.
type Extractor interface {
	Parse(ctx context.Context, r io.Reader) (*domain.Collection, domain.ParseStats, error)
}

// Transformer derives a new collection from a parsed one.
type Transformer interface {
	Transform(ctx context.Context, c *domain.Collection) (*domain.Collection, TransformStats, error)
}

// Loader renders a collection as one artifact.
type Loader interface {
	Load(ctx context.Context, c *domain.Collection, w io.Writer) (LoadStats, error)
}

// TransformStats reports per-day losses of a transform.
type TransformStats struct {
	DaysDropped int
}

// LoadStats reports what an artifact contains.
type LoadStats struct {
	Stations int
	Rows     int
}

// Summary describes a completed run.
type Summary struct {
	Generator string
	Parse     domain.ParseStats
	Transform TransformStats
	Load      LoadStats
	Artifact  file.Result
}

// Pipeline runs one generator: extract, optional transform, load.
type Pipeline struct {
	gen     Generator
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Pipeline for the given generator.
func New(gen Generator, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{gen: gen, logger: logger, metrics: metrics}
}

// Run reads r and writes the artifact to w. Nothing is written to w unless
// parsing and transformation succeed.
func (p *Pipeline) Run(ctx context.Context, r io.Reader, w io.Writer) (Summary, error) {
	sum := Summary{Generator: p.gen.Name}
	label := p.gen.Name

	c, parseStats, err := p.gen.Extractor.Parse(ctx, r)
	sum.Parse = parseStats
	p.metrics.LinesRead.WithLabelValues(label).Add(float64(parseStats.Lines))
	for reason, n := range parseStats.Skipped {
		p.metrics.LinesSkipped.WithLabelValues(label, reason).Add(float64(n))
	}
	if err != nil {
		return sum, err
	}
	p.logger.Info("input parsed", "generator", label, "lines", parseStats.Lines, "stations", c.Len())

	if p.gen.Transformer != nil {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		var ts TransformStats
		c, ts, err = p.gen.Transformer.Transform(ctx, c)
		sum.Transform = ts
		p.metrics.WindowDaysDropped.WithLabelValues(label).Add(float64(ts.DaysDropped))
		if err != nil {
			return sum, err
		}
		if ts.DaysDropped > 0 {
			p.logger.Info("derived days without normal", "generator", label, "days", ts.DaysDropped)
		}
	}

	if err := ctx.Err(); err != nil {
		return sum, err
	}
	ls, err := p.gen.Loader.Load(ctx, c, w)
	sum.Load = ls
	if err != nil {
		return sum, err
	}
	p.metrics.Stations.WithLabelValues(label).Set(float64(ls.Stations))
	p.metrics.RowsEmitted.WithLabelValues(label).Add(float64(ls.Rows))
	return sum, nil
}

// RunFiles runs the generator from inPath to outPath. The output is written
// to a temporary file and only moved into place when the run succeeds.
func (p *Pipeline) RunFiles(ctx context.Context, inPath, outPath string) (Summary, error) {
	start := clock.Now()
	label := p.gen.Name

	src, err := file.Open(inPath)
	if err != nil {
		return Summary{Generator: label}, err
	}
	defer src.Close()

	sink, err := file.Create(outPath)
	if err != nil {
		return Summary{Generator: label}, err
	}
	defer sink.Abort()

	sum, err := p.Run(ctx, src, sink)
	if err != nil {
		return sum, fmt.Errorf("%s: %w", label, err)
	}

	res, err := sink.Commit()
	sum.Artifact = res
	if err != nil {
		return sum, err
	}

	elapsed := clock.Since(start)
	p.metrics.RunDuration.WithLabelValues(label).Set(elapsed.Seconds())
	p.metrics.LastSuccess.WithLabelValues(label).Set(float64(clock.Now().Unix()))
	unchanged := 0.0
	if res.Unchanged {
		unchanged = 1
	}
	p.metrics.ArtifactUnchanged.WithLabelValues(label).Set(unchanged)

	p.logger.Info("artifact written",
		"generator", label,
		"input", inPath,
		"compression", src.Compression,
		"output", res.Path,
		"bytes", res.Bytes,
		"digest", strconv.FormatUint(res.Digest, 16),
		"unchanged", res.Unchanged,
		"duration", elapsed,
	)
	return sum, nil
}
