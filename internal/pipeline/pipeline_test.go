package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/daymeans/internal/config"
	"github.com/couchcryptid/daymeans/internal/domain"
	"github.com/couchcryptid/daymeans/internal/observability"
	"github.com/couchcryptid/daymeans/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func newPipeline(t *testing.T, name string) (*pipeline.Pipeline, *observability.Metrics) {
	t.Helper()
	gen, err := pipeline.NewGenerator(name, testConfig(t), slog.Default())
	require.NoError(t, err)
	metrics := observability.NewMetrics()
	return pipeline.New(gen, slog.Default(), metrics), metrics
}

// formatBYear renders a full year of format B rows for each station with
// value(station, day).
func formatBYear(stations []int, value func(station, day int) float64) string {
	var b strings.Builder
	b.WriteString("Daily mean temperature normals\n\n")
	for _, s := range stations {
		fmt.Fprintf(&b, "TAM-normal for %d - STATION %d\n", s, s)
		for day := 1; day <= domain.DaysPerYear; day++ {
			fmt.Fprintf(&b, "%4d %6.1f\n", day, value(s, day))
		}
		b.WriteString("\n")
	}
	return b.String()
}

const formatAInput = "7010 20200101 1 5.3 30\n" +
	"7010 20200102 2 -2.0 30\n" +
	"46910 20200101 1 0.7 30\n" +
	"12345 20200101 1 9.9 30\n" +
	"0 20200101 1 1.0 30\n"

// --- tests ---

func TestNewGenerator_Unknown(t *testing.T) {
	_, err := pipeline.NewGenerator("table999", testConfig(t), slog.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown generator")
	assert.False(t, pipeline.IsGenerator("table999"))
	assert.True(t, pipeline.IsGenerator(pipeline.Fixture211))
}

func TestPipeline_Table110(t *testing.T) {
	p, metrics := newPipeline(t, pipeline.Table110)

	var out bytes.Buffer
	sum, err := p.Run(context.Background(), strings.NewReader(formatAInput), &out)
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Load.Stations)
	assert.Contains(t, out.String(), "static const int daymeans110_07010[365] = { 53,-20,-32767,")
	assert.Contains(t, out.String(), "static const int daymeans110_ids [daymeans110_n] = {7010,46910,12345};")
	assert.NotContains(t, out.String(), "daymeans110_00000")

	assert.InDelta(t, 5, testutil.ToFloat64(metrics.LinesRead.WithLabelValues(pipeline.Table110)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.LinesSkipped.WithLabelValues(pipeline.Table110, domain.SkipStationRange)), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(metrics.Stations.WithLabelValues(pipeline.Table110)), 0)
}

func TestPipeline_Fixture110(t *testing.T) {
	p, metrics := newPipeline(t, pipeline.Fixture110)

	var out bytes.Buffer
	sum, err := p.Run(context.Background(), strings.NewReader(formatAInput), &out)
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Load.Stations, "12345 is not a fixture station")
	assert.Equal(t, 3, sum.Load.Rows)
	assert.Equal(t, 2, strings.Count(out.String(), "ASSERT_NO_THROW"))
	assert.Contains(t, out.String(), "VALUES( 7010,110,  2,'ref_value',-2.0);")
	assert.NotContains(t, out.String(), "12345")
	assert.InDelta(t, 3, testutil.ToFloat64(metrics.RowsEmitted.WithLabelValues(pipeline.Fixture110)), 0)
}

func TestPipeline_Table212(t *testing.T) {
	p, _ := newPipeline(t, pipeline.Table212)
	input := formatBYear([]int{96800, 7010}, func(_, day int) float64 { return float64(day) / 10 })

	var out bytes.Buffer
	_, err := p.Run(context.Background(), strings.NewReader(input), &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "static const int daymeans212_96800[365] = { 1,2,3,")
	assert.Contains(t, out.String(), "static const int daymeans212_ids [daymeans212_n] = {96800,7010};")
}

func TestPipeline_Fixture211(t *testing.T) {
	p, metrics := newPipeline(t, pipeline.Fixture211)

	// Station 96800 has a constant year; station 7010 has a single value, so
	// every one of its windows has too many missing days.
	input := formatBYear([]int{96800}, func(_, _ int) float64 { return 4.2 }) +
		"TAM-normal for 7010 - SPARSE\n 360 10.0\n"

	var out bytes.Buffer
	sum, err := p.Run(context.Background(), strings.NewReader(input), &out)
	require.NoError(t, err)

	assert.Equal(t, domain.DaysPerYear, sum.Transform.DaysDropped)
	assert.Equal(t, 2, sum.Load.Stations)
	assert.Equal(t, domain.DaysPerYear, sum.Load.Rows)
	assert.InDelta(t, domain.DaysPerYear, testutil.ToFloat64(metrics.WindowDaysDropped.WithLabelValues(pipeline.Fixture211)), 0)

	text := out.String()
	assert.Less(t, strings.Index(text, "VALUES( 7010"), 0, "sparse station yields no rows")
	assert.Contains(t, text, "VALUES(96800,211,  1,'ref_value',4.2);")
	assert.Equal(t, 2, strings.Count(text, "ASSERT_NO_THROW"), "sorted order: 7010 batch (empty) then 96800")
}

func TestPipeline_ParseErrorWritesNothing(t *testing.T) {
	p, _ := newPipeline(t, pipeline.Fixture211)

	var out bytes.Buffer
	_, err := p.Run(context.Background(), strings.NewReader(" 1 2.0\n"), &out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoStationHeader))
	assert.Zero(t, out.Len())
}

func TestPipeline_EmptyTableInput(t *testing.T) {
	p, _ := newPipeline(t, pipeline.Table110)

	_, err := p.Run(context.Background(), strings.NewReader(""), io.Discard)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoStations))
}

func TestPipeline_ContextCancelled(t *testing.T) {
	p, _ := newPipeline(t, pipeline.Table110)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	_, err := p.Run(ctx, strings.NewReader(formatAInput), &out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, out.Len())
}

func TestPipeline_RunFiles_IdempotentAndTimed(t *testing.T) {
	fake := clockwork.NewFakeClockAt(time.Date(2026, time.January, 5, 6, 0, 0, 0, time.UTC))
	pipeline.SetClock(fake)
	t.Cleanup(func() { pipeline.SetClock(nil) })

	dir := t.TempDir()
	in := filepath.Join(dir, "normals_110.dat")
	out := filepath.Join(dir, "gen", "StatisticalMean_n110.icc")
	require.NoError(t, os.WriteFile(in, []byte(formatAInput), 0o600))

	p, metrics := newPipeline(t, pipeline.Table110)

	first, err := p.RunFiles(context.Background(), in, out)
	require.NoError(t, err)
	assert.False(t, first.Artifact.Unchanged)
	firstBytes, err := os.ReadFile(out)
	require.NoError(t, err)

	second, err := p.RunFiles(context.Background(), in, out)
	require.NoError(t, err)
	assert.True(t, second.Artifact.Unchanged)
	assert.Equal(t, first.Artifact.Digest, second.Artifact.Digest)

	secondBytes, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, firstBytes, secondBytes)

	assert.InDelta(t, 0, testutil.ToFloat64(metrics.RunDuration.WithLabelValues(pipeline.Table110)), 0)
	assert.InDelta(t, float64(fake.Now().Unix()), testutil.ToFloat64(metrics.LastSuccess.WithLabelValues(pipeline.Table110)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ArtifactUnchanged.WithLabelValues(pipeline.Table110)), 0)
}

func TestPipeline_RunFiles_FailureKeepsPreviousArtifact(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "normals_110.dat")
	out := filepath.Join(dir, "StatisticalMean_n110.icc")
	require.NoError(t, os.WriteFile(in, []byte("7010 20200101 1 5.3\n"), 0o600))
	require.NoError(t, os.WriteFile(out, []byte("previous\n"), 0o600))

	p, _ := newPipeline(t, pipeline.Table110)
	_, err := p.RunFiles(context.Background(), in, out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMalformedRecord))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "previous\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temporary files left behind")
}

func TestParamID(t *testing.T) {
	id, ok := pipeline.ParamID(pipeline.Fixture211)
	assert.True(t, ok)
	assert.Equal(t, 211, id)

	_, ok = pipeline.ParamID(pipeline.Table212)
	assert.False(t, ok)
}
