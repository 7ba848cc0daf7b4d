package emit

import (
	"bufio"
	"fmt"
	"io"

	"github.com/couchcryptid/daymeans/internal/domain"
)

// ReferenceKey is the key column value of every seeded row.
const ReferenceKey = "ref_value"

const (
	fixtureOpen     = "{\nstd::ostringstream sql;\n"
	fixtureExec     = "ASSERT_NO_THROW(db->exec(sql.str()));"
	fixtureBoundary = fixtureExec + "\nsql.str(\"\");\n"
	fixtureClose    = "\n}\n"
)

// FixtureRow is one statistical_reference_values row. Value is in stored tenths.
type FixtureRow struct {
	StationID int
	ParamID   int
	Day       int
	Key       string
	Value     int
}

// SQL renders the single-row insert statement.
func (r FixtureRow) SQL() string {
	return fmt.Sprintf("INSERT INTO statistical_reference_values VALUES(%5d,%d,%3d,'%s',%s);",
		r.StationID, r.ParamID, r.Day, r.Key, domain.FormatTenths(r.Value))
}

// FixtureBatch holds the rows of one station run; it is executed as a unit.
type FixtureBatch struct {
	StationID int
	Rows      []FixtureRow
}

// Fixture is a unit-test seed source: one batch per retained station run.
type Fixture struct {
	ParamID int
	Batches []FixtureBatch
}

// NewFixture assembles the fixture for the stations in allow, keeping
// collection order. Missing days produce no row.
func NewFixture(paramID int, c *domain.Collection, allow map[int]struct{}) *Fixture {
	f := &Fixture{ParamID: paramID}
	for _, rec := range c.Records() {
		if _, ok := allow[rec.StationID]; !ok {
			continue
		}
		batch := FixtureBatch{StationID: rec.StationID}
		for d0, v := range rec.Days {
			if v == domain.Missing {
				continue
			}
			batch.Rows = append(batch.Rows, FixtureRow{
				StationID: rec.StationID,
				ParamID:   paramID,
				Day:       d0 + 1,
				Key:       ReferenceKey,
				Value:     v,
			})
		}
		f.Batches = append(f.Batches, batch)
	}
	return f
}

// Rows counts the rows over all batches.
func (f *Fixture) Rows() int {
	n := 0
	for i := range f.Batches {
		n += len(f.Batches[i].Rows)
	}
	return n
}

// WriteTo renders the fixture source.
func (f *Fixture) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)

	bw.WriteString(fixtureOpen)
	for i := range f.Batches {
		for _, row := range f.Batches[i].Rows {
			fmt.Fprintf(bw, "sql << %q;\n", row.SQL())
		}
		bw.WriteString(fixtureBoundary)
	}
	bw.WriteString(fixtureClose)
	bw.WriteString(editorFooter)

	err := bw.Flush()
	return cw.n, err
}
