// Package emit renders station collections into generated C++ sources: lookup
// tables linked into the statistical mean check, and SQL seed fixtures for its
// unit tests. Each artifact is assembled as a typed value first and rendered
// in a single WriteTo step.
package emit

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/couchcryptid/daymeans/internal/domain"
)

const tableGuard = `
#ifndef StatisticalMean_H
#error "must be included after StatisticalMean.h"
#endif

`

const editorFooter = `
// Local variables:
// mode: c++
// buffer-read-only: t
// End:

`

// TableArray is one per-station array declaration.
type TableArray struct {
	Name      string
	StationID int
	Days      domain.Days
}

// Table is a lookup table source: one array per station plus the count, the
// list of array pointers and the parallel id array.
type Table struct {
	Prefix string
	Arrays []TableArray
}

// TableOptions controls table assembly.
type TableOptions struct {
	// SortIDs orders arrays by station id so consumers may binary search.
	// Otherwise collection order is kept.
	SortIDs bool
}

// NewTable assembles a table named by prefix, e.g. "daymeans110".
func NewTable(prefix string, c *domain.Collection, opts TableOptions) (*Table, error) {
	if c.Len() == 0 {
		return nil, fmt.Errorf("build table %s: %w", prefix, domain.ErrNoStations)
	}
	if c.HasDuplicates() {
		return nil, fmt.Errorf("build table %s: array names would collide: %w", prefix, domain.ErrDuplicateStation)
	}

	records := c.Records()
	if opts.SortIDs {
		slices.SortFunc(records, func(a, b domain.Record) int {
			return cmp.Compare(a.StationID, b.StationID)
		})
	}

	t := &Table{Prefix: prefix, Arrays: make([]TableArray, len(records))}
	for i, rec := range records {
		t.Arrays[i] = TableArray{
			Name:      ArrayName(prefix, rec.StationID),
			StationID: rec.StationID,
			Days:      rec.Days,
		}
	}
	return t, nil
}

// ArrayName returns the array identifier for a station, e.g. daymeans110_07010.
func ArrayName(prefix string, stationID int) string {
	return fmt.Sprintf("%s_%05d", prefix, stationID)
}

// StationIDs returns the id array in emission order.
func (t *Table) StationIDs() []int {
	ids := make([]int, len(t.Arrays))
	for i := range t.Arrays {
		ids[i] = t.Arrays[i].StationID
	}
	return ids
}

// WriteTo renders the table source.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)

	bw.WriteString(tableGuard)
	for i := range t.Arrays {
		a := &t.Arrays[i]
		bw.WriteString("static const int " + a.Name + "[" + strconv.Itoa(domain.DaysPerYear) + "] = { ")
		bw.WriteString(joinInts(a.Days[:]))
		bw.WriteString(" };\n")
	}

	names := make([]string, len(t.Arrays))
	for i := range t.Arrays {
		names[i] = t.Arrays[i].Name
	}
	n := t.Prefix + "_n"
	fmt.Fprintf(bw, "\nstatic const int %s = %d;\n", n, len(t.Arrays))
	fmt.Fprintf(bw, "static const int* %s_list[%s] = {%s};\n", t.Prefix, n, strings.Join(names, ","))
	fmt.Fprintf(bw, "static const int %s_ids [%s] = {%s};\n", t.Prefix, n, joinInts(t.StationIDs()))
	bw.WriteString(editorFooter)

	err := bw.Flush()
	return cw.n, err
}

func joinInts(vs []int) string {
	var b strings.Builder
	for i, v := range vs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(v))
	}
	return b.String()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
