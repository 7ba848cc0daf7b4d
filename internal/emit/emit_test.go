package emit

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/couchcryptid/daymeans/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var canonicalStations = map[int]struct{}{
	7010: {}, 46910: {}, 70150: {}, 76450: {}, 86500: {}, 93700: {}, 96800: {},
}

func record(id int, values map[int]int) domain.Record {
	rec := domain.Record{StationID: id, Days: domain.EmptyDays()}
	for day, v := range values {
		rec.Days[day-1] = v
	}
	return rec
}

func collection(t *testing.T, policy domain.DuplicatePolicy, recs ...domain.Record) *domain.Collection {
	t.Helper()
	c := domain.NewCollection(policy)
	for _, r := range recs {
		require.NoError(t, c.Add(r))
	}
	return c
}

func TestTable_Render(t *testing.T) {
	c := collection(t, domain.DuplicateReject,
		record(46910, map[int]int{1: 7}),
		record(7010, map[int]int{1: 53, 2: -20}),
	)

	table, err := NewTable("daymeans110", c, TableOptions{})
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := table.WriteTo(&buf)
	require.NoError(t, err)
	out := buf.String()
	assert.Equal(t, int64(len(out)), n)

	assert.True(t, strings.HasPrefix(out, "\n#ifndef StatisticalMean_H\n#error \"must be included after StatisticalMean.h\"\n#endif\n\n"))
	assert.Contains(t, out, "static const int daymeans110_07010[365] = { 53,-20,-32767,")
	assert.Contains(t, out, "static const int daymeans110_n = 2;\n")
	assert.Contains(t, out, "static const int* daymeans110_list[daymeans110_n] = {daymeans110_46910,daymeans110_07010};\n")
	assert.Contains(t, out, "static const int daymeans110_ids [daymeans110_n] = {46910,7010};\n")
	assert.True(t, strings.HasSuffix(out, "// End:\n\n"))

	line := out[strings.Index(out, "static const int daymeans110_07010"):]
	line = line[:strings.Index(line, "\n")]
	assert.Equal(t, domain.DaysPerYear-2, strings.Count(line, "-32767"))
	assert.Equal(t, domain.DaysPerYear-1, strings.Count(line, ","))
}

func TestTable_SortIDs(t *testing.T) {
	c := collection(t, domain.DuplicateReject,
		record(96800, nil), record(7010, nil), record(46910, nil),
	)

	table, err := NewTable("daymeans212", c, TableOptions{SortIDs: true})
	require.NoError(t, err)
	assert.Equal(t, []int{7010, 46910, 96800}, table.StationIDs())

	table, err = NewTable("daymeans212", c, TableOptions{})
	require.NoError(t, err)
	assert.Equal(t, []int{96800, 7010, 46910}, table.StationIDs())
}

func TestTable_Errors(t *testing.T) {
	_, err := NewTable("daymeans110", domain.NewCollection(domain.DuplicateReject), TableOptions{})
	assert.True(t, errors.Is(err, domain.ErrNoStations))

	dup := collection(t, domain.DuplicateKeep, record(7010, nil), record(46910, nil), record(7010, nil))
	_, err = NewTable("daymeans110", dup, TableOptions{})
	assert.True(t, errors.Is(err, domain.ErrDuplicateStation))
}

func TestTable_Idempotent(t *testing.T) {
	c := collection(t, domain.DuplicateReject, record(7010, map[int]int{5: 1}))
	var a, b bytes.Buffer

	t1, err := NewTable("daymeans110", c, TableOptions{})
	require.NoError(t, err)
	_, err = t1.WriteTo(&a)
	require.NoError(t, err)

	t2, err := NewTable("daymeans110", c, TableOptions{})
	require.NoError(t, err)
	_, err = t2.WriteTo(&b)
	require.NoError(t, err)

	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestFixtureRow_SQL(t *testing.T) {
	row := FixtureRow{StationID: 7010, ParamID: 110, Day: 1, Key: ReferenceKey, Value: 53}
	assert.Equal(t, "INSERT INTO statistical_reference_values VALUES( 7010,110,  1,'ref_value',5.3);", row.SQL())

	row = FixtureRow{StationID: 46910, ParamID: 211, Day: 365, Key: ReferenceKey, Value: -20}
	assert.Equal(t, "INSERT INTO statistical_reference_values VALUES(46910,211,365,'ref_value',-2.0);", row.SQL())
}

func TestFixture_FiltersAndSkipsMissing(t *testing.T) {
	c := collection(t, domain.DuplicateReject,
		record(7010, map[int]int{1: 53, 3: -20}),
		record(12345, map[int]int{1: 1}),
		record(46910, map[int]int{365: 0}),
	)

	f := NewFixture(110, c, canonicalStations)
	require.Len(t, f.Batches, 2)
	assert.Equal(t, 7010, f.Batches[0].StationID)
	assert.Len(t, f.Batches[0].Rows, 2)
	assert.Equal(t, 3, f.Batches[0].Rows[1].Day)
	assert.Equal(t, 46910, f.Batches[1].StationID)
	assert.Equal(t, 3, f.Rows())
}

func TestFixture_Render(t *testing.T) {
	c := collection(t, domain.DuplicateReject,
		record(7010, map[int]int{1: 53, 2: -20}),
		record(46910, map[int]int{1: 7}),
	)

	var buf bytes.Buffer
	_, err := NewFixture(110, c, canonicalStations).WriteTo(&buf)
	require.NoError(t, err)

	want := "{\nstd::ostringstream sql;\n" +
		"sql << \"INSERT INTO statistical_reference_values VALUES( 7010,110,  1,'ref_value',5.3);\";\n" +
		"sql << \"INSERT INTO statistical_reference_values VALUES( 7010,110,  2,'ref_value',-2.0);\";\n" +
		"ASSERT_NO_THROW(db->exec(sql.str()));\nsql.str(\"\");\n" +
		"sql << \"INSERT INTO statistical_reference_values VALUES(46910,110,  1,'ref_value',0.7);\";\n" +
		"ASSERT_NO_THROW(db->exec(sql.str()));\nsql.str(\"\");\n" +
		"\n}\n" +
		"\n// Local variables:\n// mode: c++\n// buffer-read-only: t\n// End:\n\n"
	assert.Equal(t, want, buf.String())
}

func TestFixture_BoundaryPerRun(t *testing.T) {
	c := collection(t, domain.DuplicateKeep,
		record(7010, map[int]int{1: 1}),
		record(46910, nil),
		record(99, map[int]int{1: 1}),
		record(7010, map[int]int{2: 2}),
	)

	var buf bytes.Buffer
	_, err := NewFixture(110, c, canonicalStations).WriteTo(&buf)
	require.NoError(t, err)

	assert.Equal(t, 3, strings.Count(buf.String(), "ASSERT_NO_THROW"))
}

func TestReadFixture_RoundTrip(t *testing.T) {
	c := collection(t, domain.DuplicateReject,
		record(7010, map[int]int{1: 53, 2: -20}),
		record(46910, nil),
		record(93700, map[int]int{200: 155}),
	)
	f := NewFixture(211, c, canonicalStations)

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	batches, err := ReadFixture(&buf)
	require.NoError(t, err)
	require.Len(t, batches, 3)
	assert.Equal(t, []string{f.Batches[0].Rows[0].SQL(), f.Batches[0].Rows[1].SQL()}, batches[0])
	assert.Empty(t, batches[1])
	assert.Equal(t, []string{f.Batches[2].Rows[0].SQL()}, batches[2])
}

func TestReadFixture_TrailingStatements(t *testing.T) {
	in := "{\nsql << \"INSERT INTO statistical_reference_values VALUES( 7010,110,  1,'ref_value',5.3);\";\n}\n"
	_, err := ReadFixture(strings.NewReader(in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after last boundary")
}
