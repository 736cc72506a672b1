package export

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/pxdb/pkg/table"
	tt "github.com/ssargent/pxdb/pkg/table/tabletest"
	"github.com/ssargent/pxdb/pkg/value"
)

// memorySink records what Run sends it
type memorySink struct {
	schema  []table.FieldDescriptor
	indexes []int
	closed  bool
	aborted bool
	failOn  map[int]bool
}

func (m *memorySink) Begin(schema []table.FieldDescriptor) error {
	m.schema = schema
	return nil
}

func (m *memorySink) Write(index int, _ []value.Value) error {
	if m.failOn[index] {
		return errors.New("sink rejected record")
	}
	m.indexes = append(m.indexes, index)
	return nil
}

func (m *memorySink) Close() error {
	m.closed = true
	return nil
}

func (m *memorySink) Abort() error {
	m.aborted = true
	return nil
}

// closeOnlySink hides memorySink's Abort
type closeOnlySink struct{ Sink }

func openBuilder(t *testing.T, b *tt.Builder) *table.Document {
	t.Helper()
	raw := b.Bytes()
	doc, err := table.Open(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)
	return doc
}

func numbered(n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = tt.Long(int32(i))
	}
	return out
}

var counterFields = []tt.Field{{Name: "N", Type: value.Long, Size: 4}}

func TestRun_AllRecords(t *testing.T) {
	doc := openBuilder(t, tt.New(counterFields...).WithRecords(numbered(600)))
	sink := &memorySink{}

	stats, err := Run(context.Background(), doc, sink, Options{})
	require.NoError(t, err)
	assert.Equal(t, Stats{Written: 600}, stats)
	assert.True(t, sink.closed)
	require.Len(t, sink.indexes, 600)
	for i, idx := range sink.indexes {
		assert.Equal(t, i, idx)
	}
	assert.Equal(t, "N", sink.schema[0].Name)
}

func TestRun_Limit(t *testing.T) {
	doc := openBuilder(t, tt.New(counterFields...).WithRecords(numbered(600)))
	sink := &memorySink{}

	stats, err := Run(context.Background(), doc, sink, Options{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Written)
	assert.Len(t, sink.indexes, 10)
}

func TestRun_SinkErrors(t *testing.T) {
	t.Run("abort by default", func(t *testing.T) {
		doc := openBuilder(t, tt.New(counterFields...).WithRecords(numbered(5)))
		sink := &memorySink{failOn: map[int]bool{2: true}}

		_, err := Run(context.Background(), doc, sink, Options{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "record 2")
		assert.Equal(t, []int{0, 1}, sink.indexes)
		assert.True(t, sink.aborted)
		assert.False(t, sink.closed)
	})

	t.Run("close when abort is not supported", func(t *testing.T) {
		doc := openBuilder(t, tt.New(counterFields...).WithRecords(numbered(5)))
		sink := &memorySink{failOn: map[int]bool{2: true}}

		_, err := Run(context.Background(), doc, closeOnlySink{sink}, Options{})
		require.Error(t, err)
		assert.True(t, sink.closed)
		assert.False(t, sink.aborted)
	})

	t.Run("skip", func(t *testing.T) {
		doc := openBuilder(t, tt.New(counterFields...).WithRecords(numbered(5)))
		sink := &memorySink{failOn: map[int]bool{2: true}}

		stats, err := Run(context.Background(), doc, sink, Options{OnError: Skip})
		require.NoError(t, err)
		assert.Equal(t, Stats{Written: 4, Skipped: 1}, stats)
		assert.Equal(t, []int{0, 1, 3, 4}, sink.indexes)
	})
}

func TestRun_Corruption(t *testing.T) {
	build := func() *tt.Builder {
		b := tt.New(counterFields...).WithBlocks(numbered(3))
		b.NumRecords = tt.IntPtr(6)
		return b
	}

	t.Run("abort", func(t *testing.T) {
		sink := &memorySink{}
		_, err := Run(context.Background(), openBuilder(t, build()), sink, Options{})

		var ce *table.CorruptionError
		assert.True(t, errors.As(err, &ce))
		assert.Equal(t, []int{0, 1, 2}, sink.indexes)
		assert.True(t, sink.aborted)
	})

	t.Run("skip damaged records", func(t *testing.T) {
		var failed []int
		policy := func(i int, err error) error {
			failed = append(failed, i)
			return nil
		}

		sink := &memorySink{}
		stats, err := Run(context.Background(), openBuilder(t, build()), sink, Options{OnError: policy})
		require.NoError(t, err)
		assert.Equal(t, Stats{Written: 3, Skipped: 3}, stats)
		assert.Equal(t, []int{3, 4, 5}, failed)
	})
}

func TestRun_Cancelled(t *testing.T) {
	doc := openBuilder(t, tt.New(counterFields...).WithRecords(numbered(5)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &memorySink{}
	_, err := Run(ctx, doc, sink, Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, sink.aborted)
	assert.False(t, sink.closed)
}

func TestRun_Logging(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	doc := openBuilder(t, tt.New(counterFields...).WithRecords(numbered(2500)))

	_, err := Run(context.Background(), doc, &memorySink{}, Options{Logger: logger})
	require.NoError(t, err)

	var progress []interface{}
	for _, e := range hook.AllEntries() {
		if e.Message == "export progress" {
			progress = append(progress, e.Data["processed"])
		}
	}
	assert.Equal(t, []interface{}{1, 1000, 2000}, progress)

	last := hook.LastEntry()
	assert.Equal(t, "export complete", last.Message)
	assert.Equal(t, logrus.InfoLevel, last.Level)
	assert.Equal(t, 2500, last.Data["written"])
}

func TestCSVSink(t *testing.T) {
	var buf bytes.Buffer
	_, err := Run(context.Background(), openStaff(t), NewCSVSink(&buf, defaultRenderer()), Options{})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Name,Age,Salary,Score,Born,Alarm,Seen,Active,Exact,Notes", lines[0])
	assert.Equal(t, "Ann,30,1234.50,0.125000,2020-01-01,12:34:56,2020-01-01 12:34:56,true,123.45,", lines[1])
	assert.Equal(t, "Bob,,,,,,,,,", lines[2])
}

func TestCSVSink_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "staff.csv")
	sink, err := CreateCSV(path, defaultRenderer())
	require.NoError(t, err)

	stats, err := Run(context.Background(), openStaff(t), sink, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Written)
	assert.FileExists(t, path)
}

func TestSQLiteSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "staff.sqlite")
	sink, err := OpenSQLite(path, "staff", defaultRenderer())
	require.NoError(t, err)

	_, err = Run(context.Background(), openStaff(t), sink, Options{})
	require.NoError(t, err)

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "staff"`).Scan(&count))
	assert.Equal(t, 2, count)

	var (
		age    int64
		salary float64
		born   string
		active int64
		exact  string
		notes  []byte
	)
	row := db.QueryRow(`SELECT "Age", "Salary", "Born", "Active", "Exact", "Notes" FROM "staff" WHERE "Name" = ?`, "Ann")
	require.NoError(t, row.Scan(&age, &salary, &born, &active, &exact, &notes))
	assert.Equal(t, int64(30), age)
	assert.Equal(t, 1234.5, salary)
	assert.Equal(t, "2020-01-01", born)
	assert.Equal(t, int64(1), active)
	assert.Equal(t, "123.45", exact)
	assert.Equal(t, []byte("hi"), notes)

	var bobAge sql.NullInt64
	require.NoError(t, db.QueryRow(`SELECT "Age" FROM "staff" WHERE "Name" = 'Bob'`).Scan(&bobAge))
	assert.False(t, bobAge.Valid)
}

func TestSQLiteSink_ReplacesTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "staff.sqlite")
	for i := 0; i < 2; i++ {
		sink, err := OpenSQLite(path, "staff", defaultRenderer())
		require.NoError(t, err)
		_, err = Run(context.Background(), openStaff(t), sink, Options{})
		require.NoError(t, err)
	}

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "staff"`).Scan(&count))
	assert.Equal(t, 2, count)
}

// corruptCounter declares more records than its blocks hold
func corruptCounter(blocks, perBlock int) *tt.Builder {
	recs := make([][][]byte, blocks)
	for i := range recs {
		recs[i] = numbered(perBlock)
	}
	b := tt.New(counterFields...).WithBlocks(recs...)
	b.NumRecords = tt.IntPtr(blocks*perBlock + 50)
	return b
}

func TestSQLiteSink_AbortKeepsPreviousTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "staff.sqlite")
	sink, err := OpenSQLite(path, "staff", defaultRenderer())
	require.NoError(t, err)
	_, err = Run(context.Background(), openStaff(t), sink, Options{})
	require.NoError(t, err)

	sink, err = OpenSQLite(path, "staff", defaultRenderer())
	require.NoError(t, err)
	_, err = Run(context.Background(), openBuilder(t, corruptCounter(1, 3)), sink, Options{})
	var ce *table.CorruptionError
	require.True(t, errors.As(err, &ce))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "staff"`).Scan(&count))
	assert.Equal(t, 2, count)

	var name string
	require.NoError(t, db.QueryRow(`SELECT "Name" FROM "staff" ORDER BY rowid LIMIT 1`).Scan(&name))
	assert.Equal(t, "Ann", name)
}

func TestPebbleSink_AbortWritesNothing(t *testing.T) {
	testCases := []struct {
		name             string
		blocks, perBlock int
	}{
		{"pending batch", 1, 3},
		{"after a flush", 5, 250},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "pebble")
			sink, err := OpenPebble(dir, "counter", defaultRenderer())
			require.NoError(t, err)
			runID := sink.RunID()

			_, err = Run(context.Background(), openBuilder(t, corruptCounter(tc.blocks, tc.perBlock)), sink, Options{})
			require.Error(t, err)

			db, err := pebble.Open(dir, &pebble.Options{})
			require.NoError(t, err)
			defer db.Close()

			_, err = ReadRun(db, runID)
			assert.ErrorIs(t, err, pebble.ErrNotFound)
			for _, i := range []int{0, tc.blocks*tc.perBlock - 1} {
				_, err = ReadRecord(db, "counter", i)
				assert.ErrorIs(t, err, pebble.ErrNotFound, "record %d", i)
			}
		})
	}
}

func TestPebbleSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pebble")
	sink, err := OpenPebble(dir, "staff", defaultRenderer())
	require.NoError(t, err)
	runID := sink.RunID()

	_, err = Run(context.Background(), openStaff(t), sink, Options{})
	require.NoError(t, err)

	db, err := pebble.Open(dir, &pebble.Options{})
	require.NoError(t, err)
	defer db.Close()

	ann, err := ReadRecord(db, "staff", 0)
	require.NoError(t, err)
	assert.Equal(t, "Ann", ann["Name"])
	assert.Equal(t, "30", ann["Age"])
	assert.Equal(t, "2020-01-01", ann["Born"])

	bob, err := ReadRecord(db, "staff", 1)
	require.NoError(t, err)
	assert.Equal(t, "", bob["Age"])

	_, err = ReadRecord(db, "staff", 2)
	assert.ErrorIs(t, err, pebble.ErrNotFound)

	meta, err := ReadRun(db, runID)
	require.NoError(t, err)
	assert.Equal(t, "staff", meta.Table)
	assert.Equal(t, 2, meta.Records)
	assert.Len(t, meta.Fields, len(staffFields))
	assert.False(t, meta.Finished.Before(meta.Started))
}

func TestRecordKey_SortsByIndex(t *testing.T) {
	a := RecordKey("t", 9)
	b := RecordKey("t", 10)
	assert.Equal(t, -1, bytes.Compare(a, b))
	assert.Equal(t, "t/0000000009", string(a))
}
