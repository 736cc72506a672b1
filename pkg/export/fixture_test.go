package export

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ssargent/pxdb/pkg/codec"
	"github.com/ssargent/pxdb/pkg/config"
	"github.com/ssargent/pxdb/pkg/table"
	tt "github.com/ssargent/pxdb/pkg/table/tabletest"
	"github.com/ssargent/pxdb/pkg/value"
)

var staffFields = []tt.Field{
	{Name: "Name", Type: value.Alpha, Size: 10},
	{Name: "Age", Type: value.Long, Size: 4},
	{Name: "Salary", Type: value.Currency, Size: 8},
	{Name: "Score", Type: value.Number, Size: 8},
	{Name: "Born", Type: value.Date, Size: 4},
	{Name: "Alarm", Type: value.Time, Size: 4},
	{Name: "Seen", Type: value.Timestamp, Size: 8},
	{Name: "Active", Type: value.Logical, Size: 1},
	{Name: "Exact", Type: value.BCD, Size: 2},
	{Name: "Notes", Type: value.MemoBlob, Size: 15},
}

func bcd(t *testing.T, digits string) []byte {
	t.Helper()
	d := make([]byte, codec.BCDDigits)
	for i := 0; i < len(digits); i++ {
		d[codec.BCDDigits-len(digits)+i] = digits[i] - '0'
	}
	b, err := codec.PackBCD(false, d, 2)
	require.NoError(t, err)
	return b
}

func memo(leader string, length uint32) []byte {
	b := make([]byte, 15)
	copy(b, leader)
	binary.LittleEndian.PutUint32(b[9:], length)
	return b
}

// staffTable holds Ann with every column set and Bob with only a name
func staffTable(t *testing.T) *tt.Builder {
	ann := tt.Record(
		tt.Alpha("Ann", 10),
		tt.Long(30),
		tt.Number(1234.5),
		tt.Number(0.125),
		tt.Long(737425),
		tt.Long(45296000),
		tt.Number(63713565296000),
		tt.Logical(true),
		bcd(t, "12345"),
		memo("hi", 2),
	)
	bob := tt.Record(
		tt.Alpha("Bob", 10),
		tt.Null(4), tt.Null(8), tt.Null(8), tt.Null(4), tt.Null(4), tt.Null(8), tt.Null(1),
		tt.Null(codec.BCDSize), tt.Null(15),
	)
	b := tt.New(staffFields...).WithBlocks([][]byte{ann, bob})
	b.TableName = "staff"
	return b
}

func openStaff(t *testing.T) *table.Document {
	t.Helper()
	raw := staffTable(t).Bytes()
	doc, err := table.Open(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)
	return doc
}

func defaultRenderer() *Renderer {
	return NewRenderer(config.DefaultConfig().Export)
}
