package table

import (
	"github.com/ssargent/pxdb/pkg/table/tabletest"
	"github.com/ssargent/pxdb/pkg/value"
)

var (
	newFixture = tabletest.New
	record     = tabletest.Record
	alpha      = tabletest.Alpha
	long       = tabletest.Long
	short      = tabletest.Short
	intPtr     = tabletest.IntPtr
	u16Ptr     = tabletest.U16Ptr
)

// people is the schema most tests use: 10 + 4 = 14 bytes
var people = []tabletest.Field{
	{Name: "Name", Type: value.Alpha, Size: 10},
	{Name: "Age", Type: value.Long, Size: 4},
}

func person(name string, age int32) []byte {
	return record(alpha(name, 10), long(age))
}

// peopleRecords returns n distinct people records starting at from
func peopleRecords(from, n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = person(personName(from+i), int32(from+i))
	}
	return out
}

func personName(i int) string {
	return "p" + string(rune('A'+i/26%26)) + string(rune('a'+i%26))
}
