package table

import (
	"github.com/ssargent/pxdb/pkg/codec"
	"github.com/ssargent/pxdb/pkg/value"
)

// parseSchema decodes the field descriptors, table name and field names that
// sit between the header and HeaderSize. It fills h.TableName.
func parseSchema(cur *codec.Cursor, h *Header, start int64, dec *value.Decoder) ([]FieldDescriptor, error) {
	area, err := readHeaderBytes(cur, start, int(int64(h.HeaderSize)-start))
	if err != nil {
		return nil, err
	}

	n := int(h.NumFields)
	fields := make([]FieldDescriptor, n)
	offset := 0
	for i := 0; i < n; i++ {
		t := value.FieldType(area[2*i])
		size := int(area[2*i+1])

		f := FieldDescriptor{Type: t, Length: size, Offset: offset}
		if t == value.BCD {
			f.Scale = size
			f.Length = codec.BCDSize
		}
		if f.Length == 0 {
			return nil, formatErrorf(start+int64(2*i), "field %d has zero length", i)
		}

		fields[i] = f
		offset += f.Length
	}

	if offset != int(h.RecordSize) {
		return nil, formatErrorf(offRecordSize, "fields span %d bytes but record size is %d", offset, h.RecordSize)
	}

	// table name pointer and field name pointers are skipped
	pos := 2*n + 4 + 4*n
	nameLen := tableNameLen(h)
	h.TableName = dec.Text(codec.CString(area[pos : pos+nameLen]))
	pos += nameLen

	for i := range fields {
		end := pos
		for end < len(area) && area[end] != 0 {
			end++
		}
		if end >= len(area) {
			return nil, formatErrorf(start+int64(pos), "name of field %d is not terminated inside the header", i)
		}
		fields[i].Name = dec.Text(area[pos:end])
		pos = end + 1
	}

	return fields, nil
}
