// Package value holds the decoded value model for Paradox fields and the
// per-type rules that turn raw field bytes into values.
package value

import "fmt"

// FieldType is the declared type code of a Paradox column
type FieldType uint8

// Field type codes as stored in the field-descriptor table
const (
	Alpha       FieldType = 0x01
	Date        FieldType = 0x02
	Short       FieldType = 0x03
	Long        FieldType = 0x04
	Currency    FieldType = 0x05
	Number      FieldType = 0x06
	Logical     FieldType = 0x09
	MemoBlob    FieldType = 0x0C
	Blob        FieldType = 0x0D
	FmtMemoBlob FieldType = 0x0E
	OLE         FieldType = 0x0F
	Graphic     FieldType = 0x10
	Time        FieldType = 0x14
	Timestamp   FieldType = 0x15
	AutoInc     FieldType = 0x16
	BCD         FieldType = 0x17
	Bytes       FieldType = 0x18
)

var fieldTypeNames = map[FieldType]string{
	Alpha:       "Alpha",
	Date:        "Date",
	Short:       "Short",
	Long:        "Long",
	Currency:    "Currency",
	Number:      "Number",
	Logical:     "Logical",
	MemoBlob:    "Memo",
	Blob:        "Blob",
	FmtMemoBlob: "FmtMemo",
	OLE:         "OLE",
	Graphic:     "Graphic",
	Time:        "Time",
	Timestamp:   "Timestamp",
	AutoInc:     "AutoInc",
	BCD:         "BCD",
	Bytes:       "Bytes",
}

// Known reports whether t has a decoding rule
func (t FieldType) Known() bool {
	_, ok := fieldTypeNames[t]
	return ok
}

// IsBlob reports whether t stores a reference into the blob file
func (t FieldType) IsBlob() bool {
	switch t {
	case MemoBlob, Blob, FmtMemoBlob, OLE, Graphic:
		return true
	}
	return false
}

// String returns the display name used by the Paradox tools, or Unknown(0xNN)
func (t FieldType) String() string {
	if name, ok := fieldTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(0x%02x)", uint8(t))
}

// Kind is the tag of a Value
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInteger
	KindFloat
	KindBool
	KindBytes
	KindBlobRef
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindBytes:
		return "bytes"
	case KindBlobRef:
		return "blobref"
	case KindUnsupported:
		return "unsupported"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// KindFor returns the non-null kind a field of type t decodes to
func KindFor(t FieldType) Kind {
	switch t {
	case Alpha, BCD:
		return KindString
	case Short, Long, AutoInc, Date, Time:
		return KindInteger
	case Number, Currency, Timestamp:
		return KindFloat
	case Logical:
		return KindBool
	case Bytes:
		return KindBytes
	case MemoBlob, Blob, FmtMemoBlob, OLE, Graphic:
		return KindBlobRef
	}
	return KindUnsupported
}
