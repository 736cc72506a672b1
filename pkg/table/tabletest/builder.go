// Package tabletest builds synthetic Paradox table files for tests
package tabletest

import (
	"encoding/binary"
	"os"

	"github.com/ssargent/pxdb/pkg/codec"
	"github.com/ssargent/pxdb/pkg/value"
)

// header offsets written by the builder
const (
	headerLen      = 0x58
	dataHeaderLen  = 0x20
	blockHeaderLen = 6
)

// Field is a column as written to the descriptor table. Size is the scale
// for BCD columns.
type Field struct {
	Name string
	Type value.FieldType
	Size int
}

// Length is the number of bytes the field takes in a record
func (f Field) Length() int {
	if f.Type == value.BCD {
		return codec.BCDSize
	}
	return f.Size
}

// Block is one physical block. Live and Next override what is written to
// the block header; Records are written regardless.
type Block struct {
	Records [][]byte
	Live    *int
	Next    *uint16
}

// Builder describes a table file. The zero values of the override fields
// mean "derive from the rest".
type Builder struct {
	VersionID    uint8
	FileType     uint8
	MaxTableSize uint8
	TableName    string
	CodePage     uint16
	Fields       []Field
	Blocks       []Block
	Chain        []uint16 // link order of blocks, 1-based; defaults to physical order

	RecordSize *int
	HeaderSize *int
	NumRecords *int
	FileBlocks *int
	Encryption uint32
	Truncate   int // bytes cut from the end of the file
}

// New returns a 7.x unkeyed table with 1KiB blocks
func New(fields ...Field) *Builder {
	return &Builder{
		VersionID:    12,
		FileType:     2,
		MaxTableSize: 1,
		TableName:    "people",
		CodePage:     437,
		Fields:       fields,
	}
}

// WithBlocks appends one block per record list
func (b *Builder) WithBlocks(blocks ...[][]byte) *Builder {
	for _, recs := range blocks {
		b.Blocks = append(b.Blocks, Block{Records: recs})
	}
	return b
}

// WithRecords spreads records over as many full blocks as needed
func (b *Builder) WithRecords(records [][]byte) *Builder {
	capacity := (int(b.MaxTableSize)*1024 - blockHeaderLen) / b.sumRecordSize()
	for len(records) > 0 {
		n := capacity
		if n > len(records) {
			n = len(records)
		}
		b.Blocks = append(b.Blocks, Block{Records: records[:n]})
		records = records[n:]
	}
	return b
}

func (b *Builder) sumRecordSize() int {
	n := 0
	for _, f := range b.Fields {
		n += f.Length()
	}
	return n
}

func hasDataHeader(id, fileType uint8) bool {
	if id < 5 {
		return false
	}
	switch fileType {
	case 0, 2, 3, 5, 8:
		return true
	}
	return false
}

// Bytes renders the table file
func (b *Builder) Bytes() []byte {
	recordSize := b.sumRecordSize()
	if b.RecordSize != nil {
		recordSize = *b.RecordSize
	}

	start := headerLen
	if hasDataHeader(b.VersionID, b.FileType) {
		start += dataHeaderLen
	}
	nameLen := 79
	if b.VersionID >= 12 {
		nameLen = 261
	}

	n := len(b.Fields)
	area := make([]byte, 2*n+4+4*n+nameLen)
	for i, f := range b.Fields {
		area[2*i] = byte(f.Type)
		area[2*i+1] = byte(f.Size)
	}
	copy(area[2*n+4+4*n:], b.TableName)
	for _, f := range b.Fields {
		area = append(area, f.Name...)
		area = append(area, 0)
	}

	headerSize := start + len(area)
	if b.HeaderSize != nil {
		headerSize = *b.HeaderSize
	}

	chain := b.Chain
	if chain == nil {
		for i := range b.Blocks {
			chain = append(chain, uint16(i+1))
		}
	}

	numRecords := 0
	for _, blk := range chain {
		numRecords += len(b.Blocks[blk-1].Records)
	}
	if b.NumRecords != nil {
		numRecords = *b.NumRecords
	}
	fileBlocks := len(b.Blocks)
	if b.FileBlocks != nil {
		fileBlocks = *b.FileBlocks
	}

	blockSize := int(b.MaxTableSize) * 1024
	out := make([]byte, headerSize+len(b.Blocks)*blockSize)

	le := binary.LittleEndian
	le.PutUint16(out[0x00:], uint16(recordSize))
	le.PutUint16(out[0x02:], uint16(headerSize))
	out[0x04] = b.FileType
	out[0x05] = b.MaxTableSize
	le.PutUint32(out[0x06:], uint32(numRecords))
	le.PutUint16(out[0x0A:], uint16(len(b.Blocks)+1))
	le.PutUint16(out[0x0C:], uint16(fileBlocks))
	if len(chain) > 0 {
		le.PutUint16(out[0x0E:], chain[0])
		le.PutUint16(out[0x10:], chain[len(chain)-1])
	}
	le.PutUint16(out[0x21:], uint16(n))
	le.PutUint32(out[0x25:], b.Encryption)
	out[0x39] = b.VersionID
	le.PutUint16(out[0x3A:], uint16(len(b.Blocks)))
	if start > headerLen {
		le.PutUint16(out[0x6A:], b.CodePage)
	}
	if headerSize > start {
		copy(out[start:headerSize], area)
	}

	nextOf := map[uint16]uint16{}
	prevOf := map[uint16]uint16{}
	for i, blk := range chain {
		if i+1 < len(chain) {
			nextOf[blk] = chain[i+1]
		}
		if i > 0 {
			prevOf[blk] = chain[i-1]
		}
	}

	for i, blk := range b.Blocks {
		num := uint16(i + 1)
		base := headerSize + i*blockSize

		next := nextOf[num]
		if blk.Next != nil {
			next = *blk.Next
		}
		live := len(blk.Records)
		if blk.Live != nil {
			live = *blk.Live
		}

		le.PutUint16(out[base:], next)
		le.PutUint16(out[base+2:], prevOf[num])
		le.PutUint16(out[base+4:], uint16(int16((live-1)*recordSize)))

		for j, rec := range blk.Records {
			at := base + blockHeaderLen + j*recordSize
			if at+len(rec) > base+blockSize {
				break
			}
			copy(out[at:], rec)
		}
	}

	return out[:len(out)-b.Truncate]
}

// WriteFile writes the table file to path
func (b *Builder) WriteFile(path string) error {
	return os.WriteFile(path, b.Bytes(), 0o644)
}

// Record concatenates encoded field values
func Record(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Alpha pads s with NULs to n bytes
func Alpha(s string, n int) []byte {
	b := make([]byte, n)
	copy(b, s)
	return b
}

// Long encodes a Long, AutoInc, Date or Time field
func Long(v int32) []byte { return codec.EncodeInt32(v) }

// Short encodes a Short field
func Short(v int16) []byte { return codec.EncodeInt16(v) }

// Number encodes a Number, Currency or Timestamp field
func Number(v float64) []byte { return codec.EncodeFloat64(v) }

// Logical encodes a Logical field
func Logical(v bool) []byte {
	if v {
		return codec.EncodeInt8(1)
	}
	return codec.EncodeInt8(0)
}

// Null is an all-zero field of n bytes
func Null(n int) []byte { return make([]byte, n) }

// IntPtr returns &n
func IntPtr(n int) *int { return &n }

// U16Ptr returns &n
func U16Ptr(n uint16) *uint16 { return &n }
