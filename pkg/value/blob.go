package value

import (
	"bytes"
	"fmt"

	"github.com/ssargent/pxdb/pkg/codec"
)

// BlobDescriptorSize is the size of the pointer structure at the end of every blob field
const BlobDescriptorSize = 10

// BlobRef points into the table's blob (.MB) file.
//
// The in-record layout is the leader (first Length-10 bytes of the payload,
// stored inline) followed by:
//
//	offset u32 LE  (low byte = slot index inside the blob block)
//	length u32 LE
//	modnr  u16 LE
type BlobRef struct {
	Leader []byte
	Offset uint32
	Index  uint8
	Length uint32
	ModNr  uint16
}

// ParseBlobRef decodes the descriptor of a blob field
func ParseBlobRef(raw []byte) (BlobRef, error) {
	if len(raw) < BlobDescriptorSize {
		return BlobRef{}, fmt.Errorf("blob field is %d bytes, need at least %d", len(raw), BlobDescriptorSize)
	}

	n := len(raw) - BlobDescriptorSize
	desc := raw[n:]
	off := codec.Uint32(desc, 0)

	return BlobRef{
		Leader: append([]byte(nil), raw[:n]...),
		Offset: off &^ 0xff,
		Index:  uint8(off & 0xff),
		Length: codec.Uint32(desc, 4),
		ModNr:  codec.Uint16(desc, 8),
	}, nil
}

// Inline returns the payload when it fits entirely in the leader
func (r BlobRef) Inline() ([]byte, bool) {
	if int(r.Length) > len(r.Leader) {
		return nil, false
	}
	return r.Leader[:r.Length], true
}

// Equal reports whether two references describe the same payload
func (r BlobRef) Equal(o BlobRef) bool {
	return r.Offset == o.Offset && r.Index == o.Index && r.Length == o.Length &&
		r.ModNr == o.ModNr && bytes.Equal(r.Leader, o.Leader)
}

func (r BlobRef) String() string {
	return fmt.Sprintf("blob{offset=%d index=%d length=%d modnr=%d}", r.Offset, r.Index, r.Length, r.ModNr)
}
