package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrShortRead is returned when a read would run past the end of the source
var ErrShortRead = errors.New("short read")

// Cursor reads fixed-size chunks from a random-access byte source
type Cursor struct {
	src  io.ReaderAt
	size int64
}

// NewCursor creates a cursor over src, which must hold size bytes
func NewCursor(src io.ReaderAt, size int64) *Cursor {
	return &Cursor{src: src, size: size}
}

// NewBytesCursor creates a cursor over an in-memory buffer
func NewBytesCursor(data []byte) *Cursor {
	return &Cursor{src: bytes.NewReader(data), size: int64(len(data))}
}

// Size returns the total size of the source in bytes
func (c *Cursor) Size() int64 {
	return c.size
}

// ReadAt reads exactly n bytes starting at off into a new buffer
func (c *Cursor) ReadAt(off int64, n int) ([]byte, error) {
	if off < 0 || n < 0 || off+int64(n) > c.size {
		return nil, fmt.Errorf("%w: %d bytes at offset %d (source is %d bytes)", ErrShortRead, n, off, c.size)
	}

	buf := make([]byte, n)
	read, err := c.src.ReadAt(buf, off)
	if read == n {
		// io.ReaderAt may report io.EOF together with a full read at the end of the source
		return buf, nil
	}
	if err == nil || err == io.EOF {
		return nil, fmt.Errorf("%w: got %d of %d bytes at offset %d", ErrShortRead, read, n, off)
	}
	return nil, err
}

// Uint8 returns the byte at off
func Uint8(b []byte, off int) uint8 {
	return b[off]
}

// Uint16 reads a little-endian uint16 at off
func Uint16(b []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(b[off:])
}

// Int16 reads a little-endian int16 at off
func Int16(b []byte, off int) int16 {
	return int16(binary.LittleEndian.Uint16(b[off:]))
}

// Uint32 reads a little-endian uint32 at off
func Uint32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off:])
}

// CString returns the bytes of b up to the first NUL
func CString(b []byte) []byte {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return b[:i]
	}
	return b
}

// IsZero reports whether every byte of b is zero
func IsZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
