// Package codec provides the byte-level primitives used to read Paradox table files.
//
// Nothing in this package knows about headers, blocks or field types. It only
// turns bytes at an offset into sized integers and floats, with the byte order
// and sign policy spelled out by the function name, so that every transform
// can be tested in isolation.
//
// # Byte Order
//
// Paradox files mix two conventions:
//
//   - Header and block-header integers are plain little-endian.
//   - Field data is big-endian with the sign bit complemented, so that
//     comparing the stored bytes left to right matches numeric order.
//
// The little-endian helpers (Uint16, Uint32, Int16) read header structures.
// The sign-biased helpers (DecodeInt8, DecodeInt16, DecodeInt32,
// DecodeFloat64) read field data.
//
// # Sign-biased Integers
//
// A stored integer is the big-endian two's complement value with its top bit
// flipped:
//
//	stored  0x80 0x00  ->  0
//	stored  0x80 0x01  ->  1
//	stored  0x7F 0xFF  -> -1
//
// Decoding is "read big-endian, XOR the top bit". Encoding is the same
// operation, which makes Encode(Decode(x)) == x for every bit pattern.
//
// # Sign-biased Doubles
//
// Non-negative doubles are stored as their IEEE-754 bit pattern with the top
// bit set. Negative doubles are stored with every bit complemented. Both
// directions are involutions over all 2^64 patterns.
//
// # BCD
//
// BCD fields are 17 bytes: a sign/precision byte followed by 32 packed decimal
// digits. Negative values store every byte complemented. UnpackBCD returns
// the sign and the 32 digits; callers apply the scale.
//
// # Usage
//
//	cur := codec.NewCursor(file, size)
//	hdr, err := cur.ReadAt(0, 0x58)
//	if err != nil {
//	    return err
//	}
//	recordSize := codec.Uint16(hdr, 0x00)
//
//	n := codec.DecodeInt32(field) // Long / Date / Time / AutoInc
//	f := codec.DecodeFloat64(field) // Number / Currency / Timestamp
//
// # Thread Safety
//
// All functions are pure. A Cursor only issues ReadAt calls, so it is safe for
// concurrent use when the underlying io.ReaderAt is (os.File and
// bytes.Reader both are).
package codec
