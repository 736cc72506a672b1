package codec

import (
	"encoding/binary"
	"math"
)

const signBit64 = uint64(1) << 63

// DecodeInt8 decodes a 1-byte sign-biased integer
func DecodeInt8(b []byte) int8 {
	return int8(b[0] ^ 0x80)
}

// EncodeInt8 encodes v as a 1-byte sign-biased integer
func EncodeInt8(v int8) []byte {
	return []byte{uint8(v) ^ 0x80}
}

// DecodeInt16 decodes a 2-byte big-endian sign-biased integer
func DecodeInt16(b []byte) int16 {
	return int16(binary.BigEndian.Uint16(b) ^ 0x8000)
}

// EncodeInt16 encodes v as a 2-byte big-endian sign-biased integer
func EncodeInt16(v int16) []byte {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, uint16(v)^0x8000)
	return buf
}

// DecodeInt32 decodes a 4-byte big-endian sign-biased integer
func DecodeInt32(b []byte) int32 {
	return int32(binary.BigEndian.Uint32(b) ^ 0x80000000)
}

// EncodeInt32 encodes v as a 4-byte big-endian sign-biased integer
func EncodeInt32(v int32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(v)^0x80000000)
	return buf
}

// DecodeFloat64 decodes an 8-byte big-endian sign-biased IEEE-754 double.
// A set top bit marks a non-negative value and is cleared; otherwise the
// value is negative and every bit was complemented on write.
func DecodeFloat64(b []byte) float64 {
	u := binary.BigEndian.Uint64(b)
	if u&signBit64 != 0 {
		u &^= signBit64
	} else {
		u = ^u
	}
	return math.Float64frombits(u)
}

// EncodeFloat64 encodes v as an 8-byte big-endian sign-biased double
func EncodeFloat64(v float64) []byte {
	u := math.Float64bits(v)
	if u&signBit64 == 0 {
		u |= signBit64
	} else {
		u = ^u
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, u)
	return buf
}
