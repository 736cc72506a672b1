package codec

import (
	"errors"
	"fmt"
)

const (
	// BCDSize is the physical size of a BCD field
	BCDSize = 17
	// BCDDigits is the number of packed digits in a BCD field
	BCDDigits = 32
)

// ErrInvalidBCD is returned for BCD fields with a bad size or a non-decimal nibble
var ErrInvalidBCD = errors.New("invalid BCD field")

// UnpackBCD splits a 17-byte BCD field into its sign and 32 decimal digits.
// The returned digits are values 0-9, most significant first.
func UnpackBCD(b []byte) (negative bool, digits []byte, err error) {
	if len(b) != BCDSize {
		return false, nil, fmt.Errorf("%w: %d bytes, want %d", ErrInvalidBCD, len(b), BCDSize)
	}

	negative = b[0]&0x80 == 0
	digits = make([]byte, 0, BCDDigits)
	for _, c := range b[1:] {
		if negative {
			c = ^c
		}
		hi, lo := c>>4, c&0x0f
		if hi > 9 || lo > 9 {
			return false, nil, fmt.Errorf("%w: nibble 0x%02x", ErrInvalidBCD, c)
		}
		digits = append(digits, hi, lo)
	}
	return negative, digits, nil
}

// PackBCD is the inverse of UnpackBCD. precision is stored in the low six
// bits of the sign byte.
func PackBCD(negative bool, digits []byte, precision uint8) ([]byte, error) {
	if len(digits) != BCDDigits {
		return nil, fmt.Errorf("%w: %d digits, want %d", ErrInvalidBCD, len(digits), BCDDigits)
	}

	buf := make([]byte, BCDSize)
	buf[0] = 0x80 | (precision & 0x3f)
	for i := 0; i < BCDDigits; i += 2 {
		if digits[i] > 9 || digits[i+1] > 9 {
			return nil, fmt.Errorf("%w: digit out of range", ErrInvalidBCD)
		}
		buf[1+i/2] = digits[i]<<4 | digits[i+1]
	}
	if negative {
		for i := range buf {
			buf[i] = ^buf[i]
		}
	}
	return buf, nil
}
