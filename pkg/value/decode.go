package value

import (
	"math/big"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/ssargent/pxdb/pkg/codec"
)

// Field is the part of a column descriptor the decoder needs
type Field struct {
	Type   FieldType
	Length int
	Scale  int // BCD decimal places
}

// Decoder turns raw field bytes into values. It is safe for concurrent use.
type Decoder struct {
	enc encoding.Encoding
}

// NewDecoder creates a decoder that reads Alpha text in enc.
// A nil enc means code page 437.
func NewDecoder(enc encoding.Encoding) *Decoder {
	if enc == nil {
		enc = charmap.CodePage437
	}
	return &Decoder{enc: enc}
}

// Text decodes code-page bytes to UTF-8
func (d *Decoder) Text(b []byte) string {
	out, err := d.enc.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

// Decode interprets raw according to f. It never fails: bytes that no rule
// can interpret come back as an Unsupported value.
func (d *Decoder) Decode(raw []byte, f Field) Value {
	t := f.Type
	if !t.Known() {
		return Unsupported(t, raw)
	}

	// every type uses all-zero bytes as its null marker
	if codec.IsZero(raw) {
		return Null(t)
	}

	switch t {
	case Alpha:
		// a leading NUL ends the string before it starts
		if raw[0] == 0 {
			return Null(t)
		}
		return String(t, d.Text(trimAlpha(raw)))

	case Short:
		if len(raw) != 2 {
			return Unsupported(t, raw)
		}
		return Integer(t, int64(codec.DecodeInt16(raw)))

	case Long, AutoInc, Date, Time:
		if len(raw) != 4 {
			return Unsupported(t, raw)
		}
		return Integer(t, int64(codec.DecodeInt32(raw)))

	case Logical:
		switch len(raw) {
		case 1:
			return Bool(t, codec.DecodeInt8(raw) != 0)
		case 2:
			return Bool(t, codec.DecodeInt16(raw) != 0)
		}
		return Unsupported(t, raw)

	case Number, Currency, Timestamp:
		if len(raw) != 8 {
			return Unsupported(t, raw)
		}
		return Float(t, codec.DecodeFloat64(raw))

	case BCD:
		s, err := DecodeBCD(raw, f.Scale)
		if err != nil {
			return Unsupported(t, raw)
		}
		return String(t, s)

	case Bytes:
		return Raw(t, raw)

	case MemoBlob, Blob, FmtMemoBlob, OLE, Graphic:
		ref, err := ParseBlobRef(raw)
		if err != nil {
			return Unsupported(t, raw)
		}
		return Ref(t, ref)
	}

	return Unsupported(t, raw)
}

// DecodeBCD renders a 17-byte BCD field with scale fractional digits
func DecodeBCD(raw []byte, scale int) (string, error) {
	if scale < 0 || scale > codec.BCDDigits {
		return "", codec.ErrInvalidBCD
	}

	negative, digits, err := codec.UnpackBCD(raw)
	if err != nil {
		return "", err
	}

	ten := big.NewInt(10)
	coeff := new(big.Int)
	for _, dg := range digits {
		coeff.Mul(coeff, ten)
		coeff.Add(coeff, big.NewInt(int64(dg)))
	}
	if negative {
		coeff.Neg(coeff)
	}

	return decimal.NewFromBigInt(coeff, -int32(scale)).StringFixed(int32(scale)), nil
}

// trimAlpha drops trailing NUL and whitespace padding
func trimAlpha(b []byte) []byte {
	n := len(b)
	for n > 0 && isPad(b[n-1]) {
		n--
	}
	return b[:n]
}

func isPad(c byte) bool {
	switch c {
	case 0, ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
