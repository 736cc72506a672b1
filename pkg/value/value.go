package value

import (
	"encoding/hex"
	"strconv"
)

// Value is one decoded field. Kind says which accessor is meaningful; Type is
// the declared type of the column it came from.
type Value struct {
	Kind Kind
	Type FieldType

	str  string
	num  int64
	flt  float64
	raw  []byte
	blob *BlobRef
}

// Null returns the null value for a column of type t
func Null(t FieldType) Value {
	return Value{Kind: KindNull, Type: t}
}

// String returns a string value
func String(t FieldType, s string) Value {
	return Value{Kind: KindString, Type: t, str: s}
}

// Integer returns an integer value
func Integer(t FieldType, n int64) Value {
	return Value{Kind: KindInteger, Type: t, num: n}
}

// Float returns a floating-point value
func Float(t FieldType, f float64) Value {
	return Value{Kind: KindFloat, Type: t, flt: f}
}

// Bool returns a boolean value
func Bool(t FieldType, b bool) Value {
	v := Value{Kind: KindBool, Type: t}
	if b {
		v.num = 1
	}
	return v
}

// Raw returns a bytes value. The slice is copied.
func Raw(t FieldType, b []byte) Value {
	return Value{Kind: KindBytes, Type: t, raw: append([]byte(nil), b...)}
}

// Ref returns a blob-reference marker
func Ref(t FieldType, ref BlobRef) Value {
	return Value{Kind: KindBlobRef, Type: t, blob: &ref}
}

// Unsupported returns a marker for bytes no decoding rule applies to. The raw
// bytes are kept so callers can still dump them.
func Unsupported(t FieldType, b []byte) Value {
	return Value{Kind: KindUnsupported, Type: t, raw: append([]byte(nil), b...)}
}

// IsNull reports whether the value is the column's null marker
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// Str returns the string payload of a KindString value
func (v Value) Str() (string, bool) {
	return v.str, v.Kind == KindString
}

// Int returns the payload of a KindInteger value
func (v Value) Int() (int64, bool) {
	return v.num, v.Kind == KindInteger
}

// Float returns the payload of a KindFloat value
func (v Value) Float() (float64, bool) {
	return v.flt, v.Kind == KindFloat
}

// Bool returns the payload of a KindBool value
func (v Value) Bool() (bool, bool) {
	return v.num != 0, v.Kind == KindBool
}

// Bytes returns the payload of a KindBytes or KindUnsupported value
func (v Value) Bytes() ([]byte, bool) {
	return v.raw, v.Kind == KindBytes || v.Kind == KindUnsupported
}

// BlobRef returns the reference of a KindBlobRef value
func (v Value) BlobRef() (BlobRef, bool) {
	if v.Kind != KindBlobRef || v.blob == nil {
		return BlobRef{}, false
	}
	return *v.blob, true
}

// Interface returns the payload as a plain Go value: nil, string, int64,
// float64, bool, []byte or BlobRef
func (v Value) Interface() interface{} {
	switch v.Kind {
	case KindString:
		return v.str
	case KindInteger:
		return v.num
	case KindFloat:
		return v.flt
	case KindBool:
		return v.num != 0
	case KindBytes, KindUnsupported:
		return v.raw
	case KindBlobRef:
		if v.blob != nil {
			return *v.blob
		}
	}
	return nil
}

// Equal reports whether two values have the same kind, type and payload
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind || v.Type != o.Type {
		return false
	}
	switch v.Kind {
	case KindString:
		return v.str == o.str
	case KindInteger, KindBool:
		return v.num == o.num
	case KindFloat:
		return v.flt == o.flt
	case KindBytes, KindUnsupported:
		return string(v.raw) == string(o.raw)
	case KindBlobRef:
		a, _ := v.BlobRef()
		b, _ := o.BlobRef()
		return a.Equal(b)
	}
	return true
}

// String renders the value for debugging; presentation belongs to callers
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "NULL"
	case KindString:
		return strconv.Quote(v.str)
	case KindInteger:
		return strconv.FormatInt(v.num, 10)
	case KindFloat:
		return strconv.FormatFloat(v.flt, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.num != 0)
	case KindBytes:
		return "0x" + hex.EncodeToString(v.raw)
	case KindBlobRef:
		if v.blob != nil {
			return v.blob.String()
		}
	}
	return "unsupported " + v.Type.String()
}
