package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldType_String(t *testing.T) {
	assert.Equal(t, "Alpha", Alpha.String())
	assert.Equal(t, "Memo", MemoBlob.String())
	assert.Equal(t, "Unknown(0x42)", FieldType(0x42).String())
	assert.True(t, BCD.Known())
	assert.False(t, FieldType(0x42).Known())
	assert.True(t, Graphic.IsBlob())
	assert.False(t, Alpha.IsBlob())
}

func TestKindFor(t *testing.T) {
	assert.Equal(t, KindString, KindFor(Alpha))
	assert.Equal(t, KindString, KindFor(BCD))
	assert.Equal(t, KindInteger, KindFor(Date))
	assert.Equal(t, KindInteger, KindFor(Time))
	assert.Equal(t, KindFloat, KindFor(Timestamp))
	assert.Equal(t, KindBool, KindFor(Logical))
	assert.Equal(t, KindBlobRef, KindFor(OLE))
	assert.Equal(t, KindUnsupported, KindFor(FieldType(0)))
}

func TestValue_Accessors(t *testing.T) {
	s := String(Alpha, "x")
	_, ok := s.Int()
	assert.False(t, ok)
	str, ok := s.Str()
	assert.True(t, ok)
	assert.Equal(t, "x", str)

	n, ok := Integer(Long, 7).Int()
	assert.True(t, ok)
	assert.Equal(t, int64(7), n)

	b, ok := Bool(Logical, true).Bool()
	assert.True(t, ok)
	assert.True(t, b)

	raw := []byte{1, 2}
	v := Raw(Bytes, raw)
	raw[0] = 9
	got, ok := v.Bytes()
	assert.True(t, ok)
	assert.Equal(t, []byte{1, 2}, got, "Raw must copy its input")
}

func TestValue_EmptyStringIsNotNull(t *testing.T) {
	empty := String(Alpha, "")
	null := Null(Alpha)

	assert.False(t, empty.IsNull())
	assert.True(t, null.IsNull())
	assert.False(t, empty.Equal(null))
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, "NULL", Null(Long).String())
	assert.Equal(t, `"abc"`, String(Alpha, "abc").String())
	assert.Equal(t, "-3", Integer(Short, -3).String())
	assert.Equal(t, "2.5", Float(Number, 2.5).String())
	assert.Equal(t, "true", Bool(Logical, true).String())
	assert.Equal(t, "0x0aff", Raw(Bytes, []byte{0x0a, 0xff}).String())
	assert.Equal(t, "unsupported Unknown(0x30)", Unsupported(FieldType(0x30), nil).String())
}
