package blobfile

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/pxdb/pkg/value"
)

const mbBlock = 4096

// buildMB returns a blob file with a single blob at 0x1000 and a memo in
// slot 1 of a suballocated block at 0x2000
func buildMB(single, memo []byte) []byte {
	out := make([]byte, 3*mbBlock)

	s := out[mbBlock:]
	s[0] = blockSingle
	binary.LittleEndian.PutUint16(s[1:], 1)
	binary.LittleEndian.PutUint32(s[3:], uint32(len(single)))
	binary.LittleEndian.PutUint16(s[7:], 1)
	copy(s[singleHeaderLen:], single)

	b := out[2*mbBlock:]
	b[0] = blockSuballocated
	binary.LittleEndian.PutUint16(b[1:], 1)
	entry := b[tableStart+1*tableEntryLen:]
	entry[0] = 0x20
	entry[1] = byte(len(memo)/16 + 1)
	binary.LittleEndian.PutUint16(entry[2:], 1)
	entry[4] = byte(len(memo) % 16)
	copy(b[0x20*16:], memo)

	return out
}

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

func TestResolveBlob(t *testing.T) {
	single := bytes.Repeat([]byte("x"), 300)
	memo := []byte("a short memo, 27 bytes long")
	mb := buildMB(single, memo)
	f := New(bytes.NewReader(mb), int64(len(mb)))

	rc, err := f.ResolveBlob(value.BlobRef{Offset: mbBlock, Index: SingleIndex, Length: uint32(len(single))})
	require.NoError(t, err)
	assert.Equal(t, string(single), readAll(t, rc))

	rc, err = f.ResolveBlob(value.BlobRef{Offset: 2 * mbBlock, Index: 1, Length: uint32(len(memo))})
	require.NoError(t, err)
	assert.Equal(t, string(memo), readAll(t, rc))
}

func TestResolveBlob_Errors(t *testing.T) {
	mb := buildMB([]byte("single payload"), []byte("memo"))
	f := New(bytes.NewReader(mb), int64(len(mb)))

	testCases := []struct {
		name string
		ref  value.BlobRef
	}{
		{"wrong block type for single", value.BlobRef{Offset: 2 * mbBlock, Index: SingleIndex, Length: 14}},
		{"single length mismatch", value.BlobRef{Offset: mbBlock, Index: SingleIndex, Length: 15}},
		{"wrong block type for slot", value.BlobRef{Offset: mbBlock, Index: 1, Length: 4}},
		{"empty slot", value.BlobRef{Offset: 2 * mbBlock, Index: 2, Length: 4}},
		{"slot length mismatch", value.BlobRef{Offset: 2 * mbBlock, Index: 1, Length: 5}},
		{"slot out of range", value.BlobRef{Offset: 2 * mbBlock, Index: 64, Length: 4}},
		{"past end of file", value.BlobRef{Offset: 10 * mbBlock, Index: SingleIndex, Length: 4}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.ResolveBlob(tc.ref)
			assert.ErrorIs(t, err, ErrBadBlob)
		})
	}
}

func TestFindSibling(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "CUSTOMER.DB")

	_, ok := FindSibling(db)
	assert.False(t, ok)

	mb := filepath.Join(dir, "CUSTOMER.MB")
	require.NoError(t, os.WriteFile(mb, buildMB(nil, nil), 0o644))

	got, ok := FindSibling(db)
	require.True(t, ok)
	assert.Equal(t, mb, got)

	f, err := OpenFile(got)
	require.NoError(t, err)
	assert.NoError(t, f.Close())
}
