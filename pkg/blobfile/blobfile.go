// Package blobfile resolves memo, blob, OLE and graphic payloads stored in a
// table's .MB file. A *File satisfies table.BlobResolver.
//
// The .MB file is made of 4KiB blocks. Payloads larger than a sub-block live
// in a single-blob block (type 2) and are referenced with index 0xff. Small
// payloads share a suballocated block (type 3) whose 64-slot table sits 12
// bytes into the block; each slot is
//
//	offset      u8  (payload offset in 16 byte units)
//	lengthDiv16 u8
//	modnr       u16
//	lengthMod16 u8
package blobfile

import (
	"bytes"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/ssargent/pxdb/pkg/codec"
	"github.com/ssargent/pxdb/pkg/value"
)

const (
	// SingleIndex marks a reference to a whole single-blob block
	SingleIndex = 0xff

	blockSingle       = 2
	blockSuballocated = 3

	singleHeaderLen = 9
	tableStart      = 12
	tableEntryLen   = 5
	suballocSlots   = 64
)

// ErrBadBlob is returned when a reference does not match the .MB contents
var ErrBadBlob = stderrors.New("bad blob reference")

// File is an open .MB file
type File struct {
	src    io.ReaderAt
	cur    *codec.Cursor
	closer io.Closer
}

// New wraps an already open blob file of the given size
func New(src io.ReaderAt, size int64) *File {
	return &File{src: src, cur: codec.NewCursor(src, size)}
}

// OpenFile opens the blob file at path
func OpenFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open blob file %s", path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "stat blob file %s", path)
	}

	bf := New(f, info.Size())
	bf.closer = f
	return bf, nil
}

// Close closes the underlying file when it was opened by OpenFile
func (f *File) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}

// ResolveBlob returns a reader over the payload ref points at
func (f *File) ResolveBlob(ref value.BlobRef) (io.ReadCloser, error) {
	if ref.Index == SingleIndex {
		return f.single(ref)
	}
	return f.suballocated(ref)
}

func (f *File) read(off int64, n int) ([]byte, error) {
	b, err := f.cur.ReadAt(off, n)
	if err != nil {
		if stderrors.Is(err, codec.ErrShortRead) {
			return nil, errors.Wrapf(ErrBadBlob, "offset 0x%x past end of blob file", off)
		}
		return nil, errors.Wrapf(err, "read blob file at 0x%x", off)
	}
	return b, nil
}

func (f *File) single(ref value.BlobRef) (io.ReadCloser, error) {
	off := int64(ref.Offset)
	hdr, err := f.read(off, singleHeaderLen)
	if err != nil {
		return nil, err
	}
	if hdr[0] != blockSingle {
		return nil, errors.Wrapf(ErrBadBlob, "block at 0x%x has type %d, want %d", off, hdr[0], blockSingle)
	}

	length := codec.Uint32(hdr, 3)
	if length != ref.Length {
		return nil, errors.Wrapf(ErrBadBlob, "block at 0x%x holds %d bytes, reference says %d", off, length, ref.Length)
	}
	start := off + singleHeaderLen
	if start+int64(length) > f.cur.Size() {
		return nil, errors.Wrapf(ErrBadBlob, "blob at 0x%x runs past end of file", off)
	}
	return io.NopCloser(io.NewSectionReader(f.src, start, int64(length))), nil
}

func (f *File) suballocated(ref value.BlobRef) (io.ReadCloser, error) {
	off := int64(ref.Offset)
	if int(ref.Index) >= suballocSlots {
		return nil, errors.Wrapf(ErrBadBlob, "slot %d out of range", ref.Index)
	}

	hdr, err := f.read(off, 3)
	if err != nil {
		return nil, err
	}
	if hdr[0] != blockSuballocated {
		return nil, errors.Wrapf(ErrBadBlob, "block at 0x%x has type %d, want %d", off, hdr[0], blockSuballocated)
	}

	entry, err := f.read(off+tableStart+int64(ref.Index)*tableEntryLen, tableEntryLen)
	if err != nil {
		return nil, err
	}
	if entry[1] == 0 {
		return nil, errors.Wrapf(ErrBadBlob, "slot %d of block 0x%x is empty", ref.Index, off)
	}

	size := (int(entry[1])-1)*16 + int(entry[4])
	if uint32(size) != ref.Length {
		return nil, errors.Wrapf(ErrBadBlob, "slot %d holds %d bytes, reference says %d", ref.Index, size, ref.Length)
	}

	data, err := f.read(off+int64(entry[0])*16, size)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// FindSibling returns the .MB file next to a .DB file, trying the usual
// spellings of the extension
func FindSibling(dbPath string) (string, bool) {
	base := strings.TrimSuffix(dbPath, filepath.Ext(dbPath))
	for _, ext := range []string{".MB", ".mb", ".Mb"} {
		p := base + ext
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}
