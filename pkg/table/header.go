package table

import (
	stderrors "errors"

	"github.com/pkg/errors"

	"github.com/ssargent/pxdb/pkg/codec"
)

// Header layout
const (
	headerLen     = 0x58
	dataHeaderLen = 0x20

	offRecordSize     = 0x00
	offHeaderSize     = 0x02
	offFileType       = 0x04
	offMaxTableSize   = 0x05
	offNumRecords     = 0x06
	offNextBlock      = 0x0A
	offFileBlocks     = 0x0C
	offFirstBlock     = 0x0E
	offLastBlock      = 0x10
	offNumFields      = 0x21
	offPrimaryKeys    = 0x23
	offEncryption     = 0x25
	offSortOrder      = 0x29
	offWriteProtected = 0x38
	offFileVersionID  = 0x39
	offMaxBlocks      = 0x3A
	offAutoInc        = 0x49
	offCodePage       = 0x6A

	maxRecordSize = 4000
	maxFields     = 255

	blockHeaderLen = 6
)

// File types
const (
	FileTypeKeyed   uint8 = 0
	FileTypeUnkeyed uint8 = 2
)

// versionFor maps the raw version tag to the normalised version
func versionFor(id uint8) (int, bool) {
	switch {
	case id == 3:
		return 30, true
	case id == 4:
		return 35, true
	case id >= 5 && id <= 9:
		return 40, true
	case id == 10 || id == 11:
		return 50, true
	case id == 12:
		return 70, true
	}
	return 0, false
}

func hasDataHeader(id, fileType uint8) bool {
	if id < 5 {
		return false
	}
	switch fileType {
	case 0, 2, 3, 5, 8:
		return true
	}
	return false
}

func validTableSize(n uint8) bool {
	switch n {
	case 1, 2, 3, 4, 8, 16, 32:
		return true
	}
	return false
}

// readHeaderBytes reads n bytes at off, turning short reads into format errors
func readHeaderBytes(cur *codec.Cursor, off int64, n int) ([]byte, error) {
	b, err := cur.ReadAt(off, n)
	if err != nil {
		if stderrors.Is(err, codec.ErrShortRead) {
			return nil, formatErrorf(off, "file too short: need %d bytes, have %d", off+int64(n), cur.Size())
		}
		return nil, errors.Wrapf(err, "read header at offset %d", off)
	}
	return b, nil
}

// parseHeader decodes the fixed header and, for 4.x and later, the data
// header that follows it. It returns the header and the offset where the
// field descriptors start.
func parseHeader(cur *codec.Cursor) (*Header, int64, error) {
	b, err := readHeaderBytes(cur, 0, headerLen)
	if err != nil {
		return nil, 0, err
	}

	h := &Header{
		RecordSize:       codec.Uint16(b, offRecordSize),
		HeaderSize:       codec.Uint16(b, offHeaderSize),
		FileType:         codec.Uint8(b, offFileType),
		MaxTableSize:     codec.Uint8(b, offMaxTableSize),
		NumRecords:       codec.Uint32(b, offNumRecords),
		NextBlock:        codec.Uint16(b, offNextBlock),
		FileBlocks:       codec.Uint16(b, offFileBlocks),
		FirstBlock:       codec.Uint16(b, offFirstBlock),
		LastBlock:        codec.Uint16(b, offLastBlock),
		NumFields:        codec.Uint16(b, offNumFields),
		PrimaryKeyFields: codec.Uint16(b, offPrimaryKeys),
		Encryption:       codec.Uint32(b, offEncryption),
		SortOrder:        codec.Uint8(b, offSortOrder),
		WriteProtected:   codec.Uint8(b, offWriteProtected),
		FileVersionID:    codec.Uint8(b, offFileVersionID),
		MaxBlocks:        codec.Uint16(b, offMaxBlocks),
		AutoInc:          codec.Uint32(b, offAutoInc),
	}

	version, ok := versionFor(h.FileVersionID)
	if !ok {
		return nil, 0, formatErrorf(offFileVersionID, "unknown file version tag %d", h.FileVersionID)
	}
	h.Version = version

	if h.FileType != FileTypeKeyed && h.FileType != FileTypeUnkeyed {
		return nil, 0, formatErrorf(offFileType, "file type %d is not a data table", h.FileType)
	}
	if h.Encryption != 0 {
		return nil, 0, formatErrorf(offEncryption, "table is encrypted")
	}
	if !validTableSize(h.MaxTableSize) {
		return nil, 0, formatErrorf(offMaxTableSize, "invalid block size %dKiB", h.MaxTableSize)
	}
	h.BlockSize = int(h.MaxTableSize) * 1024

	if h.RecordSize == 0 || h.RecordSize > maxRecordSize {
		return nil, 0, formatErrorf(offRecordSize, "record size %d outside 1..%d", h.RecordSize, maxRecordSize)
	}
	if int(h.RecordSize) > h.BlockSize-blockHeaderLen {
		return nil, 0, formatErrorf(offRecordSize, "record size %d does not fit a %d byte block", h.RecordSize, h.BlockSize)
	}
	if h.NumFields == 0 || h.NumFields > maxFields {
		return nil, 0, formatErrorf(offNumFields, "field count %d outside 1..%d", h.NumFields, maxFields)
	}

	start := int64(headerLen)
	if hasDataHeader(h.FileVersionID, h.FileType) {
		dh, err := readHeaderBytes(cur, headerLen, dataHeaderLen)
		if err != nil {
			return nil, 0, err
		}
		h.CodePage = codec.Uint16(dh, offCodePage-headerLen)
		start += dataHeaderLen
	}

	if need := descriptorAreaLen(h, start); int64(h.HeaderSize) < need {
		return nil, 0, formatErrorf(offHeaderSize, "header size %d smaller than descriptor area (%d bytes)", h.HeaderSize, need)
	}
	if int64(h.HeaderSize) > cur.Size() {
		return nil, 0, formatErrorf(offHeaderSize, "header size %d larger than file (%d bytes)", h.HeaderSize, cur.Size())
	}

	return h, start, nil
}

func tableNameLen(h *Header) int {
	if h.Version >= 70 {
		return 261
	}
	return 79
}

// descriptorAreaLen is the end of the fixed part of the field area: type and
// size pairs, name pointers and the table name
func descriptorAreaLen(h *Header, start int64) int64 {
	n := int64(h.NumFields)
	return start + 2*n + 4 + 4*n + int64(tableNameLen(h))
}
