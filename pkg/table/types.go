package table

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ssargent/pxdb/pkg/value"
)

// Header is the decoded fixed header of a .DB file
type Header struct {
	RecordSize       uint16 // Bytes per record
	HeaderSize       uint16 // Bytes before block 1
	FileType         uint8  // 0 keyed, 2 unkeyed
	MaxTableSize     uint8  // Block size in KiB
	BlockSize        int    // MaxTableSize * 1024
	NumRecords       uint32
	NextBlock        uint16
	FileBlocks       uint16 // Blocks in use
	FirstBlock       uint16
	LastBlock        uint16
	NumFields        uint16
	PrimaryKeyFields uint16
	Encryption       uint32
	SortOrder        uint8
	WriteProtected   uint8
	FileVersionID    uint8  // Raw version tag
	Version          int    // 30, 35, 40, 50 or 70
	MaxBlocks        uint16
	AutoInc          uint32
	CodePage         uint16 // DOS code page, 0 before 4.x
	TableName        string
}

// FieldDescriptor describes one column
type FieldDescriptor struct {
	Name   string
	Type   value.FieldType
	Length int // Physical bytes in the record
	Scale  int // BCD decimal places, 0 otherwise
	Offset int // Byte offset inside the record
}

func (f FieldDescriptor) decodeField() value.Field {
	return value.Field{Type: f.Type, Length: f.Length, Scale: f.Scale}
}

// Layout selects how record indexes are mapped to blocks
type Layout int

const (
	// LayoutAuto picks the layout from the header
	LayoutAuto Layout = iota
	// LayoutLinked follows the next-block chain and sums live counts
	LayoutLinked
	// LayoutPacked assumes every block but the last is full
	LayoutPacked
)

func (l Layout) String() string {
	switch l {
	case LayoutLinked:
		return "linked"
	case LayoutPacked:
		return "packed"
	}
	return "auto"
}

// ParseLayout converts a config name to a Layout. The empty string means auto.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return LayoutAuto, nil
	case "linked":
		return LayoutLinked, nil
	case "packed":
		return LayoutPacked, nil
	}
	return LayoutAuto, fmt.Errorf("unknown layout %q (want auto, linked or packed)", s)
}

// BlobResolver fetches payloads that live in the table's .MB file
type BlobResolver interface {
	ResolveBlob(ref value.BlobRef) (io.ReadCloser, error)
}

// BlobResolverFunc adapts a function to BlobResolver
type BlobResolverFunc func(ref value.BlobRef) (io.ReadCloser, error)

// ResolveBlob calls f(ref)
func (f BlobResolverFunc) ResolveBlob(ref value.BlobRef) (io.ReadCloser, error) {
	return f(ref)
}

// Option configures Open
type Option func(*options)

type options struct {
	logger   logrus.FieldLogger
	layout   Layout
	codePage int
	blobs    BlobResolver
}

func defaultOptions() options {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return options{logger: l}
}

// WithLogger sets the logger used for open and corruption events
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithLayout forces a block layout instead of detecting it
func WithLayout(l Layout) Option {
	return func(o *options) { o.layout = l }
}

// WithCodePage overrides the code page stored in the header. 0 keeps the header's.
func WithCodePage(cp int) Option {
	return func(o *options) { o.codePage = cp }
}

// WithBlobResolver sets the resolver used by OpenBlob
func WithBlobResolver(r BlobResolver) Option {
	return func(o *options) { o.blobs = r }
}

// Errors
var (
	ErrNotFound       = errors.New("record not found")
	ErrClosed         = errors.New("document is closed")
	ErrNoBlobResolver = errors.New("no blob resolver configured")
)

// FormatError means the file is not a readable Paradox table. Open fails and
// no Document is returned.
type FormatError struct {
	Offset int64
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("paradox format error at offset 0x%x: %s", e.Offset, e.Reason)
}

func formatErrorf(off int64, format string, args ...interface{}) error {
	return &FormatError{Offset: off, Reason: fmt.Sprintf(format, args...)}
}

// CorruptionError means a block that should hold a record is damaged. Only
// the failing fetch is affected.
type CorruptionError struct {
	Block  uint16
	Record int
	Reason string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("corrupt block %d (record %d): %s", e.Block, e.Record, e.Reason)
}
