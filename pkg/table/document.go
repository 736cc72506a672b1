package table

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ssargent/pxdb/pkg/codec"
	"github.com/ssargent/pxdb/pkg/value"
)

// Document is an open Paradox table. It is safe for concurrent readers.
type Document struct {
	header Header
	fields []FieldDescriptor
	layout Layout

	blocks *blockReader
	loc    locator
	dec    *value.Decoder
	blobs  BlobResolver
	log    logrus.FieldLogger

	closer    io.Closer
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Open parses the header and schema of the table held in src. size is the
// length of the source in bytes.
func Open(src io.ReaderAt, size int64, opts ...Option) (*Document, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	cur := codec.NewCursor(src, size)
	h, start, err := parseHeader(cur)
	if err != nil {
		return nil, err
	}

	cp := int(h.CodePage)
	if o.codePage != 0 {
		cp = o.codePage
	}
	enc, ok := value.CodePage(cp)
	if !ok {
		if cp != 0 {
			o.logger.WithField("code_page", cp).Warn("unknown code page, falling back to 437")
		}
		enc, _ = value.CodePage(value.DefaultCodePage)
	}
	dec := value.NewDecoder(enc)

	fields, err := parseSchema(cur, h, start, dec)
	if err != nil {
		return nil, err
	}

	d := &Document{
		header: *h,
		fields: fields,
		blocks: newBlockReader(cur, h),
		dec:    dec,
		blobs:  o.blobs,
		log:    o.logger,
	}

	d.layout = o.layout
	if d.layout == LayoutAuto {
		// No file version tag selects packed: middle blocks may be partially
		// filled in every version from 3.0 to 7.0, so only the chain is safe.
		d.layout = LayoutLinked
	}
	switch d.layout {
	case LayoutPacked:
		d.loc = newPackedLocator(d.blocks, h)
	default:
		d.loc = newLinkedLocator(d.blocks, h)
	}

	d.log.WithFields(logrus.Fields{
		"table":   h.TableName,
		"version": h.Version,
		"records": h.NumRecords,
		"fields":  h.NumFields,
		"layout":  d.layout.String(),
	}).Debug("opened paradox table")

	return d, nil
}

// OpenFile opens the table at path. The file is closed by Close.
func OpenFile(path string, opts ...Option) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "stat %s", path)
	}

	d, err := Open(f, info.Size(), opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	d.closer = f
	return d, nil
}

// Close releases the underlying file. It is safe to call more than once.
func (d *Document) Close() error {
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		if d.closer != nil {
			d.closeErr = d.closer.Close()
		}
	})
	return d.closeErr
}

// Header returns a copy of the parsed header
func (d *Document) Header() Header {
	return d.header
}

// Layout returns the block layout in use
func (d *Document) Layout() Layout {
	return d.layout
}

// FieldCount returns the number of columns
func (d *Document) FieldCount() int {
	return len(d.fields)
}

// Field returns the descriptor of column i
func (d *Document) Field(i int) (FieldDescriptor, error) {
	if i < 0 || i >= len(d.fields) {
		return FieldDescriptor{}, fmt.Errorf("field %d: %w", i, ErrNotFound)
	}
	return d.fields[i], nil
}

// Fields returns a copy of all column descriptors
func (d *Document) Fields() []FieldDescriptor {
	out := make([]FieldDescriptor, len(d.fields))
	copy(out, d.fields)
	return out
}

// RecordCount returns the number of records declared by the header
func (d *Document) RecordCount() int {
	return int(d.header.NumRecords)
}

// RawRecord returns the undecoded bytes of record i
func (d *Document) RawRecord(i int) ([]byte, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	if i < 0 || i >= d.RecordCount() {
		return nil, fmt.Errorf("record %d of %d: %w", i, d.RecordCount(), ErrNotFound)
	}

	loc, err := d.loc.locate(i)
	if err != nil {
		d.logCorruption(err)
		return nil, err
	}

	raw, err := d.blocks.readRecord(loc, i)
	if err != nil {
		d.logCorruption(err)
		return nil, err
	}
	return raw, nil
}

// FetchRecord decodes record i into one value per field
func (d *Document) FetchRecord(i int) ([]value.Value, error) {
	raw, err := d.RawRecord(i)
	if err != nil {
		return nil, err
	}
	return d.decodeRecord(raw), nil
}

func (d *Document) decodeRecord(raw []byte) []value.Value {
	rec := make([]value.Value, len(d.fields))
	for j, f := range d.fields {
		rec[j] = d.dec.Decode(raw[f.Offset:f.Offset+f.Length], f.decodeField())
	}
	return rec
}

// ScanFunc receives each record in order. Returning an error stops the scan.
type ScanFunc func(index int, rec []value.Value) error

// Scan visits every record in index order, reading each block once. The
// context is checked between blocks.
func (d *Document) Scan(ctx context.Context, fn ScanFunc) error {
	if d.closed.Load() {
		return ErrClosed
	}

	total := d.RecordCount()
	block := d.header.FirstBlock
	index := 0
	for hops := 0; index < total; hops++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.closed.Load() {
			return ErrClosed
		}

		if block == 0 {
			return d.logCorruption(&CorruptionError{Record: index, Reason: "block chain ends before record"})
		}
		if hops >= int(d.header.FileBlocks) {
			return d.logCorruption(&CorruptionError{Block: block, Record: index, Reason: "block chain is longer than the file's block count"})
		}

		bh, err := d.blocks.readHeader(block, index)
		if err != nil {
			return d.logCorruption(err)
		}
		data, err := d.blocks.readLive(block, bh, index)
		if err != nil {
			return d.logCorruption(err)
		}

		rs := d.blocks.recordSize
		for slot := 0; slot < bh.live && index < total; slot++ {
			if err := fn(index, d.decodeRecord(data[slot*rs:(slot+1)*rs])); err != nil {
				return err
			}
			index++
		}

		block, err = d.loc.next(block, bh, total-index)
		if err != nil {
			return d.logCorruption(err)
		}
	}
	return nil
}

// OpenBlob returns the payload behind a blob reference. Payloads that fit in
// the leader are served directly; anything else needs a BlobResolver.
func (d *Document) OpenBlob(ref value.BlobRef) (io.ReadCloser, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	if b, ok := ref.Inline(); ok {
		return io.NopCloser(bytes.NewReader(b)), nil
	}
	if d.blobs == nil {
		return nil, ErrNoBlobResolver
	}
	return d.blobs.ResolveBlob(ref)
}

// Text decodes bytes in the table's code page
func (d *Document) Text(b []byte) string {
	return d.dec.Text(b)
}

func (d *Document) logCorruption(err error) error {
	var ce *CorruptionError
	if errors.As(err, &ce) {
		d.log.WithFields(logrus.Fields{
			"block":  ce.Block,
			"record": ce.Record,
		}).Warn(ce.Reason)
	}
	return err
}
