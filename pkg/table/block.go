package table

import (
	stderrors "errors"
	"fmt"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/ssargent/pxdb/pkg/codec"
)

// blockHeader is the 6-byte prefix of every data block
type blockHeader struct {
	next        uint16
	prev        uint16
	addDataSize int16
	live        int
}

// blockLocation is where a logical record lives
type blockLocation struct {
	Block uint16
	Slot  int
	Live  int
}

// blockReader reads blocks and record slots from the byte source
type blockReader struct {
	cur        *codec.Cursor
	headerSize int64
	blockSize  int
	recordSize int
	capacity   int
	fileBlocks uint16
}

func newBlockReader(cur *codec.Cursor, h *Header) *blockReader {
	return &blockReader{
		cur:        cur,
		headerSize: int64(h.HeaderSize),
		blockSize:  h.BlockSize,
		recordSize: int(h.RecordSize),
		capacity:   (h.BlockSize - blockHeaderLen) / int(h.RecordSize),
		fileBlocks: h.FileBlocks,
	}
}

func (r *blockReader) offset(block uint16) int64 {
	return r.headerSize + int64(block-1)*int64(r.blockSize)
}

func (r *blockReader) read(block uint16, record int, off int64, n int) ([]byte, error) {
	b, err := r.cur.ReadAt(off, n)
	if err != nil {
		if stderrors.Is(err, codec.ErrShortRead) {
			return nil, &CorruptionError{Block: block, Record: record, Reason: "block extends past end of file"}
		}
		return nil, errors.Wrapf(err, "read block %d", block)
	}
	return b, nil
}

// readHeader reads and validates the header of block. record is only used
// for error reporting.
func (r *blockReader) readHeader(block uint16, record int) (blockHeader, error) {
	if block == 0 {
		return blockHeader{}, &CorruptionError{Block: block, Record: record, Reason: "block number 0"}
	}

	b, err := r.read(block, record, r.offset(block), blockHeaderLen)
	if err != nil {
		return blockHeader{}, err
	}

	bh := blockHeader{
		next:        codec.Uint16(b, 0),
		prev:        codec.Uint16(b, 2),
		addDataSize: codec.Int16(b, 4),
	}
	if bh.addDataSize >= 0 {
		bh.live = int(bh.addDataSize)/r.recordSize + 1
	}
	if bh.live > r.capacity {
		return blockHeader{}, &CorruptionError{
			Block:  block,
			Record: record,
			Reason: fmt.Sprintf("block declares %d records but holds at most %d", bh.live, r.capacity),
		}
	}
	return bh, nil
}

// readRecord reads the record at loc
func (r *blockReader) readRecord(loc blockLocation, record int) ([]byte, error) {
	off := r.offset(loc.Block) + blockHeaderLen + int64(loc.Slot*r.recordSize)
	return r.read(loc.Block, record, off, r.recordSize)
}

// readLive reads the live records of block in one call
func (r *blockReader) readLive(block uint16, bh blockHeader, record int) ([]byte, error) {
	if bh.live == 0 {
		return nil, nil
	}
	return r.read(block, record, r.offset(block)+blockHeaderLen, bh.live*r.recordSize)
}

// locator maps a logical record index to a block slot
type locator interface {
	locate(index int) (blockLocation, error)
	// next returns the block that follows block during a scan. remaining is
	// the number of records still expected after this block.
	next(block uint16, bh blockHeader, remaining int) (uint16, error)
}

// chainEntry is one walked block of the linked chain
type chainEntry struct {
	block uint16
	first int
	live  int
	next  uint16
}

// linkedLocator follows next pointers from FirstBlock. The walked prefix is
// kept so later lookups resume where the previous walk stopped.
type linkedLocator struct {
	r     *blockReader
	first uint16

	mu    sync.Mutex
	chain []chainEntry
}

func newLinkedLocator(r *blockReader, h *Header) *linkedLocator {
	return &linkedLocator{r: r, first: h.FirstBlock}
}

func (l *linkedLocator) locate(index int) (blockLocation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n := len(l.chain); n > 0 {
		last := l.chain[n-1]
		if index < last.first+last.live {
			i := sort.Search(n, func(i int) bool {
				return l.chain[i].first+l.chain[i].live > index
			})
			e := l.chain[i]
			return blockLocation{Block: e.block, Slot: index - e.first, Live: e.live}, nil
		}
	}

	for {
		block, first := l.first, 0
		if n := len(l.chain); n > 0 {
			last := l.chain[n-1]
			block, first = last.next, last.first+last.live
		}

		if block == 0 {
			return blockLocation{}, &CorruptionError{Record: index, Reason: "block chain ends before record"}
		}
		if len(l.chain) >= int(l.r.fileBlocks) {
			return blockLocation{}, &CorruptionError{Block: block, Record: index, Reason: "block chain is longer than the file's block count"}
		}

		bh, err := l.r.readHeader(block, index)
		if err != nil {
			return blockLocation{}, err
		}

		l.chain = append(l.chain, chainEntry{block: block, first: first, live: bh.live, next: bh.next})
		if index < first+bh.live {
			return blockLocation{Block: block, Slot: index - first, Live: bh.live}, nil
		}
	}
}

func (l *linkedLocator) next(_ uint16, bh blockHeader, _ int) (uint16, error) {
	return bh.next, nil
}

// packedLocator treats the blocks from FirstBlock on as an array of full
// blocks
type packedLocator struct {
	r     *blockReader
	first uint16
}

func newPackedLocator(r *blockReader, h *Header) *packedLocator {
	return &packedLocator{r: r, first: h.FirstBlock}
}

func (p *packedLocator) locate(index int) (blockLocation, error) {
	ordinal := index / p.r.capacity
	slot := index % p.r.capacity

	n := int(p.first) + ordinal
	if p.first == 0 || n > 0xffff {
		return blockLocation{}, &CorruptionError{Record: index, Reason: "record lies past the last addressable block"}
	}
	block := uint16(n)

	bh, err := p.r.readHeader(block, index)
	if err != nil {
		return blockLocation{}, err
	}
	if slot >= bh.live {
		return blockLocation{}, &CorruptionError{
			Block:  block,
			Record: index,
			Reason: fmt.Sprintf("slot %d is not live (block holds %d records)", slot, bh.live),
		}
	}
	return blockLocation{Block: block, Slot: slot, Live: bh.live}, nil
}

func (p *packedLocator) next(block uint16, bh blockHeader, remaining int) (uint16, error) {
	if remaining > 0 && bh.live < p.r.capacity {
		return 0, &CorruptionError{
			Block:  block,
			Reason: fmt.Sprintf("packed block holds %d of %d records but %d remain", bh.live, p.r.capacity, remaining),
		}
	}
	if block == 0xffff {
		return 0, nil
	}
	return block + 1, nil
}
