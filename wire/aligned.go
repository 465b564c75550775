package wire

import (
	"fmt"

	"github.com/quantforge/sbe/errs"
)

// cacheLineSize is the padding granularity AlignedBuffer targets so a single
// encoded message is unlikely to straddle two cache lines when copied by a
// SIMD-aligned move — the property spec.md §4.3 calls out for
// AlignedBuffer<N>. Go's allocator does not expose sub-pointer-size
// alignment guarantees, so this is achieved by over-allocating to the next
// multiple of cacheLineSize and verifying the resulting slice's backing
// address is cache-line aligned; on the rare allocation where it isn't, a
// one-line pointer offset takes up the slack.
const cacheLineSize = 64

// AlignedBuffer is a fixed-capacity Buffer sized once at construction,
// suitable for encoding a single message without touching the pool package.
// Unlike PoolBuffer it never grows: writing past its capacity fails with
// ErrBufferTooSmall rather than reallocating, matching the "bounds are
// enforced at wrap time" requirement of spec.md §4.2.
type AlignedBuffer struct {
	buf    []byte
	length int
}

// NewAlignedBuffer allocates an AlignedBuffer able to hold capacity bytes,
// rounding the underlying allocation up to a multiple of the cache line
// size and aligning the usable region to that boundary.
func NewAlignedBuffer(capacity int) *AlignedBuffer {
	rounded := ((capacity + cacheLineSize - 1) / cacheLineSize) * cacheLineSize
	raw := make([]byte, rounded+cacheLineSize)

	offset := alignmentOffset(raw, cacheLineSize)

	return &AlignedBuffer{buf: raw[offset : offset+rounded : offset+rounded]}
}

var _ Buffer = (*AlignedBuffer)(nil)

func (a *AlignedBuffer) Len() int { return a.length }

func (a *AlignedBuffer) Bytes() []byte { return a.buf[:a.length] }

func (a *AlignedBuffer) ReadAt(offset, n int) ([]byte, error) {
	if offset < 0 || n < 0 || offset+n > a.length {
		return nil, fmt.Errorf("%w: read %d bytes at offset %d, have %d", errs.ErrBufferTooSmall, n, offset, a.length)
	}

	return a.buf[offset : offset+n], nil
}

func (a *AlignedBuffer) WriteAt(offset int, data []byte) error {
	end := offset + len(data)
	if end > cap(a.buf) {
		return fmt.Errorf("%w: write %d bytes at offset %d exceeds capacity %d", errs.ErrBufferTooSmall, len(data), offset, cap(a.buf))
	}

	if end > a.length {
		a.length = end
	}

	copy(a.buf[offset:end], data)

	return nil
}

func (a *AlignedBuffer) Append(data []byte) (int, error) {
	offset := a.length
	if err := a.WriteAt(offset, data); err != nil {
		return 0, err
	}

	return offset, nil
}

// Reset empties the buffer for reuse without reallocating.
func (a *AlignedBuffer) Reset() { a.length = 0 }

// Cap returns the buffer's fixed capacity.
func (a *AlignedBuffer) Cap() int { return cap(a.buf) }
