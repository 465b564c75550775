package wire

import (
	"fmt"

	"github.com/quantforge/sbe/errs"
	"github.com/quantforge/sbe/internal/pool"
)

// Reader is the read capability spec.md §3 requires of a Buffer: borrow N
// bytes at a given offset without copying.
type Reader interface {
	// ReadAt borrows the n bytes starting at offset. The returned slice
	// aliases the buffer's storage and is only valid until the buffer is
	// next mutated.
	ReadAt(offset, n int) ([]byte, error)
	// Len returns the number of valid bytes currently in the buffer.
	Len() int
}

// Writer is the write capability spec.md §3 requires of a Buffer: place N
// bytes at a given offset, extending the logical length when the write
// reaches past it.
type Writer interface {
	// WriteAt places data at offset, growing the buffer's logical length
	// to offset+len(data) if that exceeds the current length. It never
	// truncates: writing at an offset within the current length only
	// overwrites that span.
	WriteAt(offset int, data []byte) error
	// Append places data at the buffer's current logical length and
	// returns the offset it was written at. Used for groups and var-data,
	// whose total size is not known until encoding completes.
	Append(data []byte) (offset int, err error)
}

// Buffer is the full capability the wire runtime and generated codecs wrap:
// read-borrow plus write-extend over a contiguous byte region. Buffers may
// be backed by a pooled growable slice (PoolBuffer), a fixed-size array
// (AlignedBuffer), or a read-only borrow of caller-owned memory (ReadOnly).
type Buffer interface {
	Reader
	Writer
	// Bytes returns the buffer's full logical contents.
	Bytes() []byte
}

// PoolBuffer is a Buffer backed by a pooled, growable byte slice. Servers
// and clients obtain one per outbound frame from the pool package rather
// than allocating; Reset returns it to zero length for reuse.
type PoolBuffer struct {
	bb *pool.ByteBuffer
}

// NewPoolBuffer wraps bb, a buffer typically obtained from pool.GetFrameBuffer.
func NewPoolBuffer(bb *pool.ByteBuffer) *PoolBuffer {
	return &PoolBuffer{bb: bb}
}

var _ Buffer = (*PoolBuffer)(nil)

func (p *PoolBuffer) Len() int { return p.bb.Len() }

func (p *PoolBuffer) Bytes() []byte { return p.bb.Bytes() }

func (p *PoolBuffer) ReadAt(offset, n int) ([]byte, error) {
	if offset < 0 || n < 0 || offset+n > p.bb.Len() {
		return nil, fmt.Errorf("%w: read %d bytes at offset %d, have %d", errs.ErrBufferTooSmall, n, offset, p.bb.Len())
	}

	return p.bb.Bytes()[offset : offset+n], nil
}

func (p *PoolBuffer) WriteAt(offset int, data []byte) error {
	end := offset + len(data)
	if end > p.bb.Len() {
		p.bb.ExtendOrGrow(end - p.bb.Len())
	}

	copy(p.bb.Bytes()[offset:end], data)

	return nil
}

func (p *PoolBuffer) Append(data []byte) (int, error) {
	offset := p.bb.Len()
	p.bb.MustWrite(data)

	return offset, nil
}

// Reset empties the buffer for reuse, retaining its backing array.
func (p *PoolBuffer) Reset() { p.bb.Reset() }

// ReadOnly is a Buffer over a caller-owned, fixed-size byte slice. It
// implements only borrowed reads; WriteAt and Append return
// ErrBufferTooSmall since a decoder never mutates the wire bytes it wraps.
// This is the capability a Decoder wraps a socket-delivered frame with.
type ReadOnly struct {
	data []byte
}

// NewReadOnly wraps data for zero-copy decoding. data is not copied; the
// caller must keep it alive and unmodified for the Buffer's lifetime.
func NewReadOnly(data []byte) *ReadOnly {
	return &ReadOnly{data: data}
}

var _ Buffer = (*ReadOnly)(nil)

func (r *ReadOnly) Len() int { return len(r.data) }

func (r *ReadOnly) Bytes() []byte { return r.data }

func (r *ReadOnly) ReadAt(offset, n int) ([]byte, error) {
	if offset < 0 || n < 0 || offset+n > len(r.data) {
		return nil, fmt.Errorf("%w: read %d bytes at offset %d, have %d", errs.ErrBufferTooSmall, n, offset, len(r.data))
	}

	return r.data[offset : offset+n], nil
}

func (r *ReadOnly) WriteAt(int, []byte) error {
	return fmt.Errorf("%w: buffer is read-only", errs.ErrBufferTooSmall)
}

func (r *ReadOnly) Append([]byte) (int, error) {
	return 0, fmt.Errorf("%w: buffer is read-only", errs.ErrBufferTooSmall)
}
