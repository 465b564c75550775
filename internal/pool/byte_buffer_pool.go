// Package pool provides pooled, growable byte buffers used on the hot paths
// that spec.md requires to allocate nothing per message: a session's inbound
// framing buffer is reused across frames. wire.AlignedBuffer does not use
// this pool; its capacity is fixed when it is created.
package pool

import (
	"io"
	"sync"
)

// Default and ceiling sizes for the two buffer pools this package exposes.
// Inbound buffers back a single session's framing accumulator; they are
// small because SBE messages are typically well under a kilobyte. Frame
// buffers back a server or client's batched outbound writes, which may
// coalesce several enqueued messages before a single socket write.
const (
	InboundBufferDefaultSize = 1024 * 4   // 4KiB, large enough for most SBE frames without growth
	InboundBufferMaxSize     = 1024 * 256 // 256KiB ceiling before a pooled buffer is discarded
	FrameBufferDefaultSize   = 1024 * 16  // 16KiB
	FrameBufferMaxSize       = 1024 * 512 // 512KiB
)

// ByteBuffer is a growable byte slice with an amortized growth strategy,
// intended to be reused via a ByteBufferPool rather than reallocated per use.
type ByteBuffer struct {
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the given starting capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the buffer's current contents.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset empties the buffer while retaining its backing array.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the number of bytes currently held.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the buffer's current capacity.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// MustWrite appends data to the buffer, growing it if necessary.
func (bb *ByteBuffer) MustWrite(data []byte) {
	bb.B = append(bb.B, data...)
}

// Slice returns the region [start, end) of the buffer's backing array.
// Panics on out-of-range indices; callers are expected to have validated
// offsets against a frame length before calling this.
func (bb *ByteBuffer) Slice(start, end int) []byte {
	if start < 0 || end < start || end > cap(bb.B) {
		panic("pool: Slice: invalid indices")
	}

	return bb.B[start:end]
}

// SetLength sets the logical length of the buffer to n, which must be within
// the current capacity. Used after a socket read appends raw bytes past the
// buffer's previous length.
func (bb *ByteBuffer) SetLength(n int) {
	if n < 0 || n > cap(bb.B) {
		panic("pool: SetLength: invalid length")
	}
	bb.B = bb.B[:n]
}

// Extend grows the logical length by n bytes if capacity allows, reporting
// whether it did. Callers fall back to ExtendOrGrow when they need the bytes
// unconditionally.
func (bb *ByteBuffer) Extend(n int) bool {
	curLen := len(bb.B)
	if cap(bb.B)-curLen < n {
		return false
	}

	bb.B = bb.B[:curLen+n]

	return true
}

// ExtendOrGrow extends the buffer by n bytes, reallocating if necessary.
func (bb *ByteBuffer) ExtendOrGrow(n int) {
	if bb.Extend(n) {
		return
	}

	start := len(bb.B)
	bb.Grow(n)
	bb.B = bb.B[:start+n]
}

// Grow ensures the buffer can accept requiredBytes more bytes without a
// further reallocation.
//
// Growth strategy: below 4x the default size, grow by a fixed increment to
// minimize reallocations for small, bursty frames; above that, grow by 25%
// of current capacity to bound total memory use for large accumulations
// (e.g. a frame near the configured maximum length).
func (bb *ByteBuffer) Grow(requiredBytes int) {
	available := cap(bb.B) - len(bb.B)
	if available >= requiredBytes {
		return
	}

	growBy := InboundBufferDefaultSize
	if cap(bb.B) > 4*InboundBufferDefaultSize {
		growBy = cap(bb.B) / 4
	}

	if growBy < requiredBytes {
		growBy = requiredBytes
	}

	newBuf := make([]byte, len(bb.B), len(bb.B)+growBy)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// Write implements io.Writer, appending p and growing as needed.
func (bb *ByteBuffer) Write(p []byte) (int, error) {
	bb.B = append(bb.B, p...)
	return len(p), nil
}

// WriteTo implements io.WriterTo, draining the buffer's contents to w.
func (bb *ByteBuffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(bb.B)
	return int64(n), err
}

// ByteBufferPool pools ByteBuffers of a common default size, discarding
// buffers that grew past maxThreshold instead of returning them to the pool.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a pool whose buffers start at defaultSize and are
// discarded, rather than retained, once they exceed maxThreshold.
func NewByteBufferPool(defaultSize int, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewByteBuffer(defaultSize)
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a ByteBuffer from the pool, allocating one if empty.
func (bbp *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := bbp.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns bb to the pool after resetting it, unless it grew past the
// pool's size threshold.
func (bbp *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if bbp.maxThreshold > 0 && cap(bb.B) > bbp.maxThreshold {
		return
	}

	bb.Reset()
	bbp.pool.Put(bb)
}

var (
	inboundDefaultPool = NewByteBufferPool(InboundBufferDefaultSize, InboundBufferMaxSize)
	frameDefaultPool   = NewByteBufferPool(FrameBufferDefaultSize, FrameBufferMaxSize)
)

// GetInboundBuffer retrieves a ByteBuffer from the default inbound-framing pool.
func GetInboundBuffer() *ByteBuffer { return inboundDefaultPool.Get() }

// PutInboundBuffer returns bb to the default inbound-framing pool.
func PutInboundBuffer(bb *ByteBuffer) { inboundDefaultPool.Put(bb) }

// GetFrameBuffer retrieves a ByteBuffer from the default outbound-frame pool.
func GetFrameBuffer() *ByteBuffer { return frameDefaultPool.Get() }

// PutFrameBuffer returns bb to the default outbound-frame pool.
func PutFrameBuffer(bb *ByteBuffer) { frameDefaultPool.Put(bb) }
