package channel

import (
	"sync/atomic"

	"github.com/quantforge/sbe/errs"
)

// cacheLinePad is sized so that two adjacent atomics land on separate cache
// lines on common 64-byte-line architectures. Skipping this padding still
// "works" but every Send/Receive pair ping-pongs the line between producer
// and consumer cores.
type cacheLinePad [64 - 8]byte

// SPSC is a single-producer/single-consumer ring buffer. Send and Receive
// are safe to call concurrently from exactly one producer goroutine and
// exactly one consumer goroutine respectively; calling either from more
// than one goroutine is a race.
type SPSC[T any] struct {
	capacity uint64
	mask     uint64
	buf      []T

	producer uint64
	_        cacheLinePad
	consumer uint64
	_        cacheLinePad
}

// NewSPSC creates an SPSC ring of the given capacity, rounded up to the
// next power of two so the index-to-slot map can use a mask instead of a
// modulo.
func NewSPSC[T any](capacity int) *SPSC[T] {
	if capacity < 1 {
		capacity = 1
	}

	cap64 := nextPowerOfTwo(uint64(capacity))

	return &SPSC[T]{
		capacity: cap64,
		mask:     cap64 - 1,
		buf:      make([]T, cap64),
	}
}

// Send enqueues a value. Returns errs.ErrChannelFull if the ring is at
// capacity.
func (c *SPSC[T]) Send(v T) error {
	producer := c.producer
	consumer := atomic.LoadUint64(&c.consumer)

	if producer-consumer == c.capacity {
		return errs.ErrChannelFull
	}

	c.buf[producer&c.mask] = v
	atomic.StoreUint64(&c.producer, producer+1)

	return nil
}

// Receive dequeues a value. Returns (zero, false) if the ring is empty.
func (c *SPSC[T]) Receive() (T, bool) {
	var zero T

	consumer := c.consumer
	producer := atomic.LoadUint64(&c.producer)

	if producer == consumer {
		return zero, false
	}

	v := c.buf[consumer&c.mask]
	c.buf[consumer&c.mask] = zero
	atomic.StoreUint64(&c.consumer, consumer+1)

	return v, true
}

// RecvSpin busy-waits until a value is available, returning it immediately
// rather than yielding the goroutine. For latency-critical consumers that
// would rather burn a core than pay a scheduler round-trip.
func (c *SPSC[T]) RecvSpin() T {
	for {
		if v, ok := c.Receive(); ok {
			return v
		}
	}
}

// Len returns a snapshot of the number of queued elements. It is racy by
// construction (both indices may move between the two loads) and intended
// only for metrics/backpressure heuristics.
func (c *SPSC[T]) Len() int {
	producer := atomic.LoadUint64(&c.producer)
	consumer := atomic.LoadUint64(&c.consumer)

	return int(producer - consumer)
}

// Cap returns the ring's fixed capacity.
func (c *SPSC[T]) Cap() int {
	return int(c.capacity)
}

func nextPowerOfTwo(v uint64) uint64 {
	if v == 0 {
		return 1
	}

	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v |= v >> 32

	return v + 1
}
