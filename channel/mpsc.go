package channel

import (
	"sync/atomic"

	"github.com/quantforge/sbe/errs"
)

// mpscSlot pairs a payload with a ready flag. Producers write the payload
// then publish readiness; the consumer only trusts the payload once it has
// observed ready == 1.
type mpscSlot[T any] struct {
	ready uint32
	value T
}

// MPSC is a multi-producer/single-consumer ring buffer. Any number of
// goroutines may call Send concurrently; Receive must be called from a
// single consumer goroutine. Producers reserve a slot with a CAS loop on
// the shared producer index; ordering between producers is defined by CAS
// success order, not by call order. The consumer advances past contiguous
// ready slots, so a producer that reserves a slot but is descheduled before
// publishing it stalls the consumer until it catches up — this is the same
// trade-off the spec's MPSC contract calls for.
type MPSC[T any] struct {
	capacity uint64
	mask     uint64
	buf      []mpscSlot[T]

	producer uint64
	_        cacheLinePad
	consumer uint64
	_        cacheLinePad
}

// NewMPSC creates an MPSC ring of the given capacity, rounded up to the
// next power of two.
func NewMPSC[T any](capacity int) *MPSC[T] {
	if capacity < 1 {
		capacity = 1
	}

	cap64 := nextPowerOfTwo(uint64(capacity))

	return &MPSC[T]{
		capacity: cap64,
		mask:     cap64 - 1,
		buf:      make([]mpscSlot[T], cap64),
	}
}

// Send reserves a slot via CAS and publishes the value. Returns
// errs.ErrChannelFull if the ring is at capacity at the time of reservation.
func (c *MPSC[T]) Send(v T) error {
	for {
		producer := atomic.LoadUint64(&c.producer)
		consumer := atomic.LoadUint64(&c.consumer)

		if producer-consumer >= c.capacity {
			return errs.ErrChannelFull
		}

		if atomic.CompareAndSwapUint64(&c.producer, producer, producer+1) {
			slot := &c.buf[producer&c.mask]
			slot.value = v
			atomic.StoreUint32(&slot.ready, 1)

			return nil
		}
	}
}

// Receive dequeues the next ready value. Returns (zero, false) if the next
// slot is either empty (no producer has reserved it) or reserved-but-not-
// yet-published (a producer is still writing it).
func (c *MPSC[T]) Receive() (T, bool) {
	var zero T

	consumer := c.consumer
	slot := &c.buf[consumer&c.mask]

	if atomic.LoadUint32(&slot.ready) == 0 {
		return zero, false
	}

	v := slot.value
	slot.value = zero
	atomic.StoreUint32(&slot.ready, 0)
	atomic.StoreUint64(&c.consumer, consumer+1)

	return v, true
}

// RecvSpin busy-waits until a value is available, returning it immediately
// rather than yielding the goroutine. For latency-critical consumers that
// would rather burn a core than pay a scheduler round-trip.
func (c *MPSC[T]) RecvSpin() T {
	for {
		if v, ok := c.Receive(); ok {
			return v
		}
	}
}

// Cap returns the ring's fixed capacity.
func (c *MPSC[T]) Cap() int {
	return int(c.capacity)
}
