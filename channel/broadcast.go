package channel

import (
	"sync"
	"sync/atomic"

	"github.com/quantforge/sbe/errs"
)

// Broadcast is a single ring buffer with one producer cursor and N
// independent subscriber cursors. Every subscriber observes every
// published message at most once, in order. A subscriber may be Lossy
// (it silently skips ahead and drops what it could not keep up with,
// exposing a running Dropped count) or lossless (Publish fails with
// errs.ErrChannelFull if the slowest lossless subscriber would be
// overwritten).
//
// Publish must be called from a single producer goroutine, matching the
// single producer cursor; each Subscriber's Receive must be called from a
// single consumer goroutine for that subscriber. Both are then wait-free:
// Publish only reads the other subscribers' cursors (atomics, no lock) and
// Receive only touches its own subscription. Subscribe is the one
// administrative operation that takes a lock, since it mutates the shared
// subscriber list; Publish/Receive observe that list through an
// atomic.Pointer snapshot so they never contend with it.
type Broadcast[T any] struct {
	capacity uint64
	mask     uint64
	buf      []T
	seq      []uint64 // sequence number stamped into slot i at publish time

	producer uint64
	_        cacheLinePad

	subsMu sync.Mutex // guards Subscribe's copy-on-write only
	subs   atomic.Pointer[[]*subscription]
}

type subscription struct {
	cursor  uint64 // atomic
	dropped uint64 // atomic
	lossy   bool
}

// Subscriber reads from a Broadcast independently of every other subscriber.
type Subscriber[T any] struct {
	b   *Broadcast[T]
	sub *subscription
}

// NewBroadcast creates a broadcast ring of the given capacity, rounded up
// to the next power of two.
func NewBroadcast[T any](capacity int) *Broadcast[T] {
	if capacity < 1 {
		capacity = 1
	}

	cap64 := nextPowerOfTwo(uint64(capacity))

	b := &Broadcast[T]{
		capacity: cap64,
		mask:     cap64 - 1,
		buf:      make([]T, cap64),
		seq:      make([]uint64, cap64),
	}

	empty := make([]*subscription, 0)
	b.subs.Store(&empty)

	return b
}

// Subscribe registers a new subscriber starting from the next message to be
// published. lossy selects lossy (drop-and-continue) vs lossless
// (backpressure the producer) delivery for this subscriber.
func (b *Broadcast[T]) Subscribe(lossy bool) *Subscriber[T] {
	b.subsMu.Lock()
	defer b.subsMu.Unlock()

	sub := &subscription{cursor: atomic.LoadUint64(&b.producer), lossy: lossy}

	old := *b.subs.Load()
	next := make([]*subscription, len(old)+1)
	copy(next, old)
	next[len(old)] = sub
	b.subs.Store(&next)

	return &Subscriber[T]{b: b, sub: sub}
}

// Publish appends a value to the ring. If any lossless subscriber has not
// yet consumed far enough to free the slot about to be overwritten,
// Publish returns errs.ErrChannelFull and the ring is left unchanged.
func (b *Broadcast[T]) Publish(v T) error {
	producer := b.producer

	subs := *b.subs.Load()
	for _, sub := range subs {
		if sub.lossy {
			continue
		}

		if producer-atomic.LoadUint64(&sub.cursor) >= b.capacity {
			return errs.ErrChannelFull
		}
	}

	slot := producer & b.mask
	b.buf[slot] = v
	b.seq[slot] = producer
	atomic.StoreUint64(&b.producer, producer+1)

	return nil
}

// Receive returns the next message for this subscriber. Returns (zero,
// false) if the subscriber is caught up to the producer. A lossy
// subscriber that fell behind far enough for the producer to overwrite
// unread slots jumps forward to the oldest still-available message and
// increments Dropped by the number of messages it skipped.
func (s *Subscriber[T]) Receive() (T, bool) {
	var zero T

	b := s.b

	cursor := atomic.LoadUint64(&s.sub.cursor)
	producer := atomic.LoadUint64(&b.producer)

	if cursor == producer {
		return zero, false
	}

	if s.sub.lossy && producer-cursor > b.capacity {
		skipped := producer - cursor - b.capacity
		atomic.AddUint64(&s.sub.dropped, skipped)
		cursor = producer - b.capacity
	}

	slot := cursor & b.mask
	v := b.buf[slot]
	atomic.StoreUint64(&s.sub.cursor, cursor+1)

	return v, true
}

// RecvSpin busy-waits until a message is available, returning it
// immediately rather than yielding the goroutine. Intended for
// latency-critical consumers that would rather burn a core than pay a
// scheduler round-trip.
func (s *Subscriber[T]) RecvSpin() T {
	for {
		if v, ok := s.Receive(); ok {
			return v
		}
	}
}

// Dropped returns the number of messages this subscriber has lost to
// producer overwrite. Always zero for a lossless subscriber.
func (s *Subscriber[T]) Dropped() uint64 {
	return atomic.LoadUint64(&s.sub.dropped)
}
