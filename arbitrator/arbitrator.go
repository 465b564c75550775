// Package arbitrator implements the A/B market-data feed arbitrator:
// two independent, identically-tagged input streams are deduplicated and
// reordered into a single strictly-increasing output sequence, with gap
// detection for sustained holes and bounded memory for both the dedup
// window and the reorder buffer.
package arbitrator

import (
	"sync"
	"time"

	"github.com/quantforge/sbe/channel"
	"github.com/quantforge/sbe/errs"
	"github.com/quantforge/sbe/internal/idset"
)

// Message is one sequenced payload arriving from either feed.
type Message struct {
	Seq     uint64
	Payload []byte
}

// Config configures an Arbitrator. SeenWindow bounds the recently-delivered
// dedup set; ReorderCapacity bounds the out-of-order buffer; GapTimeout is
// how long a hole at the head of the buffer may persist before GapDetected
// fires.
type Config struct {
	SeenWindow      int
	ReorderCapacity int
	GapTimeout      time.Duration

	// Clock is overridable for deterministic tests; defaults to time.Now.
	Clock func() time.Time
}

// Arbitrator consumes Feed calls from two (or more) redundant sources and
// publishes deduplicated, strictly-ordered messages to Output.
type Arbitrator struct {
	cfg Config

	mu               sync.Mutex
	highestDelivered uint64
	seen             *idset.Ring
	pending          map[uint64]Message
	gapSince         map[uint64]time.Time // keyed by the missing seq at the head of the gap
	gapReported      map[uint64]struct{}  // missing seqs already surfaced via CheckGaps

	output *channel.Broadcast[Message]

	onGap      func(*errs.GapDetected)
	onOverflow func(*errs.ReorderOverflow)
}

// Option configures an Arbitrator at construction.
type Option func(*Arbitrator)

// WithGapHandler registers a callback invoked whenever a sustained gap is
// detected. Optional; gaps are always tracked internally regardless.
func WithGapHandler(fn func(*errs.GapDetected)) Option {
	return func(a *Arbitrator) { a.onGap = fn }
}

// WithOverflowHandler registers a callback invoked whenever the reorder
// buffer evicts a pending entry.
func WithOverflowHandler(fn func(*errs.ReorderOverflow)) Option {
	return func(a *Arbitrator) { a.onOverflow = fn }
}

// New creates an Arbitrator. startSeq is the sequence number immediately
// before the first message the arbitrator should deliver (typically 0, or
// a snapshot's lastSeq after recovery).
func New(cfg Config, startSeq uint64, opts ...Option) *Arbitrator {
	if cfg.SeenWindow <= 0 {
		cfg.SeenWindow = 4096
	}

	if cfg.ReorderCapacity <= 0 {
		cfg.ReorderCapacity = 256
	}

	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	a := &Arbitrator{
		cfg:              cfg,
		highestDelivered: startSeq,
		seen:             idset.NewRing(cfg.SeenWindow),
		pending:          make(map[uint64]Message),
		gapSince:         make(map[uint64]time.Time),
		gapReported:      make(map[uint64]struct{}),
		output:           channel.NewBroadcast[Message](cfg.ReorderCapacity * 4),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Subscribe registers a new output subscriber; see channel.Broadcast.Subscribe.
func (a *Arbitrator) Subscribe(lossy bool) *channel.Subscriber[Message] {
	return a.output.Subscribe(lossy)
}

// Feed delivers one message observed on either redundant feed. Duplicate or
// stale sequences are silently dropped; in-order messages are published
// immediately (draining any now-contiguous buffered successors); early
// messages are buffered pending their predecessors.
func (a *Arbitrator) Feed(msg Message) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if msg.Seq <= a.highestDelivered || a.seen.Contains(msg.Seq) {
		return nil
	}

	if msg.Seq == a.highestDelivered+1 {
		if err := a.deliverLocked(msg); err != nil {
			return err
		}

		a.drainLocked()

		if len(a.pending) > 0 {
			if _, tracked := a.gapSince[a.highestDelivered+1]; !tracked {
				a.gapSince[a.highestDelivered+1] = a.cfg.Clock()
			}
		}

		return nil
	}

	if _, exists := a.pending[msg.Seq]; !exists {
		if len(a.pending) >= a.cfg.ReorderCapacity {
			a.evictOldestLocked()
		}

		a.pending[msg.Seq] = msg
	}

	if _, tracked := a.gapSince[a.highestDelivered+1]; !tracked {
		a.gapSince[a.highestDelivered+1] = a.cfg.Clock()
	}

	return nil
}

// CheckGaps evaluates whether any currently-tracked gap has persisted
// longer than GapTimeout and, if so, invokes the gap handler (if
// registered) and returns the newly detected gaps. Callers should call this
// periodically (e.g. from a timer tick) rather than relying on Feed alone,
// since a gap with no further arrivals would otherwise never be noticed.
// Each missing sequence surfaces at most one GapDetected until the gap
// resolves (its message arrives) and a fresh gap later opens at that seq.
func (a *Arbitrator) CheckGaps() []*errs.GapDetected {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.cfg.Clock()

	var gaps []*errs.GapDetected

	for missingFrom, since := range a.gapSince {
		if now.Sub(since) < a.cfg.GapTimeout {
			continue
		}

		if _, reported := a.gapReported[missingFrom]; reported {
			continue
		}

		// The gap runs up to just before the lowest buffered successor.
		to := missingFrom
		var lowest uint64
		for seq := range a.pending {
			if seq > missingFrom && (lowest == 0 || seq < lowest) {
				lowest = seq
			}
		}

		if lowest > missingFrom+1 {
			to = lowest - 1
		}

		g := errs.NewGapDetected(missingFrom, to)
		gaps = append(gaps, g)
		a.gapReported[missingFrom] = struct{}{}

		if a.onGap != nil {
			a.onGap(g)
		}
	}

	return gaps
}

func (a *Arbitrator) deliverLocked(msg Message) error {
	a.highestDelivered = msg.Seq
	a.seen.Add(msg.Seq)
	delete(a.gapSince, msg.Seq)
	delete(a.gapReported, msg.Seq)

	return a.output.Publish(msg)
}

func (a *Arbitrator) drainLocked() {
	for {
		next, ok := a.pending[a.highestDelivered+1]
		if !ok {
			return
		}

		delete(a.pending, next.Seq)

		if err := a.deliverLocked(next); err != nil {
			return
		}
	}
}

func (a *Arbitrator) evictOldestLocked() {
	var oldest uint64
	first := true

	for seq := range a.pending {
		if first || seq < oldest {
			oldest = seq
			first = false
		}
	}

	if first {
		return
	}

	delete(a.pending, oldest)

	o := errs.NewReorderOverflow(oldest)
	if a.onOverflow != nil {
		a.onOverflow(o)
	}
}

// HighestDelivered returns the highest sequence number delivered so far.
func (a *Arbitrator) HighestDelivered() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.highestDelivered
}
