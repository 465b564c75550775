package arbitrator_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quantforge/sbe/arbitrator"
	"github.com/quantforge/sbe/errs"
)

func msg(seq uint64) arbitrator.Message {
	return arbitrator.Message{Seq: seq, Payload: []byte{byte(seq)}}
}

func TestArbitrator_DedupsAcrossFeeds(t *testing.T) {
	a := arbitrator.New(arbitrator.Config{GapTimeout: time.Second}, 0)
	sub := a.Subscribe(false)

	require.NoError(t, a.Feed(msg(1)))
	require.NoError(t, a.Feed(msg(1))) // duplicate from slower feed
	require.NoError(t, a.Feed(msg(2)))

	v, ok := sub.Receive()
	require.True(t, ok)
	require.Equal(t, uint64(1), v.Seq)

	v, ok = sub.Receive()
	require.True(t, ok)
	require.Equal(t, uint64(2), v.Seq)

	_, ok = sub.Receive()
	require.False(t, ok)
}

func TestArbitrator_BuffersAndDrainsOutOfOrder(t *testing.T) {
	a := arbitrator.New(arbitrator.Config{GapTimeout: time.Second}, 0)
	sub := a.Subscribe(false)

	require.NoError(t, a.Feed(msg(3)))
	require.NoError(t, a.Feed(msg(2)))

	_, ok := sub.Receive()
	require.False(t, ok, "3 and 2 buffered, 1 still missing")

	require.NoError(t, a.Feed(msg(1)))

	var got []uint64
	for {
		v, ok := sub.Receive()
		if !ok {
			break
		}

		got = append(got, v.Seq)
	}

	require.Equal(t, []uint64{1, 2, 3}, got)
	require.Equal(t, uint64(3), a.HighestDelivered())
}

func TestArbitrator_DropsStaleAndBelowHighWaterMark(t *testing.T) {
	a := arbitrator.New(arbitrator.Config{GapTimeout: time.Second}, 5)

	require.NoError(t, a.Feed(msg(3)))
	require.NoError(t, a.Feed(msg(5)))
	require.Equal(t, uint64(5), a.HighestDelivered())
}

func TestArbitrator_GapDetectedAfterTimeout(t *testing.T) {
	now := time.Now()

	var gaps []*errs.GapDetected

	a := arbitrator.New(
		arbitrator.Config{GapTimeout: 50 * time.Millisecond, Clock: func() time.Time { return now }},
		0,
		arbitrator.WithGapHandler(func(g *errs.GapDetected) {
			gaps = append(gaps, g)
		}),
	)

	require.NoError(t, a.Feed(msg(5))) // 1..4 missing

	require.Empty(t, a.CheckGaps(), "gap not yet old enough")
	require.Empty(t, gaps)

	now = now.Add(100 * time.Millisecond)

	got := a.CheckGaps()
	require.Len(t, got, 1)
	require.Equal(t, uint64(1), got[0].From)
	require.Equal(t, uint64(4), got[0].To)
	require.Len(t, gaps, 1)

	now = now.Add(100 * time.Millisecond)

	require.Empty(t, a.CheckGaps(), "already-reported gap must not re-fire on a later tick")
	require.Len(t, gaps, 1, "gap handler must not be invoked twice for the same unresolved gap")
}

func TestArbitrator_NewGapAfterPriorResolutionStillReported(t *testing.T) {
	now := time.Now()

	var gaps []*errs.GapDetected

	a := arbitrator.New(
		arbitrator.Config{GapTimeout: 50 * time.Millisecond, Clock: func() time.Time { return now }},
		0,
		arbitrator.WithGapHandler(func(g *errs.GapDetected) {
			gaps = append(gaps, g)
		}),
	)

	require.NoError(t, a.Feed(msg(2))) // 1 missing

	now = now.Add(100 * time.Millisecond)
	require.Len(t, a.CheckGaps(), 1)
	require.Len(t, gaps, 1)

	require.NoError(t, a.Feed(msg(1))) // resolves the gap, drains 2

	require.NoError(t, a.Feed(msg(4))) // 3 missing again

	now = now.Add(100 * time.Millisecond)
	got := a.CheckGaps()
	require.Len(t, got, 1, "a fresh gap at a previously-reported seq must surface again")
	require.Equal(t, uint64(3), got[0].From)
	require.Len(t, gaps, 2)
}

func TestArbitrator_ReorderOverflowEvictsOldest(t *testing.T) {
	var overflowed []uint64

	a := arbitrator.New(
		arbitrator.Config{ReorderCapacity: 2, GapTimeout: time.Second},
		0,
		arbitrator.WithOverflowHandler(func(o *errs.ReorderOverflow) {
			overflowed = append(overflowed, o.DroppedSeq)
		}),
	)

	require.NoError(t, a.Feed(msg(5)))
	require.NoError(t, a.Feed(msg(4)))
	require.NoError(t, a.Feed(msg(3))) // buffer already holds {4,5} at capacity; evicts the lower of those (4) to admit 3

	require.Len(t, overflowed, 1)
	require.Equal(t, uint64(4), overflowed[0])
}
