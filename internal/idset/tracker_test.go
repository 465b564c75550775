package idset_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quantforge/sbe/internal/idset"
)

func TestTracker_AddReportsDuplicates(t *testing.T) {
	tr := idset.NewTracker(0)

	require.False(t, tr.Add(1))
	require.False(t, tr.Add(2))
	require.True(t, tr.Add(1))
	require.Equal(t, 2, tr.Count())
	require.True(t, tr.Contains(2))
	require.False(t, tr.Contains(3))
}

func TestTracker_Reset(t *testing.T) {
	tr := idset.NewTracker(0)
	tr.Add(1)
	tr.Add(2)

	tr.Reset()

	require.Equal(t, 0, tr.Count())
	require.False(t, tr.Contains(1))
	require.False(t, tr.Add(1), "key re-addable after reset")
}

func TestRing_RemembersUpToCapacity(t *testing.T) {
	r := idset.NewRing(3)

	r.Add(1)
	r.Add(2)
	r.Add(3)

	require.True(t, r.Contains(1))
	require.True(t, r.Contains(2))
	require.True(t, r.Contains(3))
}

func TestRing_EvictsOldestOnOverflow(t *testing.T) {
	r := idset.NewRing(3)

	r.Add(1)
	r.Add(2)
	r.Add(3)
	r.Add(4) // evicts 1

	require.False(t, r.Contains(1))
	require.True(t, r.Contains(2))
	require.True(t, r.Contains(3))
	require.True(t, r.Contains(4))
}

func TestRing_ReAddingPresentKeyDoesNotDisturbEvictionOrder(t *testing.T) {
	r := idset.NewRing(2)

	r.Add(1)
	r.Add(2)
	r.Add(1) // already present; no-op
	r.Add(3) // should still evict 1, the oldest, not 2

	require.False(t, r.Contains(1))
	require.True(t, r.Contains(2))
	require.True(t, r.Contains(3))
}

func TestNewRing_NonPositiveCapacityClampsToOne(t *testing.T) {
	r := idset.NewRing(0)

	r.Add(1)
	r.Add(2) // evicts 1 immediately, capacity 1

	require.False(t, r.Contains(1))
	require.True(t, r.Contains(2))
}
