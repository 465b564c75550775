package channel_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quantforge/sbe/channel"
)

func TestBroadcast_TwoSubscribersReceiveInOrder(t *testing.T) {
	b := channel.NewBroadcast[int](8)

	s1 := b.Subscribe(false)
	s2 := b.Subscribe(false)

	require.NoError(t, b.Publish(42))
	require.NoError(t, b.Publish(100))

	for _, s := range []*channel.Subscriber[int]{s1, s2} {
		v, ok := s.Receive()
		require.True(t, ok)
		require.Equal(t, 42, v)

		v, ok = s.Receive()
		require.True(t, ok)
		require.Equal(t, 100, v)

		_, ok = s.Receive()
		require.False(t, ok)
	}
}

func TestBroadcast_LosslessBackpressure(t *testing.T) {
	b := channel.NewBroadcast[int](2)
	sub := b.Subscribe(false)

	require.NoError(t, b.Publish(1))
	require.NoError(t, b.Publish(2))
	require.Error(t, b.Publish(3))

	_, _ = sub.Receive()
	require.NoError(t, b.Publish(3))
}

func TestBroadcast_LossySubscriberDropsAndCounts(t *testing.T) {
	b := channel.NewBroadcast[int](2)
	sub := b.Subscribe(true)

	require.NoError(t, b.Publish(1))
	require.NoError(t, b.Publish(2))
	require.NoError(t, b.Publish(3))
	require.NoError(t, b.Publish(4))

	v, ok := sub.Receive()
	require.True(t, ok)
	require.Equal(t, 3, v)
	require.Equal(t, uint64(2), sub.Dropped())
}

func TestBroadcast_RecvSpinBlocksUntilPublish(t *testing.T) {
	b := channel.NewBroadcast[int](4)
	sub := b.Subscribe(false)

	done := make(chan int, 1)
	go func() { done <- sub.RecvSpin() }()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, b.Publish(7))

	select {
	case v := <-done:
		require.Equal(t, 7, v)
	case <-time.After(time.Second):
		t.Fatal("RecvSpin never observed the published value")
	}
}
