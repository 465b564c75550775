package session_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quantforge/sbe/session"
)

func TestFramer_ExtractsCompleteFrame(t *testing.T) {
	f := session.NewFramer(0)
	defer f.Release()

	frame := session.AppendFrame(nil, []byte("hello"))
	f.Feed(frame)

	payload, ok, err := f.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("hello"), payload)

	_, ok, err = f.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFramer_PartialFrameWaitsForMoreBytes(t *testing.T) {
	f := session.NewFramer(0)
	defer f.Release()

	frame := session.AppendFrame(nil, []byte("hello world"))

	f.Feed(frame[:4])
	_, ok, err := f.Next()
	require.NoError(t, err)
	require.False(t, ok)

	f.Feed(frame[4:])
	payload, ok, err := f.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("hello world"), payload)
}

func TestFramer_MultipleFramesInOneFeed(t *testing.T) {
	f := session.NewFramer(0)
	defer f.Release()

	buf := session.AppendFrame(nil, []byte("a"))
	buf = session.AppendFrame(buf, []byte("bb"))
	buf = session.AppendFrame(buf, []byte("ccc"))

	f.Feed(buf)

	var got [][]byte
	for {
		payload, ok, err := f.Next()
		require.NoError(t, err)

		if !ok {
			break
		}

		cp := make([]byte, len(payload))
		copy(cp, payload)
		got = append(got, cp)
	}

	require.Equal(t, [][]byte{[]byte("a"), []byte("bb"), []byte("ccc")}, got)
}

func TestFramer_RejectsOversizeFrame(t *testing.T) {
	f := session.NewFramer(4)
	defer f.Release()

	frame := session.AppendFrame(nil, []byte("too big"))
	f.Feed(frame)

	_, _, err := f.Next()
	require.Error(t, err)
}
