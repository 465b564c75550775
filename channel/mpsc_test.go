package channel_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quantforge/sbe/channel"
)

type tagged struct {
	producer int
	seq      int
}

func TestMPSC_PerProducerOrderPreserved(t *testing.T) {
	c := channel.NewMPSC[tagged](64)

	const producers = 4
	const perProducer = 500

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)

		go func(p int) {
			defer wg.Done()

			for s := 0; s < perProducer; s++ {
				for c.Send(tagged{producer: p, seq: s}) != nil {
				}
			}
		}(p)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	lastSeq := make(map[int]int)
	received := 0

	for received < producers*perProducer {
		if v, ok := c.Receive(); ok {
			require.Equal(t, lastSeq[v.producer], v.seq)
			lastSeq[v.producer] = v.seq + 1
			received++
		}
	}

	<-done
}

func TestMPSC_FullReportsError(t *testing.T) {
	c := channel.NewMPSC[int](2)

	require.NoError(t, c.Send(1))
	require.NoError(t, c.Send(2))
	require.Error(t, c.Send(3))
}

func TestMPSC_RecvSpinBlocksUntilSend(t *testing.T) {
	c := channel.NewMPSC[int](4)

	done := make(chan int, 1)
	go func() { done <- c.RecvSpin() }()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, c.Send(11))

	select {
	case v := <-done:
		require.Equal(t, 11, v)
	case <-time.After(time.Second):
		t.Fatal("RecvSpin never observed the sent value")
	}
}
