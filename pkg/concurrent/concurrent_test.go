package concurrent

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParallelMapPreservesOrder(t *testing.T) {
	in := make([]int, 100)
	for i := range in {
		in[i] = i
	}
	for _, workers := range []int{0, 1, 3, 200} {
		out, err := ParallelMap(in, workers, func(_ int, v int) (int, error) { return v * v, nil })
		require.NoError(t, err)
		for i, v := range out {
			assert.Equal(t, i*i, v, "workers=%d", workers)
		}
	}
}

func TestParallelMapEmpty(t *testing.T) {
	out, err := ParallelMap[int, int](nil, 4, func(int, int) (int, error) { return 0, nil })
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestParallelMapRespectsLimit(t *testing.T) {
	var running, peak atomic.Int32
	in := make([]int, 64)
	_, err := ParallelMap(in, 2, func(int, int) (int, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		running.Add(-1)
		return 0, nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestForEachReturnsError(t *testing.T) {
	boom := errors.New("boom")
	var calls atomic.Int32
	err := ForEach([]int{1, 2, 3}, 0, func(_ int, v int) error {
		calls.Add(1)
		if v == 2 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(3), calls.Load())
}
