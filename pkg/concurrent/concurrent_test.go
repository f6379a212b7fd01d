package concurrent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_PreservesOrder(t *testing.T) {
	in := []int{5, 4, 3, 2, 1, 0}
	out, err := Map(context.Background(), in, 3, func(_ context.Context, v int) (int, error) {
		time.Sleep(time.Duration(v) * time.Millisecond)
		return v * v, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{25, 16, 9, 4, 1, 0}, out)
}

func TestMap_RespectsLimit(t *testing.T) {
	var running, peak atomic.Int32
	in := make([]int, 32)
	_, err := Map(context.Background(), in, 2, func(_ context.Context, v int) (int, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		running.Add(-1)
		return v, nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestMap_ReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	out, err := Map(context.Background(), []int{1, 2, 3}, 1, func(_ context.Context, v int) (int, error) {
		if v == 2 {
			return 0, boom
		}
		return v, nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, out)
}

func TestMap_CancelledParent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Map(ctx, []int{1}, 1, func(_ context.Context, v int) (int, error) { return v, nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorker_SubmitAndNext(t *testing.T) {
	w := NewWorker[string](context.Background(), 4)
	defer func() { assert.NoError(t, w.Close()) }()

	id1, err := w.Submit(context.Background(), func(context.Context) (string, error) { return "a", nil })
	require.NoError(t, err)
	id2, err := w.Submit(context.Background(), func(context.Context) (string, error) { return "", errors.New("bad") })
	require.NoError(t, err)

	c1, err := w.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, id1, c1.ID)
	assert.Equal(t, "a", c1.Value)

	c2, err := w.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, id2, c2.ID)
	assert.EqualError(t, c2.Err, "bad")
}

func TestWorker_Drain(t *testing.T) {
	w := NewWorker[int](context.Background(), 8)
	defer func() { assert.NoError(t, w.Close()) }()

	for i := range 3 {
		_, err := w.Submit(context.Background(), func(context.Context) (int, error) { return i, nil })
		require.NoError(t, err)
	}

	var got []int
	require.Eventually(t, func() bool {
		w.Drain(func(c Completion[int]) { got = append(got, c.Value) })
		return len(got) == 3
	}, time.Second, time.Millisecond)
	assert.Equal(t, []int{0, 1, 2}, got, "one worker completes jobs in submit order")
	assert.Zero(t, w.Drain(func(Completion[int]) {}))
}

func TestWorker_SubmitAfterClose(t *testing.T) {
	w := NewWorker[int](context.Background(), 1)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err := w.Submit(context.Background(), func(context.Context) (int, error) { return 1, nil })
	assert.ErrorIs(t, err, ErrWorkerClosed)
}

func TestWorker_FullQueueNeverBlocks(t *testing.T) {
	const depth = 4
	w := NewWorker[int](context.Background(), depth)
	defer func() { assert.NoError(t, w.Close()) }()

	release := make(chan struct{})
	accepted := 0
	for i := range 3 * depth {
		_, err := w.Submit(context.Background(), func(context.Context) (int, error) {
			<-release
			return i, nil
		})
		if err != nil {
			require.ErrorIs(t, err, ErrQueueFull)
			continue
		}
		accepted++
	}
	assert.Equal(t, depth, accepted)
	assert.Equal(t, depth, w.Queued())
	close(release)

	var got []int
	require.Eventually(t, func() bool {
		w.Drain(func(c Completion[int]) { got = append(got, c.Value) })
		return len(got) == depth
	}, time.Second, time.Millisecond)
	assert.Zero(t, w.Queued())

	_, err := w.Submit(context.Background(), func(context.Context) (int, error) { return 0, nil })
	assert.NoError(t, err, "draining frees room")
}

func TestWorker_JobUsesSubmitterContext(t *testing.T) {
	w := NewWorker[int](context.Background(), 2)
	defer func() { assert.NoError(t, w.Close()) }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ran := false
	id, err := w.Submit(ctx, func(context.Context) (int, error) {
		ran = true
		return 1, nil
	})
	require.NoError(t, err)

	c, err := w.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, id, c.ID)
	assert.ErrorIs(t, c.Err, context.Canceled)
	assert.False(t, ran)

	c, err = func() (Completion[int], error) {
		_, err := w.Submit(context.Background(), func(ctx context.Context) (int, error) { return 2, ctx.Err() })
		require.NoError(t, err)
		return w.Next(context.Background())
	}()
	require.NoError(t, err)
	assert.NoError(t, c.Err)
	assert.Equal(t, 2, c.Value)
}

func TestWorker_NextAfterClose(t *testing.T) {
	w := NewWorker[int](context.Background(), 1)
	require.NoError(t, w.Close())
	_, err := w.Next(context.Background())
	assert.ErrorIs(t, err, ErrWorkerClosed)
}
