package exclusivelock

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/errgroup"

	"gitlab.com/slon/asynclock/box"
	"gitlab.com/slon/asynclock/future"
	"gitlab.com/slon/asynclock/lockopt"
	"gitlab.com/slon/asynclock/lockopt/mocks"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func waitIdle[T any](t *testing.T, l *Lock[T]) {
	t.Helper()
	require.Eventually(t, l.IsIdle, time.Second, time.Millisecond)
}

func TestLock_StartsIdle(t *testing.T) {
	l := New(1)
	require.True(t, l.IsIdle())
	require.Equal(t, 0, l.QueueLength())
}

func TestLock_NilValue(t *testing.T) {
	l := New[*box.Box[int]](nil)
	v, err := Run(l, func(b *box.Box[int]) (bool, error) {
		return b == nil, nil
	}).Get()
	require.NoError(t, err)
	require.True(t, v)
}

func TestLock_RunReturnsResult(t *testing.T) {
	l := New(box.New(42), lockopt.WithLogger(zaptest.NewLogger(t)))

	v, err := Run(l, func(b *box.Box[int]) (int, error) {
		return b.Get() + 1, nil
	}).Get()
	require.NoError(t, err)
	require.Equal(t, 43, v)

	waitIdle(t, l)
}

func TestLock_SubmissionOrder(t *testing.T) {
	var order []int
	l := New(&order)

	const n = 100
	futures := make([]*future.Future[struct{}], 0, n)
	for i := 0; i < n; i++ {
		i := i
		futures = append(futures, Run(l, func(order *[]int) (struct{}, error) {
			if i%10 == 0 {
				time.Sleep(time.Millisecond)
			}
			*order = append(*order, i)
			return struct{}{}, nil
		}))
	}
	for _, f := range futures {
		_, err := f.Get()
		require.NoError(t, err)
	}
	waitIdle(t, l)

	expected := make([]int, n)
	for i := range expected {
		expected[i] = i
	}
	diff, err := Run(l, func(order *[]int) (string, error) {
		return cmp.Diff(expected, *order), nil
	}).Get()
	require.NoError(t, err)
	require.Empty(t, diff, "execution order mismatch (-want +got)")
	waitIdle(t, l)
}

func TestLock_NeverOverlaps(t *testing.T) {
	l := New(struct{}{})

	var active, maxActive, total atomic.Int32
	var g errgroup.Group
	for i := 0; i < 20; i++ {
		g.Go(func() error {
			for j := 0; j < 5; j++ {
				_, err := Run(l, func(struct{}) (struct{}, error) {
					cur := active.Add(1)
					for {
						prev := maxActive.Load()
						if cur <= prev || maxActive.CompareAndSwap(prev, cur) {
							break
						}
					}
					time.Sleep(100 * time.Microsecond)
					active.Add(-1)
					total.Add(1)
					return struct{}{}, nil
				}).Get()
				if err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	waitIdle(t, l)

	require.Equal(t, int32(1), maxActive.Load())
	require.Equal(t, int32(100), total.Load())
}

func TestLock_IdleAndQueueLength(t *testing.T) {
	l := New(0)
	gate := make(chan struct{})

	first := Run(l, func(int) (int, error) {
		<-gate
		return 1, nil
	})
	second := Run(l, func(int) (int, error) { return 2, nil })
	third := Run(l, func(int) (int, error) { return 3, nil })

	require.False(t, l.IsIdle())
	require.Equal(t, 2, l.QueueLength())

	close(gate)
	for i, f := range []*future.Future[int]{first, second, third} {
		v, err := f.Get()
		require.NoError(t, err)
		require.Equal(t, i+1, v)
	}

	waitIdle(t, l)
	require.Equal(t, 0, l.QueueLength())
}

func TestLock_FailureDoesNotStall(t *testing.T) {
	l := New(0)
	errBoom := errors.New("boom")

	failed := Run(l, func(int) (int, error) { return 0, errBoom })
	next := Run(l, func(int) (int, error) { return 1, nil })

	_, err := failed.Get()
	require.ErrorIs(t, err, errBoom)

	v, err := next.Get()
	require.NoError(t, err)
	require.Equal(t, 1, v)
	waitIdle(t, l)
}

func TestLock_PanicBecomesError(t *testing.T) {
	l := New(0)

	panicked := Run(l, func(int) (int, error) { panic("oops") })
	next := Run(l, func(v int) (int, error) { return v + 1, nil })

	_, err := panicked.Get()
	require.ErrorIs(t, err, ErrHandlerPanic)
	require.Contains(t, err.Error(), "oops")

	v, err := next.Get()
	require.NoError(t, err)
	require.Equal(t, 1, v)
	waitIdle(t, l)
}

func TestLock_ReleaseTwicePanics(t *testing.T) {
	l := New(0)
	recovered := make(chan any, 1)

	l.Submit(TaskFunc[int](func(_ int, release func()) {
		release()
		defer func() { recovered <- recover() }()
		release()
	}))

	require.Equal(t, "exclusivelock: task released twice", <-recovered)
	waitIdle(t, l)
}

func TestLock_SubmitDoesNotRunOnCaller(t *testing.T) {
	l := New(0)
	gate := make(chan struct{})
	started := make(chan struct{})

	f := Run(l, func(int) (int, error) {
		close(started)
		<-gate
		return 0, nil
	})

	// Submit вернул управление, хотя обработчик ещё заблокирован
	<-started
	require.False(t, f.Ready())
	close(gate)
	_, _ = f.Get()
	waitIdle(t, l)
}

func TestLock_Observer(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ctrl := gomock.NewController(t)
	obs := mocks.NewMockObserver(ctrl)

	l := New(0,
		lockopt.WithName("test"),
		lockopt.WithClock(clock),
		lockopt.WithObserver(obs),
		lockopt.WithLogger(zaptest.NewLogger(t)),
	)
	require.Equal(t, "test", l.Name())

	gomock.InOrder(
		obs.EXPECT().TaskQueued("test", 1),
		obs.EXPECT().TaskStarted("test", time.Duration(0)),
		obs.EXPECT().TaskQueued("test", 1),
		obs.EXPECT().TaskFinished("test", 5*time.Second),
		obs.EXPECT().TaskStarted("test", 5*time.Second),
		obs.EXPECT().TaskFinished("test", time.Duration(0)),
	)

	gate := make(chan struct{})
	first := Run(l, func(int) (int, error) {
		<-gate
		return 1, nil
	})
	second := Run(l, func(int) (int, error) { return 2, nil })

	clock.Advance(5 * time.Second)
	close(gate)

	_, err := first.Get()
	require.NoError(t, err)
	_, err = second.Get()
	require.NoError(t, err)
	waitIdle(t, l)
}

func TestLock_NextWhileRunningPanics(t *testing.T) {
	l := New(0)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.running = true

	require.PanicsWithValue(t, "exclusivelock: next called while a task is running", l.next)
}
