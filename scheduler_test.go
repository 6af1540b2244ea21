package braidsched

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T, cfg Config) *Scheduler {
	t.Helper()
	sched, need, err := Init(cfg)
	require.NoError(t, err)
	buf := make([]byte, need)
	require.NoError(t, sched.Start(buf))
	t.Cleanup(func() { _ = sched.Stop(true) })
	return sched
}

func TestSumOneToTenMillion(t *testing.T) {
	sched := newTestScheduler(t, Config{ThreadCount: 4})

	var sum atomic.Int64
	task := &Task{}
	sched.Add(task, func(_ any, _ *Scheduler, start, end int64, _ int) {
		var local int64
		for i := start; i < end; i++ {
			local += i + 1
		}
		sum.Add(local)
	}, nil, 10_000_000, 1000)

	sched.Join(task)
	require.Equal(t, int64(50000005000000), sum.Load())
}

func TestRecursiveSubmitBraidedJoin(t *testing.T) {
	sched := newTestScheduler(t, Config{ThreadCount: 4})

	var bDone atomic.Bool
	var bCount atomic.Int64

	taskA := &Task{}
	sched.Add(taskA, func(_ any, s *Scheduler, _, _ int64, workerID int) {
		taskB := &Task{}
		s.AddFrom(workerID, taskB, func(_ any, _ *Scheduler, start, end int64, _ int) {
			bCount.Add(end - start)
		}, nil, 1000, 1)
		s.JoinFrom(workerID, taskB)
		bDone.Store(true)
	}, nil, 1, 1)

	sched.Join(taskA)
	require.True(t, bDone.Load())
	require.Equal(t, int64(1000), bCount.Load())
}

func TestPipeOverflowInlineExecution(t *testing.T) {
	// A high thread count relative to size drives range_to_run
	// (size/partitions_num = 1024/1560) down to min_range==1, while the
	// initial split grain stays 1024/8 = 128. Four 128-wide subtasks
	// fill the capacity-4 pipe, so further pushes overflow during
	// enqueue — exercising the inline-execution overflow path (which
	// runs single-index slices) and steal-time re-splitting of the
	// 128-wide subtasks against range_to_run.
	sched := newTestScheduler(t, Config{ThreadCount: 40, PipeSizeLog2: 1}) // capacity 4

	var mu sync.Mutex
	covered := make([]bool, 1024)
	var invocations atomic.Int64

	task := &Task{}
	sched.Add(task, func(_ any, _ *Scheduler, start, end int64, _ int) {
		invocations.Add(1)
		mu.Lock()
		for i := start; i < end; i++ {
			require.False(t, covered[i], "range must not overlap")
			covered[i] = true
		}
		mu.Unlock()
	}, nil, 1024, 1)

	sched.Join(task)

	for i, c := range covered {
		require.True(t, c, "index %d was never covered", i)
	}
}

func TestRestart(t *testing.T) {
	cfg := Config{ThreadCount: 2}
	sched, need, err := Init(cfg)
	require.NoError(t, err)
	buf := make([]byte, need)

	require.NoError(t, sched.Start(buf))

	var sum1 atomic.Int64
	task1 := &Task{}
	sched.Add(task1, func(_ any, _ *Scheduler, start, end int64, _ int) {
		sum1.Add(end - start)
	}, nil, 100, 1)
	sched.Join(task1)
	require.Equal(t, int64(100), sum1.Load())
	require.NoError(t, sched.Stop(true))

	require.NoError(t, sched.Start(buf))
	var sum2 atomic.Int64
	task2 := &Task{}
	sched.Add(task2, func(_ any, _ *Scheduler, start, end int64, _ int) {
		sum2.Add(end - start)
	}, nil, 100, 1)
	sched.Join(task2)
	require.Equal(t, int64(100), sum2.Load())
	require.NoError(t, sched.Stop(true))
}

func TestIdleWake(t *testing.T) {
	sched := newTestScheduler(t, Config{ThreadCount: 2, SpinCountMax: 50})

	// Give the lone worker (id 1) time to exhaust its spin budget and
	// park.
	time.Sleep(20 * time.Millisecond)
	require.Eventually(t, func() bool {
		return sched.threadWaiting.Load() == 1
	}, time.Second, time.Millisecond, "worker never parked")

	var ran atomic.Bool
	task := &Task{}
	sched.Add(task, func(_ any, _ *Scheduler, _, _ int64, _ int) {
		ran.Store(true)
	}, nil, 1, 1)
	sched.Join(task)

	require.True(t, ran.Load())
	require.Eventually(t, func() bool {
		return sched.threadWaiting.Load() == 0
	}, time.Second, time.Millisecond, "worker never returned to waiting==0 after the park/wake cycle")
}

func TestThreadIDUniqueness(t *testing.T) {
	threadCount := 4
	sched := newTestScheduler(t, Config{ThreadCount: threadCount})

	var mu sync.Mutex
	seen := map[int]bool{}

	task := &Task{}
	sched.Add(task, func(_ any, _ *Scheduler, _, _ int64, workerID int) {
		mu.Lock()
		seen[workerID] = true
		mu.Unlock()
	}, nil, int64(threadCount), 1)
	sched.Join(task)

	require.Len(t, seen, threadCount)
	for id := 0; id < threadCount; id++ {
		require.True(t, seen[id], "worker id %d never ran a subtask", id)
	}
}

func TestSizeZeroNormalizesToOne(t *testing.T) {
	sched := newTestScheduler(t, Config{ThreadCount: 2})

	var gotStart, gotEnd int64 = -1, -1
	var calls atomic.Int64

	task := &Task{}
	sched.Add(task, func(_ any, _ *Scheduler, start, end int64, _ int) {
		calls.Add(1)
		gotStart, gotEnd = start, end
	}, nil, 0, 1)
	sched.Join(task)

	require.Equal(t, int64(1), calls.Load())
	require.Equal(t, int64(0), gotStart)
	require.Equal(t, int64(1), gotEnd)
}

func TestSingleThreadRunsOnCallingGoroutine(t *testing.T) {
	// With T=1 no worker goroutines are spawned at all (workers only
	// exist for ids [1,T)); the single subtask sits on the main
	// goroutine's own pipe until Join pops and runs it there.
	sched := newTestScheduler(t, Config{ThreadCount: 1})

	var ran atomic.Bool
	task := &Task{}
	sched.Add(task, func(_ any, _ *Scheduler, _, _ int64, workerID int) {
		require.Equal(t, 0, workerID)
		ran.Store(true)
	}, nil, 1, 1)

	sched.Join(task)
	require.True(t, ran.Load())
	require.True(t, task.Done())
}

func TestJoinIsIdempotent(t *testing.T) {
	sched := newTestScheduler(t, Config{ThreadCount: 2})

	task := &Task{}
	sched.Add(task, func(_ any, _ *Scheduler, _, _ int64, _ int) {}, nil, 100, 1)
	sched.Join(task)
	require.True(t, task.Done())

	// Calling Join again must be a no-op, not a hang.
	sched.Join(task)
	require.True(t, task.Done())
}

func TestWaitDrainsAllPipes(t *testing.T) {
	sched := newTestScheduler(t, Config{ThreadCount: 4})

	var count atomic.Int64
	task := &Task{}
	sched.Add(task, func(_ any, _ *Scheduler, start, end int64, _ int) {
		count.Add(end - start)
	}, nil, 5000, 10)

	sched.Wait()
	require.Equal(t, int64(5000), count.Load())
	require.True(t, task.Done())
}
