package braidsched

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gosched/braidsched/internal/primitive"
)

// gosched-level backoff tuning: below this many total pause units we
// just yield the goroutine (cheap, no clock involved); above it we
// block on the injected clock for a short, scaled interval. Keeps the
// hot spin fast while still giving a real backoff for long misses.
const pauseCPUGoschedThreshold = 16

// Scheduler is the single, caller-owned scheduler instance. Create one
// with Init, hand it a big-enough arena via Start, and drive work
// through Add/Join/Wait. Stop tears the worker pool down; a stopped
// Scheduler may be Started again (Init's Config and computed need are
// unchanged across restarts).
type Scheduler struct {
	cfg Config

	mu      sync.Mutex // guards started/lifecycle transitions only
	started bool

	a     *arena
	pipes []pipe
	sem   *primitive.Semaphore
	wg    sync.WaitGroup

	running       atomic.Bool
	threadRunning atomic.Int32
	threadWaiting atomic.Int32

	partitionsNumV     int64
	partitionsInitNumV int64

	obs *Observability
}

// Init validates cfg, normalizes its defaults, and returns a scheduler
// together with the number of arena bytes Start will require.
func Init(cfg Config) (*Scheduler, int, error) {
	norm, err := cfg.normalize()
	if err != nil {
		return nil, 0, err
	}
	s := &Scheduler{cfg: norm, obs: norm.Observability}
	need := arenaNeed(norm)
	return s, need, nil
}

// Start brings the scheduler's worker pool up, backed by buf (which
// must be at least as large as the value Init returned). Start may be
// called again after Stop, reusing the same buf or a new one of
// sufficient size; every counter is reinitialized.
func (s *Scheduler) Start(buf []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}

	need := arenaNeed(s.cfg)
	if len(buf) < need {
		return fmt.Errorf("%w: need %d bytes, got %d", ErrArenaTooSmall, need, len(buf))
	}

	s.a = newArena(buf, s.cfg)
	s.pipes = s.a.pipes
	s.sem = primitive.NewSemaphore()
	s.partitionsNumV = partitionsNum(s.cfg.ThreadCount)
	s.partitionsInitNumV = partitionsInitNum(s.cfg.ThreadCount, s.cfg.MaxInitialPartitions)

	s.running.Store(true)
	s.threadRunning.Store(int32(s.cfg.ThreadCount))
	s.threadWaiting.Store(0)
	s.wg = sync.WaitGroup{}

	for id := 1; id < s.cfg.ThreadCount; id++ {
		s.wg.Add(1)
		go s.workerLoop(id)
	}

	s.started = true
	s.obs.started(s.cfg.ThreadCount)
	s.cfg.Logger.Info("scheduler started", map[string]any{"threads": s.cfg.ThreadCount})
	return nil
}

// Stop halts the scheduler. It always drains outstanding work first
// (helping, on the calling goroutine). If doWait is true it also
// broadcasts wakeups to any parked workers and blocks until every
// worker goroutine has exited.
func (s *Scheduler) Stop(doWait bool) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.mu.Unlock()

	s.running.Store(false)
	s.Wait()

	if doWait {
		for s.threadRunning.Load() > 1 {
			s.sem.Signal(int(s.threadRunning.Load()))
			runtime.Gosched()
		}
		s.wg.Wait()
	}

	s.mu.Lock()
	s.started = false
	s.mu.Unlock()

	s.obs.stopped()
	s.cfg.Logger.Info("scheduler stopped", nil)
	return nil
}

// AddFrom enqueues task onto the pipe owned by workerID (the calling
// worker's own pipe — pass 0 from the main/calling goroutine, or the
// workerID your Exec was invoked with for braided submission). See
// DESIGN.md for why the caller must state its own worker identity
// explicitly: Go has no portable thread-local storage, and spec
// section 9 names "pass the identity explicitly through the exec
// signature" as an accepted resolution.
func (s *Scheduler) AddFrom(workerID int, task *Task, fn Exec, userdata any, size, minRange int64) {
	size, minRange = normalizeRange(size, minRange)

	task.userdata = userdata
	task.exec = fn
	task.size = size
	task.minRange = minRange
	task.rangeToRun = maxI64(minRange, size/s.partitionsNumV)
	rangeToSplit := maxI64(minRange, size/s.partitionsInitNumV)
	task.runCount.Store(-1)

	owner := &s.pipes[workerID]
	var cnt int64
	start := int64(0)

	for start < size {
		hs, he, rs, _ := splitRange(start, size, rangeToSplit)
		st := subtask{task: task, start: hs, end: he}

		if owner.pushFront(st) {
			cnt++
			start = rs
			continue
		}

		// Overflow: the owner pipe is full. Run a range_to_run-sized
		// slice of this subrange inline on the calling goroutine and
		// retry the rest through the loop — it may fit once workers
		// have drained some of the pipe.
		if cnt > 1 {
			s.wake()
		}
		s.obs.overflow(workerID)

		clampEnd := minI64(he, hs+task.rangeToRun)
		task.exec(userdata, s, hs, clampEnd, workerID)
		start = clampEnd
	}

	task.runCount.Add(cnt + 1) // cancels the -1 enqueue bias
	s.wake()
}

// Add is AddFrom(0, ...): the convenience entry point for callers on
// the scheduler's main/calling goroutine (never from inside an Exec).
func (s *Scheduler) Add(task *Task, fn Exec, userdata any, size, minRange int64) {
	s.AddFrom(0, task, fn, userdata, size, minRange)
}

// JoinFrom helps execute work (try_run_one, in a loop) until task
// completes, or — if task is nil — runs at most one subtask and
// returns. workerID must be the caller's own worker identity (see
// AddFrom).
func (s *Scheduler) JoinFrom(workerID int, task *Task) {
	hint := workerID + 1
	if task == nil {
		s.tryRunOne(workerID, &hint)
		return
	}
	for task.runCount.Load() != 0 {
		if !s.tryRunOne(workerID, &hint) {
			runtime.Gosched()
		}
	}
}

// Join is JoinFrom(0, task).
func (s *Scheduler) Join(task *Task) {
	s.JoinFrom(0, task)
}

// WaitFrom returns once every pipe is drained and no worker other
// than the caller is busy. This is a best-effort convergence point,
// racy against continued submission from other goroutines, exactly as
// documented in spec section 4.3. workerID must be the caller's own
// worker identity (see AddFrom) — wait is reentrant from inside an
// Exec (spec section 5), and helping-pop must only ever touch the
// caller's own pipe front, never another worker's.
func (s *Scheduler) WaitFrom(workerID int) {
	_, span := s.obs.waitBegin()
	defer s.obs.waitEnd(span)

	hint := workerID + 1
	for s.anyPipeNonEmpty() || s.threadWaiting.Load() < s.threadRunning.Load()-1 {
		if !s.tryRunOne(workerID, &hint) {
			runtime.Gosched()
		}
	}
}

// Wait is WaitFrom(0): the convenience entry point for callers on the
// scheduler's main/calling goroutine (never from inside an Exec).
func (s *Scheduler) Wait() {
	s.WaitFrom(0)
}

func (s *Scheduler) anyPipeNonEmpty() bool {
	for i := range s.pipes {
		if !s.pipes[i].empty() {
			return true
		}
	}
	return false
}

// wake signals every currently-parked worker, mirroring the original
// scheduler's sched_wake_threads (which posts thread_waiting permits,
// not a fixed count). A real OS semaphore no-ops a zero-count signal;
// Signal does the same, so an Add with nobody parked never drains the
// underlying Weighted's held capacity.
func (s *Scheduler) wake() {
	s.sem.Signal(int(s.threadWaiting.Load()))
}

func (s *Scheduler) workerLoop(workerID int) {
	defer s.wg.Done()
	runtime.LockOSThread()

	s.cfg.Profiling.threadStart(s.cfg.ProfilingUserData, workerID)
	defer func() {
		s.threadRunning.Add(-1)
		s.cfg.Profiling.threadStop(s.cfg.ProfilingUserData, workerID)
	}()

	spin := 0
	hint := workerID + 1
	for s.running.Load() {
		if s.tryRunOne(workerID, &hint) {
			spin = 0
			continue
		}
		spin++
		if spin > s.cfg.SpinCountMax {
			s.waitForWork(workerID)
			spin = 0
		} else {
			s.pauseCPU(spin)
		}
	}
}

func (s *Scheduler) pauseCPU(spin int) {
	n := spin * s.cfg.SpinBackoffMul
	if n <= pauseCPUGoschedThreshold {
		for i := 0; i < n; i++ {
			runtime.Gosched()
		}
		return
	}
	d := time.Duration(n) * time.Microsecond
	<-s.cfg.Clock.After(d)
}

func (s *Scheduler) waitForWork(workerID int) {
	s.threadWaiting.Add(1)

	if s.anyPipeNonEmpty() {
		s.threadWaiting.Add(-1)
		return
	}

	s.cfg.Profiling.waitBegin(s.cfg.ProfilingUserData, workerID)

	if err := s.sem.Wait(context.Background()); err != nil {
		// context.Background() never cancels, so this is unreachable in
		// practice; it's the one place a parked worker's wait on the
		// underlying OS-level primitive could fail, so it's still wired
		// through to the logger rather than silently discarded.
		s.cfg.Logger.Error("worker semaphore wait failed", fmt.Errorf("%w: %v", ErrPlatform, err), map[string]any{"workerID": workerID})
	}

	s.threadWaiting.Add(-1)
	s.cfg.Profiling.waitEnd(s.cfg.ProfilingUserData, workerID)
}

// tryRunOne pops from the caller's own pipe front; failing that, it
// steals from other pipes' backs starting at *hint, advancing *hint
// past whichever pipe it stole from. Returns false if no work was
// found anywhere.
func (s *Scheduler) tryRunOne(workerID int, hint *int) bool {
	if st, ok := s.pipes[workerID].popFront(); ok {
		s.execSubtask(st, workerID)
		return true
	}

	t := s.cfg.ThreadCount
	for i := 0; i < t; i++ {
		idx := (*hint + i) % t
		if idx == workerID {
			continue
		}
		if st, ok := s.pipes[idx].popBack(); ok {
			*hint = (idx + 1) % t
			s.execSubtask(st, workerID)
			return true
		}
	}
	return false
}

func (s *Scheduler) execSubtask(st subtask, workerID int) {
	task := st.task

	if st.len() > task.rangeToRun {
		_, he, rs, re := splitRange(st.start, st.end, task.rangeToRun)
		remainder := subtask{task: task, start: rs, end: re}
		if s.pipes[workerID].pushFront(remainder) {
			task.runCount.Add(1)
			s.wake()
			st.end = he
		}
	}

	task.exec(task.userdata, s, st.start, st.end, workerID)
	task.runCount.Add(-1)
}
