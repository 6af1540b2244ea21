package braidsched

import "sync/atomic"

// Exec is a task's callable. It is invoked once per subtask with the
// subrange [start, end) of the task's full range and the id of the
// worker running it. workerID is always in [0, ThreadCount).
type Exec func(userdata any, s *Scheduler, start, end int64, workerID int)

// Task describes a unit of data-parallel work: exec run over the
// index range [0, Size). The caller owns a Task's memory; it must
// outlive every subtask referencing it, i.e. until Done reports true.
//
// A Task is reentrant-safe to submit and join from inside its own (or
// another task's) Exec — that's braided parallelism.
type Task struct {
	userdata any
	exec     Exec
	size     int64
	minRange int64

	// rangeToRun is the grain a thief re-splits a stolen, oversized
	// subtask against. Computed once in add.
	rangeToRun int64

	// runCount is the outstanding-work counter. Initialized to -1
	// before the task is enqueued (see add); each successful pipe
	// write increments it, each completed subrange decrements it. The
	// task is complete iff runCount == 0. The -1 bias prevents a
	// spurious transient zero while add is still writing subtasks that
	// other workers may already be stealing and completing.
	runCount atomic.Int64
}

// Done reports whether every subtask of t has completed. Outside Join
// (which loops on the same counter) the answer is only a racy
// snapshot; exposed for diagnostics.
func (t *Task) Done() bool {
	return t.runCount.Load() == 0
}

// subtask is the value copied into and out of pipe slots: one
// contiguous subrange of a task.
type subtask struct {
	task  *Task
	start int64
	end   int64
}

func (s subtask) len() int64 { return s.end - s.start }

func normalizeRange(size, minRange int64) (int64, int64) {
	if size < 1 {
		size = 1
	}
	if minRange < 1 {
		minRange = 1
	}
	return size, minRange
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func minI64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
