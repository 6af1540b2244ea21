// Package braidsched is an embeddable, data-parallel task scheduler.
//
// A caller submits a task set — a callable plus an index range
// [0, size) — and the scheduler partitions that range into subranges,
// dispatches them across a fixed pool of worker goroutines (each
// pinned to its own OS thread), runs them in parallel, and lets any
// worker, including one executing inside a task, wait for completion
// or submit further tasks ("braided parallelism").
//
// The hot path — Add, Join, Wait, and the worker loop itself — works
// on per-worker state that Start allocates once, in ordinary Go slices
// whose size is charged against a caller-provided arena (see Init,
// Start, and arena.go). Logging happens at Start and Stop, plus a
// parked worker's failed semaphore wait. The optional observability
// stack is touched at Start, at Stop, on a pipe overflow in Add, and
// at the begin and end of Wait.
package braidsched
