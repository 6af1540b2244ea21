package braidsched

import "sync/atomic"

// Slot states. The reference scheduler uses 0x00000000/0x11111111/
// 0xFFFFFFFF so a corrupted slot is obvious in a memory dump; that's a
// debugging aid from a C/C++ context and has no equivalent value in
// Go, where the race detector and typed atomics serve the same
// purpose. The three-state protocol itself — the single synchronization
// edge between one writer and N readers — is reproduced exactly.
const (
	slotCanWrite uint32 = 0
	slotCanRead  uint32 = 1
	slotInvalid  uint32 = 2
)

// pipe is a single-owner deque of subtasks: the owning worker pushes
// and pops from the front (LIFO, cache-hot); any other worker may pop
// from the back (FIFO, steals the oldest, largest-lived chunks).
//
// buffer/flags form a fixed-size ring of capacity n = 2<<log2 (note:
// 2<<log2, not 1<<log2 — this doubles the reference scheduler's stated
// capacity formula and must be preserved exactly, since steal-time
// re-splitting assumes the larger headroom). Slot i = counter & mask.
type pipe struct {
	buffer []subtask
	flags  []atomic.Uint32
	mask   uint32

	// write is the owner's monotonically increasing front counter;
	// written only by the owner, read by anyone. readCount is bumped
	// by any thief after a successful back-steal CAS. Both wrap at
	// 2^32; only their subtraction (mod 2^32) is meaningful, so they
	// stay uint32 rather than widening to a signed 64-bit counter.
	write     atomic.Uint32
	read      atomic.Uint32 // owner's front-pop hint, read by thieves
	readCount atomic.Uint32
}

// initPipe places a pipe's buffer/flags into the arena-provided
// slices. Capacity must already be 2<<log2 entries.
func initPipe(p *pipe, buffer []subtask, flags []atomic.Uint32) {
	p.buffer = buffer
	p.flags = flags
	p.mask = uint32(len(buffer) - 1)
	p.write.Store(0)
	p.read.Store(0)
	p.readCount.Store(0)
	for i := range p.flags {
		p.flags[i].Store(slotCanWrite)
	}
}

func pipeCapacity(log2 uint) int {
	return 2 << log2
}

// pushFront publishes s to the next slot. Returns false ("full") if
// that slot is still held by a thief — the writer has lapped the
// readers. Push never spins; overflow is the caller's signal to run
// the subtask inline.
func (p *pipe) pushFront(s subtask) bool {
	w := p.write.Load()
	i := w & p.mask
	if p.flags[i].Load() != slotCanWrite {
		return false
	}
	p.buffer[i] = s
	p.flags[i].Store(slotCanRead) // release: publish buffer[i] before...
	p.write.Store(w + 1)          // ...advancing write.
	return true
}

// popFront pops the newest entry (LIFO), racing thieves for slots
// from the back forward. Returns (subtask, true) on success.
func (p *pipe) popFront() (subtask, bool) {
	writeIndex := p.write.Load()
	front := writeIndex

	for {
		// num uses the fixed writeIndex snapshot taken above, re-evaluated
		// only against a fresh readCount each pass — not the decrementing
		// front cursor, which is purely a walk-back slot index.
		num := writeIndex - p.readCount.Load()
		if num == 0 || front == 0 {
			p.read.Store(p.readCount.Load())
			return subtask{}, false
		}

		front--
		i := front & p.mask
		if p.flags[i].CompareAndSwap(slotCanRead, slotInvalid) {
			out := p.buffer[i]
			p.flags[i].Store(slotCanWrite)
			p.write.Store(writeIndex - 1)
			return out, true
		}

		if p.read.Load() >= front {
			// A thief has overtaken us.
			return subtask{}, false
		}
		// retry from the recomputed num
	}
}

// popBack steals the oldest entry (FIFO) on behalf of a foreign
// worker. Returns (subtask, true) on success.
func (p *pipe) popBack() (subtask, bool) {
	toUse := p.readCount.Load()

	for {
		w := p.write.Load()
		if w-p.readCount.Load() == 0 {
			return subtask{}, false
		}
		if toUse >= w {
			toUse = p.read.Load()
		}

		i := toUse & p.mask
		if p.flags[i].CompareAndSwap(slotCanRead, slotInvalid) {
			p.readCount.Add(1) // acquire paired with the owner's release store above
			out := p.buffer[i]
			p.flags[i].Store(slotCanWrite)
			return out, true
		}

		toUse++
	}
}

// empty is a racy hint used by wait-loops: "no pending work right now."
func (p *pipe) empty() bool {
	return p.write.Load()-p.readCount.Load() == 0
}
