package braidsched

// ProfileHooks holds four optional, hot-path callback slots. Each is
// invoked directly and synchronously — no goroutine, no allocation —
// from inside the scheduler loop, so implementations must be
// reentrant-safe and must never block.
//
// This is deliberately not built on the hookz-based Observability
// stack (see observability.go): hookz dispatches through a registered
// handler slice behind a mutex, sized for low/medium-frequency
// application events, not a per-subtask hot path. Wiring it here would
// put a mutex acquisition and an interface-shaped event allocation in
// front of every single Exec call, which spec section 4.6's zero-
// overhead contract for these four slots rules out.
type ProfileHooks struct {
	// OnThreadStart fires once, just before a worker enters its loop.
	OnThreadStart func(userdata any, workerID int)
	// OnThreadStop fires once, just after a worker exits its loop.
	OnThreadStop func(userdata any, workerID int)
	// OnWaitBegin fires when a worker is about to park on the
	// semaphore (after the non-blocking work recheck has failed).
	OnWaitBegin func(userdata any, workerID int)
	// OnWaitEnd fires immediately after a parked worker wakes.
	OnWaitEnd func(userdata any, workerID int)
}

func (h *ProfileHooks) threadStart(userdata any, workerID int) {
	if h != nil && h.OnThreadStart != nil {
		h.OnThreadStart(userdata, workerID)
	}
}

func (h *ProfileHooks) threadStop(userdata any, workerID int) {
	if h != nil && h.OnThreadStop != nil {
		h.OnThreadStop(userdata, workerID)
	}
}

func (h *ProfileHooks) waitBegin(userdata any, workerID int) {
	if h != nil && h.OnWaitBegin != nil {
		h.OnWaitBegin(userdata, workerID)
	}
}

func (h *ProfileHooks) waitEnd(userdata any, workerID int) {
	if h != nil && h.OnWaitEnd != nil {
		h.OnWaitEnd(userdata, workerID)
	}
}
