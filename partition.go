package braidsched

// splitRange carves the head [s, s+g) off of [s, e), where g is grain
// clamped to the remaining length, and returns the head and the
// remainder [s+g, e). Callers must only invoke this with e > s.
func splitRange(s, e, grain int64) (headStart, headEnd, restStart, restEnd int64) {
	remaining := e - s
	g := minI64(grain, remaining)
	if g < 1 {
		g = 1
	}
	return s, s + g, s + g, e
}

// partitionsNum is the steal-time re-split divisor: T*(T-1) with more
// than one thread, else 1 (a single-threaded scheduler never steals).
func partitionsNum(threadCount int) int64 {
	if threadCount > 1 {
		return int64(threadCount) * int64(threadCount-1)
	}
	return 1
}

// partitionsInitNum is the enqueue-time divisor: min(T-1, maxInitial)
// with more than one thread, else 1.
func partitionsInitNum(threadCount, maxInitial int) int64 {
	if threadCount > 1 {
		return minI64(int64(threadCount-1), int64(maxInitial))
	}
	return 1
}
