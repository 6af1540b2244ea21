package braidsched

import (
	"fmt"
	"runtime"

	"github.com/zoobzio/clockz"
)

// Default configuration constants, matching the reference scheduler.
const (
	DefaultPipeSizeLog2          = 8
	DefaultSpinCountMax          = 100
	DefaultSpinBackoffMul        = 10
	DefaultMaxInitialPartitions  = 8
	maxPipeSizeLog2              = 31 // must stay < 32 so capacity fits a uint32 index
)

// Config configures a Scheduler. Zero-value fields are replaced with
// their documented defaults by Init.
type Config struct {
	// ThreadCount is the number of worker goroutines, including the
	// caller's own "main" worker at index 0. Zero selects
	// runtime.GOMAXPROCS(0) (adjusted for container CPU quotas via the
	// automaxprocs import in this package's init).
	ThreadCount int

	// PipeSizeLog2 sets each pipe's capacity to 2^(PipeSizeLog2+1).
	// Must be less than 32. Zero selects DefaultPipeSizeLog2.
	PipeSizeLog2 uint

	// SpinCountMax is the number of consecutive empty try_run_one
	// passes before a worker parks. Zero selects DefaultSpinCountMax.
	SpinCountMax int

	// SpinBackoffMul scales the pause between spin attempts. Zero
	// selects DefaultSpinBackoffMul.
	SpinBackoffMul int

	// MaxInitialPartitions bounds the enqueue-time partition divisor.
	// Zero selects DefaultMaxInitialPartitions.
	MaxInitialPartitions int

	// Profiling, if non-nil, receives the four hot-path callbacks.
	Profiling *ProfileHooks

	// ProfilingUserData is passed back as the first argument to every
	// ProfileHooks callback.
	ProfilingUserData any

	// Logger receives setup/teardown/error diagnostics. Nil installs a
	// no-op logger.
	Logger Logger

	// Observability, if non-nil, receives coarse-grained lifecycle
	// signals (start, stop, overflow, wait) through hooks/metrics/
	// traces. Nil disables it entirely (zero cost).
	Observability *Observability

	// Clock sources time for the spin/backoff loop. Nil selects
	// clockz.RealClock.
	Clock clockz.Clock
}

func (c Config) normalize() (Config, error) {
	out := c

	if out.ThreadCount == 0 {
		out.ThreadCount = runtime.GOMAXPROCS(0)
	}
	if out.ThreadCount <= 0 {
		return Config{}, fmt.Errorf("%w: thread count must be positive, got %d", ErrConfiguration, out.ThreadCount)
	}

	if out.PipeSizeLog2 == 0 {
		out.PipeSizeLog2 = DefaultPipeSizeLog2
	}
	if out.PipeSizeLog2 >= maxPipeSizeLog2+1 {
		return Config{}, fmt.Errorf("%w: PipeSizeLog2 must be < 32, got %d", ErrConfiguration, out.PipeSizeLog2)
	}

	if out.SpinCountMax == 0 {
		out.SpinCountMax = DefaultSpinCountMax
	}
	if out.SpinCountMax < 0 {
		return Config{}, fmt.Errorf("%w: SpinCountMax must be >= 0, got %d", ErrConfiguration, out.SpinCountMax)
	}

	if out.SpinBackoffMul == 0 {
		out.SpinBackoffMul = DefaultSpinBackoffMul
	}

	if out.MaxInitialPartitions == 0 {
		out.MaxInitialPartitions = DefaultMaxInitialPartitions
	}
	if out.MaxInitialPartitions < 1 {
		return Config{}, fmt.Errorf("%w: MaxInitialPartitions must be >= 1, got %d", ErrConfiguration, out.MaxInitialPartitions)
	}

	if out.Logger == nil {
		out.Logger = noopLogger{}
	}

	if out.Clock == nil {
		out.Clock = clockz.RealClock
	}

	return out, nil
}
