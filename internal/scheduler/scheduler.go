// Package scheduler converts wall-clock time into a CPU cycle budget for
// the main emulation loop. It uses a fractional-remainder accumulator to
// convert wall-clock time to cycles without losing the leftover fraction
// between calls.
package scheduler

// Scheduler owns the running cycle counter; it is not safe for concurrent
// use and must be driven from the single-threaded emulation loop.
type Scheduler struct {
	frequency uint64 // cycles per second

	now func() int64 // nanoseconds; injectable for deterministic tests

	lastNanos   int64
	started     bool
	remainder   uint64 // fractional nanoseconds carried to the next call
	backlogCap  uint64 // maximum cycles a single call may report
}

const defaultBacklogCap = 1_000_000

// New builds a Scheduler running at the given cycle frequency, using the
// provided nanosecond clock function.
func New(frequency uint64, now func() int64) *Scheduler {
	return &Scheduler{frequency: frequency, now: now, backlogCap: defaultBacklogCap}
}

// SetBacklogCap bounds how many cycles TakeCycleBudget can report for a
// single call, so a long pause (debugger breakpoint, host stall) doesn't
// ask the CPU loop to execute an enormous catch-up burst.
func (s *Scheduler) SetBacklogCap(cycles uint64) { s.backlogCap = cycles }

// TakeCycleBudget returns how many cycles have elapsed (in wall-clock
// terms) since the previous call, clamped to max when non-nil and to the
// backlog cap. The first call always returns zero, since there is no prior
// timestamp to measure from.
func (s *Scheduler) TakeCycleBudget(max *uint64) uint64 {
	nowNanos := s.now()
	if !s.started {
		s.started = true
		s.lastNanos = nowNanos
		return 0
	}

	elapsedNanos := uint64(nowNanos - s.lastNanos)
	s.lastNanos = nowNanos

	total := elapsedNanos*s.frequency + s.remainder
	cycles := total / 1_000_000_000
	s.remainder = total % 1_000_000_000

	if cycles > s.backlogCap {
		cycles = s.backlogCap
		s.remainder = 0
	}
	if max != nil && cycles > *max {
		cycles = *max
	}
	return cycles
}

// Reset clears accumulated state so the next TakeCycleBudget call behaves
// like the first one ever made.
func (s *Scheduler) Reset() {
	s.started = false
	s.remainder = 0
	s.lastNanos = 0
}
