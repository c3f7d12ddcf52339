package scheduler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/barryw/novavm/internal/scheduler"
)

func TestFirstCallReturnsZero(t *testing.T) {
	clock := int64(0)
	s := scheduler.New(1_000_000, func() int64 { return clock })
	assert.Equal(t, uint64(0), s.TakeCycleBudget(nil))
}

func TestSubsequentCallReturnsElapsedCycles(t *testing.T) {
	clock := int64(0)
	s := scheduler.New(1_000_000, func() int64 { return clock })
	s.TakeCycleBudget(nil)

	clock += 1_000_000 // 1ms at 1,000,000 Hz -> 1000 cycles
	assert.Equal(t, uint64(1000), s.TakeCycleBudget(nil))
}

func TestFractionalRemainderCarriesForward(t *testing.T) {
	clock := int64(0)
	s := scheduler.New(3, func() int64 { return clock }) // 3 Hz
	s.TakeCycleBudget(nil)

	// Each step is just under one cycle, so truncating every call on its
	// own would yield 0 cycles in total. With the fractional remainder
	// carried forward, 9 steps cover just under 3 seconds (just under 9
	// cycles): the first step yields 0 and each later step yields 1.
	var total uint64
	for i := 0; i < 9; i++ {
		clock += 333_333_333 // just under a third of a second, in ns
		total += s.TakeCycleBudget(nil)
	}
	assert.Equal(t, uint64(8), total)
}

func TestMaxClampsReturnedBudget(t *testing.T) {
	clock := int64(0)
	s := scheduler.New(1_000_000, func() int64 { return clock })
	s.TakeCycleBudget(nil)
	clock += 1_000_000
	max := uint64(100)
	assert.Equal(t, uint64(100), s.TakeCycleBudget(&max))
}

func TestBacklogCapBoundsLongStalls(t *testing.T) {
	clock := int64(0)
	s := scheduler.New(1_000_000_000, func() int64 { return clock })
	s.SetBacklogCap(500)
	s.TakeCycleBudget(nil)
	clock += 1_000_000_000 // a full second of backlog at 1 GHz
	assert.Equal(t, uint64(500), s.TakeCycleBudget(nil))
}

func TestResetBehavesLikeFirstCallAgain(t *testing.T) {
	clock := int64(0)
	s := scheduler.New(1_000_000, func() int64 { return clock })
	s.TakeCycleBudget(nil)
	clock += 1_000_000
	s.TakeCycleBudget(nil)

	s.Reset()
	assert.Equal(t, uint64(0), s.TakeCycleBudget(nil))
}
