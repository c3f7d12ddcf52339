package timer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/barryw/novavm/internal/timer"
)

func TestDisabledTimerDoesNotTick(t *testing.T) {
	tm := timer.New(0xA300)
	tm.Write(0xA300+timer.RegDivisorLo, 4)
	tm.AdvanceCycles(1000)
	assert.Equal(t, uint8(0), tm.Read(0xA300+timer.RegStatus))
}

func TestEnabledTimerFiresIRQOnDivisorUnderflow(t *testing.T) {
	tm := timer.New(0xA300)
	fired := 0
	tm.OnIRQ(func() { fired++ })

	tm.Write(0xA300+timer.RegDivisorLo, 2)
	tm.Write(0xA300+timer.RegDivisorHi, 0)
	tm.Write(0xA300+timer.RegControl, timer.ControlEnable)

	// Each tick is TickQuantum cycles; divisor 2 means an IRQ every
	// 2 ticks, i.e. every 2*TickQuantum cycles.
	tm.AdvanceCycles(timer.TickQuantum * 2)

	assert.Equal(t, 1, fired)
	assert.Equal(t, uint8(timer.StatusPending), tm.Read(0xA300+timer.RegStatus))
}

func TestStatusReadClearsPendingLatch(t *testing.T) {
	tm := timer.New(0xA300)
	tm.Write(0xA300+timer.RegDivisorLo, 1)
	tm.Write(0xA300+timer.RegControl, timer.ControlEnable)
	tm.AdvanceCycles(timer.TickQuantum)

	first := tm.Read(0xA300 + timer.RegStatus)
	second := tm.Read(0xA300 + timer.RegStatus)
	assert.Equal(t, uint8(timer.StatusPending), first)
	assert.Equal(t, uint8(0), second)
}

func TestWritingZeroToControlResetsCounterAndAccumulator(t *testing.T) {
	tm := timer.New(0xA300)
	fired := 0
	tm.OnIRQ(func() { fired++ })

	tm.Write(0xA300+timer.RegDivisorLo, 3)
	tm.Write(0xA300+timer.RegControl, timer.ControlEnable)
	tm.AdvanceCycles(timer.TickQuantum) // one tick in, not yet underflowed

	tm.Write(0xA300+timer.RegControl, 0)
	tm.Write(0xA300+timer.RegControl, timer.ControlEnable)

	// After the reset this is only 2 ticks into a divisor of 3, so it
	// hasn't fired yet; without the reset it would be the third tick.
	tm.AdvanceCycles(timer.TickQuantum * 2)
	assert.Equal(t, 0, fired)
	tm.AdvanceCycles(timer.TickQuantum)
	assert.Equal(t, 1, fired)
}

func TestFractionalCyclesCarryAcrossAdvanceCalls(t *testing.T) {
	tm := timer.New(0xA300)
	fired := 0
	tm.OnIRQ(func() { fired++ })

	tm.Write(0xA300+timer.RegDivisorLo, 1)
	tm.Write(0xA300+timer.RegControl, timer.ControlEnable)

	tm.AdvanceCycles(timer.TickQuantum - 1)
	assert.Equal(t, 0, fired)
	tm.AdvanceCycles(1)
	assert.Equal(t, 1, fired)
}
