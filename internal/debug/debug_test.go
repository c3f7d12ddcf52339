package debug_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/barryw/novavm/internal/cpu"
	"github.com/barryw/novavm/internal/debug"
)

func TestLoggerDropsDisabledComponents(t *testing.T) {
	l := debug.NewLogger(100)
	defer l.Shutdown()

	l.LogCPU(debug.LogLevelInfo, "should be dropped", nil)
	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, l.GetEntries())
}

func TestLoggerRecordsEnabledComponentAboveMinLevel(t *testing.T) {
	l := debug.NewLogger(100)
	defer l.Shutdown()

	l.SetComponentEnabled(debug.ComponentSID, true)
	l.SetMinLevel(debug.LogLevelDebug)
	l.LogSIDf(debug.LogLevelDebug, "voice %d gate up", 2)

	assert.Eventually(t, func() bool {
		return len(l.GetEntries()) == 1
	}, time.Second, time.Millisecond)

	entries := l.GetEntries()
	assert.Equal(t, debug.ComponentSID, entries[0].Component)
	assert.Equal(t, "voice 2 gate up", entries[0].Message)
}

func TestLoggerRecentEntriesReturnsTail(t *testing.T) {
	l := debug.NewLogger(100)
	defer l.Shutdown()
	l.SetComponentEnabled(debug.ComponentSystem, true)

	for i := 0; i < 5; i++ {
		l.LogSystem(debug.LogLevelInfo, "tick", nil)
	}
	assert.Eventually(t, func() bool {
		return len(l.GetEntries()) == 5
	}, time.Second, time.Millisecond)

	assert.Len(t, l.GetRecentEntries(2), 2)
}

func TestDebuggerBreakpointHitCount(t *testing.T) {
	d := debug.NewDebugger()
	key := d.SetBreakpoint(0xC000)

	assert.True(t, d.ShouldBreak(0xC000))
	assert.False(t, d.ShouldBreak(0xC001))

	bp, ok := d.GetBreakpoint(key)
	assert.True(t, ok)
	assert.Equal(t, 1, bp.HitCount)
}

func TestDebuggerStepModeBreaksForCountThenStops(t *testing.T) {
	d := debug.NewDebugger()
	d.Step(2)

	assert.True(t, d.ShouldBreak(0x1000))
	assert.True(t, d.ShouldBreak(0x1001))
	assert.True(t, d.IsPaused())
	assert.False(t, d.ShouldBreak(0x1002))
}

func TestDebuggerCallStackPushPop(t *testing.T) {
	d := debug.NewDebugger()
	d.PushCallFrame(0x0800, "main")
	d.PushCallFrame(0x0900, "draw_sprite")

	frame := d.PopCallFrame()
	assert.Equal(t, "draw_sprite", frame.FunctionName)
	assert.Len(t, d.GetCallStack(), 1)
}

type fakeBus struct{ cells [65536]uint8 }

func (b *fakeBus) Read(addr uint16) uint8 { return b.cells[addr] }

func TestCycleLoggerWritesWatchedAddresses(t *testing.T) {
	path := t.TempDir() + "/cycles.log"
	bus := &fakeBus{}
	bus.cells[0xA01C] = 0x42 // VGC raster line register

	cl, err := debug.NewCycleLogger(path, 0, 0, bus, debug.WatchedAddresses{"raster": 0xA01C})
	assert.NoError(t, err)

	cl.LogCycle(cpu.State{PC: 0xC000, A: 1, X: 2, Y: 3, SP: 0xFD, P: 0x24})
	assert.NoError(t, cl.Close())

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Contains(t, string(data), "raster:42")
	assert.Contains(t, string(data), "PC:C000")
}

func TestCycleLoggerStopsAfterMaxCycles(t *testing.T) {
	path := t.TempDir() + "/cycles.log"
	cl, err := debug.NewCycleLogger(path, 1, 0, nil, nil)
	assert.NoError(t, err)

	cl.LogCycle(cpu.State{})
	_, current, _, _ := cl.GetStatus()
	assert.Equal(t, uint64(1), current)

	cl.LogCycle(cpu.State{})
	assert.False(t, cl.IsEnabled())
	assert.NoError(t, cl.Close())
}
