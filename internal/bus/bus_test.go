package bus_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/barryw/novavm/internal/bus"
)

type stubDevice struct {
	base, size uint16
	cells      map[uint16]uint8
}

func newStub(base, size uint16) *stubDevice {
	return &stubDevice{base: base, size: size, cells: map[uint16]uint8{}}
}

func (s *stubDevice) Name() string          { return "stub" }
func (s *stubDevice) Owns(a uint16) bool    { return a >= s.base && a < s.base+s.size }
func (s *stubDevice) Read(a uint16) uint8   { return s.cells[a] }
func (s *stubDevice) Write(a uint16, v uint8) { s.cells[a] = v }

func TestFirstMatchWinsOnOverlap(t *testing.T) {
	ram := bus.NewRAM()
	var basicROM, nativeROM [bus.ROMSize]uint8
	rom := bus.NewROM(basicROM, nativeROM)
	specific := newStub(0xA000, 0x10)
	b := bus.New(ram, rom, specific)

	b.Write(0xA000, 0x42)
	assert.Equal(t, uint8(0x42), b.Read(0xA000))
	// RAM must not see this write: it's shadowed by the specific device.
	assert.Equal(t, uint8(0), ram.Read(0xA000))
}

func TestROMWritesSilentlyDroppedExceptSwap(t *testing.T) {
	ram := bus.NewRAM()
	var basicROM, nativeROM [bus.ROMSize]uint8
	basicROM[0] = 0xAA
	nativeROM[0] = 0xBB
	rom := bus.NewROM(basicROM, nativeROM)
	b := bus.New(ram, rom)

	b.Write(bus.ROMBase, 0xFF)
	assert.Equal(t, uint8(0xAA), b.Read(bus.ROMBase))

	swapped := false
	rom.OnSwap(func(img uint8) { swapped = true })

	b.Write(bus.ROMSwapRegister, bus.ROMImageNativeC)
	assert.True(t, swapped)
	assert.Equal(t, uint8(0xBB), b.Read(bus.ROMBase))

	swapped = false
	b.Write(bus.ROMSwapRegister, bus.ROMImageNativeC)
	assert.False(t, swapped, "switching to the already-active image fires no notification")
}

func TestVectorTableRoundTrip(t *testing.T) {
	ram := bus.NewRAM()
	var basicROM, nativeROM [bus.ROMSize]uint8
	rom := bus.NewROM(basicROM, nativeROM)
	b := bus.New(ram, rom)
	b.WriteVectorTable(bus.VectorTableEntry{Offset: bus.VectorTableBase, Value: 0xA000})
	assert.Equal(t, uint16(0xA000), b.Read16(bus.VectorTableBase))
}
