package machine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/barryw/novavm/internal/bus"
	"github.com/barryw/novavm/internal/config"
	"github.com/barryw/novavm/internal/machine"
)

func haltingROM(entry uint16) [bus.ROMSize]uint8 {
	var rom [bus.ROMSize]uint8
	idx := entry - bus.ROMBase
	rom[idx] = 0x4C // JMP absolute
	rom[idx+1] = uint8(entry)
	rom[idx+2] = uint8(entry >> 8)

	resetOff := uint16(0xFFFC) - bus.ROMBase
	rom[resetOff] = uint8(entry)
	rom[resetOff+1] = uint8(entry >> 8)
	return rom
}

func TestBootAndRunHaltsOnJumpToSelf(t *testing.T) {
	cfg := config.Default()
	cfg.Devices.XRAMSize = 1024
	rom := haltingROM(0xC000)
	clock := int64(0)
	m := machine.New(cfg, rom, rom, func() int64 { return clock })

	m.Boot(nil)
	assert.False(t, m.CPU.Halted())

	clock += 1_000_000_000 // first TakeCycleBudget call returns 0 regardless
	m.Run(nil)
	clock += 1_000_000_000
	m.Run(nil)

	assert.True(t, m.CPU.Halted())
}

func TestDeviceBaseAddressesRouteThroughBus(t *testing.T) {
	cfg := config.Default()
	cfg.Devices.XRAMSize = 1024
	rom := haltingROM(0xC000)
	m := machine.New(cfg, rom, rom, func() int64 { return 0 })

	m.Bus.Write(cfg.Devices.TimerBase, 0x05)
	assert.Equal(t, uint8(0x05), m.Timer.Read(cfg.Devices.TimerBase))
}
