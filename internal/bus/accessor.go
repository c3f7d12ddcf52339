package bus

import "github.com/barryw/novavm/internal/memspace"

// RAMAccessor adapts the bus's RAM+ROM pair to the memspace.Accessor
// contract so the DMA engine and blitter can target "cpu-ram" as one of
// their space tags. Writes into the ROM window are rejected rather than
// silently dropped, because DMA/blitter must surface write-protected as an
// explicit error, unlike ordinary CPU-issued bus writes.
type RAMAccessor struct {
	ram *RAM
	rom *ROM
}

func NewRAMAccessor(ram *RAM, rom *ROM) *RAMAccessor {
	return &RAMAccessor{ram: ram, rom: rom}
}

func (a *RAMAccessor) Owns(tag memspace.Tag) bool { return tag == memspace.CPURAM }

func (a *RAMAccessor) ReadAt(tag memspace.Tag, addr uint32) (uint8, bool) {
	if tag != memspace.CPURAM || addr > 0xFFFF {
		return 0, false
	}
	a16 := uint16(addr)
	if a.rom.Owns(a16) {
		return a.rom.Read(a16), true
	}
	return a.ram.Read(a16), true
}

func (a *RAMAccessor) WriteAt(tag memspace.Tag, addr uint32, v uint8) bool {
	if tag != memspace.CPURAM || addr > 0xFFFF {
		return false
	}
	a16 := uint16(addr)
	if a.rom.Owns(a16) {
		return false
	}
	a.ram.Write(a16, v)
	return true
}
