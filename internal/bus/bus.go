// Package bus implements the address-decoding fabric: an ordered list of
// devices, each owning a sub-range of the flat 64Ki address space, with
// first-match-wins resolution and ROM write-protection.
package bus

// Device is the capability set every bus-attached component implements.
// Design Notes §9: "Polymorphism in the device list is a capability set
// {owns, read, write}; implement as an interface/trait" rather than a class
// hierarchy.
type Device interface {
	Name() string
	Owns(addr uint16) bool
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
}

// Memory map constants. Not part of spec.md's prose (which leaves exact
// addresses to the implementation) but fixed here so every device and the
// vector table agree on one layout.
const (
	ZeroPageBase = 0x0000
	StackBase    = 0x0100
	RAMBase      = 0x0000
	RAMEnd       = 0xBFFF

	VectorTableBase = 0x00F0 // six 2-byte pointers, see WriteVectorTable

	ROMBase = 0xC000
	ROMSize = 0x4000
	ROMEnd  = 0xFFFF

	// ROMSwapRegister is the single writable address inside the ROM
	// window. Writing 0x01 selects the BASIC ROM image, 0x02 the
	// native-C image; other values are no-ops, and writing the
	// already-active image is a no-op that fires no notification.
	ROMSwapRegister = 0xFFF8

	ROMImageBASIC   uint8 = 0x01
	ROMImageNativeC uint8 = 0x02
)

// Bus routes every CPU-visible read/write to the owning device.
type Bus struct {
	devices []Device
	ram     *RAM
	rom     *ROM
}

// New builds a bus with devices consulted in the given order (most specific
// first) before falling back to RAM, then ROM.
func New(ram *RAM, rom *ROM, devices ...Device) *Bus {
	b := &Bus{ram: ram, rom: rom}
	b.devices = append(b.devices, devices...)
	b.devices = append(b.devices, ram, rom)
	b.WriteVectorTable()
	return b
}

func (b *Bus) Read(addr uint16) uint8 {
	for _, d := range b.devices {
		if d.Owns(addr) {
			return d.Read(addr)
		}
	}
	return 0
}

func (b *Bus) Write(addr uint16, value uint8) {
	for _, d := range b.devices {
		if d.Owns(addr) {
			d.Write(addr, value)
			return
		}
	}
}

func (b *Bus) Read16(addr uint16) uint16 {
	return uint16(b.Read(addr)) | uint16(b.Read(addr+1))<<8
}

func (b *Bus) Write16(addr uint16, v uint16) {
	b.Write(addr, uint8(v))
	b.Write(addr+1, uint8(v>>8))
}

func (b *Bus) ROM() *ROM { return b.rom }

// VectorTableEntry identifies one discoverable base address written into
// the zero-page vector table at boot, so machine-language programs can find
// devices without hard-coded magic constants.
type VectorTableEntry struct {
	Offset uint16
	Value  uint16
}

// WriteVectorTable stamps the given device-discovery pointers into RAM, each
// as a little-endian word at its Offset; it writes only the entries passed
// in. Callers that change a device's base address after construction should
// call this again.
func (b *Bus) WriteVectorTable(extra ...VectorTableEntry) {
	for _, e := range extra {
		b.ram.WriteRaw(e.Offset, uint8(e.Value))
		b.ram.WriteRaw(e.Offset+1, uint8(e.Value>>8))
	}
}
