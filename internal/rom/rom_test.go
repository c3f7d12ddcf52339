package rom

import (
	"testing"

	"github.com/barryw/novavm/internal/bus"
	"github.com/barryw/novavm/internal/cpu"
)

func TestAssemblerResolvesAbsoluteAndRelativeFixups(t *testing.T) {
	a := NewAssembler(0xC000)
	a.absLabel(opJMPAbs, "target")
	a.Label("skip")
	a.branch(opBEQ, "skip")
	a.Label("target")
	a.Emit(opRTS)

	if err := a.Resolve(); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	code := a.Bytes()
	if code[1] != 0x05 || code[2] != 0xC0 {
		t.Fatalf("JMP operand = %02X%02X, want little-endian 0xC005", code[2], code[1])
	}
	if code[4] != 0xFE {
		t.Fatalf("backward-branch operand = %02X, want 0xFE (-2)", code[4])
	}
}

func TestAssemblerResolveFailsOnUndefinedLabel(t *testing.T) {
	a := NewAssembler(0xC000)
	a.absLabel(opJMPAbs, "nowhere")
	if err := a.Resolve(); err == nil {
		t.Fatal("Resolve: expected error for undefined label")
	}
}

func testDevices() DeviceAddresses {
	return DeviceAddresses{VGCBase: 0xD000, SIDBase: 0xD400, FIOBase: 0xD800}
}

func TestBuildPlacesJumpTableAtFixedAddresses(t *testing.T) {
	img, err := Build(testDevices())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for i := range jumpTableSlots {
		opcode := img[i*3]
		if opcode != opJMPAbs {
			t.Fatalf("slot %d opcode = %02X, want JMP (%02X)", i, opcode, opJMPAbs)
		}
	}
}

func TestBuildWritesResetVectorIntoLastSixBytes(t *testing.T) {
	img, err := Build(testDevices())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	lo := img[bus.ROMSize-4]
	hi := img[bus.ROMSize-3]
	resetAddr := uint16(lo) | uint16(hi)<<8
	if resetAddr < bus.ROMBase || resetAddr > bus.ROMEnd {
		t.Fatalf("reset vector = %04X, want within ROM window", resetAddr)
	}
	nmiLo, nmiHi := img[bus.ROMSize-6], img[bus.ROMSize-5]
	if nmiLo != lo || nmiHi != hi {
		t.Fatalf("NMI vector does not match reset vector")
	}
}

// harness wires an assembled ROM image into a minimal flat-address-space
// memory so the existing CPU core can execute jump-table helpers directly.
type harness struct {
	ram [0x10000]uint8
}

func newHarness(img [bus.ROMSize]uint8) *harness {
	h := &harness{}
	copy(h.ram[bus.ROMBase:], img[:])
	return h
}

func (h *harness) Read(addr uint16) uint8        { return h.ram[addr] }
func (h *harness) Write(addr uint16, value uint8) { h.ram[addr] = value }

func slotAddress(index int) uint16 { return bus.ROMBase + uint16(index*3) }

func jumpTableIndex(name string) int {
	for i, slot := range jumpTableSlots {
		if slot == name {
			return i
		}
	}
	panic("unknown slot: " + name)
}

func runToRTS(t *testing.T, c *cpu.CPU, entry uint16, budget int) {
	t.Helper()
	c.State.PC = entry
	// Runs until the PC lands on an RTS byte rather than executing it, since
	// there is no caller frame on the stack for RTS to return into; by then
	// every side effect the routine produces has already happened.
	for i := 0; i < budget; i++ {
		if c.Mem.Read(c.State.PC) == opRTS {
			return
		}
		c.ExecuteNext()
	}
	t.Fatalf("routine at %04X did not reach RTS within %d steps", entry, budget)
}

func TestMulByteHelperComputesProduct(t *testing.T) {
	img, err := Build(testDevices())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	h := newHarness(img)
	c := cpu.NewCPU(h, cpu.CMOS)
	c.State.A = 6
	c.State.X = 7
	runToRTS(t, c, slotAddress(jumpTableIndex("mul-byte")), 500)
	if c.State.A != 42 {
		t.Fatalf("mul-byte A = %d, want 42", c.State.A)
	}
}

func TestDivByteHelperComputesQuotientAndRemainder(t *testing.T) {
	img, err := Build(testDevices())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	h := newHarness(img)
	c := cpu.NewCPU(h, cpu.CMOS)
	c.State.A = 17
	c.State.X = 5
	runToRTS(t, c, slotAddress(jumpTableIndex("div-byte")), 500)
	if c.State.A != 3 || c.State.X != 2 {
		t.Fatalf("div-byte A,X = %d,%d, want 3,2", c.State.A, c.State.X)
	}
}

func TestMulIntHelperTruncatesTo16Bits(t *testing.T) {
	img, err := Build(testDevices())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	h := newHarness(img)
	c := cpu.NewCPU(h, cpu.CMOS)
	h.Write(zpArg0, 0x00)
	h.Write(zpArg0Hi, 0x01) // 256
	h.Write(zpArg1, 0x00)
	h.Write(zpArg1Hi, 0x01) // 256 * 256 = 65536, truncates to 0
	runToRTS(t, c, slotAddress(jumpTableIndex("mul-int")), 2000)
	if c.State.A != 0 || c.State.X != 0 {
		t.Fatalf("mul-int A,X = %d,%d, want 0,0 (truncated)", c.State.A, c.State.X)
	}
}

func TestDivIntHelperComputesQuotientAndRemainder(t *testing.T) {
	img, err := Build(testDevices())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	h := newHarness(img)
	c := cpu.NewCPU(h, cpu.CMOS)
	h.Write(zpArg0, 100)
	h.Write(zpArg0Hi, 0)
	h.Write(zpArg1, 7)
	h.Write(zpArg1Hi, 0)
	runToRTS(t, c, slotAddress(jumpTableIndex("div-int")), 2000)
	quotient := uint16(c.State.A) | uint16(c.State.X)<<8
	remainder := uint16(h.Read(zpRemLo)) | uint16(h.Read(zpRemHi))<<8
	if quotient != 14 || remainder != 2 {
		t.Fatalf("div-int = %d rem %d, want 14 rem 2", quotient, remainder)
	}
}

func TestSpriteCmdAndFixupAliasesShareHelperAddresses(t *testing.T) {
	if helperLabel["sprite-cmd"] != helperLabel["gfx-cmd"] {
		t.Fatal("sprite-cmd should resolve to the same routine as gfx-cmd")
	}
	if helperLabel["fixed-mul"] != helperLabel["mul-int"] {
		t.Fatal("fixed-mul should resolve to mul-int")
	}
	if helperLabel["fixed-div"] != helperLabel["div-int"] {
		t.Fatal("fixed-div should resolve to div-int")
	}
}

func TestEveryJumpTableSlotHasAHelperTarget(t *testing.T) {
	for _, slot := range jumpTableSlots {
		if _, ok := helperLabel[slot]; !ok {
			t.Fatalf("slot %q has no helperLabel entry", slot)
		}
	}
}
