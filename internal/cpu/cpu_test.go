package cpu_test

import (
	"testing"

	"github.com/go-test/deep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barryw/novavm/internal/cpu"
)

type flatMem struct {
	ram [65536]uint8
}

func (m *flatMem) Read(addr uint16) uint8       { return m.ram[addr] }
func (m *flatMem) Write(addr uint16, v uint8)   { m.ram[addr] = v }

func newCPU(program []uint8, entry uint16) (*cpu.CPU, *flatMem) {
	mem := &flatMem{}
	copy(mem.ram[entry:], program)
	c := cpu.NewCPU(mem, cpu.NMOS)
	c.Boot(&entry)
	return c, mem
}

func TestLDAImmediateSetsFlags(t *testing.T) {
	c, _ := newCPU([]uint8{0xA9, 0x00}, 0x0400)
	cycles := c.ExecuteNext()
	assert.Equal(t, 2, cycles)
	assert.Equal(t, uint8(0), c.State.A)
	assert.True(t, c.State.GetFlag(cpu.FlagZ))
	assert.False(t, c.State.GetFlag(cpu.FlagN))
}

func TestADCBinaryCarryAndOverflow(t *testing.T) {
	c, _ := newCPU([]uint8{0xA9, 0x7F, 0x69, 0x01}, 0x0400)
	c.ExecuteNext() // LDA #$7F
	c.ExecuteNext() // ADC #$01 -> overflow (pos+pos=neg)
	assert.Equal(t, uint8(0x80), c.State.A)
	assert.True(t, c.State.GetFlag(cpu.FlagV))
	assert.True(t, c.State.GetFlag(cpu.FlagN))
}

func TestADCDecimalMode(t *testing.T) {
	c, _ := newCPU([]uint8{0xF8, 0xA9, 0x09, 0x69, 0x01}, 0x0400)
	c.ExecuteNext() // SED
	c.ExecuteNext() // LDA #$09
	c.ExecuteNext() // ADC #$01 -> BCD 10
	assert.Equal(t, uint8(0x10), c.State.A)
}

func TestBranchTakenAndPageCrossCycles(t *testing.T) {
	// LDA #$01 clears Z, so the BNE is taken and branches backward across a page.
	prog := make([]uint8, 0x100)
	prog[0] = 0xA9 // LDA #$01
	prog[1] = 0x01
	prog[2] = 0xD0 // BNE -5: from 0x0404 back to 0x03FF, into the previous page
	prog[3] = 0xFB
	mem := &flatMem{}
	copy(mem.ram[0x0400:], prog)
	c := cpu.NewCPU(mem, cpu.NMOS)
	entry := uint16(0x0400)
	c.Boot(&entry)
	c.ExecuteNext()
	cycles := c.ExecuteNext()
	assert.GreaterOrEqual(t, cycles, 3)
}

func TestJSRRTSRoundTrip(t *testing.T) {
	mem := &flatMem{}
	// JSR $0410 ; at 0410: LDA #$42 ; RTS
	mem.ram[0x0400] = 0x20
	mem.ram[0x0401] = 0x10
	mem.ram[0x0402] = 0x04
	mem.ram[0x0410] = 0xA9
	mem.ram[0x0411] = 0x42
	mem.ram[0x0412] = 0x60
	c := cpu.NewCPU(mem, cpu.NMOS)
	entry := uint16(0x0400)
	c.Boot(&entry)
	c.ExecuteNext() // JSR
	require.Equal(t, uint16(0x0410), c.State.PC)
	c.ExecuteNext() // LDA #$42
	c.ExecuteNext() // RTS
	assert.Equal(t, uint16(0x0403), c.State.PC)
	assert.Equal(t, uint8(0x42), c.State.A)
}

func TestNMIPushesPCAndFlags(t *testing.T) {
	mem := &flatMem{}
	mem.ram[0xFFFA] = 0x00
	mem.ram[0xFFFB] = 0x08
	mem.ram[0x0800] = 0xEA // NOP at NMI vector
	c := cpu.NewCPU(mem, cpu.NMOS)
	entry := uint16(0x0400)
	c.Boot(&entry)
	c.TriggerNMI()
	cycles := c.ExecuteNext()
	assert.Equal(t, 7, cycles)
	assert.Equal(t, uint16(0x0800), c.State.PC)
	assert.False(t, c.NMIPending)
}

func TestHaltsOnJumpToSelf(t *testing.T) {
	mem := &flatMem{}
	mem.ram[0x0400] = 0x4C // JMP $0400
	mem.ram[0x0401] = 0x00
	mem.ram[0x0402] = 0x04
	c := cpu.NewCPU(mem, cpu.NMOS)
	entry := uint16(0x0400)
	c.Boot(&entry)
	c.ExecuteNext()
	assert.True(t, c.Halted())
	cycles := c.ExecuteNext()
	assert.Equal(t, 0, cycles)
}

func TestCMOSJMPIndirectPageBugFixed(t *testing.T) {
	mem := &flatMem{}
	mem.ram[0x02FF] = 0x00
	mem.ram[0x0300] = 0x06 // CMOS reads the high byte here; NMOS would wrap to 0x0200 (bug)
	mem.ram[0x03FF] = 0x34
	mem.ram[0x0400] = 0x6C // JMP ($02FF)
	mem.ram[0x0401] = 0xFF
	mem.ram[0x0402] = 0x02
	cmos := cpu.NewCPU(mem, cpu.CMOS)
	entry := uint16(0x0400)
	cmos.Boot(&entry)
	cmos.ExecuteNext()
	assert.Equal(t, uint16(0x0600), cmos.State.PC)
}

func TestStateDiffHelper(t *testing.T) {
	a := cpu.NewState()
	b := cpu.NewState()
	if diff := deep.Equal(a, b); diff != nil {
		t.Fatalf("expected equal fresh states, diff: %v", diff)
	}
}
