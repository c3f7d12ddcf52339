package sid_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barryw/novavm/internal/sid"
)

func TestEnvelopeReachesFullLevelDuringAttack(t *testing.T) {
	var e sid.Envelope
	e.Clock(1, true, 0x00, 0x00, 0x0F, 0x00)
	for i := 0; i < 100000 && e.Stage == sid.StageAttack; i++ {
		e.Clock(1, true, 0x00, 0x00, 0x0F, 0x00)
	}
	assert.NotEqual(t, sid.StageAttack, e.Stage)
	assert.Equal(t, uint8(0xFF), e.Level)
}

func TestEnvelopeReleasesToZeroAfterGateDrop(t *testing.T) {
	var e sid.Envelope
	for i := 0; i < 100000 && e.Level < 0xFF; i++ {
		e.Clock(1, true, 0x00, 0x00, 0x0F, 0x00)
	}
	for i := 0; i < 500000 && e.Stage != sid.StageIdle; i++ {
		e.Clock(1, false, 0x00, 0x00, 0x0F, 0x00)
	}
	assert.Equal(t, sid.StageIdle, e.Stage)
	assert.Equal(t, uint8(0), e.Level)
}

func TestChipRegisterWriteReadbackOsc3Env3(t *testing.T) {
	c := sid.New(0xD400)
	c.Write(0xD400+0x0E+sid.RegFreqLo, 0x34) // voice 3 freq lo (voice index 2)
	c.Write(0xD400+0x0E+sid.RegControl, sid.CtrlSawtooth|sid.CtrlGate)

	for i := 0; i < 10; i++ {
		c.Advance(100)
	}
	assert.NotPanics(t, func() { c.Read(0xD400 + sid.RegOsc3) })
	assert.NotPanics(t, func() { c.Read(0xD400 + sid.RegEnv3) })
	assert.NotZero(t, c.Read(0xD400+sid.RegEnv3))
}

func TestDualChipMirrorsSecondBankAboveFirst(t *testing.T) {
	d := sid.NewDual(0xD400)
	assert.True(t, d.Owns(0xD400))
	assert.True(t, d.Owns(0xD400+sid.RegWindowSize))
	assert.False(t, d.Owns(0xD400+2*sid.RegWindowSize))

	d.Write(0xD400+sid.RegModeVol, 0x0F)
	d.Write(0xD400+sid.RegWindowSize+sid.RegModeVol, 0x08)
	assert.Equal(t, uint8(0x0F), d.Left.MasterVolume())
	assert.Equal(t, uint8(0x08), d.Right.MasterVolume())
}

func buildPSID(loadAddr, initAddr, playAddr uint16, data []byte) []byte {
	buf := make([]byte, 0x7C+len(data))
	copy(buf[0:4], []byte("PSID"))
	binary.BigEndian.PutUint16(buf[4:6], 2)
	binary.BigEndian.PutUint16(buf[6:8], 0x7C)
	binary.BigEndian.PutUint16(buf[8:10], loadAddr)
	binary.BigEndian.PutUint16(buf[10:12], initAddr)
	binary.BigEndian.PutUint16(buf[12:14], playAddr)
	binary.BigEndian.PutUint16(buf[14:16], 1)
	binary.BigEndian.PutUint16(buf[16:18], 1)
	copy(buf[0x7C:], data)
	return buf
}

func TestParsePSIDWithExplicitLoadAddress(t *testing.T) {
	raw := buildPSID(0x1000, 0x1000, 0x1003, []byte{0xEA, 0xEA, 0xEA})
	m, err := sid.ParsePSID(raw)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1000), m.LoadAddress)
	assert.Equal(t, []byte{0xEA, 0xEA, 0xEA}, m.Data)
}

func TestParsePSIDLittleEndianLoadAddressEscapeHatch(t *testing.T) {
	inner := make([]byte, 2+3)
	binary.LittleEndian.PutUint16(inner[0:2], 0x2000)
	copy(inner[2:], []byte{0xEA, 0xEA, 0xEA})
	raw := buildPSID(0, 0x2000, 0x2003, inner)

	m, err := sid.ParsePSID(raw)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x2000), m.LoadAddress)
	assert.Equal(t, []byte{0xEA, 0xEA, 0xEA}, m.Data)
}

func TestRelocateShiftsInRangeOperandsAndEntryPoints(t *testing.T) {
	// JSR $1005 encoded as 0x20 0x05 0x10 followed by the target stub.
	code := []byte{0x20, 0x05, 0x10, 0xEA, 0xEA, 0x60}
	raw := buildPSID(0x1000, 0x1000, 0x1003, code)
	m, err := sid.ParsePSID(raw)
	require.NoError(t, err)

	r := sid.Relocate(m, 0x2000)
	assert.Equal(t, uint16(0x2000), r.LoadAddress)
	assert.Equal(t, uint16(0x2000), r.Header.InitAddress)
	assert.Equal(t, uint16(0x2003), r.Header.PlayAddress)

	target := binary.LittleEndian.Uint16(r.Data[1:3])
	assert.Equal(t, uint16(0x2005), target)
}

func TestRelocateRoundTripsBackToOriginalBytes(t *testing.T) {
	// JMP $1004 followed by two NOPs, LoadAddress 0x1000: the operand is
	// in range and absolute, so it is a genuine relocation candidate.
	code := []byte{0x4C, 0x04, 0x10, 0xEA, 0xEA}
	raw := buildPSID(0x1000, 0x1000, 0x1003, code)
	m, err := sid.ParsePSID(raw)
	require.NoError(t, err)

	there := sid.Relocate(m, 0x2000)
	back := sid.Relocate(there, 0x1000)

	assert.Equal(t, m.Data, back.Data)
	assert.Equal(t, m.LoadAddress, back.LoadAddress)
	assert.Equal(t, m.Header.InitAddress, back.Header.InitAddress)
	assert.Equal(t, m.Header.PlayAddress, back.Header.PlayAddress)
}

func TestRelocateDoesNotCorruptAdjacentOverlappingCandidate(t *testing.T) {
	// ORA $10 (zero-page) followed by BPL with a zero offset: a byte-at-a-
	// time scanner ignoring opcode boundaries would read the window
	// starting at offset 0 as the word 0x1005 (in range for a 0x1000 load
	// address spanning 32 bytes) and shift it, which then corrupts the
	// overlapping window at offset 1 that a correct decoder never visits
	// in the first place because it belongs to the middle of ORA's own
	// operand byte, not a second instruction.
	data := make([]byte, 32)
	data[0], data[1], data[2] = 0x05, 0x10, 0x10
	raw := buildPSID(0x1000, 0x1000, 0x1003, data)
	m, err := sid.ParsePSID(raw)
	require.NoError(t, err)
	original := append([]byte(nil), m.Data...)

	r := sid.Relocate(m, 0x2000)

	assert.Equal(t, original, m.Data, "relocation must not mutate the source module's data")
	assert.Equal(t, original, r.Data, "no instruction here has an absolute operand, so nothing should shift")
}

func TestPlayerInstallsTrampolineCallingInitThenPlay(t *testing.T) {
	mem := newFlatMem()
	raw := buildPSID(0x1000, 0x1010, 0x1020, []byte{0x60})
	m, err := sid.ParsePSID(raw)
	require.NoError(t, err)

	p := sid.NewPlayer(m)
	p.Load(mem)
	p.InstallTrampoline(mem, 0)

	assert.Equal(t, uint8(0x20), mem.Read(sid.TrampolineAddress+2)) // JSR
	assert.Equal(t, uint16(0x1010), uint16(mem.Read(sid.TrampolineAddress+3))|uint16(mem.Read(sid.TrampolineAddress+4))<<8)
	assert.Equal(t, uint16(0x1020), uint16(mem.Read(sid.PlayIRQEntry()+1))|uint16(mem.Read(sid.PlayIRQEntry()+2))<<8)
}

type flatMem struct {
	cells [65536]uint8
}

func newFlatMem() *flatMem { return &flatMem{} }

func (m *flatMem) Read(addr uint16) uint8  { return m.cells[addr] }
func (m *flatMem) Write(addr uint16, v uint8) { m.cells[addr] = v }
