package sid

import (
	"encoding/binary"
	"errors"

	"github.com/barryw/novavm/internal/cpu"
)

// Header is the fixed-size PSID file header (all multi-byte fields are
// big-endian on disk, per the PSID file format).
type Header struct {
	Magic       [4]byte
	Version     uint16
	DataOffset  uint16
	LoadAddress uint16
	InitAddress uint16
	PlayAddress uint16
	Songs       uint16
	StartSong   uint16
	Speed       uint32
	Name        string
	Author      string
	Released    string
}

// Module is a parsed, loadable PSID tune.
type Module struct {
	Header Header
	// LoadAddress is the effective load address: Header.LoadAddress, or,
	// when that field is zero, the little-endian word read from the first
	// two bytes of Data (the format's documented escape hatch for tunes
	// that legitimately want to load at $0000).
	LoadAddress uint16
	Data        []byte
}

var errBadMagic = errors.New("sid: not a PSID file")
var errShortHeader = errors.New("sid: truncated PSID header")

// ParsePSID parses a PSID music file and returns the loadable module.
func ParsePSID(raw []byte) (*Module, error) {
	if len(raw) < 0x76 {
		return nil, errShortHeader
	}
	var h Header
	copy(h.Magic[:], raw[0:4])
	if string(h.Magic[:]) != "PSID" && string(h.Magic[:]) != "RSID" {
		return nil, errBadMagic
	}
	h.Version = binary.BigEndian.Uint16(raw[4:6])
	h.DataOffset = binary.BigEndian.Uint16(raw[6:8])
	h.LoadAddress = binary.BigEndian.Uint16(raw[8:10])
	h.InitAddress = binary.BigEndian.Uint16(raw[10:12])
	h.PlayAddress = binary.BigEndian.Uint16(raw[12:14])
	h.Songs = binary.BigEndian.Uint16(raw[14:16])
	h.StartSong = binary.BigEndian.Uint16(raw[16:18])
	h.Speed = binary.BigEndian.Uint32(raw[18:22])
	h.Name = trimCString(raw[22:54])
	h.Author = trimCString(raw[54:86])
	h.Released = trimCString(raw[86:118])

	if int(h.DataOffset) > len(raw) {
		return nil, errShortHeader
	}
	data := raw[h.DataOffset:]

	m := &Module{Header: h, Data: data}
	if h.LoadAddress == 0 {
		if len(data) < 2 {
			return nil, errShortHeader
		}
		m.LoadAddress = binary.LittleEndian.Uint16(data[0:2])
		m.Data = data[2:]
	} else {
		m.LoadAddress = h.LoadAddress
	}
	return m, nil
}

func trimCString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// sidRegisterPageLow/High bracket the hardware I/O page a real C64 decodes
// the SID at. An absolute operand that happens to land here addresses a
// device register, not a spot inside the relocated code, and must never be
// shifted even if it is numerically inside the module's old address range.
const (
	sidRegisterPageLow  = 0xD400
	sidRegisterPageHigh = 0xD7FF
)

func inSIDRegisterPage(addr uint16) bool {
	return addr >= sidRegisterPageLow && addr <= sidRegisterPageHigh
}

func isAbsoluteOperand(mode cpu.AddressingMode) bool {
	switch mode {
	case cpu.Absolute, cpu.AbsoluteX, cpu.AbsoluteY, cpu.Indirect:
		return true
	default:
		return false
	}
}

// Relocate moves a module's machine code from its original load address to
// newBase. It walks the byte stream as actual 6502 instructions, using each
// opcode's documented length to step to the next one, and only treats an
// operand as a relocatable address when the opcode's addressing mode says
// the operand IS a 16-bit absolute address (JMP/JSR/LDA abs and friends).
// Zero-page operands, immediates and branch offsets are skipped over by
// width but never mistaken for pointers. Candidates are read from an
// untouched copy of the original bytes, so a shift applied to one
// instruction's operand can never corrupt what the next instruction reads -
// the bug in a naive byte-at-a-time scan that mutates in place while it
// scans. Like real PSID relocation, this only walks code reachable by
// falling straight through the byte stream from the start of Data; a tune
// whose init routine is reached only via a table of pointers elsewhere in
// Data won't have that table's entries rewritten.
func Relocate(m *Module, newBase uint16) *Module {
	if newBase == m.LoadAddress {
		return m
	}
	delta := int32(newBase) - int32(m.LoadAddress)
	oldEnd := int(m.LoadAddress) + len(m.Data)

	snapshot := make([]byte, len(m.Data))
	copy(snapshot, m.Data)
	out := make([]byte, len(m.Data))
	copy(out, m.Data)

	for i := 0; i < len(snapshot); {
		entry := cpu.NMOSOpcode(snapshot[i])
		length := int(entry.Length)
		if length == 0 {
			length = 1
		}
		if i+length > len(snapshot) {
			break
		}

		if isAbsoluteOperand(entry.Mode) && i+2 < len(snapshot) {
			word := int(binary.LittleEndian.Uint16(snapshot[i+1 : i+3]))
			if word >= int(m.LoadAddress) && word < oldEnd && !inSIDRegisterPage(uint16(word)) {
				shifted := uint16(int32(word) + delta)
				binary.LittleEndian.PutUint16(out[i+1:i+3], shifted)
			}
		}

		i += length
	}

	relocated := *m
	relocated.Data = out
	relocated.LoadAddress = newBase
	relocated.Header.InitAddress = uint16(int32(m.Header.InitAddress) + delta)
	relocated.Header.PlayAddress = uint16(int32(m.Header.PlayAddress) + delta)
	return &relocated
}
