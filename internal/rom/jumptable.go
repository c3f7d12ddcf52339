package rom

import (
	"fmt"

	"github.com/barryw/novavm/internal/bus"
)

// Build assembles a complete runtime ROM image for the given device
// addresses. The jump table occupies the first len(jumpTableSlots)*3 bytes
// of the image at fixed, address-stable offsets — slot i always resolves to
// bus.ROMBase+3*i regardless of how the helper bodies backing it change —
// so compiled code can JSR to those addresses across ROM rebuilds.
func Build(dev DeviceAddresses) ([bus.ROMSize]uint8, error) {
	a := NewAssembler(bus.ROMBase)

	for _, name := range jumpTableSlots {
		a.absLabel(opJMPAbs, helperLabel[name])
	}

	resetInit(a)
	buildHelpers(a, dev)

	var img [bus.ROMSize]uint8

	if err := a.Resolve(); err != nil {
		return img, err
	}

	code := a.Bytes()
	if len(code) > bus.ROMSize-6 {
		return img, fmt.Errorf("rom: assembled image %d bytes exceeds %d-byte budget", len(code), bus.ROMSize-6)
	}
	copy(img[:], code)

	resetAddr, err := a.Resolved("reset-init")
	if err != nil {
		return img, err
	}
	putVector(&img, vectorReset, resetAddr)
	putVector(&img, vectorNMI, resetAddr)
	putVector(&img, vectorIRQ, resetAddr)

	return img, nil
}

// vectorNMI, vectorReset and vectorIRQ mirror cpu.VectorNMI/VectorRESET/
// VectorIRQ. Kept local rather than imported so this file reads as pure
// address arithmetic against the image it's building.
const (
	vectorNMI   = 0xFFFA
	vectorReset = 0xFFFC
	vectorIRQ   = 0xFFFE
)

func putVector(img *[bus.ROMSize]uint8, addr uint16, target uint16) {
	offset := addr - bus.ROMBase
	img[offset] = byte(target)
	img[offset+1] = byte(target >> 8)
}

// resetInit performs the minimal power-on sequence: disable interrupts, set
// up the stack, clear the keyboard buffer's ready flag, then hand off to the
// BASIC front end's entry hook.
func resetInit(a *Assembler) {
	a.Label("reset-init")
	a.Emit(opSEI)
	a.imm8(opLDXImm, 0xFF)
	a.Emit(opTXS)
	a.imm8(opLDAImm, 0)
	a.zp(opSTAZp, KeyReady)
	a.absLabel(opJMPAbs, "editor-entry")
}
