package rom

// DeviceAddresses names the bus base addresses the runtime ROM's helper
// routines reach into directly (graphics output, sound registers). The
// image is rebuilt whenever a machine's configured addresses differ from
// these defaults.
type DeviceAddresses struct {
	VGCBase uint16
	SIDBase uint16
	FIOBase uint16
}

// Register offsets this package reaches into directly. Duplicated rather
// than imported from internal/vgc, internal/sid and internal/fio to keep
// the ROM assembler decoupled from the device packages; each offset is a
// published, stable part of those packages' register contracts and must
// stay in sync with them by hand.
const (
	vgcRegCharOut   = 0x00
	vgcRegParamBase = 0x10
	vgcParamCount   = 10
	vgcRegCommand   = 0x0E
	vgcRegCurLine   = 0x1D

	sidRegControl = 0x04 // control register offset within a voice's 7-byte block
	sidCtrlGate   = 0x01
	sidRegModeVol = 0x18

	fioRegCommand = 0x09
	fioCmdSIDPlay = 8
	fioCmdSIDStop = 9

	vgcVBlankStartLine = 200 // vgc.BitmapHeight
)

// jumpTableSlots is the ordered, published contract every assembled image
// honors: slot i's JMP target is helperTarget(slot i's name).
var jumpTableSlots = []string{
	"mul-byte", "mul-int", "div-byte", "div-int", "mod-byte",
	"print", "print-char", "get-key", "wait-key", "vsync",
	"memcpy", "memset", "gfx-cmd", "sprite-cmd", "play-sound",
	"music-play", "music-stop", "set-volume", "fixed-mul", "fixed-div",
	"editor-entry",
}

// helperLabel maps each published jump-table slot name to the label its JMP
// resolves to. Most slots assemble their own routine; sprite-cmd dispatches
// through the same command/param register pair as gfx-cmd, and fixed-mul/
// fixed-div reuse the plain 16-bit int routines and leave 8.8 scaling to the
// caller, so those three point at another slot's label instead of their own.
var helperLabel = map[string]string{
	"mul-byte":     "mul-byte",
	"mul-int":      "mul-int",
	"div-byte":     "div-byte",
	"div-int":      "div-int",
	"mod-byte":     "mod-byte",
	"print":        "print",
	"print-char":   "print-char",
	"get-key":      "get-key",
	"wait-key":     "wait-key",
	"vsync":        "vsync",
	"memcpy":       "memcpy",
	"memset":       "memset",
	"gfx-cmd":      "gfx-cmd",
	"sprite-cmd":   "gfx-cmd",
	"play-sound":   "play-sound",
	"music-play":   "music-play",
	"music-stop":   "music-stop",
	"set-volume":   "set-volume",
	"fixed-mul":    "mul-int",
	"fixed-div":    "div-int",
	"editor-entry": "editor-entry",
}

// buildHelpers emits every jump-table routine's body. Call after the jump
// table stub itself has been emitted, so helper code lands after it.
func buildHelpers(a *Assembler, dev DeviceAddresses) {
	mulByte(a)
	mulInt(a)
	divByte(a)
	divInt(a)
	modByte(a)
	print(a)
	printChar(a, dev)
	getKey(a)
	waitKey(a)
	vsync(a, dev)
	memcpy(a)
	memset(a)
	gfxCmd(a, dev)
	playSound(a, dev)
	musicPlay(a, dev)
	musicStop(a, dev)
	setVolume(a, dev)
	editorEntry(a)
}

// mulByte multiplies A by X via repeated addition, returning the 16-bit
// product in A (lo) / X (hi).
func mulByte(a *Assembler) {
	a.Label("mul-byte")
	a.zp(opSTAZp, zpArg0)
	a.zp(opSTXZp, zpCnt)
	a.imm8(opLDAImm, 0)
	a.zp(opSTAZp, zpResLo)
	a.zp(opSTAZp, zpResHi)
	a.zp(opLDXZp, zpCnt)
	a.imm8(opCPXImm, 0)
	a.branch(opBEQ, "mul-byte-done")
	a.Label("mul-byte-loop")
	a.Emit(opCLC)
	a.zp(opLDAZp, zpResLo)
	a.zp(opADCZp, zpArg0)
	a.zp(opSTAZp, zpResLo)
	a.zp(opLDAZp, zpResHi)
	a.imm8(opADCImm, 0)
	a.zp(opSTAZp, zpResHi)
	a.Emit(opDEX)
	a.branch(opBNE, "mul-byte-loop")
	a.Label("mul-byte-done")
	a.zp(opLDAZp, zpResLo)
	a.zp(opLDXZp, zpResHi)
	a.Emit(opRTS)
}

// divByte divides A by X via repeated subtraction, returning the quotient
// in A and the remainder in X.
func divByte(a *Assembler) {
	a.Label("div-byte")
	a.zp(opSTAZp, zpArg0)
	a.zp(opSTXZp, zpArg1)
	a.imm8(opLDAImm, 0)
	a.zp(opSTAZp, zpResLo)
	a.Label("div-byte-loop")
	a.zp(opLDAZp, zpArg0)
	a.zp(opCMPZp, zpArg1)
	a.branch(opBCC, "div-byte-done")
	a.Emit(opSEC)
	a.zp(opSBCZp, zpArg1)
	a.zp(opSTAZp, zpArg0)
	a.zp(opINCZp, zpResLo)
	a.absLabel(opJMPAbs, "div-byte-loop")
	a.Label("div-byte-done")
	a.zp(opLDAZp, zpResLo)
	a.zp(opLDXZp, zpArg0)
	a.Emit(opRTS)
}

// modByte divides A by X via repeated subtraction, returning the remainder
// in A.
func modByte(a *Assembler) {
	a.Label("mod-byte")
	a.zp(opSTAZp, zpArg0)
	a.zp(opSTXZp, zpArg1)
	a.Label("mod-byte-loop")
	a.zp(opLDAZp, zpArg0)
	a.zp(opCMPZp, zpArg1)
	a.branch(opBCC, "mod-byte-done")
	a.Emit(opSEC)
	a.zp(opSBCZp, zpArg1)
	a.zp(opSTAZp, zpArg0)
	a.absLabel(opJMPAbs, "mod-byte-loop")
	a.Label("mod-byte-done")
	a.zp(opLDAZp, zpArg0)
	a.imm8(opLDXImm, 0)
	a.Emit(opRTS)
}

// mulInt multiplies the 16-bit values at zpArg0/zpArg0Hi and
// zpArg1/zpArg1Hi with the standard shift-and-add algorithm: each step
// shifts the multiplier right, testing the bit that falls into carry, and
// doubles the multiplicand, so bits carried past bit 15 drop out of the
// 16-bit accumulator exactly as native int truncation requires.
func mulInt(a *Assembler) {
	a.Label("mul-int")
	a.imm8(opLDAImm, 0)
	a.zp(opSTAZp, zpResLo)
	a.zp(opSTAZp, zpResHi)
	a.imm8(opLDXImm, 16)
	a.Label("mul-int-loop")
	a.zp(opLSRZp, zpArg1Hi)
	a.zp(opRORZp, zpArg1)
	a.branch(opBCC, "mul-int-skip")
	a.Emit(opCLC)
	a.zp(opLDAZp, zpResLo)
	a.zp(opADCZp, zpArg0)
	a.zp(opSTAZp, zpResLo)
	a.zp(opLDAZp, zpResHi)
	a.zp(opADCZp, zpArg0Hi)
	a.zp(opSTAZp, zpResHi)
	a.Label("mul-int-skip")
	a.zp(opASLZp, zpArg0)
	a.zp(opROLZp, zpArg0Hi)
	a.Emit(opDEX)
	a.branch(opBNE, "mul-int-loop")
	a.zp(opLDAZp, zpResLo)
	a.zp(opLDXZp, zpResHi)
	a.Emit(opRTS)
}

// divInt divides the 16-bit dividend at zpArg0/zpArg0Hi by the divisor at
// zpArg1/zpArg1Hi with the textbook restoring-division shift loop: the
// dividend shifts left into the remainder one bit at a time, and each
// step's quotient bit shifts into the quotient from the same carry the
// tentative subtraction leaves behind.
func divInt(a *Assembler) {
	a.Label("div-int")
	a.imm8(opLDAImm, 0)
	a.zp(opSTAZp, zpRemLo)
	a.zp(opSTAZp, zpRemHi)
	a.zp(opSTAZp, zpResLo)
	a.zp(opSTAZp, zpResHi)
	a.imm8(opLDXImm, 16)
	a.Label("div-int-loop")
	a.zp(opASLZp, zpArg0)
	a.zp(opROLZp, zpArg0Hi)
	a.zp(opROLZp, zpRemLo)
	a.zp(opROLZp, zpRemHi)
	a.zp(opLDAZp, zpRemLo)
	a.Emit(opSEC)
	a.zp(opSBCZp, zpArg1)
	a.Emit(opTAY)
	a.zp(opLDAZp, zpRemHi)
	a.zp(opSBCZp, zpArg1Hi)
	a.branch(opBCC, "div-int-no-sub")
	a.zp(opSTAZp, zpRemHi)
	a.zp(opSTYZp, zpRemLo)
	a.Emit(opSEC)
	a.branch(opBCS, "div-int-shift")
	a.Label("div-int-no-sub")
	a.Emit(opCLC)
	a.Label("div-int-shift")
	a.zp(opROLZp, zpResLo)
	a.zp(opROLZp, zpResHi)
	a.Emit(opDEX)
	a.branch(opBNE, "div-int-loop")
	a.zp(opLDAZp, zpResLo)
	a.zp(opLDXZp, zpResHi)
	a.Emit(opRTS)
}

// printChar writes A to the display controller's character port.
func printChar(a *Assembler, dev DeviceAddresses) {
	a.Label("print-char")
	a.abs(opSTAAbs, dev.VGCBase+vgcRegCharOut)
	a.Emit(opRTS)
}

// print writes the null-terminated string pointed to by zpArg0/zpArg0Hi to
// the display controller one character at a time.
func print(a *Assembler) {
	a.Label("print")
	a.imm8(opLDYImm, 0)
	a.Label("print-loop")
	a.zp(opLDAIndY, zpArg0)
	a.branch(opBEQ, "print-done")
	a.absLabel(opJSRAbs, "print-char")
	a.zp(opINCZp, zpArg0)
	a.branch(opBNE, "print-skip")
	a.zp(opINCZp, zpArg0Hi)
	a.Label("print-skip")
	a.absLabel(opJMPAbs, "print-loop")
	a.Label("print-done")
	a.Emit(opRTS)
}

// getKey reads the single-slot keyboard buffer without blocking. It returns
// the pending code in A and clears the ready flag, or returns A=0 if no key
// is waiting.
func getKey(a *Assembler) {
	a.Label("get-key")
	a.zp(opLDAZp, KeyReady)
	a.branch(opBEQ, "get-key-empty")
	a.imm8(opLDAImm, 0)
	a.zp(opSTAZp, KeyReady)
	a.zp(opLDAZp, KeyCode)
	a.Emit(opRTS)
	a.Label("get-key-empty")
	a.imm8(opLDAImm, 0)
	a.Emit(opRTS)
}

// waitKey busy-waits until a key is available, then behaves like get-key.
func waitKey(a *Assembler) {
	a.Label("wait-key")
	a.zp(opLDAZp, KeyReady)
	a.branch(opBEQ, "wait-key")
	a.absLabel(opJMPAbs, "get-key")
	a.Emit(opRTS) // unreachable; keeps the routine self-contained
}

// vsync busy-waits for the display controller's raster to reach the first
// scanline of the vertical blank.
func vsync(a *Assembler, dev DeviceAddresses) {
	a.Label("vsync")
	a.abs(opLDAAbs, dev.VGCBase+vgcRegCurLine)
	a.imm8(opCMPImm, vgcVBlankStartLine)
	a.branch(opBNE, "vsync")
	a.Emit(opRTS)
}

// memcpy copies the 16-bit length at zpLenLo/zpLenHi bytes from the pointer
// at zpArg1/zpArg1Hi to the pointer at zpArg0/zpArg0Hi, one byte at a time,
// advancing both pointers as it goes.
func memcpy(a *Assembler) {
	a.Label("memcpy")
	a.imm8(opLDYImm, 0)
	a.Label("memcpy-loop")
	a.zp(opLDAZp, zpLenHi)
	a.branch(opBNE, "memcpy-body")
	a.zp(opLDAZp, zpLenLo)
	a.branch(opBEQ, "memcpy-done")
	a.Label("memcpy-body")
	a.zp(opLDAIndY, zpArg1)
	a.zp(opSTAIndY, zpArg0)
	a.zp(opINCZp, zpArg1)
	a.branch(opBNE, "memcpy-skip-src-hi")
	a.zp(opINCZp, zpArg1Hi)
	a.Label("memcpy-skip-src-hi")
	a.zp(opINCZp, zpArg0)
	a.branch(opBNE, "memcpy-skip-dst-hi")
	a.zp(opINCZp, zpArg0Hi)
	a.Label("memcpy-skip-dst-hi")
	a.zp(opLDAZp, zpLenLo)
	a.branch(opBNE, "memcpy-dec-lo")
	a.zp(opDECZp, zpLenHi)
	a.Label("memcpy-dec-lo")
	a.zp(opDECZp, zpLenLo)
	a.absLabel(opJMPAbs, "memcpy-loop")
	a.Label("memcpy-done")
	a.Emit(opRTS)
}

// memset fills the 16-bit length at zpLenLo/zpLenHi bytes starting at the
// pointer in zpArg0/zpArg0Hi with the byte in A.
func memset(a *Assembler) {
	a.Label("memset")
	a.zp(opSTAZp, zpArg1)
	a.imm8(opLDYImm, 0)
	a.Label("memset-loop")
	a.zp(opLDAZp, zpLenHi)
	a.branch(opBNE, "memset-body")
	a.zp(opLDAZp, zpLenLo)
	a.branch(opBEQ, "memset-done")
	a.Label("memset-body")
	a.zp(opLDAZp, zpArg1)
	a.zp(opSTAIndY, zpArg0)
	a.zp(opINCZp, zpArg0)
	a.branch(opBNE, "memset-skip-hi")
	a.zp(opINCZp, zpArg0Hi)
	a.Label("memset-skip-hi")
	a.zp(opLDAZp, zpLenLo)
	a.branch(opBNE, "memset-dec-lo")
	a.zp(opDECZp, zpLenHi)
	a.Label("memset-dec-lo")
	a.zp(opDECZp, zpLenLo)
	a.absLabel(opJMPAbs, "memset-loop")
	a.Label("memset-done")
	a.Emit(opRTS)
}

// gfxCmd copies the 10-byte parameter block pointed to by zpArg1/zpArg1Hi
// into the display controller's parameter registers, then writes the
// command byte in A to the command register, firing the command
// synchronously. sprite-cmd dispatches through this same pair of registers.
func gfxCmd(a *Assembler, dev DeviceAddresses) {
	target := dev.VGCBase + vgcRegParamBase
	a.Label("gfx-cmd")
	a.zp(opSTAZp, zpCnt)
	a.imm8(opLDAImm, byte(target))
	a.zp(opSTAZp, zpArg0)
	a.imm8(opLDAImm, byte(target>>8))
	a.zp(opSTAZp, zpArg0Hi)
	a.imm8(opLDAImm, vgcParamCount)
	a.zp(opSTAZp, zpLenLo)
	a.imm8(opLDAImm, 0)
	a.zp(opSTAZp, zpLenHi)
	a.absLabel(opJSRAbs, "memcpy")
	a.zp(opLDAZp, zpCnt)
	a.abs(opSTAAbs, dev.VGCBase+vgcRegCommand)
	a.Emit(opRTS)
}

// playSound writes a frequency and gated control byte to voice 0 of the
// sound chip. zpArg0/zpArg0Hi hold the frequency, zpArg1 holds the
// waveform/control bits; the gate bit is set unconditionally so the voice
// starts immediately.
func playSound(a *Assembler, dev DeviceAddresses) {
	a.Label("play-sound")
	a.zp(opLDAZp, zpArg0)
	a.abs(opSTAAbs, dev.SIDBase+0)
	a.zp(opLDAZp, zpArg0Hi)
	a.abs(opSTAAbs, dev.SIDBase+1)
	a.zp(opLDAZp, zpArg1)
	a.imm8(opORAImm, sidCtrlGate)
	a.abs(opSTAAbs, dev.SIDBase+sidRegControl)
	a.Emit(opRTS)
}

func musicPlay(a *Assembler, dev DeviceAddresses) {
	a.Label("music-play")
	a.imm8(opLDAImm, fioCmdSIDPlay)
	a.abs(opSTAAbs, dev.FIOBase+fioRegCommand)
	a.Emit(opRTS)
}

func musicStop(a *Assembler, dev DeviceAddresses) {
	a.Label("music-stop")
	a.imm8(opLDAImm, fioCmdSIDStop)
	a.abs(opSTAAbs, dev.FIOBase+fioRegCommand)
	a.Emit(opRTS)
}

// setVolume writes A directly to the sound chip's master mode/volume
// register.
func setVolume(a *Assembler, dev DeviceAddresses) {
	a.Label("set-volume")
	a.abs(opSTAAbs, dev.SIDBase+sidRegModeVol)
	a.Emit(opRTS)
}

// editorEntry clears a stale key-ready flag so the line editor the BASIC ROM
// drives on top of this jump table always starts from a clean keyboard
// buffer.
func editorEntry(a *Assembler) {
	a.Label("editor-entry")
	a.imm8(opLDAImm, 0)
	a.zp(opSTAZp, KeyReady)
	a.Emit(opRTS)
}
