// Package vgc implements the video/graphics controller: text grid, bitmap
// plane, sprite engine, palette, cursor, scroll, collision detection and the
// raster/VBLANK interrupt line.
package vgc

import "github.com/barryw/novavm/internal/memspace"

const (
	TextCols = 80
	TextRows = 25
	CharRAMSize  = TextCols * TextRows
	ColorRAMSize = TextCols * TextRows

	BitmapWidth  = 320
	BitmapHeight = 200
	BitmapBytes  = BitmapWidth * BitmapHeight / 2 // 4bpp, 2 px/byte

	MaxSprites       = 16
	SpriteRowBytes   = 8  // 16 px/row at 4bpp, 2px/byte
	SpriteRows       = 16
	SpriteShapeBytes = SpriteRowBytes * SpriteRows // 128
	SpriteShapeArea  = SpriteShapeBytes * MaxSprites
	SpriteRegBytes   = 6 // x-lo, x-hi+flags, y, color, priority, shape-index

	PaletteSize = 16

	VBlankStartLine = BitmapHeight
	TotalScanlines  = BitmapHeight + 20
)

type Priority uint8

const (
	PriorityBehindAll Priority = iota
	PriorityBetween
	PriorityInFront
)

// Register file offsets inside the device's bus window.
const (
	RegCharOut      = 0x00 // write: advance cursor, interpret control codes
	RegCharIn       = 0x01 // read-clearing
	RegCursorX      = 0x02
	RegCursorY      = 0x03
	RegCursorEnable = 0x04
	RegScrollX      = 0x05
	RegScrollY      = 0x06
	RegFGColor      = 0x07
	RegBGColor      = 0x08
	RegBorderColor  = 0x09
	RegCollisionSSLo = 0x0A // read-clearing
	RegCollisionSSHi = 0x0B
	RegCollisionSBLo = 0x0C
	RegCollisionSBHi = 0x0D
	RegCommand       = 0x0E
	RegParamBase     = 0x10 // P0..P9, 10 bytes: 0x10..0x19
	RegEnabledCount  = 0x1A
	RegRasterCtrl    = 0x1B // bit0 = raster IRQ enable, bit1 = VBLANK IRQ enable
	RegRasterLine    = 0x1C
	RegCurrentLine   = 0x1D // read-only, current scanline
	RegPaletteIndex  = 0x1E
	RegPaletteData   = 0x1F
	RegSpriteEnaLo   = 0x20
	RegSpriteEnaHi   = 0x21
	RegShapeAddrLo   = 0x22 // plain storage; SDEF/SROW/SCLR/SCOPY select a shape by sprite index
	RegShapeAddrHi   = 0x23
	RegSpriteBase    = 0x30 // sprite attribute block: 16 * 6 bytes, 0x30..0x8F
	RegWindowSize    = 0x90
)

type Command uint8

const (
	CmdNone Command = iota
	CmdGColor
	CmdPlot
	CmdUnplot
	CmdLine
	CmdRect
	CmdFill
	CmdCircle
	CmdSDef
	CmdSRow
	CmdSClr
	CmdSCopy
	CmdSPos
	CmdSEna
	CmdSDis
	CmdSFlip
	CmdSPri
)

// Sprite is the live decoded view of one sprite's attribute registers.
type Sprite struct {
	Enabled    bool
	X          uint16 // 9-bit
	Y          uint8
	FlipX      bool
	FlipY      bool
	ColorKey   uint8
	Priority   Priority
	ShapeIndex uint8
}

type VGC struct {
	base uint16

	regs [RegWindowSize]uint8

	charRAM  [CharRAMSize]uint8
	colorRAM [ColorRAMSize]uint8
	gfxRAM   [BitmapBytes]uint8
	shapeRAM [SpriteShapeArea]uint8

	palette [PaletteSize]uint8 // packed RGB332

	cursorX, cursorY int
	drawColor        *uint8 // nil means "use current text foreground color", per Design Notes §9

	currentLine int
	cycleAccum  int

	collisionSS, collisionSB uint32 // bitmask, 16 bits used

	nmiLine func() // raises the maskable interrupt line (spec calls it a "raster/VBLANK IRQ")

	Framebuffer [BitmapWidth * BitmapHeight]uint32
}

func New(base uint16) *VGC {
	v := &VGC{base: base}
	v.clearScreen()
	return v
}

func (v *VGC) Name() string { return "vgc" }

func (v *VGC) Owns(addr uint16) bool {
	return addr >= v.base && addr < v.base+RegWindowSize
}

// OnRasterIRQ registers the callback used to assert the CPU's maskable
// interrupt line. The bus/machine wiring supplies this rather than the VGC
// depending on the CPU directly.
func (v *VGC) OnRasterIRQ(fn func()) { v.nmiLine = fn }

func (v *VGC) Read(addr uint16) uint8 {
	off := addr - v.base
	switch off {
	case RegCharIn:
		val := v.regs[RegCharIn]
		v.regs[RegCharIn] = 0
		return val
	case RegCollisionSSLo:
		v.regs[RegCollisionSSLo] = uint8(v.collisionSS)
		v.regs[RegCollisionSSHi] = uint8(v.collisionSS >> 8)
		val := v.regs[RegCollisionSSLo]
		v.collisionSS = 0
		v.regs[RegCollisionSSLo], v.regs[RegCollisionSSHi] = 0, 0
		return val
	case RegCollisionSSHi:
		val := uint8(v.collisionSS >> 8)
		v.collisionSS = 0
		return val
	case RegCollisionSBLo:
		val := uint8(v.collisionSB)
		v.collisionSB = 0
		return val
	case RegCollisionSBHi:
		val := uint8(v.collisionSB >> 8)
		v.collisionSB = 0
		return val
	case RegCurrentLine:
		return uint8(v.currentLine)
	case RegEnabledCount:
		return uint8(v.enabledCount())
	default:
		return v.regs[off]
	}
}

func (v *VGC) Write(addr uint16, val uint8) {
	off := addr - v.base
	switch off {
	case RegCharOut:
		v.WriteChar(val)
	case RegCommand:
		v.regs[RegCommand] = val
		v.execCommand(Command(val))
	case RegPaletteData:
		idx := v.regs[RegPaletteIndex] % PaletteSize
		v.palette[idx] = val
		v.regs[RegPaletteIndex] = (idx + 1) % PaletteSize
	default:
		v.regs[off] = val
	}
}

func (v *VGC) enabledCount() int {
	n := 0
	ena := uint16(v.regs[RegSpriteEnaLo]) | uint16(v.regs[RegSpriteEnaHi])<<8
	for i := 0; i < MaxSprites; i++ {
		if ena&(1<<i) != 0 {
			n++
		}
	}
	return n
}

func (v *VGC) foregroundColor() uint8 { return v.regs[RegFGColor] }

func (v *VGC) effectiveDrawColor() uint8 {
	if v.drawColor != nil {
		return *v.drawColor
	}
	return v.foregroundColor()
}

// Advance steps the raster position by the number of CPU cycles executed,
// firing the raster/VBLANK IRQ when the scanline counter crosses the
// programmed raster line or enters VBLANK.
func (v *VGC) Advance(cycles int) {
	const cyclesPerLine = 64
	v.cycleAccum += cycles
	for v.cycleAccum >= cyclesPerLine {
		v.cycleAccum -= cyclesPerLine
		v.renderScanline(v.currentLine)
		v.currentLine++
		if v.currentLine >= TotalScanlines {
			v.currentLine = 0
		}
		v.checkRasterIRQ()
	}
}

func (v *VGC) checkRasterIRQ() {
	ctrl := v.regs[RegRasterCtrl]
	raster := int(v.regs[RegRasterLine])
	fire := false
	if ctrl&0x01 != 0 && v.currentLine == raster {
		fire = true
	}
	if ctrl&0x02 != 0 && v.currentLine == VBlankStartLine {
		fire = true
	}
	if fire && v.nmiLine != nil {
		v.nmiLine()
	}
}

func (v *VGC) clearScreen() {
	for i := range v.charRAM {
		v.charRAM[i] = ' '
	}
	v.cursorX, v.cursorY = 0, 0
}

// memSpaceAccessor adapts the VGC's four internal spaces to memspace.Accessor
// for the DMA engine and blitter.
type memSpaceAccessor struct{ v *VGC }

func (v *VGC) Accessor() memspace.Accessor { return memSpaceAccessor{v} }

func (a memSpaceAccessor) Owns(tag memspace.Tag) bool {
	switch tag {
	case memspace.VGCChar, memspace.VGCColor, memspace.VGCGfx, memspace.VGCSprite:
		return true
	default:
		return false
	}
}

func (a memSpaceAccessor) ReadAt(tag memspace.Tag, addr uint32) (uint8, bool) {
	v := a.v
	switch tag {
	case memspace.VGCChar:
		if int(addr) >= len(v.charRAM) {
			return 0, false
		}
		return v.charRAM[addr], true
	case memspace.VGCColor:
		if int(addr) >= len(v.colorRAM) {
			return 0, false
		}
		return v.colorRAM[addr], true
	case memspace.VGCGfx:
		if int(addr) >= len(v.gfxRAM) {
			return 0, false
		}
		return v.gfxRAM[addr], true
	case memspace.VGCSprite:
		if int(addr) >= len(v.shapeRAM) {
			return 0, false
		}
		return v.shapeRAM[addr], true
	}
	return 0, false
}

func (a memSpaceAccessor) WriteAt(tag memspace.Tag, addr uint32, val uint8) bool {
	v := a.v
	switch tag {
	case memspace.VGCChar:
		if int(addr) >= len(v.charRAM) {
			return false
		}
		v.charRAM[addr] = val
		return true
	case memspace.VGCColor:
		if int(addr) >= len(v.colorRAM) {
			return false
		}
		v.colorRAM[addr] = val
		return true
	case memspace.VGCGfx:
		if int(addr) >= len(v.gfxRAM) {
			return false
		}
		v.gfxRAM[addr] = val
		return true
	case memspace.VGCSprite:
		if int(addr) >= len(v.shapeRAM) {
			return false
		}
		v.shapeRAM[addr] = val
		return true
	}
	return false
}
