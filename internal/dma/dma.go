// Package dma implements the DMA engine: synchronous linear transfers
// between cpu-ram, xram, and the VGC's memory spaces, in copy or fill mode,
// with ROM write-protection abort semantics.
package dma

import "github.com/barryw/novavm/internal/memspace"

const (
	RegSrcSpace = 0x00
	RegDstSpace = 0x01
	RegSrcAddr  = 0x02 // 3 bytes, low-to-high
	RegDstAddr  = 0x05
	RegLength   = 0x08
	RegMode     = 0x0B
	RegFillByte = 0x0C
	RegCommand  = 0x0D
	RegStatus   = 0x0E
	RegError    = 0x0F
	RegComplete = 0x10 // 3 bytes

	RegWindowSize = 0x13
)

type Mode uint8

const (
	ModeCopy Mode = iota
	ModeFill
)

type Status uint8

const (
	StatusIdle Status = iota
	StatusOK
	StatusError
)

type ErrorCode uint8

const (
	ErrNone ErrorCode = iota
	ErrWriteProtected
	ErrBadSpace
	ErrLengthZero
)

const CmdStart = 0x01

type DMA struct {
	base   uint16
	regs   [RegWindowSize]uint8
	router *memspace.Router
}

func New(base uint16, router *memspace.Router) *DMA {
	return &DMA{base: base, router: router}
}

func (d *DMA) Name() string { return "dma" }

func (d *DMA) Owns(addr uint16) bool { return addr >= d.base && addr < d.base+RegWindowSize }

func (d *DMA) Read(addr uint16) uint8 { return d.regs[addr-d.base] }

func (d *DMA) Write(addr uint16, v uint8) {
	off := addr - d.base
	d.regs[off] = v
	if off == RegCommand && v == CmdStart {
		d.run()
	}
}

func readAddr24(regs []uint8, off int) uint32 {
	return uint32(regs[off]) | uint32(regs[off+1])<<8 | uint32(regs[off+2])<<16
}

func writeAddr24(regs []uint8, off int, v uint32) {
	regs[off] = uint8(v)
	regs[off+1] = uint8(v >> 8)
	regs[off+2] = uint8(v >> 16)
}

func (d *DMA) run() {
	srcTag := memspace.Tag(d.regs[RegSrcSpace])
	dstTag := memspace.Tag(d.regs[RegDstSpace])
	srcAddr := readAddr24(d.regs[:], RegSrcAddr)
	dstAddr := readAddr24(d.regs[:], RegDstAddr)
	length := readAddr24(d.regs[:], RegLength)
	mode := Mode(d.regs[RegMode])
	fill := d.regs[RegFillByte]

	fail := func(code ErrorCode) {
		d.regs[RegStatus] = uint8(StatusError)
		d.regs[RegError] = uint8(code)
		writeAddr24(d.regs[:], RegComplete, 0)
	}

	if length == 0 {
		fail(ErrLengthZero)
		return
	}
	if !d.router.KnownSpace(srcTag) && mode == ModeCopy {
		fail(ErrBadSpace)
		return
	}
	if !d.router.KnownSpace(dstTag) {
		fail(ErrBadSpace)
		return
	}

	// Pre-flight the whole destination range for write-protection before
	// writing any byte, per spec: "cause an abort before any byte is
	// written".
	for i := uint32(0); i < length; i++ {
		if !d.canWrite(dstTag, dstAddr+i) {
			fail(ErrWriteProtected)
			return
		}
	}

	var completed uint32
	for i := uint32(0); i < length; i++ {
		var v uint8
		if mode == ModeFill {
			v = fill
		} else {
			rv, ok := d.router.Read(srcTag, srcAddr+i)
			if !ok {
				fail(ErrBadSpace)
				return
			}
			v = rv
		}
		if !d.router.Write(dstTag, dstAddr+i, v) {
			fail(ErrWriteProtected)
			return
		}
		completed++
	}

	d.regs[RegStatus] = uint8(StatusOK)
	d.regs[RegError] = uint8(ErrNone)
	writeAddr24(d.regs[:], RegComplete, completed)
}

// canWrite probes write-protection by writing back the byte already there,
// which is a no-op for a writable cell and rejected for a read-only one
// (RAMAccessor.WriteAt returns false for the ROM window).
func (d *DMA) canWrite(tag memspace.Tag, addr uint32) bool {
	current, ok := d.router.Read(tag, addr)
	if !ok {
		return false
	}
	return d.router.Write(tag, addr, current)
}
