// Package xram implements extended RAM: a large linear byte array addressed
// by a 24-bit cursor, with a page-usage counter tracking how many distinct
// 256-byte pages have been touched.
package xram

import "github.com/barryw/novavm/internal/memspace"

const (
	DefaultSize = 512 * 1024
	PageSize    = 256
)

type XRAM struct {
	cells       []uint8
	touchedPage map[uint32]bool
}

func New(size int) *XRAM {
	if size <= 0 {
		size = DefaultSize
	}
	return &XRAM{cells: make([]uint8, size), touchedPage: map[uint32]bool{}}
}

func (x *XRAM) Size() int { return len(x.cells) }

func (x *XRAM) Owns(tag memspace.Tag) bool { return tag == memspace.XRAM }

func (x *XRAM) ReadAt(tag memspace.Tag, addr uint32) (uint8, bool) {
	if tag != memspace.XRAM || int(addr) >= len(x.cells) {
		return 0, false
	}
	return x.cells[addr], true
}

func (x *XRAM) WriteAt(tag memspace.Tag, addr uint32, v uint8) bool {
	if tag != memspace.XRAM || int(addr) >= len(x.cells) {
		return false
	}
	x.cells[addr] = v
	x.touchedPage[addr/PageSize] = true
	return true
}

// PagesTouched reports how many distinct 256-byte pages have ever been
// written, maintaining per-page usage counters over the XRAM space.
func (x *XRAM) PagesTouched() int { return len(x.touchedPage) }

func (x *XRAM) ReadBlock(addr uint32, n int) []uint8 {
	out := make([]uint8, n)
	copy(out, x.cells[addr:int(addr)+n])
	return out
}

func (x *XRAM) WriteBlock(addr uint32, data []uint8) {
	copy(x.cells[addr:], data)
	for i := 0; i < len(data); i++ {
		x.touchedPage[(addr+uint32(i))/PageSize] = true
	}
}
