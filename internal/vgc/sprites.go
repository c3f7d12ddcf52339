package vgc

func (v *VGC) spriteRegOffset(sprite int) int { return RegSpriteBase + sprite*SpriteRegBytes }

func (v *VGC) Sprite(i int) Sprite {
	off := v.spriteRegOffset(i)
	xlo := v.regs[off]
	xhiFlags := v.regs[off+1]
	y := v.regs[off+2]
	color := v.regs[off+3]
	priority := v.regs[off+4]
	shape := v.regs[off+5]

	ena := uint16(v.regs[RegSpriteEnaLo]) | uint16(v.regs[RegSpriteEnaHi])<<8

	return Sprite{
		Enabled:    ena&(1<<i) != 0,
		X:          uint16(xlo) | uint16(xhiFlags&0x01)<<8,
		Y:          y,
		FlipX:      xhiFlags&0x80 != 0,
		FlipY:      xhiFlags&0x40 != 0,
		ColorKey:   color,
		Priority:   Priority(priority),
		ShapeIndex: shape,
	}
}

func (v *VGC) spriteSetEnabled(i int, enabled bool) {
	ena := uint16(v.regs[RegSpriteEnaLo]) | uint16(v.regs[RegSpriteEnaHi])<<8
	if enabled {
		ena |= 1 << i
	} else {
		ena &^= 1 << i
	}
	v.regs[RegSpriteEnaLo] = uint8(ena)
	v.regs[RegSpriteEnaHi] = uint8(ena >> 8)
}

func (v *VGC) spriteSetPos(i int, xlo, xhi, y uint8) {
	off := v.spriteRegOffset(i)
	v.regs[off] = xlo
	v.regs[off+1] = (v.regs[off+1] &^ 0x01) | (xhi & 0x01)
	v.regs[off+2] = y
}

func (v *VGC) spriteSetFlip(i int, flags uint8) {
	off := v.spriteRegOffset(i)
	v.regs[off+1] = (v.regs[off+1] &^ 0xC0) | (flags & 0xC0)
}

func (v *VGC) spriteSetPriority(i int, p Priority) {
	off := v.spriteRegOffset(i)
	v.regs[off+4] = uint8(p)
}

func (v *VGC) shapeBase(i int) int { return i * SpriteShapeBytes }

func (v *VGC) spriteSetPixel(sprite, x, y int, color uint8) {
	if x < 0 || x >= 16 || y < 0 || y >= SpriteRows {
		return
	}
	base := v.shapeBase(sprite) + y*SpriteRowBytes
	byteIdx := base + x/2
	if x%2 == 0 {
		v.shapeRAM[byteIdx] = (v.shapeRAM[byteIdx] & 0x0F) | (color&0x0F)<<4
	} else {
		v.shapeRAM[byteIdx] = (v.shapeRAM[byteIdx] & 0xF0) | (color & 0x0F)
	}
}

func (v *VGC) spriteGetPixel(sprite, x, y int) uint8 {
	base := v.shapeBase(sprite) + y*SpriteRowBytes
	byteIdx := base + x/2
	if x%2 == 0 {
		return v.shapeRAM[byteIdx] >> 4
	}
	return v.shapeRAM[byteIdx] & 0x0F
}

func (v *VGC) spriteSetRow(sprite, row int, bytes []uint8) {
	if row < 0 || row >= SpriteRows {
		return
	}
	base := v.shapeBase(sprite) + row*SpriteRowBytes
	copy(v.shapeRAM[base:base+SpriteRowBytes], bytes)
}

func (v *VGC) spriteClear(sprite int) {
	base := v.shapeBase(sprite)
	for i := 0; i < SpriteShapeBytes; i++ {
		v.shapeRAM[base+i] = 0
	}
}

func (v *VGC) spriteCopy(src, dst int) {
	srcBase, dstBase := v.shapeBase(src), v.shapeBase(dst)
	copy(v.shapeRAM[dstBase:dstBase+SpriteShapeBytes], v.shapeRAM[srcBase:srcBase+SpriteShapeBytes])
}
