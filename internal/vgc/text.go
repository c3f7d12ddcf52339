package vgc

// WriteChar implements the character-output state machine:
// control codes move the cursor or clear the screen, everything else writes
// a glyph and stamps the foreground color.
func (v *VGC) WriteChar(b uint8) {
	switch b {
	case 0x08: // backspace
		if v.cursorX > 0 {
			v.cursorX--
		}
		v.putGlyph(v.cursorX, v.cursorY, ' ', false)
	case 0x09: // tab
		v.cursorX += 8 - (v.cursorX % 8)
		v.wrapCursor()
	case 0x0A: // line feed
		v.advanceRow()
	case 0x0C: // form feed
		v.formFeed()
	case 0x0D: // carriage return
		v.cursorX = 0
		v.advanceRow()
	case 0x13: // home
		v.cursorX, v.cursorY = 0, 0
	default:
		v.putGlyph(v.cursorX, v.cursorY, b, true)
		v.cursorX++
		v.wrapCursor()
	}
}

func (v *VGC) putGlyph(x, y int, glyph uint8, stamp bool) {
	if x < 0 || x >= TextCols || y < 0 || y >= TextRows {
		return
	}
	idx := y*TextCols + x
	v.charRAM[idx] = glyph
	if stamp {
		v.colorRAM[idx] = v.foregroundColor()
	}
}

func (v *VGC) wrapCursor() {
	if v.cursorX >= TextCols {
		v.cursorX = 0
		v.advanceRow()
	}
}

func (v *VGC) advanceRow() {
	v.cursorY++
	if v.cursorY >= TextRows {
		v.scrollUp()
		v.cursorY = TextRows - 1
	}
}

func (v *VGC) scrollUp() {
	copy(v.charRAM[0:], v.charRAM[TextCols:])
	copy(v.colorRAM[0:], v.colorRAM[TextCols:])
	for x := 0; x < TextCols; x++ {
		idx := (TextRows-1)*TextCols + x
		v.charRAM[idx] = ' '
		v.colorRAM[idx] = v.foregroundColor()
	}
}

func (v *VGC) formFeed() {
	for i := range v.charRAM {
		v.charRAM[i] = ' '
		v.colorRAM[i] = v.foregroundColor()
	}
	v.cursorX, v.cursorY = 0, 0
}
