package corelx

import (
	"fmt"

	"github.com/barryw/novavm/internal/rom"
)

// generateBuiltinCall recognizes calls into the runtime ROM's published
// jump-table helpers (internal/rom/helpers.go) and emits the fixed-register
// marshaling each one's ABI expects, then a JSR to its stable jump-table
// address. These builtins replace an earlier sprite.set_pos/oam.write/
// gfx.set_palette family that hardcoded SNES-like PPU register offsets
// (0x8012, 0x8014, 0x803E...), which have
// no counterpart in this machine's display-controller/DMA/blitter register
// layout. This file replaces that whole family with one builtin per
// jump-table slot instead.
//
// By the time this is called, generateCall has already evaluated every
// argument expression into R0, R1, R2... in left-to-right order.
func (cg *CodeGenerator) generateBuiltinCall(name string, args []Expr, destReg uint8) (bool, error) {
	switch name {
	case "print":
		return true, cg.emitHelperCall("print", len(args), 1, func(a *rom.Assembler) {
			a.ZeroPage(rom.OpLDAZp, regLo(0))
			a.ZeroPage(rom.OpSTAZp, rom.ZPArg0)
			a.ZeroPage(rom.OpLDAZp, regHi(0))
			a.ZeroPage(rom.OpSTAZp, rom.ZPArg0Hi)
		}, nil)

	case "print_char":
		return true, cg.emitHelperCall("print-char", len(args), 1, func(a *rom.Assembler) {
			a.ZeroPage(rom.OpLDAZp, regLo(0))
		}, nil)

	case "get_key":
		return true, cg.emitHelperCall("get-key", len(args), 0, nil, func(a *rom.Assembler) {
			a.ZeroPage(rom.OpSTAZp, regLo(destReg))
			a.Imm8(rom.OpLDAImm, 0)
			a.ZeroPage(rom.OpSTAZp, regHi(destReg))
		})

	case "wait_key":
		return true, cg.emitHelperCall("wait-key", len(args), 0, nil, func(a *rom.Assembler) {
			a.ZeroPage(rom.OpSTAZp, regLo(destReg))
			a.Imm8(rom.OpLDAImm, 0)
			a.ZeroPage(rom.OpSTAZp, regHi(destReg))
		})

	case "vsync":
		return true, cg.emitHelperCall("vsync", len(args), 0, nil, nil)

	case "memcpy":
		return true, cg.emitHelperCall("memcpy", len(args), 3, func(a *rom.Assembler) {
			a.ZeroPage(rom.OpLDAZp, regLo(0))
			a.ZeroPage(rom.OpSTAZp, rom.ZPArg0)
			a.ZeroPage(rom.OpLDAZp, regHi(0))
			a.ZeroPage(rom.OpSTAZp, rom.ZPArg0Hi)
			a.ZeroPage(rom.OpLDAZp, regLo(1))
			a.ZeroPage(rom.OpSTAZp, rom.ZPArg1)
			a.ZeroPage(rom.OpLDAZp, regHi(1))
			a.ZeroPage(rom.OpSTAZp, rom.ZPArg1Hi)
			a.ZeroPage(rom.OpLDAZp, regLo(2))
			a.ZeroPage(rom.OpSTAZp, rom.ZPLenLo)
			a.ZeroPage(rom.OpLDAZp, regHi(2))
			a.ZeroPage(rom.OpSTAZp, rom.ZPLenHi)
		}, nil)

	case "memset":
		return true, cg.emitHelperCall("memset", len(args), 3, func(a *rom.Assembler) {
			a.ZeroPage(rom.OpLDAZp, regLo(0))
			a.ZeroPage(rom.OpSTAZp, rom.ZPArg0)
			a.ZeroPage(rom.OpLDAZp, regHi(0))
			a.ZeroPage(rom.OpSTAZp, rom.ZPArg0Hi)
			a.ZeroPage(rom.OpLDAZp, regLo(2))
			a.ZeroPage(rom.OpSTAZp, rom.ZPLenLo)
			a.ZeroPage(rom.OpLDAZp, regHi(2))
			a.ZeroPage(rom.OpSTAZp, rom.ZPLenHi)
			a.ZeroPage(rom.OpLDAZp, regLo(1))
		}, nil)

	case "gfx_cmd":
		return true, cg.emitHelperCall("gfx-cmd", len(args), 2, func(a *rom.Assembler) {
			a.ZeroPage(rom.OpLDAZp, regLo(1))
			a.ZeroPage(rom.OpSTAZp, rom.ZPArg1)
			a.ZeroPage(rom.OpLDAZp, regHi(1))
			a.ZeroPage(rom.OpSTAZp, rom.ZPArg1Hi)
			a.ZeroPage(rom.OpLDAZp, regLo(0))
		}, nil)

	case "sprite_cmd":
		return true, cg.emitHelperCall("sprite-cmd", len(args), 2, func(a *rom.Assembler) {
			a.ZeroPage(rom.OpLDAZp, regLo(1))
			a.ZeroPage(rom.OpSTAZp, rom.ZPArg1)
			a.ZeroPage(rom.OpLDAZp, regHi(1))
			a.ZeroPage(rom.OpSTAZp, rom.ZPArg1Hi)
			a.ZeroPage(rom.OpLDAZp, regLo(0))
		}, nil)

	case "play_sound":
		return true, cg.emitHelperCall("play-sound", len(args), 2, func(a *rom.Assembler) {
			a.ZeroPage(rom.OpLDAZp, regLo(0))
			a.ZeroPage(rom.OpSTAZp, rom.ZPArg0)
			a.ZeroPage(rom.OpLDAZp, regHi(0))
			a.ZeroPage(rom.OpSTAZp, rom.ZPArg0Hi)
			a.ZeroPage(rom.OpLDAZp, regLo(1))
			a.ZeroPage(rom.OpSTAZp, rom.ZPArg1)
		}, nil)

	case "music_play":
		return true, cg.emitHelperCall("music-play", len(args), 0, nil, nil)

	case "music_stop":
		return true, cg.emitHelperCall("music-stop", len(args), 0, nil, nil)

	case "set_volume":
		return true, cg.emitHelperCall("set-volume", len(args), 1, func(a *rom.Assembler) {
			a.ZeroPage(rom.OpLDAZp, regLo(0))
		}, nil)

	default:
		return false, nil
	}
}

// emitHelperCall marshals arguments (already resident in R0.., via setup),
// JSRs to slot's published jump-table address, then lets after post-process
// the return value left in A/X.
func (cg *CodeGenerator) emitHelperCall(slot string, gotArgs, wantArgs int, setup func(*rom.Assembler), after func(*rom.Assembler)) error {
	if gotArgs != wantArgs {
		return fmt.Errorf("%s: expected %d argument(s), got %d", slot, wantArgs, gotArgs)
	}
	addr, err := rom.HelperAddress(slot)
	if err != nil {
		return err
	}
	a := cg.vm.a
	if setup != nil {
		setup(a)
	}
	a.Abs(rom.OpJSRAbs, addr)
	if after != nil {
		after(a)
	}
	return nil
}
