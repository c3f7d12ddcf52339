package corelx

import (
	"testing"

	"github.com/barryw/novavm/internal/config"
	"github.com/barryw/novavm/internal/machine"
	"github.com/barryw/novavm/internal/rom"
)

// compileAndBoot compiles source, writes the resulting RAM image into a
// freshly assembled machine at the manifest's entry offset, and boots the
// CPU there. Both ROM image slots get the same runtime ROM so the jump
// table compiled helper calls resolve regardless of which slot
// bus.ROMSwapRegister happens to select.
func compileAndBoot(t *testing.T, source string) (*machine.Machine, *CompileResult) {
	t.Helper()

	result, err := CompileSource(source, "test.corelx", nil)
	if err != nil {
		t.Fatalf("compile: %v\ndiagnostics: %+v", err, result.Diagnostics)
	}

	cfg := config.Default()
	runtimeROM, err := rom.Build(rom.DeviceAddresses{
		VGCBase: cfg.Devices.VGCBase,
		SIDBase: cfg.Devices.SIDBase,
		FIOBase: cfg.Devices.FIOBase,
	})
	if err != nil {
		t.Fatalf("build runtime rom: %v", err)
	}

	m := machine.New(cfg, runtimeROM, runtimeROM, func() int64 { return 0 })
	entry := result.Manifest.EntryOffset
	for i, b := range result.ROMBytes {
		m.Bus.Write(entry+uint16(i), b)
	}
	e := entry
	m.Boot(&e)
	return m, result
}

// run steps the CPU a fixed number of instructions, which is enough for
// these small fixtures to finish their useful work and settle into a
// deliberate busy-wait rather than falling off the end of __Boot into an
// empty call stack.
func run(m *machine.Machine, steps int) {
	for i := 0; i < steps && !m.CPU.Halted(); i++ {
		m.CPU.ExecuteNext()
	}
}

func readWord(m *machine.Machine, addr uint16) uint16 {
	return uint16(m.Bus.Read(addr)) | uint16(m.Bus.Read(addr+1))<<8
}

func TestCompileArithmeticAndCall(t *testing.T) {
	const src = `
function Add(a: u16, b: u16)
    return a + b

function __Boot()
    z := Add(2, 3)
    while true
        vsync()
`
	m, _ := compileAndBoot(t, src)
	run(m, 200)

	if got := readWord(m, 0x0300); got != 5 {
		t.Fatalf("z = %d, want 5", got)
	}
}

func TestCompileArithmeticOperators(t *testing.T) {
	const src = `
function __Boot()
    a := 10 - 4
    b := 6 * 7
    c := 20 / 4
    d := 20 % 6
    while true
        vsync()
`
	m, _ := compileAndBoot(t, src)
	run(m, 400)

	if got := readWord(m, 0x0300); got != 6 {
		t.Fatalf("a = %d, want 6", got)
	}
	if got := readWord(m, 0x0302); got != 42 {
		t.Fatalf("b = %d, want 42", got)
	}
	if got := readWord(m, 0x0304); got != 5 {
		t.Fatalf("c = %d, want 5", got)
	}
	if got := readWord(m, 0x0306); got != 2 {
		t.Fatalf("d = %d, want 2", got)
	}
}

func TestCompileIfElseChoosesBranch(t *testing.T) {
	const src = `
function __Boot()
    x := 1
    y := 0
    if x == 1
        y = 99
    else
        y = 1
    while true
        vsync()
`
	m, _ := compileAndBoot(t, src)
	run(m, 300)

	if got := readWord(m, 0x0302); got != 99 {
		t.Fatalf("y = %d, want 99", got)
	}
}

func TestCompileWhileLoopCounts(t *testing.T) {
	const src = `
function __Boot()
    i := 0
    total := 0
    while i < 5
        total = total + i
        i = i + 1
    while true
        vsync()
`
	m, _ := compileAndBoot(t, src)
	run(m, 600)

	if got := readWord(m, 0x0302); got != 10 {
		t.Fatalf("total = %d, want 10", got)
	}
}

func TestCompileStructMemberReadWrite(t *testing.T) {
	const src = `
function __Boot()
    s := Sprite()
    s.x_lo = 7
    s.y = 42
    r := s.y
    while true
        vsync()
`
	m, _ := compileAndBoot(t, src)
	run(m, 400)

	if got := readWord(m, 0x0308); got != 42 {
		t.Fatalf("r = %d, want 42", got)
	}
}

func TestCompileStringLiteralNullTerminated(t *testing.T) {
	const src = `
function __Boot()
    print("HI")
    while true
        vsync()
`
	_, result := compileAndBoot(t, src)

	needle := []byte("HI\x00")
	found := false
	for i := 0; i+len(needle) <= len(result.ROMBytes); i++ {
		match := true
		for j, b := range needle {
			if result.ROMBytes[i+j] != b {
				match = false
				break
			}
		}
		if match {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("expected null-terminated string literal bytes in compiled image")
	}
}

func TestCompilePlaySoundDrivesSID(t *testing.T) {
	const src = `
function __Boot()
    play_sound(440, 1)
    while true
        vsync()
`
	m, _ := compileAndBoot(t, src)
	run(m, 200)

	cfg := config.Default()
	freqLo := m.Bus.Read(cfg.Devices.SIDBase)
	if freqLo == 0 {
		t.Fatalf("expected SID voice frequency register to be written")
	}
}

func TestBuiltinArgumentCountMismatchIsDiagnostic(t *testing.T) {
	const src = `
function __Boot()
    vsync(1)
`
	_, err := CompileSource(src, "bad.corelx", nil)
	if err == nil {
		t.Fatalf("expected compile error for wrong argument count")
	}
	derr, ok := err.(*DiagnosticsError)
	if !ok {
		t.Fatalf("expected *DiagnosticsError, got %T", err)
	}
	if len(derr.Diagnostics) == 0 {
		t.Fatalf("expected at least one diagnostic")
	}
}

func TestCompileUnknownFunctionCallIsDiagnostic(t *testing.T) {
	const src = `
function __Boot()
    nope()
`
	_, err := CompileSource(src, "bad2.corelx", nil)
	if err == nil {
		t.Fatalf("expected compile error for unknown function")
	}
}

func TestCompileManifestReportsEntryOffset(t *testing.T) {
	const src = `
function __Boot()
    while true
        vsync()
`
	result, err := CompileSource(src, "manifest.corelx", nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if result.Manifest == nil {
		t.Fatalf("expected manifest")
	}
	if result.Manifest.EntryOffset != 0x2000 {
		t.Fatalf("entry offset = 0x%04X, want 0x2000", result.Manifest.EntryOffset)
	}
}
