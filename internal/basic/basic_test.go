package basic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/barryw/novavm/internal/basic"
)

type flatMem struct {
	cells [65536]uint8
}

func (m *flatMem) Read(addr uint16) uint8     { return m.cells[addr] }
func (m *flatMem) Write(addr uint16, v uint8) { m.cells[addr] = v }

func TestTokenizeDetokenizeRoundTrip(t *testing.T) {
	src := `PRINT "HELLO" `
	tokens := basic.Tokenize(src)
	out := basic.Detokenize(tokens)
	assert.Equal(t, src, out)
}

func TestTokenizeLeavesStringLiteralsVerbatim(t *testing.T) {
	src := `PRINT "GOTO AND FOR ARE NOT KEYWORDS HERE"`
	tokens := basic.Tokenize(src)
	assert.Contains(t, string(tokens), "GOTO AND FOR ARE NOT KEYWORDS HERE")
}

func TestNormalizeUppercasesOutsideQuotes(t *testing.T) {
	assert.Equal(t, `PRINT "hello"`, basic.Normalize(`print "hello"`))
}

func TestEnterInsertsInLineNumberOrder(t *testing.T) {
	var p basic.Program
	p.Enter(20, "PRINT \"B\" ")
	p.Enter(10, "PRINT \"A\" ")
	p.Enter(30, "PRINT \"C\" ")

	lines := p.Lines()
	assert.Equal(t, []uint16{10, 20, 30}, []uint16{lines[0].Number, lines[1].Number, lines[2].Number})
}

func TestEnterReplacesExistingLineNumber(t *testing.T) {
	var p basic.Program
	p.Enter(10, "PRINT \"A\" ")
	p.Enter(10, "PRINT \"B\" ")

	lines := p.Lines()
	assert.Len(t, lines, 1)
	assert.Equal(t, "PRINT \"B\" ", basic.Detokenize(lines[0].Tokens))
}

func TestEnterWithEmptyBodyDeletesLine(t *testing.T) {
	var p basic.Program
	p.Enter(10, "PRINT \"A\" ")
	p.Enter(10, "")
	assert.Len(t, p.Lines(), 0)
}

func TestListIsByteIdenticalRoundTrip(t *testing.T) {
	var p basic.Program
	entered := "PRINT \"HELLO\" "
	p.Enter(10, entered)
	expected := "10 " + entered + "\n"
	assert.Equal(t, expected, p.List())
}

func TestRAMRoundTripPreservesAllLines(t *testing.T) {
	var p basic.Program
	p.Enter(10, "PRINT \"A\" ")
	p.Enter(20, "FOR I = 1 TO 10")
	p.Enter(30, "NEXT ")

	mem := &flatMem{}
	p.WriteToRAM(mem, 0x1000)

	loaded := basic.ReadFromRAM(mem, 0x1000)
	assert.Equal(t, p.List(), loaded.List())
}
