package sid

// Dual wires two Chip instances into one bus device, giving the machine a
// stereo pair: the primary chip drives the left channel and the secondary
// chip, mapped immediately above it, drives the right channel. Because each
// Chip only decodes its low 5 address bits, a secondary chip mapped at an
// offset that isn't a multiple of RegWindowSize would alias into the
// primary's window; Dual always places it exactly RegWindowSize above.
type Dual struct {
	Left  *Chip
	Right *Chip
}

func NewDual(base uint16) *Dual {
	return &Dual{
		Left:  New(base),
		Right: New(base + RegWindowSize),
	}
}

func (d *Dual) Name() string { return "sid-dual" }

func (d *Dual) Owns(addr uint16) bool { return d.Left.Owns(addr) || d.Right.Owns(addr) }

func (d *Dual) Read(addr uint16) uint8 {
	if d.Left.Owns(addr) {
		return d.Left.Read(addr)
	}
	return d.Right.Read(addr)
}

func (d *Dual) Write(addr uint16, v uint8) {
	if d.Left.Owns(addr) {
		d.Left.Write(addr, v)
		return
	}
	d.Right.Write(addr, v)
}

// AdvanceStereo clocks both chips by cycles and returns left/right samples.
func (d *Dual) AdvanceStereo(cycles int) (left, right int16) {
	return d.Left.Advance(cycles), d.Right.Advance(cycles)
}
