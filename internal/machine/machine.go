// Package machine wires the bus fabric, every memory-mapped device, the
// CPU core, and the scheduler into one runnable system, reading its device
// base addresses from internal/config instead of the scattered per-test
// constants the device packages were developed against.
package machine

import (
	"github.com/barryw/novavm/internal/blitter"
	"github.com/barryw/novavm/internal/bus"
	"github.com/barryw/novavm/internal/config"
	"github.com/barryw/novavm/internal/cpu"
	"github.com/barryw/novavm/internal/dma"
	"github.com/barryw/novavm/internal/fio"
	"github.com/barryw/novavm/internal/memspace"
	"github.com/barryw/novavm/internal/nic"
	"github.com/barryw/novavm/internal/rom"
	"github.com/barryw/novavm/internal/scheduler"
	"github.com/barryw/novavm/internal/sid"
	"github.com/barryw/novavm/internal/timer"
	"github.com/barryw/novavm/internal/vgc"
	"github.com/barryw/novavm/internal/xram"
)

// Machine is the assembled system: bus, devices, CPU core and scheduler.
type Machine struct {
	Bus       *bus.Bus
	CPU       *cpu.CPU
	VGC       *vgc.VGC
	DMA       *dma.DMA
	Blitter   *blitter.Blitter
	Timer     *timer.Timer
	SID       *sid.Dual
	NIC       *nic.Controller
	FIO       *fio.Controller
	XRAM      *xram.XRAM
	Router    *memspace.Router
	Scheduler *scheduler.Scheduler

	// sidPlayer is the PSID player installed by the last music-play command;
	// sidPriorIRQVector/sidPriorRasterCtrl save what it overwrote so
	// music-stop can put the machine back exactly as it found it.
	sidPlayer          *sid.Player
	sidPriorIRQVector  uint16
	sidPriorRasterCtrl uint8
}

func variantFor(name string) cpu.Variant {
	switch name {
	case "nmos":
		return cpu.NMOS
	case "nmos6510":
		return cpu.NMOS6510
	default:
		return cpu.CMOS
	}
}

// New assembles a Machine from cfg and two pre-built ROM images.
func New(cfg config.MachineConfig, basicROM, nativeROM [bus.ROMSize]uint8, now func() int64) *Machine {
	ram := bus.NewRAM()
	rom := bus.NewROM(basicROM, nativeROM)
	ramAccessor := bus.NewRAMAccessor(ram, rom)

	v := vgc.New(cfg.Devices.VGCBase)
	x := xram.New(cfg.Devices.XRAMSize)
	router := memspace.NewRouter(ramAccessor, v.Accessor(), x)

	d := dma.New(cfg.Devices.DMABase, router)
	bl := blitter.New(cfg.Devices.BlitterBase, router)
	tm := timer.New(cfg.Devices.TimerBase)
	dualSID := sid.NewDual(cfg.Devices.SIDBase)

	b := bus.New(ram, rom, v, d, bl, tm, dualSID)
	n := nic.New(cfg.Devices.NICBase, b)
	f := fio.New(cfg.Devices.FIOBase, b, cfg.Storage.ProgramDir, router)

	c := cpu.NewCPU(b, variantFor(cfg.CPU.Variant))

	m := &Machine{
		Bus:       b,
		CPU:       c,
		VGC:       v,
		DMA:       d,
		Blitter:   bl,
		Timer:     tm,
		SID:       dualSID,
		NIC:       n,
		FIO:       f,
		XRAM:      x,
		Router:    router,
		Scheduler: scheduler.New(cfg.Scheduler.FrequencyHz, now),
	}
	m.Scheduler.SetBacklogCap(cfg.Scheduler.BacklogCap)

	tm.OnIRQ(c.TriggerIRQ)
	v.OnRasterIRQ(c.TriggerIRQ)
	n.OnIRQ(c.TriggerIRQ)

	b.WriteVectorTable(
		bus.VectorTableEntry{Offset: bus.VectorTableBase + 0, Value: cfg.Devices.VGCBase},
		bus.VectorTableEntry{Offset: bus.VectorTableBase + 2, Value: cfg.Devices.VGCBase + uint16(vgc.RegCommand)},
		bus.VectorTableEntry{Offset: bus.VectorTableBase + 4, Value: uint16(memspace.VGCChar)},
		bus.VectorTableEntry{Offset: bus.VectorTableBase + 6, Value: uint16(memspace.VGCColor)},
		bus.VectorTableEntry{Offset: bus.VectorTableBase + 8, Value: cfg.Devices.SIDBase},
		bus.VectorTableEntry{Offset: bus.VectorTableBase + 10, Value: cfg.Devices.FIOBase},
	)

	f.OnSIDPlay(func(data []byte) error {
		mod, err := sid.ParsePSID(data)
		if err != nil {
			return err
		}
		player := sid.NewPlayer(mod)
		player.Load(b)
		player.InstallTrampoline(b, uint8(mod.Header.StartSong))

		m.sidPriorIRQVector = b.Read16(cpu.VectorIRQ)
		m.sidPriorRasterCtrl = v.Read(cfg.Devices.VGCBase + vgc.RegRasterCtrl)

		b.Write16(cpu.VectorIRQ, sid.PlayIRQEntry())
		v.Write(cfg.Devices.VGCBase+vgc.RegRasterLine, uint8(vgc.VBlankStartLine))
		v.Write(cfg.Devices.VGCBase+vgc.RegRasterCtrl, m.sidPriorRasterCtrl|0x01)

		m.sidPlayer = player
		return nil
	})

	f.OnSIDStop(func() {
		b.Write16(cpu.VectorIRQ, m.sidPriorIRQVector)
		v.Write(cfg.Devices.VGCBase+vgc.RegRasterCtrl, m.sidPriorRasterCtrl)
		if m.sidPlayer != nil {
			m.sidPlayer.Stop(dualSID.Left)
			m.sidPlayer.Stop(dualSID.Right)
			m.sidPlayer = nil
		}
	})

	return m
}

// Boot resets the CPU, optionally at an explicit entry point (nil uses the
// reset vector already burned into ROM).
func (m *Machine) Boot(entry *uint16) { m.CPU.Boot(entry) }

// Run drains up to max cycles of wall-clock-derived budget (nil for
// unbounded), executing CPU instructions and advancing every cycle-driven
// device by exactly the cycles each instruction took, keeping every
// cycle-driven device's timeline consistent with the CPU's. It returns the
// number of cycles actually run.
func (m *Machine) Run(max *uint64) uint64 {
	budget := m.Scheduler.TakeCycleBudget(max)
	var spent uint64
	for spent < budget && !m.CPU.Halted() {
		cycles := uint64(m.CPU.ExecuteNext())
		m.advanceDevices(int(cycles))
		spent += cycles
	}
	return spent
}

// FeedKey deposits a key code into the runtime ROM's single-slot keyboard
// buffer, where the get-key/wait-key jump-table helpers poll for it. A
// code fed before the previous one is consumed overwrites it, matching the
// single-slot buffer of a real 8-bit micro's keyboard latch.
func (m *Machine) FeedKey(code uint8) {
	m.Bus.Write(rom.KeyCode, code)
	m.Bus.Write(rom.KeyReady, 1)
}

func (m *Machine) advanceDevices(cycles int) {
	m.VGC.Advance(cycles)
	m.Timer.AdvanceCycles(cycles)
	m.SID.AdvanceStereo(cycles)
}
