package devkit

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/barryw/novavm/internal/config"
	"github.com/barryw/novavm/internal/corelx"
	"github.com/barryw/novavm/internal/machine"
	"github.com/barryw/novavm/internal/rom"
)

type BuildArtifacts struct {
	ROMPath         string `json:"rom_path"`
	ManifestPath    string `json:"manifest_path"`
	DiagnosticsPath string `json:"diagnostics_path"`
	BundlePath      string `json:"bundle_path"`
}

type BuildResult struct {
	Bundle     corelx.CompileBundle  `json:"bundle"`
	Result     *corelx.CompileResult `json:"-"`
	Artifacts  BuildArtifacts        `json:"artifacts"`
	Elapsed    time.Duration         `json:"-"`
	SourcePath string                `json:"source_path"`
}

// MachineSnapshot is the UI-agnostic view of a loaded machine's run state.
type MachineSnapshot struct {
	Loaded     bool
	Running    bool
	Paused     bool
	CycleCount uint64
}

type TickResult struct {
	Snapshot      MachineSnapshot `json:"snapshot"`
	FramesStepped int             `json:"frames_stepped"`
	PresentFrame  bool            `json:"present_frame"`
	Framebuffer   []uint32        `json:"-"`
	AudioFrames   [][]int16       `json:"-"`
}

// CPURegistersSnapshot mirrors the 6502's architectural register file, not
// a banked accumulator-bank layout: there is one A/X/Y/SP/PC/P, no PBR/DBR.
type CPURegistersSnapshot struct {
	Loaded bool
	A      uint8
	X      uint8
	Y      uint8
	SP     uint8
	PC     uint16
	Flags  uint8
	Cycles uint64
}

// Backend defines the UI-agnostic Dev Kit contract intended for frontend
// wrappers. Frontends may be rewritten freely as long as they target this
// contract (or a compatible superset) and preserve machine input/output
// semantics.
type Backend interface {
	TempDir() string
	BuildSource(source, sourcePath string) (*BuildResult, error)
	LoadROMBytes(romBytes []byte, entry uint16) error
	Shutdown()
	Snapshot() MachineSnapshot
	ResetMachine(entry uint16) error
	TogglePause() (bool, error)
	FeedKey(code uint8)
	RunFrame() error
	StepFrame(frames int) error
	StepCPU(steps int) error
	Tick(delta time.Duration) (TickResult, error)
	FramebufferCopy() []uint32
	AudioSamplesFixedCopy() []int16
	GetRegisters() CPURegistersSnapshot
}

// Service is the UI-agnostic Dev Kit backend wrapper. It owns the compiler
// service and an embedded machine session, driving the CPU and its
// cycle-advanced devices one instruction at a time so it can sink a
// continuous audio stream for preview the way the production Run loop
// (internal/machine.Machine.Run) doesn't need to.
type Service struct {
	tempDir string

	compiler *corelx.Service

	mu              sync.RWMutex
	m               *machine.Machine
	running         bool
	paused          bool
	cyclesPerFrame  uint64
	tickAccumulator time.Duration
	audioBuf        []int16
}

var _ Backend = (*Service)(nil)

func NewService(tempDir string) *Service {
	return &Service{
		tempDir:  tempDir,
		compiler: corelx.NewService(),
	}
}

func (s *Service) TempDir() string {
	return s.tempDir
}

func (s *Service) BuildSource(source, sourcePath string) (*BuildResult, error) {
	if sourcePath == "" {
		sourcePath = "untitled.corelx"
	}
	artifactBase := strings.TrimSuffix(baseNameOr(sourcePath, "untitled.corelx"), filepath.Ext(sourcePath))
	if artifactBase == "" {
		artifactBase = "untitled"
	}

	artifacts := BuildArtifacts{
		ROMPath:         filepath.Join(s.tempDir, artifactBase+".rom"),
		ManifestPath:    filepath.Join(s.tempDir, artifactBase+".manifest.json"),
		DiagnosticsPath: filepath.Join(s.tempDir, artifactBase+".diagnostics.json"),
		BundlePath:      filepath.Join(s.tempDir, artifactBase+".bundle.json"),
	}

	start := time.Now()
	opts := &corelx.CompileOptions{
		OutputPath:            artifacts.ROMPath,
		ManifestOutputPath:    artifacts.ManifestPath,
		DiagnosticsOutputPath: artifacts.DiagnosticsPath,
		BundleOutputPath:      artifacts.BundlePath,
		EmitROMBytes:          true,
		EmitManifestJSON:      true,
		EmitDiagnosticsJSON:   true,
		EmitBundleJSON:        true,
	}
	bundle, res, err := s.compiler.CompileBundleSource(source, sourcePath, opts)
	return &BuildResult{
		Bundle:     bundle,
		Result:     res,
		Artifacts:  artifacts,
		Elapsed:    time.Since(start),
		SourcePath: sourcePath,
	}, err
}

// LoadROMBytes assembles a fresh machine around cfg's default device
// layout, burns a freshly built runtime ROM into both ROM image slots (the
// jump table must stay resident no matter which slot bus.ROMSwapRegister
// selects), writes romBytes into RAM at entry, and boots the CPU there.
// Compiled CoreLX programs are RAM-resident (see internal/corelx/compiler.go),
// never packed into the swappable ROM window themselves.
func (s *Service) LoadROMBytes(romBytes []byte, entry uint16) error {
	if len(romBytes) == 0 {
		return fmt.Errorf("empty ROM bytes")
	}
	if int(entry)+len(romBytes) > 0x10000 {
		return fmt.Errorf("rom bytes overflow address space at entry 0x%04X", entry)
	}

	cfg := config.Default()
	runtimeROM, err := rom.Build(rom.DeviceAddresses{
		VGCBase: cfg.Devices.VGCBase,
		SIDBase: cfg.Devices.SIDBase,
		FIOBase: cfg.Devices.FIOBase,
	})
	if err != nil {
		return fmt.Errorf("build runtime rom: %w", err)
	}

	m := machine.New(cfg, runtimeROM, runtimeROM, func() int64 { return time.Now().UnixNano() })
	for i, b := range romBytes {
		m.Bus.Write(entry+uint16(i), b)
	}
	e := entry
	m.Boot(&e)

	s.mu.Lock()
	s.m = m
	s.running = true
	s.paused = false
	s.cyclesPerFrame = cfg.Scheduler.FrequencyHz / 60
	s.tickAccumulator = 0
	s.audioBuf = s.audioBuf[:0]
	s.mu.Unlock()
	return nil
}

func (s *Service) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m = nil
	s.running = false
	s.paused = false
	s.audioBuf = nil
}

func (s *Service) Snapshot() MachineSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.m == nil {
		return MachineSnapshot{}
	}
	return MachineSnapshot{
		Loaded:     true,
		Running:    s.running,
		Paused:     s.paused,
		CycleCount: s.m.CPU.State.Cycles,
	}
}

func (s *Service) ResetMachine(entry uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		return fmt.Errorf("no ROM loaded")
	}
	e := entry
	s.m.Boot(&e)
	s.running = true
	s.tickAccumulator = 0
	s.audioBuf = s.audioBuf[:0]
	return nil
}

func (s *Service) TogglePause() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		return false, fmt.Errorf("no ROM loaded")
	}
	s.paused = !s.paused
	return s.paused, nil
}

func (s *Service) FeedKey(code uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		return
	}
	s.m.FeedKey(code)
}

// runCycles steps the CPU and its cycle-driven devices up to budget cycles
// (or until the CPU halts), mirroring internal/machine.Machine's own
// advanceDevices ordering, and returns the interleaved stereo samples
// produced along the way.
func (s *Service) runCycles(budget uint64) []int16 {
	var spent uint64
	samples := make([]int16, 0, budget/64)
	for spent < budget && !s.m.CPU.Halted() {
		cycles := s.m.CPU.ExecuteNext()
		s.m.VGC.Advance(cycles)
		s.m.Timer.AdvanceCycles(cycles)
		left, right := s.m.SID.AdvanceStereo(cycles)
		samples = append(samples, left, right)
		spent += uint64(cycles)
	}
	return samples
}

func (s *Service) RunFrame() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		return fmt.Errorf("no ROM loaded")
	}
	if s.paused {
		return nil
	}
	s.audioBuf = append(s.audioBuf, s.runCycles(s.cyclesPerFrame)...)
	return nil
}

func (s *Service) StepFrame(frames int) error {
	if frames <= 0 {
		return fmt.Errorf("frames must be > 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		return fmt.Errorf("no ROM loaded")
	}
	for i := 0; i < frames; i++ {
		s.audioBuf = append(s.audioBuf, s.runCycles(s.cyclesPerFrame)...)
	}
	return nil
}

func (s *Service) StepCPU(steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be > 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		return fmt.Errorf("no ROM loaded")
	}
	for i := 0; i < steps && !s.m.CPU.Halted(); i++ {
		cycles := s.m.CPU.ExecuteNext()
		s.m.VGC.Advance(cycles)
		s.m.Timer.AdvanceCycles(cycles)
		left, right := s.m.SID.AdvanceStereo(cycles)
		s.audioBuf = append(s.audioBuf, left, right)
	}
	return nil
}

func (s *Service) Tick(delta time.Duration) (TickResult, error) {
	const (
		emuHz            = 60
		maxCatchUpFrames = 4
		maxDelta         = 250 * time.Millisecond
	)
	frameStep := time.Second / emuHz

	if delta < 0 {
		delta = 0
	}
	if delta > maxDelta {
		delta = maxDelta
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out TickResult
	if s.m == nil {
		return out, nil
	}

	if s.paused {
		out.Snapshot = MachineSnapshot{Loaded: true, Running: s.running, Paused: true, CycleCount: s.m.CPU.State.Cycles}
		out.PresentFrame = true
		out.Framebuffer = copyFramebufferLocked(s.m)
		return out, nil
	}

	s.tickAccumulator += delta
	maxAccum := frameStep * maxCatchUpFrames
	if s.tickAccumulator > maxAccum {
		s.tickAccumulator = maxAccum
	}

	audioFrames := make([][]int16, 0, maxCatchUpFrames)
	for s.tickAccumulator >= frameStep && out.FramesStepped < maxCatchUpFrames {
		samples := s.runCycles(s.cyclesPerFrame)
		s.audioBuf = append(s.audioBuf, samples...)
		audioFrames = append(audioFrames, samples)
		s.tickAccumulator -= frameStep
		out.FramesStepped++
	}

	out.Snapshot = MachineSnapshot{Loaded: true, Running: s.running, Paused: false, CycleCount: s.m.CPU.State.Cycles}
	out.AudioFrames = audioFrames
	if out.FramesStepped > 0 {
		out.PresentFrame = true
		out.Framebuffer = copyFramebufferLocked(s.m)
	}
	return out, nil
}

func (s *Service) FramebufferCopy() []uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.m == nil {
		return nil
	}
	return copyFramebufferLocked(s.m)
}

func (s *Service) AudioSamplesFixedCopy() []int16 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.m == nil {
		return nil
	}
	dst := make([]int16, len(s.audioBuf))
	copy(dst, s.audioBuf)
	return dst
}

func (s *Service) GetRegisters() CPURegistersSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.m == nil {
		return CPURegistersSnapshot{}
	}
	st := s.m.CPU.State
	return CPURegistersSnapshot{
		Loaded: true,
		A:      st.A,
		X:      st.X,
		Y:      st.Y,
		SP:     st.SP,
		PC:     st.PC,
		Flags:  st.P,
		Cycles: st.Cycles,
	}
}

func baseNameOr(path, fallback string) string {
	if path == "" {
		return fallback
	}
	b := filepath.Base(path)
	if b == "." || b == string(filepath.Separator) || b == "" {
		return fallback
	}
	return b
}

func copyFramebufferLocked(m *machine.Machine) []uint32 {
	dst := make([]uint32, len(m.VGC.Framebuffer))
	copy(dst, m.VGC.Framebuffer[:])
	return dst
}
