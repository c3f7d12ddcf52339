package devkit

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testEntryOffset = 0x2000

// idleLoop is a minimal program that does useful work once (so PC and
// cycle assertions have something to observe) then busy-waits forever in
// vsync rather than falling through the function epilogue's RTS with an
// empty call stack.
const idleLoopSource = `
function Start()
    x := 1
    while true
        vsync()
`

func TestServiceBuildSourceSuccessArtifacts(t *testing.T) {
	tmpDir := t.TempDir()
	svc := NewService(tmpDir)

	build, err := svc.BuildSource(idleLoopSource, "main.corelx")
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	if build == nil {
		t.Fatalf("expected build result")
	}
	if !build.Bundle.Success {
		t.Fatalf("expected successful bundle: %+v", build.Bundle)
	}
	if build.Result == nil || len(build.Result.ROMBytes) == 0 {
		t.Fatalf("expected ROM bytes in build result")
	}
	if build.Result.Manifest == nil {
		t.Fatalf("expected manifest in build result")
	}
	for _, p := range []string{build.Artifacts.ROMPath, build.Artifacts.ManifestPath, build.Artifacts.DiagnosticsPath, build.Artifacts.BundlePath} {
		if p == "" {
			t.Fatalf("expected artifact path")
		}
		if filepath.Dir(p) != tmpDir {
			t.Fatalf("expected artifact under temp dir %q, got %q", tmpDir, p)
		}
		if _, statErr := os.Stat(p); statErr != nil {
			t.Fatalf("expected artifact file %q: %v", p, statErr)
		}
	}
}

func TestServiceBuildSourceErrorDiagnostics(t *testing.T) {
	tmpDir := t.TempDir()
	svc := NewService(tmpDir)

	src := "function Nope()\n    nonexistent_builtin()\n"
	build, err := svc.BuildSource(src, "bad.corelx")
	if err == nil {
		t.Fatalf("expected build error")
	}
	if build == nil {
		t.Fatalf("expected build result with diagnostics")
	}
	if build.Bundle.Success {
		t.Fatalf("expected failed bundle")
	}
	if build.Bundle.Summary.ErrorCount == 0 {
		t.Fatalf("expected error count > 0")
	}
	if len(build.Bundle.Diagnostics) == 0 {
		t.Fatalf("expected diagnostics in bundle")
	}
	if _, statErr := os.Stat(build.Artifacts.DiagnosticsPath); statErr != nil {
		t.Fatalf("expected diagnostics artifact file: %v", statErr)
	}
}

func TestServiceMachineSessionSmoke(t *testing.T) {
	tmpDir := t.TempDir()
	svc := NewService(tmpDir)
	defer svc.Shutdown()

	build, err := svc.BuildSource(idleLoopSource, "session.corelx")
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	if build == nil || build.Result == nil || len(build.Result.ROMBytes) == 0 {
		t.Fatalf("expected compiled ROM bytes")
	}

	if err := svc.LoadROMBytes(build.Result.ROMBytes, testEntryOffset); err != nil {
		t.Fatalf("load rom bytes: %v", err)
	}

	snap := svc.Snapshot()
	if !snap.Loaded || !snap.Running {
		t.Fatalf("expected loaded/running snapshot, got %+v", snap)
	}
	if snap.Paused {
		t.Fatalf("expected not paused initially")
	}

	svc.FeedKey(0x41)
	if err := svc.RunFrame(); err != nil {
		t.Fatalf("run frame: %v", err)
	}
	snap = svc.Snapshot()
	if snap.CycleCount == 0 {
		t.Fatalf("expected cycle count > 0 after RunFrame")
	}

	fb := svc.FramebufferCopy()
	if len(fb) != 320*200 {
		t.Fatalf("unexpected framebuffer length: %d", len(fb))
	}
	audio := svc.AudioSamplesFixedCopy()
	if len(audio) == 0 {
		t.Fatalf("expected non-empty audio buffer")
	}

	paused, err := svc.TogglePause()
	if err != nil {
		t.Fatalf("toggle pause: %v", err)
	}
	if !paused {
		t.Fatalf("expected paused=true on first toggle")
	}
	paused, err = svc.TogglePause()
	if err != nil {
		t.Fatalf("toggle pause (resume): %v", err)
	}
	if paused {
		t.Fatalf("expected paused=false on second toggle")
	}
	if err := svc.ResetMachine(testEntryOffset); err != nil {
		t.Fatalf("reset machine: %v", err)
	}

	svc.Shutdown()
	snap = svc.Snapshot()
	if snap.Loaded {
		t.Fatalf("expected unloaded snapshot after shutdown, got %+v", snap)
	}
}

func TestServiceTickReturnsFrameAndAudio(t *testing.T) {
	tmpDir := t.TempDir()
	svc := NewService(tmpDir)
	defer svc.Shutdown()

	build, err := svc.BuildSource(idleLoopSource, "tick.corelx")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := svc.LoadROMBytes(build.Result.ROMBytes, testEntryOffset); err != nil {
		t.Fatalf("load rom: %v", err)
	}

	tick, err := svc.Tick(time.Second / 60)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if !tick.Snapshot.Loaded {
		t.Fatalf("expected loaded snapshot")
	}
	if tick.FramesStepped == 0 {
		t.Fatalf("expected at least one stepped frame")
	}
	if !tick.PresentFrame {
		t.Fatalf("expected present frame")
	}
	if len(tick.Framebuffer) != 320*200 {
		t.Fatalf("unexpected framebuffer length: %d", len(tick.Framebuffer))
	}
	if len(tick.AudioFrames) != tick.FramesStepped {
		t.Fatalf("expected audio frames == frames stepped, got %d vs %d", len(tick.AudioFrames), tick.FramesStepped)
	}
}

func TestServiceTickPausedPresentsWithoutStepping(t *testing.T) {
	tmpDir := t.TempDir()
	svc := NewService(tmpDir)
	defer svc.Shutdown()

	build, err := svc.BuildSource(idleLoopSource, "tick_pause.corelx")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := svc.LoadROMBytes(build.Result.ROMBytes, testEntryOffset); err != nil {
		t.Fatalf("load rom: %v", err)
	}

	if _, err := svc.TogglePause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	tick, err := svc.Tick(time.Second / 60)
	if err != nil {
		t.Fatalf("tick paused: %v", err)
	}
	if tick.FramesStepped != 0 {
		t.Fatalf("expected no stepped frames while paused, got %d", tick.FramesStepped)
	}
	if !tick.Snapshot.Paused {
		t.Fatalf("expected paused snapshot")
	}
	if !tick.PresentFrame {
		t.Fatalf("expected present frame on paused refresh")
	}
}

func TestServiceStepFrameWhilePaused(t *testing.T) {
	tmpDir := t.TempDir()
	svc := NewService(tmpDir)
	defer svc.Shutdown()

	build, err := svc.BuildSource(idleLoopSource, "step_frame.corelx")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := svc.LoadROMBytes(build.Result.ROMBytes, testEntryOffset); err != nil {
		t.Fatalf("load rom: %v", err)
	}
	if _, err := svc.TogglePause(); err != nil {
		t.Fatalf("pause: %v", err)
	}

	before := svc.Snapshot()
	if !before.Paused {
		t.Fatalf("expected paused snapshot before StepFrame")
	}
	if err := svc.StepFrame(1); err != nil {
		t.Fatalf("step frame: %v", err)
	}
	after := svc.Snapshot()
	if !after.Paused {
		t.Fatalf("expected paused=true after StepFrame")
	}
	if after.CycleCount <= before.CycleCount {
		t.Fatalf("expected cycle count to increase, before=%d after=%d", before.CycleCount, after.CycleCount)
	}
}

func TestServiceStepCPUAndSnapshots(t *testing.T) {
	tmpDir := t.TempDir()
	svc := NewService(tmpDir)
	defer svc.Shutdown()

	build, err := svc.BuildSource(idleLoopSource, "step_cpu.corelx")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := svc.LoadROMBytes(build.Result.ROMBytes, testEntryOffset); err != nil {
		t.Fatalf("load rom: %v", err)
	}
	if _, err := svc.TogglePause(); err != nil {
		t.Fatalf("pause: %v", err)
	}

	before := svc.GetRegisters()
	if !before.Loaded {
		t.Fatalf("expected loaded registers")
	}

	if err := svc.StepCPU(1); err != nil {
		t.Fatalf("step cpu: %v", err)
	}

	after := svc.GetRegisters()
	if !after.Loaded {
		t.Fatalf("expected loaded registers after step")
	}
	if after.Cycles <= before.Cycles {
		t.Fatalf("expected cycle count to increase, before=%d after=%d", before.Cycles, after.Cycles)
	}
	if after.PC == before.PC {
		t.Fatalf("expected PC to change after CPU step (0x%04X)", after.PC)
	}
}
