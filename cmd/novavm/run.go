package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/barryw/novavm/internal/config"
	"github.com/barryw/novavm/internal/corelx"
	"github.com/barryw/novavm/internal/machine"
	"github.com/barryw/novavm/internal/rom"
)

const refreshRate = 60

var (
	runEntryFlag  string
	runFramesFlag int
	runConfigFlag string
	runQuietFlag  bool
)

var runCmd = &cobra.Command{
	Use:   "run `path/to/program`",
	Short: "compile (if needed) and run a program on the emulated machine",
	Args:  cobra.ExactArgs(1),
	Run:   runMachine,
}

func init() {
	runCmd.Flags().StringVar(&runEntryFlag, "entry", "", "RAM entry address in hex, e.g. 0x2000 (defaults to the compiled program's entry offset, or 0x2000 for raw images)")
	runCmd.Flags().IntVar(&runFramesFlag, "frames", 0, "stop after this many 60Hz frames (0 runs until halt or interrupt)")
	runCmd.Flags().StringVar(&runConfigFlag, "config", "", "path to a machine config YAML file (defaults to the built-in configuration)")
	runCmd.Flags().BoolVar(&runQuietFlag, "quiet", false, "suppress per-second status output")
}

func runMachine(cmd *cobra.Command, args []string) {
	path := args[0]

	cfg := config.Default()
	if runConfigFlag != "" {
		loaded, err := config.Load(runConfigFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error loading config %s: %v\n", runConfigFlag, err)
			os.Exit(1)
		}
		cfg = loaded
	}

	programBytes, entry, err := loadProgram(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading program: %v\n", err)
		os.Exit(1)
	}
	if runEntryFlag != "" {
		parsed, err := strconv.ParseUint(strings.TrimPrefix(runEntryFlag, "0x"), 16, 16)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid --entry %q: %v\n", runEntryFlag, err)
			os.Exit(1)
		}
		entry = uint16(parsed)
	}
	if int(entry)+len(programBytes) > 0x10000 {
		fmt.Fprintf(os.Stderr, "program of %d bytes overflows the address space at entry 0x%04X\n", len(programBytes), entry)
		os.Exit(1)
	}

	runtimeROM, err := rom.Build(rom.DeviceAddresses{
		VGCBase: cfg.Devices.VGCBase,
		SIDBase: cfg.Devices.SIDBase,
		FIOBase: cfg.Devices.FIOBase,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error building runtime rom: %v\n", err)
		os.Exit(1)
	}

	m := machine.New(cfg, runtimeROM, runtimeROM, func() int64 { return time.Now().UnixNano() })
	for i, b := range programBytes {
		m.Bus.Write(entry+uint16(i), b)
	}
	bootEntry := entry
	m.Boot(&bootEntry)

	fmt.Printf("novavm: loaded %s (%d bytes) at 0x%04X\n", path, len(programBytes), entry)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	cyclesPerFrame := cfg.Scheduler.FrequencyHz / refreshRate
	ticker := time.NewTicker(time.Second / refreshRate)
	defer ticker.Stop()

	statusTicker := time.NewTicker(time.Second)
	defer statusTicker.Stop()

	frames := 0
	for {
		select {
		case <-shutdown:
			fmt.Println("novavm: interrupt received, shutting down")
			return
		case <-statusTicker.C:
			if !runQuietFlag {
				fmt.Printf("novavm: frame %d, cycles %d\n", frames, m.CPU.State.Cycles)
			}
		case <-ticker.C:
			if m.CPU.Halted() {
				fmt.Printf("novavm: halted at 0x%04X after %d cycles\n", m.CPU.State.PC, m.CPU.State.Cycles)
				return
			}
			budget := cyclesPerFrame
			m.Run(&budget)
			frames++
			if runFramesFlag > 0 && frames >= runFramesFlag {
				fmt.Printf("novavm: stopped after %d frames, %d cycles\n", frames, m.CPU.State.Cycles)
				return
			}
		}
	}
}

// loadProgram reads path and returns its bytes plus a default entry address.
// A .corelx source is compiled first; anything else is treated as a raw
// machine-code image loaded verbatim at its default entry offset.
func loadProgram(path string) ([]byte, uint16, error) {
	if strings.EqualFold(filepath.Ext(path), ".corelx") {
		source, err := os.ReadFile(path)
		if err != nil {
			return nil, 0, err
		}
		result, err := corelx.CompileSource(string(source), path, nil)
		if err != nil {
			return nil, 0, err
		}
		return result.ROMBytes, result.Manifest.EntryOffset, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	return data, 0x2000, nil
}
