package debug

import (
	"fmt"
	"os"
	"sync"

	"github.com/barryw/novavm/internal/cpu"
)

// MemoryReader is the minimal bus contract the cycle logger needs to sample
// memory-mapped device registers alongside CPU state.
type MemoryReader interface {
	Read(addr uint16) uint8
}

// WatchedAddresses names the bus addresses sampled on every logged cycle,
// keyed by the label that appears in the log line.
type WatchedAddresses map[string]uint16

// CycleLogger logs CPU register state and a caller-chosen set of bus
// addresses for each retired instruction. Useful for chasing
// timing-sensitive bugs across the VGC raster line, the SID envelope
// registers, or the timer divisor.
type CycleLogger struct {
	file         *os.File
	maxCycles    uint64
	startCycle   uint64 // start logging after this many cycles
	currentCycle uint64
	totalCycles  uint64
	enabled      bool
	mu           sync.Mutex

	bus     MemoryReader
	watched WatchedAddresses
}

// NewCycleLogger creates a new cycle logger.
// maxCycles: maximum number of cycles to log (0 = unlimited, use with caution)
// startCycle: start logging after this many cycles (0 = start immediately)
func NewCycleLogger(filename string, maxCycles uint64, startCycle uint64, bus MemoryReader, watched WatchedAddresses) (*CycleLogger, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create cycle log file: %w", err)
	}

	logger := &CycleLogger{
		file:       file,
		maxCycles:  maxCycles,
		startCycle: startCycle,
		enabled:    true,
		bus:        bus,
		watched:    watched,
	}

	fmt.Fprintf(file, "Cycle-by-Cycle Debug Log\n")
	fmt.Fprintf(file, "========================\n\n")
	if startCycle > 0 {
		fmt.Fprintf(file, "Start cycle offset: %d\n", startCycle)
	}
	if maxCycles > 0 {
		fmt.Fprintf(file, "Max cycles to log: %d\n", maxCycles)
	}
	fmt.Fprintf(file, "\nFormat: Cycle | PC | A X Y SP P | Watched addresses\n\n")

	return logger, nil
}

// LogCycle logs CPU state and the watched addresses for one retired
// instruction.
func (c *CycleLogger) LogCycle(state cpu.State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled {
		return
	}

	c.totalCycles++

	if c.totalCycles < c.startCycle {
		return
	}

	if c.maxCycles > 0 && c.currentCycle >= c.maxCycles {
		c.enabled = false
		return
	}

	c.currentCycle++

	fmt.Fprintf(c.file, "Cycle %8d | PC:%04X | A:%02X X:%02X Y:%02X SP:%02X P:%02X (N:%d V:%d D:%d I:%d Z:%d C:%d)",
		c.totalCycles, state.PC, state.A, state.X, state.Y, state.SP, state.P,
		(state.P>>7)&1, (state.P>>6)&1, (state.P>>3)&1, (state.P>>2)&1, (state.P>>1)&1, state.P&1)

	if c.bus != nil {
		for label, addr := range c.watched {
			fmt.Fprintf(c.file, " | %s:%02X", label, c.bus.Read(addr))
		}
	}
	fmt.Fprintln(c.file)
}

// SetEnabled enables or disables logging
func (c *CycleLogger) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}

// Toggle toggles logging on/off
func (c *CycleLogger) Toggle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = !c.enabled
}

// Close closes the log file
func (c *CycleLogger) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.enabled = false

	if c.file != nil {
		fmt.Fprintf(c.file, "\n\nLog complete. Total cycles logged: %d\n", c.currentCycle)
		err := c.file.Close()
		c.file = nil
		return err
	}
	return nil
}

// IsEnabled returns whether logging is enabled
func (c *CycleLogger) IsEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled && (c.maxCycles == 0 || c.currentCycle < c.maxCycles)
}

// GetStatus returns the current logging status
func (c *CycleLogger) GetStatus() (enabled bool, currentCycle uint64, totalCycles uint64, maxCycles uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled, c.currentCycle, c.totalCycles, c.maxCycles
}
