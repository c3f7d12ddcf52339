package debug

import (
	"github.com/barryw/novavm/internal/cpu"
)

// CPUTrace adapts a Logger to the cpu.Logger contract, letting the CPU core
// emit one structured entry per retired instruction without importing this
// package.
type CPUTrace struct {
	logger *Logger
	level  LogLevel
}

// NewCPUTrace returns a cpu.Logger that forwards instruction retirement
// events to logger at the given level.
func NewCPUTrace(logger *Logger, level LogLevel) *CPUTrace {
	return &CPUTrace{logger: logger, level: level}
}

func (t *CPUTrace) LogCPU(pc uint16, opcode uint8, mnemonic string, cycles int, state cpu.State) {
	t.logger.LogCPU(t.level, mnemonic, map[string]interface{}{
		"pc":     pc,
		"opcode": opcode,
		"cycles": cycles,
		"a":      state.A,
		"x":      state.X,
		"y":      state.Y,
		"sp":     state.SP,
		"p":      state.P,
	})
}
