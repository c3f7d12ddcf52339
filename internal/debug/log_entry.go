package debug

import (
	"fmt"
	"time"

	"github.com/davecgh/go-spew/spew"
)

// LogLevel represents the severity level of a log entry
type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelError
	LogLevelWarning
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

// String returns the string representation of a log level
func (l LogLevel) String() string {
	switch l {
	case LogLevelNone:
		return "NONE"
	case LogLevelError:
		return "ERROR"
	case LogLevelWarning:
		return "WARNING"
	case LogLevelInfo:
		return "INFO"
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelTrace:
		return "TRACE"
	default:
		return "UNKNOWN"
	}
}

// Component represents the subsystem that generated a log entry.
type Component string

const (
	ComponentCPU      Component = "CPU"
	ComponentBus      Component = "Bus"
	ComponentVGC      Component = "VGC"
	ComponentSID      Component = "SID"
	ComponentDMA      Component = "DMA"
	ComponentBlitter  Component = "Blitter"
	ComponentTimer    Component = "Timer"
	ComponentNIC      Component = "NIC"
	ComponentFIO      Component = "FIO"
	ComponentCompiler Component = "Compiler"
	ComponentSystem   Component = "System"
)

// LogEntry represents a single log entry
type LogEntry struct {
	Timestamp time.Time
	Component Component
	Level     LogLevel
	Message   string
	Data      map[string]interface{} // Optional structured data
}

// Format formats the log entry as a one-line string.
func (e *LogEntry) Format() string {
	timestamp := e.Timestamp.Format("15:04:05.000")
	return fmt.Sprintf("[%s] [%s] %s: %s", timestamp, e.Component, e.Level, e.Message)
}

// FormatVerbose appends a spew dump of the entry's structured data, useful
// when a one-liner doesn't show enough of a register snapshot to diagnose
// a timing bug.
func (e *LogEntry) FormatVerbose() string {
	if len(e.Data) == 0 {
		return e.Format()
	}
	return e.Format() + "\n" + spew.Sdump(e.Data)
}
