package core

import "fmt"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	if writer == nil {
		writer = func(string) {}
	}
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled {
		debugPrintln(msg)
	}
}

// Debugf formats a debug message. The format is only evaluated when debug
// output is enabled.
func Debugf(format string, args ...any) {
	if debugEnabled {
		debugPrintln(fmt.Sprintf(format, args...))
	}
}

// DebugError reports a failed operation on the debug writer and returns
// err unchanged. A nil err prints nothing.
func DebugError(op string, err error) error {
	if err != nil {
		Debugf("[RTC] %s: %v", op, err)
	}
	return err
}
