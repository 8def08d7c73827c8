//go:build stm32f103

package stm32f103

import (
	"machine"

	"bluepill/core"
)

// DebugBaud is the rate of the console UART
const DebugBaud = 115200

var debugUART *machine.UART

// InitDebugUART configures USART1 (PA9 TX, PA10 RX) and routes core debug
// output to it. It returns the UART so the firmware can print its own log.
func InitDebugUART() *machine.UART {
	debugUART = machine.UART1
	debugUART.Configure(machine.UARTConfig{
		BaudRate: DebugBaud,
		TX:       machine.PA9,
		RX:       machine.PA10,
	})

	core.SetDebugWriter(DebugPrintln)
	return debugUART
}

// DebugPrintln writes a string to the debug UART with newline
func DebugPrintln(s string) {
	if debugUART == nil {
		return
	}
	debugUART.Write([]byte(s))
	debugUART.Write([]byte("\r\n"))
}
