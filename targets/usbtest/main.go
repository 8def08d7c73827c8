//go:build stm32f103

package main

import (
	"machine"
	"time"

	"bluepill/console"
)

func main() {
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})

	// machine.Serial is the default console: USART1, or USB CDC with -serial=usb
	echo := console.NewEcho(machine.Serial, led.Set)
	start := time.Now()

	for {
		uptime := uint32(time.Since(start).Milliseconds())
		if err := echo.Step(uptime); err != nil {
			led.High()
		}
		time.Sleep(time.Millisecond)
	}
}
