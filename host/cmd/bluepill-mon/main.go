package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"bluepill/host/monitor"
	"bluepill/host/serial"
)

var (
	device  = flag.String("device", "/dev/ttyUSB0", "Serial device path")
	baud    = flag.Int("baud", serial.DefaultBaud, "Baud rate (ignored for USB CDC)")
	mode    = flag.String("mode", "rtc", "Firmware to check: rtc or usb")
	count   = flag.Int("count", 3, "Time lines to capture after the start line (rtc mode)")
	timeout = flag.Duration("timeout", 60*time.Second, "Give up after this long")
	verbose = flag.Bool("verbose", false, "Enable verbose output")
)

func main() {
	flag.Parse()

	if *verbose {
		monitor.SetLogLevel(slog.LevelDebug)
	}

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud
	port, err := serial.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer port.Close()
	if err := port.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: flush: %v\n", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	switch *mode {
	case "rtc":
		err = runRTC(ctx, port)
	case "usb":
		err = runUSB(ctx, port)
	default:
		err = fmt.Errorf("unknown mode %q (want rtc or usb)", *mode)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		port.Close()
		os.Exit(1)
	}
}

func runRTC(ctx context.Context, port serial.Port) error {
	fmt.Printf("Waiting for rtctest boot on %s (reset the board)...\n", *device)

	c, err := monitor.CaptureBoot(ctx, port, *count)
	if err != nil {
		return err
	}

	fmt.Printf("Start:   %s by %s\n", c.Start.Time.Format(time.DateTime), c.Start.Reason)
	if c.Reset {
		fmt.Println("Backup domain was lost, RTC reseeded")
	}
	for _, ev := range c.Times {
		fmt.Printf("Time:    %s\n", ev.Time.Format(time.DateTime))
	}
	for _, ev := range c.References {
		fmt.Printf("Drift:   %+ds, %.2f ppm, suggested CAL %d\n", ev.Offset, ev.PPM, ev.Calibration)
	}
	if c.Sleep != nil {
		fmt.Printf("Standby: until %s\n", c.Sleep.Time.Format(time.DateTime))
	}

	if err := c.Check(); err != nil {
		return err
	}
	fmt.Println("OK")
	return nil
}

func runUSB(ctx context.Context, port serial.Port) error {
	fmt.Printf("Probing usbtest echo on %s...\n", *device)

	rtt, err := monitor.ProbeEcho(ctx, port)
	if err != nil {
		return err
	}
	fmt.Printf("Echo reply after %v\n", rtt.Round(time.Millisecond))
	fmt.Println("OK")
	return nil
}
