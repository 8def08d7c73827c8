package console

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"bluepill/core"
)

func TestRingBuffer(t *testing.T) {
	ring := NewRingBuffer(10)

	if !ring.IsEmpty() {
		t.Error("New ring should be empty")
	}

	written := ring.Write([]byte{1, 2, 3, 4, 5})
	if written != 5 {
		t.Errorf("Expected to write 5 bytes, wrote %d", written)
	}
	if ring.Available() != 5 || ring.Free() != 4 {
		t.Errorf("Available=%d Free=%d, want 5 and 4", ring.Available(), ring.Free())
	}

	readBuf := make([]byte, 3)
	if n := ring.Read(readBuf); n != 3 || readBuf[0] != 1 || readBuf[2] != 3 {
		t.Errorf("Read = %d %v", n, readBuf)
	}

	ring.Pop(1)
	if ring.Available() != 1 {
		t.Errorf("After popping 1, expected 1 available, got %d", ring.Available())
	}

	ring.Reset()
	if written := ring.Write(make([]byte, 12)); written != 9 {
		t.Errorf("Expected to write 9 bytes to size-10 ring, wrote %d", written)
	}
	if err := ring.WriteByte(0); !errors.Is(err, ErrOverflow) {
		t.Errorf("WriteByte on full ring = %v, want ErrOverflow", err)
	}
}

func TestRingBufferWrapAround(t *testing.T) {
	ring := NewRingBuffer(5)
	ring.Write([]byte{1, 2, 3, 4})
	ring.Read(make([]byte, 2))

	if written := ring.Write([]byte{5, '\n'}); written != 2 {
		t.Errorf("Expected to write 2 bytes, wrote %d", written)
	}
	if i := ring.IndexByte('\n'); i != 3 {
		t.Errorf("IndexByte across the wrap = %d, want 3", i)
	}

	all := make([]byte, 4)
	if n := ring.Read(all); n != 4 || !bytes.Equal(all, []byte{3, 4, 5, '\n'}) {
		t.Errorf("Wrap-around data mismatch: got %v", all)
	}
	if ring.IndexByte('\n') != -1 {
		t.Error("IndexByte on empty ring should be -1")
	}
}

func TestLineSplitter(t *testing.T) {
	s := NewLineSplitter()

	if err := s.Feed([]byte("\r\n\r\nStarting RTC")); err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
	var lines []string
	for {
		line, ok := s.Next()
		if !ok {
			break
		}
		lines = append(lines, line)
	}
	if len(lines) != 2 || lines[0] != "" || lines[1] != "" {
		t.Errorf("lines = %q, want two empty lines", lines)
	}
	if s.Pending() != len("Starting RTC") {
		t.Errorf("Pending = %d", s.Pending())
	}

	s.Feed([]byte(" test\nTime is: x\r\n"))
	if line, _ := s.Next(); line != "Starting RTC test" {
		t.Errorf("line = %q", line)
	}
	if line, _ := s.Next(); line != "Time is: x" {
		t.Errorf("line = %q", line)
	}
	if _, ok := s.Next(); ok {
		t.Error("unexpected extra line")
	}
}

func TestLineSplitterLongLine(t *testing.T) {
	s := NewLineSplitter()

	long := strings.Repeat("a", MaxLine+10)
	if err := s.Feed([]byte(long + "\n")); !errors.Is(err, ErrLineTooLong) {
		t.Fatalf("Feed error = %v, want ErrLineTooLong", err)
	}
	first, _ := s.Next()
	second, _ := s.Next()
	if len(first) != MaxLine || len(second) != 10 {
		t.Errorf("split lengths = %d, %d; want %d, 10", len(first), len(second), MaxLine)
	}
}

func TestLineSplitterOverflow(t *testing.T) {
	s := NewLineSplitter()
	line := []byte(strings.Repeat("b", 100) + "\n")

	var err error
	for i := 0; i < 20 && err == nil; i++ {
		err = s.Feed(line)
	}
	if !errors.Is(err, ErrOverflow) {
		t.Fatalf("Feed error = %v, want ErrOverflow", err)
	}

	s.Reset()
	if s.Pending() != 0 {
		t.Error("Reset did not drop buffered data")
	}
}

func TestParseLineRoundTrip(t *testing.T) {
	ams, err := core.LoadPOSIXZone(core.ZoneAmsterdam)
	if err != nil {
		t.Fatalf("LoadPOSIXZone failed: %v", err)
	}
	wall := time.Date(2020, 8, 20, 13, 42, 0, 0, time.UTC)

	tests := []struct {
		line   string
		kind   Kind
		time   bool
		reason string
	}{
		{StartLine(core.SeedTimestamp-1, ams, "reset or power-cycle"), KindStart, true, "reset or power-cycle"},
		{ResetLine(), KindReset, false, ""},
		{TimeLine(core.SeedTimestamp-1, ams), KindTime, true, ""},
		{SleepLine(core.SeedTimestamp-1, ams), KindSleep, true, ""},
	}
	for _, tt := range tests {
		ev, ok := ParseLine(tt.line + "\r")
		if !ok {
			t.Errorf("ParseLine(%q) not recognised", tt.line)
			continue
		}
		if ev.Kind != tt.kind {
			t.Errorf("ParseLine(%q).Kind = %v, want %v", tt.line, ev.Kind, tt.kind)
		}
		if tt.time && !ev.Time.Equal(wall) {
			t.Errorf("ParseLine(%q).Time = %v, want %v", tt.line, ev.Time, wall)
		}
		if ev.Reason != tt.reason {
			t.Errorf("ParseLine(%q).Reason = %q", tt.line, ev.Reason)
		}
	}
}

func TestParseLineLiteral(t *testing.T) {
	ev, ok := ParseLine("Sleep until : 2020-08-20 13:42:20...")
	if !ok || ev.Kind != KindSleep || ev.Time.Second() != 20 {
		t.Errorf("ParseLine = %+v, %v", ev, ok)
	}

	ev, ok = ParseLine(ReferenceLine(-3, 12.5, 13))
	if !ok || ev.Kind != KindReference {
		t.Fatalf("reference line not recognised: %+v", ev)
	}
	if ev.Offset != -3 || ev.PPM != 12.5 || ev.Calibration != 13 {
		t.Errorf("reference = %d %v %d", ev.Offset, ev.PPM, ev.Calibration)
	}
}

func TestParseLineRejects(t *testing.T) {
	for _, line := range []string{
		"",
		"Hello world",
		"Time is: yesterday",
		"Starting RTC test at 2020-08-20 13:42:00",
		"Sleep until : soon...",
		"Reference: nonsense",
	} {
		if ev, ok := ParseLine(line); ok {
			t.Errorf("ParseLine(%q) accepted as %v", line, ev.Kind)
		}
	}
}

// fakeSerial is an in-memory Serial
type fakeSerial struct {
	in  []byte
	out bytes.Buffer
}

func (f *fakeSerial) Buffered() int { return len(f.in) }

func (f *fakeSerial) ReadByte() (byte, error) {
	if len(f.in) == 0 {
		return 0, errors.New("empty")
	}
	b := f.in[0]
	f.in = f.in[1:]
	return b, nil
}

func (f *fakeSerial) Write(p []byte) (int, error) { return f.out.Write(p) }

func TestEchoGreetsOnce(t *testing.T) {
	port := &fakeSerial{}
	echo := NewEcho(port, nil)

	for ms := uint32(0); ms < 100; ms += 10 {
		if err := echo.Step(ms); err != nil {
			t.Fatalf("Step failed: %v", err)
		}
	}
	if got := port.out.String(); got != Greeting+"\r\n" {
		t.Errorf("output = %q", got)
	}
}

func TestEchoRepliesPerByte(t *testing.T) {
	port := &fakeSerial{in: []byte("ab")}
	echo := NewEcho(port, nil)

	echo.Step(10)
	echo.Step(20)
	echo.Step(30)

	want := Greeting + "\r\n" + Reply + "\r\n" + Reply + "\r\n"
	if got := port.out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if echo.Received() != 2 {
		t.Errorf("Received = %d, want 2", echo.Received())
	}
}

func TestEchoLEDAndPrompt(t *testing.T) {
	port := &fakeSerial{}
	var led []bool
	echo := NewEcho(port, func(on bool) { led = append(led, on) })

	echo.Step(0)
	echo.Step(1024)
	echo.Step(2048)
	echo.Step(3072)
	if want := []bool{false, true, false, true}; len(led) != 4 || led[0] != want[0] || led[1] != want[1] || led[2] != want[2] || led[3] != want[3] {
		t.Errorf("led = %v, want %v", led, want)
	}

	echo.Step(4990)
	if strings.Contains(port.out.String(), Prompt) {
		t.Fatal("prompted too early")
	}
	echo.Step(5003)
	echo.Step(5013)
	if n := strings.Count(port.out.String(), Prompt); n != 1 {
		t.Errorf("prompted %d times after 5 s, want 1", n)
	}

	// A long stall yields one prompt, not a burst
	echo.Step(23000)
	if n := strings.Count(port.out.String(), Prompt); n != 2 {
		t.Errorf("prompted %d times after stall, want 2", n)
	}
	echo.Step(24990)
	if n := strings.Count(port.out.String(), Prompt); n != 2 {
		t.Errorf("prompted early after stall")
	}
	echo.Step(25000)
	if n := strings.Count(port.out.String(), Prompt); n != 3 {
		t.Errorf("prompted %d times at 25 s, want 3", n)
	}
}

func TestEchoPromptAcrossUptimeWrap(t *testing.T) {
	port := &fakeSerial{}
	echo := NewEcho(port, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		echo.Step(0)
		echo.Step(0xFFFFFFFF)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Step did not return at the top of the uptime range")
	}
	if strings.Contains(port.out.String(), Prompt) {
		t.Error("prompted one tick before the wrap")
	}
	echo.Step(0)
	echo.Step(5000)
	if n := strings.Count(port.out.String(), Prompt); n != 1 {
		t.Errorf("prompted %d times after the wrap, want 1", n)
	}

	port.out.Reset()
	echo = NewEcho(port, nil)
	echo.Step(4294966000)
	port.out.Reset()
	for ms := uint32(0); ms <= 20000; ms += 10 {
		echo.Step(ms)
	}
	if n := strings.Count(port.out.String(), Prompt); n != 4 {
		t.Errorf("prompted %d times in the 20 s after the wrap, want 4", n)
	}
}
