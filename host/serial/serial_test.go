package serial

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyUSB0")
	if cfg.Device != "/dev/ttyUSB0" || cfg.Baud != 115200 {
		t.Errorf("DefaultConfig = %+v", cfg)
	}
	if cfg.ReadTimeout != 100*time.Millisecond {
		t.Errorf("ReadTimeout = %v, want 100ms", cfg.ReadTimeout)
	}
}

func TestOpenWithoutDevice(t *testing.T) {
	if _, err := Open(nil); !errors.Is(err, ErrNoDevice) {
		t.Errorf("Open(nil) err = %v, want ErrNoDevice", err)
	}
	if _, err := Open(&Config{Baud: 9600}); !errors.Is(err, ErrNoDevice) {
		t.Errorf("Open without device err = %v, want ErrNoDevice", err)
	}
}

func TestOpenMissingDevice(t *testing.T) {
	_, err := Open(DefaultConfig("/nonexistent/ttyBLUEPILL"))
	if err == nil {
		t.Fatal("Open of a missing device succeeded")
	}
	if errors.Is(err, ErrNoDevice) {
		t.Errorf("missing device reported as ErrNoDevice: %v", err)
	}
}

type closeBuffer struct {
	bytes.Buffer
	closed bool
}

func (c *closeBuffer) Close() error {
	c.closed = true
	return nil
}

func TestWrap(t *testing.T) {
	buf := &closeBuffer{}
	p := Wrap(buf)

	if _, err := p.Write([]byte("x")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := p.Flush(); err != nil {
		t.Errorf("Flush = %v", err)
	}
	if err := p.Close(); err != nil || !buf.closed {
		t.Errorf("Close = %v, closed=%v", err, buf.closed)
	}
	if Wrap(p) != p {
		t.Error("Wrap of a Port should return it unchanged")
	}
}
