// Package console frames the text traffic of the bring-up firmware: the
// diagnostic log printed by rtctest and the prompt/echo exchange of usbtest.
// Both the firmware and the host monitor use it, so the wording of every
// line is defined in exactly one place.
package console

// RingBuffer is a fixed-size byte FIFO. One slot stays unused so that
// read == write always means empty.
type RingBuffer struct {
	buf   []byte
	read  int
	write int
}

// NewRingBuffer creates a RingBuffer holding up to capacity-1 bytes
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 2 {
		capacity = 2
	}
	return &RingBuffer{buf: make([]byte, capacity)}
}

// Write appends as much of data as fits and returns the count stored
func (r *RingBuffer) Write(data []byte) int {
	n := 0
	for _, b := range data {
		next := (r.write + 1) % len(r.buf)
		if next == r.read {
			// Full
			break
		}
		r.buf[r.write] = b
		r.write = next
		n++
	}
	return n
}

// WriteByte appends one byte, dropping it when the buffer is full
func (r *RingBuffer) WriteByte(b byte) error {
	if r.Write([]byte{b}) == 0 {
		return ErrOverflow
	}
	return nil
}

// Read moves up to len(data) bytes out of the buffer
func (r *RingBuffer) Read(data []byte) int {
	n := 0
	for i := range data {
		if r.read == r.write {
			break
		}
		data[i] = r.buf[r.read]
		r.read = (r.read + 1) % len(r.buf)
		n++
	}
	return n
}

// Available returns the number of buffered bytes
func (r *RingBuffer) Available() int {
	if r.write >= r.read {
		return r.write - r.read
	}
	return len(r.buf) - r.read + r.write
}

// Free returns how many more bytes fit
func (r *RingBuffer) Free() int {
	return len(r.buf) - r.Available() - 1
}

// IndexByte returns the offset of the first c in the buffered data, or -1
func (r *RingBuffer) IndexByte(c byte) int {
	for i, pos := 0, r.read; pos != r.write; i, pos = i+1, (pos+1)%len(r.buf) {
		if r.buf[pos] == c {
			return i
		}
	}
	return -1
}

// Pop discards n bytes from the front
func (r *RingBuffer) Pop(n int) {
	for i := 0; i < n && r.read != r.write; i++ {
		r.read = (r.read + 1) % len(r.buf)
	}
}

// IsEmpty returns true if nothing is buffered
func (r *RingBuffer) IsEmpty() bool {
	return r.read == r.write
}

// Reset clears the buffer
func (r *RingBuffer) Reset() {
	r.read = 0
	r.write = 0
}
