package console

import "errors"

var (
	// ErrOverflow indicates a byte was dropped because the buffer was full
	ErrOverflow = errors.New("console: buffer overflow")

	// ErrLineTooLong indicates a line did not fit the splitter buffer and was
	// truncated
	ErrLineTooLong = errors.New("console: line too long")
)

// MaxLine is the longest line the splitter keeps. Longer lines are cut.
const MaxLine = 256

// LineSplitter turns a byte stream into lines. Both "\n" and "\r\n" end a
// line; the terminator is not part of the result.
type LineSplitter struct {
	ring    *RingBuffer
	partial int // bytes since the last terminator
}

// NewLineSplitter creates a splitter with room for a few lines
func NewLineSplitter() *LineSplitter {
	return &LineSplitter{ring: NewRingBuffer(4 * (MaxLine + 1))}
}

// Feed buffers incoming bytes. A line reaching MaxLine bytes is cut there
// and ErrLineTooLong is returned; the rest continues as a new line. When the
// caller does not drain lines with Next the buffer fills up and the
// remaining bytes are dropped with ErrOverflow.
func (s *LineSplitter) Feed(data []byte) error {
	var err error
	for _, b := range data {
		if b != '\n' && s.partial == MaxLine {
			if s.ring.WriteByte('\n') != nil {
				return ErrOverflow
			}
			s.partial = 0
			err = ErrLineTooLong
		}
		if s.ring.WriteByte(b) != nil {
			return ErrOverflow
		}
		if b == '\n' {
			s.partial = 0
		} else {
			s.partial++
		}
	}
	return err
}

// Next returns the next complete line, if any
func (s *LineSplitter) Next() (string, bool) {
	i := s.ring.IndexByte('\n')
	if i < 0 {
		return "", false
	}
	line := make([]byte, i)
	s.ring.Read(line)
	s.ring.Pop(1)
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return string(line), true
}

// Pending returns the number of buffered bytes not yet handed out
func (s *LineSplitter) Pending() int {
	return s.ring.Available()
}

// Reset drops everything buffered
func (s *LineSplitter) Reset() {
	s.ring.Reset()
	s.partial = 0
}
