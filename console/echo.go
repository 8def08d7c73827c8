package console

// usbtest wording
const (
	Greeting = "Hello world"
	Reply    = "Once again: Hello world"
	Prompt   = "Enter some characters..."
)

const (
	// PromptInterval is the time between prompts in milliseconds
	PromptInterval = 5000

	// ledBit toggles the LED every 1024 ms
	ledBit = 1024
)

// Serial is the part of a TinyGo serial port the echo loop needs.
// machine.Serial satisfies it on every target.
type Serial interface {
	Buffered() int
	ReadByte() (byte, error)
	Write(data []byte) (int, error)
}

// Echo is the usbtest loop: greet once, answer every received byte with
// Reply, blink the LED and prompt periodically.
type Echo struct {
	port Serial
	led  func(bool)

	greeted    bool
	nextPrompt uint32
	received   uint32
}

// NewEcho creates the loop. led may be nil.
func NewEcho(port Serial, led func(bool)) *Echo {
	if led == nil {
		led = func(bool) {}
	}
	return &Echo{port: port, led: led, nextPrompt: PromptInterval}
}

// println writes a CRLF terminated line
func (e *Echo) println(s string) error {
	_, err := e.port.Write([]byte(s + "\r\n"))
	return err
}

// Step runs one loop iteration at the given uptime
func (e *Echo) Step(uptimeMs uint32) error {
	if !e.greeted {
		e.greeted = true
		if err := e.println(Greeting); err != nil {
			return err
		}
	}

	// One byte per iteration
	if e.port.Buffered() > 0 {
		if _, err := e.port.ReadByte(); err != nil {
			return err
		}
		e.received++
		if err := e.println(Reply); err != nil {
			return err
		}
	}

	e.led(uptimeMs&ledBit != 0)

	// Signed differences keep the schedule working across the uint32 wrap
	if int32(uptimeMs-e.nextPrompt) >= 0 {
		// Skip prompts missed while the loop was stalled
		for int32(uptimeMs-e.nextPrompt) >= 0 {
			e.nextPrompt += PromptInterval
		}
		if err := e.println(Prompt); err != nil {
			return err
		}
	}
	return nil
}

// Received returns the number of bytes consumed so far
func (e *Echo) Received() uint32 {
	return e.received
}
