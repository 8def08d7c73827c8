// RTC counter access for the STM32F103
// The 32-bit counter lives in two 16-bit registers (CNTH:CNTL) that are
// latched independently, so every read and write is guarded against tearing.
package core

import "fmt"

// Defaults used by DefaultConfig
const (
	// PrescalerLSE divides the 32.768 kHz LSE crystal down to 1 Hz
	PrescalerLSE = 32767

	// SeedTimestamp is loaded after a backup domain loss (2020-08-20 11:42:01 UTC)
	SeedTimestamp = 1597923721

	// DataValid marks BKP_DR1 once the RTC has been programmed
	DataValid = 31083
)

// Config controls how the RTC is programmed and how long polls may spin.
type Config struct {
	// Prescaler is the 20-bit RTC_PRL reload value
	Prescaler uint32

	// Seed is the counter value written when the backup domain was lost
	Seed uint32

	// Sentinel is the BKP_DR1 pattern meaning "counter valid"
	Sentinel uint16

	// Calibration is the BKP_RTCCR.CAL value (0..127). Each step removes
	// one RTCCLK pulse every 2^20, slowing the clock by about 0.954 ppm.
	Calibration uint8

	// StartupCompensation is subtracted from the counter when recording the
	// boot timestamp, covering the time spent before Init ran.
	StartupCompensation uint32

	// PollLimit bounds every busy-wait to this many reads. 0 spins forever.
	PollLimit int

	// WriteAttempts bounds the Set retry loop. 0 retries forever.
	WriteAttempts int
}

// DefaultConfig returns the hardware configuration: LSE prescaler, no trim
// calibration and unbounded polling.
func DefaultConfig() Config {
	return Config{
		Prescaler:           PrescalerLSE,
		Seed:                SeedTimestamp,
		Sentinel:            DataValid,
		StartupCompensation: 1,
	}
}

// applyDefaults fills zero fields that have no meaningful zero value
func applyDefaults(cfg *Config) {
	if cfg.Prescaler == 0 {
		cfg.Prescaler = PrescalerLSE
	}
	if cfg.Seed == 0 {
		cfg.Seed = SeedTimestamp
	}
	if cfg.Sentinel == 0 {
		cfg.Sentinel = DataValid
	}
	cfg.Prescaler &= 0xFFFFF
	cfg.Calibration &= RTCCR_CAL
}

// Clock provides coherent access to the RTC counter and alarm.
// It is not safe for concurrent use; the firmware has one thread of control.
type Clock struct {
	port RegisterPort
	cfg  Config
	poll poller
}

// NewClock creates a Clock on top of a register port
func NewClock(port RegisterPort, cfg Config) *Clock {
	applyDefaults(&cfg)
	return &Clock{
		port: port,
		cfg:  cfg,
		poll: poller{port: port, limit: cfg.PollLimit},
	}
}

// Config returns the effective configuration
func (c *Clock) Config() Config {
	return c.cfg
}

// readRaw assembles one (possibly torn) counter value
func (c *Clock) readRaw() uint32 {
	high := c.port.Get(RTCCNTH) & 0xFFFF
	low := c.port.Get(RTCCNTL) & 0xFFFF
	return high<<16 | low
}

// Now returns the counter as Unix seconds (UTC).
// Readings are repeated until two consecutive ones are identical, so the
// result is a value the counter actually held.
func (c *Clock) Now() (uint32, error) {
	prev := c.readRaw()
	for n := 0; ; n++ {
		next := c.readRaw()
		if next == prev {
			return next, nil
		}
		if c.cfg.PollLimit > 0 && n >= c.cfg.PollLimit {
			return 0, ErrUnstableCounter
		}
		prev = next
	}
}

// enterConfig allows writes to CNT, ALR and PRL
func (c *Clock) enterConfig() {
	setBits(c.port, RTCCRL, CRL_CNF)
}

// exitConfig starts the write and waits for RTOFF
func (c *Clock) exitConfig() error {
	clearBits(c.port, RTCCRL, CRL_CNF)
	return c.poll.waitSet(RTCCRL, CRL_RTOFF)
}

// Set loads the counter and blocks until it reads back as ts.
// The configure/write/wait sequence is repeated whenever the verifying read
// disagrees, which covers a CNF toggle that did not take effect.
func (c *Clock) Set(ts uint32) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		now, err := c.Now()
		if err == nil && now == ts {
			return nil
		}
		if err != nil {
			lastErr = err
		}
		if c.cfg.WriteAttempts > 0 && attempt >= c.cfg.WriteAttempts {
			if lastErr != nil {
				return fmt.Errorf("%w: %w", ErrWriteUnverified, lastErr)
			}
			return ErrWriteUnverified
		}

		c.enterConfig()
		c.port.Set(RTCCNTH, ts>>16)
		c.port.Set(RTCCNTL, ts&0xFFFF)
		if err := c.exitConfig(); err != nil {
			// Fall through to the verifying read; it decides whether to retry.
			lastErr = err
		}
	}
}

// SetAlarm programs the alarm registers. RTC_ALR is write-only, so there is
// no verifying read. The wake-up itself is routed by the caller.
func (c *Clock) SetAlarm(ts uint32) error {
	c.enterConfig()
	c.port.Set(RTCALRH, ts>>16)
	c.port.Set(RTCALRL, ts&0xFFFF)
	return c.exitConfig()
}

// AlarmFired reports whether RTC_CRL.ALRF is set
func (c *Clock) AlarmFired() bool {
	return hasBits(c.port, RTCCRL, CRL_ALRF)
}

// ClearAlarm clears ALRF (rc_w0) and waits for the write to land
func (c *Clock) ClearAlarm() error {
	clearBits(c.port, RTCCRL, CRL_ALRF)
	return c.poll.waitSet(RTCCRL, CRL_RTOFF)
}
