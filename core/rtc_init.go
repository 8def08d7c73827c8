package core

// Boot describes the RTC state found at startup.
// It replaces a package-level start timestamp: callers keep it and pass
// Start to whatever needs it (the alarm, the log line).
type Boot struct {
	// Reset is true when the backup domain had been lost and the counter
	// was reseeded with Config.Seed
	Reset bool

	// WokeByAlarm is true when RTC_CRL.ALRF was set before Init ran, i.e.
	// the MCU left standby because of the RTC alarm rather than a reset
	WokeByAlarm bool

	// Start is the counter at boot minus Config.StartupCompensation
	Start uint32
}

// Startup reasons printed in the boot log
const (
	ReasonWake  = "wake-up from sleep"
	ReasonReset = "reset or power-cycle"
)

// Reason returns a human readable startup reason for the log
func (b Boot) Reason() string {
	if b.WokeByAlarm {
		return ReasonWake
	}
	return ReasonReset
}

// BackupValid reports whether BKP_DR1 holds exactly the sentinel.
// Any other value, including 0 and 0xFFFF, means the domain was lost.
func BackupValid(port RegisterPort, sentinel uint16) bool {
	return port.Get(BKPDR1)&0xFFFF == uint32(sentinel)
}

// enableBackupAccess turns on the PWR/BKP interface clocks and lifts the
// backup domain write protection
func enableBackupAccess(port RegisterPort) {
	setBits(port, RCCAPB1ENR, APB1ENR_PWREN|APB1ENR_BKPEN)
	setBits(port, PWRCR, PWR_DBP)
}

// Init prepares the RTC to count Unix seconds.
// When the sentinel in BKP_DR1 is missing (first power-up or battery loss)
// the LSE is started, selected as RTCCLK, the prescaler and calibration are
// loaded and the counter is seeded. The sentinel is written last.
// When the sentinel is present nothing in the RTC is touched.
func (c *Clock) Init() (Boot, error) {
	var boot Boot

	// ALRF survives standby, so it has to be sampled before anything else
	boot.WokeByAlarm = c.AlarmFired()

	enableBackupAccess(c.port)
	boot.Reset = !BackupValid(c.port, c.cfg.Sentinel)
	if boot.Reset {
		Debugf("[RTC] BKP_DR1=%#04x, reprogramming", c.port.Get(BKPDR1)&0xFFFF)
		if err := c.program(); err != nil {
			return boot, err
		}
		c.port.Set(BKPDR1, uint32(c.cfg.Sentinel))
	}

	now, err := c.Now()
	if err != nil {
		return boot, err
	}
	if now > c.cfg.StartupCompensation {
		boot.Start = now - c.cfg.StartupCompensation
	}
	Debugf("[RTC] init reset=%t alarm=%t counter=%d", boot.Reset, boot.WokeByAlarm, now)
	return boot, nil
}

// program runs the full clock bring-up after a backup domain loss
func (c *Clock) program() error {
	setBits(c.port, RCCBDCR, BDCR_LSEON)
	if err := c.poll.waitSet(RCCBDCR, BDCR_LSERDY); err != nil {
		return err
	}
	DebugPrintln("[RTC] LSE ready")
	setBits(c.port, RCCBDCR, BDCR_RTCSEL_LSE)
	setBits(c.port, RCCBDCR, BDCR_RTCEN)

	// RSF is cleared by software and set again once the APB1 shadow copies
	// are resynchronized with the RTC core
	clearBits(c.port, RTCCRL, CRL_RSF)
	if err := c.poll.waitSet(RTCCRL, CRL_RSF); err != nil {
		return err
	}
	if err := c.poll.waitSet(RTCCRL, CRL_RTOFF); err != nil {
		return err
	}

	DebugPrintln("[RTC] registers synchronized")

	c.enterConfig()
	c.port.Set(RTCPRLH, c.cfg.Prescaler>>16)
	c.port.Set(RTCPRLL, c.cfg.Prescaler&0xFFFF)
	c.applyCalibration()
	c.port.Set(RTCCNTH, c.cfg.Seed>>16)
	c.port.Set(RTCCNTL, c.cfg.Seed&0xFFFF)
	return c.exitConfig()
}
