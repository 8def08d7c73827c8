package core

// Field names a single peripheral register reachable through a RegisterPort.
// The set covers what the RTC bring-up touches on the STM32F103: the RTC
// block, the backup registers, and the RCC/PWR/EXTI/SCB bits around them.
type Field uint8

const (
	RTCCRH Field = iota // RTC control high (interrupt enables)
	RTCCRL              // RTC control low (flags, CNF, RTOFF)
	RTCPRLH             // Prescaler load, high 4 bits
	RTCPRLL             // Prescaler load, low 16 bits
	RTCCNTH             // Counter, high 16 bits
	RTCCNTL             // Counter, low 16 bits
	RTCALRH             // Alarm, high 16 bits (write-only)
	RTCALRL             // Alarm, low 16 bits (write-only)
	BKPDR1              // Backup data register 1 (sentinel)
	BKPRTCCR            // Backup RTC clock calibration register
	RCCAPB1ENR          // APB1 peripheral clock enable
	RCCBDCR             // Backup domain control
	PWRCR               // Power control
	PWRCSR              // Power control/status
	EXTIPR              // EXTI pending
	SCBSCR              // Cortex-M system control

	NumFields
)

var fieldNames = [NumFields]string{
	RTCCRH:     "RTC_CRH",
	RTCCRL:     "RTC_CRL",
	RTCPRLH:    "RTC_PRLH",
	RTCPRLL:    "RTC_PRLL",
	RTCCNTH:    "RTC_CNTH",
	RTCCNTL:    "RTC_CNTL",
	RTCALRH:    "RTC_ALRH",
	RTCALRL:    "RTC_ALRL",
	BKPDR1:     "BKP_DR1",
	BKPRTCCR:   "BKP_RTCCR",
	RCCAPB1ENR: "RCC_APB1ENR",
	RCCBDCR:    "RCC_BDCR",
	PWRCR:      "PWR_CR",
	PWRCSR:     "PWR_CSR",
	EXTIPR:     "EXTI_PR",
	SCBSCR:     "SCB_SCR",
}

// String returns the reference manual name of the register.
func (f Field) String() string {
	if f < NumFields {
		return fieldNames[f]
	}
	return "UNKNOWN"
}

// RegisterPort is the only way core code touches hardware.
// Production code backs it with volatile MMIO; tests use core/regsim.
type RegisterPort interface {
	// Get reads the current value of a register
	Get(f Field) uint32

	// Set writes a register
	Set(f Field, value uint32)
}

// Register bit definitions (STM32F103 reference manual, RM0008)
const (
	// RTC_CRH
	CRH_SECIE = 1 << 0
	CRH_ALRIE = 1 << 1
	CRH_OWIE  = 1 << 2

	// RTC_CRL
	CRL_SECF  = 1 << 0 // Second flag
	CRL_ALRF  = 1 << 1 // Alarm flag
	CRL_OWF   = 1 << 2 // Overflow flag
	CRL_RSF   = 1 << 3 // Registers synchronized
	CRL_CNF   = 1 << 4 // Configuration mode
	CRL_RTOFF = 1 << 5 // Last write operation finished

	// BKP_RTCCR
	RTCCR_CAL  = 0x7F   // Fine calibration value
	RTCCR_CCO  = 1 << 7 // Calibration clock output (RTCCLK/64 on tamper pin)
	RTCCR_ASOE = 1 << 8
	RTCCR_ASOS = 1 << 9

	// RCC_APB1ENR
	APB1ENR_BKPEN = 1 << 27
	APB1ENR_PWREN = 1 << 28

	// RCC_BDCR
	BDCR_LSEON      = 1 << 0
	BDCR_LSERDY     = 1 << 1
	BDCR_LSEBYP     = 1 << 2
	BDCR_RTCSEL     = 3 << 8
	BDCR_RTCSEL_LSE = 1 << 8
	BDCR_RTCEN      = 1 << 15
	BDCR_BDRST      = 1 << 16

	// PWR_CR
	PWR_LPDS = 1 << 0
	PWR_PDDS = 1 << 1 // Power down deepsleep (standby)
	PWR_CWUF = 1 << 2 // Clear wakeup flag
	PWR_CSBF = 1 << 3 // Clear standby flag
	PWR_DBP  = 1 << 8 // Disable backup domain write protection

	// PWR_CSR
	PWRCSR_WUF = 1 << 0
	PWRCSR_SBF = 1 << 1

	// EXTI_PR: every line on the F103 (0..22)
	EXTI_ALL = 0x007FFFFF

	// SCB_SCR
	SCR_SLEEPDEEP = 1 << 2
)

// setBits performs a read-modify-write that sets mask in f
func setBits(p RegisterPort, f Field, mask uint32) {
	p.Set(f, p.Get(f)|mask)
}

// clearBits performs a read-modify-write that clears mask in f
func clearBits(p RegisterPort, f Field, mask uint32) {
	p.Set(f, p.Get(f)&^mask)
}

// hasBits reports whether every bit of mask is set in f
func hasBits(p RegisterPort, f Field, mask uint32) bool {
	return p.Get(f)&mask == mask
}
