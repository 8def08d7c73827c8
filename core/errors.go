package core

import "errors"

// These are only ever returned when Config bounds the polling loops.
// With the production defaults every operation spins until the hardware
// answers and the error result is always nil.
var (
	// ErrPollLimit indicates a status bit did not reach the expected level
	// within Config.PollLimit reads.
	ErrPollLimit = errors.New("rtc: poll limit reached")

	// ErrUnstableCounter indicates no two consecutive counter reads agreed
	// within Config.PollLimit attempts.
	ErrUnstableCounter = errors.New("rtc: counter never stable")

	// ErrWriteUnverified indicates the counter did not read back the written
	// value within Config.WriteAttempts attempts.
	ErrWriteUnverified = errors.New("rtc: counter write not verified")

	// ErrInvalidZone indicates a timezone rule string could not be parsed.
	ErrInvalidZone = errors.New("invalid timezone rule")
)
