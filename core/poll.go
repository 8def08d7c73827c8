package core

// poller spins on a register until a bit pattern appears.
// limit == 0 means spin forever, which is what the hardware build wants:
// there is nothing above this code that could recover from a dead LSE.
type poller struct {
	port  RegisterPort
	limit int
}

// waitSet spins until every bit of mask is set in f
func (p poller) waitSet(f Field, mask uint32) error {
	for n := 0; ; n++ {
		if hasBits(p.port, f, mask) {
			return nil
		}
		if p.limit > 0 && n >= p.limit {
			return ErrPollLimit
		}
	}
}
