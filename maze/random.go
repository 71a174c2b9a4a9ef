package maze

// Source is a stream of floats in [0,1) that drives the carver.
type Source interface {
	Next() float64
}

// Mulberry32 is a 32-bit seeded generator. Every operation wraps at 32 bits so
// the stream is identical to the browser implementation for the same seed.
type Mulberry32 struct {
	state uint32
}

// NewMulberry32 returns a fresh stream for seed. Streams must not be shared
// between generation runs.
func NewMulberry32(seed uint32) *Mulberry32 {
	return &Mulberry32{state: seed}
}

// Next advances the stream and returns a float in [0,1).
func (m *Mulberry32) Next() float64 {
	m.state += 0x6D2B79F5
	t := m.state
	t = (t ^ t>>15) * (t | 1)
	t ^= t + (t^t>>7)*(t|61)
	return float64(t^t>>14) / 4294967296
}
