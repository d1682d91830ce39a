package audio

import "math"

// Depths above half an octave could make the source position run
// backwards.
const maxVibratoDepth = 600

type VibratoParams struct {
	Depth float64 `json:"depth"` // cents
	Rate  float64 `json:"rate"`  // Hz
	Delay float64 `json:"delay"` // seconds
}

// vibrato turns a sine pitch modulation into an additive offset on the
// source position. The offset is the integral of the rate change, so it is a
// pure function of the output sample index and never accumulates error.
type vibrato struct {
	scale float64 // peak offset / 2, in source samples
	omega float64 // radians per output sample
	delay int64
}

func (l *vibrato) setup(p VibratoParams, factor float64, sampleRate int) {
	*l = vibrato{}
	if p.Depth <= 0 || p.Rate <= 0 {
		return
	}
	depth := math.Min(p.Depth, maxVibratoDepth)
	l.omega = 2 * math.Pi * p.Rate / float64(sampleRate)
	l.scale = factor * (math.Ln2 * depth / 1200) / l.omega
	l.delay = int64(p.Delay * float64(sampleRate))
}

// offset returns the position offset in source samples at output sample n.
// It is never negative.
func (l *vibrato) offset(n int64) Wide {
	if l.scale == 0 || n < l.delay {
		return 0
	}
	phase := l.omega * float64(n-l.delay)
	return WideFromFloat(l.scale * (1 - math.Cos(phase)))
}
