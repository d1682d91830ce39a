package audio

import (
	"math"
	"sync/atomic"
)

type envelopePhase int

const (
	phaseStart envelopePhase = iota
	phaseDelay
	phaseAttack
	phaseHold
	phaseDecay
	phaseSustain
	phaseRelease
	phaseOff
)

var phaseNames = [...]string{"start", "delay", "attack", "hold", "decay", "sustain", "release", "off"}

func (p envelopePhase) String() string { return phaseNames[p] }

// Target ratios control the curvature of the exponential segments. Small
// ratios give long tails, large ratios approach a straight line.
const (
	attackRatio = 0.3
	decayRatio  = 0.0001
)

// EnvelopeParams are given in seconds, except Sustain which is a level
// between 0 and 1.
type EnvelopeParams struct {
	Delay   float64 `json:"delay"`
	Attack  float64 `json:"attack"`
	Hold    float64 `json:"hold"`
	Decay   float64 `json:"decay"`
	Sustain float64 `json:"sustain"`
	Release float64 `json:"release"`
}

// Envelope is a DAHDSR amplitude generator with exponential segments.
//
//	1 +       x---x
//	  |      /     \
//	s +     /       x-------x
//	  |    /                 \
//	0 +---x                   x---
//	  |d  |a  |h  |d  |  s   |r  |
//
// Every segment is a one pole ramp: amp = base + amp*coef, recomputed on
// phase entry so that the ramp lands on its target when the phase ends.
type Envelope struct {
	delay, attack, hold, decay, release int // ticks
	sustain                             float64

	phase envelopePhase
	ticks int // remaining in current phase
	amp   float64
	base  float64
	coef  float64

	// released and quick are written by the note event goroutine and read
	// by the buffer goroutine that owns the voice.
	released atomic.Bool
	quick    atomic.Int32
}

// Setup resets the envelope to its start phase.
func (e *Envelope) Setup(p EnvelopeParams, sampleRate int) {
	toTicks := func(sec float64) int {
		if sec <= 0 {
			return 0
		}
		return int(math.Round(sec * float64(sampleRate)))
	}
	e.delay = toTicks(p.Delay)
	e.attack = toTicks(p.Attack)
	e.hold = toTicks(p.Hold)
	e.decay = toTicks(p.Decay)
	e.release = toTicks(p.Release)
	e.sustain = math.Max(0, math.Min(1, p.Sustain))
	e.phase = phaseStart
	e.ticks = 0
	e.amp = 0
	e.base = 0
	e.coef = 1
	e.released.Store(false)
	e.quick.Store(0)
}

// Release requests the release phase. It takes effect the next time
// amplitudes are produced. Calling it more than once has no effect.
func (e *Envelope) Release() { e.released.Store(true) }

// QuickRelease requests a release that lasts at most ticks samples. A
// release already in progress is restarted with the shorter length.
func (e *Envelope) QuickRelease(ticks int) {
	if ticks < 1 {
		ticks = 1
	}
	e.quick.Store(int32(ticks))
	e.released.Store(true)
}

func (e *Envelope) Phase() envelopePhase { return e.phase }

// Amplitudes fills dst with one amplitude per sample, crossing phase
// boundaries as needed. The phase machine always advances; valid reports
// whether the caller should apply the amplitudes at all. finished is true
// once the envelope reached its off phase.
func (e *Envelope) Amplitudes(dst []float32, enabled bool) (finished, valid bool) {
	if q := int(e.quick.Load()); q > 0 && q < e.release {
		e.release = q
		if e.phase == phaseRelease {
			e.enter(phaseRelease)
		}
	}
	if e.released.Load() && e.phase < phaseRelease {
		e.enter(phaseRelease)
	}
	for i := range dst {
		for e.ticks == 0 && e.timed() {
			e.enter(e.phase + 1)
		}
		switch e.phase {
		case phaseSustain:
			e.amp = e.sustain
		case phaseOff:
			e.amp = 0
		default:
			e.amp = e.base + e.amp*e.coef
			if e.amp < 0 {
				e.amp = 0
			} else if e.amp > 1 {
				e.amp = 1
			}
			e.ticks--
		}
		dst[i] = float32(e.amp)
	}
	return e.phase == phaseOff, enabled
}

// timed reports whether the current phase ends after a number of ticks.
func (e *Envelope) timed() bool {
	return e.phase != phaseSustain && e.phase != phaseOff
}

// enter switches to phase p, snapping the amplitude to where the previous
// phase was heading and computing the ramp for p.
func (e *Envelope) enter(p envelopePhase) {
	switch e.phase {
	case phaseAttack:
		if e.ticks == 0 {
			e.amp = 1
		}
	case phaseDecay:
		if e.ticks == 0 {
			e.amp = e.sustain
		}
	}
	e.phase = p
	switch p {
	case phaseDelay:
		e.amp = 0
		e.flat(e.delay)
	case phaseAttack:
		e.ramp(e.attack, 1, attackRatio)
	case phaseHold:
		e.amp = 1
		e.flat(e.hold)
	case phaseDecay:
		e.ramp(e.decay, e.sustain, decayRatio)
	case phaseSustain:
		e.amp = e.sustain
		e.ticks = 0
		if e.sustain <= 0 {
			e.phase = phaseOff
			e.amp = 0
		}
	case phaseRelease:
		if e.release == 0 {
			e.phase = phaseOff
			e.amp = 0
			e.ticks = 0
			return
		}
		e.ramp(e.release, 0, decayRatio)
	case phaseOff:
		e.amp = 0
		e.ticks = 0
	}
}

func (e *Envelope) flat(ticks int) {
	e.ticks = ticks
	e.base = e.amp
	e.coef = 0
}

// ramp sets up an exponential approach to target over ticks samples. The
// curve aims ratio past the target so that it gets there in finite time.
func (e *Envelope) ramp(ticks int, target, ratio float64) {
	e.ticks = ticks
	if ticks == 0 {
		e.amp = target
		return
	}
	if target == e.amp {
		e.flat(ticks)
		return
	}
	e.coef = math.Exp(-math.Log((1+ratio)/ratio) / float64(ticks))
	if target > e.amp {
		e.base = (target + ratio) * (1 - e.coef)
	} else {
		e.base = (target - ratio) * (1 - e.coef)
	}
}
