package audio

import (
	"math"
)

// Params is the synthesis parameter snapshot of one zone. A voice copies it
// when the note starts, so later edits never reach a sounding note.
type Params struct {
	Loop            bool `json:"loop"`
	StartOffset     int  `json:"startOffset"`
	EndOffset       int  `json:"endOffset"`
	LoopStartOffset int  `json:"loopStartOffset"`
	LoopEndOffset   int  `json:"loopEndOffset"`

	RootKey     int     `json:"rootKey"`     // 0 uses the sample's root key
	Transpose   int     `json:"transpose"`   // semitones
	Tune        int     `json:"tune"`        // cents
	Pan         float64 `json:"pan"`         // -1 left, 1 right
	Attenuation float64 `json:"attenuation"` // centibels

	Envelope EnvelopeParams `json:"envelope"`
	Filter   FilterParams   `json:"filter"`
	Vibrato  VibratoParams  `json:"vibrato"`
}

func DefaultParams() Params {
	return Params{
		Envelope: EnvelopeParams{Sustain: 1, Release: 0.1},
		Filter:   FilterParams{Q: 0.7071},
	}
}

// playbackFactor is the number of source samples to advance per output
// sample.
func playbackFactor(s *Sample, note int, p *Params, outputRate int) float64 {
	root := s.RootKey
	if p.RootKey > 0 {
		root = p.RootKey
	}
	semitones := float64(note+p.Transpose-root) + float64(p.Tune+s.Correction)/100
	return math.Pow(2, semitones/12) * float64(s.SampleRate) / float64(outputRate)
}

// attenuationGain converts centibels of attenuation to a linear gain.
func attenuationGain(cb float64) float64 {
	if cb <= 0 {
		return 1
	}
	return math.Pow(10, -cb/200)
}

// panGains uses a constant power pan law.
func panGains(pan float64) (left, right float64) {
	pan = math.Max(-1, math.Min(1, pan))
	theta := (pan + 1) * math.Pi / 4
	return math.Cos(theta), math.Sin(theta)
}

type FilterParams struct {
	Cutoff float64 `json:"cutoff"` // Hz, 0 disables the filter
	Q      float64 `json:"q"`
}

const numCoefficients = 5

type biquad struct {
	coefficients [numCoefficients]Fixed

	// state
	y1, y2 float32 // y[n-1] y[n-2]
}

// Lowpass filter based on https://www.w3.org/2011/audio/audio-eq-cookbook.html
func (f *biquad) process(buf []float32) {
	c0 := float32(f.coefficients[0].Float())
	c1 := float32(f.coefficients[1].Float())
	c2 := float32(f.coefficients[2].Float())
	c3 := float32(f.coefficients[3].Float())
	c4 := float32(f.coefficients[4].Float())

	for n := range buf {
		in := buf[n]
		out := c0*in + f.y1
		buf[n] = out
		f.y1 = c1*in - c3*out + f.y2
		f.y2 = c2*in - c4*out
	}
}

func (f *biquad) setup(p FilterParams, sampleRate int) {
	f.y1, f.y2 = 0, 0
	if p.Cutoff <= 0 || p.Cutoff >= 0.45*float64(sampleRate) {
		f.coefficients = [numCoefficients]Fixed{FixedFromInt(1)}
		return
	}
	q := p.Q
	if q <= 0 {
		q = 0.7071
	}
	omega := 2 * math.Pi * p.Cutoff / float64(sampleRate)
	cos := math.Cos(omega)
	sin := math.Sin(omega)
	alpha := sin / (2. * q)

	b0 := (1 - cos) / 2
	b1 := 1 - cos
	b2 := b0
	a0 := 1 + alpha
	a1 := -2 * cos
	a2 := 1 - alpha

	f.coefficients[0] = FixedFromFloat(b0 / a0)
	f.coefficients[1] = FixedFromFloat(b1 / a0)
	f.coefficients[2] = FixedFromFloat(b2 / a0)
	f.coefficients[3] = FixedFromFloat(a1 / a0)
	f.coefficients[4] = FixedFromFloat(a2 / a0)
}
