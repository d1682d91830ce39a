package audio

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrNoVoice is returned when every voice is in use.
var ErrNoVoice = errors.New("no free voice")

// Stats is a snapshot of the pool's counters.
type Stats struct {
	Voices    int
	Live      int
	HighWater int    // most voices live at once
	MaxMixed  int    // most voices mixed into one block
	Dropped   uint64 // notes not played because no voice was free
	Underruns uint64 // active voices without a ready block at mix time
}

func (s Stats) String() string {
	return fmt.Sprintf("live %d/%d high %d mixed %d dropped %d underruns %d",
		s.Live, s.Voices, s.HighWater, s.MaxMixed, s.Dropped, s.Underruns)
}

// Poly owns a fixed arena of voices. Allocate, NoteOff, SustainPedalOff and
// AllNotesOff must be called from a single note goroutine, Mix from the
// audio callback, and Run starts the goroutines that keep voices fed.
type Poly struct {
	voices []Voice
	first  int
	seq    uint64 // note goroutine only
	config atomic.Pointer[Config]

	live      atomic.Int32
	highWater atomic.Int32
	maxMixed  atomic.Int32
	dropped   atomic.Uint64
	underruns atomic.Uint64

	mu      sync.Mutex
	cond    *sync.Cond
	running atomic.Bool
}

func NewPoly(numVoices int, cfg Config) (*Poly, error) {
	if numVoices <= 0 {
		return nil, fmt.Errorf("invalid number of voices %d", numVoices)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	p := &Poly{voices: make([]Voice, numVoices)}
	for n := range p.voices {
		p.voices[n].next = n + 1
	}
	p.voices[numVoices-1].next = -1
	p.cond = sync.NewCond(&p.mu)
	p.config.Store(&cfg)
	return p, nil
}

func (p *Poly) Config() Config { return *p.config.Load() }

// SetConfig publishes a new configuration. Voices that are already sounding
// keep the sample rate they were set up with.
func (p *Poly) SetConfig(cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	p.config.Store(&cfg)
	return nil
}

func (p *Poly) Voices() int { return len(p.voices) }

func (p *Poly) Live() int { return int(p.live.Load()) }

func (p *Poly) Stats() Stats {
	return Stats{
		Voices:    len(p.voices),
		Live:      int(p.live.Load()),
		HighWater: int(p.highWater.Load()),
		MaxMixed:  int(p.maxMixed.Load()),
		Dropped:   p.dropped.Load(),
		Underruns: p.underruns.Load(),
	}
}

// Allocate starts a note on the first free voice. The first output block is
// rendered before the voice becomes visible to the mixer.
func (p *Poly) Allocate(s *Sample, note int, gain float32, params *Params) (*Voice, error) {
	cfg := p.config.Load()
	for n := p.first; n != -1; n = p.voices[n].next {
		v := &p.voices[n]
		if !v.claim() {
			continue
		}
		p.seq++
		v.seq.Store(p.seq)
		v.setup(s, note, gain, params, cfg)

		v.lock.Lock()
		v.activate()
		live := p.live.Add(1)
		v.lock.Unlock()

		storeMax(&p.highWater, live)
		if live == 1 {
			p.wake()
		}
		return v, nil
	}
	p.dropped.Add(1)
	return nil, ErrNoVoice
}

// NoteOff releases the voices playing note. While the sustain pedal is
// held they are only marked and released by SustainPedalOff.
func (p *Poly) NoteOff(note int, pedalHeld bool) {
	cfg := p.config.Load()
	for n := p.first; n != -1; n = p.voices[n].next {
		v := &p.voices[n]
		if !v.active.Load() || v.note != note {
			continue
		}
		if pedalHeld {
			v.sustained = true
			continue
		}
		p.release(v, cfg)
	}
}

func (p *Poly) SustainPedalOff() {
	cfg := p.config.Load()
	for n := p.first; n != -1; n = p.voices[n].next {
		v := &p.voices[n]
		if v.active.Load() && v.sustained {
			v.sustained = false
			p.release(v, cfg)
		}
	}
}

// AllNotesOff fades out every sounding voice.
func (p *Poly) AllNotesOff() {
	cfg := p.config.Load()
	for n := p.first; n != -1; n = p.voices[n].next {
		v := &p.voices[n]
		if !v.active.Load() {
			continue
		}
		v.sustained = false
		if !cfg.Envelope {
			p.deactivate(v)
			continue
		}
		v.env.QuickRelease(cfg.quickReleaseTicks())
	}
}

func (p *Poly) release(v *Voice, cfg *Config) {
	if !cfg.Envelope {
		p.deactivate(v)
		return
	}
	v.env.Release()
}

func (p *Poly) deactivate(v *Voice) {
	v.lock.Lock()
	if v.inactivate() {
		p.live.Add(-1)
	}
	v.lock.Unlock()
}

// Mix renders one block of planar stereo output into out and returns the
// number of frames written. Blocks must be exactly BlockSize frames; any
// other size is answered with silence and 0.
func (p *Poly) Mix(out [][]float32) int {
	for _, ch := range out {
		clear(ch)
	}
	if len(out) < 2 || len(out[0]) != BlockSize || len(out[1]) != BlockSize {
		return 0
	}
	cfg := p.config.Load()
	left, right := out[0], out[1]
	mixed := int32(0)
	for n := p.first; n != -1; n = p.voices[n].next {
		v := &p.voices[n]
		v.inMix.Store(true)
		if !v.active.Load() {
			v.inMix.Store(false)
			continue
		}
		buf, count := v.buffer()
		switch {
		case count < 0:
			p.underruns.Add(1)
		case count == 0:
			p.deactivate(v)
		default:
			mixed++
			v.mix(cfg, buf, left, right)
			end := v.outEnd
			v.releaseBuffer()
			if end {
				p.deactivate(v)
			}
		}
		v.inMix.Store(false)
	}
	if g := cfg.gain(); g != 1 {
		for n := range left {
			left[n] *= g
			right[n] *= g
		}
	}
	storeMax(&p.maxMixed, mixed)
	return BlockSize
}

func storeMax(dst *atomic.Int32, v int32) {
	for {
		cur := dst.Load()
		if v <= cur || dst.CompareAndSwap(cur, v) {
			return
		}
	}
}
