package audio

import (
	"sync/atomic"
)

// Samples carried over from the previous window when it slides, so that
// interpolation stays continuous across block boundaries. A position that
// falls before the window is clamped to its first sample.
const historyLen = 4

// windowSize leaves room for one block, the history and a guard sample
// past the end of the sound.
const windowSize = historyLen + BlockSize + 1

// primeBlocks are pulled into the fifo before the first block is rendered.
const primeBlocks = 2

// Voice renders one note. Its two state bits are only changed while the
// lock is held:
//
//	alive=false active=false  free
//	alive=true  active=false  claimed, being set up by the note goroutine
//	alive=true  active=true   sounding
//
// The feeder goroutine fills the fifo from the sample, a buffer goroutine
// turns fifo blocks into a ready output block, and the mixer consumes that
// block and hands it back with releaseBuffer.
type Voice struct {
	lock   spinLock
	alive  atomic.Bool
	active atomic.Bool
	inMix  atomic.Bool // mixer is looking at this voice
	seq    atomic.Uint64
	next   int // arena link, -1 ends the list

	// Set up by the note goroutine before the voice is activated.
	sample    *Sample
	params    Params
	note      int
	gain      float32
	factor    Wide
	vib       vibrato
	env       Envelope
	filter    biquad
	left      float32
	right     float32
	sustained bool // key is up but the pedal holds it; note goroutine only

	// Producer side.
	fifo     fifo
	readPos  int64
	fifoDone bool

	// Consumer side.
	produced  int64 // output samples rendered since the note started
	win       [windowSize]float32
	winStart  int64 // stream position of win[0]
	winLen    int
	srcEnded  bool
	srcLen    int64
	exhausted bool
	fill      int
	idx       [BlockSize]int32
	frac      [BlockSize]float32
	amp       [BlockSize]float32

	// Output slot, owned by the buffer goroutine while ready is false and
	// by the mixer while it is true.
	ready    atomic.Bool
	out      [BlockSize]float32
	outCount int
	outEnd   bool

	scratch [BlockSize]float32 // mixer only
}

func (v *Voice) Note() int   { return v.note }
func (v *Voice) Seq() uint64 { return v.seq.Load() }
func (v *Voice) Active() bool {
	return v.active.Load()
}

// claim moves a free voice to the claimed state.
func (v *Voice) claim() bool {
	v.lock.Lock()
	defer v.lock.Unlock()
	if v.alive.Load() || v.active.Load() || v.inMix.Load() {
		return false
	}
	v.alive.Store(true)
	return true
}

// setup prepares a claimed voice to play s and renders its first output
// block, so the mixer never sees an active voice without data.
func (v *Voice) setup(s *Sample, note int, gain float32, p *Params, cfg *Config) {
	if !v.alive.Load() || v.active.Load() {
		panic("voice: setup of a voice that is not claimed")
	}
	v.sample = s
	v.params = *p
	v.note = note
	v.gain = gain * float32(attenuationGain(p.Attenuation))
	factor := playbackFactor(s, note, p, cfg.SampleRate)
	v.factor = WideFromFloat(factor)
	v.vib.setup(p.Vibrato, factor, cfg.SampleRate)
	v.env.Setup(p.Envelope, cfg.SampleRate)
	v.filter.setup(p.Filter, cfg.SampleRate)
	l, r := panGains(p.Pan)
	v.left, v.right = float32(l), float32(r)
	v.sustained = false
	v.reset()

	for n := 0; n < primeBlocks && v.feedFifo(true); n++ {
	}
	for !v.ready.Load() {
		if v.feedBuffer(cfg, true) {
			continue
		}
		if !v.feedFifo(true) {
			panic("voice: no progress during setup")
		}
	}
}

func (v *Voice) reset() {
	v.fifo.clear()
	v.readPos = 0
	v.fifoDone = false
	v.produced = 0
	v.win = [windowSize]float32{}
	v.winStart = -historyLen
	v.winLen = historyLen
	v.srcEnded = false
	v.srcLen = 0
	v.exhausted = false
	v.fill = 0
	v.ready.Store(false)
	v.outCount = 0
	v.outEnd = false
}

// activate must be called with the lock held.
func (v *Voice) activate() {
	v.active.Store(true)
}

// inactivate frees the voice and reports whether it was sounding. It must
// be called with the lock held. The output slot is left alone since the
// mixer may still be reading it; setup resets it on reuse.
func (v *Voice) inactivate() bool {
	wasActive := v.active.Load()
	v.active.Store(false)
	v.alive.Store(false)
	v.fifo.clear()
	v.winStart = -historyLen
	v.winLen = historyLen
	v.fill = 0
	v.ready.Store(false)
	return wasActive
}

// feedFifo moves one block from the sample into the fifo. It reports
// whether a block was pushed. bypass skips locking and the active check and
// is only used while setting up.
func (v *Voice) feedFifo(bypass bool) bool {
	if !bypass {
		v.lock.Lock()
		defer v.lock.Unlock()
		if !v.active.Load() {
			return false
		}
	}
	if v.fifoDone || v.fifo.isFull() {
		return false
	}
	b := v.fifo.tail()
	b.count = v.sample.GetData(b.data[:], v.readPos, &v.params)
	v.readPos += int64(b.count)
	b.last = b.count < BlockSize || v.sample.Ended(v.readPos, &v.params)
	v.fifoDone = b.last
	v.fifo.push()
	return true
}

// feedBuffer renders output until a block is ready or the fifo runs dry.
// It reports whether any output was produced.
func (v *Voice) feedBuffer(cfg *Config, bypass bool) bool {
	if !bypass {
		v.lock.Lock()
		defer v.lock.Unlock()
		if !v.active.Load() {
			return false
		}
	}
	if v.ready.Load() {
		return false
	}
	return v.render(cfg)
}

// position returns the source position of output sample n.
func (v *Voice) position(n int64, cfg *Config) Wide {
	pos := v.factor.MulInt(n)
	if cfg.Vibrato {
		pos = pos.Add(v.vib.offset(n))
	}
	return pos
}

func (v *Voice) render(cfg *Config) bool {
	in := cfg.interpolator()
	start := v.fill
	pending := 0
	for v.fill+pending < BlockSize {
		pos := v.position(v.produced+int64(pending), cfg)
		rel := pos.Int() - v.winStart
		if rel < 0 {
			rel = 0
		}
		avail := int64(v.winLen)
		if v.srcEnded {
			avail++ // guard
		}
		if rel+1 >= avail {
			if v.srcEnded {
				v.exhausted = true
				break
			}
			v.flush(in, pending)
			pending = 0
			if !v.slide() {
				break
			}
			continue
		}
		v.idx[pending] = int32(rel)
		v.frac[pending] = float32(pos.Frac().Float())
		pending++
	}
	v.flush(in, pending)
	if v.srcEnded && !v.exhausted && v.fill == BlockSize {
		v.exhausted = v.position(v.produced, cfg).Int() >= v.srcLen
	}

	switch {
	case v.exhausted && v.fill == 0:
		v.outCount = 0
		v.outEnd = true
		v.ready.Store(true)
		return true
	case v.exhausted:
		last := v.out[v.fill-1]
		for n := v.fill; n < BlockSize; n++ {
			v.out[n] = last
		}
		v.finish(cfg, true)
		return true
	case v.fill == BlockSize:
		v.finish(cfg, false)
		return true
	}
	return v.fill > start
}

// flush interpolates the pending positions into the output block.
func (v *Voice) flush(in interpolator, pending int) {
	if pending == 0 {
		return
	}
	in.interpolate(v.out[v.fill:v.fill+pending], v.win[:], v.idx[:pending], v.frac[:pending])
	v.fill += pending
	v.produced += int64(pending)
}

// slide drops all but the last historyLen samples of the window and appends
// the next fifo block. It returns false if the fifo is empty.
func (v *Voice) slide() bool {
	if v.fifo.isEmpty() {
		return false
	}
	b := v.fifo.head()
	drop := v.winLen - historyLen
	copy(v.win[:historyLen], v.win[drop:v.winLen])
	v.winStart += int64(drop)
	v.winLen = historyLen
	for n := 0; n < b.count; n++ {
		v.win[v.winLen+n] = float32(b.data[n]) / 32768
	}
	v.winLen += b.count
	if b.last {
		v.srcEnded = true
		v.srcLen = v.winStart + int64(v.winLen)
		v.win[v.winLen] = v.win[v.winLen-1]
	}
	v.fifo.pop()
	return true
}

// finish applies amplitude and publishes the block to the mixer.
func (v *Voice) finish(cfg *Config, end bool) {
	finished, valid := v.env.Amplitudes(v.amp[:], cfg.Envelope)
	g := v.gain
	if valid {
		for n := range v.out {
			v.out[n] *= v.amp[n] * g
		}
	} else {
		for n := range v.out {
			v.out[n] *= g
		}
	}
	v.outCount = BlockSize
	v.outEnd = end || finished
	v.fill = 0
	v.ready.Store(true)
}

// buffer returns the ready output block. A count of -1 means no block is
// ready yet, 0 means the voice has nothing more to play.
func (v *Voice) buffer() ([]float32, int) {
	if !v.ready.Load() {
		return nil, -1
	}
	return v.out[:v.outCount], v.outCount
}

func (v *Voice) releaseBuffer() {
	v.ready.Store(false)
}

// mix adds the voice's ready block to left and right.
func (v *Voice) mix(cfg *Config, buf, left, right []float32) {
	if cfg.Filter {
		n := copy(v.scratch[:], buf)
		buf = v.scratch[:n]
		v.filter.process(buf)
	}
	for n, s := range buf {
		left[n] += s * v.left
		right[n] += s * v.right
	}
}
