package audio

import (
	"math"
	"testing"
)

func runFilter(f *biquad, in []float32) []float32 {
	out := make([]float32, len(in))
	copy(out, in)
	for n := 0; n < len(out); n += BlockSize {
		end := n + BlockSize
		if end > len(out) {
			end = len(out)
		}
		f.process(out[n:end])
	}
	return out
}

func peak(buf []float32) float64 {
	max := 0.0
	for _, s := range buf {
		max = math.Max(max, math.Abs(float64(s)))
	}
	return max
}

func TestLowpass(t *testing.T) {
	const n = 16 * BlockSize
	dc := make([]float32, n)
	nyquist := make([]float32, n)
	for i := range dc {
		dc[i] = 1
		nyquist[i] = 1
		if i%2 == 1 {
			nyquist[i] = -1
		}
	}

	var f biquad
	f.setup(FilterParams{Cutoff: 1000, Q: 0.7071}, DefaultSampleRate)
	out := runFilter(&f, dc)
	if got := out[len(out)-1]; math.Abs(float64(got)-1) > 1e-3 {
		t.Errorf("dc: want unity gain, got %v", got)
	}

	f.setup(FilterParams{Cutoff: 1000, Q: 0.7071}, DefaultSampleRate)
	out = runFilter(&f, nyquist)
	if got := peak(out[len(out)-BlockSize:]); got > 0.01 {
		t.Errorf("nyquist: want attenuation, got peak %v", got)
	}
}

func TestLowpassPassThrough(t *testing.T) {
	in := make([]float32, BlockSize)
	for i := range in {
		in[i] = float32(math.Sin(float64(i) * 0.3))
	}
	for _, cutoff := range []float64{0, -10, 0.45 * DefaultSampleRate, 30000} {
		var f biquad
		f.setup(FilterParams{Cutoff: cutoff, Q: 1}, DefaultSampleRate)
		out := runFilter(&f, in)
		for i := range in {
			if want, got := in[i], out[i]; want != got {
				t.Fatalf("cutoff %v: sample %v: want %v, got %v", cutoff, i, want, got)
			}
		}
	}
}

func TestVibratoOffset(t *testing.T) {
	var l vibrato
	l.setup(VibratoParams{Depth: 50, Rate: 5, Delay: 0.1}, 1, DefaultSampleRate)
	delay := int64(0.1 * DefaultSampleRate)
	period := int64(DefaultSampleRate / 5)

	for n := int64(0); n < delay; n += 7 {
		if got := l.offset(n); got != 0 {
			t.Fatalf("offset at %v before delay: want 0, got %v", n, got)
		}
	}
	max := 0.0
	for n := delay; n < delay+2*period; n++ {
		off := l.offset(n).Float()
		if off < 0 {
			t.Fatalf("offset at %v is negative: %v", n, off)
		}
		max = math.Max(max, off)
	}
	if want := 2 * l.scale; math.Abs(max-want) > 1e-4*want {
		t.Errorf("want peak %v, got %v", want, max)
	}
}

func TestVibratoDepthLimit(t *testing.T) {
	var limited, huge vibrato
	limited.setup(VibratoParams{Depth: maxVibratoDepth, Rate: 5}, 1, DefaultSampleRate)
	huge.setup(VibratoParams{Depth: 5000, Rate: 5}, 1, DefaultSampleRate)
	if want, got := limited.scale, huge.scale; want != got {
		t.Errorf("want depth capped at %v cents: scale %v, got %v", maxVibratoDepth, want, got)
	}

	var off vibrato
	off.setup(VibratoParams{Depth: 50}, 1, DefaultSampleRate)
	if got := off.offset(1000); got != 0 {
		t.Errorf("zero rate: want no offset, got %v", got)
	}
}

func TestVibratoToggle(t *testing.T) {
	p := newTestPoly(t, 1, DefaultConfig())
	params := sustainParams()
	params.Vibrato = VibratoParams{Depth: 50, Rate: 5}
	v, err := p.Allocate(rampSample(100*BlockSize), 60, 1, params)
	if err != nil {
		t.Fatal(err)
	}

	on := DefaultConfig()
	off := DefaultConfig()
	off.Vibrato = false
	for _, n := range []int64{0, 1, 100, 1000, 4410} {
		if want, got := v.factor.MulInt(n), v.position(n, &off); want != got {
			t.Errorf("vibrato off at %v: want %v, got %v", n, want, got)
		}
	}
	if v.position(2205, &on) == v.position(2205, &off) {
		t.Error("vibrato on should move the position")
	}
}

// Turning vibrato off mid-note moves positions back in time. Rendering
// must keep going with samples inside [-1, 1].
func TestVibratoSwitchedOffWhilePlaying(t *testing.T) {
	p := newTestPoly(t, 1, DefaultConfig())
	params := sustainParams()
	params.Vibrato = VibratoParams{Depth: maxVibratoDepth, Rate: 5}
	if _, err := p.Allocate(rampSample(1000*BlockSize), 60, 1, params); err != nil {
		t.Fatal(err)
	}
	out := newOutput()
	for n := 0; n < 20; n++ {
		pump(p)
		p.Mix(out)
	}
	cfg := p.Config()
	cfg.Vibrato = false
	if err := p.SetConfig(cfg); err != nil {
		t.Fatal(err)
	}
	for n := 0; n < 20; n++ {
		pump(p)
		p.Mix(out)
		if got := peak(out[0]); got > 1 {
			t.Fatalf("block %v out of range: %v", n, got)
		}
	}
	if want, got := 1, p.Live(); want != got {
		t.Errorf("want %v live voices, got %v", want, got)
	}
}

func TestPlaybackFactor(t *testing.T) {
	type test struct {
		name   string
		note   int
		params Params
		rate   int
		corr   int
		want   float64
	}
	semi := func(n float64) float64 { return math.Pow(2, n/12) }
	tests := []test{
		{name: "unity", note: 60, rate: DefaultSampleRate, want: 1},
		{name: "octave", note: 72, rate: DefaultSampleRate, want: 2},
		{name: "transpose", note: 60, params: Params{Transpose: 7}, rate: DefaultSampleRate, want: semi(7)},
		{name: "tune", note: 60, params: Params{Tune: 50}, rate: DefaultSampleRate, want: semi(0.5)},
		{name: "correction", note: 60, corr: -100, rate: DefaultSampleRate, want: semi(-1)},
		{name: "root key", note: 60, params: Params{RootKey: 48}, rate: DefaultSampleRate, want: 2},
		{name: "rate", note: 60, rate: 22050, want: 0.5},
		{
			name:   "combined",
			note:   64,
			params: Params{Transpose: -12, Tune: 25},
			corr:   10,
			rate:   48000,
			want:   semi(4-12+0.35) * 48000 / DefaultSampleRate,
		},
	}
	for _, test := range tests {
		s := NewSample("s", nil, test.rate)
		s.Correction = test.corr
		got := playbackFactor(s, test.note, &test.params, DefaultSampleRate)
		if math.Abs(got-test.want) > 1e-12 {
			t.Errorf("%s: want %v, got %v", test.name, test.want, got)
		}
	}
}
