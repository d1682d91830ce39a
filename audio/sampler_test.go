package audio

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/youpy/go-wav"
)

func rampSample(n int) *Sample {
	data := make([]int16, n)
	for i := range data {
		data[i] = int16(i)
	}
	return NewSample("ramp", data, DefaultSampleRate)
}

func TestLoopOffset(t *testing.T) {
	s := rampSample(300)
	s.LoopStart, s.LoopEnd = 100, 200
	p := Params{Loop: true}

	var got []int64
	for _, pos := range []int64{150, 250, 350} {
		got = append(got, s.Offset(pos, &p))
	}
	if want := []int64{150, 150, 150}; !reflect.DeepEqual(want, got) {
		t.Errorf("want %v, got %v", want, got)
	}

	p.Loop = false
	if want, got := int64(250), s.Offset(250, &p); want != got {
		t.Errorf("non looping: want %v, got %v", want, got)
	}
}

func TestGetDataLoops(t *testing.T) {
	s := rampSample(300)
	s.LoopStart, s.LoopEnd = 100, 200
	p := Params{Loop: true}

	buf := make([]int16, 8)
	if want, got := len(buf), s.GetData(buf, 196, &p); want != got {
		t.Fatalf("want %v samples, got %v", want, got)
	}
	if want := []int16{196, 197, 198, 199, 100, 101, 102, 103}; !reflect.DeepEqual(want, buf) {
		t.Errorf("want %v, got %v", want, buf)
	}
}

func TestGetDataEnds(t *testing.T) {
	s := rampSample(300)
	p := Params{}
	buf := make([]int16, 8)
	if want, got := 4, s.GetData(buf, 296, &p); want != got {
		t.Errorf("want %v samples, got %v", want, got)
	}
	if want, got := 0, s.GetData(buf, 300, &p); want != got {
		t.Errorf("want %v samples, got %v", want, got)
	}
	if !s.Ended(300, &p) || s.Ended(299, &p) {
		t.Error("wrong end of sample")
	}
}

func TestGetDataOffsets(t *testing.T) {
	s := rampSample(300)
	p := Params{StartOffset: 10, EndOffset: -10}
	buf := make([]int16, 4)
	s.GetData(buf, 0, &p)
	if want := []int16{10, 11, 12, 13}; !reflect.DeepEqual(want, buf) {
		t.Errorf("want %v, got %v", want, buf)
	}
	if want, got := 0, s.GetData(buf, 280, &p); want != got {
		t.Errorf("want %v samples past end, got %v", want, got)
	}
}

func writeWav(t *testing.T, path string, channels int, frames [][2]int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	w := wav.NewWriter(f, uint32(len(frames)), uint16(channels), 22050, 16)
	samples := make([]wav.Sample, len(frames))
	for i, fr := range frames {
		samples[i].Values = fr
	}
	if err := w.WriteSamples(samples); err != nil {
		t.Fatal(err)
	}
}

func TestLoadSample(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stereo.wav")
	writeWav(t, path, 2, [][2]int{{1000, 3000}, {-2000, -2000}, {32767, 32767}})

	s, err := LoadSample(path)
	if err != nil {
		t.Fatal(err)
	}
	if want, got := 22050, s.SampleRate; want != got {
		t.Errorf("want rate %v, got %v", want, got)
	}
	if want, got := 3, s.Len(); want != got {
		t.Fatalf("want %v samples, got %v", want, got)
	}
	// Channels are averaged.
	for i, want := range []int16{2000, -2000, 32766} {
		if got := s.Data[i]; got < want-1 || got > want+1 {
			t.Errorf("sample %d: want %v, got %v", i, want, got)
		}
	}
}

func TestLoadBank(t *testing.T) {
	dir := t.TempDir()
	writeWav(t, filepath.Join(dir, "a.wav"), 1, [][2]int{{1}, {2}, {3}, {4}})
	bankJSON := `{
		"samples": [
			{"name": "piano", "file": "a.wav", "rootKey": 64, "loopStart": 1, "loopEnd": 3}
		],
		"zones": [
			{"sample": "piano", "keyLow": 0, "keyHigh": 63, "params": {"pan": -0.5}},
			{"sample": "piano", "keyLow": 64, "velLow": 100},
			{"sample": "piano", "keyLow": 60, "keyHigh": 70, "params": {"loop": true, "envelope": {"attack": 0.1, "sustain": 0.8}}}
		]
	}`
	path := filepath.Join(dir, "bank.json")
	if err := os.WriteFile(path, []byte(bankJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := LoadBank(path)
	if err != nil {
		t.Fatal(err)
	}
	if want, got := 1, b.NumSamples(); want != got {
		t.Errorf("want %v samples, got %v", want, got)
	}
	s := b.zones[0].SampleRef()
	if want, got := 64, s.RootKey; want != got {
		t.Errorf("want root key %v, got %v", want, got)
	}
	if s.LoopStart != 1 || s.LoopEnd != 3 {
		t.Errorf("wrong loop points %d %d", s.LoopStart, s.LoopEnd)
	}

	type test struct {
		note, velocity int
		zones          []int
	}
	for _, test := range []test{
		{note: 10, velocity: 64, zones: []int{0}},
		{note: 62, velocity: 64, zones: []int{0, 2}},
		{note: 65, velocity: 64, zones: []int{2}},
		{note: 65, velocity: 100, zones: []int{1, 2}},
		{note: 100, velocity: 64, zones: nil},
	} {
		var got []int
		for _, z := range b.Resolve(test.note, test.velocity, nil) {
			for i := range b.zones {
				if b.zones[i] == z {
					got = append(got, i)
				}
			}
		}
		if !reflect.DeepEqual(test.zones, got) {
			t.Errorf("note %d velocity %d: want zones %v, got %v", test.note, test.velocity, test.zones, got)
		}
	}

	// Fields not given in the bank keep their defaults.
	z := b.zones[2]
	if want, got := 1.0, b.zones[0].Params.Envelope.Sustain; want != got {
		t.Errorf("want default sustain %v, got %v", want, got)
	}
	if want, got := 0.8, z.Params.Envelope.Sustain; want != got {
		t.Errorf("want sustain %v, got %v", want, got)
	}
	if !z.Params.Loop {
		t.Error("expected looping zone")
	}
}

func TestLoadBankUnknownSample(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bank.json")
	if err := os.WriteFile(path, []byte(`{"zones": [{"sample": "missing"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadBank(path); err == nil {
		t.Error("expected error for unknown sample")
	}
}
