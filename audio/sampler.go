package audio

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/youpy/go-wav"
)

// Sample is a mono 16 bit sound held in memory. Data may be shared with
// other samples; Start and End select this sample's range and the loop
// points are relative to Start.
type Sample struct {
	Name       string
	Data       []int16
	Start, End int
	LoopStart  int
	LoopEnd    int
	SampleRate int
	RootKey    int
	Correction int // cents
}

func NewSample(name string, data []int16, sampleRate int) *Sample {
	return &Sample{
		Name:       name,
		Data:       data,
		End:        len(data),
		LoopEnd:    len(data),
		SampleRate: sampleRate,
		RootKey:    60,
	}
}

// span is the playable range of a sample after zone offsets are applied.
// All values are relative to start.
type span struct {
	start              int
	length             int
	loopStart, loopEnd int
}

func (s *Sample) span(p *Params) span {
	start := clampInt(s.Start+p.StartOffset, 0, len(s.Data))
	end := clampInt(s.End+p.EndOffset, start, len(s.Data))
	sp := span{start: start, length: end - start}
	sp.loopStart = clampInt(s.LoopStart+p.LoopStartOffset, 0, sp.length)
	sp.loopEnd = clampInt(s.LoopEnd+p.LoopEndOffset, sp.loopStart, sp.length)
	return sp
}

func (sp span) looping(p *Params) bool {
	return p.Loop && sp.loopEnd > sp.loopStart
}

// Offset maps a position in the unrolled output stream of the sample to an
// offset into its data, relative to the start of the sample.
func (s *Sample) Offset(pos int64, p *Params) int64 {
	return s.span(p).offset(pos, p)
}

func (sp span) offset(pos int64, p *Params) int64 {
	if !sp.looping(p) || pos < int64(sp.loopEnd) {
		return pos
	}
	loopLen := int64(sp.loopEnd - sp.loopStart)
	return int64(sp.loopStart) + (pos-int64(sp.loopEnd))%loopLen
}

// GetData copies raw samples starting at stream position pos into buf and
// returns how many were copied. A count below len(buf) means the sound has
// ended; a looping sample never ends.
func (s *Sample) GetData(buf []int16, pos int64, p *Params) int {
	sp := s.span(p)
	loop := sp.looping(p)
	for i := range buf {
		k := pos + int64(i)
		if !loop && k >= int64(sp.length) {
			return i
		}
		buf[i] = s.Data[sp.start+int(sp.offset(k, p))]
	}
	return len(buf)
}

// Ended reports whether a stream that has read up to pos is finished.
func (s *Sample) Ended(pos int64, p *Params) bool {
	sp := s.span(p)
	return !sp.looping(p) && pos >= int64(sp.length)
}

func (s *Sample) Len() int { return s.End - s.Start }

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// LoadSample reads a wav file and mixes it down to mono.
func LoadSample(file string) (*Sample, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := wav.NewReader(f)
	format, err := r.Format()
	if err != nil {
		return nil, fmt.Errorf("read wav format %s: %w", file, err)
	}
	channels := int(format.NumChannels)
	if channels == 0 {
		return nil, fmt.Errorf("wav file %s has no channels", file)
	}
	if channels > 2 {
		channels = 2
	}
	var data []int16
	for {
		samples, err := r.ReadSamples()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read wav samples %s: %w", file, err)
		}
		for _, sample := range samples {
			var sum float64
			for ch := 0; ch < channels; ch++ {
				sum += r.FloatValue(sample, uint(ch))
			}
			data = append(data, toInt16(sum/float64(channels)))
		}
	}
	name := filepath.Base(file)
	return NewSample(name, data, int(format.SampleRate)), nil
}

func toInt16(f float64) int16 {
	v := math.Round(f * 32767)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// Zone maps a key and velocity range to a sample and its parameters.
type Zone struct {
	Sample  string `json:"sample"`
	KeyLow  int    `json:"keyLow"`
	KeyHigh int    `json:"keyHigh"`
	VelLow  int    `json:"velLow"`
	VelHigh int    `json:"velHigh"`
	Params  Params `json:"params"`

	sample *Sample
}

func (z *Zone) UnmarshalJSON(data []byte) error {
	type plain Zone
	zone := plain{KeyHigh: 127, VelLow: 1, VelHigh: 127, Params: DefaultParams()}
	if err := json.Unmarshal(data, &zone); err != nil {
		return err
	}
	*z = Zone(zone)
	return nil
}

func (z *Zone) matches(note, velocity int) bool {
	return note >= z.KeyLow && note <= z.KeyHigh &&
		velocity >= z.VelLow && velocity <= z.VelHigh
}

func (z *Zone) SampleRef() *Sample { return z.sample }

// Bank is an immutable set of samples and the zones that play them.
type Bank struct {
	Path    string
	samples map[string]*Sample
	zones   []*Zone
}

type bankFile struct {
	Samples []struct {
		Name       string `json:"name"`
		File       string `json:"file"`
		RootKey    int    `json:"rootKey"`
		Correction int    `json:"correction"`
		LoopStart  int    `json:"loopStart"`
		LoopEnd    int    `json:"loopEnd"`
	} `json:"samples"`
	Zones []*Zone `json:"zones"`
}

// LoadBank reads a json bank description. Sample files are resolved
// relative to the bank file.
func LoadBank(path string) (*Bank, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var bf bankFile
	if err := json.Unmarshal(raw, &bf); err != nil {
		return nil, fmt.Errorf("parse bank %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	samples := make(map[string]*Sample, len(bf.Samples))
	for _, desc := range bf.Samples {
		file := desc.File
		if !filepath.IsAbs(file) {
			file = filepath.Join(dir, file)
		}
		s, err := LoadSample(file)
		if err != nil {
			return nil, fmt.Errorf("load sample %s: %w", desc.Name, err)
		}
		if desc.Name != "" {
			s.Name = desc.Name
		}
		if desc.RootKey > 0 {
			s.RootKey = desc.RootKey
		}
		s.Correction = desc.Correction
		if desc.LoopEnd > 0 {
			s.LoopStart = clampInt(desc.LoopStart, 0, s.Len())
			s.LoopEnd = clampInt(desc.LoopEnd, s.LoopStart, s.Len())
		}
		samples[s.Name] = s
	}
	b, err := NewBank(samples, bf.Zones)
	if err != nil {
		return nil, fmt.Errorf("bank %s: %w", path, err)
	}
	b.Path = path
	return b, nil
}

// NewBank links zones to the samples they name.
func NewBank(samples map[string]*Sample, zones []*Zone) (*Bank, error) {
	for _, z := range zones {
		s, ok := samples[z.Sample]
		if !ok {
			return nil, fmt.Errorf("zone refers to unknown sample %q", z.Sample)
		}
		z.sample = s
	}
	return &Bank{samples: samples, zones: zones}, nil
}

// Resolve appends the zones that play for note and velocity to dst.
func (b *Bank) Resolve(note, velocity int, dst []*Zone) []*Zone {
	for _, z := range b.zones {
		if z.matches(note, velocity) {
			dst = append(dst, z)
		}
	}
	return dst
}

func (b *Bank) NumSamples() int { return len(b.samples) }
func (b *Bank) NumZones() int   { return len(b.zones) }
