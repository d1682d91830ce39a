package audio

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

const eventBufferSize = 256

// dropLogInterval limits how often dropped notes are logged.
const dropLogInterval = time.Second

// Instrument is the note event front end of a Poly. Note methods may be
// called from any goroutine; they only queue events. Dispatch applies the
// queued events on a single goroutine.
type Instrument struct {
	*Props
	poly *Poly
	bank atomic.Pointer[Bank]

	pushMu sync.Mutex
	events *eventBuffer
	notify chan struct{}

	// dispatch goroutine only
	pedal    bool
	zones    []*Zone
	dropped  int
	lastDrop time.Time

	envelope *atomic.Value
	filter   *atomic.Value
	vibrato  *atomic.Value
	level    *atomic.Value
	interp   *atomic.Value
}

func NewInstrument(poly *Poly, bank *Bank) *Instrument {
	cfg := poly.Config()
	props := NewProps()
	i := &Instrument{
		Props:    props,
		poly:     poly,
		events:   newEventBuffer(eventBufferSize),
		notify:   make(chan struct{}, 1),
		envelope: props.MustRegister(PropEnvelope, setBool, cfg.Envelope),
		filter:   props.MustRegister(PropFilter, setBool, cfg.Filter),
		vibrato:  props.MustRegister(PropVibrato, setBool, cfg.Vibrato),
		level:    props.MustRegister(PropLevel, setLevel, cfg.Level),
		interp:   props.MustRegister(PropInterp, setChoice(Interpolations()...), cfg.Interpolation),
	}
	props.OnChange(i.publish)
	i.bank.Store(bank)
	return i
}

// publish rebuilds the pool configuration from the properties.
func (i *Instrument) publish() {
	cfg := i.poly.Config()
	cfg.Envelope = i.envelope.Load().(bool)
	cfg.Filter = i.filter.Load().(bool)
	cfg.Vibrato = i.vibrato.Load().(bool)
	cfg.Level = i.level.Load().(float64)
	cfg.Interpolation = i.interp.Load().(string)
	if err := i.poly.SetConfig(cfg); err != nil {
		log.Printf("instrument: %v", err)
	}
}

func (i *Instrument) Bank() *Bank { return i.bank.Load() }

// SetBank replaces the bank used for new notes. Sounding notes keep
// playing from the bank they started with.
func (i *Instrument) SetBank(b *Bank) { i.bank.Store(b) }

func (i *Instrument) Stats() Stats { return i.poly.Stats() }

func (i *Instrument) NoteOn(note, velocity int) {
	i.push(event{kind: evNoteOn, note: note, velocity: velocity})
}

func (i *Instrument) NoteOff(note int) {
	i.push(event{kind: evNoteOff, note: note})
}

func (i *Instrument) SustainPedal(down bool) {
	i.push(event{kind: evPedal, down: down})
}

func (i *Instrument) AllNotesOff() {
	i.push(event{kind: evAllNotesOff})
}

func (i *Instrument) push(ev event) {
	i.pushMu.Lock()
	i.events.push(ev)
	i.pushMu.Unlock()
	select {
	case i.notify <- struct{}{}:
	default:
	}
}

// Dispatch applies queued events until ctx is done.
func (i *Instrument) Dispatch(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-i.notify:
			i.events.iter(i.handle)
		}
	}
}

func (i *Instrument) handle(ev event) {
	switch ev.kind {
	case evNoteOn:
		if ev.velocity == 0 {
			i.poly.NoteOff(ev.note, i.pedal)
			return
		}
		i.noteOn(ev.note, ev.velocity)
	case evNoteOff:
		i.poly.NoteOff(ev.note, i.pedal)
	case evPedal:
		i.pedal = ev.down
		if !ev.down {
			i.poly.SustainPedalOff()
		}
	case evAllNotesOff:
		i.poly.AllNotesOff()
	}
}

func (i *Instrument) noteOn(note, velocity int) {
	bank := i.bank.Load()
	if bank == nil {
		return
	}
	gain := velocityGain(velocity)
	i.zones = bank.Resolve(note, velocity, i.zones[:0])
	if len(i.zones) == 0 {
		log.Printf("instrument: no zone for note %d velocity %d", note, velocity)
		return
	}
	for _, z := range i.zones {
		_, err := i.poly.Allocate(z.sample, note, gain, &z.Params)
		if errors.Is(err, ErrNoVoice) {
			i.drop(note)
			return
		}
	}
}

func (i *Instrument) drop(note int) {
	i.dropped++
	if now := time.Now(); now.Sub(i.lastDrop) >= dropLogInterval {
		log.Printf("poly: no free voice for note %d (%d dropped)", note, i.dropped)
		i.lastDrop = now
		i.dropped = 0
	}
}

// Process is the audio callback.
func (i *Instrument) Process(samples [][]float32) {
	i.poly.Mix(samples)
}

func velocityGain(velocity int) float32 {
	v := float32(velocity) / 127
	if v > 1 {
		v = 1
	}
	return v * v
}
