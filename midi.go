package main

import (
	"context"
	"fmt"
	"log"

	"gitlab.com/gomidi/rtmididrv"
)

// noteReceiver is the part of the instrument MIDI input drives.
type noteReceiver interface {
	NoteOn(note, velocity int)
	NoteOff(note int)
	SustainPedal(down bool)
	AllNotesOff()
}

const (
	statusNoteOff       = 0x80
	statusNoteOn        = 0x90
	statusControlChange = 0xB0

	ccSustain     = 64
	ccAllSoundOff = 120
	ccAllNotesOff = 123
)

// listenMIDI forwards messages from the given input port until ctx is done.
// A missing port is logged and not treated as an error.
func listenMIDI(ctx context.Context, port int, r noteReceiver) error {
	drv, err := rtmididrv.New()
	if err != nil {
		return fmt.Errorf("initialize MIDI driver: %w", err)
	}
	defer func() {
		if err := drv.Close(); err != nil {
			log.Printf("midi: close driver: %v", err)
		}
	}()
	ins, err := drv.Ins()
	if err != nil {
		return fmt.Errorf("get MIDI inputs: %w", err)
	}
	if port >= len(ins) {
		log.Printf("midi: no input port %d (%d available)", port, len(ins))
		<-ctx.Done()
		return nil
	}
	in := ins[port]
	if err := in.Open(); err != nil {
		return fmt.Errorf("open MIDI input %s: %w", in, err)
	}
	defer func() {
		if err := in.Close(); err != nil {
			log.Printf("midi: close %s: %v", in, err)
		}
	}()
	log.Printf("midi: listening on %s", in)
	if err := in.SetListener(func(data []byte, deltaMicroseconds int64) {
		handleMIDI(data, r)
	}); err != nil {
		return fmt.Errorf("set MIDI listener: %w", err)
	}
	defer func() {
		if err := in.StopListening(); err != nil {
			log.Printf("midi: stop listening: %v", err)
		}
	}()
	<-ctx.Done()
	return nil
}

// handleMIDI decodes one channel message. Channels are ignored.
func handleMIDI(data []byte, r noteReceiver) {
	if len(data) < 3 {
		return
	}
	note, value := int(data[1]&0x7f), int(data[2]&0x7f)
	switch data[0] & 0xf0 {
	case statusNoteOn:
		if value == 0 {
			r.NoteOff(note)
			return
		}
		r.NoteOn(note, value)
	case statusNoteOff:
		r.NoteOff(note)
	case statusControlChange:
		switch note {
		case ccSustain:
			r.SustainPedal(value >= 64)
		case ccAllSoundOff, ccAllNotesOff:
			r.AllNotesOff()
		}
	}
}
