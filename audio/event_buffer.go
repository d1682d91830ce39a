package audio

import (
	"runtime"
	"sync/atomic"
)

type eventKind int

const (
	evNoteOn eventKind = iota
	evNoteOff
	evPedal
	evAllNotesOff
)

type event struct {
	kind     eventKind
	note     int
	velocity int
	down     bool
}

// eventBuffer is a lock-free spsc queue.
type eventBuffer struct {
	events      []event
	read, write atomic.Uint32
}

func newEventBuffer(size int) *eventBuffer {
	if size <= 0 || size&(size-1) != 0 {
		panic("event buffer size must be a power of 2")
	}
	return &eventBuffer{events: make([]event, size)}
}

// push blocks while the buffer is full.
func (b *eventBuffer) push(ev event) {
	for b.write.Load()-b.read.Load() == uint32(len(b.events)) {
		runtime.Gosched()
	}
	write := b.write.Load()
	b.events[write%uint32(len(b.events))] = ev
	b.write.Store(write + 1)
}

// iter calls f for every queued event and reports how many there were.
func (b *eventBuffer) iter(f func(event)) int {
	read := b.read.Load()
	write := b.write.Load()
	n := int(write - read)
	for read != write {
		f(b.events[read%uint32(len(b.events))])
		read++
		b.read.Store(read)
	}
	return n
}
