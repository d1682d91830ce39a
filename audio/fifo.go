package audio

import "sync/atomic"

const (
	// BlockSize is the number of frames in one output period and the
	// number of raw samples in one fifo block.
	BlockSize = 256
	fifoDepth = 6
)

type fifoBlock struct {
	data  [BlockSize]int16
	count int  // valid samples in data
	last  bool // no data follows this block
}

// fifo is a fixed capacity single producer, single consumer queue of raw
// sample blocks. The producer fills tail() and calls push, the consumer
// reads head() and calls pop. Only the occupancy is shared between them.
type fifo struct {
	blocks    [fifoDepth]fifoBlock
	read      int // consumer only
	write     int // producer only
	occupancy atomic.Int32
}

func (f *fifo) head() *fifoBlock { return &f.blocks[f.read] }
func (f *fifo) tail() *fifoBlock { return &f.blocks[f.write] }

func (f *fifo) push() {
	if f.isFull() {
		panic("fifo: push on full fifo")
	}
	f.write = (f.write + 1) % fifoDepth
	f.occupancy.Add(1)
}

func (f *fifo) pop() {
	if f.isEmpty() {
		panic("fifo: pop on empty fifo")
	}
	f.read = (f.read + 1) % fifoDepth
	f.occupancy.Add(-1)
}

func (f *fifo) isFull() bool  { return f.occupancy.Load() == fifoDepth }
func (f *fifo) isEmpty() bool { return f.occupancy.Load() == 0 }
func (f *fifo) len() int      { return int(f.occupancy.Load()) }

// clear must only be called while neither side is using the fifo.
func (f *fifo) clear() {
	f.read = 0
	f.write = 0
	f.occupancy.Store(0)
}
