package audio

import (
	"runtime"
	"sync/atomic"
)

// spinLock is a test-and-set lock for short, bounded critical sections on a
// single voice. Waiters yield instead of parking.
type spinLock struct {
	held atomic.Bool
}

func (l *spinLock) Lock() {
	for !l.held.CompareAndSwap(false, true) {
		runtime.Gosched()
	}
}

func (l *spinLock) Unlock() {
	if !l.held.Swap(false) {
		panic("spinlock: unlock of unlocked lock")
	}
}
