package audio

import (
	"reflect"
	"runtime"
	"sync"
	"testing"
)

func TestFifoOrdering(t *testing.T) {
	var f fifo
	for _, tag := range []int16{1, 2, 3} {
		b := f.tail()
		b.data[0] = tag
		b.count = 1
		f.push()
	}
	var got []int16
	for i := 0; i < 3; i++ {
		got = append(got, f.head().data[0])
		f.pop()
	}
	if want := []int16{1, 2, 3}; !reflect.DeepEqual(want, got) {
		t.Errorf("want %v, got %v", want, got)
	}
	if !f.isEmpty() {
		t.Error("expected fifo to be empty")
	}
}

func TestFifoFullEmpty(t *testing.T) {
	var f fifo
	if !f.isEmpty() || f.isFull() {
		t.Fatal("new fifo should be empty and not full")
	}
	for i := 0; i < fifoDepth; i++ {
		if f.isFull() {
			t.Fatalf("full after %d pushes", i)
		}
		f.push()
		if f.isEmpty() {
			t.Fatalf("empty after %d pushes", i+1)
		}
	}
	if !f.isFull() {
		t.Error("expected fifo to be full")
	}
	if want, got := fifoDepth, f.len(); want != got {
		t.Errorf("want len %v, got %v", want, got)
	}

	f.clear()
	if !f.isEmpty() || f.isFull() {
		t.Error("cleared fifo should be empty")
	}
}

func TestFifoPanics(t *testing.T) {
	expectPanic := func(name string, f func()) {
		defer func() {
			if recover() == nil {
				t.Errorf("%s: expected panic", name)
			}
		}()
		f()
	}
	var f fifo
	expectPanic("pop empty", f.pop)
	for i := 0; i < fifoDepth; i++ {
		f.push()
	}
	expectPanic("push full", f.push)
}

func TestFifoConcurrent(t *testing.T) {
	var f fifo
	const numBlocks = 10000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for n := 0; n < numBlocks; n++ {
			for f.isFull() {
				runtime.Gosched()
			}
			f.tail().data[0] = int16(n)
			f.push()
		}
	}()

	for n := 0; n < numBlocks; n++ {
		for f.isEmpty() {
			runtime.Gosched()
		}
		if want, got := int16(n), f.head().data[0]; want != got {
			t.Fatalf("want block %v, got %v", want, got)
		}
		f.pop()
	}
	wg.Wait()
}
