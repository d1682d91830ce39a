package audio

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"
)

// idleWait is how long a worker sleeps after a sweep that found nothing to
// do while voices are live.
const idleWait = time.Millisecond

// Run keeps live voices fed until ctx is done. One goroutine moves sample
// data into voice fifos and two render output blocks, each owning the
// voices of one allocation parity. All of them park while no voice is live.
func (p *Poly) Run(ctx context.Context) error {
	p.running.Store(true)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		p.stop()
		return nil
	})
	g.Go(func() error {
		p.work(p.feedSweep)
		return nil
	})
	for parity := uint64(0); parity < 2; parity++ {
		parity := parity
		g.Go(func() error {
			p.work(func() bool { return p.bufferSweep(parity) })
			return nil
		})
	}
	log.Printf("poly: running %d voices", len(p.voices))
	err := g.Wait()
	log.Printf("poly: stopped")
	return err
}

func (p *Poly) stop() {
	p.mu.Lock()
	p.running.Store(false)
	p.cond.Broadcast()
	p.mu.Unlock()
}

// wake is called on the transition from zero to one live voice.
func (p *Poly) wake() {
	p.mu.Lock()
	p.cond.Broadcast()
	p.mu.Unlock()
}

// waitLive blocks until a voice is live or the pool stops. It reports
// whether the pool is still running.
func (p *Poly) waitLive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.running.Load() && p.live.Load() == 0 {
		p.cond.Wait()
	}
	return p.running.Load()
}

func (p *Poly) work(sweep func() bool) {
	for p.waitLive() {
		if !sweep() {
			time.Sleep(idleWait)
		}
	}
}

// feedSweep tops up the fifo of every active voice by one block and
// reports whether any voice took data.
func (p *Poly) feedSweep() bool {
	worked := false
	for n := p.first; n != -1; n = p.voices[n].next {
		v := &p.voices[n]
		if v.active.Load() && v.feedFifo(false) {
			worked = true
		}
	}
	return worked
}

// bufferSweep renders output for the active voices whose sequence number
// has the given parity.
func (p *Poly) bufferSweep(parity uint64) bool {
	cfg := p.config.Load()
	worked := false
	for n := p.first; n != -1; n = p.voices[n].next {
		v := &p.voices[n]
		if !v.active.Load() || v.seq.Load()%2 != parity {
			continue
		}
		if v.feedBuffer(cfg, false) {
			worked = true
		}
	}
	return worked
}
