package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mrdg/polysampler/audio"
	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		bankPath = flag.String("bank", "bank.json", "instrument bank to load")
		voices   = flag.Int("voices", 64, "number of voices")
		rate     = flag.Int("rate", audio.DefaultSampleRate, "output sample rate")
		midiPort = flag.Int("midi", 0, "MIDI input port, -1 disables MIDI")
		watch    = flag.Bool("watch", false, "reload the bank when it changes")
		interp   = flag.String("interp", audio.InterpScalar, "interpolation: scalar or batch4")
	)
	flag.Parse()
	log.SetFlags(log.Lshortfile)

	cfg := audio.DefaultConfig()
	cfg.SampleRate = *rate
	cfg.Interpolation = *interp

	if err := run(cfg, *bankPath, *voices, *midiPort, *watch); err != nil {
		log.Fatal(err)
	}
	log.Println("main: stopped")
}

func run(cfg audio.Config, bankPath string, voices, midiPort int, watch bool) (err error) {
	bank, err := audio.LoadBank(bankPath)
	if err != nil {
		return err
	}
	log.Printf("bank: %d samples, %d zones from %s", bank.NumSamples(), bank.NumZones(), bankPath)

	poly, err := audio.NewPoly(voices, cfg)
	if err != nil {
		return err
	}
	inst := audio.NewInstrument(poly, bank)

	sink, err := audio.NewSink(inst, cfg.SampleRate)
	if err != nil {
		return err
	}
	defer func() {
		if serr := sink.Stop(); serr != nil && err == nil {
			err = fmt.Errorf("stop sink: %w", serr)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signalCh)
	go func() {
		select {
		case sig := <-signalCh:
			log.Printf("caught signal %s: shutting down", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return poly.Run(ctx)
	})
	g.Go(func() error {
		return inst.Dispatch(ctx)
	})
	if midiPort >= 0 {
		g.Go(func() error {
			return listenMIDI(ctx, midiPort, inst)
		})
	}
	if watch {
		g.Go(func() error {
			return watchBank(ctx, bankPath, inst.SetBank)
		})
	}
	g.Go(func() error {
		defer cancel()
		return repl(ctx, &env{inst: inst})
	})

	if err := sink.Start(); err != nil {
		cancel()
		g.Wait()
		return fmt.Errorf("start sink: %w", err)
	}
	return g.Wait()
}
