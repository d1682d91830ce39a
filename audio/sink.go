package audio

import (
	"github.com/gordonklaus/portaudio"
)

type Source interface {
	Process([][]float32)
}

// Sink plays a Source on the default output device. The stream period is
// BlockSize frames.
type Sink struct {
	source Source
	stream *portaudio.Stream
}

func NewSink(source Source, sampleRate int) (*Sink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	s := Sink{source: source}
	stream, err := portaudio.OpenDefaultStream(0, 2, float64(sampleRate), BlockSize, s.Process)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	s.stream = stream
	return &s, nil
}

func (s *Sink) Start() error {
	return s.stream.Start()
}

// Stop closes the stream and releases PortAudio.
func (s *Sink) Stop() error {
	err := s.stream.Close()
	if terr := portaudio.Terminate(); err == nil {
		err = terr
	}
	return err
}

func (s *Sink) Process(samples [][]float32) {
	s.source.Process(samples)
}
