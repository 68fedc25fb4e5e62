package main

import (
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

var errUnderflow = errors.New("output underflow")

type portaudioSink struct {
	stream *portaudio.Stream
	r      *Renderer
}

// portaudioSampleRate asks the default output device for its rate unless
// the config fixes one.
func portaudioSampleRate(a AudioConfig) (float64, error) {
	if a.SampleRate > 0 {
		return a.SampleRate, nil
	}
	err := portaudio.Initialize()
	if err != nil {
		return 0, fmt.Errorf("can't init portaudio: %w", err)
	}
	// ignore Terminate error
	defer portaudio.Terminate()
	dev, err := portaudio.DefaultOutputDevice()
	if err != nil {
		return 0, fmt.Errorf("can't find default output device: %w", err)
	}
	if dev.DefaultSampleRate <= 0 {
		return 0, fmt.Errorf("%w: device %s reports %v", ErrSampleRate, dev.Name, dev.DefaultSampleRate)
	}
	return dev.DefaultSampleRate, nil
}

func openPortaudio(a AudioConfig, sampleRate float64, r *Renderer) (Sink, error) {
	s := &portaudioSink{r: r}
	var callback interface{}
	switch a.Format {
	case FormatFloat32:
		callback = func(out []float32, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
			s.flags(flags)
			r.Report(Render(r, out, Float32))
		}
	case FormatInt16:
		callback = func(out []int16, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
			s.flags(flags)
			r.Report(Render(r, out, Int16))
		}
	case FormatInt32:
		callback = func(out []int32, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
			s.flags(flags)
			r.Report(Render(r, out, Int32))
		}
	case FormatUint8:
		callback = func(out []uint8, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
			s.flags(flags)
			r.Report(Render(r, out, Uint8))
		}
	default:
		return nil, fmt.Errorf("unknown format: %q", a.Format)
	}
	frames := a.FramesPerBuffer
	if frames == 0 {
		frames = portaudio.FramesPerBufferUnspecified
	}
	err := portaudio.Initialize()
	if err != nil {
		return nil, fmt.Errorf("can't init portaudio: %w", err)
	}
	s.stream, err = portaudio.OpenDefaultStream(0, r.Channels(), sampleRate, frames, callback)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("can't open default stream: %w", err)
	}
	return s, nil
}

func (s *portaudioSink) flags(f portaudio.StreamCallbackFlags) {
	if f&portaudio.OutputUnderflow != 0 {
		s.r.Report(errUnderflow)
	}
}

func (s *portaudioSink) Start() error {
	err := s.stream.Start()
	if err != nil {
		return fmt.Errorf("can't start stream: %w", err)
	}
	return nil
}

func (s *portaudioSink) Close() error {
	// ignore Stop error, Close reports what matters
	s.stream.Stop()
	err := s.stream.Close()
	portaudio.Terminate()
	if err != nil {
		return fmt.Errorf("can't close stream: %w", err)
	}
	return nil
}
