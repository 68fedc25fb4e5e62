package main

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultSampleRate = 44100
	defaultFrames     = 512
)

// Sink is an audio output that pulls buffers from a Renderer.
type Sink interface {
	Start() error
	Close() error
}

type sinkFactory struct {
	formats    []string
	sampleRate func(AudioConfig) (float64, error)
	open       func(a AudioConfig, sampleRate float64, r *Renderer) (Sink, error)
}

var sinks = map[string]sinkFactory{
	"portaudio": {
		formats:    []string{FormatFloat32, FormatInt16, FormatInt32, FormatUint8},
		sampleRate: portaudioSampleRate,
		open:       openPortaudio,
	},
	"oto": {
		formats:    []string{FormatFloat32, FormatInt16, FormatUint8},
		sampleRate: fixedSampleRate,
		open:       openOto,
	},
	"null": {
		formats:    []string{FormatFloat32, FormatInt16, FormatInt32, FormatUint8},
		sampleRate: fixedSampleRate,
		open:       openNull,
	},
}

func (f sinkFactory) supports(format string) bool {
	for _, s := range f.formats {
		if s == format {
			return true
		}
	}
	return false
}

func fixedSampleRate(a AudioConfig) (float64, error) {
	if a.SampleRate > 0 {
		return a.SampleRate, nil
	}
	return defaultSampleRate, nil
}

// bufferRenderer returns a function rendering one buffer of the given
// number of frames in format. The buffer is allocated once, up front.
func bufferRenderer(format string, frames int, r *Renderer) (func() error, error) {
	n := frames * r.Channels()
	switch format {
	case FormatFloat32:
		buf := make([]float32, n)
		return func() error { return Render(r, buf, Float32) }, nil
	case FormatInt16:
		buf := make([]int16, n)
		return func() error { return Render(r, buf, Int16) }, nil
	case FormatInt32:
		buf := make([]int32, n)
		return func() error { return Render(r, buf, Int32) }, nil
	case FormatUint8:
		buf := make([]uint8, n)
		return func() error { return Render(r, buf, Uint8) }, nil
	}
	return nil, fmt.Errorf("unknown format: %q", format)
}

// nullSink drives the renderer from a ticker at real-time pace and
// discards the output. It stands in for a device on headless machines.
type nullSink struct {
	render  func() error
	r       *Renderer
	period  time.Duration
	stop    chan struct{}
	done    chan struct{}
	start   sync.Once
	close   sync.Once
	started atomic.Bool

	buffers atomic.Uint64
}

func openNull(a AudioConfig, sampleRate float64, r *Renderer) (Sink, error) {
	frames := a.FramesPerBuffer
	if frames == 0 {
		frames = defaultFrames
	}
	render, err := bufferRenderer(a.Format, frames, r)
	if err != nil {
		return nil, err
	}
	return &nullSink{
		render: render,
		r:      r,
		period: time.Duration(float64(frames) / sampleRate * float64(time.Second)),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}, nil
}

func (n *nullSink) Start() error {
	n.start.Do(func() {
		n.started.Store(true)
		go n.loop()
	})
	return nil
}

func (n *nullSink) loop() {
	defer close(n.done)
	t := time.NewTicker(n.period)
	defer t.Stop()
	for {
		select {
		case <-n.stop:
			return
		case <-t.C:
			n.r.Report(n.render())
			n.buffers.Add(1)
		}
	}
}

func (n *nullSink) Close() error {
	n.close.Do(func() {
		close(n.stop)
		if n.started.Load() {
			<-n.done
		}
	})
	return nil
}
