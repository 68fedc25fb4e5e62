package main

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// otoSink feeds an oto player. oto pulls bytes through Read from its own
// goroutine, which is the audio thread here.
type otoSink struct {
	ctx    *oto.Context
	player *oto.Player
	r      *Renderer
	format string

	f32 []float32
	i16 []int16
	u8  []uint8

	mu      sync.Mutex
	started bool
}

func otoFormat(format string) (oto.Format, error) {
	switch format {
	case FormatFloat32:
		return oto.FormatFloat32LE, nil
	case FormatInt16:
		return oto.FormatSignedInt16LE, nil
	case FormatUint8:
		return oto.FormatUnsignedInt8, nil
	}
	return 0, fmt.Errorf("oto does not support format %s", format)
}

func openOto(a AudioConfig, sampleRate float64, r *Renderer) (Sink, error) {
	f, err := otoFormat(a.Format)
	if err != nil {
		return nil, err
	}
	op := &oto.NewContextOptions{
		SampleRate:   int(sampleRate),
		ChannelCount: r.Channels(),
		Format:       f,
	}
	if a.FramesPerBuffer > 0 {
		op.BufferSize = time.Duration(float64(a.FramesPerBuffer) / sampleRate * float64(time.Second))
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("can't create oto context: %w", err)
	}
	<-ready
	s := &otoSink{
		ctx:    ctx,
		r:      r,
		format: a.Format,
	}
	s.player = ctx.NewPlayer(s)
	return s, nil
}

func (s *otoSink) Read(p []byte) (int, error) {
	switch s.format {
	case FormatFloat32:
		n := len(p) / 4
		if cap(s.f32) < n {
			s.f32 = make([]float32, n)
		}
		buf := s.f32[:n]
		s.r.Report(Render(s.r, buf, Float32))
		for i, v := range buf {
			binary.LittleEndian.PutUint32(p[4*i:], math.Float32bits(v))
		}
		clear(p[4*n:])
	case FormatInt16:
		n := len(p) / 2
		if cap(s.i16) < n {
			s.i16 = make([]int16, n)
		}
		buf := s.i16[:n]
		s.r.Report(Render(s.r, buf, Int16))
		for i, v := range buf {
			binary.LittleEndian.PutUint16(p[2*i:], uint16(v))
		}
		clear(p[2*n:])
	case FormatUint8:
		if cap(s.u8) < len(p) {
			s.u8 = make([]uint8, len(p))
		}
		buf := s.u8[:len(p)]
		s.r.Report(Render(s.r, buf, Uint8))
		copy(p, buf)
	}
	return len(p), nil
}

func (s *otoSink) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.player.Play()
	s.started = true
	if err := s.ctx.Err(); err != nil {
		return fmt.Errorf("can't start oto player: %w", err)
	}
	return nil
}

func (s *otoSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.started = false
	return s.player.Close()
}
