package main

import (
	"errors"
	"math"
)

const twoPi = 2 * math.Pi

var (
	ErrSampleRate = errors.New("sample rate must be positive and finite")
	ErrFrequency  = errors.New("frequency must be non-negative and finite")
)

// Wave is a single voice the render loop can pull samples from.
type Wave interface {
	// Next returns the next sample in [-1, 1]. It must not block or allocate.
	Next() float64
	// SetTarget retargets the voice; the tone glides there according to g.
	SetTarget(freq float64, g Glide)
}

// Glide describes how the current frequency approaches the target.
//
// Every Every samples the frequency moves by (target-start)*Ratio, start
// being the frequency at retarget time. A Ratio of 0 or >= 1 jumps to the
// target on the next sample.
type Glide struct {
	Ratio float64
	Every int
}

func (g Glide) instant() bool {
	return g.Ratio <= 0 || g.Ratio >= 1
}

// Sine is a sine oscillator with ratio-step portamento.
type Sine struct {
	current    float64
	target     float64
	step       float64
	phase      float64
	sampleRate float64

	every int
	tick  int
}

var _ Wave = &Sine{}

func validFrequency(f float64) bool {
	return f >= 0 && !math.IsInf(f, 1) && !math.IsNaN(f)
}

func NewSine(freq, sampleRate float64) (*Sine, error) {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 1) {
		return nil, ErrSampleRate
	}
	if !validFrequency(freq) {
		return nil, ErrFrequency
	}
	return &Sine{
		current:    freq,
		target:     freq,
		sampleRate: sampleRate,
		every:      1,
	}, nil
}

// SetTarget resets the phase to zero so every new note starts at a zero
// crossing. Retargeting to the current target leaves the glide as it is.
// Invalid frequencies are ignored.
func (s *Sine) SetTarget(freq float64, g Glide) {
	if !validFrequency(freq) {
		return
	}
	s.phase = 0
	if freq == s.target {
		return
	}
	s.target = freq
	s.tick = 0
	s.every = g.Every
	if s.every < 1 {
		s.every = 1
	}
	if g.instant() {
		s.current = freq
		s.step = 0
		return
	}
	s.step = (freq - s.current) * g.Ratio
}

func (s *Sine) Next() float64 {
	if s.current != s.target {
		s.tick++
		if s.tick >= s.every {
			s.tick = 0
			s.glide()
		}
	}
	out := math.Sin(s.phase)
	s.phase += twoPi * s.current / s.sampleRate
	if s.phase >= twoPi {
		s.phase = math.Mod(s.phase, twoPi)
	}
	return out
}

// glide moves current one step toward target, snapping when the step
// would reach or pass it.
func (s *Sine) glide() {
	remaining := s.target - s.current
	if s.step == 0 || math.Abs(s.step) >= math.Abs(remaining) {
		s.current = s.target
		return
	}
	next := s.current + s.step
	if next == s.current {
		// step below float resolution at this frequency
		next = s.target
	}
	s.current = next
}

// Frequency is the frequency currently sounding.
func (s *Sine) Frequency() float64 {
	return s.current
}

func (s *Sine) Target() float64 {
	return s.target
}
