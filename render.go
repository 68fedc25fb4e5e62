package main

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
)

var ErrPartialFrame = errors.New("buffer is not a whole number of frames")

// Sample is an output sample representation.
type Sample interface {
	~float32 | ~int16 | ~int32 | ~uint16 | ~uint8
}

// Renderer owns the wave and is driven from the audio callback only.
type Renderer struct {
	wave     Wave
	control  *Control
	channels int

	errs         chan<- error
	disconnected chan struct{}
	dead         bool

	skipped atomic.Uint64
	applied atomic.Uint64
}

func NewRenderer(w Wave, c *Control, channels int, errs chan<- error) (*Renderer, error) {
	if channels < 1 {
		return nil, fmt.Errorf("channels must be at least 1, got %d", channels)
	}
	return &Renderer{
		wave:         w,
		control:      c,
		channels:     channels,
		errs:         errs,
		disconnected: make(chan struct{}),
	}, nil
}

func (r *Renderer) Channels() int {
	return r.channels
}

// Disconnected is closed once the input side has gone away.
func (r *Renderer) Disconnected() <-chan struct{} {
	return r.disconnected
}

// Skipped counts buffers rendered as silence because of a per-cycle error.
func (r *Renderer) Skipped() uint64 {
	return r.skipped.Load()
}

// Applied counts retargets handed to the wave.
func (r *Renderer) Applied() uint64 {
	return r.applied.Load()
}

// poll applies the latest pending retarget. It reports false once the
// producer is gone.
func (r *Renderer) poll() bool {
	if r.dead {
		return false
	}
	msg, p := r.control.TryReceive()
	switch p {
	case Received:
		r.wave.SetTarget(msg.Frequency, msg.Glide)
		r.applied.Add(1)
	case Disconnected:
		r.dead = true
		close(r.disconnected)
		return false
	}
	return true
}

// Report hands a per-cycle error to whoever reads the error channel
// without ever blocking the audio thread.
func (r *Renderer) Report(err error) {
	if r.errs == nil || err == nil {
		return
	}
	select {
	case r.errs <- err:
	default:
	}
}

// Render fills one interleaved output buffer. The same sample is written
// to every channel of a frame. A returned error means the buffer was
// rendered as silence; callers pass it to Report.
func Render[S Sample](r *Renderer, out []S, convert func(float64) S) error {
	if len(out)%r.channels != 0 {
		Skip(r, out, convert)
		return fmt.Errorf("%w: %d samples, %d channels", ErrPartialFrame, len(out), r.channels)
	}
	if !r.poll() {
		silence(out, convert)
		return nil
	}
	for i := 0; i < len(out); i += r.channels {
		v := convert(r.wave.Next())
		for c := 0; c < r.channels; c++ {
			out[i+c] = v
		}
	}
	return nil
}

// Skip renders silence for a buffer the device could not hand over
// intact. Oscillator state is left alone.
func Skip[S Sample](r *Renderer, out []S, convert func(float64) S) {
	r.skipped.Add(1)
	silence(out, convert)
}

func silence[S Sample](out []S, convert func(float64) S) {
	z := convert(0)
	for i := range out {
		out[i] = z
	}
}

func clamp(s float64) float64 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	if math.IsNaN(s) {
		return 0
	}
	return s
}

func Float32(s float64) float32 {
	return float32(clamp(s))
}

// Int16 maps -1 to math.MinInt16 and 1 to math.MaxInt16.
func Int16(s float64) int16 {
	s = clamp(s)
	if s < 0 {
		return int16(math.Round(s * -math.MinInt16))
	}
	return int16(math.Round(s * math.MaxInt16))
}

func Int32(s float64) int32 {
	s = clamp(s)
	if s < 0 {
		return int32(math.Round(s * -math.MinInt32))
	}
	return int32(math.Round(s * math.MaxInt32))
}

// Uint16 is offset binary: -1 is 0, 1 is math.MaxUint16.
func Uint16(s float64) uint16 {
	return uint16(math.Round((clamp(s)*0.5 + 0.5) * math.MaxUint16))
}

// Uint8 is offset binary: -1 is 0, 0 is 128, 1 is 255.
func Uint8(s float64) uint8 {
	s = clamp(s)
	if s < 0 {
		return uint8(math.Round((s + 1) * 128))
	}
	return uint8(128 + math.Round(s*127))
}
