package main

import (
	"errors"
	"math"
	"testing"
)

func TestNewSineRejectsSampleRate(t *testing.T) {
	for _, rate := range []float64{0, -1, -44100, math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := NewSine(440, rate)
		if !errors.Is(err, ErrSampleRate) {
			t.Errorf("rate %v: expected ErrSampleRate, got %v", rate, err)
		}
	}
}

func TestNewSineRejectsFrequency(t *testing.T) {
	for _, f := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err := NewSine(f, 44100)
		if !errors.Is(err, ErrFrequency) {
			t.Errorf("frequency %v: expected ErrFrequency, got %v", f, err)
		}
	}
}

func TestSineConverges(t *testing.T) {
	s, err := NewSine(0, 44100)
	if err != nil {
		t.Fatal(err)
	}
	s.SetTarget(440, Glide{Ratio: 0.1})
	for i := 0; i < 100; i++ {
		s.Next()
	}
	if math.Abs(s.Frequency()-440) > 1e-6 {
		t.Fatalf("expected 440, got %v", s.Frequency())
	}
}

// stepsBound is the most glide steps a ratio glide may take, one extra
// for the rounding of the accumulated steps.
func stepsBound(ratio float64) int {
	return int(math.Ceil(1/ratio)) + 1
}

func TestSineGlideIsMonotonic(t *testing.T) {
	freqs := []float64{0, 27.5, 261.63, 440, 4186}
	ratios := []float64{0.001, 0.01, 0.1, 0.3, 0.5, 0.7, 1}
	for _, f0 := range freqs {
		for _, f1 := range freqs {
			for _, r := range ratios {
				s, err := NewSine(f0, 48000)
				if err != nil {
					t.Fatal(err)
				}
				s.SetTarget(f1, Glide{Ratio: r})
				dist := math.Abs(f1 - s.Frequency())
				steps := 0
				for s.Frequency() != f1 {
					s.Next()
					steps++
					d := math.Abs(f1 - s.Frequency())
					if d > dist {
						t.Fatalf("%v->%v ratio %v: distance grew from %v to %v", f0, f1, r, dist, d)
					}
					if (f1-f0)*(f1-s.Frequency()) < 0 {
						t.Fatalf("%v->%v ratio %v: overshot to %v", f0, f1, r, s.Frequency())
					}
					dist = d
					if steps > stepsBound(r) {
						t.Fatalf("%v->%v ratio %v: not reached after %d steps", f0, f1, r, steps)
					}
				}
			}
		}
	}
}

func TestSineInstantRetarget(t *testing.T) {
	const rate = 44100
	for _, g := range []Glide{{Ratio: 0}, {Ratio: 1}, {Ratio: 2}} {
		s, err := NewSine(220, rate)
		if err != nil {
			t.Fatal(err)
		}
		s.Next()
		s.Next()
		s.SetTarget(880, g)
		if s.Frequency() != 880 {
			t.Fatalf("ratio %v: expected immediate 880, got %v", g.Ratio, s.Frequency())
		}
		for i := 0; i < 8; i++ {
			want := math.Sin(2 * math.Pi * 880 * float64(i) / rate)
			if got := s.Next(); math.Abs(got-want) > 1e-9 {
				t.Fatalf("ratio %v sample %d: expected %v, got %v", g.Ratio, i, want, got)
			}
		}
	}
}

func TestSineSameTarget(t *testing.T) {
	g := Glide{Ratio: 0.25}
	a, err := NewSine(0, 44100)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewSine(0, 44100)
	if err != nil {
		t.Fatal(err)
	}
	a.SetTarget(400, g)
	b.SetTarget(400, g)
	a.Next()
	b.Next()

	a.SetTarget(400, g)
	// phase is back at zero
	if got := a.Next(); got != 0 {
		t.Fatalf("expected first sample after retarget to be 0, got %v", got)
	}
	b.Next()
	for i := 0; i < stepsBound(g.Ratio)*2; i++ {
		if a.Frequency() != b.Frequency() {
			t.Fatalf("step %d: retarget changed the glide, %v != %v", i, a.Frequency(), b.Frequency())
		}
		a.Next()
		b.Next()
	}
	if a.Frequency() != 400 {
		t.Fatalf("expected 400, got %v", a.Frequency())
	}
}

func TestSineGlideEvery(t *testing.T) {
	s, err := NewSine(100, 44100)
	if err != nil {
		t.Fatal(err)
	}
	s.SetTarget(200, Glide{Ratio: 0.5, Every: 4})
	var seen []float64
	for i := 0; i < 8; i++ {
		s.Next()
		seen = append(seen, s.Frequency())
	}
	want := []float64{100, 100, 100, 150, 150, 150, 150, 200}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, seen)
		}
	}
}

func TestSineOutputRangeAndPhase(t *testing.T) {
	s, err := NewSine(0, 8000)
	if err != nil {
		t.Fatal(err)
	}
	s.SetTarget(3999, Glide{Ratio: 0.01, Every: 3})
	for i := 0; i < 100000; i++ {
		v := s.Next()
		if v < -1 || v > 1 || math.IsNaN(v) {
			t.Fatalf("sample %d out of range: %v", i, v)
		}
		if s.phase < 0 || s.phase >= 2*math.Pi {
			t.Fatalf("sample %d: phase %v not wrapped", i, s.phase)
		}
	}
}

func TestSineIgnoresInvalidTarget(t *testing.T) {
	s, err := NewSine(440, 44100)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range []float64{-5, math.NaN(), math.Inf(1)} {
		s.SetTarget(f, Glide{Ratio: 1})
		if s.Target() != 440 || s.Frequency() != 440 {
			t.Fatalf("target %v was applied", f)
		}
	}
}

func BenchmarkSine(b *testing.B) {
	s, err := NewSine(0, 44100)
	if err != nil {
		b.Fatal(err)
	}
	s.SetTarget(440, Glide{Ratio: 0.001, Every: 64})
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s.Next()
	}
}
