package spatial

import (
	"math"
	"testing"

	"github.com/shaban/spatmix/config"
)

// Emitter at the listener's exact position plays centered at full volume.
func TestCompute_CoincidentEmitter(t *testing.T) {
	p := Compute(100, 100, 100, 100, 32, 160, 0.12)
	if p.Volume != 1.0 {
		t.Errorf("volume: want 1.0, got %v", p.Volume)
	}
	if p.Pan != 0.0 {
		t.Errorf("pan: want 0.0, got %v", p.Pan)
	}
}

// At the audible radius the falloff has fully decayed.
func TestCompute_AtAudibleRadius(t *testing.T) {
	const emitterR, listenerR = 40.0, 160.0
	audible := listenerR + emitterR
	p := Compute(audible, 0, 0, 0, emitterR, listenerR, 0.12)
	if p.Volume > 1e-9 {
		t.Errorf("volume at audible radius: want ~0, got %v", p.Volume)
	}
}

func TestCompute_RangesAlwaysClamped(t *testing.T) {
	cases := []struct {
		name               string
		ex, ey, lx, ly     float64
		emitterR, listener float64
	}{
		{"zero radii", 50, 50, 0, 0, 0, 0},
		{"far left", -1e6, 0, 0, 0, 10, 10},
		{"far right", 1e6, 0, 0, 0, 10, 10},
		{"coincident zero radii", 0, 0, 0, 0, 0, 0},
		{"negative radii", 5, 5, 0, 0, -10, -10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Compute(tc.ex, tc.ey, tc.lx, tc.ly, tc.emitterR, tc.listener, 0.12)
			if p.Volume < 0 || p.Volume > 1 {
				t.Errorf("volume out of range: %v", p.Volume)
			}
			if p.Pan < -1 || p.Pan > 1 {
				t.Errorf("pan out of range: %v", p.Pan)
			}
		})
	}
}

func TestCompute_NearFieldIsFullVolume(t *testing.T) {
	// distance well inside the near radius
	p := Compute(5, 0, 0, 0, 40, 160, 0.12)
	if p.Volume != 1.0 {
		t.Errorf("near-field volume: want 1.0, got %v", p.Volume)
	}
}

func TestSmoother_ConvergesToTarget(t *testing.T) {
	s := NewSmoother(0.03)
	s.Step(Params{Volume: 0, Pan: 0}, 0.016) // prime
	target := Params{Volume: 1, Pan: 0.5}
	for i := 0; i < 100; i++ {
		s.Step(target, 0.016)
	}
	got := s.Value()
	if math.Abs(got.Volume-1) > 1e-3 || math.Abs(got.Pan-0.5) > 1e-3 {
		t.Fatalf("smoother did not converge: %+v", got)
	}
}

func TestSmoother_FirstStepSnaps(t *testing.T) {
	s := NewSmoother(0.03)
	got := s.Step(Params{Volume: 0.7, Pan: -0.25}, 0.016)
	if got.Volume != 0.7 || got.Pan != -0.25 {
		t.Fatalf("first step did not snap: %+v", got)
	}
}

func TestSmoother_MovesMonotonically(t *testing.T) {
	s := NewSmoother(0.03)
	s.Step(Params{Volume: 0}, 0.016)
	prev := 0.0
	for i := 0; i < 20; i++ {
		got := s.Step(Params{Volume: 1}, 0.016)
		if got.Volume < prev {
			t.Fatalf("smoothed volume regressed at step %d: %v < %v", i, got.Volume, prev)
		}
		prev = got.Volume
	}
}

func TestSemitoneForY(t *testing.T) {
	if got := SemitoneForY(240, 240, 480); got != 0 {
		t.Errorf("center: want 0, got %v", got)
	}
	if got := SemitoneForY(0, 240, 480); got != 24 {
		t.Errorf("top: want 24, got %v", got)
	}
	if got := SemitoneForY(480, 240, 480); got != -24 {
		t.Errorf("bottom: want -24, got %v", got)
	}
	// positions beyond the range clamp
	if got := SemitoneForY(-1e6, 240, 480); got != 24 {
		t.Errorf("clamp high: want 24, got %v", got)
	}
}

func TestScale_SnapNearest(t *testing.T) {
	s := NewScale(config.ScaleConfig{
		Degrees:     []int{0, 2, 4, 5, 7, 9, 11},
		OctaveRange: 2,
		Mode:        config.SnapNearest,
	})
	cases := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{0.9, 0},  // closer to 0 than 2
		{1.1, 2},  // closer to 2
		{6, 5},    // tie between 5 and 7 resolves low
		{13, 12},  // octave above root
		{-0.4, 0}, // just below root
	}
	for _, tc := range cases {
		if got := s.Snap(tc.in); got != tc.want {
			t.Errorf("Snap(%v): want %d, got %d", tc.in, tc.want, got)
		}
	}
}

func TestScale_SnapFloorAndCeil(t *testing.T) {
	floor := NewScale(config.ScaleConfig{
		Degrees: []int{0, 4, 7}, OctaveRange: 1, Mode: config.SnapFloor,
	})
	if got := floor.Snap(6.5); got != 4 {
		t.Errorf("floor Snap(6.5): want 4, got %d", got)
	}
	ceil := NewScale(config.ScaleConfig{
		Degrees: []int{0, 4, 7}, OctaveRange: 1, Mode: config.SnapCeil,
	})
	if got := ceil.Snap(6.5); got != 7 {
		t.Errorf("ceil Snap(6.5): want 7, got %d", got)
	}
}

func TestScale_Transpose(t *testing.T) {
	s := NewScale(config.ScaleConfig{
		Degrees: []int{0}, OctaveRange: 1, Transpose: 3, Mode: config.SnapNearest,
	})
	if got := s.Snap(0.2); got != 3 {
		t.Errorf("transposed Snap(0.2): want 3, got %d", got)
	}
}

func TestRateForSemitone(t *testing.T) {
	if got := RateForSemitone(12); math.Abs(got-2) > 1e-12 {
		t.Errorf("one octave up: want 2, got %v", got)
	}
	if got := RateForSemitone(-12); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("one octave down: want 0.5, got %v", got)
	}
}
