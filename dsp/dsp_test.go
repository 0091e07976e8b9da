package dsp

import (
	"math"
	"testing"
)

func sineBuffer(freq float64, sampleRate, frames int) []float32 {
	buf := make([]float32, frames*2)
	for i := 0; i < frames; i++ {
		v := float32(math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate)))
		buf[2*i] = v
		buf[2*i+1] = v
	}
	return buf
}

func TestPitchRatio(t *testing.T) {
	if got := PitchRatio(0); got != 1 {
		t.Errorf("0 semitones: want 1, got %v", got)
	}
	if got := PitchRatio(12); math.Abs(got-2) > 1e-12 {
		t.Errorf("12 semitones: want 2, got %v", got)
	}
}

func TestRender_OctaveUpHalvesLength(t *testing.T) {
	src := sineBuffer(440, 48000, 1000)
	out := Render(src, Params{Pitch: 12})
	if got := len(out) / 2; got != 500 {
		t.Fatalf("frames after octave up: want 500, got %d", got)
	}
}

func TestRender_TempoStretch(t *testing.T) {
	src := sineBuffer(440, 48000, 1000)
	out := Render(src, Params{Tempo: 0.5})
	if got := len(out) / 2; got != 2000 {
		t.Fatalf("frames after half tempo: want 2000, got %d", got)
	}
}

func TestRender_IdentityPreservesContent(t *testing.T) {
	src := sineBuffer(440, 48000, 256)
	out := Render(src, Params{})
	if len(out) != len(src) {
		t.Fatalf("length changed: %d != %d", len(out), len(src))
	}
	for i := range out {
		if math.Abs(float64(out[i]-src[i])) > 1e-6 {
			t.Fatalf("sample %d diverged: %v != %v", i, out[i], src[i])
		}
	}
}

func TestReadFrame_LoopWraps(t *testing.T) {
	src := []float32{0, 0, 1, 1, 2, 2, 3, 3} // 4 frames, ramp
	l, _ := ReadFrame(src, 3.5, true)
	// halfway between frame 3 (value 3) and frame 0 (value 0)
	if math.Abs(float64(l)-1.5) > 1e-6 {
		t.Errorf("looped interpolation at 3.5: want 1.5, got %v", l)
	}
	l, _ = ReadFrame(src, 3.5, false)
	// non-looping holds the final frame
	if l != 3 {
		t.Errorf("edge hold at 3.5: want 3, got %v", l)
	}
}

func TestResample_RateConversionLength(t *testing.T) {
	src := sineBuffer(440, 44100, 4410)
	out := Resample(src, 44100, 48000)
	wantFrames := int(4410 / (44100.0 / 48000.0))
	if got := len(out) / 2; got != wantFrames {
		t.Fatalf("resampled frames: want %d, got %d", wantFrames, got)
	}
}

// The crossfaded seam must bound the first-derivative discontinuity at the
// wrap point to within a small factor of the material's own slope.
func TestSeamLoop_WrapIsSmooth(t *testing.T) {
	// a frequency whose period does not divide the buffer produces a hard
	// discontinuity at the raw wrap point
	src := sineBuffer(443, 48000, 4800)
	out := SeamLoop(src, 256)

	frames := len(out) / 2
	// largest sample-to-sample step inside the buffer (left channel)
	maxStep := 0.0
	for i := 1; i < frames; i++ {
		step := math.Abs(float64(out[2*i] - out[2*(i-1)]))
		if step > maxStep {
			maxStep = step
		}
	}
	wrapStep := math.Abs(float64(out[0] - out[2*(frames-1)]))
	if wrapStep > maxStep+1e-6 {
		t.Fatalf("wrap step %v exceeds max interior step %v", wrapStep, maxStep)
	}
}

func TestSeamLoop_ShortBufferSurvives(t *testing.T) {
	src := sineBuffer(440, 48000, 16)
	out := SeamLoop(src, 256)
	if len(out) == 0 || len(out)%2 != 0 {
		t.Fatalf("bad output length %d", len(out))
	}
}

func TestClamp(t *testing.T) {
	block := []float32{2, -3, 0.5, 1}
	Clamp(block)
	want := []float32{1, -1, 0.5, 1}
	for i := range want {
		if block[i] != want[i] {
			t.Errorf("sample %d: want %v, got %v", i, want[i], block[i])
		}
	}
}

func TestChain_AppliesStagesInOrder(t *testing.T) {
	block := []float32{0.5, 0.5}
	chain := &Chain{Stages: []Processor{
		&Gain{Amount: 4}, // 2.0, clamped to 1.0
		&Gain{Amount: 0.5},
	}}
	chain.Process(block)
	if block[0] != 0.5 {
		t.Fatalf("chained result: want 0.5 (clamped between stages), got %v", block[0])
	}
}

func TestGenerator_ToneFrequency(t *testing.T) {
	g := NewTone(1000, 48000)
	block := make([]float32, 9600*2) // 200ms
	g.Fill(block)

	// count zero crossings on the left channel; 1kHz over 200ms gives
	// about 400 crossings
	crossings := 0
	for i := 2; i < len(block); i += 2 {
		if (block[i-2] < 0) != (block[i] < 0) {
			crossings++
		}
	}
	if crossings < 390 || crossings > 410 {
		t.Fatalf("zero crossings: want ~400, got %d", crossings)
	}
}

func TestGenerator_PitchShiftsTone(t *testing.T) {
	g := NewTone(500, 48000)
	g.SetPitch(12) // one octave up = 1kHz
	block := make([]float32, 9600*2)
	g.Fill(block)
	crossings := 0
	for i := 2; i < len(block); i += 2 {
		if (block[i-2] < 0) != (block[i] < 0) {
			crossings++
		}
	}
	if crossings < 390 || crossings > 410 {
		t.Fatalf("zero crossings after octave up: want ~400, got %d", crossings)
	}
}

func TestGenerator_NoiseStaysInRange(t *testing.T) {
	g := NewNoise(48000)
	block := make([]float32, 4096)
	g.Fill(block)
	nonZero := false
	for _, v := range block {
		if v < -1 || v > 1 {
			t.Fatalf("noise sample out of range: %v", v)
		}
		if v != 0 {
			nonZero = true
		}
	}
	if !nonZero {
		t.Fatal("noise generator produced silence")
	}
}

func BenchmarkRender(b *testing.B) {
	src := sineBuffer(440, 48000, 48000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Render(src, Params{Pitch: 7})
	}
}
