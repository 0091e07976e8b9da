package dsp

import "math"

// GeneratorKind selects the waveform a generator voice produces.
type GeneratorKind int

const (
	GeneratorTone GeneratorKind = iota
	GeneratorNoise
)

// 23-bit maximal-length LFSR, taps 23 and 18.
const (
	noiseSeed = 0x7FFFFF
	noiseMask = 0x7FFFFF
)

// Generator is a streaming DSP source producing blocks directly instead of
// reading from a buffer. Pitch changes apply on the next block.
type Generator struct {
	kind       GeneratorKind
	sampleRate int
	baseFreq   float64
	pitch      float64 // semitone offset applied to baseFreq
	phase      float64
	lfsr       uint32
	filtState  float32
}

// NewTone creates a sine generator at freq Hz.
func NewTone(freq float64, sampleRate int) *Generator {
	if freq <= 0 {
		freq = 440
	}
	return &Generator{kind: GeneratorTone, baseFreq: freq, sampleRate: sampleRate}
}

// NewNoise creates a white noise generator.
func NewNoise(sampleRate int) *Generator {
	return &Generator{kind: GeneratorNoise, sampleRate: sampleRate, lfsr: noiseSeed}
}

// Kind returns the generator's waveform kind.
func (g *Generator) Kind() GeneratorKind { return g.kind }

// SetPitch shifts the generator by semitones relative to its base
// frequency. Noise ignores pitch.
func (g *Generator) SetPitch(semitones float64) {
	g.pitch = semitones
}

// Fill writes one interleaved stereo block of generator output, both
// channels identical. Output stays within [-1, 1].
func (g *Generator) Fill(block []float32) {
	switch g.kind {
	case GeneratorNoise:
		g.fillNoise(block)
	default:
		g.fillTone(block)
	}
}

func (g *Generator) fillTone(block []float32) {
	freq := g.baseFreq * PitchRatio(g.pitch)
	inc := freq * 2 * math.Pi / float64(g.sampleRate)
	for i := 0; i+1 < len(block); i += 2 {
		v := float32(math.Sin(g.phase))
		block[i] = v
		block[i+1] = v
		g.phase += inc
		if g.phase >= 2*math.Pi {
			g.phase -= 2 * math.Pi
		}
	}
}

func (g *Generator) fillNoise(block []float32) {
	for i := 0; i+1 < len(block); i += 2 {
		bit := ((g.lfsr >> 22) ^ (g.lfsr >> 17)) & 1
		g.lfsr = ((g.lfsr << 1) | bit) & noiseMask
		raw := float32(g.lfsr&1)*2 - 1
		// light one-pole filter takes the harsh edge off the raw LFSR
		g.filtState = 0.95*g.filtState + 0.05*raw
		block[i] = g.filtState
		block[i+1] = g.filtState
	}
}
