// Package dsp contains the per-voice signal processing used by the mixing
// worker: pitch/tempo resampling (offline and streaming), tone and noise
// generators, block effects, and loop seam conditioning.
//
// All buffers are interleaved stereo float32; a frame is two samples.
package dsp

// Processor transforms one interleaved stereo block in place. It is the
// uniform capability shared by single effects and effect chains, selected
// by type rather than probed at call time.
type Processor interface {
	Process(block []float32)
}

// Clamp limits every sample in block to [-1, 1].
func Clamp(block []float32) {
	for i, v := range block {
		if v > 1 {
			block[i] = 1
		} else if v < -1 {
			block[i] = -1
		}
	}
}

// Gain scales the block by a constant factor.
type Gain struct {
	Amount float32
}

func (g *Gain) Process(block []float32) {
	for i := range block {
		block[i] *= g.Amount
	}
}

// LowPass is a one-pole smoothing filter per channel. Alpha in (0,1];
// smaller values darken the signal more.
type LowPass struct {
	Alpha  float32
	stateL float32
	stateR float32
}

func (f *LowPass) Process(block []float32) {
	a := f.Alpha
	if a <= 0 || a > 1 {
		a = 1
	}
	for i := 0; i+1 < len(block); i += 2 {
		f.stateL += a * (block[i] - f.stateL)
		f.stateR += a * (block[i+1] - f.stateR)
		block[i] = f.stateL
		block[i+1] = f.stateR
	}
}

// Chain applies a series of processors in order, clamping intermediate
// results between stages.
type Chain struct {
	Stages []Processor
}

func (c *Chain) Process(block []float32) {
	for _, st := range c.Stages {
		st.Process(block)
		Clamp(block)
	}
}
