package dsp

import "math"

// PitchRatio converts a semitone offset to a playback rate multiplier.
func PitchRatio(semitones float64) float64 {
	return math.Pow(2, semitones/12)
}

// Params describes a pitch/tempo transform. Pitch is in semitones; Tempo
// is a playback-speed multiplier where 1 is unchanged. Both fold into a
// single read step, sampler style: raising pitch shortens the rendered
// material proportionally.
type Params struct {
	Pitch float64
	Tempo float64
}

// Step returns the combined fractional read step per output frame.
func (p Params) Step() float64 {
	tempo := p.Tempo
	if tempo <= 0 {
		tempo = 1
	}
	return PitchRatio(p.Pitch) * tempo
}

// Identity reports whether the transform leaves the signal untouched.
func (p Params) Identity() bool {
	return p.Pitch == 0 && (p.Tempo == 0 || p.Tempo == 1)
}

// Render resamples an interleaved stereo buffer once, returning the
// pitched/stretched replacement buffer. This is the offline DSP mode:
// the cost is paid once and the result plays back at step 1.
func Render(src []float32, p Params) []float32 {
	frames := len(src) / 2
	if frames == 0 {
		return nil
	}
	step := p.Step()
	if step <= 0 {
		step = 1
	}
	outFrames := int(float64(frames) / step)
	if outFrames < 1 {
		outFrames = 1
	}

	out := make([]float32, outFrames*2)
	pos := 0.0
	for i := 0; i < outFrames; i++ {
		l, r := lerpFrame(src, pos)
		out[2*i] = l
		out[2*i+1] = r
		pos += step
	}
	return out
}

// ReadFrame linearly interpolates the stereo frame at fractional frame
// position pos. For looping sources the interpolation wraps; otherwise the
// final frame is held at the buffer edge.
func ReadFrame(src []float32, pos float64, loop bool) (l, r float32) {
	frames := len(src) / 2
	if frames == 0 {
		return 0, 0
	}
	if loop {
		pos = math.Mod(pos, float64(frames))
		if pos < 0 {
			pos += float64(frames)
		}
		i0 := int(pos)
		i1 := (i0 + 1) % frames
		frac := float32(pos - float64(i0))
		l = src[2*i0]*(1-frac) + src[2*i1]*frac
		r = src[2*i0+1]*(1-frac) + src[2*i1+1]*frac
		return l, r
	}
	return lerpFrame(src, pos)
}

func lerpFrame(src []float32, pos float64) (l, r float32) {
	frames := len(src) / 2
	i0 := int(pos)
	if i0 >= frames-1 {
		return src[2*(frames-1)], src[2*(frames-1)+1]
	}
	frac := float32(pos - float64(i0))
	l = src[2*i0]*(1-frac) + src[2*(i0+1)]*frac
	r = src[2*i0+1]*(1-frac) + src[2*(i0+1)+1]*frac
	return l, r
}

// Resample converts an interleaved stereo buffer from one sample rate to
// another with linear interpolation.
func Resample(src []float32, fromRate, toRate int) []float32 {
	if fromRate == toRate || fromRate <= 0 || toRate <= 0 {
		out := make([]float32, len(src))
		copy(out, src)
		return out
	}
	return Render(src, Params{Tempo: float64(fromRate) / float64(toRate)})
}
