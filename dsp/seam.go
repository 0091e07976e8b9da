package dsp

// DefaultSeamFrames is the crossfade length applied when closing a loop.
const DefaultSeamFrames = 256

// SeamLoop closes an interleaved stereo buffer into a seamless loop by
// overlap-adding the tail into the head over fadeFrames. The returned
// buffer is fadeFrames shorter; its final frame and frame zero are
// consecutive samples of the original material, so the wrap point has no
// first-derivative discontinuity beyond the crossfade's own ramp.
func SeamLoop(src []float32, fadeFrames int) []float32 {
	frames := len(src) / 2
	if fadeFrames <= 0 {
		fadeFrames = DefaultSeamFrames
	}
	// need room for the fade plus a non-degenerate loop body
	if frames < fadeFrames*2+2 {
		fadeFrames = frames / 4
	}
	if fadeFrames < 1 {
		out := make([]float32, len(src))
		copy(out, src)
		return out
	}

	loopFrames := frames - fadeFrames
	out := make([]float32, loopFrames*2)
	copy(out, src[:loopFrames*2])

	// head fades in over the tail fading out; at w=0 the output equals the
	// tail exactly, keeping continuity with the last unfaded frame
	for i := 0; i < fadeFrames; i++ {
		w := float32(i) / float32(fadeFrames)
		tailL := src[2*(loopFrames+i)]
		tailR := src[2*(loopFrames+i)+1]
		out[2*i] = src[2*i]*w + tailL*(1-w)
		out[2*i+1] = src[2*i+1]*w + tailR*(1-w)
	}
	return out
}
