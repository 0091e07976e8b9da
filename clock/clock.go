// Package clock implements the free-running musical clock: a BPM/PPQ pulse
// counter advanced in audio time, used to quantize pitch and spawn events.
package clock

import (
	"math"
	"sync/atomic"
)

// Clock counts musical pulses from elapsed audio time. BPM and PPQ are
// fixed at construction; only elapsed time mutates, atomically, so the
// output callback can advance the clock without taking a lock.
type Clock struct {
	bpm     float64
	ppq     int
	elapsed atomic.Uint64 // float64 bits, seconds
}

// New creates a clock at the given tempo. Non-positive values fall back to
// 120 BPM and 4 PPQ.
func New(bpm float64, ppq int) *Clock {
	if bpm <= 0 {
		bpm = 120
	}
	if ppq <= 0 {
		ppq = 4
	}
	return &Clock{bpm: bpm, ppq: ppq}
}

// BPM returns the configured tempo.
func (c *Clock) BPM() float64 { return c.bpm }

// PPQ returns the configured pulses per quarter note.
func (c *Clock) PPQ() int { return c.ppq }

// Advance adds dt seconds of audio time. Safe to call from the output
// callback: lock-free and allocation-free.
func (c *Clock) Advance(dt float64) {
	if dt <= 0 {
		return
	}
	for {
		old := c.elapsed.Load()
		next := math.Float64bits(math.Float64frombits(old) + dt)
		if c.elapsed.CompareAndSwap(old, next) {
			return
		}
	}
}

// AdvanceFrames adds frames of audio at sampleRate.
func (c *Clock) AdvanceFrames(frames, sampleRate int) {
	if sampleRate <= 0 {
		return
	}
	c.Advance(float64(frames) / float64(sampleRate))
}

// Elapsed returns the elapsed audio time in seconds.
func (c *Clock) Elapsed() float64 {
	return math.Float64frombits(c.elapsed.Load())
}

// Pulse returns the current pulse index at the configured PPQ.
func (c *Clock) Pulse() int64 {
	return int64(c.Elapsed() * c.bpm / 60 * float64(c.ppq))
}

// Reset rewinds the clock to zero.
func (c *Clock) Reset() {
	c.elapsed.Store(0)
}
