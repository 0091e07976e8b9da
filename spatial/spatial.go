// Package spatial computes per-emitter volume and pan from world-space
// positions, with exponential smoothing and optional pitch quantization.
package spatial

import "math"

// Minimum radii keep the math stable when emitters or the listener are
// configured with tiny or zero radii.
const (
	minAudibleRadius = 8
	minPanReference  = 16
)

// Params is a spatialization target for one emitter.
type Params struct {
	Volume float64 // 0..1
	Pan    float64 // -1..1
}

// Compute derives the target volume and pan for an emitter at (ex, ey)
// relative to a listener at (lx, ly).
//
// Volume is 1 inside the near field and falls off as (1-n)^2 across the
// annulus between the near radius and the audible radius. Pan follows the
// horizontal offset scaled by the smaller of the two radii.
func Compute(ex, ey, lx, ly, emitterRadius, listenerRadius, nearFieldRatio float64) Params {
	dx := ex - lx
	dy := ey - ly
	distance := math.Hypot(dx, dy)

	audible := math.Max(minAudibleRadius, listenerRadius+emitterRadius)
	near := math.Max(minAudibleRadius, nearFieldRatio*audible)

	var volume float64
	if distance <= near {
		volume = 1
	} else {
		n := (distance - near) / math.Max(1, audible-near)
		n = clamp(n, 0, 1)
		volume = (1 - n) * (1 - n)
	}

	panRef := math.Max(minPanReference, math.Min(listenerRadius, emitterRadius))
	pan := clamp(dx/panRef, -1, 1)

	return Params{Volume: volume, Pan: pan}
}

// Smoother is a first-order exponential filter tracking a Params target.
type Smoother struct {
	Tau    float64 // time constant in seconds
	value  Params
	primed bool
}

// NewSmoother creates a smoother with the given time constant in seconds.
func NewSmoother(tau float64) *Smoother {
	if tau <= 0 {
		tau = 0.03
	}
	return &Smoother{Tau: tau}
}

// Step advances the filter by dt seconds toward target and returns the
// smoothed value. The first call snaps directly to the target so a new
// emitter does not fade in from silence at the wrong position.
func (s *Smoother) Step(target Params, dt float64) Params {
	if !s.primed {
		s.value = target
		s.primed = true
		return s.value
	}
	if dt <= 0 {
		return s.value
	}
	alpha := 1 - math.Exp(-dt/s.Tau)
	s.value.Volume += alpha * (target.Volume - s.value.Volume)
	s.value.Pan += alpha * (target.Pan - s.value.Pan)
	return s.value
}

// Value returns the current smoothed value without advancing the filter.
func (s *Smoother) Value() Params {
	return s.value
}

// SemitoneForY maps a vertical world position linearly into the continuous
// quantization range of ±24 semitones. centerY maps to 0; positions above
// center (smaller y) map to positive semitones across yRange world units.
func SemitoneForY(y, centerY, yRange float64) float64 {
	if yRange <= 0 {
		return 0
	}
	semi := (centerY - y) / yRange * 48
	return clamp(semi, -24, 24)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
