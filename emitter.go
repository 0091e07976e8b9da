package spatmix

import "github.com/shaban/spatmix/spatial"

// emitter is per-voice spatialization state: a world position, a radius
// and the smoothing filter tracking the computed volume/pan target.
type emitter struct {
	x, y   float64
	radius float64
	sm     *spatial.Smoother

	quantize  bool
	scale     *spatial.Scale
	lastPulse int64
}

// EmitterOptions configures BindEmitter.
type EmitterOptions struct {
	// Quantize re-pitches the voice from its vertical position once per
	// musical pulse, snapped to Scale.
	Quantize bool
	// Scale overrides the engine's configured scale for this emitter.
	Scale *spatial.Scale
}

// SetListener moves the listening point. radius <= 0 keeps the
// configured listener radius.
func (e *Engine) SetListener(x, y, radius float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listener.x = x
	e.listener.y = y
	if radius > 0 {
		e.listener.radius = radius
	}
}

// BindEmitter attaches spatialization to the voice: from now on its
// volume and pan follow the emitter position instead of manual control.
func (e *Engine) BindEmitter(id string, radius float64, opts EmitterOptions) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.voices[id]
	if !ok {
		return false
	}
	sc := opts.Scale
	if sc == nil {
		sc = e.scale
	}
	v.em = &emitter{
		radius:    radius,
		sm:        spatial.NewSmoother(e.cfg.SmoothingTau.Seconds()),
		quantize:  opts.Quantize,
		scale:     sc,
		lastPulse: -1,
	}
	return true
}

// UpdateEmitter moves the voice's emitter. The new position takes effect
// through the smoothing filter on the next mixed block.
func (e *Engine) UpdateEmitter(id string, x, y float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.voices[id]
	if !ok || v.em == nil {
		return false
	}
	v.em.x = x
	v.em.y = y
	return true
}

// updateEmitters advances every bound emitter's smoothing filter by dt
// seconds and applies the result to the voice (and its native mirror).
// Pitch quantization re-evaluates once per musical pulse.
func (e *Engine) updateEmitters(dt float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pulse := e.clk.Pulse()
	for _, v := range e.voices {
		em := v.em
		if em == nil {
			continue
		}

		target := spatial.Compute(em.x, em.y, e.listener.x, e.listener.y,
			em.radius, e.listener.radius, e.cfg.NearFieldRatio)
		p := em.sm.Step(target, dt)
		v.volume = p.Volume
		v.pan = p.Pan
		e.syncMirror(v)

		if em.quantize && pulse != em.lastPulse {
			em.lastPulse = pulse
			semi := spatial.SemitoneForY(em.y, e.listener.y, e.cfg.QuantizeYRange)
			note := em.scale.Snap(semi)
			switch {
			case v.gen != nil:
				v.gen.SetPitch(float64(note))
			case v.rendered:
				// offline-rendered buffers are never re-pitched
			default:
				v.step = spatial.RateForSemitone(float64(note))
				if v.mirrored && e.backend != nil {
					e.backend.SetSrcRate(v.id, v.step)
				}
			}
		}
	}
}
