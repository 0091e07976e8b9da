package spatmix

import (
	"errors"
	"math"

	"github.com/shaban/spatmix/dsp"
	"github.com/shaban/spatmix/native"
)

// voice is one registry entry. All fields are guarded by the engine
// mutex; the mixing worker reads them under the same lock.
type voice struct {
	id      string
	buf     []float32
	cursor  float64
	step    float64 // fractional read step per output frame, 1 when untransformed
	volume  float64
	pan     float64
	mute    bool
	loop    bool
	playing bool

	// rendered marks a buffer that already carries an offline pitch/tempo
	// transform; such buffers are never re-pitched.
	rendered bool

	gen    *dsp.Generator
	effect dsp.Processor

	// mirrored means the voice is currently registered in the native
	// backend. At most one mirror exists per id.
	mirrored bool

	em *emitter
}

// gains maps the voice's volume, pan and gating flags to per-channel
// gains using constant-power panning.
func (v *voice) gains() (float32, float32) {
	if v.mute || !v.playing {
		return 0, 0
	}
	angle := (v.pan + 1) * math.Pi / 4
	return float32(v.volume * math.Cos(angle)), float32(v.volume * math.Sin(angle))
}

// mirror registers v in the native backend if it is eligible: native
// mirroring enabled, backend in service, and the voice carries no local
// effect chain. Generator voices mirror as stream voices only while the
// backend owns output. Any previous mirror for the id is removed first.
// Caller holds e.mu.
func (e *Engine) mirror(v *voice) {
	if e.backend == nil || !e.cfg.Native.Enabled || !e.backend.Available() {
		return
	}
	e.unmirror(v)
	if v.effect != nil {
		return
	}

	var err error
	if v.gen != nil {
		if !e.nativeOutput.Load() {
			return
		}
		err = e.backend.AddStreamVoice(v.id)
	} else {
		err = e.backend.AddVoice(v.id, v.buf, v.loop)
	}
	if err != nil {
		return
	}
	v.mirrored = true
	e.mirroredN++
	e.syncMirror(v)
	if v.step != 1 {
		e.backend.SetSrcRate(v.id, v.step)
	}
}

// unmirror removes the voice's native registration if present. Caller
// holds e.mu.
func (e *Engine) unmirror(v *voice) {
	if !v.mirrored {
		return
	}
	v.mirrored = false
	e.mirroredN--
	if e.backend != nil {
		e.backend.RemoveVoice(v.id)
	}
}

// dropMirrorsLocked reclaims every mirrored voice for the portable mixer
// after the backend has become unavailable. The voices keep playing; only
// their routing changes. Caller holds e.mu.
func (e *Engine) dropMirrorsLocked() {
	if e.mirroredN == 0 {
		return
	}
	for _, v := range e.voices {
		v.mirrored = false
	}
	e.mirroredN = 0
}

// reapMirroredLocked retires mirrored one-shots the backend has finished
// and dropped on its side, completing the end-of-buffer handling the
// portable mixer never sees for mirrored voices. Caller holds e.mu.
func (e *Engine) reapMirroredLocked() {
	if e.mirroredN == 0 || e.backend == nil || !e.backend.Available() {
		return
	}
	for _, v := range e.voices {
		if !v.mirrored || v.loop || !v.playing {
			continue
		}
		if _, err := e.backend.VoiceInfo(v.id); errors.Is(err, native.ErrUnknownVoice) {
			v.mirrored = false
			e.mirroredN--
			v.playing = false
		}
	}
}

// syncMirror pushes the voice's current volume, pan and gating to the
// native backend. Best effort; a failure trips the guard and the next
// worker iteration falls back. Caller holds e.mu.
func (e *Engine) syncMirror(v *voice) {
	if !v.mirrored || e.backend == nil {
		return
	}
	vol := v.volume
	if v.mute || !v.playing {
		vol = 0
	}
	e.backend.SetParams(v.id, float32(vol), float32(v.pan))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampPan(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
