package native

import (
	"errors"
	"log"
	"sync/atomic"
)

// Guard wraps a Backend and converts its failures into a sticky
// "unavailable" state. Once any call fails the guard stops forwarding and
// every subsequent call reports ErrUnavailable, so the caller sees one
// consistent signal to fall back on instead of a stream of per-call
// errors.
//
// Control-surface methods (volume, pan, loop, rate) are best effort: a
// failure trips the guard but the caller is expected to ignore the
// returned error and keep driving the portable path.
type Guard struct {
	backend     Backend
	unavailable atomic.Bool
}

// NewGuard wraps backend. A nil backend yields a guard that is
// permanently unavailable.
func NewGuard(backend Backend) *Guard {
	g := &Guard{backend: backend}
	if backend == nil {
		g.unavailable.Store(true)
	}
	return g
}

// Available reports whether the backend is still in service.
func (g *Guard) Available() bool {
	return !g.unavailable.Load()
}

// MarkUnavailable takes the backend out of service.
func (g *Guard) MarkUnavailable() {
	if g.unavailable.CompareAndSwap(false, true) {
		log.Printf("native: backend marked unavailable")
	}
}

func (g *Guard) check(err error) error {
	if err != nil {
		g.MarkUnavailable()
	}
	return err
}

// checkVoice is check for per-voice calls: a lookup miss means the
// backend already dropped that voice on its own (a finished one-shot),
// not that transport failed.
func (g *Guard) checkVoice(err error) error {
	if err != nil && !errors.Is(err, ErrUnknownVoice) {
		g.MarkUnavailable()
	}
	return err
}

func (g *Guard) AddVoice(id string, buf []float32, loop bool) error {
	if g.unavailable.Load() {
		return ErrUnavailable
	}
	return g.check(g.backend.AddVoice(id, buf, loop))
}

func (g *Guard) AddStreamVoice(id string) error {
	if g.unavailable.Load() {
		return ErrUnavailable
	}
	return g.check(g.backend.AddStreamVoice(id))
}

func (g *Guard) RemoveVoice(id string) error {
	if g.unavailable.Load() {
		return ErrUnavailable
	}
	return g.checkVoice(g.backend.RemoveVoice(id))
}

func (g *Guard) SetParams(id string, volume, pan float32) error {
	if g.unavailable.Load() {
		return ErrUnavailable
	}
	return g.checkVoice(g.backend.SetParams(id, volume, pan))
}

func (g *Guard) SetLoop(id string, loop bool) error {
	if g.unavailable.Load() {
		return ErrUnavailable
	}
	return g.checkVoice(g.backend.SetLoop(id, loop))
}

func (g *Guard) SetSrcRate(id string, rate float64) error {
	if g.unavailable.Load() {
		return ErrUnavailable
	}
	return g.checkVoice(g.backend.SetSrcRate(id, rate))
}

func (g *Guard) SetDSPParams(id string, pitch, tempo float64) error {
	if g.unavailable.Load() {
		return ErrUnavailable
	}
	return g.checkVoice(g.backend.SetDSPParams(id, pitch, tempo))
}

func (g *Guard) PushStereo(id string, buf []float32) error {
	if g.unavailable.Load() {
		return ErrUnavailable
	}
	return g.checkVoice(g.backend.PushStereo(id, buf))
}

// Render forwards to the backend. It does not log on the callback path;
// the sticky flag is the only side effect of a failure.
func (g *Guard) Render(dst []float32) error {
	if g.unavailable.Load() {
		return ErrUnavailable
	}
	if err := g.backend.Render(dst); err != nil {
		g.unavailable.Store(true)
		return err
	}
	return nil
}

func (g *Guard) StartDevice(sampleRate, blockFrames int) error {
	if g.unavailable.Load() {
		return ErrUnavailable
	}
	return g.check(g.backend.StartDevice(sampleRate, blockFrames))
}

func (g *Guard) StopDevice() error {
	if g.unavailable.Load() {
		return ErrUnavailable
	}
	return g.check(g.backend.StopDevice())
}

func (g *Guard) DeviceRate() (int, error) {
	if g.unavailable.Load() {
		return 0, ErrUnavailable
	}
	rate, err := g.backend.DeviceRate()
	return rate, g.check(err)
}

func (g *Guard) VoiceInfo(id string) (VoiceInfo, error) {
	if g.unavailable.Load() {
		return VoiceInfo{}, ErrUnavailable
	}
	info, err := g.backend.VoiceInfo(id)
	return info, g.checkVoice(err)
}

func (g *Guard) GetStats() (Stats, error) {
	if g.unavailable.Load() {
		return Stats{}, ErrUnavailable
	}
	st, err := g.backend.GetStats()
	return st, g.check(err)
}
