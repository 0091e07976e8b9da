package native

import (
	"fmt"
	"sync"

	"github.com/shaban/spatmix/dsp"
)

const streamRingFrames = 1 << 14

// Loopback is a complete in-process Backend. It mixes its registered
// voices with the same cursor and pan semantics as the portable path,
// which makes it both a reference implementation and the test double for
// everything above the Backend interface.
type Loopback struct {
	mu      sync.Mutex
	voices  map[string]*loopbackVoice
	started bool
	rate    int

	blocksRendered int64
	pushedFrames   int64
	droppedFrames  int64

	// FailAfter, when positive, makes the backend fail once that many
	// Render calls have completed. Used to exercise fallback handling.
	FailAfter int
	// FailStart makes StartDevice fail, simulating a backend that cannot
	// open its device.
	FailStart bool
}

type loopbackVoice struct {
	buf    []float32
	cursor float64
	rate   float64
	volume float32
	pan    float32
	loop   bool

	streaming bool
	ring      []float32
	ringR     int
	ringW     int
	ringN     int
}

// NewLoopback returns an empty in-process backend.
func NewLoopback() *Loopback {
	return &Loopback{voices: make(map[string]*loopbackVoice)}
}

func (b *Loopback) AddVoice(id string, buf []float32, loop bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.voices[id] = &loopbackVoice{buf: buf, rate: 1, volume: 1, loop: loop}
	return nil
}

func (b *Loopback) AddStreamVoice(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.voices[id] = &loopbackVoice{
		rate:      1,
		volume:    1,
		streaming: true,
		ring:      make([]float32, streamRingFrames*2),
	}
	return nil
}

func (b *Loopback) RemoveVoice(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.voices[id]; !ok {
		return ErrUnknownVoice
	}
	delete(b.voices, id)
	return nil
}

func (b *Loopback) withVoice(id string, fn func(*loopbackVoice)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.voices[id]
	if !ok {
		return ErrUnknownVoice
	}
	fn(v)
	return nil
}

func (b *Loopback) SetParams(id string, volume, pan float32) error {
	return b.withVoice(id, func(v *loopbackVoice) {
		v.volume = volume
		v.pan = pan
	})
}

func (b *Loopback) SetLoop(id string, loop bool) error {
	return b.withVoice(id, func(v *loopbackVoice) { v.loop = loop })
}

func (b *Loopback) SetSrcRate(id string, rate float64) error {
	if rate <= 0 {
		return fmt.Errorf("native: invalid rate %v", rate)
	}
	return b.withVoice(id, func(v *loopbackVoice) { v.rate = rate })
}

func (b *Loopback) SetDSPParams(id string, pitch, tempo float64) error {
	step := dsp.Params{Pitch: pitch, Tempo: tempo}.Step()
	return b.withVoice(id, func(v *loopbackVoice) { v.rate = step })
}

func (b *Loopback) PushStereo(id string, buf []float32) error {
	return b.withVoice(id, func(v *loopbackVoice) {
		if !v.streaming {
			return
		}
		frames := len(buf) / 2
		for i := 0; i < frames; i++ {
			if v.ringN >= streamRingFrames {
				b.droppedFrames++
				continue
			}
			v.ring[v.ringW*2] = buf[2*i]
			v.ring[v.ringW*2+1] = buf[2*i+1]
			v.ringW = (v.ringW + 1) % streamRingFrames
			v.ringN++
			b.pushedFrames++
		}
	})
}

func (b *Loopback) Render(dst []float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return ErrDeviceStopped
	}
	if b.FailAfter > 0 && b.blocksRendered >= int64(b.FailAfter) {
		return fmt.Errorf("native: simulated render failure")
	}

	for i := range dst {
		dst[i] = 0
	}
	frames := len(dst) / 2
	for id, v := range b.voices {
		gl, gr := panGains(v.volume, v.pan)
		if v.streaming {
			for i := 0; i < frames && v.ringN > 0; i++ {
				dst[2*i] += v.ring[v.ringR*2] * gl
				dst[2*i+1] += v.ring[v.ringR*2+1] * gr
				v.ringR = (v.ringR + 1) % streamRingFrames
				v.ringN--
			}
			continue
		}
		srcFrames := len(v.buf) / 2
		if srcFrames == 0 {
			continue
		}
		done := false
		for i := 0; i < frames && !done; i++ {
			l, r := dsp.ReadFrame(v.buf, v.cursor, v.loop)
			dst[2*i] += l * gl
			dst[2*i+1] += r * gr
			v.cursor += v.rate
			if v.loop {
				for v.cursor >= float64(srcFrames) {
					v.cursor -= float64(srcFrames)
				}
			} else if v.cursor >= float64(srcFrames) {
				done = true
			}
		}
		if done {
			delete(b.voices, id)
		}
	}
	dsp.Clamp(dst)
	b.blocksRendered++
	return nil
}

func (b *Loopback) StartDevice(sampleRate, blockFrames int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailStart {
		return fmt.Errorf("native: simulated device failure")
	}
	b.started = true
	b.rate = sampleRate
	return nil
}

func (b *Loopback) StopDevice() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.started = false
	return nil
}

func (b *Loopback) DeviceRate() (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return 0, ErrDeviceStopped
	}
	return b.rate, nil
}

func (b *Loopback) VoiceInfo(id string) (VoiceInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.voices[id]
	if !ok {
		return VoiceInfo{}, ErrUnknownVoice
	}
	return VoiceInfo{
		ID:        id,
		Frames:    len(v.buf) / 2,
		Cursor:    int(v.cursor),
		Volume:    v.volume,
		Pan:       v.pan,
		Loop:      v.loop,
		Streaming: v.streaming,
	}, nil
}

func (b *Loopback) GetStats() (Stats, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := Stats{
		BlocksRendered: b.blocksRendered,
		PushedFrames:   b.pushedFrames,
		DroppedFrames:  b.droppedFrames,
	}
	for _, v := range b.voices {
		if v.streaming {
			st.StreamVoices++
		} else {
			st.Voices++
		}
	}
	return st, nil
}

// panGains maps volume and pan in [-1, 1] to per-channel gains with a
// linear taper, center pan leaving both channels at full volume. The
// portable mixer pans constant-power; backends are not required to match
// it sample for sample.
func panGains(volume, pan float32) (float32, float32) {
	gl, gr := volume, volume
	if pan > 0 {
		gl *= 1 - pan
	} else if pan < 0 {
		gr *= 1 + pan
	}
	return gl, gr
}
