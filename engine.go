package spatmix

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shaban/spatmix/clock"
	"github.com/shaban/spatmix/config"
	"github.com/shaban/spatmix/dsp"
	"github.com/shaban/spatmix/native"
	"github.com/shaban/spatmix/output"
	"github.com/shaban/spatmix/queue"
	"github.com/shaban/spatmix/spatial"
)

var (
	// ErrAlreadyRunning is returned by Start on a running engine.
	ErrAlreadyRunning = errors.New("spatmix: engine already running")
	// ErrNotRunning is returned by Stop on a stopped engine.
	ErrNotRunning = errors.New("spatmix: engine not running")
)

// Engine is the facade over the voice registry, the mixing worker and the
// output device. Create one with New, configure it with the Set methods,
// then Start it. All facade operations are safe for concurrent use.
type Engine struct {
	cfg     config.Config
	handler ErrorHandler

	mu        sync.Mutex
	voices    map[string]*voice
	listener  listener
	mirroredN int
	running   bool

	queue *queue.BlockQueue
	// free recycles consumed blocks back to the worker so the callback
	// never allocates.
	free *queue.BlockQueue

	clk   *clock.Clock
	midi  *clock.Sync
	scale *spatial.Scale

	backend *native.Guard
	device  output.Device

	// nativeOutput is true while the native backend owns the device and
	// final summation. The worker clears it when the backend fails.
	nativeOutput atomic.Bool
	// outputDisabled is the strict-mode terminal state: the backend
	// failed and fallback is not allowed.
	outputDisabled atomic.Bool

	cancel context.CancelFunc
	done   chan struct{}

	// worker-only scratch buffers
	scratch     []float32
	nativeBlock []float32

	blocksRendered atomic.Int64
	blocksPlayed   atomic.Int64
	underruns      atomic.Int64
	fullSkips      atomic.Int64
}

type listener struct {
	x, y   float64
	radius float64
}

// New creates an engine from cfg. Zero or invalid fields resolve to
// defaults; the engine is idle until Start.
func New(cfg config.Config) *Engine {
	cfg = cfg.Resolve()
	e := &Engine{
		cfg:         cfg,
		handler:     &DefaultErrorHandler{},
		voices:      make(map[string]*voice),
		listener:    listener{radius: cfg.ListenerRadius},
		queue:       queue.New(cfg.QueueCapacity),
		free:        queue.New(cfg.QueueCapacity),
		clk:         clock.New(cfg.BPM, cfg.PPQ),
		scale:       spatial.NewScale(cfg.Scale),
		scratch:     make([]float32, cfg.BlockFrames*2),
		nativeBlock: make([]float32, cfg.BlockFrames*2),
	}
	e.midi = clock.NewSync(e.clk, nil)
	e.device = output.NewOtoDevice(cfg.SampleRate, cfg.BlockFrames)
	return e
}

// SetErrorHandler replaces the handler absorbed errors are reported to.
// Call before Start.
func (e *Engine) SetErrorHandler(h ErrorHandler) {
	if h != nil {
		e.handler = h
	}
}

// SetDevice replaces the output device. Call before Start.
func (e *Engine) SetDevice(d output.Device) {
	if d != nil {
		e.device = d
	}
}

// SetBackend installs a native backend behind the failure guard. Call
// before Start; the backend is only used when cfg.Native.Enabled.
func (e *Engine) SetBackend(b native.Backend) {
	e.backend = native.NewGuard(b)
}

// SetMIDISender enables MIDI beat clock emission through sender. Call
// before Start.
func (e *Engine) SetMIDISender(s clock.Sender) {
	e.midi = clock.NewSync(e.clk, s)
}

// Clock exposes the engine's musical clock.
func (e *Engine) Clock() *clock.Clock { return e.clk }

// Start brings up the native backend (if configured), the output device
// and the mixing worker. A native start failure falls back to the
// portable path, or disables output when strict native mode is set; both
// outcomes are reported to the error handler rather than returned.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return ErrAlreadyRunning
	}

	nativeOwns := false
	if e.backend != nil && e.cfg.Native.Enabled {
		if err := e.backend.StartDevice(e.cfg.SampleRate, e.cfg.BlockFrames); err != nil {
			// voices mirrored before Start belong to the portable mixer now
			e.dropMirrorsLocked()
			if e.cfg.Native.Strict {
				e.outputDisabled.Store(true)
				e.handler.HandleError(fmt.Errorf("native device failed in strict mode, output disabled: %w", err))
			} else {
				e.handler.HandleError(fmt.Errorf("native device failed, using portable path: %w", err))
			}
		} else if e.cfg.Native.OwnsOutput {
			nativeOwns = true
		}
	}
	e.nativeOutput.Store(nativeOwns)

	if !nativeOwns && !e.outputDisabled.Load() {
		if err := e.device.Start(e); err != nil {
			return fmt.Errorf("spatmix: starting output device: %w", err)
		}
	}

	e.clk.Reset()
	if err := e.midi.Start(); err != nil {
		e.handler.HandleError(fmt.Errorf("midi sync start: %w", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})
	e.running = true
	go e.run(ctx)
	return nil
}

// Stop cancels the mixing worker, joins it with a timeout and detaches
// the device.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return ErrNotRunning
	}
	e.running = false
	cancel, done := e.cancel, e.done
	e.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		e.handler.HandleError(errors.New("mixing worker did not stop in time"))
	}

	if err := e.midi.Stop(); err != nil {
		e.handler.HandleError(fmt.Errorf("midi sync stop: %w", err))
	}

	var firstErr error
	if e.nativeOutput.Load() {
		e.nativeOutput.Store(false)
		if e.backend != nil {
			e.backend.StopDevice()
		}
	} else if !e.outputDisabled.Load() {
		firstErr = e.device.Stop()
	}
	e.queue.Clear()
	return firstErr
}

// VoiceOptions configures a voice at creation time.
type VoiceOptions struct {
	// DSP is an optional pitch/tempo transform. When the native backend
	// owns output it is applied as a streaming read step; otherwise the
	// buffer is rendered once, offline, and never re-pitched.
	DSP dsp.Params
	// Effect is an optional block effect or chain applied on the
	// portable mixing path. Voices with an effect are not mirrored.
	Effect dsp.Processor
	// SeamLoop crossfades the buffer tail into its head so looped
	// playback wraps without a discontinuity.
	SeamLoop bool
}

// CreatePlayer registers a buffer-backed voice under id, replacing any
// existing voice with the same id (and its native mirror). The voice is
// created stopped. Returns false when the buffer is unusable or the
// registry is full.
func (e *Engine) CreatePlayer(id string, buf []float32, opts VoiceOptions) bool {
	if len(buf) < 2 {
		e.handler.HandleError(fmt.Errorf("create %q: empty buffer", id))
		return false
	}
	if len(buf)%2 != 0 {
		buf = buf[:len(buf)-1]
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if old, ok := e.voices[id]; ok {
		e.unmirror(old)
	} else if len(e.voices) >= e.cfg.MaxVoices {
		e.handler.HandleError(fmt.Errorf("create %q: voice limit %d reached", id, e.cfg.MaxVoices))
		return false
	}

	v := &voice{id: id, buf: buf, step: 1, volume: 1, effect: opts.Effect}
	if opts.SeamLoop {
		v.buf = dsp.SeamLoop(v.buf, dsp.DefaultSeamFrames)
	}
	if !opts.DSP.Identity() {
		if e.nativeOutput.Load() {
			// low-latency path: leave the buffer alone, stream with a
			// fractional read step
			v.step = opts.DSP.Step()
		} else {
			v.buf = dsp.Render(v.buf, opts.DSP)
			v.rendered = true
		}
	}
	e.voices[id] = v
	return true
}

// CreateGeneratorPlayer registers a generator voice producing its signal
// each block instead of reading a buffer. freq is ignored for noise.
func (e *Engine) CreateGeneratorPlayer(id string, kind dsp.GeneratorKind, freq float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if old, ok := e.voices[id]; ok {
		e.unmirror(old)
	} else if len(e.voices) >= e.cfg.MaxVoices {
		e.handler.HandleError(fmt.Errorf("create %q: voice limit %d reached", id, e.cfg.MaxVoices))
		return false
	}

	var g *dsp.Generator
	if kind == dsp.GeneratorNoise {
		g = dsp.NewNoise(e.cfg.SampleRate)
	} else {
		g = dsp.NewTone(freq, e.cfg.SampleRate)
	}
	e.voices[id] = &voice{id: id, gen: g, step: 1, volume: 1}
	return true
}

// Play starts the voice from the beginning with the given parameters.
func (e *Engine) Play(id string, loop bool, volume, pan float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.voices[id]
	if !ok {
		return false
	}
	v.loop = loop
	v.volume = clamp01(volume)
	v.pan = clampPan(pan)
	v.cursor = 0
	v.playing = true
	e.mirror(v)
	return true
}

// StopVoice halts playback but keeps the registry entry; the voice
// contributes zero gain until played again or removed.
func (e *Engine) StopVoice(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.voices[id]
	if !ok {
		return false
	}
	v.playing = false
	e.unmirror(v)
	return true
}

// Remove deletes the voice and its native mirror. Removing an unknown id
// returns false and has no effect.
func (e *Engine) Remove(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.voices[id]
	if !ok {
		return false
	}
	e.unmirror(v)
	delete(e.voices, id)
	return true
}

// SetVolume sets the voice volume, clamped to [0, 1].
func (e *Engine) SetVolume(id string, volume float64) bool {
	return e.control(id, func(v *voice) { v.volume = clamp01(volume) })
}

// SetPan sets the voice pan, clamped to [-1, 1].
func (e *Engine) SetPan(id string, pan float64) bool {
	return e.control(id, func(v *voice) { v.pan = clampPan(pan) })
}

// SetMute gates the voice without touching its volume.
func (e *Engine) SetMute(id string, mute bool) bool {
	return e.control(id, func(v *voice) { v.mute = mute })
}

func (e *Engine) control(id string, fn func(*voice)) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.voices[id]
	if !ok {
		return false
	}
	fn(v)
	e.syncMirror(v)
	return true
}
