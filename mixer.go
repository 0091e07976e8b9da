package spatmix

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shaban/spatmix/dsp"
	"github.com/shaban/spatmix/output"
)

// run is the mixing worker. It keeps the block queue at its fill target,
// services native stream voices, pumps MIDI sync and watches the native
// backend for failure.
func (e *Engine) run(ctx context.Context) {
	defer close(e.done)
	ticker := time.NewTicker(e.cfg.WorkerInterval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			e.iterate(dt)
		}
	}
}

func (e *Engine) iterate(dt float64) {
	if e.nativeOutput.Load() {
		if e.backend.Available() {
			// the backend owns the device, so nobody else advances the
			// clock
			e.clk.Advance(dt)
			e.updateEmitters(dt)
			e.serviceStreams()
			e.midi.Pump()
			return
		}
		e.failNativeOutput()
	}
	if e.outputDisabled.Load() {
		return
	}

	blockDT := float64(e.cfg.BlockFrames) / float64(e.cfg.SampleRate)
	for e.queue.Len() < e.cfg.QueueFillTarget {
		e.updateEmitters(blockDT)
		block := e.takeBlock()
		e.renderBlock(block)
		if !e.queue.TryPush(block) {
			e.free.TryPush(block)
			e.fullSkips.Add(1)
			break
		}
		e.blocksRendered.Add(1)
	}
	e.midi.Pump()
}

// failNativeOutput handles the backend dying while it owned output:
// strict mode goes silent, otherwise the portable device takes over.
func (e *Engine) failNativeOutput() {
	e.nativeOutput.Store(false)
	e.mu.Lock()
	e.dropMirrorsLocked()
	e.mu.Unlock()
	if e.cfg.Native.Strict {
		e.outputDisabled.Store(true)
		e.handler.HandleError(errors.New("native backend lost in strict mode, output disabled"))
		return
	}
	e.handler.HandleError(errors.New("native backend lost, falling back to portable mixing"))
	if err := e.device.Start(e); err != nil && !errors.Is(err, output.ErrAlreadyStarted) {
		e.outputDisabled.Store(true)
		e.handler.HandleError(fmt.Errorf("portable fallback device failed: %w", err))
	}
}

// takeBlock recycles a consumed block or allocates a fresh one.
func (e *Engine) takeBlock() []float32 {
	if block, ok := e.free.TryPop(); ok && len(block) == e.cfg.BlockFrames*2 {
		return block
	}
	return make([]float32, e.cfg.BlockFrames*2)
}

// renderBlock mixes all playing voices into block. A panic in one voice
// is recovered and skips only that voice for this block.
func (e *Engine) renderBlock(block []float32) {
	for i := range block {
		block[i] = 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// a dead backend hands its voices back to the portable mixer
	if e.backend != nil && !e.backend.Available() {
		e.dropMirrorsLocked()
	}
	e.reapMirroredLocked()

	for _, v := range e.voices {
		if !v.playing || v.mirrored {
			continue
		}
		e.mixVoice(v, block)
	}

	// mirrored voices live in the backend; pull its summed contribution
	if e.mirroredN > 0 && e.backend != nil && e.backend.Available() {
		if err := e.backend.Render(e.nativeBlock); err == nil {
			for i := range block {
				block[i] += e.nativeBlock[i]
			}
		} else {
			e.dropMirrorsLocked()
		}
	}
	dsp.Clamp(block)
}

func (e *Engine) mixVoice(v *voice, block []float32) {
	defer func() {
		if r := recover(); r != nil {
			e.handler.HandleError(fmt.Errorf("voice %q: mix panic: %v", v.id, r))
		}
	}()

	gl, gr := v.gains()
	frames := len(block) / 2

	switch {
	case v.gen != nil:
		v.gen.Fill(e.scratch)
		if v.effect != nil {
			v.effect.Process(e.scratch)
			dsp.Clamp(e.scratch)
		}
		for i := 0; i < frames; i++ {
			block[2*i] += e.scratch[2*i] * gl
			block[2*i+1] += e.scratch[2*i+1] * gr
		}

	case v.effect != nil || v.step != 1:
		e.mixInterpolated(v, block, gl, gr)

	default:
		e.mixDirect(v, block, gl, gr)
	}
}

// mixDirect is the fast path for untransformed voices: whole-frame copy
// with a two-part split at the loop wrap.
func (e *Engine) mixDirect(v *voice, block []float32, gl, gr float32) {
	srcFrames := len(v.buf) / 2
	if srcFrames == 0 {
		v.playing = false
		return
	}

	pos := int(v.cursor)
	if pos >= srcFrames {
		pos = 0
	}
	remaining := len(block) / 2
	di := 0
	for remaining > 0 {
		n := srcFrames - pos
		if n > remaining {
			n = remaining
		}
		for i := 0; i < n; i++ {
			block[2*(di+i)] += v.buf[2*(pos+i)] * gl
			block[2*(di+i)+1] += v.buf[2*(pos+i)+1] * gr
		}
		di += n
		pos += n
		remaining -= n
		if pos >= srcFrames {
			if !v.loop {
				v.playing = false
				break
			}
			pos = 0
		}
	}
	v.cursor = float64(pos)
}

// mixInterpolated reads through a fractional cursor (streaming pitch or
// tempo) and/or routes the voice's chunk through its effect chain.
func (e *Engine) mixInterpolated(v *voice, block []float32, gl, gr float32) {
	srcFrames := len(v.buf) / 2
	if srcFrames == 0 {
		v.playing = false
		return
	}

	frames := len(block) / 2
	for i := 0; i < frames; i++ {
		if !v.playing {
			e.scratch[2*i] = 0
			e.scratch[2*i+1] = 0
			continue
		}
		l, r := dsp.ReadFrame(v.buf, v.cursor, v.loop)
		e.scratch[2*i] = l
		e.scratch[2*i+1] = r
		v.cursor += v.step
		if v.loop {
			for v.cursor >= float64(srcFrames) {
				v.cursor -= float64(srcFrames)
			}
		} else if v.cursor >= float64(srcFrames) {
			v.playing = false
		}
	}

	if v.effect != nil {
		v.effect.Process(e.scratch)
		dsp.Clamp(e.scratch)
	}
	for i := 0; i < frames; i++ {
		block[2*i] += e.scratch[2*i] * gl
		block[2*i+1] += e.scratch[2*i+1] * gr
	}
}

// serviceStreams feeds generator voices to the native backend while it
// owns output.
func (e *Engine) serviceStreams() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reapMirroredLocked()
	for _, v := range e.voices {
		if !v.playing || !v.mirrored || v.gen == nil {
			continue
		}
		v.gen.Fill(e.scratch)
		if v.effect != nil {
			v.effect.Process(e.scratch)
			dsp.Clamp(e.scratch)
		}
		if err := e.backend.PushStereo(v.id, e.scratch); err != nil {
			return
		}
	}
}

// ReadBlock is the output callback: non-blocking, allocation-free, no
// logging. An empty queue yields silence; consumed audio advances the
// musical clock.
func (e *Engine) ReadBlock(dst []float32) {
	if e.outputDisabled.Load() {
		zeroBlock(dst)
		return
	}
	block, ok := e.queue.TryPop()
	if !ok {
		zeroBlock(dst)
		e.underruns.Add(1)
	} else {
		copy(dst, block)
		e.free.TryPush(block)
		e.blocksPlayed.Add(1)
	}
	e.clk.AdvanceFrames(len(dst)/2, e.cfg.SampleRate)
}

func zeroBlock(dst []float32) {
	for i := range dst {
		dst[i] = 0
	}
}
