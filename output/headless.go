package output

import "sync"

// Headless is a Device with no hardware behind it. Tests drive it by
// calling Pull, which performs the same block reads a real device's
// callback would.
type Headless struct {
	sampleRate  int
	blockFrames int

	mu      sync.Mutex
	src     BlockSource
	started bool
}

// NewHeadless returns a manually-driven device.
func NewHeadless(sampleRate, blockFrames int) *Headless {
	return &Headless{sampleRate: sampleRate, blockFrames: blockFrames}
}

func (d *Headless) SampleRate() int { return d.sampleRate }

func (d *Headless) Start(src BlockSource) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return ErrAlreadyStarted
	}
	d.src = src
	d.started = true
	return nil
}

func (d *Headless) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return ErrNotStarted
	}
	d.started = false
	d.src = nil
	return nil
}

// Pull reads n consecutive blocks and returns them concatenated. It
// returns nil if the device is stopped.
func (d *Headless) Pull(n int) []float32 {
	d.mu.Lock()
	src := d.src
	d.mu.Unlock()
	if src == nil {
		return nil
	}
	out := make([]float32, 0, n*d.blockFrames*2)
	block := make([]float32, d.blockFrames*2)
	for i := 0; i < n; i++ {
		src.ReadBlock(block)
		out = append(out, block...)
	}
	return out
}
