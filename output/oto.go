package output

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// OtoDevice plays blocks through the system's default output via oto.
// oto pulls bytes through an io.Reader; the device adapts that to the
// BlockSource block protocol with a preallocated staging buffer.
type OtoDevice struct {
	sampleRate  int
	blockFrames int

	mu     sync.Mutex
	player *oto.Player
}

// NewOtoDevice configures a device for the given format. The device is
// idle until Start.
func NewOtoDevice(sampleRate, blockFrames int) *OtoDevice {
	return &OtoDevice{sampleRate: sampleRate, blockFrames: blockFrames}
}

func (d *OtoDevice) SampleRate() int { return d.sampleRate }

// Start opens the oto context and begins playback. oto's context is a
// process-wide singleton; opening it twice with different formats fails,
// so hosts embedding other audio users should own the context themselves.
func (d *OtoDevice) Start(src BlockSource) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.player != nil {
		return ErrAlreadyStarted
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   d.sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize: time.Duration(d.blockFrames) * time.Second /
			time.Duration(d.sampleRate) * 2,
	})
	if err != nil {
		return fmt.Errorf("output: opening oto context: %w", err)
	}
	<-ready

	d.player = ctx.NewPlayer(&blockReader{
		src:   src,
		block: make([]float32, d.blockFrames*2),
		bytes: make([]byte, d.blockFrames*2*4),
	})
	d.player.Play()
	return nil
}

func (d *OtoDevice) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.player == nil {
		return ErrNotStarted
	}
	err := d.player.Close()
	d.player = nil
	return err
}

// blockReader adapts a BlockSource to oto's io.Reader pull. It encodes
// one block at a time into a staging byte buffer and serves reads from
// there, so partial reads never split a sample.
type blockReader struct {
	src   BlockSource
	block []float32
	bytes []byte
	rem   []byte
}

func (r *blockReader) Read(p []byte) (int, error) {
	if len(r.rem) == 0 {
		r.src.ReadBlock(r.block)
		for i, s := range r.block {
			binary.LittleEndian.PutUint32(r.bytes[i*4:], math.Float32bits(s))
		}
		r.rem = r.bytes
	}
	n := copy(p, r.rem)
	r.rem = r.rem[n:]
	return n, nil
}
