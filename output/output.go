// Package output owns the playback device boundary. A Device pulls
// fixed-size interleaved stereo blocks from a BlockSource; the source must
// answer every pull immediately with a full block, writing silence when it
// has nothing better.
package output

import "errors"

// ErrAlreadyStarted is returned when starting a device twice.
var ErrAlreadyStarted = errors.New("output: device already started")

// ErrNotStarted is returned when stopping a device that is not running.
var ErrNotStarted = errors.New("output: device not started")

// BlockSource supplies audio to a device. ReadBlock is called from the
// device's realtime path and must not block, allocate, or log; dst is a
// complete interleaved stereo block that must be fully written.
type BlockSource interface {
	ReadBlock(dst []float32)
}

// Device is a started audio sink.
type Device interface {
	// Start begins pulling blocks from src until Stop.
	Start(src BlockSource) error
	Stop() error
	SampleRate() int
}
