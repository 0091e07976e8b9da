// Package native defines the narrow boundary to an optional lower-latency
// external mixing engine. The engine talks to a Backend only through the
// Guard wrapper, which turns any failure into "backend unavailable" so the
// portable mixing path can take over.
//
// Transport (in-process vs. cross-process) is an integration detail; the
// Loopback backend in this package is a complete in-process reference
// implementation.
package native

import "errors"

var (
	// ErrUnavailable marks a backend that has failed and been taken out
	// of service.
	ErrUnavailable = errors.New("native: backend unavailable")
	// ErrUnknownVoice is returned for operations on unregistered voices.
	ErrUnknownVoice = errors.New("native: unknown voice")
	// ErrDeviceStopped is returned when rendering without a started
	// device.
	ErrDeviceStopped = errors.New("native: device not started")
)

// VoiceInfo describes a native-resident voice for diagnostics.
type VoiceInfo struct {
	ID        string
	Frames    int
	Cursor    int
	Volume    float32
	Pan       float32
	Loop      bool
	Streaming bool
}

// Stats is the backend's diagnostic snapshot.
type Stats struct {
	Voices         int
	StreamVoices   int
	BlocksRendered int64
	PushedFrames   int64
	DroppedFrames  int64
}

// Backend is the full native call surface. Every method returns an
// explicit error; callers treat any error as a reason to fall back.
type Backend interface {
	// AddVoice registers a buffer-backed voice. The backend copies or
	// retains buf; the caller must not mutate it afterwards.
	AddVoice(id string, buf []float32, loop bool) error
	// AddStreamVoice registers a voice fed incrementally via PushStereo.
	AddStreamVoice(id string) error
	RemoveVoice(id string) error

	SetParams(id string, volume, pan float32) error
	SetLoop(id string, loop bool) error
	// SetSrcRate adjusts the voice's playback rate multiplier.
	SetSrcRate(id string, rate float64) error
	SetDSPParams(id string, pitch, tempo float64) error

	// PushStereo appends interleaved stereo frames to a stream voice's
	// ring. Excess frames beyond the ring capacity are dropped.
	PushStereo(id string, buf []float32) error

	// Render writes one complete interleaved stereo block into dst. It
	// must not block or allocate.
	Render(dst []float32) error

	StartDevice(sampleRate, blockFrames int) error
	StopDevice() error
	DeviceRate() (int, error)

	VoiceInfo(id string) (VoiceInfo, error)
	GetStats() (Stats, error)
}
