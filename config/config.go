// Package config holds the engine configuration and its defaulting rules.
//
// Configuration mistakes are never fatal: Resolve maps every unset or
// out-of-range field to a documented default so the engine always starts
// with a usable parameter set.
package config

import "time"

// Default values applied by Resolve.
const (
	DefaultSampleRate      = 48000
	DefaultBlockFrames     = 512
	DefaultQueueCapacity   = 8
	DefaultQueueFillTarget = 4
	DefaultWorkerInterval  = 2 * time.Millisecond
	DefaultSmoothingTau    = 30 * time.Millisecond
	DefaultNearFieldRatio  = 0.12
	DefaultMaxVoices       = 64
	DefaultBPM             = 120
	DefaultPPQ             = 4
	DefaultQuantizeYRange  = 480
	DefaultListenerRadius  = 160
)

// SnapMode selects how a continuous semitone value is snapped to a scale.
type SnapMode string

const (
	SnapNearest SnapMode = "nearest"
	SnapFloor   SnapMode = "floor"
	SnapCeil    SnapMode = "ceil"
)

// NativeConfig controls the optional native backend.
type NativeConfig struct {
	// Enabled mirrors eligible voices into the native backend.
	Enabled bool `json:"enabled"`
	// OwnsOutput hands the device and final summation to the backend.
	OwnsOutput bool `json:"ownsOutput"`
	// Strict disables audio output entirely when the backend fails,
	// instead of falling back to the portable mixing path.
	Strict bool `json:"strict"`
}

// ScaleConfig describes the pitch-quantization scale.
type ScaleConfig struct {
	RootKey     int      `json:"rootKey"`     // semitone offset of the scale root
	Degrees     []int    `json:"degrees"`     // scale degrees in semitones within one octave
	OctaveRange int      `json:"octaveRange"` // octaves above and below the root
	Transpose   int      `json:"transpose"`   // semitones added after snapping
	Mode        SnapMode `json:"mode"`
}

// Config is the complete engine configuration. The zero value resolves to
// a working default setup.
type Config struct {
	SampleRate      int           `json:"sampleRate"`
	BlockFrames     int           `json:"blockFrames"`
	QueueCapacity   int           `json:"queueCapacity"`
	QueueFillTarget int           `json:"queueFillTarget"`
	WorkerInterval  time.Duration `json:"workerInterval"`

	NearFieldRatio float64       `json:"nearFieldRatio"`
	SmoothingTau   time.Duration `json:"smoothingTau"`
	ListenerRadius float64       `json:"listenerRadius"`

	MaxVoices int `json:"maxVoices"`

	BPM float64 `json:"bpm"`
	PPQ int     `json:"ppq"`
	// QuantizeYRange is the world-space vertical span mapped across the
	// full ±24 semitone quantization range.
	QuantizeYRange float64 `json:"quantizeYRange"`

	Native NativeConfig `json:"native"`
	Scale  ScaleConfig  `json:"scale"`
}

// Resolve returns a copy of c with every unset or invalid field replaced
// by its default. It honors any valid explicit value as given.
func (c Config) Resolve() Config {
	if c.SampleRate <= 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.BlockFrames <= 0 {
		c.BlockFrames = DefaultBlockFrames
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = DefaultQueueCapacity
	}
	if c.QueueFillTarget <= 0 || c.QueueFillTarget > c.QueueCapacity {
		c.QueueFillTarget = c.QueueCapacity / 2
		if c.QueueFillTarget == 0 {
			c.QueueFillTarget = 1
		}
	}
	if c.WorkerInterval <= 0 {
		c.WorkerInterval = DefaultWorkerInterval
	}
	if c.NearFieldRatio <= 0 || c.NearFieldRatio >= 1 {
		c.NearFieldRatio = DefaultNearFieldRatio
	}
	if c.SmoothingTau <= 0 {
		c.SmoothingTau = DefaultSmoothingTau
	}
	if c.ListenerRadius <= 0 {
		c.ListenerRadius = DefaultListenerRadius
	}
	if c.MaxVoices <= 0 {
		c.MaxVoices = DefaultMaxVoices
	}
	if c.BPM <= 0 {
		c.BPM = DefaultBPM
	}
	if c.PPQ <= 0 {
		c.PPQ = DefaultPPQ
	}
	if c.QuantizeYRange <= 0 {
		c.QuantizeYRange = DefaultQuantizeYRange
	}
	if len(c.Scale.Degrees) == 0 {
		c.Scale.Degrees = []int{0, 2, 4, 5, 7, 9, 11} // major
	}
	if c.Scale.OctaveRange <= 0 {
		c.Scale.OctaveRange = 2
	}
	switch c.Scale.Mode {
	case SnapNearest, SnapFloor, SnapCeil:
	default:
		c.Scale.Mode = SnapNearest
	}
	return c
}
