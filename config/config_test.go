package config

import (
	"testing"
	"time"
)

func TestResolve_ZeroValueGetsDefaults(t *testing.T) {
	c := Config{}.Resolve()

	if c.SampleRate != DefaultSampleRate {
		t.Errorf("sample rate: want %d, got %d", DefaultSampleRate, c.SampleRate)
	}
	if c.BlockFrames != DefaultBlockFrames {
		t.Errorf("block frames: want %d, got %d", DefaultBlockFrames, c.BlockFrames)
	}
	if c.QueueCapacity != DefaultQueueCapacity {
		t.Errorf("queue capacity: want %d, got %d", DefaultQueueCapacity, c.QueueCapacity)
	}
	if c.QueueFillTarget != DefaultQueueCapacity/2 {
		t.Errorf("fill target: want %d, got %d", DefaultQueueCapacity/2, c.QueueFillTarget)
	}
	if c.SmoothingTau != DefaultSmoothingTau {
		t.Errorf("smoothing tau: want %v, got %v", DefaultSmoothingTau, c.SmoothingTau)
	}
	if len(c.Scale.Degrees) == 0 {
		t.Error("scale degrees not defaulted")
	}
	if c.Scale.Mode != SnapNearest {
		t.Errorf("snap mode: want %q, got %q", SnapNearest, c.Scale.Mode)
	}
}

func TestResolve_KeepsExplicitValues(t *testing.T) {
	c := Config{
		SampleRate:      44100,
		BlockFrames:     256,
		QueueCapacity:   16,
		QueueFillTarget: 12,
		WorkerInterval:  5 * time.Millisecond,
		BPM:             90,
		PPQ:             8,
	}.Resolve()

	if c.SampleRate != 44100 || c.BlockFrames != 256 {
		t.Errorf("explicit values overwritten: %d/%d", c.SampleRate, c.BlockFrames)
	}
	if c.QueueFillTarget != 12 {
		t.Errorf("fill target: want 12, got %d", c.QueueFillTarget)
	}
	if c.BPM != 90 || c.PPQ != 8 {
		t.Errorf("clock config overwritten: %v/%v", c.BPM, c.PPQ)
	}
}

func TestResolve_FillTargetClampedToCapacity(t *testing.T) {
	c := Config{QueueCapacity: 4, QueueFillTarget: 100}.Resolve()
	if c.QueueFillTarget > c.QueueCapacity {
		t.Fatalf("fill target %d exceeds capacity %d", c.QueueFillTarget, c.QueueCapacity)
	}
}

func TestResolve_InvalidSnapMode(t *testing.T) {
	c := Config{Scale: ScaleConfig{Mode: "sideways"}}.Resolve()
	if c.Scale.Mode != SnapNearest {
		t.Fatalf("want %q, got %q", SnapNearest, c.Scale.Mode)
	}
}
