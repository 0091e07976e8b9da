package sample

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeTestWAV(t *testing.T, path string, channels, rate int, samples []int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
}

func TestLoadWAV_StereoRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.wav")
	samples := make([]int, 200) // 100 stereo frames
	for i := range samples {
		samples[i] = int(float64(16000) * math.Sin(float64(i)/10))
	}
	writeTestWAV(t, path, 2, 44100, samples)

	got, err := LoadWAV(path, 44100)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 200 {
		t.Fatalf("samples: want 200, got %d", len(got))
	}
	for i := range got {
		want := float32(samples[i]) / 32768
		if math.Abs(float64(got[i]-want)) > 1e-4 {
			t.Fatalf("sample %d: want %v, got %v", i, want, got[i])
		}
	}
}

func TestLoadWAV_MonoUpmix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.wav")
	samples := []int{1000, 2000, 3000, 4000}
	writeTestWAV(t, path, 1, 44100, samples)

	got, err := LoadWAV(path, 44100)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 8 {
		t.Fatalf("samples after upmix: want 8, got %d", len(got))
	}
	for i := 0; i < 4; i++ {
		if got[2*i] != got[2*i+1] {
			t.Errorf("frame %d: channels differ: %v != %v", i, got[2*i], got[2*i+1])
		}
	}
}

func TestLoadWAV_ResamplesToTargetRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rate.wav")
	samples := make([]int, 4410*2) // 100ms stereo at 44.1kHz
	writeTestWAV(t, path, 2, 44100, samples)

	got, err := LoadWAV(path, 48000)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	gotFrames := len(got) / 2
	// 100ms at 48kHz
	if gotFrames < 4790 || gotFrames > 4810 {
		t.Fatalf("resampled frames: want ~4800, got %d", gotFrames)
	}
}

func TestLoadWAV_RejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.wav")
	if err := os.WriteFile(path, []byte("definitely not audio data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadWAV(path, 48000); err == nil {
		t.Fatal("expected error for garbage input")
	}
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	_, err := Load("song.flac", 48000)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("want ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoad_DispatchesByExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dispatch.wav")
	writeTestWAV(t, path, 2, 44100, []int{0, 0, 100, 100})
	if _, err := Load(path, 44100); err != nil {
		t.Fatalf("load via dispatch: %v", err)
	}
}
