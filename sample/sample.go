// Package sample decodes audio files into the engine's buffer format:
// interleaved stereo float32 at a caller-chosen sample rate. Mono sources
// are upmixed and foreign rates are converted through the dsp resampler.
package sample

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"

	"github.com/shaban/spatmix/dsp"
)

var (
	// ErrUnsupportedFormat is returned for file extensions no decoder
	// handles.
	ErrUnsupportedFormat = errors.New("sample: unsupported format")
	// ErrNotWavFile is returned when a .wav file fails header validation.
	ErrNotWavFile = errors.New("sample: not a valid wav file")
	// ErrEmptyFile is returned when a file decodes to zero frames.
	ErrEmptyFile = errors.New("sample: no audio frames")
)

// Load decodes path by extension into interleaved stereo float32 at
// targetRate.
func Load(path string, targetRate int) ([]float32, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return LoadWAV(path, targetRate)
	case ".mp3":
		return LoadMP3(path, targetRate)
	case ".ogg":
		return LoadOGG(path, targetRate)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// LoadWAV decodes a PCM WAV file.
func LoadWAV(path string, targetRate int) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sample: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, ErrNotWavFile
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("sample: decoding wav: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, ErrEmptyFile
	}

	samples := normalizeInts(buf, int(dec.BitDepth))
	stereo := toStereo(samples, buf.Format.NumChannels)
	return dsp.Resample(stereo, buf.Format.SampleRate, targetRate), nil
}

// LoadMP3 decodes an MP3 file. go-mp3 always yields 16-bit stereo PCM.
func LoadMP3(path string, targetRate int) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sample: %w", err)
	}
	defer f.Close()

	dec, err := gomp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("sample: decoding mp3: %w", err)
	}

	raw := make([]byte, 0, 1<<16)
	chunk := make([]byte, 8192)
	for {
		n, err := dec.Read(chunk)
		raw = append(raw, chunk[:n]...)
		if err != nil {
			break
		}
	}
	if len(raw) < 4 {
		return nil, ErrEmptyFile
	}

	stereo := make([]float32, len(raw)/2)
	for i := range stereo {
		v := int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8)
		stereo[i] = float32(v) / 32768
	}
	return dsp.Resample(stereo, dec.SampleRate(), targetRate), nil
}

// LoadOGG decodes an Ogg Vorbis file.
func LoadOGG(path string, targetRate int) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sample: %w", err)
	}
	defer f.Close()

	data, format, err := oggvorbis.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("sample: decoding ogg: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	stereo := toStereo(data, format.Channels)
	return dsp.Resample(stereo, format.SampleRate, targetRate), nil
}

// normalizeInts converts go-audio integer samples to float32 based on the
// source bit depth.
func normalizeInts(buf *goaudio.IntBuffer, bitDepth int) []float32 {
	var maxVal float32
	switch bitDepth {
	case 8:
		maxVal = 128
	case 24:
		maxVal = 8388608
	case 32:
		maxVal = 2147483648
	default:
		maxVal = 32768
	}
	out := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		out[i] = float32(v) / maxVal
	}
	return out
}

// toStereo ensures interleaved stereo: mono is duplicated to both
// channels, extra channels beyond two are dropped.
func toStereo(samples []float32, channels int) []float32 {
	switch {
	case channels == 2:
		if len(samples)%2 != 0 {
			samples = samples[:len(samples)-1]
		}
		return samples
	case channels <= 1:
		out := make([]float32, len(samples)*2)
		for i, v := range samples {
			out[2*i] = v
			out[2*i+1] = v
		}
		return out
	default:
		frames := len(samples) / channels
		out := make([]float32, frames*2)
		for i := 0; i < frames; i++ {
			out[2*i] = samples[i*channels]
			out[2*i+1] = samples[i*channels+1]
		}
		return out
	}
}
