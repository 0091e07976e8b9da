// Package testutil holds shared test helpers.
package testutil

import (
	"math"
	"os"
	"testing"
	"time"
)

// SkipUnlessEnv skips the test unless the given env var equals the wanted value.
func SkipUnlessEnv(t *testing.T, key, want string) {
	t.Helper()
	if os.Getenv(key) != want {
		t.Skipf("skipped: set %s=%s to run", key, want)
	}
}

// IsCI reports whether running under common CI environments.
func IsCI() bool {
	return os.Getenv("CI") == "true" || os.Getenv("GITHUB_ACTIONS") == "true"
}

// SineStereo builds an interleaved stereo sine buffer for test material.
func SineStereo(freq float64, sampleRate, frames int) []float32 {
	buf := make([]float32, frames*2)
	for i := 0; i < frames; i++ {
		v := float32(math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate)))
		buf[2*i] = v
		buf[2*i+1] = v
	}
	return buf
}

// RMS computes the root mean square of a sample slice.
func RMS(buf []float32) float64 {
	if len(buf) == 0 {
		return 0
	}
	var sum float64
	for _, v := range buf {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(buf)))
}

// Eventually polls cond every 5ms until it returns true or timeout
// elapses, then fails the test.
func Eventually(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s: %s", timeout, msg)
}
