// Package spatmix is a real-time audio mixing and spatialization engine.
// It turns a dynamic set of positioned sound emitters into a continuous
// stereo stream: voices are registered and controlled through the Engine
// facade, a mixing worker renders fixed-size blocks into a bounded queue,
// and an output device drains the queue from its realtime callback.
//
// Spatialization maps emitter positions to smoothed volume and pan, with
// optional pitch quantization against a musical scale driven by a BPM/PPQ
// clock. An optional native backend can mirror voices for lower latency;
// every native call is best effort and the portable mixing path remains
// the fallback.
package spatmix
