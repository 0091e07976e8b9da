package clock

import (
	"gitlab.com/gomidi/midi/v2"
)

// MIDI system realtime status bytes.
const (
	statusTimingClock = 0xF8
	statusStart       = 0xFA
	statusStop        = 0xFC
)

// midiClockPPQ is the fixed MIDI beat clock resolution.
const midiClockPPQ = 24

// Sender delivers MIDI messages to an output port. gomidi driver outputs
// satisfy this through midi.SendTo; tests supply an in-memory recorder.
type Sender interface {
	Send(msg midi.Message) error
}

// Sync emits standard 24-PPQN MIDI beat clock derived from a Clock, so
// external gear can follow the engine's musical grid. Emission happens
// from the mixing worker (via Pump), never from the output callback.
type Sync struct {
	clk      *Clock
	sender   Sender
	lastTick int64
	running  bool
}

// NewSync couples a clock to a MIDI sender. A nil sender disables
// emission; Pump becomes a no-op.
func NewSync(clk *Clock, sender Sender) *Sync {
	return &Sync{clk: clk, lastTick: -1, sender: sender}
}

// Start emits a MIDI start message and arms tick emission.
func (s *Sync) Start() error {
	if s.sender == nil {
		return nil
	}
	s.running = true
	s.lastTick = s.tickNow()
	return s.sender.Send(midi.Message{statusStart})
}

// Stop emits a MIDI stop message and disarms tick emission.
func (s *Sync) Stop() error {
	if s.sender == nil || !s.running {
		return nil
	}
	s.running = false
	return s.sender.Send(midi.Message{statusStop})
}

// Pump emits one timing-clock message per 24-PPQN tick elapsed since the
// last call. Call it periodically from the worker loop; it returns the
// number of ticks emitted.
func (s *Sync) Pump() int {
	if s.sender == nil || !s.running {
		return 0
	}
	now := s.tickNow()
	emitted := 0
	for s.lastTick < now {
		s.lastTick++
		if err := s.sender.Send(midi.Message{statusTimingClock}); err != nil {
			// sender failure disarms sync rather than spamming retries
			s.running = false
			break
		}
		emitted++
	}
	return emitted
}

func (s *Sync) tickNow() int64 {
	return int64(s.clk.Elapsed() * s.clk.BPM() / 60 * midiClockPPQ)
}
