package spatmix

// Stats is an on-demand diagnostic snapshot. Counters are cumulative
// since Start.
type Stats struct {
	Voices         int
	ActiveVoices   int
	MirroredVoices int

	QueueLen int
	QueueCap int

	BlocksRendered int64
	BlocksPlayed   int64
	Underruns      int64
	FullSkips      int64

	Pulse int64

	NativeOutput    bool
	NativeAvailable bool
	OutputDisabled  bool
}

// Stats returns the engine's current diagnostic snapshot.
func (e *Engine) Stats() Stats {
	st := Stats{
		QueueLen:       e.queue.Len(),
		QueueCap:       e.queue.Cap(),
		BlocksRendered: e.blocksRendered.Load(),
		BlocksPlayed:   e.blocksPlayed.Load(),
		Underruns:      e.underruns.Load(),
		FullSkips:      e.fullSkips.Load(),
		Pulse:          e.clk.Pulse(),
		NativeOutput:   e.nativeOutput.Load(),
		OutputDisabled: e.outputDisabled.Load(),
	}
	if e.backend != nil {
		st.NativeAvailable = e.backend.Available()
	}

	e.mu.Lock()
	st.Voices = len(e.voices)
	st.MirroredVoices = e.mirroredN
	for _, v := range e.voices {
		if v.playing {
			st.ActiveVoices++
		}
	}
	e.mu.Unlock()
	return st
}
