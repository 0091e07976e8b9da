package spatial

import (
	"math"

	"github.com/shaban/spatmix/config"
)

// Scale snaps continuous semitone values to a musical scale. The candidate
// note set is built from the root key, the degree set and the octave range;
// Transpose is added after snapping.
type Scale struct {
	Root      int
	Degrees   []int
	Octaves   int
	Transpose int
	Mode      config.SnapMode

	notes []int // sorted candidate semitone offsets
}

// NewScale builds a Scale from its configuration. The configuration is
// resolved first, so a zero value yields a usable major scale.
func NewScale(sc config.ScaleConfig) *Scale {
	resolved := config.Config{Scale: sc}.Resolve().Scale
	s := &Scale{
		Root:      resolved.RootKey,
		Degrees:   resolved.Degrees,
		Octaves:   resolved.OctaveRange,
		Transpose: resolved.Transpose,
		Mode:      resolved.Mode,
	}
	for oct := -s.Octaves; oct <= s.Octaves; oct++ {
		for _, d := range s.Degrees {
			note := s.Root + oct*12 + d
			if note >= -24 && note <= 24 {
				s.notes = append(s.notes, note)
			}
		}
	}
	// degree sets are given in ascending order per octave, so the list is
	// already sorted; guard against odd configurations anyway
	for i := 1; i < len(s.notes); i++ {
		if s.notes[i] < s.notes[i-1] {
			s.sortNotes()
			break
		}
	}
	return s
}

func (s *Scale) sortNotes() {
	for i := 1; i < len(s.notes); i++ {
		for j := i; j > 0 && s.notes[j] < s.notes[j-1]; j-- {
			s.notes[j], s.notes[j-1] = s.notes[j-1], s.notes[j]
		}
	}
}

// Snap maps a continuous semitone value to the nearest scale entry
// according to the configured snap mode, then applies Transpose.
func (s *Scale) Snap(semi float64) int {
	if len(s.notes) == 0 {
		return int(math.Round(semi)) + s.Transpose
	}

	// find the first note >= semi
	idx := len(s.notes)
	for i, n := range s.notes {
		if float64(n) >= semi {
			idx = i
			break
		}
	}

	var note int
	switch s.Mode {
	case config.SnapFloor:
		if idx == 0 {
			note = s.notes[0]
		} else if idx == len(s.notes) || float64(s.notes[idx]) > semi {
			note = s.notes[idx-1]
		} else {
			note = s.notes[idx]
		}
	case config.SnapCeil:
		if idx == len(s.notes) {
			note = s.notes[len(s.notes)-1]
		} else {
			note = s.notes[idx]
		}
	default: // nearest
		if idx == 0 {
			note = s.notes[0]
		} else if idx == len(s.notes) {
			note = s.notes[len(s.notes)-1]
		} else {
			lo, hi := s.notes[idx-1], s.notes[idx]
			if semi-float64(lo) <= float64(hi)-semi {
				note = lo
			} else {
				note = hi
			}
		}
	}
	return note + s.Transpose
}

// RateForSemitone converts a semitone offset to a playback rate multiplier.
func RateForSemitone(semi float64) float64 {
	return math.Pow(2, semi/12)
}
