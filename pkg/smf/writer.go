package smf

import (
	"fmt"
	"io"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	gosmf "gitlab.com/gomidi/midi/v2/smf"
)

// Export parameters. Written files are format 0 at a fixed 120 BPM, so one
// millisecond of note time maps to exactly 0.96 ticks.
const (
	exportDivision = 480
	exportVelocity = 96
	exportBPM      = 120
)

// WriteNotes serializes an assembled note list back into a single-track SMF.
// The output round-trips through Parse/AssembleNotes: start times and
// durations survive up to tick quantization.
func WriteNotes(w io.Writer, notes []Note) error {
	type boundary struct {
		tick int64
		on   bool
		key  uint8
	}

	ticksPerMilli := float64(exportDivision) / (60000.0 / exportBPM)
	boundaries := make([]boundary, 0, len(notes)*2)
	for _, n := range notes {
		start := int64(n.Start*ticksPerMilli + 0.5)
		end := int64((n.Start+n.Duration)*ticksPerMilli + 0.5)
		boundaries = append(boundaries,
			boundary{tick: start, on: true, key: n.Key},
			boundary{tick: end, on: false, key: n.Key})
	}
	sort.SliceStable(boundaries, func(i, j int) bool {
		if boundaries[i].tick != boundaries[j].tick {
			return boundaries[i].tick < boundaries[j].tick
		}
		// Offs before ons at the same tick, so back-to-back repeats of a key
		// do not swallow each other.
		return !boundaries[i].on && boundaries[j].on
	})

	out := gosmf.New()
	out.TimeFormat = gosmf.MetricTicks(exportDivision)

	var track gosmf.Track
	track.Add(0, gosmf.MetaTempo(exportBPM))
	lastTick := int64(0)
	for _, b := range boundaries {
		delta := uint32(b.tick - lastTick)
		lastTick = b.tick
		if b.on {
			track.Add(delta, midi.NoteOn(0, b.key, exportVelocity))
		} else {
			track.Add(delta, midi.NoteOff(0, b.key))
		}
	}
	track.Close(0)

	if err := out.Add(track); err != nil {
		return fmt.Errorf("failed to add track: %w", err)
	}
	if _, err := out.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write SMF: %w", err)
	}
	return nil
}

// Transpose returns a copy of notes shifted by the given number of
// semitones. Notes pushed outside the MIDI key range are dropped.
func Transpose(notes []Note, semitones int) []Note {
	out := make([]Note, 0, len(notes))
	for _, n := range notes {
		key := int(n.Key) + semitones
		if key < 0 || key > 127 {
			continue
		}
		n.Key = uint8(key)
		out = append(out, n)
	}
	return out
}
