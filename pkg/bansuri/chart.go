package bansuri

import (
	"fmt"
	"strings"

	"github.com/deereeco/bansuri/pkg/music"
	"github.com/deereeco/bansuri/pkg/smf"
)

// Chart renders a plain-text fingering chart for an assembled note list on
// a flute whose Sa is the given key. One line per note: start time, Western
// name, Sargam name with octave marks (' for taar, , for mandra) and the
// hole pattern. Unplayable notes are marked instead of dropped so the chart
// stays aligned with the piece.
func Chart(notes []smf.Note, sa uint8) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sa = %s (MIDI %d)\n", music.KeyName(sa), sa)
	for _, n := range notes {
		name, octave := music.SargamName(n.Key, sa)
		fmt.Fprintf(&b, "%8.0fms  %-4s %-6s ", n.Start, music.KeyName(n.Key), markOctave(name, octave))
		if f, ok := Lookup(n.Key, sa); ok {
			b.WriteString(f.String())
		} else {
			b.WriteString("out of range")
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func markOctave(name string, octave int) string {
	switch {
	case octave > 0:
		return name + strings.Repeat("'", octave)
	case octave < 0:
		return strings.Repeat(",", -octave) + name
	default:
		return name
	}
}
