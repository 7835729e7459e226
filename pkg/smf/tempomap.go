package smf

import "sort"

// DefaultMicrosPerQuarter is the tempo assumed when a file carries no
// Set-Tempo event at tick 0 (500000 us per quarter note = 120 BPM).
const DefaultMicrosPerQuarter = 500000

// TempoChange is one breakpoint of the tempo map: from Tick onward the file
// runs at MicrosPerQuarter microseconds per quarter note.
type TempoChange struct {
	Tick             int64
	MicrosPerQuarter int
}

// TempoMap is the ascending-by-tick list of tempo breakpoints for a file.
// A map built by BuildTempoMap always has an entry at tick 0.
type TempoMap []TempoChange

// BuildTempoMap collects every Set-Tempo meta event across all tracks.
//
// Delta times are per track, so each track keeps its own running tick
// counter while scanning; the collected breakpoints are then sorted by
// absolute tick (stable, so same-tick events keep file order). If the file
// specifies no tempo at tick 0 the default 120 BPM entry is prepended.
func BuildTempoMap(file *File) TempoMap {
	var changes TempoMap
	for _, track := range file.Tracks {
		tick := int64(0)
		for _, ev := range track {
			tick += int64(ev.Delta)
			meta, ok := ev.Message.(MetaEvent)
			if !ok {
				continue
			}
			if micros, ok := meta.Tempo(); ok {
				changes = append(changes, TempoChange{Tick: tick, MicrosPerQuarter: micros})
			}
		}
	}

	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].Tick < changes[j].Tick
	})

	if len(changes) == 0 || changes[0].Tick > 0 {
		changes = append(TempoMap{{Tick: 0, MicrosPerQuarter: DefaultMicrosPerQuarter}}, changes...)
	}
	return changes
}

// TimeAt converts an absolute tick position into elapsed milliseconds since
// tick 0 by integrating over the tempo segments: each fully-spanned segment
// contributes ticks * microsPerQuarter / division microseconds, and the
// remainder is charged at the tempo of the segment containing tick. A
// single global rate would drift as soon as the file contains more than one
// tempo, hence the piecewise walk.
func (m TempoMap) TimeAt(tick int64, division int) float64 {
	if len(m) == 0 {
		m = TempoMap{{Tick: 0, MicrosPerQuarter: DefaultMicrosPerQuarter}}
	}

	micros := 0.0
	current := m[0]
	for i := 1; i < len(m) && m[i].Tick < tick; i++ {
		segmentTicks := m[i].Tick - current.Tick
		micros += float64(segmentTicks) * float64(current.MicrosPerQuarter) / float64(division)
		current = m[i]
	}
	micros += float64(tick-current.Tick) * float64(current.MicrosPerQuarter) / float64(division)
	return micros / 1000.0
}

// TickAt is the inverse of TimeAt: it converts elapsed milliseconds since
// tick 0 into an absolute tick position, walking the same segments until the
// one containing the queried time is found.
func (m TempoMap) TickAt(elapsedMillis float64, division int) int64 {
	if len(m) == 0 {
		m = TempoMap{{Tick: 0, MicrosPerQuarter: DefaultMicrosPerQuarter}}
	}

	remaining := elapsedMillis * 1000.0
	current := m[0]
	for i := 1; i < len(m); i++ {
		segmentTicks := m[i].Tick - current.Tick
		segmentMicros := float64(segmentTicks) * float64(current.MicrosPerQuarter) / float64(division)
		if segmentMicros > remaining {
			break
		}
		remaining -= segmentMicros
		current = m[i]
	}

	// Round to the nearest tick so a time produced by TimeAt maps back to
	// its tick despite float rounding.
	microsPerTick := float64(current.MicrosPerQuarter) / float64(division)
	return current.Tick + int64(remaining/microsPerTick+0.5)
}
