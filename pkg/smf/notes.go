package smf

import "sort"

// MinNoteDurationMillis is the floor applied to every assembled note so that
// zero-length or inverted artifacts in a file stay audible.
const MinNoteDurationMillis = 100

// Note is one assembled note: a MIDI key plus an absolute start time and a
// duration, both in milliseconds of playback time.
type Note struct {
	Key      uint8
	Start    float64
	Duration float64
}

// noteEvent is a flattened Note-On/Note-Off with its absolute tick.
type noteEvent struct {
	tick    int64
	on      bool
	channel uint8
	key     uint8
}

// AssembleNotes merges all tracks' note events into a flat list of notes
// ordered by start time.
//
// Every track is flattened to absolute ticks with its own running counter,
// then all events are stably sorted by tick (ties keep encounter order). A
// linear scan pairs each Note-On with the next Note-Off sharing its
// (channel, key); a second Note-On on the same key before the off replaces
// the open entry, so the earlier one is dropped. Note-Offs without an open
// entry are ignored, and notes still open at end of file are never emitted.
func AssembleNotes(file *File) []Note {
	tempo := BuildTempoMap(file)

	var events []noteEvent
	for _, track := range file.Tracks {
		tick := int64(0)
		for _, ev := range track {
			tick += int64(ev.Delta)
			switch msg := ev.Message.(type) {
			case NoteOnEvent:
				events = append(events, noteEvent{tick: tick, on: true, channel: msg.Channel, key: msg.Key})
			case NoteOffEvent:
				events = append(events, noteEvent{tick: tick, on: false, channel: msg.Channel, key: msg.Key})
			}
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].tick < events[j].tick
	})

	type voice struct {
		channel uint8
		key     uint8
	}
	open := make(map[voice]float64) // start time in ms of the open note

	notes := make([]Note, 0, len(events)/2)
	for _, ev := range events {
		v := voice{channel: ev.channel, key: ev.key}
		if ev.on {
			open[v] = tempo.TimeAt(ev.tick, file.Division)
			continue
		}
		start, ok := open[v]
		if !ok {
			continue
		}
		delete(open, v)
		duration := tempo.TimeAt(ev.tick, file.Division) - start
		if duration < MinNoteDurationMillis {
			duration = MinNoteDurationMillis
		}
		notes = append(notes, Note{Key: ev.key, Start: start, Duration: duration})
	}

	// Notes are appended in Note-Off order; with overlapping voices that is
	// not necessarily start order, so sort once at the end.
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].Start < notes[j].Start
	})
	return notes
}
