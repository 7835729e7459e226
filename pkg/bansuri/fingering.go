// Package bansuri maps MIDI keys onto the six-hole fingering pattern of the
// Indian bamboo flute.
package bansuri

// Hole is the state of one finger hole.
type Hole uint8

const (
	Open Hole = iota
	Half
	Closed
)

func (h Hole) String() string {
	switch h {
	case Closed:
		return "●"
	case Half:
		return "◐"
	default:
		return "○"
	}
}

// NumHoles is the number of finger holes on a standard bansuri.
const NumHoles = 6

// Fingering lists the hole states from the hole nearest the blowing end
// downward.
type Fingering [NumHoles]Hole

func (f Fingering) String() string {
	s := make([]byte, 0, NumHoles*3)
	for _, h := range f {
		s = append(s, h.String()...)
	}
	return string(s)
}

// patterns covers one register, indexed by semitone offset from Sa in the
// range -5 (the low Pa, all holes closed) through +6 (tivra Ma).
var patterns = map[int]Fingering{
	-5: {Closed, Closed, Closed, Closed, Closed, Closed}, // Pa
	-4: {Closed, Closed, Closed, Closed, Closed, Half},   // dha
	-3: {Closed, Closed, Closed, Closed, Closed, Open},   // Dha
	-2: {Closed, Closed, Closed, Closed, Half, Open},     // ni
	-1: {Closed, Closed, Closed, Closed, Open, Open},     // Ni
	0:  {Closed, Closed, Closed, Open, Open, Open},       // Sa
	1:  {Closed, Closed, Half, Open, Open, Open},         // re
	2:  {Closed, Closed, Open, Open, Open, Open},         // Re
	3:  {Closed, Half, Open, Open, Open, Open},           // ga
	4:  {Closed, Open, Open, Open, Open, Open},           // Ga
	5:  {Open, Open, Open, Open, Open, Open},             // ma
	6:  {Half, Open, Open, Open, Open, Open},             // Ma
}

// Range of playable semitone offsets from Sa. Offsets of +7 and above reuse
// the pattern an octave below, overblown into the second register.
const (
	MinOffset = -5
	MaxOffset = 18
)

// Lookup returns the fingering for a MIDI key on a flute whose Sa is the
// given key. ok is false when the note lies outside the instrument's range;
// that is not an error, the note is simply unplayable.
func Lookup(key, sa uint8) (Fingering, bool) {
	offset := int(key) - int(sa)
	if offset < MinOffset || offset > MaxOffset {
		return Fingering{}, false
	}
	if offset > 6 {
		offset -= 12
	}
	f, ok := patterns[offset]
	return f, ok
}
