package music

// DefaultSa is the Sa key assumed when none is configured: C5, the common
// notation anchor for a medium bansuri.
const DefaultSa = 72

// Sargam note names relative to Sa, one per semitone. By the usual
// convention a lowercase initial marks the komal (flat) variant and "Ma" is
// the tivra (sharp) fourth, while "ma" is shuddha.
var sargamNames = [12]string{
	"Sa", "re", "Re", "ga", "Ga", "ma", "Ma", "Pa", "dha", "Dha", "ni", "Ni",
}

// sargamOffsets is the case-sensitive parse table for the Latin names.
var sargamOffsets = map[string]int{
	"Sa": 0, "re": 1, "Re": 2, "ga": 3, "Ga": 4, "ma": 5,
	"Ma": 6, "Pa": 7, "dha": 8, "Dha": 9, "ni": 10, "Ni": 11,
}

// devanagariOffsets maps the seven shuddha Devanagari names. Komal and tivra
// variants have no single standard spelling in plain text, so only the
// shuddha set is accepted.
var devanagariOffsets = map[string]int{
	"सा": 0, "रे": 2, "ग": 4, "म": 5, "प": 7, "ध": 9, "नि": 11,
}

// SargamName names a MIDI key relative to the given Sa. The second return
// value is the octave offset from the Sa octave (0 for the middle register,
// 1 for taar, -1 for mandra, and so on).
func SargamName(key, sa uint8) (name string, octave int) {
	offset := int(key) - int(sa)
	octave = offset / 12
	offset %= 12
	if offset < 0 {
		offset += 12
		octave--
	}
	return sargamNames[offset], octave
}

// parseSargam reads a Latin or Devanagari Sargam name as a key in the Sa
// octave. Latin names are case-sensitive because case distinguishes komal
// from shuddha.
func parseSargam(s string, sa uint8) (uint8, bool) {
	offset, ok := sargamOffsets[s]
	if !ok {
		offset, ok = devanagariOffsets[s]
	}
	if !ok {
		return 0, false
	}
	key := int(sa) + offset
	if key > 127 {
		return 0, false
	}
	return uint8(key), true
}
