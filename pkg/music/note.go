// Package music converts between MIDI key numbers, Western scientific pitch
// names, Indian Sargam names and frequencies.
package music

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// A4 tuning reference.
const (
	A4Key       = 69
	A4Frequency = 440.0
)

// ErrUnknownNote is returned when a free-text note cannot be interpreted as
// a Western name, a Sargam name or a MIDI number.
var ErrUnknownNote = errors.New("unknown note name")

// pitchClassNames uses sharps; the parser additionally accepts flats.
var pitchClassNames = [12]string{
	"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B",
}

var pitchClassOffsets = map[string]int{
	"C": 0, "D": 2, "E": 4, "F": 5, "G": 7, "A": 9, "B": 11,
}

// KeyName returns the Western scientific name of a MIDI key (C4 = 60).
func KeyName(key uint8) string {
	octave := int(key)/12 - 1
	return fmt.Sprintf("%s%d", pitchClassNames[key%12], octave)
}

// Frequency returns the equal-temperament frequency of a MIDI key in Hz.
func Frequency(key uint8) float64 {
	return A4Frequency * math.Pow(2, float64(int(key)-A4Key)/12.0)
}

// ParseNote interprets free text as a note and returns its MIDI key.
//
// Accepted forms, tried in order:
//   - a raw MIDI number ("60")
//   - a Western name with optional accidental and octave ("c#4", "Bb3",
//     "f#" without an octave defaults to octave 4)
//   - a Sargam name relative to sa ("Re", "ma", Devanagari forms)
//
// Input is NFC-normalized first so decomposed Devanagari vowel signs match
// the table.
func ParseNote(text string, sa uint8) (uint8, error) {
	s := norm.NFC.String(strings.TrimSpace(text))
	if s == "" {
		return 0, fmt.Errorf("%w: empty input", ErrUnknownNote)
	}

	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 127 {
			return 0, fmt.Errorf("%w: MIDI number %d out of range", ErrUnknownNote, n)
		}
		return uint8(n), nil
	}

	if key, ok := parseWestern(s); ok {
		return key, nil
	}
	if key, ok := parseSargam(s, sa); ok {
		return key, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownNote, text)
}

// parseWestern reads a scientific pitch name: letter, optional #/b, optional
// octave number (default 4).
func parseWestern(s string) (uint8, bool) {
	letter := strings.ToUpper(s[:1])
	offset, ok := pitchClassOffsets[letter]
	if !ok {
		return 0, false
	}
	rest := s[1:]
	if strings.HasPrefix(rest, "#") {
		offset++
		rest = rest[1:]
	} else if strings.HasPrefix(rest, "b") {
		offset--
		rest = rest[1:]
	}

	octave := 4
	if rest != "" {
		n, err := strconv.Atoi(rest)
		if err != nil {
			return 0, false
		}
		octave = n
	}

	key := (octave+1)*12 + offset
	if key < 0 || key > 127 {
		return 0, false
	}
	return uint8(key), true
}
