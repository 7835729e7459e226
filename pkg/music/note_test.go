package music

import (
	"errors"
	"math"
	"testing"
)

func TestKeyName(t *testing.T) {
	tests := []struct {
		key  uint8
		name string
	}{
		{60, "C4"},
		{69, "A4"},
		{61, "C#4"},
		{72, "C5"},
		{0, "C-1"},
		{127, "G9"},
	}

	for _, tt := range tests {
		if got := KeyName(tt.key); got != tt.name {
			t.Errorf("KeyName(%d) = %q, want %q", tt.key, got, tt.name)
		}
	}
}

func TestFrequency(t *testing.T) {
	tests := []struct {
		key  uint8
		freq float64
	}{
		{69, 440.0},
		{81, 880.0},
		{57, 220.0},
		{60, 261.626},
	}

	for _, tt := range tests {
		if got := Frequency(tt.key); math.Abs(got-tt.freq) > 0.01 {
			t.Errorf("Frequency(%d) = %f, want %f", tt.key, got, tt.freq)
		}
	}
}

func TestParseNote(t *testing.T) {
	tests := []struct {
		text string
		key  uint8
	}{
		{"60", 60},
		{"0", 0},
		{"127", 127},
		{"C4", 60},
		{"c4", 60},
		{"C#4", 61},
		{"Bb3", 58},
		{"C-1", 0},
		{"A", 69},   // octave defaults to 4
		{"f#", 66},
		{" G4 ", 67},
		{"Sa", 72},  // Sargam relative to the default Sa
		{"re", 73},
		{"Re", 74},
		{"Ma", 78},
		{"Pa", 79},
		{"Ni", 83},
		{"सा", 72},
		{"प", 79},
	}

	for _, tt := range tests {
		got, err := ParseNote(tt.text, DefaultSa)
		if err != nil {
			t.Errorf("ParseNote(%q) failed: %v", tt.text, err)
			continue
		}
		if got != tt.key {
			t.Errorf("ParseNote(%q) = %d, want %d", tt.text, got, tt.key)
		}
	}
}

func TestParseNote_CustomSa(t *testing.T) {
	// With Sa on D4 the fifth lands on A4.
	key, err := ParseNote("Pa", 62)
	if err != nil {
		t.Fatalf("ParseNote failed: %v", err)
	}
	if key != 69 {
		t.Errorf("Expected Pa of D4 = 69, got %d", key)
	}
}

func TestParseNote_Invalid(t *testing.T) {
	for _, text := range []string{"", "  ", "128", "-1", "H4", "Saa", "C#x", "xyz"} {
		if _, err := ParseNote(text, DefaultSa); !errors.Is(err, ErrUnknownNote) {
			t.Errorf("ParseNote(%q): expected ErrUnknownNote, got %v", text, err)
		}
	}
}
