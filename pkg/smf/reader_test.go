package smf

import (
	"bytes"
	"errors"
	"testing"
)

// encodeVarInt encodes an integer as a variable-length quantity.
func encodeVarInt(value uint32) []byte {
	if value == 0 {
		return []byte{0}
	}

	var result []byte
	for value > 0 {
		b := byte(value & 0x7F)
		value >>= 7
		if len(result) > 0 {
			b |= 0x80
		}
		result = append([]byte{b}, result...)
	}
	return result
}

// buildSMF assembles a MIDI file from raw track bodies. Each body is
// wrapped in an MTrk chunk; the header declares one track per body.
func buildSMF(division int, trackBodies ...[]byte) []byte {
	var buf bytes.Buffer

	buf.Write([]byte("MThd"))
	buf.Write([]byte{0x00, 0x00, 0x00, 0x06})
	buf.Write([]byte{0x00, 0x01}) // format 1
	buf.Write([]byte{byte(len(trackBodies) >> 8), byte(len(trackBodies))})
	buf.Write([]byte{byte(division >> 8), byte(division)})

	for _, body := range trackBodies {
		buf.Write([]byte("MTrk"))
		buf.Write([]byte{
			byte(len(body) >> 24),
			byte(len(body) >> 16),
			byte(len(body) >> 8),
			byte(len(body)),
		})
		buf.Write(body)
	}

	return buf.Bytes()
}

// track builds one track body from delta/event pairs.
type track struct {
	buf bytes.Buffer
}

func (t *track) event(delta uint32, data ...byte) *track {
	t.buf.Write(encodeVarInt(delta))
	t.buf.Write(data)
	return t
}

func (t *track) endOfTrack() []byte {
	t.event(0, 0xFF, 0x2F, 0x00)
	return t.buf.Bytes()
}

func TestParse_TooShort(t *testing.T) {
	data := []byte("MThd\x00\x00\x00")
	_, err := Parse(data)
	if !errors.Is(err, ErrTooShort) {
		t.Errorf("Expected ErrTooShort, got %v", err)
	}
}

func TestParse_BadHeaderTag(t *testing.T) {
	data := buildSMF(480, (&track{}).endOfTrack())
	copy(data[0:4], "XXXX")
	_, err := Parse(data)
	if !errors.Is(err, ErrBadHeader) {
		t.Errorf("Expected ErrBadHeader, got %v", err)
	}
}

func TestParse_SMPTEDivision(t *testing.T) {
	// Division with the high bit set encodes SMPTE timing.
	data := buildSMF(0, (&track{}).endOfTrack())
	data[12] = 0xE8 // -24 fps
	data[13] = 0x50
	file, err := Parse(data)
	if !errors.Is(err, ErrSMPTEDivision) {
		t.Errorf("Expected ErrSMPTEDivision, got %v", err)
	}
	if file != nil {
		t.Error("Expected no partial result on SMPTE division")
	}
}

func TestParse_BadTrackTag(t *testing.T) {
	data := buildSMF(480, (&track{}).endOfTrack())
	copy(data[14:18], "XTrk")
	_, err := Parse(data)
	if !errors.Is(err, ErrBadTrackHeader) {
		t.Errorf("Expected ErrBadTrackHeader, got %v", err)
	}
}

func TestParse_RunningStatusBeforeStatus(t *testing.T) {
	// First event byte 0x3C is a data byte with no prior status byte.
	body := (&track{}).event(0, 0x3C, 0x40).endOfTrack()
	_, err := Parse(buildSMF(480, body))
	if !errors.Is(err, ErrRunningStatus) {
		t.Errorf("Expected ErrRunningStatus, got %v", err)
	}
}

func TestParse_HeaderFields(t *testing.T) {
	body := (&track{}).endOfTrack()
	file, err := Parse(buildSMF(480, body, body))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if file.Format != 1 {
		t.Errorf("Expected format 1, got %d", file.Format)
	}
	if file.TrackCount != 2 || len(file.Tracks) != 2 {
		t.Errorf("Expected 2 tracks, got count=%d len=%d", file.TrackCount, len(file.Tracks))
	}
	if file.Division != 480 {
		t.Errorf("Expected division 480, got %d", file.Division)
	}
}

func TestParse_ChannelEvents(t *testing.T) {
	body := (&track{}).
		event(0, 0x91, 0x3C, 0x40).  // note on, channel 1
		event(10, 0x81, 0x3C, 0x00). // note off, channel 1
		event(0, 0xC1, 0x49).        // program change (one data byte)
		event(0, 0xB1, 0x07, 0x64).  // controller (two data bytes)
		endOfTrack()

	file, err := Parse(buildSMF(480, body))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	events := file.Tracks[0]
	if len(events) != 5 { // 4 channel events + end of track
		t.Fatalf("Expected 5 events, got %d", len(events))
	}

	on, ok := events[0].Message.(NoteOnEvent)
	if !ok || on.Channel != 1 || on.Key != 0x3C || on.Velocity != 0x40 {
		t.Errorf("Event 0: expected NoteOn ch=1 key=60 vel=64, got %#v", events[0].Message)
	}
	off, ok := events[1].Message.(NoteOffEvent)
	if !ok || off.Channel != 1 || off.Key != 0x3C {
		t.Errorf("Event 1: expected NoteOff ch=1 key=60, got %#v", events[1].Message)
	}
	if events[1].Delta != 10 {
		t.Errorf("Event 1: expected delta 10, got %d", events[1].Delta)
	}
	pc, ok := events[2].Message.(ChannelEvent)
	if !ok || pc.Status != 0xC1 || len(pc.Data) != 1 {
		t.Errorf("Event 2: expected program change with 1 data byte, got %#v", events[2].Message)
	}
	cc, ok := events[3].Message.(ChannelEvent)
	if !ok || cc.Status != 0xB1 || len(cc.Data) != 2 || cc.Channel() != 1 {
		t.Errorf("Event 3: expected controller with 2 data bytes, got %#v", events[3].Message)
	}
}

func TestParse_NoteOnVelocityZeroIsNoteOff(t *testing.T) {
	body := (&track{}).
		event(0, 0x90, 0x3C, 0x40).
		event(480, 0x90, 0x3C, 0x00). // velocity 0 = note off
		endOfTrack()

	file, err := Parse(buildSMF(480, body))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if _, ok := file.Tracks[0][1].Message.(NoteOffEvent); !ok {
		t.Errorf("Expected velocity-0 NoteOn to parse as NoteOffEvent, got %#v",
			file.Tracks[0][1].Message)
	}
}

func TestParse_RunningStatus(t *testing.T) {
	// Three notes on channel 0, the status byte given once.
	body := (&track{}).
		event(0, 0x90, 0x3C, 0x40).
		event(10, 0x3E, 0x40). // running status
		event(10, 0x40, 0x40). // running status
		endOfTrack()

	file, err := Parse(buildSMF(480, body))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	keys := []uint8{0x3C, 0x3E, 0x40}
	for i, want := range keys {
		on, ok := file.Tracks[0][i].Message.(NoteOnEvent)
		if !ok || on.Key != want {
			t.Errorf("Event %d: expected NoteOn key %d, got %#v", i, want, file.Tracks[0][i].Message)
		}
	}
}

func TestParse_MetaAndSysex(t *testing.T) {
	body := (&track{}).
		event(0, 0xFF, 0x51, 0x03, 0x07, 0xA1, 0x20). // tempo 500000
		event(0, 0xFF, 0x03, 0x04, 'r', 'a', 'a', 'g'). // track name
		event(0, 0xF0, 0x03, 0x01, 0x02, 0x03).         // sysex
		endOfTrack()

	file, err := Parse(buildSMF(480, body))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	tempo, ok := file.Tracks[0][0].Message.(MetaEvent)
	if !ok {
		t.Fatalf("Expected MetaEvent, got %#v", file.Tracks[0][0].Message)
	}
	micros, ok := tempo.Tempo()
	if !ok || micros != 500000 {
		t.Errorf("Expected tempo 500000, got %d (ok=%v)", micros, ok)
	}

	name, ok := file.Tracks[0][1].Message.(MetaEvent)
	if !ok || string(name.Data) != "raag" {
		t.Errorf("Expected track name meta 'raag', got %#v", file.Tracks[0][1].Message)
	}
	if _, ok := name.Tempo(); ok {
		t.Error("Tempo() should not decode a non-tempo meta event")
	}

	sysex, ok := file.Tracks[0][2].Message.(SysexEvent)
	if !ok || len(sysex.Data) != 3 {
		t.Errorf("Expected 3-byte SysexEvent, got %#v", file.Tracks[0][2].Message)
	}
}

func TestParse_TruncatedTrack(t *testing.T) {
	body := (&track{}).event(0, 0x90, 0x3C, 0x40).endOfTrack()
	data := buildSMF(480, body)
	// Cut the buffer inside the track body.
	_, err := Parse(data[:len(data)-3])
	if !errors.Is(err, ErrTruncatedTrack) {
		t.Errorf("Expected ErrTruncatedTrack, got %v", err)
	}
}

func TestReadVarLen(t *testing.T) {
	tests := []struct {
		data  []byte
		value uint32
		n     int
	}{
		{[]byte{0x00}, 0, 1},
		{[]byte{0x40}, 0x40, 1},
		{[]byte{0x7F}, 0x7F, 1},
		{[]byte{0x81, 0x00}, 0x80, 2},
		{[]byte{0xC0, 0x00}, 0x2000, 2},
		{[]byte{0xFF, 0x7F}, 0x3FFF, 2},
		{[]byte{0x81, 0x80, 0x00}, 0x4000, 3},
		{[]byte{0xFF, 0xFF, 0xFF, 0x7F}, 0x0FFFFFFF, 4},
	}

	for _, tt := range tests {
		value, n, err := readVarLen(tt.data)
		if err != nil {
			t.Errorf("readVarLen(%v) failed: %v", tt.data, err)
			continue
		}
		if value != tt.value || n != tt.n {
			t.Errorf("readVarLen(%v) = (%d, %d), want (%d, %d)", tt.data, value, n, tt.value, tt.n)
		}
	}
}

func TestReadVarLen_Truncated(t *testing.T) {
	if _, _, err := readVarLen([]byte{0x81}); !errors.Is(err, ErrTruncatedTrack) {
		t.Errorf("Expected ErrTruncatedTrack for dangling continuation bit, got %v", err)
	}
	if _, _, err := readVarLen([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x7F}); !errors.Is(err, ErrTruncatedTrack) {
		t.Errorf("Expected ErrTruncatedTrack for 5-byte quantity, got %v", err)
	}
}
