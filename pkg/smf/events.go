// Package smf reads and writes Standard MIDI Files (SMF).
//
// The reader is a pure function over an in-memory byte buffer: it validates
// the MThd header, walks every MTrk chunk, decodes variable-length delta
// times and running status, and produces one event list per track. On top of
// the raw event lists the package builds a tempo map (tick -> microseconds
// per quarter note), converts tick positions to wall-clock milliseconds by
// piecewise integration over the tempo segments, and assembles matched
// Note-On/Note-Off pairs into a flat, time-ordered note list suitable for
// playback.
package smf

// TrackEvent is one parsed track event: the delta time in ticks since the
// previous event of the same track, plus the decoded message.
type TrackEvent struct {
	Delta   uint32
	Message Message
}

// Message is the decoded payload of a track event. Concrete types are
// MetaEvent, SysexEvent, NoteOnEvent, NoteOffEvent and ChannelEvent, so a
// type switch over Message is exhaustive.
type Message interface {
	message()
}

// Meta event type bytes that the reader gives special treatment.
const (
	MetaSetTempo   = 0x51
	MetaEndOfTrack = 0x2F
)

// MetaEvent is a meta event (status 0xFF): a type byte plus raw payload.
type MetaEvent struct {
	Type byte
	Data []byte
}

func (MetaEvent) message() {}

// Tempo returns the microseconds-per-quarter-note value carried by a
// Set-Tempo event. ok is false for any other meta type or a malformed
// payload length.
func (m MetaEvent) Tempo() (microsPerQuarter int, ok bool) {
	if m.Type != MetaSetTempo || len(m.Data) != 3 {
		return 0, false
	}
	return int(m.Data[0])<<16 | int(m.Data[1])<<8 | int(m.Data[2]), true
}

// SysexEvent is a system-exclusive event (status 0xF0 or 0xF7). The payload
// is carried through without interpretation.
type SysexEvent struct {
	Data []byte
}

func (SysexEvent) message() {}

// NoteOnEvent starts a note. The reader reclassifies Note-On with velocity 0
// as NoteOffEvent, so Velocity is always greater than zero here.
type NoteOnEvent struct {
	Channel  uint8 // 0-15
	Key      uint8 // 0-127
	Velocity uint8 // 1-127
}

func (NoteOnEvent) message() {}

// NoteOffEvent ends a note. It is produced both by explicit Note-Off status
// bytes and by Note-On events with velocity 0.
type NoteOffEvent struct {
	Channel  uint8
	Key      uint8
	Velocity uint8
}

func (NoteOffEvent) message() {}

// ChannelEvent is any channel voice message other than Note-On/Note-Off
// (controller, program change, pitch bend, ...). Status keeps the full
// status byte including the channel nibble; Data holds the one or two data
// bytes the status calls for.
type ChannelEvent struct {
	Status byte
	Data   []byte
}

func (ChannelEvent) message() {}

// Channel returns the channel nibble of the status byte.
func (c ChannelEvent) Channel() uint8 {
	return c.Status & 0x0F
}

// File is the result of parsing an SMF byte buffer.
type File struct {
	// Format is the SMF format field (0, 1 or 2).
	Format int
	// TrackCount is the declared number of tracks. len(Tracks) always
	// matches it after a successful parse.
	TrackCount int
	// Division is the number of ticks per quarter note. SMPTE divisions are
	// rejected by the reader, so Division is always positive.
	Division int
	// Tracks holds one event list per MTrk chunk, in file order.
	Tracks [][]TrackEvent
}
