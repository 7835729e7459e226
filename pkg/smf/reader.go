package smf

import (
	"errors"
	"fmt"
)

// Parse failure modes. Parsing fails fast: on any of these no partial File
// is returned.
var (
	ErrTooShort       = errors.New("MIDI data too short")
	ErrBadHeader      = errors.New("invalid MIDI header")
	ErrBadTrackHeader = errors.New("invalid MIDI track header")
	ErrSMPTEDivision  = errors.New("SMPTE time division is not supported")
	ErrRunningStatus  = errors.New("running status before any status byte")
	ErrTruncatedTrack = errors.New("unexpected end of track data")
)

const headerMinLen = 14 // MThd tag + length + format + tracks + division

// Parse reads a complete SMF byte buffer and returns the decoded file.
// The input is not modified and no state outlives the call.
func Parse(data []byte) (*File, error) {
	if len(data) < headerMinLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooShort, len(data))
	}
	if string(data[0:4]) != "MThd" {
		return nil, fmt.Errorf("%w: missing MThd tag", ErrBadHeader)
	}

	headerLen := int(data[4])<<24 | int(data[5])<<16 | int(data[6])<<8 | int(data[7])
	if headerLen < 6 || 8+headerLen > len(data) {
		return nil, fmt.Errorf("%w: header length %d", ErrBadHeader, headerLen)
	}

	format := int(data[8])<<8 | int(data[9])
	trackCount := int(data[10])<<8 | int(data[11])
	division := int(data[12])<<8 | int(data[13])
	if division&0x8000 != 0 {
		return nil, fmt.Errorf("%w: division 0x%04X", ErrSMPTEDivision, division)
	}

	file := &File{
		Format:     format,
		TrackCount: trackCount,
		Division:   division,
		Tracks:     make([][]TrackEvent, 0, trackCount),
	}

	offset := 8 + headerLen
	for i := 0; i < trackCount; i++ {
		if offset+8 > len(data) {
			return nil, fmt.Errorf("%w: track %d chunk header", ErrTruncatedTrack, i)
		}
		if string(data[offset:offset+4]) != "MTrk" {
			return nil, fmt.Errorf("%w: track %d", ErrBadTrackHeader, i)
		}
		trackLen := int(data[offset+4])<<24 | int(data[offset+5])<<16 |
			int(data[offset+6])<<8 | int(data[offset+7])
		offset += 8
		if offset+trackLen > len(data) {
			return nil, fmt.Errorf("%w: track %d declares %d bytes", ErrTruncatedTrack, i, trackLen)
		}

		events, err := parseTrack(data[offset : offset+trackLen])
		if err != nil {
			return nil, fmt.Errorf("track %d: %w", i, err)
		}
		file.Tracks = append(file.Tracks, events)
		offset += trackLen
	}

	return file, nil
}

// parseTrack decodes every event inside one MTrk chunk body.
func parseTrack(data []byte) ([]TrackEvent, error) {
	var events []TrackEvent
	pos := 0
	running := byte(0)

	for pos < len(data) {
		delta, n, err := readVarLen(data[pos:])
		if err != nil {
			return nil, err
		}
		pos += n
		if pos >= len(data) {
			return nil, ErrTruncatedTrack
		}

		status := data[pos]
		if status&0x80 == 0 {
			// Data byte in status position: running status. The byte itself
			// belongs to the event, so the position does not advance.
			if running == 0 {
				return nil, ErrRunningStatus
			}
			status = running
		} else {
			pos++
		}

		switch {
		case status == 0xFF:
			// Meta events cancel running status.
			running = 0
			if pos >= len(data) {
				return nil, ErrTruncatedTrack
			}
			metaType := data[pos]
			pos++
			length, n, err := readVarLen(data[pos:])
			if err != nil {
				return nil, err
			}
			pos += n
			if pos+int(length) > len(data) {
				return nil, ErrTruncatedTrack
			}
			events = append(events, TrackEvent{
				Delta:   delta,
				Message: MetaEvent{Type: metaType, Data: data[pos : pos+int(length)]},
			})
			pos += int(length)

		case status == 0xF0 || status == 0xF7:
			running = 0
			length, n, err := readVarLen(data[pos:])
			if err != nil {
				return nil, err
			}
			pos += n
			if pos+int(length) > len(data) {
				return nil, ErrTruncatedTrack
			}
			events = append(events, TrackEvent{
				Delta:   delta,
				Message: SysexEvent{Data: data[pos : pos+int(length)]},
			})
			pos += int(length)

		case status >= 0x80 && status < 0xF0:
			running = status
			dataLen := 2
			if status >= 0xC0 && status < 0xE0 {
				// Program change and channel pressure carry one data byte.
				dataLen = 1
			}
			if pos+dataLen > len(data) {
				return nil, ErrTruncatedTrack
			}
			msg, err := decodeChannelMessage(status, data[pos:pos+dataLen])
			if err != nil {
				return nil, err
			}
			events = append(events, TrackEvent{Delta: delta, Message: msg})
			pos += dataLen

		default:
			return nil, fmt.Errorf("%w: status byte 0x%02X", ErrBadTrackHeader, status)
		}
	}

	return events, nil
}

// decodeChannelMessage turns a channel voice message into its tagged form.
// Note-On with velocity 0 is the conventional compact encoding of Note-Off
// and is reclassified here so downstream code never sees it.
func decodeChannelMessage(status byte, data []byte) (Message, error) {
	channel := status & 0x0F
	switch status & 0xF0 {
	case 0x90:
		if data[1] == 0 {
			return NoteOffEvent{Channel: channel, Key: data[0], Velocity: 0}, nil
		}
		return NoteOnEvent{Channel: channel, Key: data[0], Velocity: data[1]}, nil
	case 0x80:
		return NoteOffEvent{Channel: channel, Key: data[0], Velocity: data[1]}, nil
	default:
		buf := make([]byte, len(data))
		copy(buf, data)
		return ChannelEvent{Status: status, Data: buf}, nil
	}
}

// readVarLen decodes a variable-length quantity: 7 bits per byte, high bit
// set on every byte except the last, most significant group first. The
// accumulator is capped at 4 bytes (28 bits), as in the SMF specification.
func readVarLen(data []byte) (value uint32, n int, err error) {
	for i := 0; i < 4; i++ {
		if i >= len(data) {
			return 0, 0, ErrTruncatedTrack
		}
		b := data[i]
		n++
		value = value<<7 | uint32(b&0x7F)
		if b&0x80 == 0 {
			return value, n, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: variable-length quantity exceeds 4 bytes", ErrTruncatedTrack)
}
